package workflow

import (
	"slices"
	"strings"

	"github.com/kirinyoku/courtbook/internal/domain"
)

// filterSlots keeps the slots that belong to scope. The service may answer with
// adjacent dates or other courts, so the date must match exactly and the court
// name must mention the sport.
func filterSlots(slots []domain.Slot, scope domain.Scope, sportName string) []domain.Slot {
	out := make([]domain.Slot, 0, len(slots))
	for _, s := range slots {
		if !s.Date.Equal(scope.Date) {
			continue
		}
		if sportName != "" && !containsFolded(s.CourtName, sportName) {
			continue
		}
		out = append(out, s)
	}

	slices.SortStableFunc(out, func(a, b domain.Slot) int {
		if c := strings.Compare(a.StartTime, b.StartTime); c != 0 {
			return c
		}
		return strings.Compare(a.CourtName, b.CourtName)
	})

	return out
}
