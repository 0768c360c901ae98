package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kirinyoku/courtbook/internal/domain"
)

func newSelection() (*SelectionState, *AvailabilityCache) {
	cache := NewAvailabilityCache()
	return NewSelectionState(cache, func() domain.Date { return monday }), cache
}

func TestSelectionState_Cascade(t *testing.T) {
	s, cache := newSelection()

	assert.False(t, s.SetSport(domain.Sport{ID: 5, Name: "Tenis"}), "sport needs a campus")
	assert.False(t, s.SetDate(tuesday), "date needs a campus")

	assert.True(t, s.SetCampus(1))
	assert.True(t, s.SetSport(domain.Sport{ID: 5, Name: "Tenis"}))
	assert.True(t, s.SetDate(tuesday))

	scope := s.Scope()
	slot := tennisSlot(42, tuesday, "10:00", domain.SlotAvailable)
	cache.Replace(scope, []domain.Slot{slot})
	assert.True(t, s.SetSlot(scope, slot))

	assert.True(t, s.SetDate(wednesday))
	assert.Nil(t, s.Current().Slot)
	assert.False(t, cache.Loaded())
	assert.Equal(t, int64(5), s.Current().SportID)

	assert.True(t, s.SetCampus(2))
	cur := s.Current()
	assert.Zero(t, cur.SportID)
	assert.Empty(t, cur.SportName)
	assert.True(t, monday.Equal(cur.Date))
	assert.Nil(t, cur.Slot)

	assert.False(t, s.SetCampus(0))
	assert.Equal(t, int64(2), s.Current().CampusID)
}

func TestSelectionState_SetSlotRejectsStaleChoices(t *testing.T) {
	s, _ := newSelection()
	s.SetCampus(1)
	s.SetSport(domain.Sport{ID: 5, Name: "Tenis"})
	s.SetDate(tuesday)

	current := s.Scope()
	stale := domain.Scope{CampusID: 1, SportID: 5, Date: monday}

	tests := []struct {
		name  string
		scope domain.Scope
		slot  domain.Slot
		want  bool
	}{
		{"matching scope", current, tennisSlot(1, tuesday, "10:00", domain.SlotAvailable), true},
		{"older scope", stale, tennisSlot(2, monday, "10:00", domain.SlotAvailable), false},
		{"slot of another date", current, tennisSlot(3, wednesday, "10:00", domain.SlotAvailable), false},
		{"unavailable slot", current, tennisSlot(4, tuesday, "10:00", domain.SlotUnavailable), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.ClearSlot()
			assert.Equal(t, tt.want, s.SetSlot(tt.scope, tt.slot))
			assert.Equal(t, tt.want, s.HasSlot())
		})
	}
}

func TestSelectionState_SlotCopyIsDetached(t *testing.T) {
	s, _ := newSelection()
	s.SetCampus(1)
	s.SetSport(domain.Sport{ID: 5, Name: "Tenis"})
	s.SetDate(tuesday)
	s.SetSlot(s.Scope(), tennisSlot(1, tuesday, "10:00", domain.SlotAvailable))

	cur := s.Current()
	cur.Slot.StartTime = "23:00"

	assert.Equal(t, "10:00", s.Current().Slot.StartTime)
}
