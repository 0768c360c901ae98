package workflow

import (
	"github.com/kirinyoku/courtbook/internal/domain"
)

// Selection is the user's current choice at every step of the wizard. A zero
// id means "not chosen".
type Selection struct {
	CampusID  int64        `json:"campus_id,omitempty"`
	SportID   int64        `json:"sport_id,omitempty"`
	SportName string       `json:"sport_name,omitempty"`
	Date      domain.Date  `json:"date"`
	Slot      *domain.Slot `json:"slot,omitempty"`
}

func (s Selection) Scope() domain.Scope {
	return domain.Scope{CampusID: s.CampusID, SportID: s.SportID, Date: s.Date}
}

// SelectionState enforces the cascade between choices: changing an upstream
// field clears every downstream field and the cached availability in the same
// call. Rejected changes are no-ops reported as false.
type SelectionState struct {
	sel   Selection
	cache *AvailabilityCache
	today func() domain.Date
}

func NewSelectionState(cache *AvailabilityCache, today func() domain.Date) *SelectionState {
	return &SelectionState{cache: cache, today: today}
}

func (s *SelectionState) Current() Selection {
	out := s.sel
	if s.sel.Slot != nil {
		slot := *s.sel.Slot
		out.Slot = &slot
	}
	return out
}

func (s *SelectionState) Scope() domain.Scope { return s.sel.Scope() }

func (s *SelectionState) HasCampus() bool { return s.sel.CampusID != 0 }
func (s *SelectionState) HasSport() bool  { return s.sel.SportID != 0 }
func (s *SelectionState) HasSlot() bool   { return s.sel.Slot != nil }

func (s *SelectionState) SetCampus(id int64) bool {
	if id <= 0 {
		return false
	}

	s.sel = Selection{CampusID: id, Date: s.today()}
	s.cache.Clear()
	return true
}

func (s *SelectionState) SetSport(sport domain.Sport) bool {
	if !s.HasCampus() || sport.ID <= 0 {
		return false
	}

	s.sel.SportID = sport.ID
	s.sel.SportName = sport.Name
	s.sel.Slot = nil
	s.cache.Clear()
	return true
}

func (s *SelectionState) SetDate(date domain.Date) bool {
	if !s.HasCampus() || date.IsZero() {
		return false
	}

	s.sel.Date = date
	s.sel.Slot = nil
	s.cache.Clear()
	return true
}

// SetSlot accepts slot only when scope is the current scope and the slot is
// available on that date. Anything else is a stale choice and is ignored.
func (s *SelectionState) SetSlot(scope domain.Scope, slot domain.Slot) bool {
	if !s.HasSport() || scope != s.Scope() {
		return false
	}
	if !slot.Date.Equal(s.sel.Date) || !slot.IsAvailable() {
		return false
	}

	s.sel.Slot = &slot
	return true
}

func (s *SelectionState) ClearSlot() {
	s.sel.Slot = nil
}

// Reset returns to an empty selection.
func (s *SelectionState) Reset() {
	s.sel = Selection{}
	s.cache.Clear()
}
