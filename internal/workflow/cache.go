package workflow

import "github.com/kirinyoku/courtbook/internal/domain"

// AvailabilityCache holds the filtered slot set of a single scope. It is owned
// by one BookingWorkflow and never touched without the workflow lock.
type AvailabilityCache struct {
	scope  domain.Scope
	slots  []domain.Slot
	loaded bool
}

func NewAvailabilityCache() *AvailabilityCache {
	return &AvailabilityCache{}
}

// Replace swaps the whole slot set. Slots are never patched in place.
func (c *AvailabilityCache) Replace(scope domain.Scope, slots []domain.Slot) {
	c.scope = scope
	c.slots = append([]domain.Slot(nil), slots...)
	c.loaded = true
}

func (c *AvailabilityCache) Clear() {
	c.scope = domain.Scope{}
	c.slots = nil
	c.loaded = false
}

func (c *AvailabilityCache) Scope() domain.Scope { return c.scope }

func (c *AvailabilityCache) Loaded() bool { return c.loaded }

// Slots returns a copy of the cached set if it belongs to scope.
func (c *AvailabilityCache) Slots(scope domain.Scope) ([]domain.Slot, bool) {
	if !c.loaded || c.scope != scope {
		return nil, false
	}
	return append([]domain.Slot(nil), c.slots...), true
}

func (c *AvailabilityCache) Lookup(scheduleID int64) (domain.Slot, bool) {
	if !c.loaded {
		return domain.Slot{}, false
	}
	for _, s := range c.slots {
		if s.ScheduleID == scheduleID {
			return s, true
		}
	}
	return domain.Slot{}, false
}

// MarkUnavailable flags a cached slot as taken until the next Replace.
func (c *AvailabilityCache) MarkUnavailable(scheduleID int64) {
	for i := range c.slots {
		if c.slots[i].ScheduleID == scheduleID {
			c.slots[i].Availability = domain.SlotUnavailable
		}
	}
}

// AvailableCount reports how many cached slots can be selected.
func (c *AvailabilityCache) AvailableCount() int {
	n := 0
	for _, s := range c.slots {
		if s.IsAvailable() {
			n++
		}
	}
	return n
}
