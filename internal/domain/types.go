package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Availability string

const (
	SlotAvailable   Availability = "AVAILABLE"
	SlotUnavailable Availability = "UNAVAILABLE"
)

type Campus struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Sport struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Scope is the tuple that determines which slots are relevant to a selection.
type Scope struct {
	CampusID int64 `json:"campus_id"`
	SportID  int64 `json:"sport_id"`
	Date     Date  `json:"date"`
}

func (s Scope) String() string {
	return fmt.Sprintf("campus=%d sport=%d date=%s", s.CampusID, s.SportID, s.Date)
}

type Slot struct {
	ScheduleID   int64        `json:"schedule_id"`
	Date         Date         `json:"date"`
	DayName      string       `json:"day_name,omitempty"`
	StartTime    string       `json:"start_time"`
	EndTime      string       `json:"end_time"`
	CourtID      int64        `json:"court_id"`
	CourtName    string       `json:"court_name"`
	Availability Availability `json:"availability"`
}

func (s Slot) IsAvailable() bool {
	return s.Availability == SlotAvailable
}

type Reservation struct {
	ID           int64  `json:"id"`
	OwnerID      int64  `json:"owner_id"`
	ScheduleID   int64  `json:"schedule_id,omitempty"`
	RegisterDate Date   `json:"register_date"`
	Creation     string `json:"creation,omitempty"`
	Active       bool   `json:"active"`
	Day          string `json:"day,omitempty"`
	Court        string `json:"court"`
	Sport        string `json:"sport"`
	Headquarter  string `json:"headquarter"`
	Start        string `json:"start"`
	Finish       string `json:"finish"`
}

type SubmitResult struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

type CancelResult struct {
	Accepted         bool `json:"accepted"`
	AlreadyCancelled bool `json:"already_cancelled,omitempty"`
}

type JournalOutcome string

const (
	OutcomeBooked    JournalOutcome = "booked"
	OutcomeConflict  JournalOutcome = "conflict"
	OutcomeFailed    JournalOutcome = "failed"
	OutcomeCancelled JournalOutcome = "cancelled"
)

// JournalEntry is the durable record of a submission or cancellation outcome.
type JournalEntry struct {
	ID            uuid.UUID      `json:"id"`
	SessionID     uuid.UUID      `json:"session_id"`
	OwnerID       int64          `json:"owner_id"`
	ScheduleID    int64          `json:"schedule_id,omitempty"`
	ReservationID int64          `json:"reservation_id,omitempty"`
	Scope         Scope          `json:"scope"`
	Outcome       JournalOutcome `json:"outcome"`
	Reason        string         `json:"reason,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
