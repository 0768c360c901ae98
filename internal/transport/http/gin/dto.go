package httpgin

import (
	"github.com/kirinyoku/courtbook/internal/domain"
	"github.com/kirinyoku/courtbook/internal/workflow"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateSessionRequest struct {
	OwnerID int64 `json:"owner_id" binding:"required,gt=0"`
}

type SelectCampusRequest struct {
	CampusID int64 `json:"campus_id" binding:"required,gt=0"`
}

type SelectSportRequest struct {
	SportID   int64  `json:"sport_id" binding:"omitempty,gt=0"`
	SportName string `json:"sport_name" binding:"omitempty,max=100"`
}

type SelectDateRequest struct {
	Date string `json:"date" binding:"required,datetime=2006-01-02"`
}

type NavigateWeekRequest struct {
	Direction workflow.Direction `json:"direction" binding:"required,oneof=next prev"`
}

type SelectSlotRequest struct {
	ScheduleID int64 `json:"schedule_id" binding:"required,gt=0"`
}

type SessionResponse struct {
	ID      string                   `json:"id"`
	OwnerID int64                    `json:"owner_id"`
	Booking workflow.BookingSnapshot `json:"booking"`
}

type ReservationsResponse struct {
	OwnerID    int64                `json:"owner_id"`
	Query      string               `json:"query,omitempty"`
	Items      []domain.Reservation `json:"items"`
	Cancelling []int64              `json:"cancelling,omitempty"`
}

type CancelResponse struct {
	ReservationID int64                `json:"reservation_id"`
	Result        domain.CancelResult  `json:"result"`
	Items         []domain.Reservation `json:"items"`
}

type CalendarResponse struct {
	Date     domain.Date    `json:"date"`
	Previous domain.Date    `json:"previous"`
	Next     domain.Date    `json:"next"`
	Days     []workflow.Day `json:"days"`
}

type JournalResponse struct {
	OwnerID int64                 `json:"owner_id"`
	Entries []domain.JournalEntry `json:"entries"`
}
