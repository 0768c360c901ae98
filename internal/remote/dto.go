package remote

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/kirinyoku/courtbook/internal/domain"
)

const (
	statusAvailable = "Disponible"

	// ConflictMessage is the literal `data` value the service answers with when
	// the slot is already reserved.
	ConflictMessage = "Ya existe una reserva para esa fecha y horario"
)

// flexInt decodes identifiers the service sends either as numbers or as
// numeric strings. null decodes to zero.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		*f = flexInt(v)
		return nil
	}

	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexInt(v)
	return nil
}

type campusRecord struct {
	ID          flexInt `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
}

func (r campusRecord) toDomain() domain.Campus {
	name := r.Name
	if name == "" {
		name = r.Description
	}
	return domain.Campus{ID: int64(r.ID), Name: name}
}

type sportRecord struct {
	ID   flexInt `json:"id"`
	Name string  `json:"name"`
}

type sportsRequest struct {
	ID int64 `json:"id"`
}

type availabilityRequest struct {
	Fecha    string `json:"fecha"`
	CampusID int64  `json:"id"`
	SportID  int64  `json:"sport_id"`
}

type slotRecord struct {
	ScheduleID         flexInt `json:"schedule_id"`
	DayName            string  `json:"day_name"`
	CalendarDate       string  `json:"calendar_date"`
	Start              string  `json:"start"`
	Finish             string  `json:"finish"`
	CourtID            flexInt `json:"court_id"`
	CourtName          string  `json:"court_name"`
	ReservationID      flexInt `json:"reservation_id"`
	Run                flexInt `json:"run"`
	RegisterDate       *string `json:"register_date"`
	ReservationState   *string `json:"reservation_state"`
	AvailabilityStatus string  `json:"availability_status"`
}

func (r slotRecord) toDomain() (domain.Slot, error) {
	date, err := domain.ParseDate(r.CalendarDate)
	if err != nil {
		return domain.Slot{}, err
	}

	availability := domain.SlotUnavailable
	if strings.EqualFold(strings.TrimSpace(r.AvailabilityStatus), statusAvailable) {
		availability = domain.SlotAvailable
	}

	return domain.Slot{
		ScheduleID:   int64(r.ScheduleID),
		Date:         date,
		DayName:      r.DayName,
		StartTime:    clock(r.Start),
		EndTime:      clock(r.Finish),
		CourtID:      int64(r.CourtID),
		CourtName:    r.CourtName,
		Availability: availability,
	}, nil
}

type submitRequest struct {
	Run          int64  `json:"run"`
	RegisterDate string `json:"register_date"`
	ScheduleID   int64  `json:"schedule_id"`
}

type ownerRequest struct {
	Run int64 `json:"run"`
}

type cancelRequest struct {
	ID int64 `json:"id"`
}

type reservationRecord struct {
	ID           flexInt `json:"id"`
	Run          flexInt `json:"run"`
	ScheduleID   flexInt `json:"schedule_id"`
	Creation     string  `json:"creation"`
	RegisterDate string  `json:"register_date"`
	State        bool    `json:"state"`
	Day          string  `json:"day"`
	Start        string  `json:"start"`
	Finish       string  `json:"finish"`
	Court        string  `json:"court"`
	Sport        string  `json:"sport"`
	Headquarter  string  `json:"headquarter"`
}

func (r reservationRecord) toDomain() domain.Reservation {
	// An unparsable date stays zero and is later treated as past.
	date, _ := domain.ParseDate(r.RegisterDate)

	return domain.Reservation{
		ID:           int64(r.ID),
		OwnerID:      int64(r.Run),
		ScheduleID:   int64(r.ScheduleID),
		RegisterDate: date,
		Creation:     r.Creation,
		Active:       r.State,
		Day:          r.Day,
		Court:        r.Court,
		Sport:        r.Sport,
		Headquarter:  r.Headquarter,
		Start:        clock(r.Start),
		Finish:       clock(r.Finish),
	}
}

// clock trims "HH:MM:SS" to "HH:MM".
func clock(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == len("15:04:05") && s[2] == ':' && s[5] == ':' {
		return s[:5]
	}
	return s
}
