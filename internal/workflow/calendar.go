package workflow

import (
	"fmt"

	"github.com/teambition/rrule-go"

	"github.com/kirinyoku/courtbook/internal/domain"
)

const (
	DefaultBookableRule = "FREQ=DAILY;BYDAY=MO,TU,WE,TH,FR"
	DefaultDaysShown    = 6
)

type Direction string

const (
	DirectionNext Direction = "next"
	DirectionPrev Direction = "prev"
)

func (d Direction) Valid() bool {
	return d == DirectionNext || d == DirectionPrev
}

// Day is one entry of the week strip shown to the user.
type Day struct {
	Date     domain.Date `json:"date"`
	Weekday  string      `json:"weekday"`
	Bookable bool        `json:"bookable"`
}

// Calendar decides which days can be booked, from a recurrence rule, and how
// week navigation moves the selected date. It is safe for concurrent use.
type Calendar struct {
	opt       rrule.ROption
	daysShown int
}

func NewCalendar(rule string, daysShown int) (*Calendar, error) {
	if rule == "" {
		rule = DefaultBookableRule
	}
	if daysShown <= 0 {
		daysShown = DefaultDaysShown
	}

	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid bookable days rule %q: %w", rule, err)
	}
	if _, err := rrule.NewRRule(*opt); err != nil {
		return nil, fmt.Errorf("invalid bookable days rule %q: %w", rule, err)
	}

	return &Calendar{opt: *opt, daysShown: daysShown}, nil
}

// next returns the first bookable date on or after from. ok is false when the
// rule has no further occurrence.
func (c *Calendar) next(from domain.Date) (domain.Date, bool) {
	opt := c.opt
	opt.Dtstart = from.Time()

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return domain.Date{}, false
	}

	t := r.After(from.Time(), true)
	if t.IsZero() {
		return domain.Date{}, false
	}

	return domain.DateOf(t.UTC()), true
}

func (c *Calendar) IsBookable(d domain.Date) bool {
	if d.IsZero() {
		return false
	}
	got, ok := c.next(d)
	return ok && got.Equal(d)
}

// FirstBookable returns the first bookable date on or after from, or from
// itself when the rule never matches again.
func (c *Calendar) FirstBookable(from domain.Date) domain.Date {
	if d, ok := c.next(from); ok {
		return d
	}
	return from
}

// WeekStart returns the Monday of the week containing d.
func WeekStart(d domain.Date) domain.Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// Week returns the days shown for the week containing d. Days before today are
// never bookable.
func (c *Calendar) Week(d, today domain.Date) []Day {
	start := WeekStart(d)
	days := make([]Day, 0, c.daysShown)
	for i := 0; i < c.daysShown; i++ {
		day := start.AddDays(i)
		days = append(days, Day{
			Date:     day,
			Weekday:  day.Weekday().String(),
			Bookable: !day.Before(today) && c.IsBookable(day),
		})
	}
	return days
}

// Navigate moves current by one week in dir and snaps to a bookable day.
// Moving back never lands before today.
func (c *Calendar) Navigate(current, today domain.Date, dir Direction) domain.Date {
	if current.IsZero() {
		current = today
	}

	switch dir {
	case DirectionPrev:
		target := c.FirstBookable(current.AddDays(-7))
		if target.Before(today) {
			return c.FirstBookable(today)
		}
		return target
	default:
		return c.FirstBookable(current.AddDays(7))
	}
}
