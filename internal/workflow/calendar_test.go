package workflow

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/courtbook/internal/domain"
)

func TestCalendar_Weekdays(t *testing.T) {
	cal, err := NewCalendar("", 0)
	require.NoError(t, err)

	tests := []struct {
		date string
		want bool
	}{
		{"2024-06-10", true},
		{"2024-06-14", true},
		{"2024-06-15", false},
		{"2024-06-16", false},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.IsBookable(domain.MustParseDate(tt.date)))
		})
	}

	assert.Equal(t, "2024-06-17", cal.FirstBookable(domain.MustParseDate("2024-06-15")).String())
}

func TestCalendar_Week(t *testing.T) {
	cal, err := NewCalendar(DefaultBookableRule, DefaultDaysShown)
	require.NoError(t, err)

	days := cal.Week(wednesday, wednesday)
	require.Len(t, days, 6)

	assert.Equal(t, "2024-06-10", days[0].Date.String())
	assert.Equal(t, time.Monday.String(), days[0].Weekday)
	assert.False(t, days[0].Bookable, "before today")
	assert.False(t, days[1].Bookable, "before today")
	assert.True(t, days[2].Bookable)
	assert.True(t, days[4].Bookable)
	assert.False(t, days[5].Bookable, "saturday")
}

func TestCalendar_Navigate(t *testing.T) {
	cal, err := NewCalendar(DefaultBookableRule, DefaultDaysShown)
	require.NoError(t, err)

	today := monday

	tests := []struct {
		name    string
		current string
		dir     Direction
		want    string
	}{
		{"next week same weekday", "2024-06-12", DirectionNext, "2024-06-19"},
		{"next from weekend snaps forward", "2024-06-15", DirectionNext, "2024-06-24"},
		{"prev within range", "2024-06-19", DirectionPrev, "2024-06-12"},
		{"prev clamps to today", "2024-06-12", DirectionPrev, "2024-06-10"},
		{"unset date starts at today", "", DirectionNext, "2024-06-17"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var current domain.Date
			if tt.current != "" {
				current = domain.MustParseDate(tt.current)
			}
			assert.Equal(t, tt.want, cal.Navigate(current, today, tt.dir).String())
		})
	}
}

func TestCalendar_CustomRule(t *testing.T) {
	cal, err := NewCalendar("FREQ=WEEKLY;BYDAY=SA", 7)
	require.NoError(t, err)

	assert.True(t, cal.IsBookable(domain.MustParseDate("2024-06-15")))
	assert.False(t, cal.IsBookable(domain.MustParseDate("2024-06-14")))
	assert.Len(t, cal.Week(monday, monday), 7)

	_, err = NewCalendar("FREQ=SOMETIMES", 6)
	assert.Error(t, err)
}

func TestCalendar_SharedAcrossSessions(t *testing.T) {
	cal, err := NewCalendar(DefaultBookableRule, DefaultDaysShown)
	require.NoError(t, err)

	want := cal.Week(wednesday, monday)

	var wg sync.WaitGroup
	weeks := make([][]Day, 8)
	for i := range weeks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			weeks[i] = cal.Week(wednesday, monday)
		}(i)
	}
	wg.Wait()

	for _, got := range weeks {
		assert.Equal(t, want, got)
	}
	assert.True(t, cal.opt.Dtstart.IsZero(), "lookups must not mutate the parsed rule")
}
