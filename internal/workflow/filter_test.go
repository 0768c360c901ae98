package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kirinyoku/courtbook/internal/domain"
)

func TestFilterSlots(t *testing.T) {
	scope := domain.Scope{CampusID: 1, SportID: 6, Date: monday}
	slots := []domain.Slot{
		{ScheduleID: 1, Date: monday, StartTime: "12:00", CourtName: "Cancha Fútbol 2"},
		{ScheduleID: 2, Date: monday, StartTime: "09:00", CourtName: "cancha futbol 1"},
		{ScheduleID: 3, Date: monday, StartTime: "09:00", CourtName: "Cancha Tenis"},
		{ScheduleID: 4, Date: tuesday, StartTime: "09:00", CourtName: "Cancha Futbol 1"},
		{ScheduleID: 5, Date: monday, StartTime: "09:00", CourtName: "CANCHA FUTBOL 0"},
	}

	got := filterSlots(slots, scope, "Fútbol")

	ids := make([]int64, 0, len(got))
	for _, s := range got {
		ids = append(ids, s.ScheduleID)
	}
	assert.Equal(t, []int64{5, 2, 1}, ids)
}

func TestFilterSlots_NoSportNameKeepsDateOnly(t *testing.T) {
	scope := domain.Scope{Date: monday}
	slots := []domain.Slot{
		{ScheduleID: 1, Date: monday, CourtName: "Gimnasio"},
		{ScheduleID: 2, Date: tuesday, CourtName: "Gimnasio"},
	}

	got := filterSlots(slots, scope, "")
	assert.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ScheduleID)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "basquetbol", fold(" Básquetbol "))
	assert.Equal(t, "curico", fold("CURICÓ"))
	assert.True(t, containsFolded("Cancha Fútbol 2", "futbol"))
	assert.False(t, containsFolded("Cancha Tenis", "futbol"))
}
