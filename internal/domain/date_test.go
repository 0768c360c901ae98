package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{"plain date", "2024-06-10", NewDate(2024, time.June, 10), false},
		{"iso timestamp", "2024-06-10T00:00:00.000Z", NewDate(2024, time.June, 10), false},
		{"surrounding spaces", " 2024-06-10 ", NewDate(2024, time.June, 10), false},
		{"garbage", "10/06/2024", Date{}, true},
		{"empty", "", Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		D Date `json:"d"`
	}

	b, err := json.Marshal(wrapper{D: NewDate(2024, time.June, 10)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-06-10"}`, string(b))

	b, err = json.Marshal(wrapper{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":null}`, string(b))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2024-06-11"}`), &w))
	assert.Equal(t, "2024-06-11", w.D.String())

	require.NoError(t, json.Unmarshal([]byte(`{"d":null}`), &w))
	assert.True(t, w.D.IsZero())
}

func TestDateOfDropsClock(t *testing.T) {
	loc := time.FixedZone("CLT", -4*3600)
	d := DateOf(time.Date(2024, time.June, 10, 23, 30, 0, 0, loc))
	assert.Equal(t, "2024-06-10", d.String())
	assert.Equal(t, NewDate(2024, time.June, 10), d)
}

func TestErrorTaxonomy(t *testing.T) {
	fetchErr := &AvailabilityFetchError{
		Scope: Scope{CampusID: 1, SportID: 2, Date: NewDate(2024, time.June, 10)},
		Err:   &TransientError{Op: "fetch", Err: errors.New("connection reset")},
	}

	assert.ErrorIs(t, fetchErr, ErrAvailabilityFetch)
	assert.ErrorIs(t, fetchErr, ErrTransient)
	assert.NotErrorIs(t, fetchErr, ErrValidation)

	var conflict error = &ConflictError{ScheduleID: 42, Reason: "taken"}
	assert.ErrorIs(t, conflict, ErrConflict)
	assert.Contains(t, conflict.Error(), "42")
}
