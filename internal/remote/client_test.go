package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/courtbook/internal/domain"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body map[string]any)) (*Client, *[]recordedRequest) {
	t.Helper()

	var calls []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Body != nil {
			b, _ := io.ReadAll(r.Body)
			if len(b) > 0 {
				_ = json.Unmarshal(b, &body)
			}
		}
		calls = append(calls, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: body})
		handler(w, r, body)
	}))
	t.Cleanup(srv.Close)

	return New(Config{BaseURL: srv.URL + "/", Timeout: 2 * time.Second}, srv.Client(), nil), &calls
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestCampuses_AcceptsDescriptionAsName(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": 200,
			"data": []map[string]any{
				{"id": 1, "description": "Talca"},
				{"id": "2", "name": "Curicó"},
			},
		})
	})

	campuses, err := client.Campuses(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.Campus{{ID: 1, Name: "Talca"}, {ID: 2, Name: "Curicó"}}, campuses)
	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodGet, (*calls)[0].Method)
	assert.Equal(t, "/get_campus", (*calls)[0].Path)
}

func TestSports_BareArrayAndEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		payload any
	}{
		{"bare array", []map[string]any{{"id": 7, "name": "Tenis"}}},
		{"envelope", map[string]any{"status": 200, "data": []map[string]any{{"id": 7, "name": "Tenis"}}}},
		{"string id", []map[string]any{{"id": "7", "name": "Tenis"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
				writeJSON(w, http.StatusOK, tt.payload)
			})

			sports, err := client.Sports(context.Background(), 3)
			require.NoError(t, err)
			assert.Equal(t, []domain.Sport{{ID: 7, Name: "Tenis"}}, sports)
			assert.Equal(t, float64(3), (*calls)[0].Body["id"])
		})
	}
}

func TestFetchAvailability_MapsRecords(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": 200,
			"data": []map[string]any{
				{
					"schedule_id": 42, "day_name": "Lunes", "calendar_date": "2024-06-10T00:00:00.000Z",
					"start": "10:00:00", "finish": "11:00:00", "court_id": 3, "court_name": "Cancha Tenis 1",
					"reservation_id": nil, "run": nil, "register_date": nil, "reservation_state": nil,
					"availability_status": "Disponible",
				},
				{
					"schedule_id": "43", "day_name": "Lunes", "calendar_date": "2024-06-10",
					"start": "11:00", "finish": "12:00", "court_id": "3", "court_name": "Cancha Tenis 1",
					"reservation_id": 9, "run": "18572091", "register_date": "2024-06-01",
					"reservation_state": "true", "availability_status": "No Disponible",
				},
				{"schedule_id": 44, "calendar_date": "not a date", "availability_status": "Disponible"},
			},
		})
	})

	date := domain.NewDate(2024, time.June, 10)
	slots, err := client.FetchAvailability(context.Background(), date, 5, 1)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	assert.Equal(t, domain.Slot{
		ScheduleID:   42,
		Date:         date,
		DayName:      "Lunes",
		StartTime:    "10:00",
		EndTime:      "11:00",
		CourtID:      3,
		CourtName:    "Cancha Tenis 1",
		Availability: domain.SlotAvailable,
	}, slots[0])
	assert.Equal(t, domain.SlotUnavailable, slots[1].Availability)
	assert.Equal(t, int64(43), slots[1].ScheduleID)
	assert.Equal(t, int64(3), slots[1].CourtID)

	body := (*calls)[0].Body
	assert.Equal(t, "2024-06-10", body["fecha"])
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, float64(5), body["sport_id"])
}

func TestFetchAvailability_Failures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		payload   any
		wantIsErr error
	}{
		{"server error is transient", http.StatusBadGateway, map[string]any{"error": "upstream"}, domain.ErrTransient},
		{"bad request is validation", http.StatusBadRequest, map[string]any{"data": "fecha invalida"}, domain.ErrValidation},
		{"embedded failing status", http.StatusOK, map[string]any{"status": 500, "data": "db down"}, domain.ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
				writeJSON(w, tt.status, tt.payload)
			})

			_, err := client.FetchAvailability(context.Background(), domain.NewDate(2024, time.June, 10), 5, 1)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrAvailabilityFetch)
			assert.ErrorIs(t, err, tt.wantIsErr)

			var fetchErr *domain.AvailabilityFetchError
			require.True(t, errors.As(err, &fetchErr))
			assert.Equal(t, int64(1), fetchErr.Scope.CampusID)
		})
	}
}

func TestFetchAvailability_TimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.FetchAvailability(ctx, domain.NewDate(2024, time.June, 10), 5, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestSubmit(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		payload      any
		wantAccepted bool
		wantIsErr    error
	}{
		{"accepted", http.StatusOK, map[string]any{"status": 200, "data": "Reserva creada"}, true, nil},
		{"conflict literal", http.StatusOK, map[string]any{"status": 200, "data": ConflictMessage}, false, domain.ErrConflict},
		{"conflict literal on 400", http.StatusBadRequest, map[string]any{"status": 400, "data": ConflictMessage}, false, domain.ErrConflict},
		{"http conflict", http.StatusConflict, map[string]any{}, false, domain.ErrConflict},
		{"server failure", http.StatusInternalServerError, map[string]any{"data": "boom"}, false, domain.ErrTransient},
		{"rejected", http.StatusUnprocessableEntity, map[string]any{"data": "schedule_id requerido"}, false, domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
				writeJSON(w, tt.status, tt.payload)
			})

			res, err := client.Submit(context.Background(), 18572091, 42, domain.NewDate(2024, time.June, 10))
			assert.Equal(t, tt.wantAccepted, res.Accepted)
			if tt.wantIsErr == nil {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantIsErr)
			}

			body := (*calls)[0].Body
			assert.Equal(t, "/post_reserva", (*calls)[0].Path)
			assert.Equal(t, float64(18572091), body["run"])
			assert.Equal(t, float64(42), body["schedule_id"])
			assert.Equal(t, "2024-06-10", body["register_date"])
		})
	}
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		want      domain.CancelResult
		wantIsErr error
	}{
		{"ok", http.StatusOK, domain.CancelResult{Accepted: true}, nil},
		{"already gone", http.StatusGone, domain.CancelResult{Accepted: true, AlreadyCancelled: true}, nil},
		{"server error", http.StatusServiceUnavailable, domain.CancelResult{}, domain.ErrTransient},
		{"not found", http.StatusNotFound, domain.CancelResult{}, domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
				writeJSON(w, tt.status, map[string]any{})
			})

			res, err := client.Cancel(context.Background(), 77)
			assert.Equal(t, tt.want, res)
			if tt.wantIsErr == nil {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantIsErr)
			}
			assert.Equal(t, "/actualizar_reserva", (*calls)[0].Path)
			assert.Equal(t, float64(77), (*calls)[0].Body["id"])
		})
	}
}

func TestListReservations(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": 200,
			"data": []map[string]any{
				{
					"id": 5, "run": 18572091, "creation": "2024-06-01", "register_date": "2024-06-10",
					"other_runs": "", "state": true, "day": "Lunes", "start": "10:00:00", "finish": "11:00:00",
					"court": "Cancha 1", "sport": "Tenis", "headquarter": "Talca",
				},
				{
					"id": "6", "run": "18572091", "register_date": "2024-06-11", "state": false,
				},
			},
		})
	})

	res, err := client.ListReservations(context.Background(), 18572091)
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.Equal(t, domain.Reservation{
		ID:           5,
		OwnerID:      18572091,
		RegisterDate: domain.NewDate(2024, time.June, 10),
		Creation:     "2024-06-01",
		Active:       true,
		Day:          "Lunes",
		Court:        "Cancha 1",
		Sport:        "Tenis",
		Headquarter:  "Talca",
		Start:        "10:00",
		Finish:       "11:00",
	}, res[0])
	assert.Equal(t, int64(6), res[1].ID)
	assert.Equal(t, int64(18572091), res[1].OwnerID)
	assert.False(t, res[1].Active)
	assert.Equal(t, float64(18572091), (*calls)[0].Body["run"])
}
