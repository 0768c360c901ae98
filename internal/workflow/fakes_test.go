package workflow

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/courtbook/internal/domain"
)

var (
	monday    = domain.NewDate(2024, time.June, 10)
	tuesday   = domain.NewDate(2024, time.June, 11)
	wednesday = domain.NewDate(2024, time.June, 12)
)

func fixedNow() time.Time {
	return time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)
}

// fakeCatalog holds the sport list of a campus back until its gate is closed,
// when one is set.
type fakeCatalog struct {
	campuses []domain.Campus
	sports   map[int64][]domain.Sport
	gates    map[int64]chan struct{}
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		campuses: []domain.Campus{{ID: 1, Name: "Talca"}, {ID: 2, Name: "Curicó"}},
		sports: map[int64][]domain.Sport{
			1: {{ID: 5, Name: "Tenis"}, {ID: 6, Name: "Fútbol"}},
			2: {{ID: 9, Name: "Básquetbol"}},
		},
	}
}

func (f *fakeCatalog) Campuses(context.Context) ([]domain.Campus, error) {
	return f.campuses, nil
}

func (f *fakeCatalog) Sports(ctx context.Context, campusID int64) ([]domain.Sport, error) {
	if gate, ok := f.gates[campusID]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.sports[campusID], nil
}

type availabilityReply struct {
	slots []domain.Slot
	err   error
}

type availabilityCall struct {
	scope domain.Scope
	reply chan availabilityReply
}

// fakeAvailability answers through auto when set. Otherwise every call is
// parked on calls until the test replies.
type fakeAvailability struct {
	auto  func(scope domain.Scope) ([]domain.Slot, error)
	calls chan availabilityCall
	count atomic.Int32
}

func newManualAvailability() *fakeAvailability {
	return &fakeAvailability{calls: make(chan availabilityCall, 16)}
}

func (f *fakeAvailability) FetchAvailability(ctx context.Context, date domain.Date, sportID, campusID int64) ([]domain.Slot, error) {
	f.count.Add(1)
	scope := domain.Scope{CampusID: campusID, SportID: sportID, Date: date}
	if f.auto != nil {
		return f.auto(scope)
	}

	call := availabilityCall{scope: scope, reply: make(chan availabilityReply, 1)}
	f.calls <- call

	select {
	case r := <-call.reply:
		return r.slots, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeAvailability) next(t *testing.T) availabilityCall {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no availability call")
		return availabilityCall{}
	}
}

type fakeReservations struct {
	mu       sync.Mutex
	submit   func(ownerID, scheduleID int64, date domain.Date) (domain.SubmitResult, error)
	cancel   func(reservationID int64) (domain.CancelResult, error)
	gate     chan struct{}
	submits  atomic.Int32
	cancels  atomic.Int32
	accepted map[int64]int
}

func newFakeReservations() *fakeReservations {
	return &fakeReservations{accepted: make(map[int64]int)}
}

func (f *fakeReservations) Submit(ctx context.Context, ownerID, scheduleID int64, date domain.Date) (domain.SubmitResult, error) {
	f.submits.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return domain.SubmitResult{}, ctx.Err()
		}
	}

	res := domain.SubmitResult{Accepted: true}
	var err error
	if f.submit != nil {
		res, err = f.submit(ownerID, scheduleID, date)
	}

	if err == nil && res.Accepted {
		f.mu.Lock()
		f.accepted[scheduleID]++
		f.mu.Unlock()
	}
	return res, err
}

func (f *fakeReservations) Cancel(ctx context.Context, reservationID int64) (domain.CancelResult, error) {
	f.cancels.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return domain.CancelResult{}, ctx.Err()
		}
	}
	if f.cancel != nil {
		return f.cancel(reservationID)
	}
	return domain.CancelResult{Accepted: true}, nil
}

func (f *fakeReservations) acceptedCount(scheduleID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accepted[scheduleID]
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []domain.JournalEntry
}

func (f *fakeRecorder) Record(_ context.Context, entry domain.JournalEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeRecorder) outcomes() []domain.JournalOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.JournalOutcome, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Outcome)
	}
	return out
}

func tennisSlot(id int64, date domain.Date, start string, availability domain.Availability) domain.Slot {
	return domain.Slot{
		ScheduleID:   id,
		Date:         date,
		StartTime:    start,
		EndTime:      start[:2] + ":59",
		CourtID:      3,
		CourtName:    "Cancha Tenis 1",
		Availability: availability,
	}
}

// slotsFor answers with one available tennis slot per scope plus noise the
// workflow must filter out.
func slotsFor(scope domain.Scope) ([]domain.Slot, error) {
	id := scope.Date.Time().Unix()/86400 + 40000
	return []domain.Slot{
		tennisSlot(id, scope.Date, "10:00", domain.SlotAvailable),
		tennisSlot(id+1, scope.Date, "11:00", domain.SlotUnavailable),
		{ScheduleID: id + 2, Date: scope.Date, StartTime: "10:00", CourtName: "Cancha Futbol", Availability: domain.SlotAvailable},
		tennisSlot(id+3, scope.Date.AddDays(1), "10:00", domain.SlotAvailable),
	}, nil
}

type harness struct {
	wf       *BookingWorkflow
	catalog  *fakeCatalog
	avail    *fakeAvailability
	res      *fakeReservations
	recorder *fakeRecorder
	booked   chan Booking
}

func newHarness(t *testing.T, avail *fakeAvailability, opts ...func(*BookingConfig)) *harness {
	t.Helper()

	cal, err := NewCalendar(DefaultBookableRule, DefaultDaysShown)
	require.NoError(t, err)

	h := &harness{
		catalog:  newFakeCatalog(),
		avail:    avail,
		res:      newFakeReservations(),
		recorder: &fakeRecorder{},
		booked:   make(chan Booking, 4),
	}

	cfg := BookingConfig{
		SessionID:     uuid.New(),
		OwnerID:       18572091,
		FetchTimeout:  time.Second,
		SubmitTimeout: time.Second,
		Now:           fixedNow,
		Recorder:      h.recorder,
		OnBooked:      func(_ context.Context, b Booking) { h.booked <- b },
	}
	for _, o := range opts {
		o(&cfg)
	}

	h.wf = NewBookingWorkflow(context.Background(), Gateways{
		Catalog:      h.catalog,
		Availability: avail,
		Reservations: h.res,
	}, cal, cfg, nil)
	t.Cleanup(h.wf.Close)

	return h
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("workflow did not settle")
	}
}

// chooseTennis drives the workflow to SportChosen at campus 1.
func (h *harness) chooseTennis(t *testing.T) {
	t.Helper()
	done, err := h.wf.SelectCampus(1)
	require.NoError(t, err)
	waitDone(t, done)
	require.NoError(t, h.wf.SelectSportNamed("tenis"))
	require.Equal(t, StateSportChosen, h.wf.State())
}
