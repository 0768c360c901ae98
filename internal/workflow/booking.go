package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kirinyoku/courtbook/internal/domain"
)

type State string

const (
	StateIdle             State = "idle"
	StateCampusChosen     State = "campus_chosen"
	StateSportChosen      State = "sport_chosen"
	StateDateChosen       State = "date_chosen"
	StateSlotChosen       State = "slot_chosen"
	StateConfirming       State = "confirming"
	StateBooked           State = "booked"
	StateConflictDetected State = "conflict_detected"
	StateFailed           State = "failed"
)

const (
	DefaultFetchTimeout  = 10 * time.Second
	DefaultSubmitTimeout = 15 * time.Second
)

type CatalogGateway interface {
	Campuses(ctx context.Context) ([]domain.Campus, error)
	Sports(ctx context.Context, campusID int64) ([]domain.Sport, error)
}

type AvailabilityGateway interface {
	FetchAvailability(ctx context.Context, date domain.Date, sportID, campusID int64) ([]domain.Slot, error)
}

type ReservationGateway interface {
	Submit(ctx context.Context, ownerID, scheduleID int64, date domain.Date) (domain.SubmitResult, error)
	Cancel(ctx context.Context, reservationID int64) (domain.CancelResult, error)
}

type ReservationLister interface {
	ListReservations(ctx context.Context, ownerID int64) ([]domain.Reservation, error)
}

// SubmitGuard prevents two sessions of the same owner from submitting the same
// slot at once. Acquire returns ErrSubmitInProgress when the slot is held.
type SubmitGuard interface {
	Acquire(ctx context.Context, ownerID, scheduleID int64, date domain.Date) (release func(), err error)
}

// Recorder persists submission and cancellation outcomes.
type Recorder interface {
	Record(ctx context.Context, entry domain.JournalEntry) error
}

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is the user-visible message attached to the last transition.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Booking describes the slot being (or last) submitted.
type Booking struct {
	OwnerID    int64       `json:"owner_id"`
	ScheduleID int64       `json:"schedule_id"`
	Date       domain.Date `json:"date"`
	CampusID   int64       `json:"campus_id"`
	CampusName string      `json:"campus_name,omitempty"`
	SportID    int64       `json:"sport_id"`
	SportName  string      `json:"sport_name,omitempty"`
	CourtName  string      `json:"court_name"`
	Start      string      `json:"start"`
	End        string      `json:"end"`
}

func (b Booking) Scope() domain.Scope {
	return domain.Scope{CampusID: b.CampusID, SportID: b.SportID, Date: b.Date}
}

type BookingSnapshot struct {
	State       State          `json:"state"`
	Selection   Selection      `json:"selection"`
	CampusName  string         `json:"campus_name,omitempty"`
	Sports      []domain.Sport `json:"sports"`
	Week        []Day          `json:"week,omitempty"`
	Slots       []domain.Slot  `json:"slots"`
	Loading     bool           `json:"loading"`
	Submitting  bool           `json:"submitting"`
	Retryable   bool           `json:"retryable"`
	Notice      *Notice        `json:"notice,omitempty"`
	LastBooking *Booking       `json:"last_booking,omitempty"`
}

type Gateways struct {
	Catalog      CatalogGateway
	Availability AvailabilityGateway
	Reservations ReservationGateway
}

type BookingConfig struct {
	SessionID     uuid.UUID
	OwnerID       int64
	FetchTimeout  time.Duration
	SubmitTimeout time.Duration
	Now           func() time.Time
	Guard         SubmitGuard
	Recorder      Recorder
	OnBooked      func(ctx context.Context, b Booking)
}

// fetchToken identifies one availability request. A result is applied only if
// its token still matches the current scope and the latest sequence.
type fetchToken struct {
	scope domain.Scope
	seq   uint64
}

// BookingWorkflow drives one user through campus, sport, date and slot
// selection up to a submitted reservation. Every transition takes the
// workflow lock; gateway calls run on goroutines and their results are applied
// only while they still belong to the current selection.
type BookingWorkflow struct {
	mu       sync.Mutex
	gw       Gateways
	calendar *Calendar
	cfg      BookingConfig
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	state     State
	selection *SelectionState
	cache     *AvailabilityCache

	campusName   string
	sports       []domain.Sport
	sportsLoaded bool
	sportsSeq    uint64

	fetchSeq uint64
	fetching bool

	submitting  bool
	retryable   bool
	notice      *Notice
	lastBooking *Booking
	closed      bool
}

// NewBookingWorkflow returns a workflow in the Idle state. ctx bounds every
// gateway call the workflow makes; Close cancels it.
func NewBookingWorkflow(
	ctx context.Context,
	gw Gateways,
	calendar *Calendar,
	cfg BookingConfig,
	logger *zap.Logger,
) *BookingWorkflow {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = DefaultSubmitTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)

	w := &BookingWorkflow{
		gw:       gw,
		calendar: calendar,
		cfg:      cfg,
		logger: logger.Named("booking").With(
			zap.String("session_id", cfg.SessionID.String()),
			zap.Int64("owner_id", cfg.OwnerID)),
		ctx:    ctx,
		cancel: cancel,
		state:  StateIdle,
		cache:  NewAvailabilityCache(),
	}
	w.selection = NewSelectionState(w.cache, w.today)

	return w
}

func (w *BookingWorkflow) today() domain.Date {
	return domain.DateOf(w.cfg.Now())
}

func settled() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (w *BookingWorkflow) spawn(fn func()) <-chan struct{} {
	done := make(chan struct{})
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer close(done)
		fn()
	}()
	return done
}

// checkMutable must be called with w.mu held.
func (w *BookingWorkflow) checkMutable() error {
	if w.closed {
		return ErrClosed
	}
	if w.submitting {
		return ErrSubmitInProgress
	}
	return nil
}

func (w *BookingWorkflow) invalidateFetch() {
	w.fetchSeq++
	w.fetching = false
}

func (w *BookingWorkflow) clearCampusData() {
	w.sportsSeq++
	w.sports = nil
	w.sportsLoaded = false
	w.campusName = ""
}

func (w *BookingWorkflow) setNotice(level NoticeLevel, msg string) {
	w.notice = &Notice{Level: level, Message: msg}
}

// SelectCampus starts a new selection at campus id and reloads its sports. The
// returned channel closes once the sport list is applied or discarded.
func (w *BookingWorkflow) SelectCampus(id int64) (<-chan struct{}, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkMutable(); err != nil {
		return nil, err
	}

	if !w.selection.SetCampus(id) {
		w.logger.Debug("campus selection ignored", zap.Int64("campus_id", id))
		return settled(), nil
	}

	w.state = StateCampusChosen
	w.notice = nil
	w.retryable = false
	w.invalidateFetch()
	w.clearCampusData()

	seq := w.sportsSeq
	return w.spawn(func() { w.loadSports(id, seq) }), nil
}

func (w *BookingWorkflow) loadSports(campusID int64, seq uint64) {
	ctx, cancel := context.WithTimeout(w.ctx, w.cfg.FetchTimeout)
	defer cancel()

	sports, err := w.gw.Catalog.Sports(ctx, campusID)
	name := ""
	if err == nil {
		name = w.campusNameOf(ctx, campusID)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || seq != w.sportsSeq || w.selection.Current().CampusID != campusID {
		w.logger.Debug("discarding stale sport list", zap.Int64("campus_id", campusID))
		return
	}

	if err != nil {
		w.logFailure("load sports", err)
		w.setNotice(NoticeError, "Could not load the sports offered at this campus. Try again.")
		return
	}

	w.sports = sports
	w.sportsLoaded = true
	w.campusName = name
	if len(sports) == 0 {
		w.setNotice(NoticeInfo, "No sports are offered at this campus.")
	}
}

func (w *BookingWorkflow) campusNameOf(ctx context.Context, campusID int64) string {
	campuses, err := w.gw.Catalog.Campuses(ctx)
	if err != nil {
		w.logger.Warn("campus lookup failed", zap.Int64("campus_id", campusID), zap.Error(err))
		return ""
	}
	for _, c := range campuses {
		if c.ID == campusID {
			return c.Name
		}
	}
	return ""
}

// SelectSport picks a sport of the current campus by id.
func (w *BookingWorkflow) SelectSport(id int64) error {
	return w.selectSport(func(s domain.Sport) bool { return s.ID == id })
}

// SelectSportNamed picks a sport of the current campus by name, ignoring case
// and accents.
func (w *BookingWorkflow) SelectSportNamed(name string) error {
	want := fold(name)
	return w.selectSport(func(s domain.Sport) bool { return want != "" && fold(s.Name) == want })
}

func (w *BookingWorkflow) selectSport(match func(domain.Sport) bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkMutable(); err != nil {
		return err
	}

	i := slices.IndexFunc(w.sports, match)
	if i < 0 || !w.selection.SetSport(w.sports[i]) {
		w.logger.Debug("sport selection ignored", zap.Bool("sports_loaded", w.sportsLoaded))
		return nil
	}

	w.state = StateSportChosen
	w.notice = nil
	w.retryable = false
	w.invalidateFetch()
	return nil
}

// SelectDate changes the date and, once a sport is chosen, fetches the
// availability of the new scope. Past and non-bookable days are ignored.
func (w *BookingWorkflow) SelectDate(date domain.Date) (<-chan struct{}, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkMutable(); err != nil {
		return nil, err
	}

	if date.Before(w.today()) || !w.calendar.IsBookable(date) {
		w.logger.Debug("date selection ignored", zap.Stringer("date", date))
		return settled(), nil
	}

	return w.changeDate(date), nil
}

// NavigateWeek moves the selected date one week forward or back.
func (w *BookingWorkflow) NavigateWeek(dir Direction) (<-chan struct{}, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkMutable(); err != nil {
		return nil, err
	}

	if !dir.Valid() || !w.selection.HasCampus() {
		return settled(), nil
	}

	current := w.selection.Current().Date
	target := w.calendar.Navigate(current, w.today(), dir)
	if target.Equal(current) {
		return settled(), nil
	}

	return w.changeDate(target), nil
}

// changeDate must be called with w.mu held.
func (w *BookingWorkflow) changeDate(date domain.Date) <-chan struct{} {
	if !w.selection.SetDate(date) {
		return settled()
	}

	w.notice = nil
	w.retryable = false
	w.invalidateFetch()

	if !w.selection.HasSport() {
		return settled()
	}

	w.state = StateDateChosen
	return w.startFetch()
}

// RefreshAvailability re-fetches the current scope. The cached list stays
// visible until the new one arrives.
func (w *BookingWorkflow) RefreshAvailability() (<-chan struct{}, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkMutable(); err != nil {
		return nil, err
	}

	if !w.hasDateScope() {
		return settled(), nil
	}

	return w.startFetch(), nil
}

// RefreshIfViewing re-fetches availability when the workflow currently shows
// scope. It reports whether a fetch was started.
func (w *BookingWorkflow) RefreshIfViewing(scope domain.Scope) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.checkMutable() != nil || !w.hasDateScope() || w.selection.Scope() != scope {
		return false
	}

	w.startFetch()
	return true
}

func (w *BookingWorkflow) hasDateScope() bool {
	switch w.state {
	case StateDateChosen, StateSlotChosen, StateConfirming, StateConflictDetected, StateFailed:
		return w.selection.HasSport()
	default:
		return false
	}
}

// startFetch must be called with w.mu held.
func (w *BookingWorkflow) startFetch() <-chan struct{} {
	w.fetchSeq++
	tok := fetchToken{scope: w.selection.Scope(), seq: w.fetchSeq}
	sport := w.selection.Current().SportName
	w.fetching = true

	return w.spawn(func() { w.fetch(tok, sport) })
}

func (w *BookingWorkflow) fetch(tok fetchToken, sportName string) {
	const op = "workflow.BookingWorkflow.fetch"

	ctx, cancel := context.WithTimeout(w.ctx, w.cfg.FetchTimeout)
	slots, err := w.gw.Availability.FetchAvailability(ctx, tok.scope.Date, tok.scope.SportID, tok.scope.CampusID)
	cancel()
	if err != nil && !errors.Is(err, domain.ErrAvailabilityFetch) {
		err = &domain.AvailabilityFetchError{Scope: tok.scope, Err: asTransient(op, err)}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || tok.seq != w.fetchSeq || tok.scope != w.selection.Scope() {
		w.logger.Debug("discarding stale availability",
			zap.Stringer("scope", tok.scope),
			zap.Uint64("seq", tok.seq),
			zap.Uint64("current_seq", w.fetchSeq))
		return
	}

	w.fetching = false
	w.applyAvailability(tok.scope, sportName, slots, err)
}

// applyAvailability must be called with w.mu held.
func (w *BookingWorkflow) applyAvailability(scope domain.Scope, sportName string, slots []domain.Slot, err error) {
	keepNotice := w.state == StateConflictDetected || w.state == StateFailed

	if err != nil {
		w.logFailure("fetch availability", err)
		w.cache.Replace(scope, nil)
		if w.selection.HasSlot() {
			w.selection.ClearSlot()
			w.retryable = false
		}
		w.state = StateDateChosen
		w.setNotice(NoticeError, "Could not load availability. Try again.")
		return
	}

	w.cache.Replace(scope, filterSlots(slots, scope, sportName))

	if cur := w.selection.Current(); cur.Slot != nil {
		fresh, ok := w.cache.Lookup(cur.Slot.ScheduleID)
		if !ok || !w.selection.SetSlot(scope, fresh) {
			w.selection.ClearSlot()
			w.retryable = false
			w.state = StateDateChosen
			w.setNotice(NoticeWarning, "The selected slot is no longer available.")
			return
		}
	}

	if w.state == StateSportChosen {
		w.state = StateDateChosen
	}

	if keepNotice {
		return
	}

	w.notice = nil
	if w.cache.AvailableCount() == 0 {
		w.setNotice(NoticeInfo, "No slots available for this date.")
	}
}

// SelectSlot picks a slot from the displayed list. Unknown or unavailable
// slots are ignored.
func (w *BookingWorkflow) SelectSlot(scheduleID int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkMutable(); err != nil {
		return err
	}

	if !w.hasDateScope() {
		return nil
	}

	slot, ok := w.cache.Lookup(scheduleID)
	if !ok || !w.selection.SetSlot(w.cache.Scope(), slot) {
		w.logger.Debug("slot selection ignored", zap.Int64("schedule_id", scheduleID))
		return nil
	}

	w.state = StateSlotChosen
	w.notice = nil
	w.retryable = false
	return nil
}

// Review opens the confirmation summary for the selected slot.
func (w *BookingWorkflow) Review() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkMutable(); err != nil {
		return err
	}

	switch w.state {
	case StateSlotChosen, StateConfirming, StateFailed:
		if !w.selection.HasSlot() {
			return ErrInvalidState
		}
	default:
		return ErrInvalidState
	}

	w.state = StateConfirming
	return nil
}

// Dismiss closes the confirmation summary and keeps the selected slot.
func (w *BookingWorkflow) Dismiss() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkMutable(); err != nil {
		return err
	}

	if (w.state != StateConfirming && w.state != StateFailed) || !w.selection.HasSlot() {
		return ErrInvalidState
	}

	w.state = StateSlotChosen
	w.notice = nil
	w.retryable = false
	return nil
}

// Confirm submits the reviewed slot. Only one submission may be outstanding;
// a second call returns ErrSubmitInProgress. The returned channel closes when
// the outcome has been applied.
func (w *BookingWorkflow) Confirm() (<-chan struct{}, error) {
	const op = "workflow.BookingWorkflow.Confirm"

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrClosed
	}
	if w.submitting {
		w.mu.Unlock()
		return nil, ErrSubmitInProgress
	}

	switch {
	case w.state == StateConfirming && w.selection.HasSlot():
	case w.state == StateFailed && w.retryable && w.selection.HasSlot():
	case w.state == StateFailed:
		w.mu.Unlock()
		return nil, ErrNotRetryable
	default:
		w.mu.Unlock()
		return nil, ErrInvalidState
	}

	booking := w.bookingOf(w.selection.Current())
	w.submitting = true
	w.state = StateConfirming
	w.notice = nil
	// A fetch still in flight must not clear the slot being submitted.
	w.invalidateFetch()
	w.mu.Unlock()

	release := func() {}
	if w.cfg.Guard != nil {
		ctx, cancel := context.WithTimeout(w.ctx, w.cfg.SubmitTimeout)
		rel, err := w.cfg.Guard.Acquire(ctx, booking.OwnerID, booking.ScheduleID, booking.Date)
		cancel()
		if err != nil {
			w.mu.Lock()
			w.submitting = false
			w.mu.Unlock()

			if errors.Is(err, ErrSubmitInProgress) {
				return nil, err
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		release = rel
	}

	return w.spawn(func() {
		defer release()
		w.submit(booking)
	}), nil
}

func (w *BookingWorkflow) bookingOf(sel Selection) Booking {
	return Booking{
		OwnerID:    w.cfg.OwnerID,
		ScheduleID: sel.Slot.ScheduleID,
		Date:       sel.Slot.Date,
		CampusID:   sel.CampusID,
		CampusName: w.campusName,
		SportID:    sel.SportID,
		SportName:  sel.SportName,
		CourtName:  sel.Slot.CourtName,
		Start:      sel.Slot.StartTime,
		End:        sel.Slot.EndTime,
	}
}

func (w *BookingWorkflow) submit(b Booking) {
	const op = "workflow.BookingWorkflow.submit"

	ctx, cancel := context.WithTimeout(w.ctx, w.cfg.SubmitTimeout)
	res, err := w.gw.Reservations.Submit(ctx, b.OwnerID, b.ScheduleID, b.Date)
	cancel()

	if err == nil && !res.Accepted {
		reason := res.Reason
		if reason == "" {
			reason = "submission not accepted"
		}
		err = &domain.ValidationError{Op: op, Reason: reason}
	}
	if err != nil && !errors.Is(err, domain.ErrConflict) && !errors.Is(err, domain.ErrValidation) {
		err = asTransient(op, err)
	}

	entry := domain.JournalEntry{
		SessionID:  w.cfg.SessionID,
		OwnerID:    b.OwnerID,
		ScheduleID: b.ScheduleID,
		Scope:      b.Scope(),
		CreatedAt:  w.cfg.Now(),
	}

	w.mu.Lock()
	w.submitting = false
	if w.closed {
		w.mu.Unlock()
		return
	}

	booked := false
	switch {
	case err == nil:
		booked = true
		entry.Outcome = domain.OutcomeBooked
		entry.Reason = res.Reason

		w.state = StateBooked
		w.lastBooking = &b
		w.retryable = false
		w.selection.Reset()
		w.invalidateFetch()
		w.clearCampusData()
		w.setNotice(NoticeInfo, "Reservation confirmed.")
		w.logger.Info("reservation booked",
			zap.Int64("schedule_id", b.ScheduleID),
			zap.Stringer("date", b.Date))

	case errors.Is(err, domain.ErrConflict):
		entry.Outcome = domain.OutcomeConflict
		entry.Reason = conflictReason(err)

		w.state = StateConflictDetected
		w.retryable = false
		w.selection.ClearSlot()
		w.cache.MarkUnavailable(b.ScheduleID)
		w.setNotice(NoticeWarning, entry.Reason)
		w.logger.Info("reservation conflict", zap.Int64("schedule_id", b.ScheduleID), zap.Error(err))
		w.startFetch()

	case errors.Is(err, domain.ErrValidation):
		entry.Outcome = domain.OutcomeFailed
		entry.Reason = err.Error()

		w.state = StateFailed
		w.retryable = false
		w.selection.ClearSlot()
		w.setNotice(NoticeError, "The reservation request was rejected. Choose a slot again.")
		w.logger.Error("reservation rejected", zap.Int64("schedule_id", b.ScheduleID), zap.Error(err))

	default:
		entry.Outcome = domain.OutcomeFailed
		entry.Reason = err.Error()

		w.state = StateFailed
		w.retryable = true
		w.setNotice(NoticeError, "Could not reach the reservation service. Try again.")
		w.logger.Warn("reservation submit failed", zap.Int64("schedule_id", b.ScheduleID), zap.Error(err))
	}
	w.mu.Unlock()

	w.record(entry)

	if booked && w.cfg.OnBooked != nil {
		w.cfg.OnBooked(w.ctx, b)
	}
}

func conflictReason(err error) string {
	var ce *domain.ConflictError
	if errors.As(err, &ce) && ce.Reason != "" {
		return ce.Reason
	}
	return "The slot was already booked. Choose another one."
}

func (w *BookingWorkflow) record(entry domain.JournalEntry) {
	if w.cfg.Recorder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(w.ctx), w.cfg.SubmitTimeout)
	defer cancel()

	if err := w.cfg.Recorder.Record(ctx, entry); err != nil {
		w.logger.Warn("journal record failed",
			zap.String("outcome", string(entry.Outcome)),
			zap.Error(err))
	}
}

func (w *BookingWorkflow) logFailure(what string, err error) {
	if errors.Is(err, domain.ErrValidation) {
		w.logger.Error(what+" rejected", zap.Error(err))
		return
	}
	w.logger.Warn(what+" failed", zap.Error(err))
}

// asTransient classifies an unknown gateway failure as retryable.
func asTransient(op string, err error) error {
	if errors.Is(err, domain.ErrTransient) || errors.Is(err, domain.ErrValidation) {
		return err
	}
	return &domain.TransientError{Op: op, Err: err}
}

func (w *BookingWorkflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *BookingWorkflow) Snapshot() BookingSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	sel := w.selection.Current()
	slots, _ := w.cache.Slots(sel.Scope())
	if slots == nil {
		slots = []domain.Slot{}
	}

	snap := BookingSnapshot{
		State:      w.state,
		Selection:  sel,
		CampusName: w.campusName,
		Sports:     append([]domain.Sport{}, w.sports...),
		Slots:      slots,
		Loading:    w.fetching,
		Submitting: w.submitting,
		Retryable:  w.retryable,
	}

	if sel.CampusID != 0 {
		snap.Week = w.calendar.Week(sel.Date, w.today())
	}
	if w.notice != nil {
		n := *w.notice
		snap.Notice = &n
	}
	if w.lastBooking != nil {
		b := *w.lastBooking
		snap.LastBooking = &b
	}

	return snap
}

// Wait blocks until every load and submission started so far has settled.
func (w *BookingWorkflow) Wait() {
	w.wg.Wait()
}

// Close abandons in-flight calls; their results are dropped.
func (w *BookingWorkflow) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
}
