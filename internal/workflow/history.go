package workflow

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kirinyoku/courtbook/internal/domain"
)

type HistoryConfig struct {
	SessionID uuid.UUID
	Timeout   time.Duration
	Now       func() time.Time
	Recorder  Recorder
}

type HistorySnapshot struct {
	OwnerID    int64                `json:"owner_id,omitempty"`
	Loaded     bool                 `json:"loaded"`
	Items      []domain.Reservation `json:"items"`
	Cancelling []int64              `json:"cancelling,omitempty"`
}

// HistoryWorkflow lists an owner's upcoming reservations and cancels them.
// Cancellations of the same reservation never overlap.
type HistoryWorkflow struct {
	mu      sync.Mutex
	lister  ReservationLister
	gateway ReservationGateway
	cfg     HistoryConfig
	logger  *zap.Logger

	ownerID  int64
	loaded   bool
	loadSeq  uint64
	items    []domain.Reservation
	inflight map[int64]struct{}
}

func NewHistoryWorkflow(
	lister ReservationLister,
	gateway ReservationGateway,
	cfg HistoryConfig,
	logger *zap.Logger,
) *HistoryWorkflow {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HistoryWorkflow{
		lister:   lister,
		gateway:  gateway,
		cfg:      cfg,
		logger:   logger.Named("history").With(zap.String("session_id", cfg.SessionID.String())),
		inflight: make(map[int64]struct{}),
	}
}

// Load fetches the reservations of ownerID dated today or later, active ones
// first, then by date. A load overtaken by a newer one does not overwrite it.
func (h *HistoryWorkflow) Load(ctx context.Context, ownerID int64) ([]domain.Reservation, error) {
	const op = "workflow.HistoryWorkflow.Load"

	h.mu.Lock()
	if h.ownerID != ownerID {
		h.items = nil
		h.loaded = false
	}
	h.ownerID = ownerID
	h.loadSeq++
	seq := h.loadSeq
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	defer cancel()

	all, err := h.lister.ListReservations(ctx, ownerID)
	if err != nil {
		h.logger.Warn("load reservations failed", zap.Int64("owner_id", ownerID), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, asTransient(op, err))
	}

	items := upcoming(all, domain.DateOf(h.cfg.Now()))

	h.mu.Lock()
	defer h.mu.Unlock()

	if seq != h.loadSeq || h.ownerID != ownerID {
		h.logger.Debug("discarding stale reservation list", zap.Uint64("seq", seq))
		return slices.Clone(h.items), nil
	}

	h.items = items
	h.loaded = true
	return slices.Clone(items), nil
}

// Refresh reloads the reservations of the last loaded owner.
func (h *HistoryWorkflow) Refresh(ctx context.Context) ([]domain.Reservation, error) {
	h.mu.Lock()
	owner := h.ownerID
	h.mu.Unlock()

	if owner == 0 {
		return nil, ErrNoOwner
	}

	return h.Load(ctx, owner)
}

// Cancel deactivates reservationID and reloads the list. Cancelling an
// inactive reservation is a confirmed no-op; a second cancel while the first
// is outstanding returns ErrCancelInProgress.
func (h *HistoryWorkflow) Cancel(ctx context.Context, reservationID int64) (domain.CancelResult, error) {
	const op = "workflow.HistoryWorkflow.Cancel"

	h.mu.Lock()
	if h.ownerID == 0 {
		h.mu.Unlock()
		return domain.CancelResult{}, ErrNoOwner
	}
	if _, busy := h.inflight[reservationID]; busy {
		h.mu.Unlock()
		return domain.CancelResult{}, ErrCancelInProgress
	}

	i := slices.IndexFunc(h.items, func(r domain.Reservation) bool { return r.ID == reservationID })
	if i < 0 {
		h.mu.Unlock()
		return domain.CancelResult{}, ErrUnknownReservation
	}
	res := h.items[i]
	if !res.Active {
		h.mu.Unlock()
		return domain.CancelResult{Accepted: true, AlreadyCancelled: true}, nil
	}

	owner := h.ownerID
	h.inflight[reservationID] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.inflight, reservationID)
		h.mu.Unlock()
	}()

	cctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	result, err := h.gateway.Cancel(cctx, reservationID)
	cancel()
	if err != nil {
		h.logger.Warn("cancel reservation failed", zap.Int64("reservation_id", reservationID), zap.Error(err))
		return domain.CancelResult{}, fmt.Errorf("%s: %w", op, err)
	}

	h.mu.Lock()
	for j := range h.items {
		if h.items[j].ID == reservationID {
			h.items[j].Active = false
		}
	}
	h.items = sortReservations(h.items)
	h.mu.Unlock()

	h.record(domain.JournalEntry{
		SessionID:     h.cfg.SessionID,
		OwnerID:       owner,
		ScheduleID:    res.ScheduleID,
		ReservationID: reservationID,
		Scope:         domain.Scope{Date: res.RegisterDate},
		Outcome:       domain.OutcomeCancelled,
		CreatedAt:     h.cfg.Now(),
	})

	if _, err := h.Load(ctx, owner); err != nil {
		h.logger.Warn("reload after cancel failed", zap.Int64("reservation_id", reservationID), zap.Error(err))
	}

	return result, nil
}

// Search filters the loaded reservations by campus, sport or day name. Case
// and accents are ignored.
func (h *HistoryWorkflow) Search(query string) []domain.Reservation {
	h.mu.Lock()
	defer h.mu.Unlock()

	q := fold(query)
	if q == "" {
		return slices.Clone(h.items)
	}

	out := make([]domain.Reservation, 0, len(h.items))
	for _, r := range h.items {
		if strings.Contains(fold(r.Headquarter), q) ||
			strings.Contains(fold(r.Sport), q) ||
			strings.Contains(fold(r.Day), q) {
			out = append(out, r)
		}
	}
	return out
}

func (h *HistoryWorkflow) Snapshot() HistorySnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap := HistorySnapshot{
		OwnerID: h.ownerID,
		Loaded:  h.loaded,
		Items:   slices.Clone(h.items),
	}
	if snap.Items == nil {
		snap.Items = []domain.Reservation{}
	}
	for id := range h.inflight {
		snap.Cancelling = append(snap.Cancelling, id)
	}
	slices.Sort(snap.Cancelling)

	return snap
}

func (h *HistoryWorkflow) record(entry domain.JournalEntry) {
	if h.cfg.Recorder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.Timeout)
	defer cancel()

	if err := h.cfg.Recorder.Record(ctx, entry); err != nil {
		h.logger.Warn("journal record failed", zap.Error(err))
	}
}

func upcoming(all []domain.Reservation, today domain.Date) []domain.Reservation {
	out := make([]domain.Reservation, 0, len(all))
	for _, r := range all {
		if r.RegisterDate.IsZero() || r.RegisterDate.Before(today) {
			continue
		}
		out = append(out, r)
	}
	return sortReservations(out)
}

// sortReservations orders active reservations first, then by date, start time
// and id.
func sortReservations(items []domain.Reservation) []domain.Reservation {
	slices.SortStableFunc(items, func(a, b domain.Reservation) int {
		if a.Active != b.Active {
			if a.Active {
				return -1
			}
			return 1
		}
		if c := a.RegisterDate.Time().Compare(b.RegisterDate.Time()); c != 0 {
			return c
		}
		if c := strings.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return items
}
