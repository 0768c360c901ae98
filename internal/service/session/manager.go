package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kirinyoku/courtbook/internal/domain"
	"github.com/kirinyoku/courtbook/internal/workflow"
)

const DefaultTTL = 30 * time.Minute

type Config struct {
	TTL           time.Duration
	FetchTimeout  time.Duration
	SubmitTimeout time.Duration
	Now           func() time.Time
}

// Deps are shared by every session. Guard and Recorder may be nil.
type Deps struct {
	Catalog      workflow.CatalogGateway
	Availability workflow.AvailabilityGateway
	Reservations workflow.ReservationGateway
	Lister       workflow.ReservationLister
	Calendar     *workflow.Calendar
	Guard        workflow.SubmitGuard
	Recorder     workflow.Recorder
}

// Session is one user's booking and history workflows.
type Session struct {
	ID        uuid.UUID
	OwnerID   int64
	CreatedAt time.Time
	Booking   *workflow.BookingWorkflow
	History   *workflow.HistoryWorkflow

	lastSeen atomic.Int64
}

func (s *Session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

func (s *Session) LastSeen() time.Time { return time.Unix(0, s.lastSeen.Load()) }

func (s *Session) close() { s.Booking.Close() }

// Manager owns the live sessions of this instance.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	closed   bool

	ctx    context.Context
	deps   Deps
	cfg    Config
	logger *zap.Logger
}

// NewManager returns an empty manager. ctx bounds every session's gateway
// calls.
func NewManager(ctx context.Context, deps Deps, cfg Config, logger *zap.Logger) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		ctx:      ctx,
		deps:     deps,
		cfg:      cfg,
		logger:   logger.Named("session"),
	}
}

// Create opens a session for ownerID.
//
// Returns:
//   - error: session.ErrInvalidOwner if ownerID is not positive.
//   - error: session.ErrManagerClosed after CloseAll.
func (m *Manager) Create(ownerID int64) (*Session, error) {
	if ownerID <= 0 {
		return nil, ErrInvalidOwner
	}

	now := m.cfg.Now()
	s := &Session{ID: uuid.New(), OwnerID: ownerID, CreatedAt: now}
	s.touch(now)

	s.History = workflow.NewHistoryWorkflow(m.deps.Lister, m.deps.Reservations, workflow.HistoryConfig{
		SessionID: s.ID,
		Timeout:   m.cfg.FetchTimeout,
		Now:       m.cfg.Now,
		Recorder:  m.deps.Recorder,
	}, m.logger)

	s.Booking = workflow.NewBookingWorkflow(m.ctx, workflow.Gateways{
		Catalog:      m.deps.Catalog,
		Availability: m.deps.Availability,
		Reservations: m.deps.Reservations,
	}, m.deps.Calendar, workflow.BookingConfig{
		SessionID:     s.ID,
		OwnerID:       ownerID,
		FetchTimeout:  m.cfg.FetchTimeout,
		SubmitTimeout: m.cfg.SubmitTimeout,
		Now:           m.cfg.Now,
		Guard:         m.deps.Guard,
		Recorder:      m.deps.Recorder,
		OnBooked:      m.onBooked(s),
	}, m.logger)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		s.close()
		return nil, ErrManagerClosed
	}
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("session opened", zap.String("session_id", s.ID.String()), zap.Int64("owner_id", ownerID))

	return s, nil
}

// onBooked refreshes the session's reservation list once it has been shown.
func (m *Manager) onBooked(s *Session) func(ctx context.Context, b workflow.Booking) {
	return func(ctx context.Context, b workflow.Booking) {
		if !s.History.Snapshot().Loaded {
			return
		}
		if _, err := s.History.Refresh(ctx); err != nil && !errors.Is(err, workflow.ErrNoOwner) {
			m.logger.Warn("refresh reservations after booking failed",
				zap.String("session_id", s.ID.String()), zap.Error(err))
		}
	}
}

// Get returns the session and marks it as used.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	s.touch(m.cfg.Now())
	return s, nil
}

func (m *Manager) Close(id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	s.close()
	m.logger.Info("session closed", zap.String("session_id", id.String()))
	return nil
}

// Sweep closes sessions idle for longer than the TTL and returns how many.
func (m *Manager) Sweep(now time.Time) int {
	var expired []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.LastSeen()) > m.cfg.TTL {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.close()
	}
	if len(expired) > 0 {
		m.logger.Info("idle sessions closed", zap.Int("count", len(expired)))
	}

	return len(expired)
}

// RunSweeper sweeps every interval until ctx ends.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.Sweep(m.cfg.Now())
		}
	}
}

// ScopeChanged refreshes every session showing scope except origin, the
// session that caused the change. It returns how many sessions refetched.
func (m *Manager) ScopeChanged(origin string, scope domain.Scope) int {
	m.mu.RLock()
	targets := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if s.ID.String() != origin {
			targets = append(targets, s)
		}
	}
	m.mu.RUnlock()

	n := 0
	for _, s := range targets {
		if s.Booking.RefreshIfViewing(scope) {
			n++
		}
	}

	if n > 0 {
		m.logger.Debug("sessions refreshed after scope change",
			zap.String("scope", scope.String()), zap.Int("count", n))
	}

	return n
}

// HandleScopeChanged has the signature of a pub/sub handler.
func (m *Manager) HandleScopeChanged(_ context.Context, origin string, scope domain.Scope) {
	m.ScopeChanged(origin, scope)
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll closes every session and rejects new ones.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	m.closed = true
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.close()
	}
}
