package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kirinyoku/courtbook/internal/domain"
	postgresrepo "github.com/kirinyoku/courtbook/internal/repository/postgres"
	"github.com/kirinyoku/courtbook/internal/uow"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200

	// maxAttempts bounds how often a transaction aborted by a serialization
	// failure or deadlock is run again.
	maxAttempts = 3
)

type Repo interface {
	Insert(ctx context.Context, e domain.JournalEntry) error
	ListByOwner(ctx context.Context, ownerID int64, limit int) ([]domain.JournalEntry, error)
}

// Publisher announces that the availability of a scope changed.
type Publisher interface {
	PublishScopeChanged(ctx context.Context, origin string, scope domain.Scope) error
}

type Service struct {
	uow    *uow.UoW
	bind   func(tx postgresrepo.DB) Repo
	reader Repo
	pub    Publisher
	now    func() time.Time
	logger *zap.Logger
}

func New(store *postgresrepo.Store, pub Publisher, logger *zap.Logger) *Service {
	repo := store.Journal()
	return newService(
		store,
		func(tx postgresrepo.DB) Repo { return repo.With(tx) },
		repo,
		pub,
		logger,
	)
}

func newService(
	runner uow.TxRunner,
	bind func(tx postgresrepo.DB) Repo,
	reader Repo,
	pub Publisher,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		uow:    uow.NewUoW(runner),
		bind:   bind,
		reader: reader,
		pub:    pub,
		now:    time.Now,
		logger: logger.Named("journal"),
	}
}

// Record stores one submission or cancellation outcome. Once committed, a
// booked or conflicting submission is announced so other sessions showing the
// same scope refresh their slots.
//
// Parameters:
//   - ctx: request-scoped context.
//   - entry: the outcome; ID and CreatedAt are filled in when empty.
//
// Returns:
//   - error: journal.ErrInvalidEntry if the owner or outcome is missing.
func (s *Service) Record(ctx context.Context, entry domain.JournalEntry) error {
	const op = "service.journal.Record"

	if entry.OwnerID <= 0 || entry.Outcome == "" {
		return fmt.Errorf("%s: %w", op, ErrInvalidEntry)
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = s.insert(ctx, entry)
		if err == nil || !postgresrepo.IsRetryable(err) || ctx.Err() != nil {
			break
		}
		s.logger.Debug("journal insert aborted, retrying",
			zap.Int("attempt", attempt), zap.Error(err))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) insert(ctx context.Context, entry domain.JournalEntry) error {
	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		if err := s.bind(tx).Insert(ctx, entry); err != nil {
			return err
		}

		if s.pub != nil && announces(entry) {
			after(func(ctx context.Context) {
				if err := s.pub.PublishScopeChanged(ctx, entry.SessionID.String(), entry.Scope); err != nil {
					s.logger.Warn("publish scope change failed",
						zap.String("scope", entry.Scope.String()), zap.Error(err))
				}
			})
		}

		return nil
	})
}

// List returns the newest entries of ownerID. limit is clamped to
// [1, MaxListLimit]; zero means DefaultListLimit.
func (s *Service) List(ctx context.Context, ownerID int64, limit int) ([]domain.JournalEntry, error) {
	const op = "service.journal.List"

	if ownerID <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidOwner)
	}

	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	out, err := s.reader.ListByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func announces(e domain.JournalEntry) bool {
	if e.Outcome != domain.OutcomeBooked && e.Outcome != domain.OutcomeConflict {
		return false
	}
	return e.Scope.CampusID != 0 && e.Scope.SportID != 0 && !e.Scope.Date.IsZero()
}
