package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/courtbook/internal/domain"
	"github.com/kirinyoku/courtbook/internal/repository"
	postgresrepo "github.com/kirinyoku/courtbook/internal/repository/postgres"
)

// fakeRunner fails the commit of the first len(aborts) transactions with
// those errors, then every later one with commitErr.
type fakeRunner struct {
	commitErr error
	aborts    []error
	runs      int
}

func (f *fakeRunner) RunTx(ctx context.Context, _ *pgx.TxOptions, fn func(ctx context.Context, tx postgresrepo.DB) error) error {
	f.runs++
	if err := fn(ctx, nil); err != nil {
		return err
	}
	if len(f.aborts) > 0 {
		err := f.aborts[0]
		f.aborts = f.aborts[1:]
		return err
	}
	return f.commitErr
}

type fakeRepo struct {
	entries   []domain.JournalEntry
	insertErr error
	lastLimit int
}

func (f *fakeRepo) Insert(_ context.Context, e domain.JournalEntry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeRepo) ListByOwner(_ context.Context, ownerID int64, limit int) ([]domain.JournalEntry, error) {
	f.lastLimit = limit
	var out []domain.JournalEntry
	for _, e := range f.entries {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

type published struct {
	origin string
	scope  domain.Scope
}

type fakePublisher struct {
	events []published
}

func (f *fakePublisher) PublishScopeChanged(_ context.Context, origin string, scope domain.Scope) error {
	f.events = append(f.events, published{origin, scope})
	return nil
}

func newTestService(runner *fakeRunner, repo *fakeRepo, pub *fakePublisher) *Service {
	s := newService(runner, func(postgresrepo.DB) Repo { return repo }, repo, pub, nil)
	s.now = func() time.Time { return time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC) }
	return s
}

var scope = domain.Scope{CampusID: 1, SportID: 5, Date: domain.NewDate(2024, time.June, 11)}

func TestRecord_FillsDefaultsAndPublishes(t *testing.T) {
	repo := &fakeRepo{}
	pub := &fakePublisher{}
	s := newTestService(&fakeRunner{}, repo, pub)
	session := uuid.New()

	err := s.Record(context.Background(), domain.JournalEntry{
		SessionID:  session,
		OwnerID:    18572091,
		ScheduleID: 42,
		Scope:      scope,
		Outcome:    domain.OutcomeBooked,
	})
	require.NoError(t, err)

	require.Len(t, repo.entries, 1)
	assert.NotEqual(t, uuid.Nil, repo.entries[0].ID)
	assert.Equal(t, 2024, repo.entries[0].CreatedAt.Year())
	assert.Equal(t, []published{{session.String(), scope}}, pub.events)
}

func TestRecord_OnlyAnnouncesScopedSubmissions(t *testing.T) {
	tests := []struct {
		name  string
		entry domain.JournalEntry
	}{
		{"failed", domain.JournalEntry{OwnerID: 1, Scope: scope, Outcome: domain.OutcomeFailed}},
		{"cancelled", domain.JournalEntry{OwnerID: 1, Scope: domain.Scope{Date: scope.Date}, Outcome: domain.OutcomeCancelled}},
		{"booked without campus", domain.JournalEntry{OwnerID: 1, Scope: domain.Scope{SportID: 5, Date: scope.Date}, Outcome: domain.OutcomeBooked}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{}
			pub := &fakePublisher{}
			require.NoError(t, newTestService(&fakeRunner{}, repo, pub).Record(context.Background(), tt.entry))
			assert.Len(t, repo.entries, 1)
			assert.Empty(t, pub.events)
		})
	}
}

func TestRecord_NothingPublishedWhenCommitFails(t *testing.T) {
	pub := &fakePublisher{}
	s := newTestService(&fakeRunner{commitErr: errors.New("commit: connection reset")}, &fakeRepo{}, pub)

	err := s.Record(context.Background(), domain.JournalEntry{OwnerID: 1, Scope: scope, Outcome: domain.OutcomeConflict})
	assert.Error(t, err)
	assert.Empty(t, pub.events)
}

func TestRecord_RetriesSerializationFailures(t *testing.T) {
	serialization := &pgconn.PgError{Code: "40001"}
	deadlock := &pgconn.PgError{Code: "40P01"}

	runner := &fakeRunner{aborts: []error{serialization, deadlock}}
	pub := &fakePublisher{}
	s := newTestService(runner, &fakeRepo{}, pub)

	err := s.Record(context.Background(), domain.JournalEntry{OwnerID: 1, Scope: scope, Outcome: domain.OutcomeBooked})
	require.NoError(t, err)
	assert.Equal(t, 3, runner.runs)
	assert.Len(t, pub.events, 1)

	runner = &fakeRunner{commitErr: serialization}
	s = newTestService(runner, &fakeRepo{}, pub)
	err = s.Record(context.Background(), domain.JournalEntry{OwnerID: 1, Outcome: domain.OutcomeFailed})
	assert.ErrorIs(t, err, serialization)
	assert.Equal(t, maxAttempts, runner.runs)

	runner = &fakeRunner{commitErr: errors.New("commit: connection reset")}
	s = newTestService(runner, &fakeRepo{}, pub)
	assert.Error(t, s.Record(context.Background(), domain.JournalEntry{OwnerID: 1, Outcome: domain.OutcomeFailed}))
	assert.Equal(t, 1, runner.runs)
}

func TestRecord_Errors(t *testing.T) {
	s := newTestService(&fakeRunner{}, &fakeRepo{}, nil)
	assert.ErrorIs(t, s.Record(context.Background(), domain.JournalEntry{Outcome: domain.OutcomeBooked}), ErrInvalidEntry)
	assert.ErrorIs(t, s.Record(context.Background(), domain.JournalEntry{OwnerID: 1}), ErrInvalidEntry)

	s = newTestService(&fakeRunner{}, &fakeRepo{insertErr: repository.ErrConflict}, nil)
	err := s.Record(context.Background(), domain.JournalEntry{OwnerID: 1, Outcome: domain.OutcomeFailed})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestList_ClampsLimit(t *testing.T) {
	repo := &fakeRepo{}
	s := newTestService(&fakeRunner{}, repo, nil)
	ctx := context.Background()

	tests := []struct {
		limit, want int
	}{
		{0, DefaultListLimit},
		{-3, DefaultListLimit},
		{10, 10},
		{1000, MaxListLimit},
	}
	for _, tt := range tests {
		_, err := s.List(ctx, 18572091, tt.limit)
		require.NoError(t, err)
		assert.Equal(t, tt.want, repo.lastLimit)
	}

	_, err := s.List(ctx, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidOwner)
}
