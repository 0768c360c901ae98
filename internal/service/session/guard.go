package session

import (
	"context"
	"errors"

	"github.com/kirinyoku/courtbook/internal/domain"
	"github.com/kirinyoku/courtbook/internal/repository"
	"github.com/kirinyoku/courtbook/internal/workflow"
)

// LockAcquirer is the distributed submit lock, see redis.SubmitLocks.
type LockAcquirer interface {
	Acquire(ctx context.Context, ownerID, scheduleID int64, date domain.Date) (func(), error)
}

type submitGuard struct {
	locks LockAcquirer
}

// NewSubmitGuard adapts locks to the workflow: a held lock surfaces as
// workflow.ErrSubmitInProgress.
func NewSubmitGuard(locks LockAcquirer) workflow.SubmitGuard {
	return submitGuard{locks: locks}
}

func (g submitGuard) Acquire(ctx context.Context, ownerID, scheduleID int64, date domain.Date) (func(), error) {
	release, err := g.locks.Acquire(ctx, ownerID, scheduleID, date)
	if errors.Is(err, repository.ErrLocked) {
		return nil, workflow.ErrSubmitInProgress
	}
	if err != nil {
		return nil, err
	}
	return release, nil
}
