package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirinyoku/courtbook/internal/domain"
	"github.com/kirinyoku/courtbook/internal/repository"
)

const (
	lockValue    = "LOCK"
	resultPrefix = "RES:"
)

// IdempotencyStore keeps the response of a keyed request so a retry with the
// same key replays it. While the first request runs the key holds LOCK.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func (s *IdempotencyStore) AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, lockValue, lockTTL).Result()
}

func (s *IdempotencyStore) SaveResult(ctx context.Context, key string, jsonPayload string) error {
	return s.rdb.Set(ctx, key, resultPrefix+jsonPayload, s.ttl).Err()
}

func (s *IdempotencyStore) GetResult(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if strings.HasPrefix(v, resultPrefix) {
		return strings.TrimPrefix(v, resultPrefix), true, nil
	}

	return "", false, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// Deletes KEYS[1] only while it still holds ARGV[1].
const luaCompareAndDelete = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`

// SubmitLocks hands out one lock per (owner, schedule, date) so that two
// sessions of the same owner cannot submit the same slot concurrently. A lock
// expires after ttl even if never released.
type SubmitLocks struct {
	rdb    *redis.Client
	ttl    time.Duration
	script *redis.Script
}

func NewSubmitLocks(rdb *redis.Client, ttl time.Duration) *SubmitLocks {
	return &SubmitLocks{
		rdb:    rdb,
		ttl:    ttl,
		script: redis.NewScript(luaCompareAndDelete),
	}
}

// Acquire returns repository.ErrLocked when the slot is already being
// submitted. release is safe to call more than once.
func (l *SubmitLocks) Acquire(
	ctx context.Context,
	ownerID, scheduleID int64,
	date domain.Date,
) (func(), error) {
	const op = "redis.SubmitLocks.Acquire"

	key := KeySubmitLock(ownerID, scheduleID, date)
	token := nonce(16)

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, repository.ErrLocked
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = l.script.Run(ctx, l.rdb, []string{key}, token).Err()
	}

	return release, nil
}
