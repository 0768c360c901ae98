package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/kirinyoku/courtbook/internal/domain"
	redisrepo "github.com/kirinyoku/courtbook/internal/repository/redis"
)

// Source is the remote catalog.
type Source interface {
	Campuses(ctx context.Context) ([]domain.Campus, error)
	Sports(ctx context.Context, campusID int64) ([]domain.Sport, error)
}

type Config struct {
	TTL time.Duration
}

// Service serves campuses and sports through the Redis cache. A nil cache
// reads straight from the source.
type Service struct {
	src   Source
	cache *redisrepo.Cache
	cfg   Config
}

func New(src Source, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}

	return &Service{src: src, cache: cache, cfg: cfg}
}

func (s *Service) Campuses(ctx context.Context) ([]domain.Campus, error) {
	const op = "service.catalog.Campuses"

	if s.cache == nil {
		out, err := s.src.Campuses(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return out, nil
	}

	out, err := redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeyCampuses(), s.cfg.TTL, s.src.Campuses)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Campus looks a campus up by id. A miss on a cached list drops the cached
// catalog of that campus and asks the source once more, so campuses added
// since the list was cached are found before the TTL runs out.
//
// Returns:
//   - error: CampusNotFoundError if no campus has that id.
func (s *Service) Campus(ctx context.Context, id int64) (domain.Campus, error) {
	const op = "service.catalog.Campus"

	campuses, err := s.Campuses(ctx)
	if err != nil {
		return domain.Campus{}, fmt.Errorf("%s: %w", op, err)
	}
	if c, ok := findCampus(campuses, id); ok {
		return c, nil
	}

	if s.cache == nil || s.Invalidate(ctx, id) != nil {
		return domain.Campus{}, CampusNotFoundError{CampusID: id}
	}

	campuses, err = s.Campuses(ctx)
	if err != nil {
		return domain.Campus{}, fmt.Errorf("%s: %w", op, err)
	}
	if c, ok := findCampus(campuses, id); ok {
		return c, nil
	}

	return domain.Campus{}, CampusNotFoundError{CampusID: id}
}

func findCampus(campuses []domain.Campus, id int64) (domain.Campus, bool) {
	for _, c := range campuses {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Campus{}, false
}

func (s *Service) Sports(ctx context.Context, campusID int64) ([]domain.Sport, error) {
	const op = "service.catalog.Sports"

	load := func(ctx context.Context) ([]domain.Sport, error) {
		return s.src.Sports(ctx, campusID)
	}

	if s.cache == nil {
		out, err := load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return out, nil
	}

	out, err := redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeySports(campusID), s.cfg.TTL, load)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Invalidate drops cached catalog data so the next read goes to the source.
func (s *Service) Invalidate(ctx context.Context, campusIDs ...int64) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidateCatalog(ctx, campusIDs...)
}
