package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/kirinyoku/courtbook/internal/domain"
	postgres "github.com/kirinyoku/courtbook/internal/repository/postgres"
	redis "github.com/kirinyoku/courtbook/internal/repository/redis"
	"github.com/kirinyoku/courtbook/internal/service/catalog"
	"github.com/kirinyoku/courtbook/internal/service/journal"
	"github.com/kirinyoku/courtbook/internal/service/session"
	"github.com/kirinyoku/courtbook/internal/workflow"
)

// Gateway is the remote reservation service, see remote.Client.
type Gateway interface {
	catalog.Source
	workflow.AvailabilityGateway
	workflow.ReservationGateway
	workflow.ReservationLister
}

type Journal interface {
	Record(ctx context.Context, entry domain.JournalEntry) error
	List(ctx context.Context, ownerID int64, limit int) ([]domain.JournalEntry, error)
}

type Services struct {
	Catalog  *catalog.Service
	Journal  Journal
	Sessions *session.Manager
	Calendar *workflow.Calendar
}

type Config struct {
	Catalog catalog.Config
	Session session.Config
}

// NewServices wires the services. store, cache, pubsub and locks may be nil;
// the matching feature is then off.
func NewServices(
	ctx context.Context,
	gw Gateway,
	calendar *workflow.Calendar,
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redis.ScopePubSub,
	locks *redis.SubmitLocks,
	cfg Config,
	logger *zap.Logger,
) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}

	svcs := &Services{
		Catalog:  catalog.New(gw, cache, cfg.Catalog),
		Calendar: calendar,
	}

	deps := session.Deps{
		Catalog:      svcs.Catalog,
		Availability: gw,
		Reservations: gw,
		Lister:       gw,
		Calendar:     calendar,
	}

	if store != nil {
		var pub journal.Publisher
		if pubsub != nil {
			pub = pubsub
		}
		j := journal.New(store, pub, logger)
		svcs.Journal = j
		deps.Recorder = j
	}

	if locks != nil {
		deps.Guard = session.NewSubmitGuard(locks)
	}

	svcs.Sessions = session.NewManager(ctx, deps, cfg.Session, logger)

	return svcs
}
