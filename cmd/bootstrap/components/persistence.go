package components

import (
	"context"
	"log/slog"

	"parking-reservation/internal/infra/boltstore"
	"parking-reservation/internal/infra/catalog"
	"parking-reservation/internal/infra/db"
	"parking-reservation/internal/infra/memory"
	"parking-reservation/internal/infra/repository"
	"parking-reservation/internal/infra/uow"
	"parking-reservation/internal/pkg/clock"
	"parking-reservation/internal/pkg/config"
	"parking-reservation/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewPersistence,
		fx.Annotate(
			memory.NewSessions,
			fx.As(new(shared.BookingSessions)),
		),
	),
)

// Persistence is the storage stack selected by STORAGE_DRIVER.
type Persistence struct {
	fx.Out

	Registry shared.InventoryRegistry
	UoW      shared.UnitOfWork
	Ledger   shared.LedgerReader
}

func NewPersistence(lc fx.Lifecycle, cfg config.Config, clk clock.Clock, logger *slog.Logger) (Persistence, error) {
	entries, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return Persistence{}, err
	}

	if cfg.Storage.Driver == config.StoragePostgres {
		return newPostgresPersistence(lc, cfg, clk, entries, logger)
	}
	return newMemoryPersistence(lc, cfg, clk, entries, logger)
}

func newMemoryPersistence(lc fx.Lifecycle, cfg config.Config, clk clock.Clock, entries []catalog.Entry, logger *slog.Logger) (Persistence, error) {
	registry, err := memory.NewRegistry(entries, clk)
	if err != nil {
		return Persistence{}, err
	}

	var ledger interface {
		shared.LedgerRepository
		shared.LedgerReader
	}
	if cfg.Storage.BoltPath != "" {
		bolt, err := boltstore.Open(cfg.Storage.BoltPath)
		if err != nil {
			return Persistence{}, err
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				return bolt.Close()
			},
		})
		ledger = bolt
		logger.Info("ledger stored in bolt", "path", cfg.Storage.BoltPath)
	} else {
		ledger = memory.NewLedger()
	}

	return Persistence{
		Registry: registry,
		UoW:      memory.NewUoW(registry, ledger),
		Ledger:   ledger,
	}, nil
}

func newPostgresPersistence(lc fx.Lifecycle, cfg config.Config, clk clock.Clock, entries []catalog.Entry, logger *slog.Logger) (Persistence, error) {
	pool, err := newPool(lc, cfg, logger)
	if err != nil {
		return Persistence{}, err
	}

	registry := repository.NewFacilityRegistry(pool, clk)
	if err := registry.Seed(context.Background(), entries); err != nil {
		return Persistence{}, err
	}
	logger.Info("facility catalog seeded", "facilities", len(entries))

	return Persistence{
		Registry: registry,
		UoW:      uow.NewPostgresUoW(pool, logger),
		Ledger:   repository.NewLedgerRepository(pool),
	}, nil
}

func newPool(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, cleanup, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})

	if err := db.Migrate(context.Background(), pool, logger); err != nil {
		return nil, err
	}
	return pool, nil
}
