package rules

import (
	"context"
	"fmt"

	"github.com/STTM-NSU/portfolio-alerts/internal/config"
	"github.com/STTM-NSU/portfolio-alerts/internal/logger"
	"github.com/STTM-NSU/portfolio-alerts/internal/postgres"
)

// Open builds the configured store and seeds it. The returned func releases
// the database connection, if any.
func Open(ctx context.Context, cfg config.RulesConfig, logger logger.Logger) (Store, func(), error) {
	var (
		store   Store
		closeFn = func() {}
	)

	switch cfg.Storage {
	case config.Postgres:
		pgConfig := postgres.NewConfigFromEnv().Setup()
		logger.Debugf("trying to connect to db with: %s", pgConfig)
		db, err := postgres.NewDB(ctx, pgConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: can't connect to db", err)
		}
		closeFn = func() {
			if err := db.Close(); err != nil {
				logger.Warnf("%s: can't close db", err)
			}
		}

		pgStore := NewPostgresStore(db)
		if err := pgStore.Init(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		store = pgStore
	default:
		store = NewMemoryStore()
	}

	n, err := Seed(ctx, store, cfg.Seed)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	if n > 0 {
		logger.Infof("seeded %d rules", n)
	}

	return store, closeFn, nil
}
