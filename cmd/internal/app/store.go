package app

import (
	"context"
	"fmt"

	"accountsd/cmd/identity"

	"github.com/jackc/pgx/v5/pgxpool"
)

// storeHandle owns the credential store and whatever connection backs it.
type storeHandle struct {
	identity.Store
	kind string
	pool *pgxpool.Pool
}

// durable reports whether the store survives a restart.
func (s *storeHandle) durable() bool { return s.kind != StoreMemory }

func (s *storeHandle) Close(ctx context.Context) error {
	err := s.Store.Close(ctx)
	// The pool is owned here; PostgresStore.Close is a no-op.
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

// openStore selects the credential store by the scheme of cfg.StoreURL.
func openStore(ctx context.Context, cfg Config, log Logger) (*storeHandle, error) {
	kind := cfg.StoreKind()
	switch kind {
	case StoreMemory:
		log.Warn("store.memory", "note", "accounts are lost on restart")
		return &storeHandle{Store: identity.NewMemoryStore(), kind: kind}, nil

	case StorePostgres:
		pool, err := NewDBPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if cfg.DBMigrate {
			if err := identity.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
			log.Info("store.postgres.migrated")
		}
		st, err := identity.NewPostgresStore(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("store.postgres", "max_conns", pool.Config().MaxConns)
		return &storeHandle{Store: st, kind: kind, pool: pool}, nil

	case StoreMongo:
		st, err := identity.NewMongoStore(ctx, cfg.StoreURL)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		log.Info("store.mongo")
		return &storeHandle{Store: st, kind: kind}, nil

	default:
		return nil, fmt.Errorf("unsupported store kind %q", kind)
	}
}

// MigrateStore applies the Postgres schema for cfg and returns. Other store
// kinds have nothing to migrate.
func MigrateStore(ctx context.Context, cfg Config, log Logger) error {
	if cfg.StoreKind() != StorePostgres {
		log.Info("migrate.skip", "store", cfg.StoreKind())
		return nil
	}
	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	if err := identity.Migrate(ctx, pool); err != nil {
		return err
	}
	log.Info("migrate.done")
	return nil
}
