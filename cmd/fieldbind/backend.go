package main

import (
	"context"
	"fmt"

	"github.com/goliatone/go-fieldbind/internal/config"
	"github.com/goliatone/go-fieldbind/pkg/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// openStore builds the configured backend. The returned close function
// releases backend resources and is never nil.
func openStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (*store.Store, func(), error) {
	noop := func() {}
	var (
		kv      store.KV
		closeFn = noop
	)

	switch cfg.Backend {
	case config.BackendMemory:
		kv = store.NewMemoryKV()
	case config.BackendFile:
		var opts []store.FileOption
		if cfg.Format != "" {
			format, err := store.ParseFormat(cfg.Format)
			if err != nil {
				return nil, noop, err
			}
			opts = append(opts, store.WithFormat(format))
		}
		fileKV, err := store.OpenFileKV(cfg.Path, opts...)
		if err != nil {
			return nil, noop, err
		}
		kv = fileKV
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, noop, fmt.Errorf("connect postgres: %w", err)
		}
		pgKV, err := store.NewPostgresKV(pool, store.WithTable(cfg.Postgres.Table))
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		if cfg.Postgres.EnsureSchema {
			if err := pgKV.EnsureSchema(ctx); err != nil {
				pool.Close()
				return nil, noop, err
			}
		}
		kv = pgKV
		closeFn = pool.Close
	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	s, err := store.New(kv, store.WithLogger(logger))
	if err != nil {
		closeFn()
		return nil, noop, err
	}
	logger.Debug("store opened", zap.String("backend", cfg.Backend))
	return s, closeFn, nil
}
