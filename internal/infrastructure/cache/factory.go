package cache

import (
	"context"
	"fmt"

	"github.com/erp/returns/internal/domain/shared"
	"github.com/erp/returns/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewIdempotencyStore picks the store for the configuration. With Redis
// disabled it returns the in-memory store. With Redis enabled but
// unreachable it falls back to memory only when allowFallback is set.
func NewIdempotencyStore(ctx context.Context, cfg config.RedisConfig, allowFallback bool, logger *zap.Logger) (shared.IdempotencyStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Info("redis disabled, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	}

	store, err := NewRedisIdempotencyStore(ctx, cfg.Addr(), cfg.Password, cfg.DB)
	if err == nil {
		logger.Info("using redis idempotency store", zap.String("addr", cfg.Addr()))
		return store, nil
	}
	if !allowFallback {
		return nil, fmt.Errorf("redis required for idempotency: %w", err)
	}

	logger.Warn("redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
	return NewInMemoryIdempotencyStore(), nil
}
