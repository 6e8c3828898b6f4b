// Package persistence selects the TokenStore backend named in configuration.
package persistence

import (
	"context"
	"fmt"

	"github.com/tourneyhub/tourney-client/application/port/outbound"
	"github.com/tourneyhub/tourney-client/infrastructure/config"
	"github.com/tourneyhub/tourney-client/infrastructure/persistence/file"
	"github.com/tourneyhub/tourney-client/infrastructure/persistence/memory"
	"github.com/tourneyhub/tourney-client/infrastructure/persistence/postgres"
	"github.com/tourneyhub/tourney-client/infrastructure/persistence/redis"
)

func NewTokenStore(ctx context.Context, cfg *config.Config) (outbound.TokenStore, error) {
	switch cfg.TokenStore {
	case config.StoreMemory, "":
		return memory.NewTokenStore(), nil
	case config.StoreFile:
		return file.NewTokenStore(cfg.TokenFile, cfg.TokenFilePassphrase)
	case config.StoreRedis:
		return redis.NewTokenStore(ctx, cfg.RedisURL, cfg.TokenNamespace)
	case config.StorePostgres:
		return postgres.Open(ctx, cfg.DatabaseURL, cfg.TokenNamespace)
	}
	return nil, fmt.Errorf("%w: %q", config.ErrInvalidTokenStore, cfg.TokenStore)
}
