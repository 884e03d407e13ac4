package redis

import (
	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/realm-lfg/config"
)

// NewClient builds a client from config. It does not dial; the first command
// opens the pool.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})
}
