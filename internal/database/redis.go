package database

import (
	"context"
	"time"

	"taller-backend/internal/config"
	"taller-backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Redis queda en nil cuando REDIS_ADDRESS no está definido.
var Redis *redis.Client

func InitRedis(cfg *config.Config) {
	if cfg.RedisAddress == "" {
		logger.Get().Warn("REDIS_ADDRESS no definido, la numeración se serializa sólo en este proceso")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Get().Fatalf("No se pudo conectar a Redis en %s: %v", cfg.RedisAddress, err)
	}

	Redis = client
	logger.Get().WithField("addr", cfg.RedisAddress).Info("Conexión a Redis OK")
}
