package kv

import (
	"context"
	"fmt"
	"time"

	"creativerse/internal/platform/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var RDB *redis.Client

// ConnectRedis dials the configured Redis. It reports whether Redis is configured at all;
// an empty REDIS_ADDR means single-instance mode with in-process locks.
func ConnectRedis(ctx context.Context) (bool, error) {
	if config.AppConfig.RedisAddr == "" {
		return false, nil
	}
	RDB = redis.NewClient(&redis.Options{
		Addr:         config.AppConfig.RedisAddr,
		Password:     config.AppConfig.RedisPassword,
		DB:           config.AppConfig.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := RDB.Ping(ctx).Err(); err != nil {
		return true, fmt.Errorf("could not connect to redis at %s: %w", config.AppConfig.RedisAddr, err)
	}
	log.Info().Str("addr", config.AppConfig.RedisAddr).Msg("Successfully connected to Redis")
	return true, nil
}

func CloseRedis() {
	if RDB != nil {
		if err := RDB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing Redis")
			return
		}
		log.Info().Msg("Redis connection closed")
	}
}
