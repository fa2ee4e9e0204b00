package app

import (
	"hubspot-connector/internal/common/errors"
	"hubspot-connector/internal/common/logging"
	"hubspot-connector/internal/redis"
)

func (a *App) initializeRedis() error {
	client, err := redis.NewClient(&redis.Config{
		Address:  a.Config.RedisAddress,
		Password: a.Config.RedisPassword,
		DB:       a.Config.RedisDB,
		PoolSize: a.Config.RedisPoolSize,
	})
	if err != nil {
		return errors.ConnectionError("failed to connect to Redis", err)
	}

	a.RedisClient = client
	a.Logger.Info("Redis client initialized",
		logging.Field{"address", a.Config.RedisAddress},
		logging.Field{"db", a.Config.RedisDB})
	return nil
}
