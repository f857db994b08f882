package app

import (
	"context"
	"errors"

	"identity-service/internal/config"
	"identity-service/internal/db"
	"identity-service/internal/events"
	"identity-service/internal/logger"
	"identity-service/internal/redis"
)

type Infra struct {
	DB        *db.DB
	Redis     *redis.Client
	Publisher events.Publisher
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	database, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx, database.DB); err != nil {
		_ = database.Close()
		return nil, err
	}

	logger.Info("database ready", nil)

	redisClient, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	logger.Info("redis ready", nil)

	var publisher events.Publisher = events.Noop{}
	if cfg.RabbitURL != "" {
		rabbit, err := events.NewRabbitPublisher(cfg.RabbitURL)
		if err != nil {
			_ = redisClient.Close()
			_ = database.Close()
			return nil, err
		}
		publisher = rabbit
		logger.Info("rabbitmq ready", map[string]any{
			"exchange": events.DefaultExchange,
		})
	} else {
		logger.Warn("RABBIT_URL not set, events disabled", nil)
	}

	return &Infra{
		DB:        database,
		Redis:     redisClient,
		Publisher: publisher,
	}, nil
}

func (i *Infra) Close() error {
	return errors.Join(
		i.Publisher.Close(),
		i.Redis.Close(),
		i.DB.Close(),
	)
}
