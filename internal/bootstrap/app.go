package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"gopher-accounts/internal/config"
	"gopher-accounts/internal/logging"
	"gopher-accounts/internal/platform/database"
	rabbitmqClient "gopher-accounts/internal/platform/rabbitmq"
	redisClient "gopher-accounts/internal/platform/redis"
)

// App holds the process-wide resources. Redis, MQConn and Events stay nil
// when their backends are not configured.
type App struct {
	Config *config.Config
	Logger logging.Logger
	DB     *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection
	Events *rabbitmqClient.EventPublisher

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	log := logging.New(os.Stdout, cfg.App.Env, cfg.App.LogLevel)
	app := &App{
		Config:    cfg,
		Logger:    log,
		StartedAt: time.Now(),
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = db
	log.Info(ctx, "database ready", "driver", cfg.Database.Driver)

	if cfg.Redis.Addr != "" {
		redisCli, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.Redis = redisCli
		log.Info(ctx, "redis user cache enabled", "addr", cfg.Redis.Addr)
	}

	if cfg.RabbitMQ.URL != "" {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.MQConn = mqConn

		events := rabbitmqClient.NewEventPublisher(mqConn, cfg.RabbitMQ.Exchange)
		if err := events.DeclareExchange(); err != nil {
			_ = app.Close()
			return nil, err
		}
		app.Events = events
		log.Info(ctx, "user events enabled", "exchange", cfg.RabbitMQ.Exchange)
	}

	return app, nil
}

func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close rabbitmq: %w", err))
		}
	}
	if a.DB != nil {
		if err := database.Close(a.DB); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
