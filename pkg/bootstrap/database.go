package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"notifstore/internal/config"
	"notifstore/internal/logger"
	"notifstore/pkg/retry"
)

// DatabaseConnector establishes the service's backing connections at
// startup. Connection attempts retry with backoff; once the service is up,
// store operations never retry.
type DatabaseConnector struct {
	Config *config.Config
	Logger logger.Logger
}

func NewDatabaseConnector(cfg *config.Config, log logger.Logger) *DatabaseConnector {
	return &DatabaseConnector{
		Config: cfg,
		Logger: log,
	}
}

func (dc *DatabaseConnector) InitMongoDB(ctx context.Context) (*mongo.Client, error) {
	var client *mongo.Client

	err := retry.DoWithNotify(ctx, retry.DefaultPolicy(), func() error {
		mongoOpts := options.Client().ApplyURI(dc.Config.Database.MongoDB.URI)
		c, err := mongo.Connect(ctx, mongoOpts)
		if err != nil {
			return fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		if err := c.Ping(ctx, nil); err != nil {
			c.Disconnect(ctx)
			return fmt.Errorf("failed to ping MongoDB: %w", err)
		}
		client = c
		return nil
	}, func(err error, next time.Duration) {
		dc.Logger.Warnw("MongoDB connection failed, retrying", "error", err, "next_attempt_in", next)
	})
	if err != nil {
		return nil, err
	}

	dc.Logger.Info("MongoDB connected successfully")
	return client, nil
}

func (dc *DatabaseConnector) InitRedis(ctx context.Context) (*redis.Client, error) {
	if dc.Config.Database.Redis.Host == "" {
		return nil, nil // cache is optional
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", dc.Config.Database.Redis.Host, dc.Config.Database.Redis.Port),
		Password: dc.Config.Database.Redis.Password,
		DB:       dc.Config.Database.Redis.DB,
	})

	err := retry.DoWithNotify(ctx, retry.DefaultPolicy(), func() error {
		return rdb.Ping(ctx).Err()
	}, func(err error, next time.Duration) {
		dc.Logger.Warnw("Redis connection failed, retrying", "error", err, "next_attempt_in", next)
	})
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	dc.Logger.Info("Redis connected successfully")
	return rdb, nil
}

func (dc *DatabaseConnector) ShutdownDatabases(ctx context.Context, rdb *redis.Client, mongoClient *mongo.Client) []error {
	var errs []error

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close error: %w", err))
		}
	}

	if mongoClient != nil {
		if err := mongoClient.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongodb disconnect error: %w", err))
		}
	}

	return errs
}
