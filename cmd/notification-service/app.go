package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"notifstore/internal/access"
	"notifstore/internal/backend"
	"notifstore/internal/broker"
	"notifstore/internal/config"
	"notifstore/internal/configstore"
	"notifstore/internal/constants"
	"notifstore/internal/eventstore"
	"notifstore/internal/logger"
	"notifstore/pkg/bootstrap"
	"notifstore/pkg/health"
	"notifstore/pkg/metrics"
	"notifstore/pkg/middleware"
	"notifstore/pkg/ratelimit"
	"notifstore/pkg/tracing"
)

type App struct {
	config         *config.Config
	logger         logger.Logger
	dbConnector    *bootstrap.DatabaseConnector
	mongoClient    *mongo.Client
	redisClient    *redis.Client
	producer       broker.Producer
	server         *http.Server
	router         *gin.Engine
	tracerProvider *tracing.TracerProvider
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		config:      cfg,
		logger:      log,
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := a.initRouter(ctx); err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeoutSeconds * time.Second,
		WriteTimeout: a.config.Server.WriteTimeoutSeconds * time.Second,
	}

	tp, err := tracing.Init(a.config.Tracing, "notification-service")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	mongoClient, err := a.dbConnector.InitMongoDB(ctx)
	if err != nil {
		return err
	}
	a.mongoClient = mongoClient

	redisClient, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		a.logger.WarnwCtx(ctx, "Redis connection failed, continuing without cache", "error", err)
	} else {
		a.redisClient = redisClient
	}
	return nil
}

func (a *App) initRouter(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware("notification-service"))
	}

	router.Use(middleware.RecoveryMiddleware(a.logger))
	router.Use(middleware.LoggerMiddleware(a.logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(access.Middleware())

	if a.config.Management.RateLimit.Enabled {
		rateLimitConfig := ratelimit.Config{
			RPS:             a.config.Management.RateLimit.RPS,
			Burst:           a.config.Management.RateLimit.Burst,
			CleanupInterval: time.Duration(a.config.Management.RateLimit.CleanupInterval) * time.Second,
			MaxAge:          time.Duration(a.config.Management.RateLimit.MaxAge) * time.Second,
		}
		router.Use(ratelimit.Middleware(rateLimitConfig))
		a.logger.InfowCtx(ctx, "Rate limiting enabled", "rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
	}

	dbName := a.config.Database.MongoDB.Database
	if dbName == "" {
		dbName = constants.DefaultMongoDBName
	}
	mongoDB := a.mongoClient.Database(dbName)

	configIndex := a.wrapIndex("config-index",
		backend.NewMongoIndex(mongoDB, constants.ConfigCollection, a.config.Store.OperationTimeout, a.logger))
	eventIndex := a.wrapIndex("event-index",
		backend.NewMongoIndex(mongoDB, constants.EventCollection, a.config.Store.OperationTimeout, a.logger))

	if err := configIndex.Ensure(ctx); err != nil {
		return err
	}
	if err := eventIndex.Ensure(ctx); err != nil {
		return err
	}

	configOpts := []configstore.ServiceOption{
		configstore.WithDefaultMaxItems(int64(a.config.Store.DefaultMaxItems)),
	}
	if a.redisClient != nil {
		cache := configstore.NewDocCache(a.redisClient, a.config.Database.Redis.TTLSeconds, a.logger)
		configOpts = append(configOpts, configstore.WithCache(cache))
	}
	if a.config.Broker.Type == "kafka" && a.config.Broker.Kafka.ConfigEventTopic != "" {
		a.producer = broker.NewKafkaProducer(a.config.Broker.Kafka, a.logger)
		notifier := configstore.NewChangeNotifier(a.producer, a.config.Broker.Kafka.ConfigEventTopic, a.logger)
		configOpts = append(configOpts, configstore.WithChangeNotifier(notifier))
		a.logger.InfowCtx(ctx, "Config change event producer initialized",
			"topic", a.config.Broker.Kafka.ConfigEventTopic)
	}

	configSvc := configstore.NewService(configIndex, a.logger, configOpts...)
	eventSvc := eventstore.NewService(eventIndex, a.logger,
		eventstore.WithDefaultMaxItems(int64(a.config.Store.DefaultMaxItems)))

	configstore.NewHandler(configSvc, a.logger).RegisterRoutes(router)
	eventstore.NewHandler(eventSvc, a.logger).RegisterRoutes(router)

	metrics.RegisterStoreMetrics()

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewMongoDBChecker(a.mongoClient))
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	a.router = router
	return nil
}

// wrapIndex applies the circuit breaker when enabled.
func (a *App) wrapIndex(name string, index backend.Index) backend.Index {
	if !a.config.CircuitBreaker.Enabled {
		return index
	}
	return backend.NewBreakerIndex(index, name, a.config.CircuitBreaker, a.logger)
}

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.InfowCtx(ctx, "Server listening", "port", a.config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Shutdown(context.Background())
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.InfowCtx(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
	defer cancel()

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("producer close error: %w", err))
		}
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
		}
	}

	dbErrs := a.dbConnector.ShutdownDatabases(shutdownCtx, a.redisClient, a.mongoClient)
	errs = append(errs, dbErrs...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	a.logger.InfowCtx(ctx, "Server exited successfully")
	return nil
}
