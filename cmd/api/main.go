package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/fairway-commerce/internal/api"
	"github.com/example/fairway-commerce/internal/api/middleware"
	"github.com/example/fairway-commerce/internal/auth"
	"github.com/example/fairway-commerce/internal/config"
	"github.com/example/fairway-commerce/internal/domain/user"
	"github.com/example/fairway-commerce/internal/fulfillment"
	"github.com/example/fairway-commerce/internal/infrastructure/kafka"
	"github.com/example/fairway-commerce/internal/infrastructure/ratelimit"
	"github.com/example/fairway-commerce/internal/infrastructure/store"
	"github.com/example/fairway-commerce/internal/logging"
	"github.com/example/fairway-commerce/internal/metrics"
	"github.com/example/fairway-commerce/internal/notification"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "[API] %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, "api")
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting order fulfillment API",
		zap.String("addr", cfg.Server.Addr),
		zap.Strings("kafka_brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
		zap.Duration("tx_timeout", cfg.Fulfillment.TxTimeout),
	)

	db, err := store.ConnectPostgres(ctx, cfg.Database.URL, store.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	if cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	pgStore := store.NewPostgresStore(db)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer producer.Close()
	queue := notification.NewQueue(producer, cfg.Fulfillment.NotificationBuffer, logger)

	engine := fulfillment.NewEngine(pgStore, queue, metrics.NewFulfillmentMetrics(reg), logger, fulfillment.Options{
		TxTimeout: cfg.Fulfillment.TxTimeout,
	})

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.Issuer)
	userSvc := user.NewService(pgStore)

	var limiter middleware.Limiter
	if cfg.RateLimit.Enabled {
		rdb := ratelimit.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		redisLimiter := ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		if err := redisLimiter.Ping(ctx); err != nil {
			// requests are let through while Redis is down
			logger.Warn("redis unavailable, rate limiting will fail open", zap.Error(err))
		}
		limiter = redisLimiter
	}

	router := api.NewRouter(api.RouterConfig{
		Handlers:     api.NewHandlers(engine, pgStore, logger),
		AuthHandlers: api.NewAuthHandlers(userSvc, jwtService, cfg.Server.SecureCookies, logger),
		JWTService:   jwtService,
		Limiter:      limiter,
		Logger:       logger,
		Metrics:      metrics.NewServerMetrics(reg, "api"),
		Gatherer:     reg,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server started", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if qerr := queue.Close(shutdownCtx); qerr != nil {
			logger.Warn("notification queue not drained", zap.Error(qerr))
		}
		return err
	})

	return g.Wait()
}
