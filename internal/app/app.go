// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/nightchill/checkin-service/internal/bootstrap"
	"github.com/nightchill/checkin-service/internal/config"
	"github.com/nightchill/checkin-service/internal/server"
	"github.com/nightchill/checkin-service/pkg/auth"
	"github.com/nightchill/checkin-service/pkg/checkin"
	"github.com/nightchill/checkin-service/pkg/handler"
	"github.com/nightchill/checkin-service/pkg/location"
	"github.com/nightchill/checkin-service/pkg/pipeline"
	"github.com/nightchill/checkin-service/pkg/reward"
	"github.com/nightchill/checkin-service/pkg/service"
	"github.com/nightchill/checkin-service/pkg/state"
	"github.com/nightchill/checkin-service/pkg/voucher"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all application dependencies and manages the application lifecycle.
type App struct {
	cfg               *config.Config
	httpServer        *server.HTTPServer
	grpcServer        *server.GRPCServer
	metricsServer     *server.MetricsServer
	redisClient       *redis.Client
	db                *gorm.DB
	publisher         service.EventPublisher
	sweeper           *ExpirySweeper
	shutdownTelemetry func(context.Context) error
}

// New creates and initializes a new application instance.
//
// ============================================================
// DEVELOPER: Application initialization order
// ============================================================
// Components are initialized in dependency order:
// 1. Redis (primary store)
// 2. Optional integrations (Postgres ledger, Kafka publisher)
// 3. Domain services (streak policy, signer, reward engine, locations)
// 4. Engagement pipeline (signal → rule → action)
// 5. Check-in orchestrator wired to the pipeline listener
// 6. Servers (HTTP, gRPC, metrics)
// 7. Telemetry (OpenTelemetry tracing)
// ============================================================
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	// ============================================================
	// Step 1: Initialize Redis
	// ============================================================
	if err := app.initRedis(ctx); err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}

	users := service.NewRedisUserStore(app.redisClient, service.RedisUserStoreConfig{})
	rewards := service.NewRedisRewardStore(app.redisClient, service.RedisRewardStoreConfig{})
	checkIns := service.NewRedisCheckInStore(app.redisClient, service.RedisCheckInStoreConfig{})
	locations := service.NewRedisLocationStore(app.redisClient, service.RedisLocationStoreConfig{})
	locker := service.NewRedisLocker(app.redisClient, service.RedisLockerConfig{
		TTL:     cfg.LockTTL,
		MaxWait: cfg.LockMaxWait,
	})

	// ============================================================
	// Step 2: Optional integrations
	// ============================================================
	ledger, err := app.initLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init ledger: %w", err)
	}

	if err := app.initPublisher(); err != nil {
		return nil, fmt.Errorf("failed to init publisher: %w", err)
	}

	// ============================================================
	// Step 3: Domain services
	// ============================================================
	policy, err := state.NewStreakPolicy(cfg.StreakPolicy)
	if err != nil {
		return nil, err
	}
	logrus.Infof("using streak policy %s", policy.Name())

	signer, err := voucher.NewSigner(cfg.QRSecret, cfg.Environment)
	if err != nil {
		return nil, err
	}

	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	engine := reward.NewEngine(rewards, users, signer, reward.DefaultConfig(), nil)

	locationService := location.NewService(locations, nil)
	if err := app.seedLocations(ctx, locationService); err != nil {
		return nil, fmt.Errorf("failed to seed locations: %w", err)
	}

	// ============================================================
	// Step 4: Bootstrap the engagement pipeline
	// ============================================================
	// Signal Processor → Rule Engine → Action Executor → Pipeline Manager
	// ============================================================
	pipelineConfig, err := pipeline.LoadConfig(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline config from %s: %w", cfg.ConfigPath, err)
	}
	logrus.Infof("loaded pipeline configuration from %s", cfg.ConfigPath)

	processor := bootstrap.InitSignalProcessor(users)

	ruleEngine, ruleRegistry, err := bootstrap.InitRuleEngine(pipelineConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to init rule engine: %w", err)
	}

	deps := service.NewDependencies().
		WithVoucherIssuer(engine).
		WithPublisher(app.publisher)
	if ledger != nil {
		deps = deps.WithLedger(ledger)
	}

	actionExecutor, actionRegistry, err := bootstrap.InitActionExecutor(pipelineConfig, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to init action executor: %w", err)
	}

	pipelineManager := bootstrap.InitPipeline(processor, ruleEngine, actionExecutor, pipelineConfig)

	if err := pipeline.ValidateWiring(ruleRegistry, actionRegistry, pipelineConfig); err != nil {
		return nil, fmt.Errorf("pipeline wiring validation failed: %w", err)
	}
	logrus.Info("pipeline wiring validation passed")

	// ============================================================
	// Step 5: Check-in orchestrator and listeners
	// ============================================================
	listener := bootstrap.NewEngagementListener(pipelineManager, ledger)
	engine.SetListener(listener)

	orchestrator := checkin.NewOrchestrator(checkin.Config{
		Users:      users,
		CheckIns:   checkIns,
		Locations:  locations,
		Rewards:    rewards,
		Locker:     locker,
		Milestones: engine,
		Policy:     policy,
		Listener:   listener,
	})

	app.sweeper = NewExpirySweeper(engine, cfg.ExpirySweepInterval)

	// ============================================================
	// Step 6: Setup servers
	// ============================================================
	httpHandler := handler.NewHandler(handler.Config{
		CheckIns:             orchestrator,
		Rewards:              engine,
		Locations:            locationService,
		Verifier:             verifier,
		Health:               state.NewHealthChecker(app.redisClient),
		CheckInRatePerMinute: cfg.CheckInRatePerMinute,
		AllowedOrigins:       cfg.CORSAllowedOrigins,
	})
	app.httpServer = server.NewHTTPServer(cfg.HTTPPort, httpHandler.Routes())

	app.grpcServer = server.NewGRPCServer(cfg.GRPCPort, handler.NewCallable(orchestrator, engine, verifier))
	if err := app.grpcServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup gRPC server: %w", err)
	}

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics")
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	// ============================================================
	// Step 7: Setup telemetry
	// ============================================================
	if cfg.OtelEnabled {
		shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.ServiceName, cfg.Environment, cfg.ZipkinEndpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to setup telemetry: %w", err)
		}
		app.shutdownTelemetry = shutdownTelemetry
	}

	logrus.Info("application initialized successfully")

	return app, nil
}

// initRedis initializes the Redis client, retrying the first ping with exponential backoff.
func (a *App) initRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:         a.cfg.RedisAddr(),
		Password:     a.cfg.RedisPassword,
		DB:           a.cfg.RedisDB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(a.cfg.RedisRetryDelayMs) * time.Millisecond
	maxRetries := backoff.WithContext(backoff.WithMaxRetries(b, uint64(a.cfg.RedisMaxRetries)), ctx)

	err := backoff.Retry(
		func() error {
			_, err := client.Ping(ctx).Result()
			if err != nil {
				logrus.Warnf("Redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		maxRetries,
	)

	if err != nil {
		_ = client.Close()
		return err
	}

	a.redisClient = client
	logrus.Infof("Redis client initialized (%s db=%d)", a.cfg.RedisAddr(), a.cfg.RedisDB)
	return nil
}

// initLedger connects the Postgres audit ledger when DATABASE_URL is set.
func (a *App) initLedger(ctx context.Context) (service.Ledger, error) {
	if a.cfg.DatabaseURL == "" {
		logrus.Info("DATABASE_URL not set, audit ledger disabled")
		return nil, nil
	}

	db, err := service.ConnectPostgres(ctx, a.cfg.DatabaseURL, a.cfg.DatabaseMaxConns)
	if err != nil {
		return nil, err
	}
	a.db = db

	ledger, err := service.NewPostgresLedger(ctx, db)
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

// initPublisher selects Kafka when brokers are configured and the log publisher otherwise.
func (a *App) initPublisher() error {
	if len(a.cfg.KafkaBrokers) == 0 {
		logrus.Info("KAFKA_BROKERS not set, domain events are logged only")
		a.publisher = service.LogPublisher{}
		return nil
	}

	publisher, err := service.NewKafkaPublisher(a.cfg.KafkaBrokers, a.cfg.KafkaTopicPrefix)
	if err != nil {
		return err
	}
	a.publisher = publisher
	logrus.Infof("publishing domain events to kafka (%d brokers)", len(a.cfg.KafkaBrokers))
	return nil
}

// seedLocations loads the location catalogue when the seed file exists.
func (a *App) seedLocations(ctx context.Context, svc *location.Service) error {
	path := a.cfg.LocationsSeedPath
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		logrus.Warnf("location seed file %s not found, skipping", path)
		return nil
	}

	locations, err := location.LoadSeed(path)
	if err != nil {
		return err
	}
	if err := svc.Seed(ctx, locations); err != nil {
		return err
	}
	logrus.Infof("seeded %d locations from %s", len(locations), path)
	return nil
}
