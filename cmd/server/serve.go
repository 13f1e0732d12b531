package main

import (
	"context"
	"fmt"

	redislib "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/projecthub/api/handler"
	"github.com/fastygo/projecthub/internal/config"
	"github.com/fastygo/projecthub/internal/infrastructure/buffer"
	"github.com/fastygo/projecthub/internal/infrastructure/llm"
	"github.com/fastygo/projecthub/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/projecthub/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/projecthub/internal/infrastructure/redis"
	"github.com/fastygo/projecthub/internal/middleware"
	"github.com/fastygo/projecthub/internal/router"
	"github.com/fastygo/projecthub/internal/services"
	"github.com/fastygo/projecthub/internal/services/lifecycle"
	"github.com/fastygo/projecthub/pkg/httpcontext"
	"github.com/fastygo/projecthub/pkg/password"
	"github.com/fastygo/projecthub/pkg/token"
	"github.com/fastygo/projecthub/repository"
	"github.com/fastygo/projecthub/repository/postgres"
	redisRepo "github.com/fastygo/projecthub/repository/redis"
	"github.com/fastygo/projecthub/repository/sqlite"
	activityUC "github.com/fastygo/projecthub/usecase/activity"
	authUC "github.com/fastygo/projecthub/usecase/auth"
	dashboardUC "github.com/fastygo/projecthub/usecase/dashboard"
	projectUC "github.com/fastygo/projecthub/usecase/project"
	storyUC "github.com/fastygo/projecthub/usecase/story"
	taskUC "github.com/fastygo/projecthub/usecase/task"
	userUC "github.com/fastygo/projecthub/usecase/user"
)

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	zapLogger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = zapLogger.Sync() }()

	appCtx, stop := lifecycle.SignalContext(parent)
	defer stop()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	// Hooks registered before a failed startup step still run.
	started := false
	defer func() {
		if !started {
			_ = manager.Shutdown(context.Background())
		}
	}()

	store, storePinger, err := openStore(appCtx, cfg, manager, zapLogger)
	if err != nil {
		return err
	}

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	manager.Register("redis", func(context.Context) error {
		return redisClient.Close()
	})

	bufferStore, err := buffer.Open(cfg.Buffer.Path, "")
	if err != nil {
		return fmt.Errorf("buffer: %w", err)
	}
	manager.Register("buffer", func(context.Context) error {
		return bufferStore.Close()
	})

	mon := monitor.New(storePinger, redisPinger(redisClient), bufferStore, 0, zapLogger)
	mon.Refresh()
	mon.Start()
	manager.Register("monitor", func(context.Context) error {
		mon.Stop()
		return nil
	})

	processor, err := services.NewActivityProcessor(bufferStore, mon, store.Activity, zapLogger, services.ProcessorConfig{
		Interval:   cfg.Buffer.SyncInterval,
		BatchSize:  cfg.Buffer.BatchSize,
		MaxRetries: cfg.Buffer.MaxRetry,
	})
	if err != nil {
		return err
	}
	processor.Start()
	manager.Register("activity_processor", processor.Stop)
	recorder := services.NewActivityBridge(processor)

	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TokenTTL)
	sessions := redisRepo.NewSessionRepository(redisClient, cfg.JWT.TokenTTL)
	authUseCase := authUC.New(store.Users, sessions, tokens, password.NewHasher(0), zapLogger)

	if cfg.Seed.Enabled {
		created, err := authUseCase.SeedAdmin(appCtx, cfg.Seed.AdminUsername, cfg.Seed.AdminPassword)
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		if created {
			zapLogger.Info("admin account created", zap.String("username", cfg.Seed.AdminUsername))
		}
	}

	generator := llm.NewClient(llm.Config{
		APIKey:  cfg.Groq.APIKey,
		BaseURL: cfg.Groq.BaseURL,
		Model:   cfg.Groq.Model,
		Timeout: cfg.Groq.Timeout,
	}, zapLogger)
	if cfg.Groq.APIKey == "" {
		zapLogger.Warn("GROQ_API_KEY not set; story generation is disabled")
	}

	adapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)
	handlers := router.Handlers{
		Auth:      apiHandler.NewAuthHandler(authUseCase, adapter, zapLogger),
		Project:   apiHandler.NewProjectHandler(projectUC.New(store, recorder, zapLogger), adapter, zapLogger),
		Task:      apiHandler.NewTaskHandler(taskUC.New(store, recorder, zapLogger), adapter, zapLogger),
		Dashboard: apiHandler.NewDashboardHandler(dashboardUC.New(store, zapLogger), adapter, zapLogger),
		Story:     apiHandler.NewStoryHandler(storyUC.New(store, generator, recorder, zapLogger), adapter, zapLogger),
		User: apiHandler.NewUserHandler(
			userUC.New(store.Users, zapLogger),
			activityUC.New(store.Activity),
			adapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, adapter, zapLogger),
	}

	r := router.New(handlers,
		middleware.JWTAuth(authUseCase, adapter, zapLogger),
		middleware.OptionalJWTAuth(authUseCase, adapter, zapLogger),
		zapLogger)
	server := &fasthttp.Server{
		Handler: middleware.Chain(r.Handler,
			middleware.AccessLog(zapLogger),
			middleware.CORS(cfg.HTTP.AllowedOrigins)),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}
	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	started = true
	zapLogger.Info("server started",
		zap.String("address", cfg.Address()),
		zap.String("db_driver", cfg.Database.Driver))
	return manager.Run(appCtx, func() error {
		return server.ListenAndServe(cfg.Address())
	})
}

// openStore connects the configured database and registers its shutdown.
func openStore(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) (*repository.Store, monitor.Pinger, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, false, zapLogger); err != nil {
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		manager.Register("postgres", func(context.Context) error {
			pgInfra.Close(pool, zapLogger)
			return nil
		})
		return postgres.NewStore(pool), pool, nil
	default:
		db, err := sqlite.Open(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite: %w", err)
		}
		manager.Register("sqlite", func(context.Context) error {
			return db.Close()
		})
		zapLogger.Warn("using the SQLite store", zap.String("path", cfg.Database.SQLitePath))
		return db.Store(), db, nil
	}
}

func redisPinger(client redislib.UniversalClient) monitor.Pinger {
	return monitor.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}
