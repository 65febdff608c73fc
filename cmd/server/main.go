package main

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goRedis "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/dealease/backend/api/handler"
	"github.com/dealease/backend/internal/config"
	"github.com/dealease/backend/internal/demo"
	"github.com/dealease/backend/internal/infrastructure/buffer"
	"github.com/dealease/backend/internal/infrastructure/metrics"
	"github.com/dealease/backend/internal/infrastructure/monitor"
	pgInfra "github.com/dealease/backend/internal/infrastructure/postgres"
	redisInfra "github.com/dealease/backend/internal/infrastructure/redis"
	"github.com/dealease/backend/internal/middleware"
	"github.com/dealease/backend/internal/router"
	"github.com/dealease/backend/internal/services"
	"github.com/dealease/backend/internal/services/lifecycle"
	"github.com/dealease/backend/pkg/httpcontext"
	"github.com/dealease/backend/pkg/logger"
	"github.com/dealease/backend/repository"
	"github.com/dealease/backend/repository/memory"
	"github.com/dealease/backend/repository/postgres"
	redisRepo "github.com/dealease/backend/repository/redis"
	"github.com/dealease/backend/usecase"
	"github.com/dealease/backend/usecase/app"
	authUC "github.com/dealease/backend/usecase/auth"
	"github.com/dealease/backend/usecase/chat"
	"github.com/dealease/backend/usecase/entity"
	"github.com/dealease/backend/usecase/onboarding"
	"github.com/dealease/backend/usecase/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	// Documents: Postgres when selected, otherwise process memory.
	var (
		pool *pgxpool.Pool
		docs repository.DocumentRepository
	)
	if cfg.UsesPostgres() {
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			zapLogger.Fatal("migrations failed", zap.Error(err))
		}
		pool, err = pgInfra.NewPool(appCtx, cfg.Database, cfg.AppName, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pgInfra.Close(pool, zapLogger)
			return nil
		})
		docs = postgres.NewDocumentRepository(pool)
	} else {
		docs = memory.NewDocumentRepository()
	}

	// Sessions, users and preferences: Redis when enabled.
	var (
		redisClient *goRedis.Client
		sessionRepo repository.SessionRepository
		userRepo    repository.UserRepository
		prefRepo    repository.PreferenceRepository
	)
	if cfg.Redis.Enabled {
		redisClient, err = redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.RegisterCloser("redis", redisClient)
		sessionRepo = redisRepo.NewSessionRepository(redisClient, cfg.JWT.SessionTTL)
		userRepo = redisRepo.NewUserRepository(redisClient)
		prefRepo = redisRepo.NewPreferenceRepository(redisClient)
	} else {
		sessionRepo = memory.NewSessionRepository(cfg.JWT.SessionTTL)
		userRepo = memory.NewUserRepository()
		prefRepo = memory.NewPreferenceRepository()
	}

	bufferStore, err := buffer.Open(cfg.Buffer.Path, "buffer")
	if err != nil {
		zapLogger.Fatal("failed to open buffer store", zap.Error(err))
	}
	manager.RegisterCloser("buffer", bufferStore)

	appMetrics := metrics.New()

	mon := monitor.New(pool, redisClient, bufferStore, 10*time.Second, zapLogger)
	mon.Observe(appMetrics)
	mon.Check()

	bufferProcessor := services.NewBufferProcessor(
		bufferStore,
		mon,
		docs,
		userRepo,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  50,
			MaxRetries: cfg.Buffer.MaxRetry,
			MaxItems:   cfg.Buffer.MaxItems,
			Retention:  cfg.Buffer.Retention,
		},
	)
	bufferProcessor.ObserveSize(appMetrics)
	mon.OnChange(func(online bool) {
		if online {
			bufferProcessor.Kick()
		}
	})
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})
	bufferProcessor.Start()
	manager.RegisterStopper("buffer_processor", bufferProcessor)

	bufferBridge := services.NewBufferBridge(bufferProcessor)

	stores := app.New(docs, prefRepo, app.Config{
		UI: ui.Config{
			ToastDuration:    cfg.UI.ToastDuration,
			MobileBreakpoint: cfg.UI.MobileBreakpoint,
			TabletBreakpoint: cfg.UI.TabletBreakpoint,
		},
		Chat: chat.Config{PreviewLength: cfg.Chat.NotificationPreview},
	}, entity.Deps{
		Buffer:  bufferBridge,
		Metrics: appMetrics,
		Logger:  zapLogger,
	})
	if err := stores.Load(appCtx); err != nil {
		zapLogger.Warn("some stores failed to load", zap.Error(err))
	}

	dispatcher := usecase.NewDispatcher()
	stores.RegisterDebug(dispatcher)
	bufferProcessor.RegisterDebug(dispatcher)

	seeder := demo.NewSeeder(stores, userRepo, prefRepo, zapLogger)
	var simulator *demo.Simulator
	if cfg.Demo.Enabled {
		if _, err := seeder.Seed(appCtx); err != nil {
			zapLogger.Error("demo seed failed", zap.Error(err))
		}
		simulator = demo.NewSimulator(stores, cfg.Demo.ActivitySchedule, zapLogger)
		if err := simulator.Start(); err != nil {
			zapLogger.Error("demo simulator not started", zap.Error(err))
		} else {
			manager.RegisterStopper("demo_simulator", simulator)
		}
	}
	demo.RegisterDebug(dispatcher, seeder, simulator)

	authUseCase := authUC.New(userRepo, sessionRepo, prefRepo, stores.UI, authUC.Config{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		SessionTTL: cfg.JWT.SessionTTL,
	}, zapLogger).WithBuffer(bufferBridge)
	onboardingUseCase := onboarding.New(stores.Buyers, stores.Sellers, stores.UI, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:       apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger, cfg.JWT.SessionTTL),
		Profiles:   apiHandler.NewProfileHandler(stores.Buyers, stores.Sellers, ctxAdapter, zapLogger),
		Matches:    apiHandler.NewMatchHandler(stores.Matches, stores.Chat, ctxAdapter, zapLogger),
		Chat:       apiHandler.NewChatHandler(stores.Chat, ctxAdapter, zapLogger),
		Deals:      apiHandler.NewDealHandler(stores.Deals, stores.Matches, ctxAdapter, zapLogger),
		UI:         apiHandler.NewUIHandler(stores.UI, ctxAdapter, zapLogger),
		Onboarding: apiHandler.NewOnboardingHandler(onboardingUseCase, authUseCase, ctxAdapter, zapLogger),
		Debug:      apiHandler.NewDebugHandler(dispatcher, ctxAdapter, zapLogger),
		Health:     apiHandler.NewHealthHandler(mon, stores, ctxAdapter, zapLogger),
	}

	var routerOpts router.Options
	if cfg.HTTP.EnableMetrics {
		routerOpts.Metrics = appMetrics
	}
	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, authUseCase, zapLogger)
	r := router.New(handlers, authMiddleware, routerOpts)

	server := &fasthttp.Server{
		Handler:            r.Handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		MaxConnsPerIP:      cfg.HTTP.MaxConn,
		Name:               cfg.AppName,
		Logger:             zap.NewStdLog(zapLogger),
		DisableKeepalive:   false,
		MaxRequestBodySize: 4 << 20,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage.Driver),
			zap.Bool("redis", cfg.Redis.Enabled),
			zap.Bool("demo", cfg.Demo.Enabled))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
