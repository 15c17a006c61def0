package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/wikigo/backend/api/handler"
	"github.com/wikigo/backend/internal/config"
	"github.com/wikigo/backend/internal/infrastructure/journal"
	"github.com/wikigo/backend/internal/infrastructure/monitor"
	pgInfra "github.com/wikigo/backend/internal/infrastructure/postgres"
	redisInfra "github.com/wikigo/backend/internal/infrastructure/redis"
	"github.com/wikigo/backend/internal/middleware"
	"github.com/wikigo/backend/internal/provider"
	"github.com/wikigo/backend/internal/router"
	"github.com/wikigo/backend/internal/services"
	"github.com/wikigo/backend/internal/services/lifecycle"
	"github.com/wikigo/backend/internal/token"
	"github.com/wikigo/backend/pkg/httpcontext"
	"github.com/wikigo/backend/pkg/logger"
	"github.com/wikigo/backend/repository/postgres"
	redisRepo "github.com/wikigo/backend/repository/redis"
	authUC "github.com/wikigo/backend/usecase/auth"
	oauthUC "github.com/wikigo/backend/usecase/oauth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	journalStore, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		zapLogger.Fatal("failed to open auth-event journal", zap.Error(err))
	}
	manager.Register("journal", func(ctx context.Context) error {
		return journalStore.Close()
	})

	mon := monitor.New(pool, redisClient, journalStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	store := postgres.NewStore(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient)
	stateRepo := redisRepo.NewOAuthStateRepository(redisClient)
	rateLimitRepo := redisRepo.NewRateLimitRepository(redisClient)

	journalProcessor := services.NewJournalProcessor(
		journalStore,
		mon,
		store.AuthEvents(),
		zapLogger,
		services.ProcessorConfig{
			DrainSpec: cfg.Journal.DrainSpec,
			BatchSize: cfg.Journal.DrainBatch,
		},
	)
	journalProcessor.Start()
	manager.Register("journal_processor", func(ctx context.Context) error {
		journalProcessor.Stop(ctx)
		return nil
	})

	journalBridge := services.NewJournalBridge(journalProcessor)

	authUseCase := authUC.New(store.Users(), sessionRepo, journalBridge, authUC.Config{
		SlidingTTL:      cfg.Auth.SessionTTL,
		MaxLifetime:     cfg.Auth.SessionMaxLifetime,
		Tokens:          token.NewIssuer(cfg.Token.Secret, cfg.Token.Issuer),
		VerificationTTL: cfg.Token.VerifyTTL,
		ResetTTL:        cfg.Token.ResetTTL,
	}, zapLogger)

	providers := provider.NewRegistry(buildProviders(cfg)...)
	oauthUseCase := oauthUC.New(
		providers,
		stateRepo,
		store,
		authUseCase,
		journalBridge,
		oauthUC.Config{StateTTL: cfg.OAuth.StateTTL},
		zapLogger,
	)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)
	cookies := middleware.CookiePolicy{Domain: cfg.Auth.CookieDomain, Dev: cfg.IsDev()}

	handlers := router.Handlers{
		Auth:   apiHandler.NewAuthHandler(authUseCase, cookies, ctxAdapter, zapLogger, cfg.IsDev()),
		OAuth:  apiHandler.NewOAuthHandler(oauthUseCase, cookies, ctxAdapter, zapLogger, cfg.IsDev()),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger, cfg.IsDev()),
	}

	mw := router.Middleware{
		Sessions: middleware.NewSessionLoader(authUseCase, cookies, cfg.Auth.RefreshThreshold, zapLogger),
	}
	if cfg.RateLimit.Enabled {
		mw.Limiter = middleware.NewRateLimiter(rateLimitRepo, cfg.RateLimit.Requests, cfg.RateLimit.Window, zapLogger)
	}

	r := router.New(handlers, mw)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

// buildProviders registers every provider with configured credentials.
func buildProviders(cfg *config.Config) []provider.Client {
	var clients []provider.Client
	if cfg.OAuth.Google.ClientID != "" {
		clients = append(clients, provider.NewGoogle(
			cfg.OAuth.Google.ClientID,
			cfg.OAuth.Google.ClientSecret,
			cfg.OAuth.Google.RedirectURI,
			nil,
		))
	}
	if cfg.OAuth.Github.ClientID != "" {
		clients = append(clients, provider.NewGithub(
			cfg.OAuth.Github.ClientID,
			cfg.OAuth.Github.ClientSecret,
			cfg.OAuth.Github.RedirectURI,
			nil,
		))
	}
	return clients
}
