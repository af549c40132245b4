package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/confhub/confhub/internal/application/audit"
	"github.com/confhub/confhub/internal/application/auth"
	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/application/users"
	"github.com/confhub/confhub/internal/config"
	infraauth "github.com/confhub/confhub/internal/infrastructure/auth"
	httprouter "github.com/confhub/confhub/internal/infrastructure/http"
	"github.com/confhub/confhub/internal/infrastructure/http/handlers"
	"github.com/confhub/confhub/internal/infrastructure/http/middleware"
	"github.com/confhub/confhub/internal/infrastructure/oauth"
	"github.com/confhub/confhub/internal/infrastructure/persistence/postgres"
	"github.com/confhub/confhub/internal/infrastructure/queue"
	"github.com/confhub/confhub/internal/infrastructure/webhook"
)

func main() {
	_ = godotenv.Load()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("ping database")
	}
	if err := postgres.Migrate(cfg.Database.URL); err != nil {
		log.Fatal().Err(err).Msg("run migrations")
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed; continuing without redis")
			redisClient = nil
		}
	}

	appRepo := postgres.NewApplicationRepository(pool)
	configRepo := postgres.NewConfigurationRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	tokenStore := postgres.NewTokenStore(pool)
	stateStore := postgres.NewStateStore(pool)
	auditStore := postgres.NewAuditStore(pool)

	var enqueuer ports.Enqueuer
	var asynqWorker *queue.Worker
	if redisClient != nil {
		redisOpt, _ := redis.ParseURL(cfg.Redis.URL)
		asynqOpt := asynq.RedisClientOpt{Addr: redisOpt.Addr, Password: redisOpt.Password, DB: redisOpt.DB}
		asynqEnq := queue.NewEnqueuer(asynqOpt, log)
		defer asynqEnq.Close()
		enqueuer = asynqEnq
		asynqWorker = queue.NewWorker(asynqOpt, auditStore, log)
		go func() {
			if err := asynqWorker.Run(); err != nil {
				log.Warn().Err(err).Msg("asynq worker stopped")
			}
		}()
	}

	var emitter audit.Emitter
	if cfg.Audit.WebhookURL != "" {
		emitter = webhook.NewHTTPEmitter(cfg.Audit.WebhookURL)
	}
	recorder := audit.NewRecorder(auditStore, enqueuer, emitter, log)

	issuer := infraauth.NewTokenIssuer([]byte(cfg.JWT.Secret), cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.AccessExpiry)
	providers := oauth.MergeCredentials(cfg.OAuth.Providers)
	gateway := oauth.NewGateway(providers, cfg.OAuth.CallbackBaseURL)

	usersSvc := users.NewService(userRepo)
	beginUC := auth.NewBeginOAuth(gateway, stateStore, cfg.OAuth.StateExpiry, cfg.CORS.AllowedOrigins)
	completeUC := auth.NewCompleteOAuth(gateway, stateStore, usersSvc, issuer, tokenStore, cfg.JWT.RefreshExpiry, log)
	refreshUC := auth.NewRefresh(issuer, tokenStore, userRepo, cfg.JWT.RefreshExpiry)
	logoutUC := auth.NewLogout(tokenStore)

	authHandler := handlers.NewAuthHandler(gateway, beginUC, completeUC, refreshUC, logoutUC, usersSvc, recorder, log)
	appsHandler := handlers.NewApplicationsHandler(appRepo, recorder, log)
	configsHandler := handlers.NewConfigurationsHandler(configRepo, appRepo, recorder, log)
	healthHandler := handlers.NewHealthHandler(pool, redisClient)

	ipLimit, err := middleware.NewIPRateLimiter(cfg.RateLimit.RatePerIP)
	if err != nil {
		log.Fatal().Err(err).Msg("create IP rate limiter")
	}
	secureMiddleware := middleware.NewSecure(middleware.SecureOptions(cfg.Secure.IsDevelopment))
	corsMiddleware := middleware.CORS(cfg.CORS.AllowedOrigins)
	requireJWT := middleware.NewAuthValidator(issuer, userRepo).Handler

	router := httprouter.NewRouter(httprouter.RouterConfig{
		AuthHandler:           authHandler,
		ApplicationsHandler:   appsHandler,
		ConfigurationsHandler: configsHandler,
		HealthHandler:         healthHandler,
		RequireJWT:            requireJWT,
		CORS:                  corsMiddleware,
		Secure:                secureMiddleware,
		IPRateLimit:           ipLimit,
		Log:                   log,
		Metrics:               true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if asynqWorker != nil {
		asynqWorker.Shutdown()
	}
	log.Info().Msg("server stopped")
}
