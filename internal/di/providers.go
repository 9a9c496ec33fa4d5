package di

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/nannkadayo/site-verify-discord-bot/internal/app"
	"github.com/nannkadayo/site-verify-discord-bot/internal/config"
	"github.com/nannkadayo/site-verify-discord-bot/internal/database"
	"github.com/nannkadayo/site-verify-discord-bot/internal/http/handler"
	"github.com/nannkadayo/site-verify-discord-bot/internal/http/middleware"
	"github.com/nannkadayo/site-verify-discord-bot/internal/observability"
	"github.com/nannkadayo/site-verify-discord-bot/internal/repository"
	"github.com/nannkadayo/site-verify-discord-bot/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(provideLogger)

var InfraSet = wire.NewSet(provideDB, provideRedis)

var RepositorySet = wire.NewSet(
	provideVerificationRepository,
	repository.NewPendingRepository,
	repository.NewPanelRepository,
)

var ServiceSet = wire.NewSet(
	provideArbiter,
	provideDetector,
	provideNotifier,
	provideVerificationService,
)

var HTTPSet = wire.NewSet(
	handler.NewVerifyHandler,
	handler.NewPanelHandler,
	provideRateLimiter,
	handler.NewRouter,
	provideServer,
)

var AppSet = wire.NewSet(app.New)

func provideLogger(cfg *config.Config) *slog.Logger {
	return observability.NewLogger(cfg.LogLevel)
}

func provideDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// provideRedis returns nil when no address is configured; dependents
// fall back to their database-backed implementations.
func provideRedis(cfg *config.Config) redis.UniversalClient {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
}

func provideVerificationRepository(cfg *config.Config, db *gorm.DB) repository.VerificationRepository {
	return repository.NewVerificationRepository(db, cfg.TokenLength)
}

func provideArbiter(cfg *config.Config, client redis.UniversalClient, pending repository.PendingRepository) service.PendingArbiter {
	if client != nil {
		return service.NewRedisPendingArbiter(client, "verify_pending", cfg.PendingTTL)
	}
	return service.NewDBPendingArbiter(pending)
}

func provideDetector(cfg *config.Config, logger *slog.Logger) *service.ProxyDetector {
	return service.NewProxyDetector(nil, cfg.DNSTimeout, logger)
}

func provideNotifier(cfg *config.Config, logger *slog.Logger) *service.AsyncGrantNotifier {
	inner := service.NewHTTPGrantNotifier(cfg.GrantURL, cfg.GrantTimeout)
	return service.NewAsyncGrantNotifier(inner, logger, cfg.GrantQueueSize, cfg.GrantAttempts, cfg.GrantRetryBackoff)
}

func provideVerificationService(
	verifications repository.VerificationRepository,
	arbiter service.PendingArbiter,
	detector *service.ProxyDetector,
	notifier *service.AsyncGrantNotifier,
	logger *slog.Logger,
) service.VerificationServiceInterface {
	return service.NewVerificationService(verifications, arbiter, detector, notifier, logger)
}

func provideRateLimiter(cfg *config.Config, client redis.UniversalClient) *middleware.RateLimiter {
	var limiter middleware.Limiter
	if client != nil {
		limiter = middleware.NewRedisFixedWindowLimiter(client, "verify_rl")
	} else {
		limiter = middleware.NewLocalFixedWindowLimiter()
	}
	mode := middleware.FailClosed
	if cfg.RateLimitFailureMode == "fail_open" {
		mode = middleware.FailOpen
	}
	rl := middleware.NewRateLimiter(limiter, cfg.VerifyRateLimitPerMin, time.Minute, mode, "verify")
	bypass := middleware.NewRequestBypassEvaluator(middleware.RequestBypassConfig{
		EnableInternalProbeBypass: true,
		TrustedCallerCIDRs:        cfg.TrustedCallerCIDRs,
	})
	if bypass != nil {
		rl = rl.WithBypass(bypass)
	}
	return rl
}

func provideServer(cfg *config.Config, router http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
