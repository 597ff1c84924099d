package main // Entry point package

import (
	"context"   // root context cancelled on shutdown signals
	"errors"    // errors.Is to tell a clean shutdown from a failure
	"fmt"       // fmt builds the upload body limit
	"net/http"  // http.ErrServerClosed
	"os"        // process exit code
	"os/signal" // SIGINT/SIGTERM handling
	"strings"   // path prefix checks for the body limit skipper
	"syscall"   // SIGTERM
	"time"      // shutdown grace period

	"github.com/google/uuid"                        // request id generator
	"github.com/joho/godotenv"                      // optional .env loading for local runs
	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // Echo's stock middleware
	"go.uber.org/zap"                               // structured logging
	"go.uber.org/zap/zapcore"                       // level parsing

	"github.com/iliyamo/excellense/internal/config"     // env config loader
	"github.com/iliyamo/excellense/internal/database"   // MySQL pool and migrations
	"github.com/iliyamo/excellense/internal/handler"    // HTTP handlers
	"github.com/iliyamo/excellense/internal/mailer"     // outbound notification mail
	"github.com/iliyamo/excellense/internal/metrics"    // Prometheus collectors
	"github.com/iliyamo/excellense/internal/middleware" // auth, rate limit, cache, request log
	"github.com/iliyamo/excellense/internal/queue"      // admin request events over RabbitMQ
	"github.com/iliyamo/excellense/internal/repository" // SQL repositories
	"github.com/iliyamo/excellense/internal/router"     // route registration
	"github.com/iliyamo/excellense/internal/service"    // business rules
	"github.com/iliyamo/excellense/internal/utils"      // JWT issuer
)

func main() {
	_ = godotenv.Load() // a missing .env is fine; the real environment wins

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	}
	lvl, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	db, err := database.Open(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		return err
	}

	users := repository.NewUserRepo(db)
	requests := repository.NewAdminRequestRepo(db)
	uploads := repository.NewUploadRepo(db)
	analyses := repository.NewAnalysisRepo(db)
	m := metrics.New()

	// Redis is optional: the limiter and cache pass through without it.
	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		logger.Warn("redis unavailable, rate limiting and caching disabled", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	var notifier service.Notifier = service.NopNotifier{}
	if cfg.RabbitURL != "" {
		notifier = queue.NewPublisher(cfg.RabbitURL)
		sender := mailer.New(cfg.SMTP, logger)
		go func() {
			if err := queue.StartNotificationConsumer(ctx, cfg.RabbitURL, sender, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("notification consumer stopped", zap.Error(err))
			}
		}()
	} else {
		logger.Info("RABBITMQ_URL not set, admin request notifications disabled")
	}

	if err := service.SeedSuperAdmin(ctx, users, cfg.SuperAdmin, cfg.BcryptCost, logger); err != nil {
		return err
	}

	issuer := utils.NewTokenIssuer(cfg.JWTSecret)
	authSvc := service.NewAuthService(users, issuer, cfg.BcryptCost, m, logger)
	requestSvc := service.NewAdminRequestService(requests, users, notifier, service.AdminRequestConfig{
		PassKey:         cfg.AdminPassKey,
		SuperAdminEmail: cfg.SuperAdmin.Email,
		BcryptCost:      cfg.BcryptCost,
	}, m, logger)
	userSvc := service.NewUserService(users, cfg.BcryptCost, logger)
	uploadSvc := service.NewUploadService(uploads, m, logger)
	analysisSvc := service.NewAnalysisService(analyses, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.Recover())
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: origins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Limit: cfg.JSONBodyLimit,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/uploads")
		},
	}))

	auth := middleware.JWTAuth(issuer, users, logger)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb, logger)
	// Multipart framing adds a little on top of the file itself.
	uploadLimit := echomw.BodyLimit(fmt.Sprintf("%dB", cfg.UploadMaxBytes+1<<20))

	router.RegisterRoutes(e, m.Handler())
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc, requestSvc, userSvc, logger), auth, limiter)
	router.RegisterUploads(e, handler.NewUploadHandler(uploadSvc, cfg.UploadMaxBytes, logger), auth, uploadLimit)
	router.RegisterAnalyses(e, handler.NewAnalysisHandler(analysisSvc, logger), auth)
	router.RegisterAdmin(e, handler.NewAdminHandler(userSvc, uploadSvc, analysisSvc, requestSvc, logger), auth, cache)

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		errc <- e.Start(addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
