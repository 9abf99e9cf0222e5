package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	httpapi "github.com/aussiebroadwan/totpgate/internal/auth/http"
	"github.com/aussiebroadwan/totpgate/internal/auth/pending"
	"github.com/aussiebroadwan/totpgate/internal/auth/service"
	"github.com/aussiebroadwan/totpgate/internal/auth/store"
	"github.com/aussiebroadwan/totpgate/internal/auth/store/drivers/mongodb"
	"github.com/aussiebroadwan/totpgate/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/totpgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/totpgate/pkg/cryptox"
	"github.com/aussiebroadwan/totpgate/pkg/otpx"
	"github.com/aussiebroadwan/totpgate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	connectTimeout = 10 * time.Second
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	sessions store.Sessions
	redis    *goredis.Client // nil unless SESSION_BACKEND=redis
	pending  *pending.Store
	secrets  Secrets

	// Services
	authService         *service.AuthService
	sessionService      *service.SessionService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "totpgate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	secrets, err := InitSecrets(cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.secrets = secrets

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := app.initSessions(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"store", app.cfg.Store,
		"session_backend", app.cfg.SessionBackend,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains the HTTP server, stops housekeeping and closes the
// backends. Pending signups are lost with the process.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", slogx.Err(err))
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", slogx.Err(err))
		}
	}

	app.housekeepingService.Stop()

	if dropped := app.pending.Len(); dropped > 0 {
		app.logger.Warn("discarding unconfirmed signups", "count", dropped)
	}

	var errs []error
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", slogx.Err(err))
			errs = append(errs, err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", slogx.Err(err))
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase opens the configured account store and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.Store {
	case StoreMongo:
		db, err = mongodb.NewStore(ctx, app.cfg.MongoURI, app.cfg.MongoDB)
	default:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err = sqlite.NewStore(dsn)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize %s store: %w", app.cfg.Store, err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.db = db
	app.logger.Info("database migrations applied successfully", "store", app.cfg.Store)
	return nil
}

// initSessions picks where sessions live. The account store is the
// default; Redis lets several replicas share sessions.
func (app *Application) initSessions(ctx context.Context) error {
	if app.cfg.SessionBackend != SessionBackendRedis {
		app.sessions = app.db.Sessions()
		return nil
	}

	client, err := redis.Connect(ctx, app.cfg.RedisAddr, app.cfg.RedisPassword, app.cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.redis = client
	app.sessions = redis.NewSessions(client)
	app.logger.Info("sessions stored in redis", "addr", app.cfg.RedisAddr, "db", app.cfg.RedisDB)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.pending = pending.New(pending.WithTTL(app.cfg.PendingTTL))

	app.sessionService = service.NewSessionService(app.sessions, app.cfg.SessionTTL)

	app.authService = &service.AuthService{
		Accounts:  app.db.Accounts(),
		Pending:   app.pending,
		Generator: &otpx.Generator{Issuer: app.cfg.Issuer},
		Verifier:  &otpx.Verifier{Skew: app.cfg.TOTPSkew},
		Hasher:    cryptox.NewPasswordHasher(app.secrets.Pepper),
		Sessions:  app.sessionService,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.sessionService,
		app.pending,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	checks := httpapi.ReadinessChecks{Accounts: app.db}
	if app.redis != nil {
		checks.Sessions = app.sessions.(httpapi.Pinger)
	}

	router := httpapi.NewRouter(
		app.secrets.Challenges,
		BuildVersion,
		checks,
		app.logger,
		httpapi.Options{
			ChallengeTTL:   app.cfg.ChallengeTTL,
			CookieSecure:   app.cfg.CookieSecure,
			AllowedOrigins: app.cfg.AllowedOrigins,
		},
	)

	router.AuthService = app.authService
	router.SessionService = app.sessionService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
