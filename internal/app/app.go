// Package app initializes and runs the authentication service.
// It configures logging, storage, rate limiting, sessions and routing,
// and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/patric-chuzhbe/walletauth/internal/auth"
	"github.com/patric-chuzhbe/walletauth/internal/config"
	"github.com/patric-chuzhbe/walletauth/internal/db/memorystorage"
	"github.com/patric-chuzhbe/walletauth/internal/db/postgresdb"
	"github.com/patric-chuzhbe/walletauth/internal/db/sqlitedb"
	"github.com/patric-chuzhbe/walletauth/internal/db/storage"
	"github.com/patric-chuzhbe/walletauth/internal/hasher"
	"github.com/patric-chuzhbe/walletauth/internal/ipchecker"
	"github.com/patric-chuzhbe/walletauth/internal/logger"
	"github.com/patric-chuzhbe/walletauth/internal/models"
	"github.com/patric-chuzhbe/walletauth/internal/ratelimit"
	"github.com/patric-chuzhbe/walletauth/internal/router"
	"github.com/patric-chuzhbe/walletauth/internal/service"
)

const shutdownTimeout = 10 * time.Second

// App encapsulates the configuration, HTTP handler, storage backend
// and background services needed to run the service.
type App struct {
	cfg         *config.Config
	db          storage.Storage
	redisClient *redis.Client
	stopSweeper context.CancelFunc
	sweeperDone <-chan struct{}
	httpHandler http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - selecting the rate limit backend
// - setting up the router and middleware
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel, !app.cfg.IsProduction())
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	limiter, err := app.initRateLimiter()
	if err != nil {
		return nil, errors.Join(err, app.closeResources())
	}

	checker, err := newIPChecker(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, errors.Join(err, app.closeResources())
	}

	passwordHasher, err := hasher.New(app.cfg.BcryptCost, app.cfg.MaxConcurrentHashes)
	if err != nil {
		return nil, errors.Join(err, app.closeResources())
	}

	theAuth := auth.New(
		app.cfg.AuthCookieName,
		[]byte(app.cfg.JWTSecret),
		app.cfg.SessionTTL,
		app.cfg.IsProduction(),
	)

	svc := service.New(app.db, passwordHasher, theAuth)

	app.httpHandler = router.New(
		svc,
		theAuth,
		limiter,
		checker.ClientIPString,
		app.cfg.AllowedOrigins,
	)

	return app, nil
}

func (a *App) initRateLimiter() (ratelimit.Limiter, error) {
	if a.cfg.RedisURL != "" {
		options, err := redis.ParseURL(a.cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("in internal/app/app.go/initRateLimiter(): error while `redis.ParseURL()` calling: %w", err)
		}
		a.redisClient = redis.NewClient(options)

		pingCtx, cancel := context.WithTimeout(context.Background(), a.cfg.DBConnectionTimeout)
		defer cancel()
		if err := a.redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Log.Warnw("redis is not reachable yet, rate limiting fails open until it is", logger.ErrorField(err))
		}

		logger.Log.Infow("rate limit counters kept in redis", "addr", options.Addr)

		return ratelimit.NewRedis(
			a.redisClient,
			ratelimit.DefaultKeyPrefix,
			a.cfg.RateLimitMax,
			a.cfg.RateLimitWindow,
		), nil
	}

	limiter := ratelimit.NewMemory(a.cfg.RateLimitMax, a.cfg.RateLimitWindow)
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	a.stopSweeper = stopSweeper
	a.sweeperDone = limiter.Run(sweeperCtx, a.cfg.RateLimitWindow)

	return limiter, nil
}

func newIPChecker(trustedSubnet string) (*ipchecker.IPChecker, error) {
	checker, err := ipchecker.New(trustedSubnet)
	if err != nil {
		return nil, err
	}

	if checker.IsTrustedSubnetEmpty() {
		logger.Log.Infow("no trusted proxy subnet, X-Forwarded-For and X-Real-IP are ignored")
	} else {
		logger.Log.Infow("forwarding headers honoured from trusted proxies", "subnet", trustedSubnet)
	}

	return checker, nil
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infow("server running",
		"RunAddr", a.cfg.RunAddr,
		"BaseURL", a.cfg.BaseURL,
		"Environment", a.cfg.Environment,
	)

	server := &http.Server{
		Addr:              a.cfg.RunAddr,
		Handler:           a.httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if a.cfg.EnableHTTPS {
			serverErrCh <- server.ListenAndServeTLS(a.cfg.TLSCertFile, a.cfg.TLSKeyFile)
			return
		}
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Draining requests and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var shutdownErr error
		if err := server.Shutdown(shutdownCtx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		return errors.Join(shutdownErr, a.closeResources())

	case err := <-serverErrCh:
		closeErr := a.closeResources()
		if errors.Is(err, http.ErrServerClosed) {
			return closeErr
		}
		return errors.Join(fmt.Errorf("server error: %w", err), closeErr)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func (a *App) closeResources() error {
	var errs []error

	if a.stopSweeper != nil {
		a.stopSweeper()
		<-a.sweeperDone
		a.stopSweeper = nil
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			errs = append(errs, err)
		}
		a.redisClient = nil
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, err)
		}
		a.db = nil
	}

	return errors.Join(errs...)
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.DBFilePath != "" {
		return models.StorageTypeSQLite
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage.Storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypePostgresql:
		logger.Log.Infow("using postgres credential store")
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
		)

	case models.StorageTypeSQLite:
		logger.Log.Infow("using sqlite credential store", "path", cfg.DBFilePath)
		return sqlitedb.New(context.Background(), cfg.DBFilePath)
	}

	logger.Log.Warnw("using in-memory credential store, accounts are lost on restart")
	return memorystorage.New()
}
