package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"labeldesk/config"
	"labeldesk/internal/db"
	"labeldesk/internal/health"
	"labeldesk/internal/inventory"
	"labeldesk/internal/logs"
	"labeldesk/internal/metrics"
	"labeldesk/internal/middleware"
	"labeldesk/internal/repo"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type App struct {
	cfg        *config.Config
	Router     *mux.Router
	httpServer *http.Server

	db     *gorm.DB
	ctx    context.Context
	cancel context.CancelFunc
}

// OpenDB opens and migrates the configured database.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	d, err := db.Open(cfg.Database.Driver, cfg.Database.DSN, db.Options{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		LogLevel:     cfg.Database.LogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if d == nil {
		return nil, fmt.Errorf("database.driver is not set")
	}
	if err := db.Migrate(d); err != nil {
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	return d, nil
}

// Initialize wires storage and routes. Logging is expected to be set up by
// the caller (see cmd/labeldesk).
func (a *App) Initialize(cfg *config.Config) error {
	a.cfg = cfg

	// 1) БД + миграции
	d, err := OpenDB(cfg)
	if err != nil {
		return err
	}
	a.db = d

	// 2) Роутер + middleware
	a.Router = mux.NewRouter()
	a.Router.Use(middleware.RequestID)
	a.Router.Use(middleware.Recoverer)
	a.Router.Use(middleware.LoggerMW)

	// 3) Health + metrics
	health.RegisterRoutesWithDB(a.Router, a.db)
	if a.cfg.Metrics.Enabled {
		a.Router.Handle(a.cfg.Metrics.Path, metrics.Handler()).Methods(http.MethodGet)
	}

	// 4) Inventory API
	inventory.NewHTTP(inventory.NewManager(a.db), repo.NewStore(a.db)).RegisterRoutes(a.Router)

	_ = a.Router.Walk(func(rt *mux.Route, r *mux.Router, ancestors []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		logs.Logger.Debugf("route: %-6v %s", methods, path)
		return nil
	})
	return nil
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return ErrNotInitialized
	}
	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() { <-sigs; a.cancel() }()

	a.httpServer = &http.Server{
		Addr:         bind,
		Handler:      a.Router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logs.Logger.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
			a.cancel()
		}
	}()

	<-a.ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = a.httpServer.Shutdown(ctx)
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	default:
		return nil
	}
}

var ErrNotInitialized = &initError{"server not initialized (call Initialize(cfg) first)"}

type initError struct{ s string }

func (e *initError) Error() string { return e.s }
