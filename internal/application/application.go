package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/e3wm/e3wm-api/internal/accessor"
	"github.com/e3wm/e3wm-api/internal/api"
	"github.com/e3wm/e3wm-api/internal/config"
	"github.com/e3wm/e3wm-api/internal/reload"
	"github.com/e3wm/e3wm-api/internal/source"
	"github.com/e3wm/e3wm-api/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	cfg      config.Config
	storage  storage.Storage
	reloader *reload.Reloader
	handler  *api.Handler
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server
	watchDir []string
}

// Option configures App construction.
type Option func(*options)

type options struct {
	dir string
}

// WithDir loads the configuration from dir instead of resolving the user and
// system directories.
func WithDir(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// NewLoader returns a loader that builds a fresh accessor on every call,
// either from an explicit dir or by resolving src.
func NewLoader(src source.Source, dir string, logger *zap.Logger) reload.Loader {
	if dir != "" {
		return func() *accessor.Accessor {
			return accessor.Open(dir, accessor.WithLogger(logger))
		}
	}
	return func() *accessor.Accessor {
		return accessor.New(src, accessor.WithLogger(logger))
	}
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	src, err := cfg.Source()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configuration source: %w", err)
	}

	load := NewLoader(src, o.dir, logger)
	store, err := storage.NewMemoryStorage(load())
	if err != nil {
		return nil, fmt.Errorf("failed to initialise storage: %w", err)
	}

	reloader := reload.New(store, load, logger, reload.WithDebounce(cfg.WatchDebounce))
	handler := api.NewHandler(store, api.WithReloader(reloader))
	router := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	watchDir := []string{src.UserDir, src.SystemDir}
	if o.dir != "" {
		watchDir = []string{o.dir}
	}

	return &App{
		cfg:      cfg,
		storage:  store,
		reloader: reloader,
		handler:  handler,
		router:   router,
		logger:   logger,
		server:   NewServer(cfg, router),
		watchDir: watchDir,
	}, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start begins watching configuration directories when enabled, then starts
// the HTTP server in a goroutine. The watcher stops when ctx is canceled.
func (a *App) Start(ctx context.Context) error {
	if a.cfg.Watch {
		if err := a.reloader.Watch(ctx, a.watchDir...); err != nil {
			if !errors.Is(err, reload.ErrNothingToWatch) {
				return fmt.Errorf("start configuration watcher: %w", err)
			}
			a.logger.Warn("configuration watch disabled", zap.Error(err), zap.Strings("dirs", a.watchDir))
		}
	}

	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// Storage returns the snapshot holder serving queries.
func (a *App) Storage() storage.Storage {
	return a.storage
}
