package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ForLess01/API-RALF/pkg/config"
	"github.com/ForLess01/API-RALF/pkg/journal"
	"github.com/ForLess01/API-RALF/pkg/providerfactory"
	"github.com/ForLess01/API-RALF/pkg/proxy/handlers"
	"github.com/ForLess01/API-RALF/pkg/proxy/middleware"
	"github.com/ForLess01/API-RALF/pkg/routing"
	"github.com/ForLess01/API-RALF/pkg/telemetry/health"
	"github.com/ForLess01/API-RALF/pkg/telemetry/logging"
	"github.com/ForLess01/API-RALF/pkg/telemetry/metrics"
	"github.com/ForLess01/API-RALF/pkg/telemetry/tracing"
)

// reloadDebounce collapses the burst of events editors produce on save.
const reloadDebounce = 500 * time.Millisecond

// Server is the API-RALF gateway: the HTTP listener plus everything wired
// behind it.
type Server struct {
	config     *config.Config
	configPath string
	version    health.VersionInfo

	logger     *logging.Logger
	registry   *routing.Registry
	dispatcher *routing.Dispatcher
	collector  *metrics.Collector
	tracer     *tracing.Tracer
	checker    *health.Checker

	store     journal.Store
	recorder  *journal.Recorder
	scheduler *journal.Scheduler

	traceOpts []tracing.Option
	watcher   *config.Watcher

	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger uses logger instead of one built from the logging config.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithRegistry uses an existing backend registry instead of creating the
// configured adapters.
func WithRegistry(registry *routing.Registry) Option {
	return func(s *Server) { s.registry = registry }
}

// WithConfigPath enables hot reload of the given configuration file.
func WithConfigPath(path string) Option {
	return func(s *Server) { s.configPath = path }
}

// WithVersion sets the build information served on the version endpoint.
func WithVersion(info health.VersionInfo) Option {
	return func(s *Server) { s.version = info }
}

// WithTracingOptions passes options to the tracer, e.g. a test exporter.
func WithTracingOptions(opts ...tracing.Option) Option {
	return func(s *Server) { s.traceOpts = append(s.traceOpts, opts...) }
}

// New builds the gateway from cfg: logger, backends, dispatcher, journal,
// metrics, tracing and health checks. Nothing listens until Start.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		config:       cfg,
		version:      health.NewVersionInfo("dev", "", ""),
		shutdownChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		s.logger = logger
	}
	slog.SetDefault(s.logger.Slog())

	if err := s.build(); err != nil {
		s.closeComponents()
		return nil, err
	}
	return s, nil
}

func (s *Server) build() error {
	cfg := s.config

	if s.registry == nil {
		registry, err := providerfactory.NewRegistry(cfg.Backends)
		if err != nil {
			return fmt.Errorf("failed to load backends: %w", err)
		}
		s.registry = registry
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, append([]tracing.Option{tracing.WithVersion(s.version.Version)}, s.traceOpts...)...)
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	s.tracer = tracer

	s.collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	dispatchOpts := []routing.Option{
		routing.WithLogger(s.logger.Slog().With("component", "routing.dispatcher")),
	}
	if s.collector.Enabled() {
		dispatchOpts = append(dispatchOpts, routing.WithObserver(s.collector))
	}

	if cfg.Journal.Enabled {
		store, err := journal.Open(cfg.Journal)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		s.store = store
		s.recorder = journal.NewRecorder(store, cfg.Journal.Recorder)
		s.scheduler = journal.NewScheduler(journal.NewPruner(store, cfg.Journal.Retention))
		dispatchOpts = append(dispatchOpts, routing.WithObserver(s.recorder))
	}

	dispatcher, err := routing.NewDispatcher(s.registry,
		routing.NewHealthTracker(s.registry.Names(), cfg.Routing.Cooldown),
		dispatchOpts...)
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	s.dispatcher = dispatcher

	if s.collector.Enabled() {
		if err := s.collector.ObserveBackends(dispatcher); err != nil {
			return fmt.Errorf("failed to register backend metrics: %w", err)
		}
	}

	s.checker = health.New(cfg.Telemetry.Health.CheckTimeout)
	s.checker.RegisterCheck("backends", health.BackendsCheck(dispatcher))
	if s.store != nil {
		s.checker.RegisterOptionalCheck("journal", health.PingCheck("journal", s.store))
	}

	return nil
}

// Start starts the HTTP server and blocks until ctx is cancelled, a
// termination signal arrives, Stop is called or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	proxyCfg := s.config.Proxy
	s.httpServer = &http.Server{
		Addr:           proxyCfg.ListenAddress,
		Handler:        s.Handler(),
		ReadTimeout:    proxyCfg.ReadTimeout,
		WriteTimeout:   proxyCfg.WriteTimeout,
		IdleTimeout:    proxyCfg.IdleTimeout,
		MaxHeaderBytes: proxyCfg.MaxHeaderBytes,
	}

	if s.scheduler != nil {
		if err := s.scheduler.Start(ctx); err != nil {
			slog.Error("journal pruning disabled", "error", err)
		}
	}

	if s.configPath != "" {
		s.startWatcher(ctx)
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting API-RALF",
			"address", proxyCfg.ListenAddress,
			"backends", s.registry.Names(),
			"cooldown", s.dispatcher.Health().Cooldown().String(),
			"journal", s.store != nil,
		)

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.Shutdown(context.Background())
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Stop asks a running Start to shut down.
func (s *Server) Stop() {
	select {
	case <-s.shutdownChan:
	default:
		close(s.shutdownChan)
	}
}

// Shutdown drains in-flight streams for up to the configured shutdown
// timeout and then releases every component.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		slog.Info("initiating graceful shutdown", "timeout", s.config.Proxy.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Proxy.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.closeComponents()

		if s.tracer != nil {
			if err := s.tracer.Shutdown(shutdownCtx); err != nil {
				slog.Warn("failed to flush traces", "error", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("API-RALF stopped")
	})

	return shutdownErr
}

// closeComponents releases everything New created. The recorder is closed
// before the store so queued records are written first.
func (s *Server) closeComponents() {
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			slog.Warn("failed to stop config watcher", "error", err)
		}
	}
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.recorder != nil {
		if err := s.recorder.Close(); err != nil {
			slog.Warn("failed to close journal recorder", "error", err)
		}
		if n := s.recorder.Dropped(); n > 0 {
			slog.Warn("journal records dropped", "count", n)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Warn("failed to close journal store", "error", err)
		}
	}
	if s.registry != nil {
		if err := s.registry.Close(); err != nil {
			slog.Warn("failed to close backends", "error", err)
		}
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	cfg := s.config
	mux := http.NewServeMux()

	handlerOpts := []handlers.Option{
		handlers.WithMaxBodyBytes(cfg.Proxy.MaxBodyBytes),
		handlers.WithLogger(s.logger.Slog().With("component", "proxy.handlers")),
	}
	if s.collector.Enabled() {
		handlerOpts = append(handlerOpts, handlers.WithRecorder(s.collector))
	}

	mux.Handle(handlers.RouteChat, handlers.NewChatHandler(s.dispatcher, handlerOpts...))
	mux.Handle(handlers.RouteCompletions, handlers.NewCompletionsHandler(s.dispatcher, handlerOpts...))
	mux.Handle("/backends", handlers.NewBackendsHandler(s.dispatcher))
	mux.Handle("/backends/{name}/reset", handlers.NewResetHandler(s.dispatcher))
	mux.Handle("/dispatches", handlers.NewDispatchesHandler(s.store, cfg.Journal.Query))
	mux.Handle("/", handlers.NewIndexHandler())

	health.Register(mux, s.checker, cfg.Telemetry.Health, s.version)
	if s.collector.Enabled() {
		mux.Handle(cfg.Telemetry.Metrics.Path, s.collector.Handler())
	}

	return middleware.Chain(mux,
		middleware.RecoveryMiddleware,
		middleware.RequestIDMiddleware,
		tracing.HTTPMiddleware(s.tracer),
		middleware.LoggingMiddleware,
		middleware.CORSMiddleware(&cfg.Proxy.CORS),
	)
}

// startWatcher reloads the configuration file whenever it changes.
func (s *Server) startWatcher(ctx context.Context) {
	watcher, err := config.NewWatcher(s.configPath, reloadDebounce, s.logger.Slog())
	if err != nil {
		slog.Error("config hot reload disabled", "error", err)
		return
	}
	s.watcher = watcher

	go func() {
		if err := watcher.Watch(ctx, s.reload); err != nil {
			slog.Error("config watcher stopped", "error", err)
		}
	}()
}

// reload applies the reloadable settings of the configuration file:
// the cooldown duration and the log level. Backends are fixed for the
// life of the process.
func (s *Server) reload() error {
	previous, current, err := config.ReloadConfig(s.configPath)
	if err != nil {
		return err
	}
	return s.apply(previous, current)
}

func (s *Server) apply(previous, current *config.Config) error {
	if previous != nil && config.BackendsChanged(previous, current) {
		slog.Warn("backend list changed on disk, restart to apply it")
	}

	if current.Routing.Cooldown != s.dispatcher.Health().Cooldown() {
		s.dispatcher.SetCooldown(current.Routing.Cooldown)
	}

	if err := s.logger.SetLevel(current.Telemetry.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	slog.Info("configuration reloaded",
		"cooldown", current.Routing.Cooldown.String(),
		"log_level", current.Telemetry.Logging.Level,
	)
	return nil
}

// Dispatcher returns the routing dispatcher.
func (s *Server) Dispatcher() *routing.Dispatcher {
	return s.dispatcher
}

// Journal returns the journal store, or nil when the journal is disabled.
func (s *Server) Journal() journal.Store {
	return s.store
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Health reports whether the server is running and at least one backend
// can take a request.
func (s *Server) Health() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return errors.New("server is not running")
	}
	if !s.dispatcher.AnyHealthy() {
		return health.ErrAllBackendsCooling
	}
	return nil
}
