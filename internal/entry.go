// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/maeum/internal/api"
	"github.com/starford/maeum/internal/entrystore"
	"github.com/starford/maeum/internal/genai"
	"github.com/starford/maeum/internal/index"
	"github.com/starford/maeum/internal/journal"
	"github.com/starford/maeum/internal/lock"
	"github.com/starford/maeum/internal/mcpserver"
	"github.com/starford/maeum/internal/report"
	"github.com/starford/maeum/internal/sse"
	"github.com/starford/maeum/internal/storage"
)

// runtime is the wired journal shared by the HTTP and MCP entry points.
type runtime struct {
	cfg    *Config
	logger *slog.Logger
	fs     *storage.FS
	store  *entrystore.Store
	db     *index.DB
	svc    *journal.Service
	gate   *lock.Gate
}

func (rt *runtime) Close() {
	if err := rt.db.Close(); err != nil {
		rt.logger.Warn("close index failed", slog.String("error", err.Error()))
	}
}

// setup builds the journal. onAnalysis and onChange may be nil.
func setup(app *application, onAnalysis func(report.Result), onChange func(entrystore.Change)) (*runtime, error) {
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	out := app.logOutput
	if out == nil {
		out = os.Stdout
	}
	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("ai_enabled", cfg.AI.Enabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure data directory exists.
	if err := os.MkdirAll(cfg.Storage.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	fs, err := storage.NewFS(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	store := entrystore.New(fs, entrystore.WithLogger(logger))
	entries := store.Load()
	logger.Info("Journal loaded", slog.Int("entries", len(entries)))

	gate, err := lock.Open(fs)
	if err != nil {
		return nil, fmt.Errorf("init lock: %w", err)
	}

	builderOpts := []report.BuilderOption{
		report.WithLogger(logger),
		report.WithMinEntries(cfg.Report.MinEntries),
	}
	if onAnalysis != nil {
		builderOpts = append(builderOpts, report.WithUpdateHook(onAnalysis))
	}
	var analyzer report.Analyzer
	if cfg.AI.Enabled() {
		client, err := genai.New(genai.Config{
			APIKey:         cfg.AI.APIKey,
			BaseURL:        cfg.AI.BaseURL,
			Model:          cfg.AI.Model,
			SpeechModel:    cfg.AI.SpeechModel,
			Voice:          cfg.AI.Voice,
			MaxRetries:     cfg.AI.MaxRetries,
			RequestTimeout: cfg.AI.RequestTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("init ai client: %w", err)
		}
		analyzer = client
		if cfg.AI.SpeechModel != "" {
			builderOpts = append(builderOpts, report.WithSpeaker(client))
		}
	} else {
		logger.Warn("AI api key not set, pattern analysis will use the fallback reply")
	}
	builder := report.NewBuilder(store, analyzer, builderOpts...)

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	svcOpts := []journal.Option{
		journal.WithLogger(logger),
		journal.WithNotesPerGroup(cfg.Report.NotesPerGroup),
	}
	if onChange != nil {
		svcOpts = append(svcOpts, journal.WithChangeHook(onChange))
	}
	svc := journal.NewService(store, db, builder, svcOpts...)

	// Run initial sync.
	if err := svc.Reindex(); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return &runtime{cfg: cfg, logger: logger, fs: fs, store: store, db: db, svc: svc, gate: gate}, nil
}

// watch reloads the store when another process rewrites the journal.
func (rt *runtime) watch(ctx context.Context) error {
	path, err := rt.fs.Path(storage.KeyEntries)
	if err != nil {
		return err
	}
	if err := rt.store.Watch(ctx, path); err != nil {
		// A watcher failure leaves the journal running without live reload.
		rt.logger.Warn("journal watcher stopped", slog.String("error", err.Error()))
	}
	return nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	// SSE broker.
	broker := sse.NewBroker(
		sse.WithStatsThrottle(app.config.Events.StatsThrottle),
		sse.WithHeartbeat(app.config.Events.Heartbeat),
	)
	defer broker.Close()

	rt, err := setup(app, broker.PublishAnalysis, broker.PublishChange)
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg, logger := rt.cfg, rt.logger

	// Build API router.
	apiRouter := api.NewRouter(rt.svc, rt.gate, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, rt.fs.Root())
	attachments := api.NewAttachmentHandler(rt.fs.Root())

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Images are referenced from entries by URL, so they are served outside /api.
	r.Get("/attachments/{filename}", attachments.ServeFile)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload the journal on external edits.
	g.Go(func() error {
		return rt.watch(gCtx)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the journal over MCP on stdin/stdout until the client
// disconnects. Logs go to stderr unless WithLogOutput says otherwise.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{logOutput: os.Stderr}

	for _, opt := range opts {
		opt(app)
	}

	rt, err := setup(app, nil, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	srv := mcpserver.New(rt.svc, rt.gate, rt.fs.Root())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		_ = rt.watch(ctx)
	}()

	rt.logger.Info("MCP server starting on stdio")
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}
