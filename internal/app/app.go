package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"SocialFactory/internal/config"
	"SocialFactory/internal/infrastructure/linkedin"
	"SocialFactory/internal/infrastructure/llm"
	"SocialFactory/internal/infrastructure/scheduler"
	"SocialFactory/internal/infrastructure/sheets"
	"SocialFactory/internal/infrastructure/slack"
	"SocialFactory/internal/infrastructure/storage"
	"SocialFactory/internal/infrastructure/trends"
	"SocialFactory/internal/infrastructure/video"
	"SocialFactory/internal/infrastructure/wordpress"
	"SocialFactory/internal/logging"
	"SocialFactory/internal/ports"
	"SocialFactory/internal/publish"
	"SocialFactory/internal/server"
	"SocialFactory/internal/usecase"
)

// Application wires configuration to the orchestration core and owns the
// process lifecycle. All collaborators are constructed here; nothing lives in
// package-level state.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	workflow  *usecase.Workflow
	resolver  *usecase.ApprovalResolver
	processor *usecase.AutoProcessor
	srv       *server.Server
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := buildStore(cfg, baseLogger)
	if err != nil {
		return nil, err
	}

	var notifier ports.Notifier
	if cfg.Notifications.Slack.WebhookURL != "" {
		notifier = slack.NewNotifier(cfg.Notifications.Slack)
	}

	gemini := llm.NewGeminiClient(cfg.LLM)

	var analyzer ports.TrendAnalyzer
	switch {
	case cfg.LLM.APIKey != "":
		analyzer = gemini
	case cfg.Trends.URL != "":
		analyzer = trends.NewScanner(cfg.Trends.URL, nil)
	}

	wp := wordpress.NewPublisher(cfg.Publishers.WordPress)
	registry := publish.NewRegistry(wp)
	registry.Register(publish.PlatformWordPress, wp)
	if cfg.Publishers.LinkedIn.AccessToken != "" {
		registry.Register(publish.PlatformLinkedIn, linkedin.NewPublisher(cfg.Publishers.LinkedIn))
	}

	workflow := usecase.NewWorkflow(usecase.WorkflowDeps{
		Store:           store,
		Trends:          analyzer,
		Scripts:         gemini,
		Videos:          video.NewClient(cfg.Video.Endpoint, cfg.Video.APIKey),
		Captions:        gemini,
		Publishers:      registry,
		Notifier:        notifier,
		ApprovalBaseURL: cfg.Server.ApprovalBaseURL,
		Logger:          baseLogger.With("component", "workflow"),
	})

	resolver := usecase.NewApprovalResolver(usecase.ApprovalDeps{
		Store:      store,
		Publishers: registry,
		Notifier:   notifier,
		Logger:     baseLogger.With("component", "approval"),
	})

	processor := usecase.NewAutoProcessor(usecase.AutoProcessorDeps{
		Store:         store,
		Workflow:      workflow,
		Notifier:      notifier,
		Scheduler:     scheduler.NewIntervalScheduler(time.Duration(cfg.AutoProcess.IntervalSeconds) * time.Second),
		MaxConcurrent: cfg.AutoProcess.MaxConcurrent,
		Logger:        baseLogger.With("component", "autoprocessor"),
	})

	srv := server.New(workflow, resolver, processor, baseLogger.With("component", "server"))

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		workflow:  workflow,
		resolver:  resolver,
		processor: processor,
		srv:       srv,
	}, nil
}

// Serve starts the auto-processor (when enabled) and the HTTP server, and
// blocks until the context is cancelled. In-flight pipeline runs drain before
// Serve returns.
func (a *Application) Serve(ctx context.Context) error {
	if a.cfg.AutoProcess.IsEnabled() {
		if err := a.processor.Start(ctx); err != nil {
			return err
		}
	}

	httpSrv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      a.srv.Router(a.cfg.Server.AllowedOrigins),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutdown signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown forced", "error", err)
	}

	if a.cfg.AutoProcess.IsEnabled() {
		if err := a.processor.Stop(shutdownCtx); err != nil {
			a.logger.Error("auto-processor stop failed", "error", err)
		}
	}

	a.logger.Info("stopped cleanly")
	return nil
}

// ProcessOnce runs a single discovery pass and returns when every discovered
// item has been processed.
func (a *Application) ProcessOnce(ctx context.Context) error {
	a.processor.DiscoverOnce(ctx)
	return nil
}

func buildStore(cfg config.Config, logger *slog.Logger) (ports.ContentStore, error) {
	switch cfg.Store.Backend {
	case "postgres":
		db, err := storage.Open(cfg.Store.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		logger.Info("using postgres content store")
		return storage.NewPostgresStore(db), nil
	default:
		logger.Info("using spreadsheet content store", "sheet", cfg.Store.Sheets.SheetName)
		return sheets.NewStore(cfg.Store.Sheets), nil
	}
}
