package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron"

	"github.com/vadim/artflow/internal/config"
	httpcontroller "github.com/vadim/artflow/internal/controller/http"
	"github.com/vadim/artflow/internal/database"
	accountdao "github.com/vadim/artflow/internal/domain/account/dao"
	analyticsdao "github.com/vadim/artflow/internal/domain/analytics/dao"
	analyticsservice "github.com/vadim/artflow/internal/domain/analytics/service"
	postdao "github.com/vadim/artflow/internal/domain/post/dao"
	"github.com/vadim/artflow/internal/domain/post/entity"
	"github.com/vadim/artflow/internal/domain/post/policy"
	"github.com/vadim/artflow/internal/domain/post/scheduler"
	postservice "github.com/vadim/artflow/internal/domain/post/service"
	templatedao "github.com/vadim/artflow/internal/domain/template/dao"
	templateservice "github.com/vadim/artflow/internal/domain/template/service"
	"github.com/vadim/artflow/internal/httpx/upstream/instagram"
	"github.com/vadim/artflow/internal/httpx/upstream/pinterest"
	"github.com/vadim/artflow/internal/storage"
)

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger

	pool *pgxpool.Pool

	postService      *postservice.Service
	analyticsService *analyticsservice.Service
	templateService  *templateservice.Service
	connections      accountdao.ConnectionRepository
	dispatchPolicy   *policy.Policy

	scheduler *scheduler.Scheduler
	cron      *cron.Cron
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Timeout(30 * time.Second))

	app := &App{
		cfg:    cfg,
		router: r,
		logger: logger,
	}

	if err := app.initInfrastructure(ctx); err != nil {
		return nil, fmt.Errorf("initializing infrastructure: %w", err)
	}

	if err := app.initDomains(ctx); err != nil {
		return nil, fmt.Errorf("initializing domains: %w", err)
	}

	app.registerRoutes()

	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if cfg.Scheduler.Enabled {
		app.scheduler = scheduler.New(app.dispatchPolicy, cfg.Scheduler.Interval, cfg.Scheduler.Workers, logger)
	}

	if cfg.Analytics.Enabled {
		app.cron = cron.New()
		if err := app.cron.AddFunc(cfg.Analytics.CronSpec, app.analyticsService.AggregatePreviousDay); err != nil {
			return nil, fmt.Errorf("registering analytics rollup job: %w", err)
		}
	}

	return app, nil
}

// initInfrastructure initializes infrastructure components
func (a *App) initInfrastructure(ctx context.Context) error {
	pool, err := database.NewPostgresPool(ctx, a.cfg.Database.PostgresDSN,
		a.cfg.Database.MaxOpenConns, a.cfg.Database.MinIdleConns)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	a.pool = pool

	return nil
}

// initDomains initializes domain layers (DAO, Service, Policy)
func (a *App) initDomains(ctx context.Context) error {
	// Post domain
	postsRepo := postdao.NewPostPostgres(a.pool)
	publicationsRepo := postdao.NewPublicationPostgres(a.pool)
	attemptsRepo := postdao.NewAttemptPostgres(a.pool)
	a.postService = postservice.New(postsRepo, publicationsRepo, attemptsRepo)

	// Platform connections
	a.connections = accountdao.NewConnectionPostgres(a.pool)

	// Media resolver
	media, err := storage.NewS3Storage(storage.S3Config{
		Endpoint:        a.cfg.S3.Endpoint,
		AccessKeyID:     a.cfg.S3.AccessKeyID,
		SecretAccessKey: a.cfg.S3.SecretAccessKey,
		Bucket:          a.cfg.S3.Bucket,
		Region:          a.cfg.S3.Region,
		PublicURL:       a.cfg.S3.PublicURL,
		PresignTTL:      a.cfg.S3.PresignTTL,
	})
	if err != nil {
		return fmt.Errorf("initializing media storage: %w", err)
	}

	// Platform publishers
	igClient := instagram.New(
		instagram.WithBaseURL(a.cfg.Instagram.BaseURL),
		instagram.WithAPIVersion(a.cfg.Instagram.APIVersion),
	)
	pinClient := pinterest.New(
		pinterest.WithBaseURL(a.cfg.Pinterest.BaseURL),
	)
	publishers := map[entity.Platform]policy.PlatformPublisher{
		entity.PlatformInstagram: &instagramPublisherAdapter{publisher: instagram.NewPublisher(igClient)},
		entity.PlatformPinterest: &pinterestPublisherAdapter{publisher: pinterest.NewPublisher(pinClient)},
	}

	// Dispatch coordinator
	a.dispatchPolicy = policy.New(a.postService, publishers,
		&connectionAccountProvider{connections: a.connections}, media,
		policy.Config{
			MaxAttempts:    a.cfg.Dispatch.MaxAttempts,
			BackoffBase:    a.cfg.Dispatch.BackoffBase,
			PublishTimeout: a.cfg.Dispatch.PublishTimeout,
			Concurrency:    a.cfg.Dispatch.Concurrency,
			BatchLimit:     a.cfg.Scheduler.BatchLimit,
			StaleAfter:     a.cfg.Dispatch.StaleAfter,
		}, a.logger)

	// Analytics domain
	samplesRepo := analyticsdao.NewSamplePostgres(a.pool)
	rollupsRepo := analyticsdao.NewRollupPostgres(a.pool)
	a.analyticsService = analyticsservice.New(samplesRepo, rollupsRepo, a.logger)

	// Content library
	templatesRepo := templatedao.NewTemplatePostgres(a.pool)
	groupsRepo := templatedao.NewHashtagGroupPostgres(a.pool)
	a.templateService = templateservice.New(templatesRepo, groupsRepo)

	return nil
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() {
	a.router.Get("/healthz", a.healthHandler)
	a.router.Get("/readyz", a.readyHandler)

	a.router.Route("/api/v1", func(r chi.Router) {
		httpcontroller.NewPostHandler(a.postService).RegisterRoutes(r)
		httpcontroller.NewAnalyticsHandler(a.analyticsService).RegisterRoutes(r)
		httpcontroller.NewAccountHandler(a.connections).RegisterRoutes(r)
		httpcontroller.NewTemplateHandler(a.templateService).RegisterRoutes(r)
	})
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// readyHandler handles readiness check requests
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.pool.Ping(r.Context()); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// Run starts the application and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	if a.scheduler != nil {
		a.scheduler.Start(ctx)
	}
	if a.cron != nil {
		a.cron.Start()
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address())
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.cron != nil {
		a.cron.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	if a.pool != nil {
		a.pool.Close()
	}

	a.logger.Info("shutdown complete")
	return nil
}
