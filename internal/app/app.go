package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lcalzada-xor/vulnmanager/internal/adapters/advisory"
	grpcadapter "github.com/lcalzada-xor/vulnmanager/internal/adapters/grpc"
	"github.com/lcalzada-xor/vulnmanager/internal/adapters/reporting"
	"github.com/lcalzada-xor/vulnmanager/internal/adapters/storage"
	webserver "github.com/lcalzada-xor/vulnmanager/internal/adapters/web/server"
	"github.com/lcalzada-xor/vulnmanager/internal/config"
	"github.com/lcalzada-xor/vulnmanager/internal/core/services/audit"
	"github.com/lcalzada-xor/vulnmanager/internal/core/services/scoring"
	"github.com/lcalzada-xor/vulnmanager/internal/telemetry"
)

// Application holds the core components of the application.
// It acts as the Facade for the entire system, orchestrating services and infrastructure.
type Application struct {
	Config         *config.Config
	AuditStore     *storage.SQLiteAdapter
	Advisories     *advisory.SQLiteRepository
	AuditService   *audit.AuditService
	ScoringService *scoring.ScoringService
	WebServer      *webserver.Server
	GrpcServer     *grpcadapter.Server
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config: cfg,
	}

	if err := app.bootstrap(); err != nil {
		app.Close()
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}

	return app, nil
}

// bootstrap orchestrates the initialization sequence.
func (app *Application) bootstrap() error {
	// 1. Foundation & Infrastructure
	telemetry.InitMetrics()

	if err := app.initStorage(); err != nil {
		return err
	}

	// 2. Domain Services
	app.AuditService = audit.NewAuditService(app.AuditStore)
	app.ScoringService = scoring.NewScoringService(app.AuditService)

	// 3. Servers
	app.initServers()
	return nil
}

func (app *Application) initStorage() error {
	if err := os.MkdirAll(filepath.Dir(app.Config.DBPath), 0755); err != nil {
		return fmt.Errorf("failed to create DB directory: %w", err)
	}

	store, err := storage.NewSQLiteAdapter(app.Config.DBPath, storage.Options{Tracing: app.Config.TracingEnabled})
	if err != nil {
		return fmt.Errorf("failed to init audit storage: %w", err)
	}
	app.AuditStore = store

	advisories, err := advisory.NewSQLiteRepository(app.Config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to init advisory storage: %w", err)
	}
	app.Advisories = advisories

	if count, err := advisories.GetTotalCount(context.Background()); err == nil {
		slog.Info("Advisory store ready", "path", app.Config.DBPath, "advisories", count)
	}
	return nil
}

func (app *Application) initServers() {
	app.WebServer = webserver.NewServer(webserver.Options{
		Addr:               app.Config.Addr,
		CORSOrigins:        app.Config.CORSOrigins,
		RateLimitEnabled:   app.Config.RateLimitEnabled,
		RateLimitPerMinute: app.Config.RateLimitPerMinute,
		TrustedProxies:     app.Config.TrustedProxies,
	}, webserver.Services{
		Scoring:    app.ScoringService,
		Audit:      app.AuditService,
		Advisories: app.Advisories,
		PDF:        reporting.NewPDFExporter(),
		HTML:       reporting.NewHTMLExporter(),
	})

	app.GrpcServer = grpcadapter.NewServer(app.ScoringService)
}

// Run starts the application components and manages their execution lifecycle.
func (app *Application) Run(ctx context.Context) error {
	slog.Info("Starting vulnmanager components...", "environment", app.Config.Environment)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errChan := make(chan error, 2)
	done := make(chan struct{}, 2)

	go func() {
		defer func() { done <- struct{}{} }()
		if err := app.WebServer.Run(ctx); err != nil {
			errChan <- fmt.Errorf("web server error: %w", err)
		}
	}()

	go func() {
		defer func() { done <- struct{}{} }()
		if err := app.GrpcServer.Run(ctx, app.Config.GRPCPort); err != nil {
			errChan <- fmt.Errorf("grpc server error: %w", err)
		}
	}()

	slog.Info("vulnmanager ready. Press Ctrl+C to terminate.", "http", app.Config.Addr, "grpc_port", app.Config.GRPCPort)

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("Termination signal received")
	case runErr = <-errChan:
		slog.Error("Server failed, shutting down", "error", runErr)
	}

	// Both servers stop on cancellation; wait so shutdown completes before storage closes.
	cancel()
	<-done
	<-done

	return errors.Join(runErr, app.Close())
}

// Close releases storage handles. Safe to call on a partially bootstrapped app.
func (app *Application) Close() error {
	slog.Info("Cleaning up resources...")

	var errs []error
	if app.Advisories != nil {
		errs = append(errs, app.Advisories.Close())
		app.Advisories = nil
	}
	if app.AuditStore != nil {
		errs = append(errs, app.AuditStore.Close())
		app.AuditStore = nil
	}
	return errors.Join(errs...)
}
