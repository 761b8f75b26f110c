package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lcalzada-xor/vulnmanager/internal/app"
	"github.com/lcalzada-xor/vulnmanager/internal/config"
	"github.com/lcalzada-xor/vulnmanager/internal/telemetry"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit status so deferred cleanup completes first.
func run(args []string) int {
	// load config
	cfg, err := config.Load(args)
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		return 2
	}

	// Setup Structured Logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(logger)

	// Initialize Tracing
	if cfg.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracer(os.Stdout)
		if err != nil {
			slog.Error("Failed to init tracer", "error", err)
		} else {
			defer func() {
				if err := shutdownTracer(context.Background()); err != nil {
					slog.Error("Failed to shutdown tracer", "error", err)
				}
			}()
		}
	}

	// Initialize Application
	application, err := app.New(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		return 1
	}

	// Root Context with cancellation on Interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("vulnmanager starting...", "version", telemetry.ServiceVersion)

	// Run Application
	if err := application.Run(ctx); err != nil {
		slog.Error("Application error", "error", err)
		return 1
	}
	return 0
}
