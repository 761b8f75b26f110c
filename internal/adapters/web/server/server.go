package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lcalzada-xor/vulnmanager/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/vulnmanager/internal/adapters/web/middleware"
	livews "github.com/lcalzada-xor/vulnmanager/internal/adapters/web/websocket"
	"github.com/lcalzada-xor/vulnmanager/internal/core/ports"
)

// Options configure the HTTP surface.
type Options struct {
	Addr               string
	CORSOrigins        []string
	RateLimitEnabled   bool
	RateLimitPerMinute int
	TrustedProxies     []string
}

// Services are the backends the routes call. Scoring is required; a nil
// exporter disables its format and nil Advisories drops /api/advisories.
type Services struct {
	Scoring    ports.ScoringService
	Audit      ports.AuditService
	Advisories ports.AdvisoryRepository
	PDF        ports.ScoreCardExporter
	HTML       ports.ScoreCardExporter
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	Options Options

	CVSSHandler     *handlers.CVSSHandler
	ExportHandler   *handlers.ExportHandler
	AuditHandler    *handlers.AuditHandler
	AdvisoryHandler *handlers.AdvisoryHandler
	LiveCalculator  *livews.LiveCalculator

	limiter *middleware.RateLimiter
	proxies *middleware.ProxyTrust
	logger  *slog.Logger

	handlerOnce sync.Once
	handler     http.Handler
	srv         *http.Server
}

// NewServer creates a new web server.
func NewServer(opts Options, svc Services) *Server {
	exportHandler := handlers.NewExportHandler(svc.Scoring, svc.PDF, svc.Audit)
	exportHandler.HTML = svc.HTML

	s := &Server{
		Options:        opts,
		CVSSHandler:    handlers.NewCVSSHandler(svc.Scoring),
		ExportHandler:  exportHandler,
		AuditHandler:   handlers.NewAuditHandler(svc.Audit),
		LiveCalculator: livews.NewLiveCalculator(svc.Scoring, opts.CORSOrigins),
		logger:         slog.Default().With("component", "http"),
	}
	if svc.Advisories != nil {
		s.AdvisoryHandler = handlers.NewAdvisoryHandler(svc.Advisories)
	}
	if proxies, err := middleware.NewProxyTrust(opts.TrustedProxies); err != nil {
		s.logger.Warn("Ignoring trusted proxies, forwarding headers disabled", "error", err)
	} else {
		s.proxies = proxies
	}
	if opts.RateLimitEnabled && opts.RateLimitPerMinute > 0 {
		s.limiter = middleware.NewRateLimiter(opts.RateLimitPerMinute, time.Minute)
	}
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	s.handlerOnce.Do(func() {
		handler := SetupRoutes(s)

		handler = middleware.CORS(s.Options.CORSOrigins)(handler)
		handler = middleware.Logging(s.logger)(handler)
		handler = middleware.RequestID(s.proxies)(handler)
		handler = middleware.Recover(s.logger)(handler)

		// Instrument with OpenTelemetry
		s.handler = otelhttp.NewHandler(handler, "vulnmanager-http")
	})
	return s.handler
}

// Run serves on Options.Addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.Options.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		s.logger.Info("Web server shutting down...")
		s.LiveCalculator.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Web server shutdown error", "error", err)
		}
		if s.limiter != nil {
			s.limiter.Stop()
		}
	}()

	s.logger.Info("Web server listening", "addr", lis.Addr().String())
	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-shutdownDone
	return nil
}
