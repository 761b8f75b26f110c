package scoring

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
	"github.com/lcalzada-xor/vulnmanager/internal/core/ports"
	"github.com/lcalzada-xor/vulnmanager/internal/core/services/cvss"
	"github.com/lcalzada-xor/vulnmanager/internal/telemetry"
)

// Ensure compliance
var _ ports.ScoringService = (*ScoringService)(nil)

// ScoringService wraps the pure CVSS engine with auditing, metrics and tracing.
type ScoringService struct {
	audit  ports.AuditService
	tracer trace.Tracer
	logger *slog.Logger
}

// NewScoringService creates a scoring service. audit may be nil.
func NewScoringService(audit ports.AuditService) *ScoringService {
	return &ScoringService{
		audit:  audit,
		tracer: telemetry.Tracer(),
		logger: slog.Default().With("component", "scoring"),
	}
}

// Build scores caller supplied metric selections.
func (s *ScoringService) Build(ctx context.Context, input map[string]string) (domain.ScoreResult, error) {
	res, _, err := s.build(ctx, input, false)
	return res, err
}

// BuildWithFallback scores metric selections, degrading to the neutral result.
func (s *ScoringService) BuildWithFallback(ctx context.Context, input map[string]string) (domain.ScoreResult, bool) {
	res, fellBack, _ := s.build(ctx, input, true)
	return res, fellBack
}

func (s *ScoringService) build(ctx context.Context, input map[string]string, fallback bool) (domain.ScoreResult, bool, error) {
	ctx, span := s.tracer.Start(ctx, "cvss.build")
	defer span.End()

	metrics, err := domain.MetricsFromInput(input)
	res := cvss.NeutralResult(metrics)
	if err == nil {
		res, err = cvss.CalculateOrNeutral(metrics)
	}
	if err == nil {
		s.succeeded(ctx, span, domain.ActionBuild, res)
		return res, false, nil
	}

	if !fallback {
		s.failed(ctx, span, domain.ActionBuild, nil, err)
		return domain.ScoreResult{}, false, err
	}

	telemetry.FallbacksTotal.WithLabelValues(transportOf(ctx)).Inc()
	s.failedWith(ctx, span, domain.ActionBuild, domain.AuditFallback, &res, err)
	return res, true, err
}

// Calculate scores a complete vector string.
func (s *ScoringService) Calculate(ctx context.Context, vector string) (domain.ScoreResult, error) {
	ctx, span := s.tracer.Start(ctx, "cvss.calculate")
	defer span.End()
	span.SetAttributes(attribute.String("cvss.input", vector))

	metrics, err := cvss.ParseVectorStrict(vector)
	if err != nil {
		s.failed(ctx, span, domain.ActionCalculate, nil, err)
		return domain.ScoreResult{}, err
	}

	res, err := cvss.Calculate(metrics)
	if err != nil {
		s.failed(ctx, span, domain.ActionCalculate, nil, err)
		return domain.ScoreResult{}, err
	}

	s.succeeded(ctx, span, domain.ActionCalculate, res)
	return res, nil
}

// Resolve scores the default metrics overlaid with whatever vector supplies.
func (s *ScoringService) Resolve(ctx context.Context, vector string) domain.ScoreResult {
	ctx, span := s.tracer.Start(ctx, "cvss.resolve")
	defer span.End()

	res, err := cvss.Calculate(cvss.Resolve(vector))
	if err != nil {
		// Resolve always yields a complete vector; reaching this is a bug.
		neutral := cvss.NeutralResult(nil)
		s.failedWith(ctx, span, domain.ActionResolve, domain.AuditFallback, &neutral, err)
		return neutral
	}

	s.succeeded(ctx, span, domain.ActionResolve, res)
	return res
}

// Defaults returns the result for the default vector.
func (s *ScoringService) Defaults() domain.ScoreResult {
	res, _ := cvss.Calculate(cvss.DefaultMetrics())
	return res
}

// Catalog describes every metric and its options.
func (s *ScoringService) Catalog() []domain.MetricDefinition {
	return domain.Catalog()
}

func (s *ScoringService) succeeded(ctx context.Context, span trace.Span, action domain.AuditAction, res domain.ScoreResult) {
	span.SetAttributes(
		attribute.String("cvss.vector", res.Vector),
		attribute.Float64("cvss.score", res.Score),
		attribute.String("cvss.severity", string(res.Severity)),
	)
	telemetry.CalculationsTotal.WithLabelValues(transportOf(ctx), string(res.Severity)).Inc()
	s.record(ctx, action, domain.AuditSuccess, &res, nil)
}

func (s *ScoringService) failed(ctx context.Context, span trace.Span, action domain.AuditAction, res *domain.ScoreResult, err error) {
	s.failedWith(ctx, span, action, domain.AuditFailure, res, err)
}

func (s *ScoringService) failedWith(ctx context.Context, span trace.Span, action domain.AuditAction, status domain.AuditStatus, res *domain.ScoreResult, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	telemetry.CalculationFailures.WithLabelValues(transportOf(ctx), FailureReason(err)).Inc()
	s.logger.DebugContext(ctx, "CVSS computation rejected", "action", action, "error", err)
	s.record(ctx, action, status, res, err)
}

func (s *ScoringService) record(ctx context.Context, action domain.AuditAction, status domain.AuditStatus, res *domain.ScoreResult, cause error) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, action, status, res, cause); err != nil {
		s.logger.WarnContext(ctx, "Failed to record audit entry", "action", action, "error", err)
	}
}

// FailureReason classifies a scoring error for metrics labels.
func FailureReason(err error) string {
	var metricErr *domain.InvalidMetricError
	switch {
	case errors.As(err, &metricErr):
		return metricErr.Reason
	case errors.Is(err, domain.ErrMalformedVector):
		return "malformed_vector"
	default:
		return "internal"
	}
}

func transportOf(ctx context.Context) string {
	if t := domain.RequestInfoFrom(ctx).Transport; t != "" {
		return t
	}
	return "internal"
}
