package ports

import (
	"context"

	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
)

// ScoringService is what the transports (HTTP, WebSocket, gRPC) call to score
// CVSS vectors. Implementations audit and meter each call.
type ScoringService interface {
	// Build scores eight caller supplied metric codes. Keys and codes are
	// case-insensitive. Invalid input fails with domain.ErrInvalidMetric.
	Build(ctx context.Context, input map[string]string) (domain.ScoreResult, error)

	// BuildWithFallback behaves like Build but degrades to the neutral result.
	// The returned bool reports whether the fallback was used.
	BuildWithFallback(ctx context.Context, input map[string]string) (domain.ScoreResult, bool)

	// Calculate scores a complete vector string.
	Calculate(ctx context.Context, vector string) (domain.ScoreResult, error)

	// Resolve overlays the recognised parts of vector on the default metrics.
	Resolve(ctx context.Context, vector string) domain.ScoreResult

	// Defaults returns the score of the default vector.
	Defaults() domain.ScoreResult

	// Catalog describes every metric and its options.
	Catalog() []domain.MetricDefinition
}

// ScoreCardExporter renders a score result as a printable document.
type ScoreCardExporter interface {
	ExportScoreCard(result domain.ScoreResult) ([]byte, error)
}
