package ports

import (
	"context"

	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
)

// AdvisoryRepository defines the persistence operations for scored advisories.
type AdvisoryRepository interface {
	UpsertAdvisory(ctx context.Context, advisory domain.Advisory) error
	GetByID(ctx context.Context, id string) (*domain.Advisory, error)

	// ListBySeverity returns advisories of one rating, highest score first.
	ListBySeverity(ctx context.Context, severity domain.Severity) ([]domain.Advisory, error)

	UpdateImportStatus(ctx context.Context, status domain.ImportStatus) error
	GetTotalCount(ctx context.Context) (int, error)

	// Stats aggregates counts and scores per severity.
	Stats(ctx context.Context) (domain.AdvisoryStats, error)
	Close() error
}
