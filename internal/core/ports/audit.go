package ports

import (
	"context"

	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
)

// AuditService handles the high-level business requirement for action tracking.
type AuditService interface {
	// Log records a scoring operation. result may be nil when nothing was
	// computed; cause carries the error that ended the operation, if any.
	Log(ctx context.Context, action domain.AuditAction, status domain.AuditStatus, result *domain.ScoreResult, cause error) error

	// GetLogs retrieves historical audit records, newest first.
	GetLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
}

// AuditRepository handles the low-level persistence of audit data.
type AuditRepository interface {
	// SaveAuditLog persists a single audit entry.
	SaveAuditLog(ctx context.Context, log domain.AuditLog) error

	// ListAuditLogs retrieves audit entries with a result limit.
	ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
}
