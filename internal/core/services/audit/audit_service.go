package audit

import (
	"context"
	"log/slog"

	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
	"github.com/lcalzada-xor/vulnmanager/internal/core/ports"
)

// AuditService emits every entry as a structured log line and persists it
// when a repository is configured.
type AuditService struct {
	repo   ports.AuditRepository
	logger *slog.Logger
}

func NewAuditService(repo ports.AuditRepository) *AuditService {
	return &AuditService{
		repo:   repo,
		logger: slog.Default().With("logger", "vulnmanager.audit"),
	}
}

func (s *AuditService) Log(ctx context.Context, action domain.AuditAction, status domain.AuditStatus, result *domain.ScoreResult, cause error) error {
	// Caller identity is attached by the transport
	entry, err := domain.NewAuditLog(action, status, result, cause, domain.RequestInfoFrom(ctx))
	if err != nil {
		return err
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("action", string(entry.Action)),
		slog.String("status", string(entry.Status)),
		slog.String("vector", entry.Vector),
		slog.Float64("score", entry.Score),
		slog.String("severity", string(entry.Severity)),
		slog.String("request_id", entry.RequestID),
		slog.String("transport", entry.Transport),
		slog.String("ip", entry.IPAddress),
		slog.String("user_agent", entry.UserAgent),
		slog.String("details", entry.Details),
	)

	if s.repo == nil {
		return nil
	}
	return s.repo.SaveAuditLog(ctx, *entry)
}

func (s *AuditService) GetLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if s.repo == nil {
		return []domain.AuditLog{}, nil
	}
	return s.repo.ListAuditLogs(ctx, limit)
}
