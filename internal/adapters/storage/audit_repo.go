package storage

import (
	"context"

	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
	"github.com/lcalzada-xor/vulnmanager/internal/core/ports"
)

// Ensure compliance
var _ ports.AuditRepository = (*SQLiteAdapter)(nil)

func (a *SQLiteAdapter) SaveAuditLog(ctx context.Context, log domain.AuditLog) error {
	model := toAuditModel(log)
	return a.db.WithContext(ctx).Create(&model).Error
}

func (a *SQLiteAdapter) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	var models []AuditLogModel
	if err := a.db.WithContext(ctx).Order("timestamp desc, id desc").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}

	logs := make([]domain.AuditLog, 0, len(models))
	for _, m := range models {
		logs = append(logs, toAuditDomain(m))
	}
	return logs, nil
}
