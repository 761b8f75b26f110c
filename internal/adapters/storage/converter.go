package storage

import (
	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
)

// toAuditModel converts a domain entity to its database model.
func toAuditModel(l domain.AuditLog) AuditLogModel {
	return AuditLogModel{
		ID:        l.ID,
		Action:    string(l.Action),
		Status:    string(l.Status),
		Vector:    l.Vector,
		Score:     l.Score,
		Severity:  string(l.Severity),
		Details:   l.Details,
		RequestID: l.RequestID,
		Transport: l.Transport,
		IPAddress: l.IPAddress,
		UserAgent: l.UserAgent,
		Timestamp: l.Timestamp,
	}
}

// toAuditDomain converts a database model to a domain entity.
func toAuditDomain(m AuditLogModel) domain.AuditLog {
	return domain.AuditLog{
		ID:        m.ID,
		Action:    domain.AuditAction(m.Action),
		Status:    domain.AuditStatus(m.Status),
		Vector:    m.Vector,
		Score:     m.Score,
		Severity:  domain.Severity(m.Severity),
		Details:   m.Details,
		RequestID: m.RequestID,
		Transport: m.Transport,
		IPAddress: m.IPAddress,
		UserAgent: m.UserAgent,
		Timestamp: m.Timestamp,
	}
}
