package domain

import (
	"errors"
	"time"
)

// AuditAction represents a type-safe action identifier for the audit log.
type AuditAction string

// Scoring audit actions
const (
	ActionCalculate AuditAction = "cvss.calculate"
	ActionBuild     AuditAction = "cvss.build"
	ActionResolve   AuditAction = "cvss.resolve"
	ActionExport    AuditAction = "cvss.export"
)

// AuditStatus is the outcome recorded for an audited action.
type AuditStatus string

const (
	AuditSuccess  AuditStatus = "success"
	AuditFailure  AuditStatus = "failure"
	AuditFallback AuditStatus = "fallback"
)

// Domain Errors
var (
	ErrInvalidAction = errors.New("invalid audit action")
)

// AuditLog is the record of one scoring operation.
// Persistence metadata lives in the storage adapter's own model.
type AuditLog struct {
	ID        uint        `json:"id"`
	Action    AuditAction `json:"action"`
	Status    AuditStatus `json:"status"`
	Vector    string      `json:"vector,omitempty"`
	Score     float64     `json:"score"`
	Severity  Severity    `json:"severity,omitempty"`
	Details   string      `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Transport string      `json:"transport,omitempty"`
	IPAddress string      `json:"ip_address,omitempty"`
	UserAgent string      `json:"user_agent,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewAuditLog is the designated factory for AuditLog entities. A nil result
// records only the request; cause, when set, marks the entry as failed unless
// status says otherwise.
func NewAuditLog(action AuditAction, status AuditStatus, result *ScoreResult, cause error, info RequestInfo) (*AuditLog, error) {
	if !isValidAction(action) {
		return nil, ErrInvalidAction
	}

	entry := &AuditLog{
		Action:    action,
		Status:    status,
		RequestID: info.RequestID,
		Transport: info.Transport,
		IPAddress: info.ClientIP,
		UserAgent: info.UserAgent,
		Timestamp: time.Now().UTC(),
	}
	if result != nil {
		entry.Vector = result.Vector
		entry.Score = result.Score
		entry.Severity = result.Severity
	}
	if cause != nil {
		entry.Details = cause.Error()
		if entry.Status == AuditSuccess {
			entry.Status = AuditFailure
		}
	}
	return entry, nil
}

func isValidAction(action AuditAction) bool {
	switch action {
	case ActionCalculate, ActionBuild, ActionResolve, ActionExport:
		return true
	}
	return false
}
