package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lcalzada-xor/vulnmanager/internal/core/ports"
	"github.com/lcalzada-xor/vulnmanager/internal/core/services/export"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 500
)

// AuditHandler handles audit logging operations
type AuditHandler struct {
	Service ports.AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(service ports.AuditService) *AuditHandler {
	return &AuditHandler{
		Service: service,
	}
}

// HandleGetLogs returns recent audit logs, newest first. ?format=csv
// downloads them instead.
func (h *AuditHandler) HandleGetLogs(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxAuditLimit)
	}

	logs, err := h.Service.GetLogs(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to fetch audit logs", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch logs")
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=cvss_audit.csv")
		if err := export.ExportAuditCSV(w, logs); err != nil {
			slog.ErrorContext(r.Context(), "CSV export error", "error", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"logs": logs,
	})
}
