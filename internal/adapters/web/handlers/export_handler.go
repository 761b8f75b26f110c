package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
	"github.com/lcalzada-xor/vulnmanager/internal/core/ports"
	"github.com/lcalzada-xor/vulnmanager/internal/core/services/export"
)

// ExportHandler handles score downloads
type ExportHandler struct {
	Scoring  ports.ScoringService
	Exporter ports.ScoreCardExporter
	HTML     ports.ScoreCardExporter
	Audit    ports.AuditService
	Now      func() time.Time
}

// NewExportHandler creates a new ExportHandler. exporter and audit may be nil.
func NewExportHandler(scoring ports.ScoringService, exporter ports.ScoreCardExporter, audit ports.AuditService) *ExportHandler {
	return &ExportHandler{
		Scoring:  scoring,
		Exporter: exporter,
		Audit:    audit,
		Now:      time.Now,
	}
}

// HandleExport rescores {"vector": ...} and returns it as a download.
// ?format=pdf or ?format=html selects a printable score card; JSON is the default.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	var req vectorRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Vector == nil {
		writeError(w, http.StatusBadRequest, DetailInvalidVector)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "pdf" && format != "html" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported export format %q", format))
		return
	}

	res, err := h.Scoring.Calculate(r.Context(), *req.Vector)
	if err != nil {
		writeError(w, http.StatusBadRequest, DetailInvalidVector)
		return
	}

	now := h.Now()
	var body bytes.Buffer
	contentType := "application/json"

	switch format {
	case "pdf":
		if h.Exporter == nil {
			writeError(w, http.StatusNotImplemented, "PDF export is not available")
			return
		}
		pdf, err := h.Exporter.ExportScoreCard(res)
		if err != nil {
			h.audit(r, domain.AuditFailure, &res, err)
			slog.ErrorContext(r.Context(), "PDF export error", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to generate PDF")
			return
		}
		body.Write(pdf)
		contentType = "application/pdf"
	case "html":
		if h.HTML == nil {
			writeError(w, http.StatusNotImplemented, "HTML export is not available")
			return
		}
		page, err := h.HTML.ExportScoreCard(res)
		if err != nil {
			h.audit(r, domain.AuditFailure, &res, err)
			slog.ErrorContext(r.Context(), "HTML export error", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to generate score card")
			return
		}
		body.Write(page)
		contentType = "text/html; charset=utf-8"
	default:
		if err := export.ExportJSON(&body, export.NewDocument(res, now)); err != nil {
			h.audit(r, domain.AuditFailure, &res, err)
			slog.ErrorContext(r.Context(), "JSON export error", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to export result")
			return
		}
	}

	h.audit(r, domain.AuditSuccess, &res, nil)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.FileName(res, now, format)))
	w.WriteHeader(http.StatusOK)
	w.Write(body.Bytes())
}

func (h *ExportHandler) audit(r *http.Request, status domain.AuditStatus, res *domain.ScoreResult, cause error) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Log(r.Context(), domain.ActionExport, status, res, cause); err != nil {
		slog.WarnContext(r.Context(), "Failed to record audit entry", "action", domain.ActionExport, "error", err)
	}
}
