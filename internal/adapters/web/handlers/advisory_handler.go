package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
	"github.com/lcalzada-xor/vulnmanager/internal/core/ports"
)

// AdvisoryHandler serves advisories scored by the loader.
type AdvisoryHandler struct {
	Repo ports.AdvisoryRepository
}

func NewAdvisoryHandler(repo ports.AdvisoryRepository) *AdvisoryHandler {
	return &AdvisoryHandler{Repo: repo}
}

// HandleList returns advisories of one ?severity=, highest score first.
func (h *AdvisoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	severity, ok := parseSeverity(r.URL.Query().Get("severity"))
	if !ok {
		writeError(w, http.StatusBadRequest, "severity must be one of None, Low, Medium, High, Critical")
		return
	}

	advisories, err := h.Repo.ListBySeverity(r.Context(), severity)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list advisories", "severity", severity, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch advisories")
		return
	}
	total, err := h.Repo.GetTotalCount(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to count advisories", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch advisories")
		return
	}
	if advisories == nil {
		advisories = []domain.Advisory{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"advisories": advisories,
		"total":      total,
	})
}

// HandleGet returns one advisory by ID.
func (h *AdvisoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	adv, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to fetch advisory", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch advisory")
		return
	}
	if adv == nil {
		writeError(w, http.StatusNotFound, "Advisory not found")
		return
	}
	writeJSON(w, http.StatusOK, adv)
}

// HandleStats returns the per-severity breakdown of the store.
func (h *AdvisoryHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Repo.Stats(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to compute advisory stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch advisory stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// parseSeverity matches a rating case-insensitively. Empty means Critical.
func parseSeverity(s string) (domain.Severity, bool) {
	if s == "" {
		return domain.SeverityCritical, true
	}
	for _, sev := range domain.Severities {
		if strings.EqualFold(s, string(sev)) {
			return sev, true
		}
	}
	return "", false
}
