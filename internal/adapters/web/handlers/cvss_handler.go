package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
	"github.com/lcalzada-xor/vulnmanager/internal/core/ports"
)

// Error details returned by the scoring endpoints.
const (
	DetailInvalidVector  = "Invalid CVSS vector string. Format: CVSS:3.1/AV:X/AC:X/PR:X/UI:X/S:X/C:X/I:X/A:X"
	DetailInvalidMetrics = "Invalid CVSS metrics. Check that all values are valid."
	DetailInvalidBody    = "Invalid request body"
)

// FallbackHeader is set to "true" when a neutral result replaced a failed build.
const FallbackHeader = "X-CVSS-Fallback"

// CVSSHandler serves the calculator endpoints
type CVSSHandler struct {
	Service ports.ScoringService
}

// NewCVSSHandler creates a new CVSSHandler
func NewCVSSHandler(service ports.ScoringService) *CVSSHandler {
	return &CVSSHandler{
		Service: service,
	}
}

// HandleCalculate scores a complete vector string.
func (h *CVSSHandler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	var req vectorRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Vector == nil {
		writeError(w, http.StatusBadRequest, DetailInvalidVector)
		return
	}

	res, err := h.Service.Calculate(r.Context(), *req.Vector)
	if err != nil {
		slog.DebugContext(r.Context(), "Rejected CVSS vector", "vector", *req.Vector, "error", err)
		writeError(w, http.StatusBadRequest, DetailInvalidVector)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// HandleBuild scores eight metric selections, e.g. {"av":"N","ac":"L",...}.
// With ?fallback=true invalid selections yield the neutral result instead of 400.
func (h *CVSSHandler) HandleBuild(w http.ResponseWriter, r *http.Request) {
	var input map[string]string
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, DetailInvalidBody)
		return
	}

	fallback, _ := strconv.ParseBool(r.URL.Query().Get("fallback"))
	if fallback {
		res, fellBack := h.Service.BuildWithFallback(r.Context(), input)
		w.Header().Set(FallbackHeader, strconv.FormatBool(fellBack))
		writeJSON(w, http.StatusOK, res)
		return
	}

	res, err := h.Service.Build(r.Context(), input)
	if err != nil {
		slog.DebugContext(r.Context(), "Rejected CVSS metrics", "error", err)
		writeError(w, http.StatusBadRequest, DetailInvalidMetrics)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// HandleResolve overlays a possibly partial vector on the defaults. It never
// fails on vector content.
func (h *CVSSHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	var req vectorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, DetailInvalidBody)
		return
	}

	vector := ""
	if req.Vector != nil {
		vector = *req.Vector
	}
	writeJSON(w, http.StatusOK, h.Service.Resolve(r.Context(), vector))
}

// metricInfo is one entry of the metrics catalogue response.
type metricInfo struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Options     []domain.MetricOption `json:"options"`
}

// HandleMetrics returns every metric keyed by its abbreviation.
func (h *CVSSHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	catalog := h.Service.Catalog()
	out := make(map[domain.Metric]metricInfo, len(catalog))
	for _, def := range catalog {
		out[def.Key] = metricInfo{
			Name:        def.Name,
			Description: def.Description,
			Options:     def.Options,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleDefaults returns the score of the default vector.
func (h *CVSSHandler) HandleDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Defaults())
}
