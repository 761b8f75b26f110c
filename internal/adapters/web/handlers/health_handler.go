package handlers

import (
	"net/http"

	"github.com/lcalzada-xor/vulnmanager/internal/telemetry"
)

// HandleRoot describes the service.
func HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "VulnManager API",
		"version": telemetry.ServiceVersion,
		"docs":    "/api/cvss/metrics",
		"health":  "/health",
	})
}

// HandleHealth is the liveness probe.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
