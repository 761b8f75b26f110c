package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lcalzada-xor/vulnmanager/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/vulnmanager/internal/adapters/web/middleware"
)

func SetupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Metrics)

	r.HandleFunc("/", handlers.HandleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", handlers.HandleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Calculator API
	api := r.PathPrefix("/api/cvss").Subrouter()
	if s.limiter != nil {
		api.Use(middleware.RateLimitMiddleware(s.limiter))
	}

	api.HandleFunc("/calculate", s.CVSSHandler.HandleCalculate).Methods(http.MethodPost)
	api.HandleFunc("/build", s.CVSSHandler.HandleBuild).Methods(http.MethodPost)
	api.HandleFunc("/resolve", s.CVSSHandler.HandleResolve).Methods(http.MethodPost)
	api.HandleFunc("/metrics", s.CVSSHandler.HandleMetrics).Methods(http.MethodGet)
	api.HandleFunc("/defaults", s.CVSSHandler.HandleDefaults).Methods(http.MethodGet)
	api.HandleFunc("/export", s.ExportHandler.HandleExport).Methods(http.MethodPost)

	// Audit Logs
	api.HandleFunc("/audit", s.AuditHandler.HandleGetLogs).Methods(http.MethodGet)

	// Scored advisories
	if s.AdvisoryHandler != nil {
		adv := r.PathPrefix("/api/advisories").Subrouter()
		if s.limiter != nil {
			adv.Use(middleware.RateLimitMiddleware(s.limiter))
		}
		adv.HandleFunc("", s.AdvisoryHandler.HandleList).Methods(http.MethodGet)
		adv.HandleFunc("/stats", s.AdvisoryHandler.HandleStats).Methods(http.MethodGet)
		adv.HandleFunc("/{id}", s.AdvisoryHandler.HandleGet).Methods(http.MethodGet)
	}

	// Live calculator
	r.HandleFunc("/ws/cvss", s.LiveCalculator.HandleWebSocket).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	return r
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
