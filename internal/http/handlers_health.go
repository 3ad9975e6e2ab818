package http

import (
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether templates are loaded and the backend is configured.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	code := http.StatusOK
	checks := map[string]string{}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.cfg.Configured {
		checks["backend"] = fmt.Sprintf("ok (%T)", s.backend)
	} else {
		checks["backend"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	rl := s.limiter.GetMetrics()
	writeJSON(w, code, map[string]any{
		"status":            status,
		"checks":            checks,
		"rate_limit_hits":   rl.TotalHits,
		"requests":          s.tracer.GetMetrics().TotalRequests,
		"rate_limit_client": rl.ClientCount,
		"filter_changes":    s.filterChanges.Load(),
	})
}
