package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether a dependency can serve requests.
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness, readiness and metrics endpoints.
type HealthHandler struct {
	db          ReadinessChecker
	instanceID  string
	promHandler http.Handler
}

// NewHealthHandler creates the health handler. db may be nil, in which case
// readiness always fails.
func NewHealthHandler(db ReadinessChecker, instanceID string) *HealthHandler {
	return &HealthHandler{
		db:          db,
		instanceID:  instanceID,
		promHandler: promhttp.Handler(),
	}
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Instance  string `json:"instance"`
	Message   string `json:"message,omitempty"`
}

// readyTimeout bounds the database ping of a readiness probe.
const readyTimeout = 2 * time.Second

// HealthLive returns 200 while the process is up.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Instance:  h.instanceID,
	})
}

// HealthReady returns 200 when the database answers a ping, 503 otherwise.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Instance:  h.instanceID,
	}

	status := http.StatusOK
	switch {
	case h.db == nil:
		resp.Status, resp.Message = "fail", "database not initialized"
		status = http.StatusServiceUnavailable
	default:
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			resp.Status, resp.Message = "fail", err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, resp)
}

// GetMetrics serves the Prometheus registry.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}
