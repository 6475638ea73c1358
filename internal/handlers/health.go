package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse represents the liveness probe payload
// swagger:model HealthResponse
type HealthResponse struct {
	// Service status
	// default: HEALTHY
	Status string `json:"status"`

	// Current server time
	CurrentTime time.Time `json:"current_time"`
}

// NewHealthHandler returns an HTTP handler for the liveness probe.
// @Summary Health check
// @Description Returns service status and current server time
// @Tags health
// @Produce json
// @Success 200 {object} handlers.HealthResponse "Service is healthy"
// @Router / [get]
func NewHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:      "HEALTHY",
			CurrentTime: time.Now().UTC(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}
}
