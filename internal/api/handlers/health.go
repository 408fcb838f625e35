package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gatherly/server/internal/metrics"
)

// Pinger reports store connectivity. Satisfied by pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	DB Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{DB: db}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health reports liveness plus database connectivity. The endpoint stays 200
// even when the database is down so load balancers can tell "process up,
// store down" apart from "process dead".
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	database := "connected"
	status := "ok"
	if h.DB == nil || h.DB.Ping(ctx) != nil {
		database = "disconnected"
		status = "degraded"
		metrics.DatabaseUp.Set(0)
	} else {
		metrics.DatabaseUp.Set(1)
	}

	writeJSON(w, http.StatusOK, healthResponse{Status: status, Database: database})
}
