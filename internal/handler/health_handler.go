package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DatabaseChecker pings the configured backend.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body of the health endpoints.
type HealthResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
}

// HealthHandler reports liveness and database connectivity.
type HealthHandler struct {
	db      DatabaseChecker
	timeout time.Duration
	logger  zerolog.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db DatabaseChecker, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		timeout: 2 * time.Second,
		logger:  logger.With().Str("handler", "health").Logger(),
	}
}

// Health always answers 200; the database field carries the ping result.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	database := "connected"
	if h.db == nil {
		database = "disconnected"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("database ping failed")
			database = "disconnected"
		}
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "OK",
		Message:   "RecipeBook API is running",
		Timestamp: time.Now().UTC(),
		Database:  database,
	})
}
