package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/npc-responder/internal/storage"
)

const serviceName = "npc-responder"

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components"`
}

// SpeakerStatus reports whether a responder is mid-line.
type SpeakerStatus interface {
	IsSpeaking() bool
}

type HealthHandler struct {
	storage storage.Storage
	speaker SpeakerStatus
	logger  *slog.Logger
}

// NewHealthHandler reports on storage reachability. speaker may be nil when
// no responder is running in-process.
func NewHealthHandler(store storage.Storage, speaker SpeakerStatus, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		storage: store,
		speaker: speaker,
		logger:  logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]string)
	overallStatus := "healthy"

	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Warn("Storage health check failed", "error", err)
		components["storage"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["storage"] = "healthy"
	}

	// Speaking is informational and never degrades the status.
	if h.speaker != nil {
		if h.speaker.IsSpeaking() {
			components["responder"] = "speaking"
		} else {
			components["responder"] = "idle"
		}
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    serviceName,
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding health response",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
	}
}
