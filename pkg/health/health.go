package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/saaga0h/solarium/pkg/mqtt"
	"github.com/saaga0h/solarium/pkg/postgres"
	"github.com/saaga0h/solarium/pkg/redis"
)

// StateFunc reports the appliance's own state for the detailed check
type StateFunc func() (synced bool, simulation bool)

// Checker provides health check functionality for the appliance
type Checker struct {
	mqtt   mqtt.Client
	redis  redis.Client
	db     postgres.Client
	state  StateFunc
	logger *slog.Logger
}

// NewChecker creates a new health checker with the given dependencies
func NewChecker(mqttClient mqtt.Client, redisClient redis.Client, state StateFunc, logger *slog.Logger) *Checker {
	return &Checker{
		mqtt:   mqttClient,
		redis:  redisClient,
		state:  state,
		logger: logger,
	}
}

// WithDatabase adds the journal database to the detailed check. The journal
// is optional, so losing it is reported without failing the check.
func (h *Checker) WithDatabase(db postgres.Client) *Checker {
	h.db = db
	return h
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp string    `json:"timestamp"`
	Services  *Services `json:"services,omitempty"`
	Clock     string    `json:"clock,omitempty"`
	Sun       string    `json:"sun,omitempty"`
}

// Services represents the status of external dependencies
type Services struct {
	Redis   string `json:"redis"`
	MQTT    string `json:"mqtt"`
	Journal string `json:"journal,omitempty"`
}

// HandlerFunc returns 200 while the process is alive, without checking dependencies
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.write(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
}

// DetailedHandlerFunc returns a handler that reports dependencies and clock state
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := &Services{
			Redis: "disconnected",
			MQTT:  "disconnected",
		}

		if h.mqtt != nil && h.mqtt.IsConnected() {
			services.MQTT = "connected"
		}
		// Redis is not pinged here to keep the check fast
		if h.redis != nil {
			services.Redis = "connected"
		}
		if h.db != nil {
			services.Journal = h.journal(r.Context())
		}

		response := HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Services:  services,
		}
		statusCode := http.StatusOK

		if h.state != nil {
			synced, simulation := h.state()
			response.Clock = "unsynced"
			if synced {
				response.Clock = "synced"
			}
			response.Sun = "manual"
			if simulation {
				response.Sun = "simulated"
			}
		}

		// A lost broker only degrades telemetry, the engines keep running
		if services.MQTT == "disconnected" {
			response.Status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		h.write(w, statusCode, response)
	}
}

func (h *Checker) journal(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status, err := h.db.HealthCheck(ctx)
	if err != nil {
		h.logger.Warn("Journal health check failed", "error", err)
		return "disconnected"
	}
	if !status.Connected {
		h.logger.Debug("Journal unavailable", "database", status.Database, "reason", status.Error)
		return "disconnected"
	}
	return "connected"
}

func (h *Checker) write(w http.ResponseWriter, code int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode health response", "error", err)
	}
}
