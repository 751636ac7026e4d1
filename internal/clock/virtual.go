package clock

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saaga0h/solarium/pkg/mqtt"
)

// Virtual runs from a configured start instant at a multiple of real time.
// Outside test mode it is the system clock.
type Virtual struct {
	mu           sync.RWMutex
	testMode     bool
	virtualStart time.Time
	realStart    time.Time
	timeScale    int
	wall         func() time.Time
	logger       *slog.Logger
}

// NewVirtual creates a virtual clock in real-time mode
func NewVirtual(logger *slog.Logger) *Virtual {
	return newVirtual(time.Now, logger)
}

func newVirtual(wall func() time.Time, logger *slog.Logger) *Virtual {
	return &Virtual{
		realStart: wall(),
		timeScale: 1,
		wall:      wall,
		logger:    logger,
	}
}

// TimeConfig is the payload accepted on the time configuration topic
type TimeConfig struct {
	VirtualStart string `json:"virtual_start"`
	TimeScale    int    `json:"time_scale"`
	TestMode     bool   `json:"test_mode"`
}

// ConfigureFromMQTT subscribes to test mode configuration
func (v *Virtual) ConfigureFromMQTT(client mqtt.Client) error {
	handler := func(msg mqtt.Message) {
		if err := v.apply(msg.Payload()); err != nil {
			v.logger.Error("Failed to apply time config", "error", err)
		}
	}
	return client.Subscribe(mqtt.TopicTimeConfig, 1, handler)
}

func (v *Virtual) apply(payload []byte) error {
	var cfg TimeConfig
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return fmt.Errorf("failed to parse time config: %w", err)
	}

	if !cfg.TestMode {
		v.Reset()
		return nil
	}

	start, err := time.Parse(time.RFC3339, cfg.VirtualStart)
	if err != nil {
		return fmt.Errorf("invalid virtual_start: %w", err)
	}
	v.Set(start, cfg.TimeScale)
	return nil
}

// Set starts virtual time at start, advancing scale times faster than real
// time. A scale below one runs at real speed.
func (v *Virtual) Set(start time.Time, scale int) {
	if scale < 1 {
		scale = 1
	}

	v.mu.Lock()
	v.testMode = true
	v.virtualStart = start
	v.realStart = v.wall()
	v.timeScale = scale
	v.mu.Unlock()

	v.logger.Info("Virtual time configured",
		"virtual_start", start.Format(time.RFC3339),
		"time_scale", scale)
}

// Reset returns to real time
func (v *Virtual) Reset() {
	v.mu.Lock()
	v.testMode = false
	v.mu.Unlock()

	v.logger.Info("Virtual time disabled")
}

// Now returns the current time (real or virtual)
func (v *Virtual) Now() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if !v.testMode {
		return v.wall()
	}

	elapsed := v.wall().Sub(v.realStart) * time.Duration(v.timeScale)
	return v.virtualStart.Add(elapsed)
}

// IsTestMode returns whether virtual time is active
func (v *Virtual) IsTestMode() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.testMode
}
