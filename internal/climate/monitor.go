package climate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saaga0h/solarium/internal/clock"
	"github.com/saaga0h/solarium/pkg/metrics"
	"github.com/saaga0h/solarium/pkg/mqtt"
	"github.com/saaga0h/solarium/pkg/redis"
)

// Snapshot is a read-only copy of the climate state
type Snapshot struct {
	Minute  Measurement `json:"minute"`
	History History     `json:"history"`
	// Updated is set once the first 20-minute slot has been filled
	Updated bool      `json:"updated"`
	At      time.Time `json:"at"`
}

// Monitor collects raw readings from MQTT, runs the accumulator on a one
// second tick and shares every completed slot over Redis and MQTT.
type Monitor struct {
	mqtt    mqtt.Client
	redis   redis.Client
	metrics *metrics.Metrics
	service string
	loc     *time.Location
	logger  *slog.Logger

	readingMu sync.Mutex
	reading   Reading
	haveRead  bool

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewMonitor creates a climate monitor
func NewMonitor(mqttClient mqtt.Client, redisClient redis.Client, m *metrics.Metrics, service string, loc *time.Location, logger *slog.Logger) *Monitor {
	return &Monitor{
		mqtt:    mqttClient,
		redis:   redisClient,
		metrics: m,
		service: service,
		loc:     loc,
		logger:  logger,
	}
}

// Subscribe starts receiving raw readings
func (m *Monitor) Subscribe() error {
	if err := m.mqtt.Subscribe(mqtt.TopicRawClimate, 0, m.handleReading); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", mqtt.TopicRawClimate, err)
	}
	return nil
}

func (m *Monitor) handleReading(msg mqtt.Message) {
	var r Reading
	if err := json.Unmarshal(msg.Payload(), &r); err != nil {
		m.logger.Warn("Invalid climate reading", "topic", msg.Topic(), "error", err)
		return
	}

	m.readingMu.Lock()
	m.reading = r
	m.haveRead = true
	m.readingMu.Unlock()

	m.logger.Debug("Climate reading received",
		"sensor", mqtt.LastSegment(msg.Topic()),
		"pressure", r.Pressure,
		"temperature", r.Temperature,
		"humidity", r.Humidity)
}

// Read returns the latest raw reading
func (m *Monitor) Read() Reading {
	m.readingMu.Lock()
	defer m.readingMu.Unlock()
	if !m.haveRead {
		m.logger.Debug("No climate reading yet, sampling zeros")
	}
	return m.reading
}

// Snapshot returns the current climate state
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// Run ticks the accumulator every second until ctx is cancelled. Ticks are
// skipped while the clock is not synchronised.
func (m *Monitor) Run(ctx context.Context, clk clock.Clock, yearFloor int) {
	m.logger.Info("Climate monitor started")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var acc *Accumulator
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Climate monitor stopped")
			return
		case <-ticker.C:
		}

		now := clk.Now()
		if !clock.Synced(now, yearFloor) {
			continue
		}
		if acc == nil {
			acc = NewAccumulator(now, m.loc)
		}
		m.apply(ctx, now, acc.Tick(now, m.Read), acc)
	}
}

func (m *Monitor) apply(ctx context.Context, now time.Time, u Update, acc *Accumulator) {
	if u.Minute == nil {
		return
	}

	m.metrics.Climate(float64(u.Minute.Pressure), float64(u.Minute.Temperature), float64(u.Minute.Humidity))

	m.mu.Lock()
	m.snapshot.Minute = *u.Minute
	m.snapshot.At = now
	if u.Slot != nil {
		m.snapshot.History = acc.History()
		m.snapshot.Updated = true
	}
	snap := m.snapshot
	m.mu.Unlock()

	if u.Slot == nil {
		return
	}

	m.logger.Info("Climate slot completed",
		"pressure", u.Slot.Pressure,
		"temperature", u.Slot.Temperature,
		"humidity", u.Slot.Humidity)

	if err := m.store(ctx, *u.Slot); err != nil {
		m.logger.Warn("Failed to store climate slot", "error", err)
	}
	if err := m.mqtt.PublishJSON(mqtt.TopicClimate, 0, true, snap); err != nil {
		m.logger.Warn("Failed to publish climate", "error", err)
	}
}

func (m *Monitor) store(ctx context.Context, slot Measurement) error {
	payload, err := json.Marshal(slot)
	if err != nil {
		return fmt.Errorf("failed to marshal slot: %w", err)
	}
	key := redis.ClimateHistoryKey(m.service)
	if err := m.redis.PushCapped(ctx, key, HistorySlots, payload); err != nil {
		return fmt.Errorf("failed to push %s: %w", key, err)
	}
	return nil
}

// LoadHistory reads the stored slots back, oldest first
func LoadHistory(ctx context.Context, client redis.Client, service string) ([]Measurement, error) {
	key := redis.ClimateHistoryKey(service)
	raw, err := client.LRange(ctx, key, 0, HistorySlots-1)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	out := make([]Measurement, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var m Measurement
		if err := json.Unmarshal([]byte(raw[i]), &m); err != nil {
			return nil, fmt.Errorf("invalid slot in %s: %w", key, err)
		}
		out = append(out, m)
	}
	return out, nil
}
