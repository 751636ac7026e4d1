package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/saaga0h/solarium/internal/actuator"
	"github.com/saaga0h/solarium/internal/climate"
	"github.com/saaga0h/solarium/internal/clock"
	"github.com/saaga0h/solarium/internal/scheduler"
	"github.com/saaga0h/solarium/internal/schedule"
	"github.com/saaga0h/solarium/internal/solar"
	"github.com/saaga0h/solarium/pkg/metrics"
	"github.com/saaga0h/solarium/pkg/mqtt"
	"github.com/saaga0h/solarium/pkg/redis"
)

// Simulation is the day simulation switch
type Simulation interface {
	Enable() bool
	Disable() bool
	Enabled() bool
	Status() scheduler.Status
}

// ClimateSource supplies the climate snapshot
type ClimateSource interface {
	Snapshot() climate.Snapshot
}

// Options configure a Controller
type Options struct {
	ServiceName string
	Latitude    float64
	Longitude   float64
	Location    *time.Location
	// StatusTTL expires the Redis status hash when the appliance stops
	// reporting
	StatusTTL time.Duration
}

// Controller is the façade other tasks and the outside world talk to
type Controller struct {
	bank    *Bank
	sim     Simulation
	climate ClimateSource
	clock   clock.Clock
	mqtt    mqtt.Client
	redis   redis.Client
	metrics *metrics.Metrics
	opts    Options
	logger  *slog.Logger
}

// NewController creates a controller
func NewController(bank *Bank, sim Simulation, climateSource ClimateSource, clk clock.Clock, mqttClient mqtt.Client, redisClient redis.Client, m *metrics.Metrics, opts Options, logger *slog.Logger) *Controller {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Controller{
		bank:    bank,
		sim:     sim,
		climate: climateSource,
		clock:   clk,
		mqtt:    mqttClient,
		redis:   redisClient,
		metrics: m,
		opts:    opts,
		logger:  logger,
	}
}

// Enqueue queues cmd without blocking; false means it was dropped
func (c *Controller) Enqueue(cmd actuator.Command) bool {
	return c.bank.Enqueue(cmd)
}

// CurrentValue returns the present output of kind
func (c *Controller) CurrentValue(ctx context.Context, kind actuator.Kind) (actuator.Value, error) {
	return c.bank.CurrentValue(ctx, kind)
}

// IsDaySimulationEnabled reports whether the schedule drives the actuators
func (c *Controller) IsDaySimulationEnabled() bool {
	return c.sim.Enabled()
}

// SetDaySimulation switches the day simulation
func (c *Controller) SetDaySimulation(enabled bool) bool {
	if enabled {
		return c.sim.Enable()
	}
	return c.sim.Disable()
}

// Manual hands an actuator over to the operator: the day simulation stops
// first so the next rebuild does not overwrite cmd. A rebuild already
// settling when the disable lands drops its commands. When the disable
// itself cannot be queued cmd is not sent either.
func (c *Controller) Manual(cmd actuator.Command) bool {
	if !c.sim.Disable() {
		c.logger.Warn("Manual command refused, day simulation could not be disabled",
			"actuator", cmd.Kind.String())
		return false
	}
	return c.bank.Enqueue(cmd)
}

// HealthState reports clock synchronisation and the simulation switch
func (c *Controller) HealthState() (synced bool, simulation bool) {
	st := c.sim.Status()
	return st.State != scheduler.StateUnsynced, st.Enabled
}

// Subscribe starts accepting commands on solarium/command/+
func (c *Controller) Subscribe() error {
	if err := c.mqtt.Subscribe(mqtt.TopicCommands, 1, c.handleCommand); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", mqtt.TopicCommands, err)
	}
	return nil
}

func (c *Controller) handleCommand(msg mqtt.Message) {
	if err := c.Handle(mqtt.LastSegment(msg.Topic()), msg.Payload()); err != nil {
		c.logger.Warn("Command rejected", "topic", msg.Topic(), "error", err)
	}
}

// ErrDropped is returned when a command's engine queue is full
var ErrDropped = errors.New("command dropped, queue full")

// Handle decodes and applies the payload of a command for target
func (c *Controller) Handle(target string, payload []byte) error {
	req, err := Decode(target, payload)
	if err != nil {
		return err
	}

	if req.Simulation != nil {
		c.logger.Info("Day simulation requested", "enabled", *req.Simulation)
		if !c.SetDaySimulation(*req.Simulation) {
			return ErrDropped
		}
		return nil
	}

	cmd := *req.Command
	if !c.Manual(cmd) {
		return fmt.Errorf("%s: %w", cmd.Kind, ErrDropped)
	}
	c.logger.Info("Manual command queued",
		"actuator", cmd.Kind.String(),
		"mode", cmd.Mode.String())
	return nil
}

// Status is the appliance state as reported on solarium/status
type Status struct {
	Time        time.Time           `json:"time"`
	Mode        string              `json:"mode"`
	Clock       string              `json:"clock"`
	Alarm       *time.Time          `json:"alarm,omitempty"`
	LastRebuild *time.Time          `json:"last_rebuild,omitempty"`
	SunAltitude float64             `json:"sun_altitude"`
	Color       string              `json:"color"`
	UV          uint8               `json:"uv"`
	White       uint8               `json:"white"`
	Fito        uint8               `json:"fito"`
	Fan         string              `json:"fan"`
	Humidifier  bool                `json:"humidifier"`
	Climate     climate.Measurement `json:"climate"`
}

// Status assembles the current state from snapshots. Actuator values may
// be a tick behind their engines.
func (c *Controller) Status() Status {
	now := c.clock.Now()
	sched := c.sim.Status()

	st := Status{
		Time:        now.In(c.opts.Location),
		Mode:        "manual",
		Clock:       sched.State.String(),
		SunAltitude: solar.Altitude(now, c.opts.Latitude, c.opts.Longitude),
	}
	if sched.Enabled {
		st.Mode = "sun"
	}
	if !sched.Alarm.IsZero() {
		alarm := sched.Alarm.In(c.opts.Location)
		st.Alarm = &alarm
	}
	if !sched.LastRebuild.IsZero() {
		at := sched.LastRebuild.In(c.opts.Location)
		st.LastRebuild = &at
	}

	v, _ := c.bank.Snapshot(actuator.KindRGB)
	st.Color = v.Color.String()
	v, _ = c.bank.Snapshot(actuator.KindUV)
	st.UV = v.Level
	v, _ = c.bank.Snapshot(actuator.KindWhite)
	st.White = v.Level
	v, _ = c.bank.Snapshot(actuator.KindFito)
	st.Fito = v.Level
	v, _ = c.bank.Snapshot(actuator.KindFan)
	st.Fan = v.Speed.String()
	v, _ = c.bank.Snapshot(actuator.KindHumidifier)
	st.Humidifier = v.On

	if c.climate != nil {
		st.Climate = c.climate.Snapshot().Minute
	}
	return st
}

// RunStatus publishes the status every interval until ctx is cancelled
func (c *Controller) RunStatus(ctx context.Context, interval time.Duration) {
	c.logger.Info("Status publisher started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Status publisher stopped")
			return
		case <-ticker.C:
			if err := c.PublishStatus(ctx); err != nil {
				c.logger.Warn("Failed to publish status", "error", err)
			}
		}
	}
}

// PublishStatus sends one status report to MQTT and Redis
func (c *Controller) PublishStatus(ctx context.Context) error {
	st := c.Status()
	c.record(st)

	if err := c.mqtt.PublishJSON(mqtt.TopicStatus, 0, true, st); err != nil {
		return fmt.Errorf("failed to publish %s: %w", mqtt.TopicStatus, err)
	}

	fields := map[string]interface{}{
		"time":         st.Time.Format(time.RFC3339),
		"mode":         st.Mode,
		"clock":        st.Clock,
		"sun_altitude": strconv.FormatFloat(st.SunAltitude, 'f', 2, 64),
		"color":        st.Color,
		"uv":           st.UV,
		"white":        st.White,
		"fito":         st.Fito,
		"fan":          st.Fan,
		"humidifier":   st.Humidifier,
		"pressure":     st.Climate.Pressure,
		"temperature":  st.Climate.Temperature,
		"humidity":     st.Climate.Humidity,
		"alarm":        "",
	}
	if st.Alarm != nil {
		fields["alarm"] = st.Alarm.Format(time.RFC3339)
	}

	key := redis.StatusKey(c.opts.ServiceName)
	if err := c.redis.HSetAll(ctx, key, fields); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	if c.opts.StatusTTL > 0 {
		if err := c.redis.Expire(ctx, key, c.opts.StatusTTL); err != nil {
			return fmt.Errorf("failed to expire %s: %w", key, err)
		}
	}
	return nil
}

func (c *Controller) record(st Status) {
	c.metrics.ClockSynced(st.Clock != scheduler.StateUnsynced.String())
	for _, kind := range actuator.Kinds {
		if v, ok := c.bank.Snapshot(kind); ok {
			c.metrics.ActuatorLevel(kind.String(), v.Magnitude(kind))
		}
	}
}

// OnRebuild shares a new schedule on MQTT and in Redis
func (c *Controller) OnRebuild(ctx context.Context, r scheduler.Rebuild) {
	c.metrics.Rebuilt(string(r.Trigger))
	if r.Alarm.IsZero() {
		c.metrics.NextAlarm(0)
	} else {
		c.metrics.NextAlarm(r.Alarm.Unix())
	}

	view := NewScheduleView(r, c.opts.Location)
	if err := c.mqtt.PublishJSON(mqtt.TopicSchedule, 1, true, view); err != nil {
		c.logger.Warn("Failed to publish schedule", "error", err)
	}
	data, err := json.Marshal(view)
	if err != nil {
		c.logger.Warn("Failed to encode schedule", "error", err)
		return
	}
	if err := c.redis.Set(ctx, redis.ScheduleKey(c.opts.ServiceName), data, 0); err != nil {
		c.logger.Warn("Failed to store schedule", "error", err)
	}
}

// ScheduleView is the published form of a rebuild
type ScheduleView struct {
	Day     string                `json:"day"`
	Trigger string                `json:"trigger"`
	BuiltAt time.Time             `json:"built_at"`
	Alarm   *time.Time            `json:"alarm,omitempty"`
	SpanS   int64                 `json:"span_s"`
	Points  []schedule.PointInfo  `json:"points"`
	Windows []schedule.WindowInfo `json:"windows"`
}

// NewScheduleView renders a rebuild with times in loc
func NewScheduleView(r scheduler.Rebuild, loc *time.Location) ScheduleView {
	v := ScheduleView{
		Day:     r.Day.Date.Format("2006-01-02"),
		Trigger: string(r.Trigger),
		BuiltAt: r.At.In(loc),
		SpanS:   int64(r.Day.Span / time.Second),
		Points:  r.Day.Summary(),
		Windows: r.Day.Windows(),
	}
	for i := range v.Points {
		v.Points[i].Start = v.Points[i].Start.In(loc)
	}
	for i := range v.Windows {
		v.Windows[i].Start = v.Windows[i].Start.In(loc)
	}
	if !r.Alarm.IsZero() {
		alarm := r.Alarm.In(loc)
		v.Alarm = &alarm
	}
	return v
}
