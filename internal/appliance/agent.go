// Package appliance wires the solarium together: drivers, actuator engines,
// the schedule state machine, the climate monitor and the command surface.
package appliance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saaga0h/solarium/internal/actuator"
	"github.com/saaga0h/solarium/internal/climate"
	"github.com/saaga0h/solarium/internal/clock"
	"github.com/saaga0h/solarium/internal/control"
	"github.com/saaga0h/solarium/internal/driver"
	"github.com/saaga0h/solarium/internal/journal"
	"github.com/saaga0h/solarium/internal/schedule"
	"github.com/saaga0h/solarium/internal/scheduler"
	"github.com/saaga0h/solarium/pkg/config"
	"github.com/saaga0h/solarium/pkg/metrics"
	"github.com/saaga0h/solarium/pkg/mqtt"
	"github.com/saaga0h/solarium/pkg/postgres"
	"github.com/saaga0h/solarium/pkg/redis"
)

// Agent is the running appliance
type Agent struct {
	cfg     *config.Config
	mqtt    mqtt.Client
	redis   redis.Client
	db      postgres.Client
	metrics *metrics.Metrics
	logger  *slog.Logger

	clock   clock.Clock
	virtual *clock.Virtual

	bank       *control.Bank
	scheduler  *scheduler.Scheduler
	controller *control.Controller
	monitor    *climate.Monitor

	closeOutput func() error
	wg          sync.WaitGroup
}

// NewAgent builds the appliance. db may be nil when the rebuild journal is
// disabled.
func NewAgent(cfg *config.Config, mqttClient mqtt.Client, redisClient redis.Client, db postgres.Client, m *metrics.Metrics, logger *slog.Logger) (*Agent, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	catalog, err := schedule.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load transition catalog: %w", err)
	}

	a := &Agent{
		cfg:         cfg,
		mqtt:        mqttClient,
		redis:       redisClient,
		db:          db,
		metrics:     m,
		logger:      logger,
		clock:       clock.System{},
		closeOutput: func() error { return nil },
	}
	if cfg.TestTimeEnabled {
		a.virtual = clock.NewVirtual(logger.With("component", "clock"))
		a.clock = a.virtual
	}

	out, err := a.output()
	if err != nil {
		return nil, err
	}

	opts := actuator.Options{
		QueueCapacity: cfg.QueueCapacity,
		OnDrop: func(kind actuator.Kind) {
			m.Dropped(kind.String())
		},
	}
	engineLogger := logger.With("component", "actuator")
	a.bank = control.NewBank(
		actuator.NewRGBEngine(out, cfg.PixelCount, opts, engineLogger),
		actuator.NewLightEngine(actuator.KindUV, out, opts, engineLogger),
		actuator.NewLightEngine(actuator.KindWhite, out, opts, engineLogger),
		actuator.NewLightEngine(actuator.KindFito, out, opts, engineLogger),
		actuator.NewFanEngine(out, actuator.FanKick, opts, engineLogger),
		actuator.NewHumidifierEngine(out, opts, engineLogger),
	)

	builder := schedule.NewBuilder(cfg.Latitude, cfg.Longitude, loc, catalog, logger.With("component", "schedule"))
	a.scheduler = scheduler.New(builder, a.bank, clock.LogResyncer{Logger: logger}, scheduler.Options{
		SyncYearFloor:   cfg.SyncYearFloor,
		ResyncRetries:   cfg.ResyncRetries,
		PreTransition:   cfg.PreTransition(),
		Settle:          cfg.PreTransitionSettle(),
		RequestCapacity: cfg.QueueCapacity,
	}, logger.With("component", "scheduler"))

	a.monitor = climate.NewMonitor(mqttClient, redisClient, m, cfg.ServiceName, loc, logger.With("component", "climate"))

	a.controller = control.NewController(a.bank, a.scheduler, a.monitor, a.clock, mqttClient, redisClient, m, control.Options{
		ServiceName: cfg.ServiceName,
		Latitude:    cfg.Latitude,
		Longitude:   cfg.Longitude,
		Location:    loc,
		StatusTTL:   time.Duration(3*cfg.StatusInterval) * time.Second,
	}, logger.With("component", "control"))
	a.scheduler.Observe(a.controller)

	return a, nil
}

// output opens the peripheral driver selected by DriverMode
func (a *Agent) output() (driver.Output, error) {
	switch a.cfg.DriverMode {
	case "log":
		return driver.NewLogDriver(a.logger.With("component", "driver")), nil
	case "gpio":
		humidifier, closeLines, err := driver.OpenGPIOHumidifier(
			a.cfg.GPIOChip,
			a.cfg.HumidifierPowerLine,
			a.cfg.HumidifierButtonLine,
			time.Duration(a.cfg.HumidifierClickMs)*time.Millisecond,
			a.logger.With("component", "humidifier"))
		if err != nil {
			return nil, fmt.Errorf("failed to open humidifier lines: %w", err)
		}
		a.closeOutput = closeLines
		return driver.Composite{
			Output:     driver.NewMQTTDriver(a.mqtt, a.logger.With("component", "driver")),
			Humidifier: humidifier,
		}, nil
	default:
		return driver.NewMQTTDriver(a.mqtt, a.logger.With("component", "driver")), nil
	}
}

// Controller returns the command surface
func (a *Agent) Controller() *control.Controller {
	return a.controller
}

// Climate returns the climate monitor
func (a *Agent) Climate() *climate.Monitor {
	return a.monitor
}

// Scheduler returns the schedule state machine
func (a *Agent) Scheduler() *scheduler.Scheduler {
	return a.scheduler
}

// Start connects, starts every task and turns the day simulation on. It
// blocks until ctx is cancelled.
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting solarium",
		"service_name", a.cfg.ServiceName,
		"mqtt_broker", a.cfg.MQTTAddress(),
		"latitude", a.cfg.Latitude,
		"longitude", a.cfg.Longitude,
		"timezone", a.cfg.Timezone,
		"driver", a.cfg.DriverMode)

	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	if err := a.redis.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	if a.db != nil {
		a.startJournal(ctx)
	}

	if a.virtual != nil {
		if err := a.virtual.ConfigureFromMQTT(a.mqtt); err != nil {
			return fmt.Errorf("failed to subscribe to time config: %w", err)
		}
		a.logger.Info("Virtual time enabled", "topic", mqtt.TopicTimeConfig)
	}

	if err := a.controller.Subscribe(); err != nil {
		return err
	}
	if err := a.monitor.Subscribe(); err != nil {
		return err
	}

	if err := a.mqtt.Publish(mqtt.AvailabilityTopic, 1, true, []byte(mqtt.AvailabilityOnline)); err != nil {
		a.logger.Warn("Failed to publish availability", "error", err)
	}

	poll := time.Duration(a.cfg.ClockPollMs) * time.Millisecond
	status := time.Duration(a.cfg.StatusInterval) * time.Second

	a.run(func() { a.bank.Run(ctx) })
	a.run(func() { a.scheduler.Run(ctx, a.clock, poll) })
	a.run(func() { a.monitor.Run(ctx, a.clock, a.cfg.SyncYearFloor) })
	if status > 0 {
		a.run(func() { a.controller.RunStatus(ctx, status) })
	}

	a.scheduler.Enable()
	a.logger.Info("Solarium started", "poll", poll, "status_interval", status)

	<-ctx.Done()
	a.logger.Info("Solarium stopping")
	a.wg.Wait()
	return nil
}

func (a *Agent) run(task func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		task()
	}()
}

// startJournal connects to Postgres and journals rebuilds from then on. The
// appliance runs without the journal when the database is unavailable.
func (a *Agent) startJournal(ctx context.Context) {
	if err := a.db.Connect(ctx); err != nil {
		a.logger.Warn("Rebuild journal disabled, Postgres unavailable", "error", err)
		return
	}
	j := journal.New(a.db, a.cfg.ServiceName, a.logger.With("component", "journal"))
	if err := j.EnsureSchema(ctx); err != nil {
		a.logger.Warn("Rebuild journal disabled", "error", err)
		return
	}
	a.scheduler.Observe(j)
	a.logger.Info("Rebuild journal enabled", "database", a.cfg.PostgresDB)
}

// Stop releases the connections and the peripherals
func (a *Agent) Stop() error {
	a.logger.Info("Stopping solarium")

	if a.mqtt.IsConnected() {
		if err := a.mqtt.Publish(mqtt.AvailabilityTopic, 1, true, []byte(mqtt.AvailabilityOffline)); err != nil {
			a.logger.Warn("Failed to publish availability", "error", err)
		}
	}
	a.mqtt.Disconnect()

	var errs []error
	if err := a.redis.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close redis: %w", err))
	}
	if a.db != nil {
		if err := a.db.Disconnect(); err != nil {
			errs = append(errs, fmt.Errorf("close postgres: %w", err))
		}
	}
	if err := a.closeOutput(); err != nil {
		errs = append(errs, fmt.Errorf("close peripherals: %w", err))
	}
	if len(errs) > 0 {
		a.logger.Error("Errors while stopping", "errors", errs)
		return fmt.Errorf("stop errors: %v", errs)
	}

	a.logger.Info("Solarium stopped")
	return nil
}
