package driver

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saaga0h/solarium/internal/actuator"
)

// Humidifier timings of the stock appliance
const (
	DefaultClick      = 50 * time.Millisecond
	DefaultPowerDelay = 200 * time.Millisecond
)

// pin is one output line
type pin interface {
	SetValue(value int) error
	Close() error
}

// GPIOHumidifier drives an off-the-shelf humidifier through two lines: one
// presses its on/off button, the other switches its supply. Pressing the
// button starts it; cycling the supply is the only reliable way to stop it,
// since the button toggles between several modes.
type GPIOHumidifier struct {
	mu         sync.Mutex
	power      pin
	button     pin
	click      time.Duration
	powerDelay time.Duration
	sleep      func(time.Duration)
	logger     *slog.Logger
}

func newGPIOHumidifier(power, button pin, click time.Duration, logger *slog.Logger) *GPIOHumidifier {
	if click <= 0 {
		click = DefaultClick
	}
	return &GPIOHumidifier{
		power:      power,
		button:     button,
		click:      click,
		powerDelay: DefaultPowerDelay,
		sleep:      time.Sleep,
		logger:     logger,
	}
}

// SetHumidifier clicks the button to start humidifying or power cycles the
// device to stop it
func (h *GPIOHumidifier) SetHumidifier(on bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if on {
		h.logger.Debug("Pressing humidifier button")
		return h.pressButton()
	}
	h.logger.Debug("Power cycling humidifier")
	return h.powerCycle()
}

func (h *GPIOHumidifier) pressButton() error {
	if err := h.button.SetValue(1); err != nil {
		return fmt.Errorf("press button: %w", err)
	}
	h.sleep(h.click)
	if err := h.button.SetValue(0); err != nil {
		return fmt.Errorf("release button: %w", err)
	}
	h.sleep(h.click)
	return nil
}

func (h *GPIOHumidifier) powerCycle() error {
	if err := h.power.SetValue(0); err != nil {
		return fmt.Errorf("power off: %w", err)
	}
	h.sleep(h.powerDelay)
	if err := h.power.SetValue(1); err != nil {
		return fmt.Errorf("power on: %w", err)
	}
	h.sleep(h.powerDelay)
	return nil
}

// Close releases both lines, leaving the supply switched on
func (h *GPIOHumidifier) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	if err := h.button.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close button line: %w", err))
	}
	if err := h.power.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close power line: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// Composite routes the humidifier to a dedicated writer and everything
// else to a base output
type Composite struct {
	Output
	Humidifier actuator.HumidifierWriter
}

// SetHumidifier forwards to the dedicated humidifier writer
func (c Composite) SetHumidifier(on bool) error {
	return c.Humidifier.SetHumidifier(on)
}
