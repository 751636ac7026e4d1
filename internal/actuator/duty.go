package actuator

import (
	"log/slog"
	"time"
)

// FanKick is how long the fan runs at full speed before settling on a lower
// speed, so the motor starts reliably.
const FanKick = 250 * time.Millisecond

// duty switches a binary device on and off inside a repeating window. The
// window is counted in whole ticks: on at 0, off at OnTime, and at Total it
// either restarts or stops. A command without a valid on/off split is
// applied once and held.
type duty struct {
	kind    Kind
	apply   func(v Value) error
	logger  *slog.Logger
	cmd     Command
	counter int
	active  bool
	out     Value
}

// NewFanEngine creates the fan engine. kick is the full-speed start pulse.
func NewFanEngine(out FanWriter, kick time.Duration, opts Options, logger *slog.Logger) *Engine {
	d := &duty{kind: KindFan, logger: logger}
	d.apply = func(v Value) error {
		if v.Speed > SpeedNone && kick > 0 {
			if err := out.SetFanSpeed(SpeedFull); err != nil {
				return err
			}
			time.Sleep(kick)
		}
		return out.SetFanSpeed(v.Speed)
	}
	return newEngine(KindFan, d, opts, logger)
}

// NewHumidifierEngine creates the humidifier engine
func NewHumidifierEngine(out HumidifierWriter, opts Options, logger *slog.Logger) *Engine {
	d := &duty{kind: KindHumidifier, logger: logger}
	d.apply = func(v Value) error {
		return out.SetHumidifier(v.On)
	}
	return newEngine(KindHumidifier, d, opts, logger)
}

func (d *duty) load(cmd Command) {
	d.cmd = cmd
	d.counter = 0
	d.active = true
}

func (d *duty) step() (time.Duration, bool) {
	if !d.active {
		return 0, false
	}

	on := int(d.cmd.OnTime / DutyTick)
	window := int(d.cmd.Total / DutyTick)
	enabled := d.cmd.Dst != Value{}

	if !enabled || on <= 0 || on >= window {
		d.set(d.cmd.Dst)
		d.active = false
		return 0, false
	}

	switch d.counter {
	case 0:
		d.set(d.cmd.Dst)
	case on:
		d.set(Value{})
	case window:
		if !d.cmd.Repeat {
			d.set(Value{})
			d.active = false
			return 0, false
		}
		d.counter = 0
		return DutyTick, true
	}
	d.counter++
	return DutyTick, true
}

func (d *duty) set(v Value) {
	d.logger.Debug("Switching", "value", v.Magnitude(d.kind), "counter", d.counter)
	if err := d.apply(v); err != nil {
		d.logger.Warn("Failed to switch actuator", "error", err)
	}
	d.out = v
}

func (d *duty) current() Value {
	return d.out
}
