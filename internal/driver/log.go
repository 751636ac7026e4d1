package driver

import (
	"log/slog"

	"github.com/saaga0h/solarium/internal/actuator"
)

// LogDriver writes outputs to the log only, for running without hardware
type LogDriver struct {
	logger *slog.Logger
}

// NewLogDriver creates a log-only driver
func NewLogDriver(logger *slog.Logger) *LogDriver {
	return &LogDriver{logger: logger}
}

func (d *LogDriver) SetChannelBrightness(kind actuator.Kind, level uint8) error {
	d.logger.Debug("Channel brightness", "channel", kind.String(), "level", level)
	return nil
}

func (d *LogDriver) PushPixelFrame(frame []actuator.Color) error {
	if len(frame) > 0 {
		d.logger.Debug("Pixel frame", "pixels", len(frame), "first", frame[0].String())
	}
	return nil
}

func (d *LogDriver) SetFanSpeed(speed actuator.FanSpeed) error {
	d.logger.Info("Fan speed", "speed", speed.String(), "pwm", speed.PWM())
	return nil
}

func (d *LogDriver) SetHumidifier(on bool) error {
	d.logger.Info("Humidifier", "on", on)
	return nil
}
