//go:build !linux

package driver

import (
	"errors"
	"log/slog"
	"time"
)

// OpenGPIOHumidifier is only available on Linux
func OpenGPIOHumidifier(chipName string, powerLine, buttonLine int, click time.Duration, logger *slog.Logger) (*GPIOHumidifier, func() error, error) {
	return nil, nil, errors.New("gpio humidifier requires linux")
}
