//go:build linux

package driver

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// OpenGPIOHumidifier requests the power and button lines on chip. The
// supply starts switched on and the button released.
func OpenGPIOHumidifier(chipName string, powerLine, buttonLine int, click time.Duration, logger *slog.Logger) (*GPIOHumidifier, func() error, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, nil, fmt.Errorf("open gpio chip: %w", err)
	}

	power, err := chip.RequestLine(powerLine, gpiocdev.AsOutput(1))
	if err != nil {
		chip.Close()
		return nil, nil, fmt.Errorf("request power line %d: %w", powerLine, err)
	}

	button, err := chip.RequestLine(buttonLine, gpiocdev.AsOutput(0))
	if err != nil {
		power.Close()
		chip.Close()
		return nil, nil, fmt.Errorf("request button line %d: %w", buttonLine, err)
	}

	h := newGPIOHumidifier(power, button, click, logger)
	closeAll := func() error {
		err := h.Close()
		if cerr := chip.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close chip: %w", cerr)
		}
		return err
	}
	return h, closeAll, nil
}
