// Package driver connects the actuator engines to the peripherals: LED
// channels and the pixel strip, the fan and the humidifier.
package driver

import (
	"fmt"
	"log/slog"

	"github.com/saaga0h/solarium/internal/actuator"
	"github.com/saaga0h/solarium/pkg/mqtt"
)

// Output bundles every peripheral the engines write to
type Output interface {
	actuator.ChannelWriter
	actuator.FrameWriter
	actuator.FanWriter
	actuator.HumidifierWriter
}

type channelPayload struct {
	Level uint8 `json:"level"`
}

type framePayload struct {
	Pixels []string `json:"pixels"`
}

type fanPayload struct {
	Speed string `json:"speed"`
	PWM   uint8  `json:"pwm"`
}

type humidifierPayload struct {
	On bool `json:"on"`
}

// MQTTDriver publishes every output to solarium/driver/{channel}, where
// the LED controller and the climate board pick it up. Outputs are sent
// with QoS 0 and only the fan and humidifier are retained: a missed
// animation frame is replaced 30 ms later.
type MQTTDriver struct {
	client mqtt.Client
	logger *slog.Logger
}

// NewMQTTDriver creates a driver publishing through client
func NewMQTTDriver(client mqtt.Client, logger *slog.Logger) *MQTTDriver {
	return &MQTTDriver{client: client, logger: logger}
}

// SetChannelBrightness publishes the level of a dimmable channel
func (d *MQTTDriver) SetChannelBrightness(kind actuator.Kind, level uint8) error {
	if !kind.IsLight() {
		return fmt.Errorf("%s is not a dimmable channel", kind)
	}
	return d.client.PublishJSON(mqtt.DriverTopic(kind.String()), 0, false, channelPayload{Level: level})
}

// PushPixelFrame publishes the strip frame as hex colours
func (d *MQTTDriver) PushPixelFrame(frame []actuator.Color) error {
	p := framePayload{Pixels: make([]string, len(frame))}
	for i, c := range frame {
		p.Pixels[i] = c.String()
	}
	return d.client.PublishJSON(mqtt.DriverTopic(actuator.KindRGB.String()), 0, false, p)
}

// SetFanSpeed publishes the fan speed and its PWM duty
func (d *MQTTDriver) SetFanSpeed(speed actuator.FanSpeed) error {
	p := fanPayload{Speed: speed.String(), PWM: speed.PWM()}
	return d.client.PublishJSON(mqtt.DriverTopic(actuator.KindFan.String()), 1, true, p)
}

// SetHumidifier publishes the humidifier state
func (d *MQTTDriver) SetHumidifier(on bool) error {
	return d.client.PublishJSON(mqtt.DriverTopic(actuator.KindHumidifier.String()), 1, true, humidifierPayload{On: on})
}
