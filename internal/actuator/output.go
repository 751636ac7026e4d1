package actuator

// Peripheral outputs consumed by the engines. Implementations are
// synchronous; an error is logged by the engine and rendering continues.

// ChannelWriter sets the brightness of a single LED channel
type ChannelWriter interface {
	SetChannelBrightness(kind Kind, level uint8) error
}

// FrameWriter pushes a full RGB frame to the strip
type FrameWriter interface {
	PushPixelFrame(frame []Color) error
}

// FanWriter sets the fan speed
type FanWriter interface {
	SetFanSpeed(speed FanSpeed) error
}

// HumidifierWriter switches the humidifier
type HumidifierWriter interface {
	SetHumidifier(on bool) error
}
