// Package actuator drives the enclosure's output devices. Each actuator kind
// is owned by one Engine goroutine that receives commands on a bounded
// mailbox and renders transitions on its own tick.
package actuator

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies an actuator
type Kind int

const (
	KindRGB Kind = iota
	KindUV
	KindWhite
	KindFito
	KindFan
	KindHumidifier
)

// Kinds lists every actuator in dispatch order
var Kinds = []Kind{KindRGB, KindUV, KindWhite, KindFito, KindFan, KindHumidifier}

var kindNames = map[Kind]string{
	KindRGB:        "rgb",
	KindUV:         "uv",
	KindWhite:      "white",
	KindFito:       "fito",
	KindFan:        "fan",
	KindHumidifier: "humidifier",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsLight reports whether the kind is a dimmable LED channel
func (k Kind) IsLight() bool {
	return k == KindUV || k == KindWhite || k == KindFito
}

// IsDuty reports whether the kind is a binary device driven by duty cycles
func (k Kind) IsDuty() bool {
	return k == KindFan || k == KindHumidifier
}

// ParseKind parses a kind name as used in topics and the catalog
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown actuator kind: %q", s)
}

// Mode selects how an engine renders a command
type Mode int

const (
	ModeSmooth Mode = iota
	ModeSine
	ModeRainbowCW
	ModeRainbowCCW
	ModeStatic
	ModeCirculation
	ModePingPong
	ModeFade
	ModeRainbow
	ModeDuty
)

var modeNames = map[Mode]string{
	ModeSmooth:      "smooth",
	ModeSine:        "sine",
	ModeRainbowCW:   "rainbow_cw",
	ModeRainbowCCW:  "rainbow_ccw",
	ModeStatic:      "static",
	ModeCirculation: "circulation",
	ModePingPong:    "pingpong",
	ModeFade:        "fade",
	ModeRainbow:     "rainbow",
	ModeDuty:        "duty",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode parses a mode name
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown transition mode: %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// FreeRunning reports whether the mode animates without an end
func (m Mode) FreeRunning() bool {
	switch m {
	case ModeCirculation, ModePingPong, ModeFade, ModeRainbow:
		return true
	}
	return false
}

// FanSpeed is one of the fan's discrete PWM steps
type FanSpeed uint8

const (
	SpeedNone FanSpeed = iota
	SpeedLow
	SpeedMedium
	SpeedHigh
	SpeedFull
)

var fanDuty = [...]uint8{
	SpeedNone:   0,
	SpeedLow:    75,
	SpeedMedium: 106,
	SpeedHigh:   178,
	SpeedFull:   255,
}

var speedNames = [...]string{"none", "low", "medium", "high", "full"}

// PWM returns the 8-bit duty value for the speed
func (s FanSpeed) PWM() uint8 {
	if int(s) < len(fanDuty) {
		return fanDuty[s]
	}
	return fanDuty[SpeedFull]
}

func (s FanSpeed) String() string {
	if int(s) < len(speedNames) {
		return speedNames[s]
	}
	return fmt.Sprintf("speed(%d)", int(s))
}

// ParseFanSpeed parses a speed name
func ParseFanSpeed(s string) (FanSpeed, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range speedNames {
		if name == s {
			return FanSpeed(i), nil
		}
	}
	return 0, fmt.Errorf("unknown fan speed: %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (s FanSpeed) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *FanSpeed) UnmarshalText(text []byte) error {
	parsed, err := ParseFanSpeed(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value is the output of one actuator. Only the field matching the kind is used.
type Value struct {
	Color Color    `json:"color"`
	Level uint8    `json:"level"`
	Speed FanSpeed `json:"speed"`
	On    bool     `json:"on"`
}

// Magnitude reduces a value of the given kind to a 0-255 scale
func (v Value) Magnitude(kind Kind) float64 {
	switch kind {
	case KindRGB:
		return (float64(v.Color.R) + float64(v.Color.G) + float64(v.Color.B)) / 3
	case KindFan:
		return float64(v.Speed.PWM())
	case KindHumidifier:
		if v.On {
			return 255
		}
		return 0
	default:
		return float64(v.Level)
	}
}

// Command is a single instruction for one engine. A later command always
// replaces the one in flight.
type Command struct {
	Kind    Kind
	Mode    Mode
	Src     Value
	Dst     Value
	Total   time.Duration
	Elapsed time.Duration

	// Duty kinds: on-time within each Total window and whether the window repeats
	OnTime time.Duration
	Repeat bool

	// FromCurrent replaces Src with the engine's present output
	FromCurrent bool
}

// MinTransition is the window used when a command carries no usable timing
const MinTransition = 1000 * time.Millisecond

// Normalize applies the timing rule engines use when loading a command: a
// window not longer than MinTransition, or already elapsed, replays over
// MinTransition from the start.
func (c Command) Normalize() Command {
	if c.Kind.IsDuty() || c.Mode.FreeRunning() {
		return c
	}
	if !(c.Total > MinTransition && c.Elapsed < c.Total) {
		c.Total = MinTransition
		c.Elapsed = 0
	}
	return c
}
