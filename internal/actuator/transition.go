package actuator

import (
	"math"
	"time"
)

// Tick periods of the rendering modes
const (
	TransitionTick  = 30 * time.Millisecond
	CirculationTick = 40 * time.Millisecond
	RainbowTick     = 60 * time.Millisecond
	DutyTick        = time.Second
)

// TickPeriod returns how often an engine renders cmd
func TickPeriod(cmd Command) time.Duration {
	if cmd.Kind.IsDuty() {
		return DutyTick
	}
	switch cmd.Mode {
	case ModeCirculation, ModePingPong:
		return CirculationTick
	case ModeRainbow:
		return RainbowTick
	}
	return TransitionTick
}

// ValueAt returns the output of a transition command after elapsed time.
// It has no side effects; engines render ticks through it, so a caller
// gets exactly what the engine would show at that point.
func ValueAt(cmd Command, elapsed time.Duration) Value {
	if cmd.Src == cmd.Dst || elapsed >= cmd.Total || cmd.Total <= 0 {
		return Final(cmd)
	}
	if elapsed < 0 {
		elapsed = 0
	}
	p := float64(elapsed) / float64(cmd.Total)

	switch cmd.Kind {
	case KindRGB:
		return Value{Color: blendColor(cmd, p)}
	case KindUV, KindWhite, KindFito:
		return Value{Level: blendLevel(cmd, p)}
	}
	return cmd.Dst
}

// Final is the value an engine settles on once a transition is over. The
// sine mode breathes out and back, so it ends on its source.
func Final(cmd Command) Value {
	if cmd.Mode == ModeSine {
		return cmd.Src
	}
	return cmd.Dst
}

func blendColor(cmd Command, p float64) Color {
	switch cmd.Mode {
	case ModeSine:
		return Lerp(cmd.Src.Color, cmd.Dst.Color, sineEase(p))
	case ModeRainbowCW:
		return HueBlend(cmd.Src.Color, cmd.Dst.Color, p, true)
	case ModeRainbowCCW:
		return HueBlend(cmd.Src.Color, cmd.Dst.Color, p, false)
	case ModeStatic:
		return cmd.Dst.Color
	}
	return Lerp(cmd.Src.Color, cmd.Dst.Color, p)
}

func blendLevel(cmd Command, p float64) uint8 {
	switch cmd.Mode {
	case ModeSine:
		p = sineEase(p)
	case ModeStatic:
		return cmd.Dst.Level
	}
	return lerp8(cmd.Src.Level, cmd.Dst.Level, clamp01(p))
}

func sineEase(p float64) float64 {
	return math.Sin(p * math.Pi)
}
