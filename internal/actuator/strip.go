package actuator

import (
	"log/slog"
	"time"
)

// DefaultPixelCount is the length of the RGB strip
const DefaultPixelCount = 18

const (
	fadeLevels     = 30
	fadeStep       = 0.02
	runningRainbow = 0.222
)

// strip renders the addressable RGB strip
type strip struct {
	out    FrameWriter
	logger *slog.Logger
	frame  []Color

	cmd     Command
	elapsed time.Duration
	active  bool

	// free-running animation scratch
	pos      int
	phase    int
	channel  int
	cycling  bool
	hue, sat float64
	val      float64
}

// NewRGBEngine creates the engine of the RGB strip
func NewRGBEngine(out FrameWriter, pixels int, opts Options, logger *slog.Logger) *Engine {
	if pixels <= 0 {
		pixels = DefaultPixelCount
	}
	s := &strip{out: out, logger: logger, frame: make([]Color, pixels)}
	return newEngine(KindRGB, s, opts, logger)
}

func (s *strip) load(cmd Command) {
	if cmd.FromCurrent {
		cmd.Src = Value{Color: Average(s.frame)}
	}
	cmd = cmd.Normalize()
	s.cmd = cmd
	s.elapsed = cmd.Elapsed
	s.active = true
	s.pos, s.phase = 0, 0

	switch cmd.Mode {
	case ModeStatic:
		s.elapsed = cmd.Total
	case ModeCirculation:
		s.clear()
		if cmd.Dst.Color == Black {
			// single pixel cycling red, green, blue
			s.cycling = true
			s.channel = 0
			s.frame[0] = primary(s.channel)
		} else {
			s.cycling = false
			s.frame[0] = cmd.Dst.Color
		}
	case ModePingPong:
		s.clear()
		s.frame[0] = cmd.Dst.Color
	case ModeFade:
		s.clear()
		s.hue, s.sat, _ = cmd.Dst.Color.HSV()
		s.val = 0
	case ModeRainbow:
		peak := runningRainbow
		if cmd.Dst.Color != Black {
			c := cmd.Dst.Color
			peak = float64(max(c.R, c.G, c.B)) / 255
			// a colored destination draws a still rainbow at its brightness
			s.active = false
		}
		n := float64(len(s.frame))
		for i := range s.frame {
			s.frame[i] = FromHSV((float64(i)+0.5)/n, 1, peak)
		}
	}
}

func (s *strip) step() (time.Duration, bool) {
	switch s.cmd.Mode {
	case ModeCirculation:
		s.push()
		Rotate(s.frame, false)
		if s.cycling {
			s.pos = (s.pos + 1) % len(s.frame)
			if s.pos == 0 {
				s.channel = (s.channel + 1) % 3
				s.frame[0] = primary(s.channel)
			}
		}
		return CirculationTick, true

	case ModePingPong:
		s.push()
		Rotate(s.frame, s.phase == 0)
		s.pos++
		if s.pos == len(s.frame) {
			s.pos = 0
			s.phase = (s.phase + 1) % 2
		}
		return CirculationTick, true

	case ModeFade:
		s.fill(FromHSV(s.hue, s.sat, s.val))
		s.push()
		s.pos++
		if s.pos == fadeLevels {
			s.pos = 0
			s.phase = (s.phase + 1) % 2
		}
		if s.phase == 0 {
			s.val = float64(s.pos) * fadeStep
		} else {
			s.val = float64(fadeLevels-s.pos-1) * fadeStep
		}
		return TransitionTick, true

	case ModeRainbow:
		if s.active {
			Rotate(s.frame, false)
		}
		s.push()
		return RainbowTick, s.active
	}

	if !s.active {
		return 0, false
	}

	var v Value
	if s.cmd.Src != s.cmd.Dst && s.elapsed < s.cmd.Total {
		v = ValueAt(s.cmd, s.elapsed)
		s.elapsed += TransitionTick
	} else {
		v = Final(s.cmd)
		s.active = false
	}
	s.fill(v.Color)
	s.push()
	return TransitionTick, s.active
}

func (s *strip) current() Value {
	return Value{Color: Average(s.frame)}
}

func (s *strip) push() {
	frame := make([]Color, len(s.frame))
	copy(frame, s.frame)
	if err := s.out.PushPixelFrame(frame); err != nil {
		s.logger.Warn("Failed to push pixel frame", "error", err)
	}
}

func (s *strip) fill(c Color) {
	for i := range s.frame {
		s.frame[i] = c
	}
}

func (s *strip) clear() {
	s.fill(Black)
}

func primary(channel int) Color {
	switch channel {
	case 1:
		return Color{G: 255}
	case 2:
		return Color{B: 255}
	}
	return Color{R: 255}
}
