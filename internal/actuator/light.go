package actuator

import (
	"log/slog"
	"time"
)

// light renders a single dimmable LED channel
type light struct {
	kind    Kind
	out     ChannelWriter
	logger  *slog.Logger
	cmd     Command
	elapsed time.Duration
	active  bool
	level   uint8
}

// NewLightEngine creates the engine of a UV, white or fito channel
func NewLightEngine(kind Kind, out ChannelWriter, opts Options, logger *slog.Logger) *Engine {
	l := &light{kind: kind, out: out, logger: logger}
	return newEngine(kind, l, opts, logger)
}

func (l *light) load(cmd Command) {
	if cmd.FromCurrent {
		cmd.Src = Value{Level: l.level}
	}
	cmd = cmd.Normalize()
	if cmd.Mode == ModeStatic {
		cmd.Elapsed = cmd.Total
	}
	l.cmd = cmd
	l.elapsed = cmd.Elapsed
	l.active = true
}

func (l *light) step() (time.Duration, bool) {
	if !l.active {
		return 0, false
	}

	var v Value
	if l.cmd.Src != l.cmd.Dst && l.elapsed < l.cmd.Total {
		v = ValueAt(l.cmd, l.elapsed)
		l.elapsed += TransitionTick
	} else {
		v = Final(l.cmd)
		l.active = false
	}

	l.level = v.Level
	if err := l.out.SetChannelBrightness(l.kind, v.Level); err != nil {
		l.logger.Warn("Failed to set channel brightness", "channel", l.kind.String(), "error", err)
	}
	return TransitionTick, l.active
}

func (l *light) current() Value {
	return Value{Level: l.level}
}
