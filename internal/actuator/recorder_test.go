package actuator

import (
	"io"
	"log/slog"
	"sync"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// recorder captures everything the engines write
type recorder struct {
	mu       sync.Mutex
	levels   map[Kind][]uint8
	frames   [][]Color
	speeds   []FanSpeed
	switches []bool
}

func newRecorder() *recorder {
	return &recorder{levels: make(map[Kind][]uint8)}
}

func (r *recorder) SetChannelBrightness(kind Kind, level uint8) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels[kind] = append(r.levels[kind], level)
	return nil
}

func (r *recorder) PushPixelFrame(frame []Color) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
	return nil
}

func (r *recorder) SetFanSpeed(speed FanSpeed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speeds = append(r.speeds, speed)
	return nil
}

func (r *recorder) SetHumidifier(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.switches = append(r.switches, on)
	return nil
}

func (r *recorder) lastFrame() []Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return nil
	}
	return r.frames[len(r.frames)-1]
}
