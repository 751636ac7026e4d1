package schedule

import (
	"time"

	"github.com/saaga0h/solarium/internal/actuator"
)

// Table is the compressed schedule of one actuator family. Only points that
// own a spec carry a window, which spans every following point up to the
// next spec.
type Table[T any] struct {
	Specs   [PointCount]*T
	Windows [PointCount]time.Duration
}

// Window is the part of a Table active at some instant
type Window[T any] struct {
	Point   Point
	Spec    *T
	Start   time.Time
	Total   time.Duration
	Elapsed time.Duration
}

// Remaining returns the time left in the window
func (w Window[T]) Remaining() time.Duration {
	return w.Total - w.Elapsed
}

// fold copies the populated specs and accumulates intervals last to first
// until a point with a spec absorbs them.
func fold[T any](points *[PointCount]TimePoint, specs [PointCount]*T) Table[T] {
	var t Table[T]
	var acc time.Duration
	for p := PointCount - 1; p >= 0; p-- {
		acc += points[p].Interval
		if specs[p] == nil {
			continue
		}
		spec := *specs[p]
		t.Specs[p] = &spec
		t.Windows[p] = acc
		acc = 0
	}
	return t
}

// Active returns the window containing now: the latest point with a spec
// whose start is not after now.
func (t *Table[T]) Active(points *[PointCount]TimePoint, now time.Time) (Window[T], bool) {
	for p := PointCount - 1; p >= 0; p-- {
		if t.Specs[p] == nil || now.Before(points[p].Start) {
			continue
		}
		return Window[T]{
			Point:   Point(p),
			Spec:    t.Specs[p],
			Start:   points[p].Start,
			Total:   t.Windows[p],
			Elapsed: now.Sub(points[p].Start),
		}, true
	}
	return Window[T]{}, false
}

// Schedule is one built day
type Schedule struct {
	Date   time.Time
	Points [PointCount]TimePoint
	// Span is the daylight length seasonal values are derived from
	Span time.Duration

	RGB        Table[RGBSpec]
	Brightness Table[BrightnessSpec]
	Fan        Table[FanSpec]
	Humidifier Table[HumidifierSpec]

	FanSlot        time.Duration
	FanMargin      time.Duration
	HumidifierTail time.Duration
}

// NextAlarm returns the first point starting after now. Once the last point
// of the day has started there is none.
func (d *Schedule) NextAlarm(now time.Time) (time.Time, bool) {
	for _, tp := range d.Points {
		if tp.Start.After(now) {
			return tp.Start, true
		}
	}
	return time.Time{}, false
}

// Commands resolves every family's active window at now into the commands
// that resume it there, in dispatch order: lights first, then climate.
func (d *Schedule) Commands(now time.Time) []actuator.Command {
	var cmds []actuator.Command
	if cmd, ok := d.RGBCommand(now); ok {
		cmds = append(cmds, cmd)
	}
	if uv, white, ok := d.BrightnessCommands(now); ok {
		cmds = append(cmds, uv, white)
	}
	if cmd, ok := d.FanCommand(now); ok {
		cmds = append(cmds, cmd)
	}
	if cmd, ok := d.HumidifierCommand(now); ok {
		cmds = append(cmds, cmd)
	}
	return cmds
}

// RGBCommand resolves the strip transition at now
func (d *Schedule) RGBCommand(now time.Time) (actuator.Command, bool) {
	w, ok := d.RGB.Active(&d.Points, now)
	if !ok {
		return actuator.Command{}, false
	}
	return actuator.Command{
		Kind:    actuator.KindRGB,
		Mode:    w.Spec.Mode,
		Src:     actuator.Value{Color: w.Spec.Src},
		Dst:     actuator.Value{Color: w.Spec.Dst},
		Total:   w.Total,
		Elapsed: w.Elapsed,
	}, true
}

// BrightnessCommands resolves the UV and white transitions at now. Both
// channels rise from dark towards their peak over the same window.
func (d *Schedule) BrightnessCommands(now time.Time) (uv, white actuator.Command, ok bool) {
	w, ok := d.Brightness.Active(&d.Points, now)
	if !ok {
		return uv, white, false
	}
	uv = actuator.Command{
		Kind:    actuator.KindUV,
		Mode:    w.Spec.UVMode,
		Dst:     actuator.Value{Level: uint8(w.Spec.UVPeak)},
		Total:   w.Total,
		Elapsed: w.Elapsed,
	}
	white = actuator.Command{
		Kind:    actuator.KindWhite,
		Mode:    w.Spec.WhiteMode,
		Dst:     actuator.Value{Level: uint8(w.Spec.WhitePeak)},
		Total:   w.Total,
		Elapsed: w.Elapsed,
	}
	return uv, white, true
}

// FanCommand resolves the fan duty cycle at now. The rest of the window is
// divided into whole slots; with less than one slot left the fan stays off.
func (d *Schedule) FanCommand(now time.Time) (actuator.Command, bool) {
	w, ok := d.Fan.Active(&d.Points, now)
	if !ok {
		return actuator.Command{}, false
	}
	cmd := actuator.Command{
		Kind:   actuator.KindFan,
		Mode:   actuator.ModeDuty,
		Dst:    actuator.Value{Speed: w.Spec.Speed},
		Repeat: w.Spec.Repeat,
	}
	if w.Spec.Speed == actuator.SpeedNone {
		return cmd, true
	}

	remaining := w.Remaining().Truncate(time.Second)
	count := int64(remaining / d.FanSlot)
	if count <= 0 {
		cmd.Dst.Speed = actuator.SpeedNone
		return cmd, true
	}
	seconds := int64((remaining + d.FanMargin) / time.Second)
	cmd.Total = time.Duration(seconds/count) * time.Second
	cmd.OnTime = time.Duration(int64(w.Spec.DutyPercent)*cmd.Total.Milliseconds()/100) * time.Millisecond
	return cmd, true
}

// HumidifierCommand resolves the humidifier at now. A run is only started
// when more than the minimum tail is left in the window.
func (d *Schedule) HumidifierCommand(now time.Time) (actuator.Command, bool) {
	w, ok := d.Humidifier.Active(&d.Points, now)
	if !ok {
		return actuator.Command{}, false
	}
	cmd := actuator.Command{
		Kind: actuator.KindHumidifier,
		Mode: actuator.ModeDuty,
	}
	if w.Spec.Enabled && w.Remaining() > d.HumidifierTail {
		cmd.Dst.On = true
		cmd.Repeat = w.Spec.Repeat
		cmd.Total = w.Total
		cmd.OnTime = w.Spec.OnDuration
	}
	return cmd, true
}

// PointInfo is the printable form of a time point
type PointInfo struct {
	Name      string    `json:"name"`
	Start     time.Time `json:"start"`
	IntervalS int64     `json:"interval_s"`
}

// WindowInfo is the printable form of one compressed window
type WindowInfo struct {
	Family string    `json:"family"`
	Point  string    `json:"point"`
	Start  time.Time `json:"start"`
	TotalS int64     `json:"total_s"`
}

// Summary lists the day's points in order
func (d *Schedule) Summary() []PointInfo {
	out := make([]PointInfo, PointCount)
	for p, tp := range d.Points {
		out[p] = PointInfo{
			Name:      Point(p).String(),
			Start:     tp.Start,
			IntervalS: int64(tp.Interval / time.Second),
		}
	}
	return out
}

// Windows lists every populated window, grouped by family
func (d *Schedule) Windows() []WindowInfo {
	var out []WindowInfo
	add := func(family string, windows [PointCount]time.Duration, populated func(p int) bool) {
		for p := range windows {
			if !populated(p) {
				continue
			}
			out = append(out, WindowInfo{
				Family: family,
				Point:  Point(p).String(),
				Start:  d.Points[p].Start,
				TotalS: int64(windows[p] / time.Second),
			})
		}
	}
	add("rgb", d.RGB.Windows, func(p int) bool { return d.RGB.Specs[p] != nil })
	add("brightness", d.Brightness.Windows, func(p int) bool { return d.Brightness.Specs[p] != nil })
	add("fan", d.Fan.Windows, func(p int) bool { return d.Fan.Specs[p] != nil })
	add("humidifier", d.Humidifier.Windows, func(p int) bool { return d.Humidifier.Specs[p] != nil })
	return out
}
