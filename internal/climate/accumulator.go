// Package climate averages the enclosure's pressure, temperature and
// humidity readings into a per-minute value and a day of 20-minute slots.
package climate

import (
	"time"
)

// HistorySlots is the number of 20-minute averages kept
const HistorySlots = 24

// Sampling periods
const (
	SamplePeriod = 10 * time.Second
	MinutePeriod = time.Minute
	SlotPeriod   = 20 * time.Minute
)

// PressureDivisor scales raw sensor pressure to the reported unit
const PressureDivisor = 1000

// Reading is one raw sensor sample
type Reading struct {
	Pressure    uint32 `json:"pressure"`
	Temperature int32  `json:"temperature"`
	Humidity    int32  `json:"humidity"`
}

// Measurement is an averaged reading with pressure in reported units
type Measurement struct {
	Pressure    uint32 `json:"pressure"`
	Temperature int32  `json:"temperature"`
	Humidity    int32  `json:"humidity"`
}

type sum struct {
	pressure    uint64
	temperature int64
	humidity    int64
	count       int64
}

func (s *sum) add(r Reading) {
	s.pressure += uint64(r.Pressure)
	s.temperature += int64(r.Temperature)
	s.humidity += int64(r.Humidity)
	s.count++
}

func (s *sum) merge(o sum) {
	s.pressure += o.pressure
	s.temperature += o.temperature
	s.humidity += o.humidity
	s.count += o.count
}

func (s sum) average() Measurement {
	if s.count == 0 {
		return Measurement{}
	}
	return Measurement{
		Pressure:    uint32(s.pressure / uint64(s.count) / PressureDivisor),
		Temperature: int32(s.temperature / s.count),
		Humidity:    int32(s.humidity / s.count),
	}
}

// History holds the latest HistorySlots averages, oldest first
type History [HistorySlots]Measurement

// push drops the oldest slot and appends m
func (h *History) push(m Measurement) {
	copy(h[:], h[1:])
	h[HistorySlots-1] = m
}

// Accumulator turns a 1 s tick into 10 s samples, minute averages and
// 20-minute slots. Period boundaries are aligned to the local clock.
type Accumulator struct {
	loc *time.Location

	nextSample time.Time
	nextMinute time.Time
	nextSlot   time.Time

	minute sum
	slot   sum

	latest  Measurement
	history History
}

// Update is what a Tick produced
type Update struct {
	Sampled bool
	// Minute is set when a minute average was completed
	Minute *Measurement
	// Slot is set when a 20-minute slot was pushed to the history
	Slot *Measurement
}

// NewAccumulator creates an accumulator whose first boundaries follow now
func NewAccumulator(now time.Time, loc *time.Location) *Accumulator {
	a := &Accumulator{loc: loc}
	a.nextSample = align(now, SamplePeriod, loc)
	a.nextMinute = align(now, MinutePeriod, loc)
	a.nextSlot = align(now, SlotPeriod, loc)
	return a
}

// align returns the first local period boundary after now
func align(now time.Time, period time.Duration, loc *time.Location) time.Time {
	next := now.Add(period)
	local := next.In(loc)
	into := time.Duration(local.Hour())*time.Hour +
		time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second
	return next.Add(-(into % period)).Truncate(time.Second)
}

// Tick samples read when a 10 s boundary has passed and rolls the longer
// periods over when theirs have.
func (a *Accumulator) Tick(now time.Time, read func() Reading) Update {
	var u Update
	if now.Before(a.nextSample) {
		return u
	}
	a.nextSample = align(now, SamplePeriod, a.loc)
	a.minute.add(read())
	u.Sampled = true

	if now.Before(a.nextMinute) {
		return u
	}
	a.nextMinute = align(now, MinutePeriod, a.loc)
	a.latest = a.minute.average()
	m := a.latest
	u.Minute = &m
	a.slot.merge(a.minute)
	a.minute = sum{}

	if now.Before(a.nextSlot) {
		return u
	}
	a.nextSlot = align(now, SlotPeriod, a.loc)
	s := a.slot.average()
	a.history.push(s)
	u.Slot = &s
	a.slot = sum{}
	return u
}

// Latest returns the last minute average
func (a *Accumulator) Latest() Measurement {
	return a.latest
}

// History returns a copy of the 20-minute slots
func (a *Accumulator) History() History {
	return a.history
}
