// Package schedule turns a calendar day and a location into the day's solar
// time points and the per-actuator transition windows that hang off them.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Point is one of the ten named moments of a simulated day
type Point int

const (
	Midnight Point = iota
	MorningBlueHour
	MorningGoldenHour
	Rise
	Day
	Noon
	EveningGoldenHour
	Set
	EveningBlueHour
	Night
)

// PointCount is the number of time points in a day
const PointCount = 10

var pointNames = [PointCount]string{
	"midnight",
	"morning_blue_hour",
	"morning_golden_hour",
	"rise",
	"day",
	"noon",
	"evening_golden_hour",
	"set",
	"evening_blue_hour",
	"night",
}

func (p Point) String() string {
	if p >= 0 && int(p) < PointCount {
		return pointNames[p]
	}
	return fmt.Sprintf("point(%d)", int(p))
}

// ParsePoint parses a point name such as "evening_golden_hour"
func ParsePoint(s string) (Point, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range pointNames {
		if name == s {
			return Point(i), nil
		}
	}
	return 0, fmt.Errorf("unknown time point: %q", s)
}

// TimePoint is the start of a point and the time until the next one
type TimePoint struct {
	Start    time.Time     `json:"start"`
	Interval time.Duration `json:"interval"`
}

// End returns the start of the following point
func (tp TimePoint) End() time.Time {
	return tp.Start.Add(tp.Interval)
}

// References returns the local start of now's calendar day and the UTC
// reference instant (12:01 UTC of the same calendar date) every solar phase
// of that day is computed against.
func References(now time.Time, loc *time.Location) (startOfDay, reference time.Time) {
	y, m, d := now.In(loc).Date()
	startOfDay = time.Date(y, m, d, 0, 0, 0, 0, loc)
	reference = time.Date(y, m, d, 12, 1, 0, 0, time.UTC)
	return startOfDay, reference
}
