package schedule

import (
	"log/slog"
	"time"

	"github.com/saaga0h/solarium/internal/actuator"
	"github.com/saaga0h/solarium/internal/solar"
)

// crossings maps each sun-driven point to the elevation it is computed at
// and whether it takes the morning or the evening crossing.
var crossings = [PointCount]struct {
	elevation float64
	evening   bool
}{
	MorningBlueHour:   {solar.ElevationCivilTwilight, false},
	MorningGoldenHour: {solar.ElevationBlueHour, false},
	Rise:              {solar.ElevationHorizon, false},
	Day:               {solar.ElevationGoldenHour, false},
	EveningGoldenHour: {solar.ElevationGoldenHour, true},
	Set:               {solar.ElevationHorizon, true},
	EveningBlueHour:   {solar.ElevationBlueHour, true},
	Night:             {solar.ElevationCivilTwilight, true},
}

// Builder computes the schedule of a calendar day at a fixed location
type Builder struct {
	lat     float64
	lon     float64
	loc     *time.Location
	catalog *Catalog
	logger  *slog.Logger
}

// NewBuilder creates a builder. The catalog is only read.
func NewBuilder(lat, lon float64, loc *time.Location, catalog *Catalog, logger *slog.Logger) *Builder {
	return &Builder{
		lat:     lat,
		lon:     lon,
		loc:     loc,
		catalog: catalog,
		logger:  logger,
	}
}

// Location returns the zone local midnight is taken in
func (b *Builder) Location() *time.Location {
	return b.loc
}

// Build computes the ten time points of now's local calendar day and folds
// the catalog over them. Building twice for the same day yields equal
// results.
func (b *Builder) Build(now time.Time) *Schedule {
	startOfDay, ref := References(now, b.loc)

	d := &Schedule{
		Date:           startOfDay,
		FanSlot:        b.catalog.FanSlot,
		FanMargin:      b.catalog.FanMargin,
		HumidifierTail: b.catalog.HumidifierTail,
	}
	d.Points = b.points(startOfDay, ref)
	d.Span = d.Points[EveningGoldenHour].Start.Sub(d.Points[Day].Start)

	d.RGB = fold(&d.Points, b.catalog.RGB)
	d.Brightness = fold(&d.Points, b.catalog.Brightness)
	d.Fan = fold(&d.Points, b.catalog.Fan)
	d.Humidifier = fold(&d.Points, b.catalog.Humidifier)

	b.scale(d)

	b.logger.Debug("Schedule built",
		"day", startOfDay.Format("2006-01-02"),
		"span", d.Span,
		"rise", d.Points[Rise].Start.In(b.loc).Format(time.TimeOnly),
		"set", d.Points[Set].Start.In(b.loc).Format(time.TimeOnly))

	return d
}

// points fills the start of every point, then walks them last to first so
// each interval is the distance to the following start. Night runs to the
// next local midnight.
func (b *Builder) points(startOfDay, ref time.Time) [PointCount]TimePoint {
	var points [PointCount]TimePoint
	points[Midnight].Start = startOfDay

	cache := map[float64][2]time.Time{}
	for p := MorningBlueHour; p <= Night; p++ {
		if p == Noon {
			continue
		}
		c := crossings[p]
		pair, ok := cache[c.elevation]
		if !ok {
			pair = b.crossing(startOfDay, ref, c.elevation)
			cache[c.elevation] = pair
		}
		if c.evening {
			points[p].Start = pair[1]
		} else {
			points[p].Start = pair[0]
		}
	}

	rise, set := points[Rise].Start, points[Set].Start
	points[Noon].Start = rise.Add(set.Sub(rise) / 2).Truncate(time.Second)

	// Collapsed crossings can land a second either side of the computed
	// noon; starts never go backwards and never leave the day.
	end := startOfDay.Add(24 * time.Hour)
	for p := MorningBlueHour; p <= Night; p++ {
		if points[p].Start.Before(points[p-1].Start) {
			points[p].Start = points[p-1].Start
		}
		if points[p].Start.After(end) {
			points[p].Start = end
		}
	}

	next := end
	for p := Night; p >= Midnight; p-- {
		points[p].Interval = next.Sub(points[p].Start)
		next = points[p].Start
	}
	return points
}

// crossing returns the morning and evening crossing of elevation. When the
// sun never climbs to it both collapse onto solar noon. When it never sinks
// below it they move out to solar midnight on either side, bounded by the
// day, so the night phases shrink instead of the daylight ones.
func (b *Builder) crossing(startOfDay, ref time.Time, elevation float64) [2]time.Time {
	morning, evening, ok := solar.Crossing(ref, b.lat, b.lon, elevation)
	if ok {
		return [2]time.Time{morning, evening}
	}

	transit := solar.Transit(ref, b.lon)
	geometry := solar.Classify(ref, b.lat, b.lon, elevation)
	b.logger.Warn("Sun does not cross elevation on this day",
		"elevation", elevation,
		"latitude", b.lat,
		"geometry", geometry.String(),
		"day", ref.Format("2006-01-02"))

	if geometry != solar.GeometryAbove {
		return [2]time.Time{transit, transit}
	}
	morning = transit.Add(-12 * time.Hour)
	if morning.Before(startOfDay) {
		morning = startOfDay
	}
	evening = transit.Add(12 * time.Hour)
	if end := startOfDay.Add(24 * time.Hour); evening.After(end) {
		evening = end
	}
	return [2]time.Time{morning, evening}
}

// scale replaces the seasonal values of the day's spec copies. The
// extrapolation past the configured ranges is kept on purpose.
func (b *Builder) scale(d *Schedule) {
	s := b.catalog.Seasons

	uv := s.Scale(d.Span, s.UVPeak)
	white := s.Scale(d.Span, s.WhitePeak)
	fan := s.Scale(d.Span, s.FanDuty)
	humidifier := time.Duration(s.Scale(d.Span, s.HumidifierOn)) * time.Second

	for _, spec := range d.Brightness.Specs {
		if spec == nil {
			continue
		}
		if spec.UVMode == actuator.ModeSine {
			spec.UVPeak = uv
		}
		if spec.WhiteMode == actuator.ModeSine {
			spec.WhitePeak = white
		}
	}
	for _, spec := range d.Fan.Specs {
		if spec != nil && spec.Seasonal {
			spec.DutyPercent = fan
		}
	}
	for _, spec := range d.Humidifier.Specs {
		if spec != nil && spec.Enabled {
			spec.OnDuration = humidifier
		}
	}
}
