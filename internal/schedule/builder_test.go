package schedule

import (
	"io"
	"log/slog"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/solarium/internal/actuator"
	"github.com/saaga0h/solarium/internal/solar"
)

const (
	lviv = 49.839684
	lon  = 24.029716
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func kyiv(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Kiev")
	require.NoError(t, err)
	return loc
}

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	return NewBuilder(lviv, lon, kyiv(t), catalog, quietLogger())
}

func TestBuildLeapDay(t *testing.T) {
	b := newBuilder(t)
	// 2024-02-29 12:00 local
	now := time.Unix(1709200800, 0)
	d := b.Build(now)

	want := [PointCount]int64{
		1709157600,
		1709181460,
		1709182209,
		1709183404,
		1709186044,
		1709203063,
		1709220082,
		1709222722,
		1709223917,
		1709224666,
	}
	for p, unix := range want {
		assert.InDelta(t, unix, d.Points[p].Start.Unix(), 1, Point(p).String())
	}
	assert.InDelta(t, 19334, d.Points[Night].Interval.Seconds(), 1)
	assert.Equal(t, d.Points[EveningGoldenHour].Start.Sub(d.Points[Day].Start), d.Span)
}

func TestPointsAreOrderedAllYear(t *testing.T) {
	b := newBuilder(t)
	day := time.Date(2024, 1, 1, 9, 0, 0, 0, b.Location())

	for i := 0; i < 366; i++ {
		assertOrdered(t, b.Build(day.AddDate(0, 0, i)))
	}
}

func assertOrdered(t *testing.T, d *Schedule) {
	t.Helper()
	var total time.Duration
	for p := 1; p < PointCount; p++ {
		assert.False(t, d.Points[p].Start.Before(d.Points[p-1].Start),
			"%s: %s before %s", d.Date.Format("2006-01-02"), Point(p), Point(p-1))
	}
	for _, tp := range d.Points {
		assert.GreaterOrEqual(t, tp.Interval, time.Duration(0))
		total += tp.Interval
	}
	assert.Equal(t, 24*time.Hour, total)
}

func TestPointsAreOrderedAtTemperateLocations(t *testing.T) {
	locations := []struct {
		name string
		lat  float64
		lon  float64
		zone string
	}{
		{"london", 51.51, -0.13, "Europe/London"},
		{"new york", 40.71, -74.01, "America/New_York"},
		{"moscow", 55.0, 37.62, "Europe/Moscow"},
		{"tokyo", 35.68, 139.69, "Asia/Tokyo"},
		{"sydney", -33.87, 151.21, "Australia/Sydney"},
		{"cape town", -33.92, 18.42, "Africa/Johannesburg"},
		{"auckland", -36.85, 174.76, "Pacific/Auckland"},
		{"ushuaia", -54.8, -68.3, "America/Argentina/Ushuaia"},
	}

	catalog, err := DefaultCatalog()
	require.NoError(t, err)

	for _, l := range locations {
		t.Run(l.name, func(t *testing.T) {
			loc, err := time.LoadLocation(l.zone)
			require.NoError(t, err)
			b := NewBuilder(l.lat, l.lon, loc, catalog, quietLogger())

			first := time.Date(2024, 1, 1, 12, 0, 0, 0, loc)
			for i := 0; i < 366; i++ {
				d := b.Build(first.AddDate(0, 0, i))
				assertOrdered(t, d)
				assert.True(t, d.Points[Rise].Start.Before(d.Points[Set].Start),
					"%s: no daylight", d.Date.Format("2006-01-02"))
			}
		})
	}
}

func TestWhiteNightKeepsPointsOrdered(t *testing.T) {
	oslo, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	b := NewBuilder(63.43, 10.39, oslo, catalog, quietLogger())

	night := time.Date(2024, 6, 21, 2, 0, 0, 0, oslo)
	d := b.Build(night)
	assertOrdered(t, d)

	_, ref := References(night, oslo)
	transit := solar.Transit(ref, 10.39)
	p := d.Points

	// The sun stays above civil twilight and the blue hour elevation
	assert.Equal(t, transit.Add(-12*time.Hour), p[MorningBlueHour].Start)
	assert.Equal(t, p[MorningBlueHour].Start, p[MorningGoldenHour].Start)
	assert.Equal(t, 1, p[MorningBlueHour].Start.In(oslo).Hour())
	assert.True(t, p[MorningGoldenHour].Start.Before(p[Rise].Start))

	assert.Equal(t, d.Date.Add(24*time.Hour), p[EveningBlueHour].Start)
	assert.Equal(t, d.Date.Add(24*time.Hour), p[Night].Start)
	assert.True(t, p[Set].Start.Before(p[EveningBlueHour].Start))
	assert.Zero(t, p[Night].Interval)

	alarm, ok := d.NextAlarm(night)
	require.True(t, ok)
	assert.Equal(t, p[Rise].Start, alarm, "rise is the next point after the short night")

	alarm, ok = d.NextAlarm(p[Set].Start)
	require.True(t, ok)
	assert.Equal(t, d.Date.Add(24*time.Hour), alarm)
}

func TestPolarNightCollapsesOntoNoon(t *testing.T) {
	oslo, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	b := NewBuilder(69.65, 18.96, oslo, catalog, quietLogger())

	d := b.Build(time.Date(2024, 12, 21, 12, 0, 0, 0, oslo))
	assertOrdered(t, d)

	p := d.Points
	assert.Equal(t, p[Rise].Start, p[Set].Start)
	assert.Equal(t, p[Day].Start, p[EveningGoldenHour].Start)
	assert.Zero(t, d.Span)
	assert.True(t, p[MorningGoldenHour].Start.Before(p[Rise].Start), "blue hour still happens")
	assert.True(t, p[Set].Start.Before(p[EveningBlueHour].Start))
}

func TestBuildOnShortestDayUsesMinimums(t *testing.T) {
	loc := kyiv(t)
	noon := time.Date(2024, 12, 21, 12, 0, 0, 0, loc)

	reference := newBuilder(t).Build(noon)

	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	catalog.Seasons.Shortest = reference.Span
	require.Greater(t, catalog.Seasons.Longest, reference.Span)

	d := NewBuilder(lviv, lon, loc, catalog, quietLogger()).Build(noon)
	require.Equal(t, reference.Span, d.Span)

	s := catalog.Seasons
	assert.Equal(t, s.UVPeak.Min, d.Brightness.Specs[Day].UVPeak)
	assert.Equal(t, s.WhitePeak.Min, d.Brightness.Specs[Day].WhitePeak)
	assert.Equal(t, s.FanDuty.Min, d.Fan.Specs[Day].DutyPercent)
	assert.Equal(t, time.Duration(s.HumidifierOn.Min)*time.Second, d.Humidifier.Specs[MorningBlueHour].OnDuration)

	uv, white, ok := d.BrightnessCommands(noon)
	require.True(t, ok)
	assert.Equal(t, uint8(s.UVPeak.Min), uv.Dst.Level)
	assert.Equal(t, uint8(s.WhitePeak.Min), white.Dst.Level)
}

func TestBuildIsIdempotent(t *testing.T) {
	b := newBuilder(t)
	now := time.Date(2024, 6, 21, 15, 30, 0, 0, b.Location())

	first := b.Build(now)
	second := b.Build(now)

	assert.Equal(t, first.Points, second.Points)
	assert.Equal(t, first.RGB, second.RGB)
	assert.Equal(t, first.Brightness, second.Brightness)
	assert.Equal(t, first.Fan, second.Fan)
	assert.Equal(t, first.Humidifier, second.Humidifier)
}

func TestBuildDoesNotMutateCatalog(t *testing.T) {
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	b := NewBuilder(lviv, lon, kyiv(t), catalog, quietLogger())

	b.Build(time.Date(2024, 6, 21, 12, 0, 0, 0, b.Location()))

	assert.Zero(t, catalog.Brightness[Day].UVPeak)
	assert.Zero(t, catalog.Fan[Day].DutyPercent)
	assert.Zero(t, catalog.Humidifier[MorningBlueHour].OnDuration)
}

func TestFoldWindows(t *testing.T) {
	b := newBuilder(t)
	d := b.Build(time.Unix(1709200800, 0))
	p := d.Points

	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"rgb midnight", d.RGB.Windows[Midnight], p[MorningBlueHour].Start.Sub(p[Midnight].Start)},
		{"rgb morning golden hour spans rise", d.RGB.Windows[MorningGoldenHour], p[Day].Start.Sub(p[MorningGoldenHour].Start)},
		{"rgb day spans noon", d.RGB.Windows[Day], p[EveningGoldenHour].Start.Sub(p[Day].Start)},
		{"rgb evening golden hour spans set", d.RGB.Windows[EveningGoldenHour], p[EveningBlueHour].Start.Sub(p[EveningGoldenHour].Start)},
		{"rgb night", d.RGB.Windows[Night], p[Night].Interval},
		{"rgb rise has no window", d.RGB.Windows[Rise], 0},
		{"brightness midnight", d.Brightness.Windows[Midnight], p[Day].Start.Sub(p[Midnight].Start)},
		{"brightness evening to midnight", d.Brightness.Windows[EveningGoldenHour], d.Date.Add(24 * time.Hour).Sub(p[EveningGoldenHour].Start)},
		{"humidifier morning blue hour", d.Humidifier.Windows[MorningBlueHour], p[MorningGoldenHour].Start.Sub(p[MorningBlueHour].Start)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
	assert.Nil(t, d.RGB.Specs[Rise])
	assert.Nil(t, d.RGB.Specs[Noon])
}

func TestActiveLastPointWins(t *testing.T) {
	var points [PointCount]TimePoint
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for p := range points {
		points[p] = TimePoint{Start: base.Add(time.Duration(p) * time.Hour), Interval: time.Hour}
	}
	// Rise and Day start together
	points[Day].Start = points[Rise].Start

	a, b := 1, 2
	var specs [PointCount]*int
	specs[Rise] = &a
	specs[Day] = &b
	table := fold(&points, specs)

	w, ok := table.Active(&points, points[Rise].Start)
	require.True(t, ok)
	assert.Equal(t, Day, w.Point)
	assert.Equal(t, 2, *w.Spec)

	_, ok = table.Active(&points, base.Add(time.Minute))
	assert.False(t, ok, "no spec before the first populated point")
}

func TestSeasonalScaling(t *testing.T) {
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	s := catalog.Seasons

	assert.Equal(t, s.UVPeak.Min, s.Scale(s.Shortest, s.UVPeak))
	assert.Equal(t, s.UVPeak.Max, s.Scale(s.Longest, s.UVPeak))
	assert.Equal(t, s.WhitePeak.Min, s.Scale(s.Shortest, s.WhitePeak))
	assert.Equal(t, s.HumidifierOn.Max, s.Scale(s.Longest, s.HumidifierOn))

	ranges := []Range{s.UVPeak, s.WhitePeak, s.FanDuty, s.HumidifierOn}
	for _, r := range ranges {
		prev := s.Scale(s.Shortest, r)
		for span := s.Shortest; span <= s.Longest; span += 7 * time.Minute {
			v := s.Scale(span, r)
			assert.GreaterOrEqual(t, v, prev)
			prev = v
		}
	}
}

func TestSeasonalScalingExtrapolates(t *testing.T) {
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	s := catalog.Seasons

	assert.Greater(t, s.Scale(s.Longest+2*time.Hour, s.UVPeak), s.UVPeak.Max)
	assert.Less(t, s.Scale(s.Shortest-2*time.Hour, s.UVPeak), s.UVPeak.Min)
}

func TestSeasonalValuesOfLeapDay(t *testing.T) {
	b := newBuilder(t)
	d := b.Build(time.Unix(1709200800, 0))

	assert.Equal(t, 73, d.Brightness.Specs[Day].UVPeak)
	assert.Equal(t, 193, d.Brightness.Specs[Day].WhitePeak)
	assert.Equal(t, 0, d.Brightness.Specs[Midnight].UVPeak, "smooth specs keep their peak")
	assert.Equal(t, 19, d.Fan.Specs[Day].DutyPercent)
	assert.Equal(t, 5, d.Fan.Specs[Night].DutyPercent)
	assert.Equal(t, 37*time.Second, d.Humidifier.Specs[MorningBlueHour].OnDuration)
	assert.Zero(t, d.Humidifier.Specs[Midnight].OnDuration)
}

func TestCommandsAtNoon(t *testing.T) {
	b := newBuilder(t)
	now := time.Unix(1709200800, 0)
	d := b.Build(now)

	cmds := d.Commands(now)
	require.Len(t, cmds, 5)

	kinds := make([]actuator.Kind, len(cmds))
	for i, c := range cmds {
		kinds[i] = c.Kind
	}
	assert.Equal(t, []actuator.Kind{
		actuator.KindRGB, actuator.KindUV, actuator.KindWhite, actuator.KindFan, actuator.KindHumidifier,
	}, kinds)

	rgb := cmds[0]
	assert.Equal(t, actuator.ModeSine, rgb.Mode)
	assert.Equal(t, "#dcdc00", rgb.Src.Color.String())
	assert.Equal(t, d.Span, rgb.Total)
	assert.Equal(t, now.Sub(d.Points[Day].Start), rgb.Elapsed)

	uv := cmds[1]
	assert.Equal(t, actuator.ModeSine, uv.Mode)
	assert.Equal(t, uint8(0), uv.Src.Level)
	assert.Equal(t, uint8(73), uv.Dst.Level)
	assert.Equal(t, rgb.Total, uv.Total)
	assert.Equal(t, uint8(193), cmds[2].Dst.Level)
}

func TestFanCommand(t *testing.T) {
	b := newBuilder(t)
	noon := time.Unix(1709200800, 0)
	d := b.Build(noon)

	cmd, ok := d.FanCommand(noon)
	require.True(t, ok)
	remaining := d.Fan.Windows[Day] - noon.Sub(d.Points[Day].Start)
	count := int64(remaining / (35 * time.Minute))
	require.Positive(t, count)

	wantTotal := time.Duration(int64((remaining+5*time.Minute)/time.Second)/count) * time.Second
	assert.Equal(t, actuator.SpeedMedium, cmd.Dst.Speed)
	assert.True(t, cmd.Repeat)
	assert.Equal(t, wantTotal, cmd.Total)
	assert.Equal(t, time.Duration(19*wantTotal.Milliseconds()/100)*time.Millisecond, cmd.OnTime)

	late := d.Points[EveningGoldenHour].Start.Add(-20 * time.Minute)
	cmd, ok = d.FanCommand(late)
	require.True(t, ok)
	assert.Equal(t, actuator.SpeedNone, cmd.Dst.Speed, "less than one slot left")

	cmd, ok = d.FanCommand(d.Points[MorningBlueHour].Start)
	require.True(t, ok)
	assert.Equal(t, actuator.SpeedNone, cmd.Dst.Speed)
	assert.Zero(t, cmd.Total)
}

func TestHumidifierCommand(t *testing.T) {
	b := newBuilder(t)
	d := b.Build(time.Unix(1709200800, 0))
	start := d.Points[MorningBlueHour].Start

	cmd, ok := d.HumidifierCommand(start.Add(time.Minute))
	require.True(t, ok)
	assert.True(t, cmd.Dst.On)
	assert.False(t, cmd.Repeat)
	assert.Equal(t, d.Humidifier.Windows[MorningBlueHour], cmd.Total)
	assert.Equal(t, 37*time.Second, cmd.OnTime)

	window := d.Humidifier.Windows[MorningBlueHour]
	cmd, ok = d.HumidifierCommand(start.Add(window - 5*time.Minute))
	require.True(t, ok)
	assert.False(t, cmd.Dst.On, "too little time left for a run")

	cmd, ok = d.HumidifierCommand(time.Unix(1709200800, 0))
	require.True(t, ok)
	assert.False(t, cmd.Dst.On)
}

func TestNextAlarm(t *testing.T) {
	b := newBuilder(t)
	noon := time.Unix(1709200800, 0)
	d := b.Build(noon)

	alarm, ok := d.NextAlarm(noon)
	require.True(t, ok)
	assert.Equal(t, d.Points[Noon].Start, alarm)

	alarm, ok = d.NextAlarm(d.Points[Noon].Start)
	require.True(t, ok)
	assert.Equal(t, d.Points[EveningGoldenHour].Start, alarm, "a point starting now is not next")

	_, ok = d.NextAlarm(d.Points[Night].Start.Add(time.Minute))
	assert.False(t, ok)
}

func TestPolarDayCollapsesOntoNoon(t *testing.T) {
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	b := NewBuilder(80, 15, time.UTC, catalog, quietLogger())

	d := b.Build(time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC))

	assert.Equal(t, d.Points[Rise].Start, d.Points[Set].Start)
	for p := 1; p < PointCount; p++ {
		assert.False(t, d.Points[p].Start.Before(d.Points[p-1].Start))
	}
}

func TestSummaryAndWindows(t *testing.T) {
	b := newBuilder(t)
	d := b.Build(time.Unix(1709200800, 0))

	summary := d.Summary()
	require.Len(t, summary, PointCount)
	assert.Equal(t, "midnight", summary[0].Name)
	assert.Equal(t, "night", summary[PointCount-1].Name)
	assert.Equal(t, int64(d.Points[Noon].Interval/time.Second), summary[Noon].IntervalS)

	var perFamily = map[string]int{}
	var rgbTotal int64
	for _, w := range d.Windows() {
		perFamily[w.Family]++
		if w.Family == "rgb" {
			rgbTotal += w.TotalS
		}
	}
	assert.Equal(t, map[string]int{"rgb": 7, "brightness": 3, "fan": 5, "humidifier": 5}, perFamily)
	assert.Equal(t, int64(24*60*60), rgbTotal, "rgb windows cover the whole day")
}
