// Package solar computes the moments the sun crosses a given elevation.
//
// The model is the low-precision "sunrise equation": mean anomaly, equation
// of the centre, ecliptic longitude, transit and declination for the Julian
// day of the reference instant. It is accurate to roughly a minute at
// temperate latitudes, which is far below the resolution of the lighting
// schedule built on top of it.
package solar

import (
	"math"
	"time"

	"github.com/sixdouglas/suncalc"
)

// Standard elevations (degrees) used by the daylight phases
const (
	ElevationCivilTwilight = -6.0
	ElevationBlueHour      = -4.0
	ElevationHorizon       = -0.83
	ElevationGoldenHour    = 6.0
)

const (
	unixJulianEpoch = 2440587.5 // Julian date of 1970-01-01T00:00Z
	j2000           = 2451545.0 // Julian date of 2000-01-01T12:00Z
	leapSecondFix   = 0.0008    // accumulated leap seconds and TT offset, in days
	unixJ2000       = 946728000 // Unix time of 2000-01-01T12:00Z
	axialTilt       = 23.44
	perihelion      = 102.9372
	secondsPerDay   = 86400.0
)

// Crossing returns the morning (rising) and evening (setting) moments at
// which the sun passes elevation degrees on the day containing ref.
// Results are truncated to whole seconds. When the sun never crosses the
// elevation both times are the zero time and ok is false; Classify tells
// which side of it the sun stays on.
func Crossing(ref time.Time, lat, lon, elevation float64) (morning, evening time.Time, ok bool) {
	transit, omega := transitAndHourAngle(ref, lat, lon, elevation)
	if math.IsNaN(omega) {
		return time.Time{}, time.Time{}, false
	}
	return fromJ2000(transit - omega/360), fromJ2000(transit + omega/360), true
}

// HourAngle returns the hour angle (degrees) of the elevation crossing on
// the day of ref. NaN signals a degenerate geometry.
func HourAngle(ref time.Time, lat, lon, elevation float64) float64 {
	_, omega := transitAndHourAngle(ref, lat, lon, elevation)
	return omega
}

// Transit returns the moment of solar noon on the day of ref.
func Transit(ref time.Time, lon float64) time.Time {
	transit, _ := transitAndHourAngle(ref, 0, lon, 0)
	return fromJ2000(transit)
}

// Geometry tells how the sun's daily path relates to an elevation
type Geometry int

const (
	// GeometryCrosses means the sun passes the elevation twice
	GeometryCrosses Geometry = iota
	// GeometryAbove means the sun never sinks below it (white night)
	GeometryAbove
	// GeometryBelow means the sun never climbs to it (polar night)
	GeometryBelow
)

func (g Geometry) String() string {
	switch g {
	case GeometryCrosses:
		return "crosses"
	case GeometryAbove:
		return "above"
	case GeometryBelow:
		return "below"
	}
	return "unknown"
}

// Classify reports whether the sun crosses elevation on the day of ref
func Classify(ref time.Time, lat, lon, elevation float64) Geometry {
	_, cosOmega := transitAndCosHourAngle(ref, lat, lon, elevation)
	switch {
	case cosOmega < -1:
		return GeometryAbove
	case cosOmega > 1 || math.IsNaN(cosOmega):
		return GeometryBelow
	}
	return GeometryCrosses
}

func transitAndHourAngle(ref time.Time, lat, lon, elevation float64) (transit, omega float64) {
	transit, cosOmega := transitAndCosHourAngle(ref, lat, lon, elevation)
	return transit, acosDeg(cosOmega)
}

func transitAndCosHourAngle(ref time.Time, lat, lon, elevation float64) (transit, cosOmega float64) {
	julian := math.Floor(float64(ref.Unix())/secondsPerDay + unixJulianEpoch)
	n := julian - j2000 + leapSecondFix

	// Mean solar noon
	jStar := -lon/360 + n

	m := math.Mod(357.5291+0.98560028*jStar, 360)
	c := 1.9148*sinDeg(m) + 0.02*sinDeg(2*m) + 0.0003*sinDeg(3*m)
	lambda := math.Mod(m+c+180+perihelion, 360)

	transit = jStar + 0.0053*sinDeg(m) - 0.0069*sinDeg(2*lambda)

	delta := asinDeg(sinDeg(lambda) * sinDeg(axialTilt))

	cosOmega = (sinDeg(elevation) - sinDeg(lat)*sinDeg(delta)) / (cosDeg(lat) * cosDeg(delta))

	return transit, cosOmega
}

// Altitude returns the sun's altitude above the horizon in degrees at t.
func Altitude(t time.Time, lat, lon float64) float64 {
	pos := suncalc.GetPosition(t, lat, lon)
	return pos.Altitude * 180 / math.Pi
}

func fromJ2000(days float64) time.Time {
	return time.Unix(int64(days*secondsPerDay+unixJ2000), 0)
}

func sinDeg(d float64) float64 { return math.Sin(d * math.Pi / 180) }
func cosDeg(d float64) float64 { return math.Cos(d * math.Pi / 180) }

func asinDeg(x float64) float64 { return math.Asin(x) * 180 / math.Pi }
func acosDeg(x float64) float64 { return math.Acos(x) * 180 / math.Pi }
