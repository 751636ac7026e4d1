package schedule

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/saaga0h/solarium/internal/actuator"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// RGBSpec is the strip transition owned by a time point
type RGBSpec struct {
	Src  actuator.Color `yaml:"src"`
	Dst  actuator.Color `yaml:"dst"`
	Mode actuator.Mode  `yaml:"mode"`
}

// BrightnessSpec drives the UV and white channels from a time point. Peaks
// of sine channels are replaced by the seasonal value on every build.
type BrightnessSpec struct {
	UVMode    actuator.Mode `yaml:"uv_mode"`
	UVPeak    int           `yaml:"uv_peak"`
	WhiteMode actuator.Mode `yaml:"white_mode"`
	WhitePeak int           `yaml:"white_peak"`
}

// FanSpec drives the fan from a time point. Seasonal specs take their duty
// percent from the day length.
type FanSpec struct {
	Speed       actuator.FanSpeed `yaml:"speed"`
	Repeat      bool              `yaml:"repeat"`
	DutyPercent int               `yaml:"duty_percent"`
	Seasonal    bool              `yaml:"seasonal"`
}

// HumidifierSpec drives the humidifier from a time point. Enabled specs take
// their on-duration from the day length.
type HumidifierSpec struct {
	Enabled    bool          `yaml:"enabled"`
	Repeat     bool          `yaml:"repeat"`
	OnDuration time.Duration `yaml:"on_duration"`
}

// Range is an inclusive [Min, Max] pair
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Seasons maps day length onto the seasonal peaks
type Seasons struct {
	Shortest     time.Duration `yaml:"shortest"`
	Longest      time.Duration `yaml:"longest"`
	UVPeak       Range         `yaml:"uv_peak"`
	WhitePeak    Range         `yaml:"white_peak"`
	FanDuty      Range         `yaml:"fan_duty"`
	HumidifierOn Range         `yaml:"humidifier_on_seconds"`
}

// Scale linearly maps span from [Shortest, Longest] onto r using whole
// seconds and integer division. Spans outside the reference range
// extrapolate past r; nothing is clamped.
func (s Seasons) Scale(span time.Duration, r Range) int {
	shortest := int64(s.Shortest / time.Second)
	longest := int64(s.Longest / time.Second)
	v := int64(span/time.Second) - shortest
	v *= int64(r.Max - r.Min)
	v /= longest - shortest
	return int(v) + r.Min
}

// Catalog is the static set of transitions, one sparse table per actuator
// family. A nil entry means the point does not start a new window.
type Catalog struct {
	RGB        [PointCount]*RGBSpec
	Brightness [PointCount]*BrightnessSpec
	Fan        [PointCount]*FanSpec
	Humidifier [PointCount]*HumidifierSpec

	Seasons Seasons

	// FanSlot is the length of one fan on/off cycle; FanMargin pads the
	// remaining window before it is divided into slots.
	FanSlot   time.Duration
	FanMargin time.Duration
	// HumidifierTail is the minimum time left in a window for a humidifier run
	HumidifierTail time.Duration
}

type catalogFile struct {
	Seasons        Seasons                   `yaml:"seasons"`
	FanSlot        time.Duration             `yaml:"fan_slot"`
	FanMargin      time.Duration             `yaml:"fan_margin"`
	HumidifierTail time.Duration             `yaml:"humidifier_tail"`
	RGB            map[string]RGBSpec        `yaml:"rgb"`
	Brightness     map[string]BrightnessSpec `yaml:"brightness"`
	Fan            map[string]FanSpec        `yaml:"fan"`
	Humidifier     map[string]HumidifierSpec `yaml:"humidifier"`
}

// DefaultCatalog returns the built-in catalog
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog file; an empty path yields the built-in catalog
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		Seasons:        f.Seasons,
		FanSlot:        f.FanSlot,
		FanMargin:      f.FanMargin,
		HumidifierTail: f.HumidifierTail,
	}

	if err := fill(&c.RGB, f.RGB); err != nil {
		return nil, fmt.Errorf("rgb: %w", err)
	}
	if err := fill(&c.Brightness, f.Brightness); err != nil {
		return nil, fmt.Errorf("brightness: %w", err)
	}
	if err := fill(&c.Fan, f.Fan); err != nil {
		return nil, fmt.Errorf("fan: %w", err)
	}
	if err := fill(&c.Humidifier, f.Humidifier); err != nil {
		return nil, fmt.Errorf("humidifier: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func fill[T any](table *[PointCount]*T, entries map[string]T) error {
	for name, spec := range entries {
		p, err := ParsePoint(name)
		if err != nil {
			return err
		}
		spec := spec
		table[p] = &spec
	}
	return nil
}

// Validate checks the catalog for values no build can make sense of
func (c *Catalog) Validate() error {
	s := c.Seasons
	if s.Shortest <= 0 || s.Longest <= s.Shortest {
		return fmt.Errorf("seasons: shortest day must be positive and shorter than the longest")
	}
	for name, r := range map[string]Range{
		"uv_peak":               s.UVPeak,
		"white_peak":            s.WhitePeak,
		"fan_duty":              s.FanDuty,
		"humidifier_on_seconds": s.HumidifierOn,
	} {
		if r.Min > r.Max {
			return fmt.Errorf("seasons: %s range is inverted", name)
		}
	}
	if s.FanDuty.Max > 100 {
		return fmt.Errorf("seasons: fan duty above 100%%")
	}
	if c.FanSlot <= 0 {
		return fmt.Errorf("fan_slot must be positive")
	}

	for p, spec := range c.RGB {
		if spec == nil {
			continue
		}
		switch spec.Mode {
		case actuator.ModeSmooth, actuator.ModeSine, actuator.ModeRainbowCW, actuator.ModeRainbowCCW, actuator.ModeStatic:
		default:
			return fmt.Errorf("rgb %s: mode %s cannot be scheduled", Point(p), spec.Mode)
		}
	}
	for p, spec := range c.Brightness {
		if spec == nil {
			continue
		}
		if !schedulableLevelMode(spec.UVMode) || !schedulableLevelMode(spec.WhiteMode) {
			return fmt.Errorf("brightness %s: only smooth, sine and static modes are supported", Point(p))
		}
		if spec.UVPeak < 0 || spec.UVPeak > 255 || spec.WhitePeak < 0 || spec.WhitePeak > 255 {
			return fmt.Errorf("brightness %s: peak outside 0-255", Point(p))
		}
	}
	for p, spec := range c.Fan {
		if spec != nil && (spec.DutyPercent < 0 || spec.DutyPercent > 100) {
			return fmt.Errorf("fan %s: duty percent outside 0-100", Point(p))
		}
	}
	return nil
}

func schedulableLevelMode(m actuator.Mode) bool {
	return m == actuator.ModeSmooth || m == actuator.ModeSine || m == actuator.ModeStatic
}
