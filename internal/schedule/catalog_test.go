package schedule

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/solarium/internal/actuator"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	require.NotNil(t, c.RGB[MorningBlueHour])
	assert.Equal(t, actuator.ModeRainbowCW, c.RGB[MorningBlueHour].Mode)
	assert.Equal(t, "#400038", c.RGB[MorningBlueHour].Dst.String())
	assert.Nil(t, c.RGB[Rise])

	require.NotNil(t, c.Brightness[Day])
	assert.Equal(t, actuator.ModeSine, c.Brightness[Day].UVMode)

	require.NotNil(t, c.Fan[Midnight])
	assert.Equal(t, actuator.SpeedLow, c.Fan[Midnight].Speed)
	assert.True(t, c.Fan[Day].Seasonal)

	assert.True(t, c.Humidifier[EveningBlueHour].Enabled)
	assert.Equal(t, 35*time.Minute, c.FanSlot)
	assert.Equal(t, 22222*time.Second, c.Seasons.Shortest)
	assert.Equal(t, Range{Min: 170, Max: 230}, c.Seasons.WhitePeak)
}

func TestParseCatalogErrors(t *testing.T) {
	base := `
seasons: {shortest: 6h, longest: 14h}
fan_slot: 30m
`
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "rgb: [unterminated"},
		{"unknown point", base + "rgb: {dawn: {src: '#000000', dst: '#ffffff', mode: smooth}}"},
		{"bad colour", base + "rgb: {day: {src: 'blue', dst: '#ffffff', mode: smooth}}"},
		{"animation mode", base + "rgb: {day: {src: '#000000', dst: '#ffffff', mode: pingpong}}"},
		{"brightness rainbow", base + "brightness: {day: {uv_mode: rainbow_cw, white_mode: sine}}"},
		{"fan percent", base + "fan: {day: {speed: low, duty_percent: 120}}"},
		{"unknown speed", base + "fan: {day: {speed: turbo}}"},
		{"inverted seasons", "seasons: {shortest: 14h, longest: 6h}\nfan_slot: 30m"},
		{"inverted range", "seasons: {shortest: 6h, longest: 14h, uv_peak: {min: 9, max: 1}}\nfan_slot: 30m"},
		{"missing slot", "seasons: {shortest: 6h, longest: 14h}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.NotNil(t, c.RGB[Day])

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := `
seasons: {shortest: 8h, longest: 16h, uv_peak: {min: 10, max: 20}}
fan_slot: 20m
rgb:
  midnight: {src: "#000000", dst: "#102030", mode: smooth}
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err = LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, actuator.Color{R: 0x10, G: 0x20, B: 0x30}, c.RGB[Midnight].Dst)
	assert.Nil(t, c.RGB[Day])
	assert.Equal(t, 20*time.Minute, c.FanSlot)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
