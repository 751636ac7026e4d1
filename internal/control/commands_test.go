package control

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/solarium/internal/actuator"
)

func TestDecodeSun(t *testing.T) {
	req, err := Decode(TargetSun, []byte(`{"enabled": true}`))
	require.NoError(t, err)
	require.NotNil(t, req.Simulation)
	assert.True(t, *req.Simulation)
	assert.Nil(t, req.Command)

	req, err = Decode(TargetSun, []byte(`{"enabled": false}`))
	require.NoError(t, err)
	assert.False(t, *req.Simulation)
}

func TestDecodeCommands(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		payload string
		want    actuator.Command
	}{
		{
			name:    "rgb with source",
			target:  "rgb",
			payload: `{"mode": "smooth", "src": "#000000", "dst": "#ff8000", "duration_ms": 5000}`,
			want: actuator.Command{
				Kind:  actuator.KindRGB,
				Mode:  actuator.ModeSmooth,
				Src:   actuator.Value{Color: actuator.RGB(0, 0, 0)},
				Dst:   actuator.Value{Color: actuator.RGB(0xff, 0x80, 0)},
				Total: 5 * time.Second,
			},
		},
		{
			name:    "rgb from current",
			target:  "rgb",
			payload: `{"mode": "rainbow_cw", "dst": "#102030", "duration_ms": 60000}`,
			want: actuator.Command{
				Kind:        actuator.KindRGB,
				Mode:        actuator.ModeRainbowCW,
				Dst:         actuator.Value{Color: actuator.RGB(0x10, 0x20, 0x30)},
				Total:       time.Minute,
				FromCurrent: true,
			},
		},
		{
			name:    "white level",
			target:  "white",
			payload: `{"mode": "sine", "level": 200, "duration_ms": 1500}`,
			want: actuator.Command{
				Kind:        actuator.KindWhite,
				Mode:        actuator.ModeSine,
				Dst:         actuator.Value{Level: 200},
				Total:       1500 * time.Millisecond,
				FromCurrent: true,
			},
		},
		{
			name:    "fito without mode",
			target:  "fito",
			payload: `{"level": 40}`,
			want: actuator.Command{
				Kind:        actuator.KindFito,
				Mode:        actuator.ModeSmooth,
				Dst:         actuator.Value{Level: 40},
				FromCurrent: true,
			},
		},
		{
			name:    "fan duty",
			target:  "fan",
			payload: `{"speed": "high", "interval_s": 600, "on_s": 120, "repeat": true}`,
			want: actuator.Command{
				Kind:   actuator.KindFan,
				Mode:   actuator.ModeDuty,
				Dst:    actuator.Value{Speed: actuator.SpeedHigh},
				Total:  10 * time.Minute,
				OnTime: 2 * time.Minute,
				Repeat: true,
			},
		},
		{
			name:    "humidifier off",
			target:  "humidifier",
			payload: `{"on": false}`,
			want: actuator.Command{
				Kind: actuator.KindHumidifier,
				Mode: actuator.ModeDuty,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Decode(tt.target, []byte(tt.payload))
			require.NoError(t, err)
			require.NotNil(t, req.Command)
			assert.Nil(t, req.Simulation)
			assert.Equal(t, tt.want, *req.Command)
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		payload string
	}{
		{"unknown target", "laser", `{}`},
		{"malformed sun", TargetSun, `{"enabled":`},
		{"bad colour", "rgb", `{"dst": "orange"}`},
		{"unknown mode", "rgb", `{"mode": "strobe", "dst": "#ffffff"}`},
		{"rainbow on a channel", "uv", `{"mode": "rainbow_ccw", "level": 10}`},
		{"level out of range", "uv", `{"level": 300}`},
		{"unknown speed", "fan", `{"speed": "turbo"}`},
		{"humidifier type", "humidifier", `{"on": "yes"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.target, []byte(tt.payload))
			assert.Error(t, err)
		})
	}
}
