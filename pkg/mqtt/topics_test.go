package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicHelpers(t *testing.T) {
	assert.Equal(t, "solarium/command/rgb", CommandTopic("rgb"))
	assert.Equal(t, "solarium/driver/fan", DriverTopic("fan"))
	assert.Equal(t, "solarium/raw/climate/bme280", RawClimateTopic("bme280"))
}

func TestLastSegment(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"solarium/command/sun", "sun"},
		{"solarium/raw/climate/bme280", "bme280"},
		{"bare", "bare"},
		{"trailing/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			assert.Equal(t, tt.want, LastSegment(tt.topic))
		})
	}
}
