package climate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant(r Reading) func() Reading {
	return func() Reading { return r }
}

func TestAlign(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 13, 27, 500, time.UTC)

	assert.Equal(t, time.Date(2024, 3, 1, 10, 13, 30, 0, time.UTC), align(now, SamplePeriod, time.UTC))
	assert.Equal(t, time.Date(2024, 3, 1, 10, 14, 0, 0, time.UTC), align(now, MinutePeriod, time.UTC))
	assert.Equal(t, time.Date(2024, 3, 1, 10, 20, 0, 0, time.UTC), align(now, SlotPeriod, time.UTC))
	assert.Equal(t, time.Date(2024, 3, 1, 10, 40, 0, 0, time.UTC),
		align(time.Date(2024, 3, 1, 10, 20, 0, 0, time.UTC), SlotPeriod, time.UTC))
}

func TestAccumulatorMinuteAverage(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	a := NewAccumulator(start, time.UTC)

	values := []Reading{
		{Pressure: 101_000_000, Temperature: 2000, Humidity: 5000},
		{Pressure: 101_200_000, Temperature: 2100, Humidity: 5200},
	}
	var minute *Measurement
	samples := 0
	for s := 1; s <= 60; s++ {
		r := values[samples%2]
		u := a.Tick(start.Add(time.Duration(s)*time.Second), constant(r))
		if u.Sampled {
			samples++
		}
		if u.Minute != nil {
			minute = u.Minute
		}
	}

	assert.Equal(t, 6, samples)
	require.NotNil(t, minute)
	assert.Equal(t, Measurement{Pressure: 101_100, Temperature: 2050, Humidity: 5100}, *minute)
	assert.Equal(t, *minute, a.Latest())
}

func TestAccumulatorFillsHistory(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	a := NewAccumulator(start, time.UTC)

	slots := 0
	for s := 1; s <= int((25 * SlotPeriod).Seconds()); s++ {
		now := start.Add(time.Duration(s) * time.Second)
		temp := int32(now.Sub(start) / SlotPeriod)
		u := a.Tick(now, constant(Reading{Pressure: 100_000, Temperature: temp, Humidity: 40}))
		if u.Slot != nil {
			slots++
		}
	}

	assert.Equal(t, 25, slots)
	h := a.History()
	// each slot averages the samples taken after the previous boundary
	assert.Equal(t, int32(1), h[0].Temperature)
	assert.Equal(t, int32(24), h[HistorySlots-1].Temperature)
	assert.Equal(t, uint32(100), h[HistorySlots-1].Pressure)
}

func TestHistoryPushShiftsLeft(t *testing.T) {
	var h History
	for i := 1; i <= HistorySlots+2; i++ {
		h.push(Measurement{Humidity: int32(i)})
	}
	assert.Equal(t, int32(3), h[0].Humidity)
	assert.Equal(t, int32(HistorySlots+2), h[HistorySlots-1].Humidity)
}

func TestEmptySumAveragesToZero(t *testing.T) {
	assert.Equal(t, Measurement{}, sum{}.average())
}
