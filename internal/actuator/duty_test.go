package actuator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestFan() (*duty, *recorder) {
	rec := newRecorder()
	e := NewFanEngine(rec, 0, Options{}, quietLogger())
	return e.anim.(*duty), rec
}

func TestFanDutyCycle(t *testing.T) {
	d, rec := newTestFan()

	d.load(Command{
		Kind:   KindFan,
		Mode:   ModeDuty,
		Dst:    Value{Speed: SpeedMedium},
		Total:  4 * time.Second,
		OnTime: 2 * time.Second,
		Repeat: true,
	})

	for i := 0; i < 10; i++ {
		_, active := d.step()
		assert.True(t, active)
	}

	// on at 0, off at 2, restart at 4 (which idles one tick), on again at 0
	assert.Equal(t, []FanSpeed{SpeedMedium, SpeedNone, SpeedMedium, SpeedNone}, rec.speeds)
}

func TestFanDutyWithoutRepeatStops(t *testing.T) {
	d, rec := newTestFan()

	d.load(Command{Kind: KindFan, Dst: Value{Speed: SpeedLow}, Total: 3 * time.Second, OnTime: time.Second})

	var active bool
	for i := 0; i < 4; i++ {
		_, active = d.step()
	}

	assert.False(t, active)
	assert.Equal(t, []FanSpeed{SpeedLow, SpeedNone, SpeedNone}, rec.speeds)
	assert.Equal(t, Value{}, d.current())
}

func TestFanPermanentSpeed(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
	}{
		{"no window", Command{Kind: KindFan, Dst: Value{Speed: SpeedHigh}}},
		{"on time fills window", Command{Kind: KindFan, Dst: Value{Speed: SpeedHigh}, Total: time.Minute, OnTime: time.Minute}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, rec := newTestFan()
			d.load(tt.cmd)
			_, active := d.step()

			assert.False(t, active)
			assert.Equal(t, []FanSpeed{SpeedHigh}, rec.speeds)
			assert.Equal(t, SpeedHigh, d.current().Speed)
		})
	}
}

func TestFanKickRunsFullFirst(t *testing.T) {
	rec := newRecorder()
	e := NewFanEngine(rec, time.Millisecond, Options{}, quietLogger())
	d := e.anim.(*duty)

	d.load(Command{Kind: KindFan, Dst: Value{Speed: SpeedLow}})
	d.step()

	assert.Equal(t, []FanSpeed{SpeedFull, SpeedLow}, rec.speeds)
}

func TestHumidifierCycle(t *testing.T) {
	rec := newRecorder()
	e := NewHumidifierEngine(rec, Options{}, quietLogger())
	d := e.anim.(*duty)

	d.load(Command{Kind: KindHumidifier, Dst: Value{On: true}, Total: 5 * time.Second, OnTime: 2 * time.Second})
	for i := 0; i < 6; i++ {
		d.step()
	}
	assert.Equal(t, []bool{true, false, false}, rec.switches)

	d.load(Command{Kind: KindHumidifier, Dst: Value{On: false}})
	_, active := d.step()
	assert.False(t, active)
	assert.Equal(t, []bool{true, false, false, false}, rec.switches)
}
