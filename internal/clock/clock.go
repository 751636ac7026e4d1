// Package clock supplies the wall clock the appliance schedules against and
// decides when that clock can be trusted.
package clock

import (
	"context"
	"log/slog"
	"time"
)

// Clock returns the current time
type Clock interface {
	Now() time.Time
}

// System is the host clock
type System struct{}

// Now returns time.Now
func (System) Now() time.Time {
	return time.Now()
}

// Synced reports whether now looks like a set clock. A device that booted
// without a time source counts from the epoch, so any year before floor
// means the clock has not been synchronised yet.
func Synced(now time.Time, floor int) bool {
	return now.Year() >= floor
}

// Resyncer asks the platform to synchronise the clock again
type Resyncer interface {
	Resync(ctx context.Context) error
}

// LogResyncer only reports the request. Time synchronisation itself is left
// to the host (chrony, systemd-timesyncd).
type LogResyncer struct {
	Logger *slog.Logger
}

// Resync logs the request
func (r LogResyncer) Resync(ctx context.Context) error {
	r.Logger.Warn("Clock still not synchronised, requesting resync")
	return nil
}
