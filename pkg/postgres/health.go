package postgres

import (
	"context"
	"fmt"
	"time"
)

// HealthStatus is the journal database as seen from the pool
type HealthStatus struct {
	Connected bool          `json:"connected"`
	Database  string        `json:"database"`
	Open      int           `json:"open_connections"`
	InUse     int           `json:"in_use"`
	Latency   time.Duration `json:"latency_ns"`
	Error     string        `json:"error,omitempty"`
}

// HealthCheck pings the pool and reports its usage. An unreachable database
// is reported in the status; the error is only set when ctx ends first.
func (c *PostgresClient) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{Database: c.config.PostgresDB}
	if c.db == nil {
		status.Error = "not connected"
		return status, nil
	}

	start := time.Now()
	err := c.db.PingContext(ctx)
	status.Latency = time.Since(start)

	stats := c.db.Stats()
	status.Open = stats.OpenConnections
	status.InUse = stats.InUse

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return status, ctxErr
		}
		status.Error = fmt.Sprintf("ping failed: %v", err)
		return status, nil
	}
	status.Connected = true
	return status, nil
}
