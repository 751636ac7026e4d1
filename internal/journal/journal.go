// Package journal keeps a Postgres record of every schedule rebuild, so the
// sky of a past day can be inspected after the fact.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/solarium/internal/scheduler"
	"github.com/saaga0h/solarium/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS schedule_rebuilds (
	id         UUID PRIMARY KEY,
	service    TEXT        NOT NULL,
	built_at   TIMESTAMPTZ NOT NULL,
	day        DATE        NOT NULL,
	trigger    TEXT        NOT NULL,
	next_alarm TIMESTAMPTZ,
	span_s     BIGINT      NOT NULL,
	points     JSONB       NOT NULL,
	windows    JSONB       NOT NULL
);
CREATE INDEX IF NOT EXISTS schedule_rebuilds_day_idx ON schedule_rebuilds (service, day);
`

const insertRebuild = `
INSERT INTO schedule_rebuilds (id, service, built_at, day, trigger, next_alarm, span_s, points, windows)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const selectRecent = `
SELECT id, built_at, day, trigger, next_alarm, span_s
FROM schedule_rebuilds
WHERE service = $1
ORDER BY built_at DESC
LIMIT $2`

// Entry is one journaled rebuild
type Entry struct {
	ID        uuid.UUID
	BuiltAt   time.Time
	Day       time.Time
	Trigger   string
	NextAlarm *time.Time
	SpanS     int64
}

// Journal writes rebuilds to Postgres
type Journal struct {
	db      postgres.Client
	service string
	newID   func() uuid.UUID
	logger  *slog.Logger
}

// New creates a journal for service
func New(db postgres.Client, service string, logger *slog.Logger) *Journal {
	return &Journal{
		db:      db,
		service: service,
		newID:   uuid.New,
		logger:  logger,
	}
}

// EnsureSchema creates the journal table when it does not exist
func (j *Journal) EnsureSchema(ctx context.Context) error {
	if _, err := j.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create journal schema: %w", err)
	}
	return nil
}

// Record stores one rebuild and returns its id
func (j *Journal) Record(ctx context.Context, r scheduler.Rebuild) (uuid.UUID, error) {
	points, err := json.Marshal(r.Day.Summary())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode points: %w", err)
	}
	windows, err := json.Marshal(r.Day.Windows())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode windows: %w", err)
	}

	var alarm interface{}
	if !r.Alarm.IsZero() {
		alarm = r.Alarm.UTC()
	}

	id := j.newID()
	_, err = j.db.Exec(ctx, insertRebuild,
		id.String(),
		j.service,
		r.At.UTC(),
		r.Day.Date.Format(time.DateOnly),
		string(r.Trigger),
		alarm,
		int64(r.Day.Span/time.Second),
		string(points),
		string(windows),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to record rebuild: %w", err)
	}
	return id, nil
}

// OnRebuild journals r, logging failures. Rebuilds never wait on the
// database beyond a few seconds.
func (j *Journal) OnRebuild(ctx context.Context, r scheduler.Rebuild) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	id, err := j.Record(ctx, r)
	if err != nil {
		j.logger.Warn("Failed to journal rebuild", "trigger", string(r.Trigger), "error", err)
		return
	}
	j.logger.Debug("Rebuild journaled", "id", id.String(), "day", r.Day.Date.Format(time.DateOnly))
}

// Recent returns the newest rebuilds of the service, newest first
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.Query(ctx, selectRecent, j.service, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e     Entry
			id    string
			alarm *time.Time
		)
		if err := rows.Scan(&id, &e.BuiltAt, &e.Day, &e.Trigger, &alarm, &e.SpanS); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid journal id %q: %w", id, err)
		}
		e.NextAlarm = alarm
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return entries, nil
}
