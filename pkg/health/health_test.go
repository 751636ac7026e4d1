package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/solarium/pkg/mqtt/mqtttest"
	"github.com/saaga0h/solarium/pkg/postgres"
	"github.com/saaga0h/solarium/pkg/redis/redistest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestHandlerFunc(t *testing.T) {
	checker := NewChecker(nil, nil, nil, quietLogger())

	rec := httptest.NewRecorder()
	checker.HandlerFunc()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestDetailedHandlerFunc(t *testing.T) {
	tests := []struct {
		name       string
		connected  bool
		synced     bool
		simulation bool
		code       int
		status     string
		clock      string
		sun        string
	}{
		{"healthy", true, true, true, http.StatusOK, "healthy", "synced", "simulated"},
		{"waiting for clock", true, false, true, http.StatusOK, "healthy", "unsynced", "simulated"},
		{"manual", true, true, false, http.StatusOK, "healthy", "synced", "manual"},
		{"broker lost", false, true, true, http.StatusServiceUnavailable, "degraded", "synced", "simulated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mq := mqtttest.New()
			if !tt.connected {
				mq.Disconnect()
			}
			state := func() (bool, bool) { return tt.synced, tt.simulation }
			checker := NewChecker(mq, redistest.New(), state, quietLogger())

			rec := httptest.NewRecorder()
			checker.DetailedHandlerFunc()(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))

			assert.Equal(t, tt.code, rec.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.clock, resp.Clock)
			assert.Equal(t, tt.sun, resp.Sun)
			require.NotNil(t, resp.Services)
			assert.Equal(t, "connected", resp.Services.Redis)
		})
	}
}

type fakeDB struct {
	postgres.Client
	status *postgres.HealthStatus
	err    error
}

func (f *fakeDB) HealthCheck(ctx context.Context) (*postgres.HealthStatus, error) {
	return f.status, f.err
}

func TestDetailedHandlerReportsJournal(t *testing.T) {
	tests := []struct {
		name    string
		db      postgres.Client
		journal string
	}{
		{"disabled", nil, ""},
		{"connected", &fakeDB{status: &postgres.HealthStatus{Connected: true}}, "connected"},
		{"ping failed", &fakeDB{status: &postgres.HealthStatus{Error: "ping failed: refused"}}, "disconnected"},
		{"timed out", &fakeDB{status: &postgres.HealthStatus{}, err: errors.New("context deadline exceeded")}, "disconnected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker(mqtttest.New(), redistest.New(), nil, quietLogger())
			if tt.db != nil {
				checker.WithDatabase(tt.db)
			}

			rec := httptest.NewRecorder()
			checker.DetailedHandlerFunc()(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))

			assert.Equal(t, http.StatusOK, rec.Code, "journal loss does not fail the check")
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "healthy", resp.Status)
			require.NotNil(t, resp.Services)
			assert.Equal(t, tt.journal, resp.Services.Journal)
		})
	}
}
