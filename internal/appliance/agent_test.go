package appliance

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/solarium/internal/scheduler"
	"github.com/saaga0h/solarium/pkg/config"
	"github.com/saaga0h/solarium/pkg/health"
	"github.com/saaga0h/solarium/pkg/metrics"
	"github.com/saaga0h/solarium/pkg/mqtt"
	"github.com/saaga0h/solarium/pkg/mqtt/mqtttest"
	"github.com/saaga0h/solarium/pkg/redis"
	"github.com/saaga0h/solarium/pkg/redis/redistest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.DriverMode = "log"
	cfg.ClockPollMs = 10
	cfg.StatusInterval = 1
	cfg.PreTransitionMs = 0
	cfg.PreTransitionWait = 0
	return cfg
}

func newTestAgent(t *testing.T) (*Agent, *mqtttest.Client, *redistest.Client) {
	t.Helper()
	mq := mqtttest.New()
	rd := redistest.New()
	a, err := NewAgent(testConfig(), mq, rd, nil, metrics.New(), quietLogger())
	require.NoError(t, err)
	return a, mq, rd
}

func TestNewAgentRejectsBadSetup(t *testing.T) {
	cfg := testConfig()
	cfg.Timezone = "Mars/Olympus_Mons"
	_, err := NewAgent(cfg, mqtttest.New(), redistest.New(), nil, nil, quietLogger())
	assert.Error(t, err)

	cfg = testConfig()
	cfg.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = NewAgent(cfg, mqtttest.New(), redistest.New(), nil, nil, quietLogger())
	assert.Error(t, err)
}

func TestAgentLifecycle(t *testing.T) {
	a, mq, rd := newTestAgent(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Start(ctx) }()

	require.Eventually(t, func() bool {
		return a.Scheduler().Status().LastTrigger == scheduler.TriggerEnable
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, a.Controller().IsDaySimulationEnabled())

	msg, ok := mq.Last(mqtt.AvailabilityTopic)
	require.True(t, ok)
	assert.Equal(t, mqtt.AvailabilityOnline, string(msg.Payload))

	require.Eventually(t, func() bool {
		_, ok := mq.Last(mqtt.TopicSchedule)
		return ok
	}, time.Second, 10*time.Millisecond)

	stored, err := rd.Get(context.Background(), redis.ScheduleKey("solarium"))
	require.NoError(t, err)
	assert.Contains(t, stored, `"trigger":"enable"`)

	// a manual command over MQTT hands the lights over to the operator
	mq.Inject(mqtt.CommandTopic("white"), []byte(`{"mode": "static", "level": 42}`))
	require.Eventually(t, func() bool {
		return !a.Controller().IsDaySimulationEnabled()
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("agent did not stop")
	}

	require.NoError(t, a.Stop())
	msg, ok = mq.Last(mqtt.AvailabilityTopic)
	require.True(t, ok)
	assert.Equal(t, mqtt.AvailabilityOffline, string(msg.Payload))
	assert.False(t, mq.IsConnected())
}

func TestAgentStartFailsWithoutRedis(t *testing.T) {
	a, _, rd := newTestAgent(t)
	rd.Err = assert.AnError

	err := a.Start(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRouter(t *testing.T) {
	a, mq, rd := newTestAgent(t)
	m := metrics.New()
	checker := health.NewChecker(mq, rd, a.Controller().HealthState, quietLogger())
	srv := httptest.NewServer(NewRouter(a, checker, m))
	defer srv.Close()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"detailed health", http.MethodGet, "/health/detailed", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"status", http.MethodGet, "/status", "", http.StatusOK},
		{"climate", http.MethodGet, "/climate", "", http.StatusOK},
		{"schedule before first build", http.MethodGet, "/schedule", "", http.StatusNotFound},
		{"sun command", http.MethodPost, "/command/sun", `{"enabled": false}`, http.StatusAccepted},
		{"fan command", http.MethodPost, "/command/fan", `{"speed": "low"}`, http.StatusAccepted},
		{"unknown target", http.MethodPost, "/command/laser", `{}`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, "/command/sun", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.code, resp.StatusCode)
		})
	}
}
