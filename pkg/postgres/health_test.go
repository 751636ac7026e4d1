package postgres

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/solarium/pkg/config"
)

func TestHealthCheckBeforeConnect(t *testing.T) {
	cfg := config.NewConfig()
	client := NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	status, err := client.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.Equal(t, "not connected", status.Error)
	assert.Equal(t, cfg.PostgresDB, status.Database)
	assert.False(t, client.IsConnected())
}
