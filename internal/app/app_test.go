package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/vulnmanager/internal/config"
	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.GRPCPort = 0
	cfg.DBPath = filepath.Join(t.TempDir(), "nested", "vulnmanager.db")
	return cfg
}

func TestNew_WiresComponents(t *testing.T) {
	application, err := New(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { application.Close() })

	assert.NotNil(t, application.WebServer)
	assert.NotNil(t, application.GrpcServer)
	assert.NotNil(t, application.WebServer.AdvisoryHandler)

	// Scores flow into the shared audit store
	_, err = application.ScoringService.Calculate(context.Background(), "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H")
	require.NoError(t, err)

	logs, err := application.AuditService.GetLogs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.ActionCalculate, logs[0].Action)
}

func TestRun_StopsOnCancel(t *testing.T) {
	application, err := New(testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- application.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("application did not stop")
	}
	assert.Nil(t, application.AuditStore)
}

func TestRun_ReportsListenFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Addr = "256.0.0.1:bad"

	application, err := New(cfg)
	require.NoError(t, err)

	err = application.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "web server error")
}
