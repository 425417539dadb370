//go:build !windows

package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/rpc"
)

func TestRunServesClients(t *testing.T) {
	d := testDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case <-d.Ready():
	case err := <-done:
		t.Fatalf("daemon exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not become ready")
	}

	status := d.GetStatus()
	assert.True(t, status.Running)
	assert.Equal(t, "0s", status.Uptime)

	pushed := make(chan *model.Notification, 4)
	client, err := rpc.DialTimeout(d.cfg.Runtime.RPC.SocketPath, time.Second, &rpc.ClientOptions{
		OnNotify: func(n *model.Notification) { pushed <- n },
	})
	require.NoError(t, err)
	defer client.Close()

	callCtx, callCancel := context.WithTimeout(ctx, 2*time.Second)
	defer callCancel()

	var health HealthStatus
	require.NoError(t, client.Health(callCtx, &health))
	assert.Equal(t, StatusHealthy, health.Status)
	assert.Equal(t, "test", health.Version)

	run, err := client.Start(callCtx, &rpc.StartParams{
		PresetName: "Blink",
		Clocks:     []model.ClockSegment{model.NewClock(0, 0, 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Blink", run.Name())

	select {
	case n := <-pushed:
		assert.Equal(t, model.NotifyRunComplete, n.Type)
		assert.Equal(t, "Blink", n.PresetName)
	case <-time.After(5 * time.Second):
		t.Fatal("no completion pushed")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
	assert.False(t, d.IsRunning())
}
