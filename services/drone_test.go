package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFastLink() *SimulatedLink {
	l := NewSimulatedLink("TEST-1")
	l.connectDelay = 10 * time.Millisecond
	return l
}

func TestSimulatedLinkLifecycle(t *testing.T) {
	l := newFastLink()

	assert.Equal(t, LinkDisconnected, l.Status().State)

	require.NoError(t, l.Connect(context.Background()))
	status := l.Status()
	assert.Equal(t, LinkConnected, status.State)
	require.NotNil(t, status.Telemetry)
	assert.GreaterOrEqual(t, status.Telemetry.Battery, 80)
	require.NotNil(t, status.ConnectedAt)

	require.NoError(t, l.Disconnect())
	assert.Equal(t, LinkDisconnected, l.Status().State)
	assert.Nil(t, l.Status().Telemetry)
}

func TestSimulatedLinkDoubleConnect(t *testing.T) {
	l := newFastLink()

	require.NoError(t, l.Connect(context.Background()))
	err := l.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already")
}

func TestSimulatedLinkDisconnectWhenIdle(t *testing.T) {
	l := newFastLink()
	assert.Error(t, l.Disconnect())
}

func TestSimulatedLinkConnectCancelled(t *testing.T) {
	l := NewSimulatedLink("TEST-2")
	l.connectDelay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Connect(ctx)
	require.Error(t, err)
	assert.Equal(t, LinkDisconnected, l.Status().State)
}
