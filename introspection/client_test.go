package introspection_test

import (
	"context"
	"encoding/json"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tue-robotics/executive-smach/introspection"
	"github.com/tue-robotics/executive-smach/msgs"
)

func TestClientWatchStatusAttributesServer(t *testing.T) {
	transport := newFakeTransport()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := introspection.NewClient(transport)
	statuses, err := client.WatchStatus(ctx)
	require.NoError(t, err)

	status := msgs.SmachContainerStatus{Path: "/alpha", ActiveStates: []string{"A"}, Info: "transition"}
	payload, err := json.Marshal(status)
	require.NoError(t, err)
	transport.inject("alpha/smach/container_status", payload)

	select {
	case ev := <-statuses:
		assert.Equal(t, "alpha", ev.Server)
		assert.Equal(t, "/alpha", ev.Status.Path)
		assert.Equal(t, []string{"A"}, ev.Status.ActiveStates)
	case <-time.After(time.Second):
		t.Fatal("no status event received")
	}
}

func TestClientWatchStatusDropsMalformedMessages(t *testing.T) {
	transport := newFakeTransport()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := introspection.NewClient(transport)
	statuses, err := client.WatchStatus(ctx)
	require.NoError(t, err)

	transport.inject("alpha/smach/container_status", []byte("not json"))

	status := msgs.SmachContainerStatus{Path: "/alpha"}
	payload, err := json.Marshal(status)
	require.NoError(t, err)
	transport.inject("alpha/smach/container_status", payload)

	select {
	case ev := <-statuses:
		assert.Equal(t, "/alpha", ev.Status.Path, "malformed message skipped, valid one delivered")
	case <-time.After(time.Second):
		t.Fatal("no status event received")
	}
}

func TestClientWatchExitsWhenAbandoned(t *testing.T) {
	transport := newFakeTransport()
	ctx, cancel := context.WithCancel(context.Background())

	baseline := runtime.NumGoroutine()

	client := introspection.NewClient(transport)
	_, err := client.WatchStatus(ctx)
	require.NoError(t, err)

	status := msgs.SmachContainerStatus{Path: "/alpha"}
	payload, err := json.Marshal(status)
	require.NoError(t, err)

	// overfill the watch buffer with nobody reading, then cancel; the
	// watch goroutine must still exit
	for i := 0; i < 32; i++ {
		transport.inject("alpha/smach/container_status", payload)
	}
	cancel()

	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= baseline
	}, time.Second, 10*time.Millisecond, "watch goroutine still running after cancellation")
}

func TestClientSetInitialStateConfirmed(t *testing.T) {
	transport := newFakeTransport()
	sm := newPatrolMachine(t)
	startServer(t, "root", sm, transport)

	client := introspection.NewClient(transport)
	err := client.SetInitialState(context.Background(), "root", "/root", []string{"B"}, map[string]any{"pace": 2.0}, time.Second)
	require.NoError(t, err)

	assert.Equal(t, []string{"B"}, sm.InitialStates())
	v, ok := sm.UserData().Get("pace")
	require.True(t, ok)
	assert.Equal(t, 2.0, v)
}

func TestClientSetInitialStateTimesOutWithoutServer(t *testing.T) {
	transport := newFakeTransport()
	client := introspection.NewClient(transport)

	err := client.SetInitialState(context.Background(), "root", "/root", []string{"B"}, nil, 50*time.Millisecond)
	assert.Error(t, err)
}
