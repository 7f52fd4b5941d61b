package quarktest

import (
	"net"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quark/cli/internal/frame"
)

func TestServer_RepliesAndRecords(t *testing.T) {
	srv := Start(t, func(req Request) Reply {
		return Respond(`{"status":"OK","message":"` + req.Query + `"}`)
	})

	conn, err := net.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, frame.WriteFrame(conn, []byte(`{"token":"t","query":"ping"}`), frame.DefaultLimits()))
	payload, err := frame.ReadFrame(conn, frame.DefaultLimits())
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"OK","message":"ping"}`, string(payload))

	requests := srv.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "t", requests[0].Token)
	assert.Equal(t, "ping", requests[0].Query)
}

func TestServer_ClosedConnectionsReleaseGoroutines(t *testing.T) {
	srv := Start(t, func(Request) Reply { return Respond(`{"status":"OK","message":""}`) })
	baseline := runtime.NumGoroutine()

	for i := 0; i < 20; i++ {
		conn, err := net.Dial("tcp", srv.Addr())
		require.NoError(t, err)
		require.NoError(t, frame.WriteFrame(conn, []byte(`{"token":"","query":"x"}`), frame.DefaultLimits()))
		_, err = frame.ReadFrame(conn, frame.DefaultLimits())
		require.NoError(t, err)
		require.NoError(t, conn.Close())
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= baseline+2
	}, 5*time.Second, 10*time.Millisecond)
}
