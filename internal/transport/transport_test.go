package transport

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "quark/cli/internal/errors"
	"quark/cli/internal/frame"
	"quark/cli/internal/quarktest"
)

// scriptedConn replays a fixed response one byte per Read and records writes.
type scriptedConn struct {
	r      io.Reader
	w      bytes.Buffer
	closed bool
}

func newScriptedConn(response []byte) *scriptedConn {
	return &scriptedConn{r: iotest.OneByteReader(bytes.NewReader(response))}
}

func (c *scriptedConn) Read(p []byte) (int, error)  { return c.r.Read(p) }
func (c *scriptedConn) Write(p []byte) (int, error) { return c.w.Write(p) }
func (c *scriptedConn) Close() error                { c.closed = true; return nil }

func dial(t *testing.T, srv *quarktest.Server) *Transport {
	t.Helper()
	tr, err := Dial(context.Background(), srv.Host(), srv.Port())
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestSendAndReceive_RoundTrip(t *testing.T) {
	t.Parallel()

	srv := quarktest.Start(t, func(req quarktest.Request) quarktest.Reply {
		return quarktest.Respond("echo: " + string(req.Raw))
	})
	tr := dial(t, srv)

	for _, text := range []string{"", "SELECT 1", "ünïcødé ✓"} {
		out, err := tr.SendAndReceive(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, "echo: "+text, out)
	}

	requests := srv.Requests()
	require.Len(t, requests, 3)
	assert.Equal(t, "ünïcødé ✓", string(requests[2].Raw))
	assert.NotEmpty(t, tr.RemoteAddr())
}

func TestSendAndReceive_OneByteAtATime(t *testing.T) {
	t.Parallel()

	response := `{"status":"OK","message":"done"}`
	conn := newScriptedConn(frame.Encode([]byte(response)))
	tr := New(conn)

	out, err := tr.SendAndReceive(context.Background(), `{"token":"t","query":"q"}`)
	require.NoError(t, err)
	assert.Equal(t, response, out)
	assert.Equal(t, frame.Encode([]byte(`{"token":"t","query":"q"}`)), conn.w.Bytes())
}

func TestSendAndReceive_ZeroLengthResponse(t *testing.T) {
	t.Parallel()

	tr := New(newScriptedConn([]byte{0, 0, 0, 0}))

	out, err := tr.SendAndReceive(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestSendAndReceive_Failures(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		Name  string
		Reply quarktest.Reply
		Err   error
	}{
		{
			Name:  "server hangs up before replying",
			Reply: quarktest.Hangup(),
			Err:   frame.ErrNoResponse,
		},
		{
			Name:  "server hangs up inside the prefix",
			Reply: quarktest.RawThenHangup([]byte{0, 0}),
			Err:   frame.ErrTruncated,
		},
		{
			Name:  "server hangs up inside the payload",
			Reply: quarktest.RawThenHangup(append([]byte{0, 0, 0, 10}, "abc"...)),
			Err:   frame.ErrTruncated,
		},
		{
			Name:  "payload is not UTF-8",
			Reply: quarktest.Reply{Payload: []byte{0xff, 0xfe}},
			Err:   ErrInvalidUTF8,
		},
	}

	for _, aTestCase := range testCases {
		t.Run(aTestCase.Name, func(t *testing.T) {
			t.Parallel()

			srv := quarktest.Start(t, func(quarktest.Request) quarktest.Reply { return aTestCase.Reply })
			tr := dial(t, srv)

			_, err := tr.SendAndReceive(context.Background(), "SELECT 1")
			require.Error(t, err)
			assert.True(t, qerrors.Is(err, qerrors.TransportFailed), "got %v", err)
			assert.ErrorIs(t, err, aTestCase.Err)

			_, err = tr.SendAndReceive(context.Background(), "SELECT 2")
			assert.ErrorIs(t, err, ErrBroken)
			assert.Len(t, srv.Requests(), 1, "a broken transport must not write again")
		})
	}
}

func TestDial_Refused(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	_, err = Dial(context.Background(), "127.0.0.1", port)
	require.Error(t, err)
	assert.True(t, qerrors.Is(err, qerrors.ConnectionFailed), "got %v", err)
}

func TestDial_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Dial(ctx, "127.0.0.1", 1)
	require.Error(t, err)
	assert.Equal(t, qerrors.ConnectionFailed, qerrors.KindOf(err))
}

func TestSendAndReceive_CancelAbortsExchange(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := quarktest.Start(t, func(quarktest.Request) quarktest.Reply {
		<-release
		return quarktest.Respond("late")
	})
	t.Cleanup(func() { close(release) })
	tr := dial(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := tr.SendAndReceive(ctx, "SELECT sleep(1000)")
	require.Error(t, err)
	assert.True(t, qerrors.Is(err, qerrors.TransportFailed), "got %v", err)

	_, err = tr.SendAndReceive(context.Background(), "SELECT 1")
	assert.Error(t, err)
}

func TestClose(t *testing.T) {
	t.Parallel()

	conn := newScriptedConn(nil)
	tr := New(conn)

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
	assert.True(t, conn.closed)

	_, err := tr.SendAndReceive(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrClosed)
	assert.Zero(t, conn.w.Len())
}

func TestWithLimits(t *testing.T) {
	t.Parallel()

	conn := newScriptedConn(nil)
	tr := New(conn, WithLimits(frame.Limits{MaxPayloadBytes: 3}))

	_, err := tr.SendAndReceive(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, frame.ErrPayloadTooLarge)
	assert.Zero(t, conn.w.Len())
}
