package client

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "quark/cli/internal/errors"
	"quark/cli/internal/frame"
	"quark/cli/internal/quarktest"
	"quark/cli/internal/result"
	"quark/cli/internal/transport"
)

func connect(t *testing.T, srv *quarktest.Server, token string) *Client {
	t.Helper()
	c := New(token, WithHost(srv.Host()), WithPort(srv.Port()))
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRequest_Encode(t *testing.T) {
	t.Parallel()

	text, err := NewRequest("abc", "SELECT 1").Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"abc","query":"SELECT 1"}`, text)
}

func TestQuery_EndToEnd(t *testing.T) {
	t.Parallel()

	srv := quarktest.Start(t, func(req quarktest.Request) quarktest.Reply {
		return quarktest.Respond(`{"status":"OK","message":"done","time":5,"table":{"header":["x"],"records":[["1"],["2"]]}}`)
	})
	c := connect(t, srv, "abc")

	r, err := c.Query(context.Background(), "SELECT 1")
	require.NoError(t, err)

	assert.Equal(t, result.StatusOK, r.Status())
	assert.Equal(t, "done", r.Message())
	assert.Equal(t, int64(5), r.TimeMillis())
	require.True(t, r.HasTable())
	assert.Equal(t, [][]string{{"1"}, {"2"}}, r.Table().Records())

	requests := srv.Requests()
	require.Len(t, requests, 1)
	assert.JSONEq(t, `{"token":"abc","query":"SELECT 1"}`, string(requests[0].Raw))
	assert.Equal(t, "abc", requests[0].Token)
	assert.Equal(t, "SELECT 1", requests[0].Query)
}

func TestQuery_ManyOnOneConnection(t *testing.T) {
	t.Parallel()

	srv := quarktest.Start(t, func(req quarktest.Request) quarktest.Reply {
		if req.Query == "bad" {
			return quarktest.Respond(`{"status":"SYNTAX_ERROR","message":"unexpected token"}`)
		}
		return quarktest.Respond(`{"status":"SERVER_ERROR","message":"boom","exception":"NullPointer"}`)
	})
	c := connect(t, srv, "t")

	r, err := c.Query(context.Background(), "bad")
	require.NoError(t, err)
	assert.Equal(t, result.StatusSyntaxError, r.Status())

	r, err = c.Query(context.Background(), "SELECT boom()")
	require.NoError(t, err)
	assert.Equal(t, result.StatusServerError, r.Status())
	assert.True(t, r.HasException())
	assert.Equal(t, "NullPointer", r.Exception())
	assert.False(t, r.HasTable())

	assert.Len(t, srv.Requests(), 2)
}

func TestQuery_MalformedResponse(t *testing.T) {
	t.Parallel()

	srv := quarktest.Start(t, func(quarktest.Request) quarktest.Reply {
		return quarktest.Respond(`{"message":"x"}`)
	})
	c := connect(t, srv, "t")

	_, err := c.Query(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.Equal(t, qerrors.MalformedResult, qerrors.KindOf(err))
	assert.ErrorIs(t, err, result.ErrMissingField)
	assert.Contains(t, err.Error(), "status")
}

func TestQuery_ServerHangsUp(t *testing.T) {
	t.Parallel()

	srv := quarktest.Start(t, func(quarktest.Request) quarktest.Reply {
		return quarktest.Hangup()
	})
	c := connect(t, srv, "t")

	_, err := c.Query(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.Equal(t, qerrors.TransportFailed, qerrors.KindOf(err))
	assert.ErrorIs(t, err, frame.ErrNoResponse)
}

func TestQuery_NotConnected(t *testing.T) {
	t.Parallel()

	c := New("t")
	_, err := c.Query(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.True(t, qerrors.Is(err, qerrors.TransportFailed))

	require.NoError(t, c.Close())
}

func TestConnect_Refused(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	c := New("t", WithHost("127.0.0.1"), WithPort(port))
	err = c.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, qerrors.ConnectionFailed, qerrors.KindOf(err))
}

func TestConnect_DialerErrorGetsKind(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	c := New("t", WithDialer(func(context.Context, string, int) (*transport.Transport, error) {
		return nil, boom
	}))

	err := c.Connect(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, qerrors.ConnectionFailed, qerrors.KindOf(err))
}

func TestConnect_UsesPipeDialer(t *testing.T) {
	t.Parallel()

	clientEnd, serverEnd := net.Pipe()
	t.Cleanup(func() { serverEnd.Close() })

	go func() {
		if _, err := frame.ReadFrame(serverEnd, frame.DefaultLimits()); err != nil {
			return
		}
		_ = frame.WriteFrame(serverEnd, []byte(`{"status":"MIDDLEWARE_ERROR","message":"no route"}`), frame.DefaultLimits())
	}()

	c := New("t", WithDialer(func(context.Context, string, int) (*transport.Transport, error) {
		return transport.New(clientEnd), nil
	}))
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	r, err := c.Query(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, result.StatusMiddlewareError, r.Status())
	assert.Equal(t, "no route", r.Message())
}

func TestAddrDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "localhost:8080", New("t").Addr())
	assert.Equal(t, "[::1]:9000", New("t", WithHost("::1"), WithPort(9000)).Addr())
}
