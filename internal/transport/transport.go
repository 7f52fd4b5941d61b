// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package transport turns a single blocking TCP stream into a send-one-frame,
// receive-one-frame primitive. A Transport owns exactly one connection and
// carries at most one outstanding request; it is not safe for concurrent use.
//
// The transport defines no timeouts of its own. A deadline on the context
// passed to Dial or SendAndReceive is honoured, and cancelling that context
// closes the connection, which is the only way to abort an exchange in flight.
package transport

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	qerrors "quark/cli/internal/errors"
	"quark/cli/internal/frame"
)

var (
	// ErrInvalidUTF8 is returned when a response payload is not valid UTF-8 text.
	ErrInvalidUTF8 = errors.New("transport: response payload is not valid UTF-8")
	// ErrBroken is returned for any call after an exchange has failed.
	ErrBroken = errors.New("transport: connection is broken")
	// ErrClosed is returned for any call after Close.
	ErrClosed = errors.New("transport: connection is closed")
)

// Conn is the stream a Transport runs over. *net.TCPConn and net.Pipe ends satisfy it.
type Conn interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

type deadliner interface {
	SetDeadline(t time.Time) error
}

type remoteAddresser interface {
	RemoteAddr() net.Addr
}

// Transport is one framed connection to a query server.
type Transport struct {
	conn   Conn
	limits frame.Limits

	mu     sync.Mutex
	broken error

	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
}

// Option configures a Transport.
type Option func(*Transport)

// WithLimits bounds the payload size accepted in either direction.
func WithLimits(l frame.Limits) Option {
	return func(t *Transport) { t.limits = l }
}

// New wraps an already established stream.
func New(conn Conn, opts ...Option) *Transport {
	t := &Transport{conn: conn, limits: frame.DefaultLimits()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Dial opens a TCP connection to host:port. Refused connections, unreachable
// hosts, resolution failures and context cancellation all surface as a
// ConnectionFailed error. Dial never retries.
func Dial(ctx context.Context, host string, port int, opts ...Option) (*Transport, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.ConnectionFailed, "connect to "+addr, err)
	}
	return New(conn, opts...), nil
}

// SendAndReceive writes text as one frame and blocks until one response frame
// has been read. Any failure marks the transport broken; later calls return
// ErrBroken without touching the stream.
func (t *Transport) SendAndReceive(ctx context.Context, text string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed.Load() {
		return "", qerrors.Wrap(qerrors.TransportFailed, "send request", ErrClosed)
	}
	if t.broken != nil {
		return "", qerrors.Wrap(qerrors.TransportFailed, "send request", ErrBroken)
	}

	if err := ctx.Err(); err != nil {
		return "", qerrors.Wrap(qerrors.TransportFailed, "send request", err)
	}
	stop := t.watch(ctx)
	payload, err := t.exchange([]byte(text))
	if ctxErr := stop(); ctxErr != nil && err != nil {
		err = ctxErr
	}
	if err != nil {
		t.broken = err
		return "", err
	}

	if !utf8.Valid(payload) {
		t.broken = ErrInvalidUTF8
		return "", qerrors.Wrap(qerrors.TransportFailed, "decode response", ErrInvalidUTF8)
	}
	return string(payload), nil
}

func (t *Transport) exchange(request []byte) ([]byte, error) {
	if err := frame.WriteFrame(t.conn, request, t.limits); err != nil {
		return nil, qerrors.Wrap(qerrors.TransportFailed, "send request", err)
	}
	payload, err := frame.ReadFrame(t.conn, t.limits)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.TransportFailed, "read response", err)
	}
	return payload, nil
}

// watch applies ctx's deadline to the connection and closes the connection if
// ctx is cancelled before the exchange completes. The returned func undoes the
// deadline and reports the context error when the context ended the exchange.
func (t *Transport) watch(ctx context.Context) func() error {
	dl, hasDeadline := t.conn.(deadliner)
	if deadline, ok := ctx.Deadline(); ok && hasDeadline {
		_ = dl.SetDeadline(deadline)
	}

	if ctx.Done() == nil {
		return func() error {
			if hasDeadline {
				_ = dl.SetDeadline(time.Time{})
			}
			return nil
		}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			_ = t.Close()
		case <-done:
		}
	}()

	return func() error {
		close(done)
		wg.Wait()
		if hasDeadline {
			_ = dl.SetDeadline(time.Time{})
		}
		if err := ctx.Err(); err != nil {
			return qerrors.Wrap(qerrors.TransportFailed, "exchange aborted", err)
		}
		return nil
	}
}

// RemoteAddr reports the peer address, or "" when the stream has none.
func (t *Transport) RemoteAddr() string {
	if ra, ok := t.conn.(remoteAddresser); ok && ra.RemoteAddr() != nil {
		return ra.RemoteAddr().String()
	}
	return ""
}

// Close closes the underlying connection. It may be called from another
// goroutine to abort an exchange in flight, and is safe to call more than once.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}
