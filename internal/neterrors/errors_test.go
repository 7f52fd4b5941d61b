// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

package neterrors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"testing"

	qerrors "quark/cli/internal/errors"
	"quark/cli/internal/frame"
	"quark/cli/internal/transport"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o wait exceeded" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{name: "nil", err: nil, want: Unknown},
		{name: "net timeout", err: qerrors.Wrap(qerrors.TransportFailed, "exchange", timeoutErr{}), want: Timeout},
		{name: "deadline", err: qerrors.Wrap(qerrors.TransportFailed, "exchange", context.DeadlineExceeded), want: Timeout},
		{name: "dns", err: qerrors.Wrap(qerrors.ConnectionFailed, "connect", &net.DNSError{Err: "no such host", Name: "nowhere"}), want: DNS},
		{name: "refused", err: qerrors.Wrap(qerrors.ConnectionFailed, "connect", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}), want: Refused},
		{name: "refused text", err: errors.New("dial tcp: connection refused"), want: Refused},
		{name: "no response", err: qerrors.Wrap(qerrors.TransportFailed, "read", frame.ErrNoResponse), want: ConnectionLost},
		{name: "truncated", err: fmt.Errorf("x: %w", frame.ErrTruncated), want: ConnectionLost},
		{name: "broken", err: transport.ErrBroken, want: ConnectionLost},
		{name: "other transport failure", err: qerrors.New(qerrors.TransportFailed, "write"), want: ConnectionLost},
		{name: "malformed", err: qerrors.New(qerrors.MalformedResult, "decode"), want: Malformed},
		{name: "address", err: qerrors.New(qerrors.InvalidAddress, "x"), want: InvalidAddress},
		{name: "config", err: qerrors.New(qerrors.ConfigFailed, "x"), want: Config},
		{name: "storage", err: qerrors.New(qerrors.StorageFailed, "x"), want: Storage},
		{name: "unknown", err: errors.New("boom"), want: Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	err := qerrors.Wrap(qerrors.ConnectionFailed, "connect to quark://tok@db:1", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED})

	out := Format(err, "connecting to db:1")

	for _, want := range []string{"Connection refused", "while connecting to db:1", "not running", "Technical details", "quark://***@db:1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "tok@") {
		t.Errorf("Format() leaked the token:\n%s", out)
	}
}

func TestFormat_Nil(t *testing.T) {
	if got := Format(nil, "x"); got != "" {
		t.Errorf("Format(nil) = %q, want empty", got)
	}
}

func TestPresent_Wraps(t *testing.T) {
	if Present(nil, "x") != nil {
		t.Error("Present(nil) should return nil")
	}
	err := Present(frame.ErrNoResponse, "querying")
	if !errors.Is(err, frame.ErrNoResponse) {
		t.Errorf("Present() = %v, want it to wrap ErrNoResponse", err)
	}
}
