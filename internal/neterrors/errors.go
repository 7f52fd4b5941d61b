// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package neterrors turns connect, transport and decode failures into
// user-friendly explanations.
package neterrors

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/pterm/pterm"

	qerrors "quark/cli/internal/errors"
	"quark/cli/internal/frame"
	"quark/cli/internal/logging"
	"quark/cli/internal/transport"
)

// Category is the user-facing class of a failure.
type Category int

const (
	Unknown Category = iota
	Timeout
	DNS
	Refused
	ConnectionLost
	Malformed
	InvalidAddress
	Config
	Storage
)

func (c Category) String() string {
	switch c {
	case Timeout:
		return "timeout"
	case DNS:
		return "dns"
	case Refused:
		return "refused"
	case ConnectionLost:
		return "connection_lost"
	case Malformed:
		return "malformed"
	case InvalidAddress:
		return "invalid_address"
	case Config:
		return "config"
	case Storage:
		return "storage"
	default:
		return "unknown"
	}
}

// Classify determines the category of err.
func Classify(err error) Category {
	if err == nil {
		return Unknown
	}

	switch qerrors.KindOf(err) {
	case qerrors.MalformedResult:
		return Malformed
	case qerrors.InvalidAddress:
		return InvalidAddress
	case qerrors.ConfigFailed:
		return Config
	case qerrors.StorageFailed:
		return Storage
	}

	if isTimeoutError(err) {
		return Timeout
	}
	if isDNSError(err) {
		return DNS
	}
	if isConnectionRefusedError(err) {
		return Refused
	}
	if isConnectionLost(err) {
		return ConnectionLost
	}
	return Unknown
}

// isTimeoutError checks if the error is a timeout error.
func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// isDNSError checks if the error is a DNS resolution error.
func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// isConnectionRefusedError checks if the error is a connection refused error.
func isConnectionRefusedError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

// isConnectionLost checks for a stream that ended or broke mid-exchange.
func isConnectionLost(err error) bool {
	if errors.Is(err, frame.ErrNoResponse) ||
		errors.Is(err, frame.ErrTruncated) ||
		errors.Is(err, transport.ErrBroken) ||
		errors.Is(err, transport.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, net.ErrClosed) {
		return true
	}
	return qerrors.Is(err, qerrors.TransportFailed)
}

// Format renders a multi-line explanation of err. context says what was
// being done, e.g. "connecting to db:8080".
func Format(err error, context string) string {
	if err == nil {
		return ""
	}
	category := Classify(err)

	var b strings.Builder
	b.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint(title(category)))
	if context != "" {
		b.WriteString(" while " + context)
	}
	b.WriteString("\n\n")

	for _, line := range explain(category) {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if action := nextStep(category); action != "" {
		b.WriteString("\n")
		b.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ " + action))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + short(logging.Mask(err.Error()))))
	return b.String()
}

// Present prints Format(err, context) and returns err wrapped for the caller.
func Present(err error, context string) error {
	if err == nil {
		return nil
	}
	pterm.Println()
	pterm.Println(Format(err, context))
	pterm.Println()
	return fmt.Errorf("%s: %w", context, err)
}

func title(c Category) string {
	switch c {
	case Timeout:
		return "⏱️  Timed out"
	case DNS:
		return "🌐 Cannot resolve server address"
	case Refused:
		return "🚫 Connection refused"
	case ConnectionLost:
		return "🔌 Connection lost"
	case Malformed:
		return "⚠️  Unreadable server response"
	case InvalidAddress:
		return "❌ Invalid server address"
	case Config:
		return "⚙️  Configuration problem"
	case Storage:
		return "💾 Cannot access local settings"
	default:
		return "❌ Request failed"
	}
}

func explain(c Category) []string {
	switch c {
	case Timeout:
		return []string{
			"The server took too long to respond. This could mean:",
			"  • The query is still running on a busy server",
			"  • A firewall is silently dropping packets",
			"  • The --timeout setting is too low",
		}
	case DNS:
		return []string{
			"The host name could not be looked up. Please check:",
			"  • The host name is spelled correctly",
			"  • Your DNS settings and network connection",
		}
	case Refused:
		return []string{
			"Nothing is accepting connections at that address. This could mean:",
			"  • The Quark server is not running",
			"  • Wrong host or port",
			"  • A firewall is rejecting the connection",
		}
	case ConnectionLost:
		return []string{
			"The server closed the connection before a full response arrived.",
			"This usually happens when:",
			"  • The server restarted or crashed",
			"  • The network path was interrupted",
			"  • The server rejected the request and hung up",
		}
	case Malformed:
		return []string{
			"The server answered, but the response is not a valid query result.",
			"The client and server may be running incompatible versions.",
		}
	case InvalidAddress:
		return []string{
			"Use one of:",
			"  • host or host:port",
			"  • [::1]:port for IPv6",
			"  • quark://token@host:port",
		}
	case Config:
		return []string{"A setting from the config file, QUARK_* environment or flags is invalid."}
	case Storage:
		return []string{"The recent-servers file or keychain could not be read or written."}
	default:
		return []string{"The request could not be completed."}
	}
}

func nextStep(c Category) string {
	switch c {
	case Timeout, Refused, DNS:
		return "Check the address with 'quark servers' and try again"
	case ConnectionLost:
		return "Reconnect and run the query again"
	case InvalidAddress:
		return "Run 'quark connect' with a valid address"
	default:
		return ""
	}
}

func short(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
