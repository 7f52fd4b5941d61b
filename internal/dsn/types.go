// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"fmt"
	"net"
	"strconv"
)

const (
	// Scheme is the URL scheme of a server address.
	Scheme = "quark"
	// DefaultHost is used when an address names no host.
	DefaultHost = "localhost"
	// DefaultPort is used when an address names no port.
	DefaultPort = 8080
)

// Form is the syntax an address was written in
type Form string

const (
	FormURL      Form = "url"
	FormHostPort Form = "hostport"
	FormUnknown  Form = "unknown"
)

// Address is a parsed server address
type Address struct {
	Host     string
	Port     int
	Token    string
	Original string
}

// String returns host:port, bracketing IPv6 hosts
func (a *Address) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// URL returns the address as quark://host:port, without the token
func (a *Address) URL() string {
	return Scheme + "://" + a.String()
}

// Resolver parses one address form
type Resolver interface {
	// Parse parses an address string
	Parse(addr string) (*Address, error)

	// Normalize formats a parsed address back into canonical text
	Normalize(a *Address) (string, error)
}

// ParseError represents an error that occurred during address parsing
type ParseError struct {
	Address string
	Reason  string
	Hint    string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid server address: %s\nHint: %s", e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid server address: %s", e.Reason)
}

// NewParseError creates a new ParseError
func NewParseError(addr, reason, hint string) *ParseError {
	return &ParseError{
		Address: addr,
		Reason:  reason,
		Hint:    hint,
	}
}
