// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"strings"
)

// DetectForm detects which syntax an address uses
func DetectForm(addr string) Form {
	lower := strings.ToLower(strings.TrimSpace(addr))

	if strings.HasPrefix(lower, Scheme+"://") {
		return FormURL
	}
	if strings.Contains(lower, "://") {
		return FormUnknown
	}
	return FormHostPort
}

func resolverFor(addr string) (Resolver, error) {
	switch DetectForm(addr) {
	case FormURL:
		return NewURLResolver(), nil
	case FormHostPort:
		return NewHostPortResolver(), nil
	default:
		return nil, NewParseError(addr, "unknown scheme", "use host, host:port or quark://[token@]host[:port]")
	}
}

// Parse parses a server address in any supported form.
// This is the main entry point for address parsing
func Parse(addr string) (*Address, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, NewParseError(addr, "empty address", "provide a host such as localhost:8080")
	}

	resolver, err := resolverFor(addr)
	if err != nil {
		return nil, err
	}
	return resolver.Parse(strings.TrimSpace(addr))
}

// Validate validates an address without keeping the result
func Validate(addr string) error {
	_, err := Parse(addr)
	return err
}

// Normalize parses an address and formats it as quark://[token@]host:port
func Normalize(addr string) (string, error) {
	a, err := Parse(addr)
	if err != nil {
		return "", err
	}
	return NewURLResolver().Normalize(a)
}
