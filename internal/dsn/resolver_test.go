// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"errors"
	"testing"
)

func TestDetectForm(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want Form
	}{
		{name: "quark scheme", addr: "quark://localhost", want: FormURL},
		{name: "quark uppercase", addr: "QUARK://localhost", want: FormURL},
		{name: "bare host", addr: "localhost", want: FormHostPort},
		{name: "host and port", addr: "localhost:8080", want: FormHostPort},
		{name: "ipv6", addr: "[::1]:8080", want: FormHostPort},
		{name: "other scheme", addr: "http://example.com", want: FormUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectForm(tt.addr)
			if got != tt.want {
				t.Errorf("DetectForm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		addr      string
		wantHost  string
		wantPort  int
		wantToken string
	}{
		{name: "bare host", addr: "localhost", wantHost: "localhost", wantPort: DefaultPort},
		{name: "host and port", addr: "db.example.com:9000", wantHost: "db.example.com", wantPort: 9000},
		{name: "surrounding space", addr: "  db:9000 ", wantHost: "db", wantPort: 9000},
		{name: "bracketed ipv6 with port", addr: "[::1]:9000", wantHost: "::1", wantPort: 9000},
		{name: "bracketed ipv6", addr: "[::1]", wantHost: "::1", wantPort: DefaultPort},
		{name: "bare ipv6", addr: "fe80::1", wantHost: "fe80::1", wantPort: DefaultPort},
		{name: "url with token", addr: "quark://abc@h:7000", wantHost: "h", wantPort: 7000, wantToken: "abc"},
		{name: "url without token", addr: "quark://h", wantHost: "h", wantPort: DefaultPort},
		{name: "url trailing slash", addr: "quark://h:1/", wantHost: "h", wantPort: 1},
		{name: "url token after colon", addr: "quark://:abc@h", wantHost: "h", wantPort: DefaultPort, wantToken: "abc"},
		{name: "url token with slash", addr: "quark://a/b@host:1", wantHost: "host", wantPort: 1, wantToken: "a/b"},
		{name: "url ipv6", addr: "quark://t@[::1]:5", wantHost: "::1", wantPort: 5, wantToken: "t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Parse(tt.addr)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if a.Host != tt.wantHost {
				t.Errorf("Host = %v, want %v", a.Host, tt.wantHost)
			}
			if a.Port != tt.wantPort {
				t.Errorf("Port = %v, want %v", a.Port, tt.wantPort)
			}
			if a.Token != tt.wantToken {
				t.Errorf("Token = %v, want %v", a.Token, tt.wantToken)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		addr string
	}{
		{name: "empty", addr: ""},
		{name: "blank", addr: "   "},
		{name: "unknown scheme", addr: "http://example.com"},
		{name: "zero port", addr: "host:0"},
		{name: "port too large", addr: "host:70000"},
		{name: "non-numeric port", addr: "host:abc"},
		{name: "empty port", addr: "host:"},
		{name: "missing host", addr: ":8080"},
		{name: "token without scheme", addr: "tok@host"},
		{name: "unterminated ipv6", addr: "[::1"},
		{name: "junk after ipv6", addr: "[::1]x"},
		{name: "url missing host", addr: "quark://tok@"},
		{name: "url with path", addr: "quark://h:1/db"},
		{name: "url bad port", addr: "quark://tok@host:abc"},
		{name: "url with query", addr: "quark://h?x=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.addr)
			if err == nil {
				t.Fatal("expected error but got none")
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Errorf("error = %T, want *ParseError", err)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{addr: "h:1", want: "quark://h:1"},
		{addr: "localhost", want: "quark://localhost:8080"},
		{addr: "quark://abc@h", want: "quark://abc@h:8080"},
		{addr: "[::1]:9", want: "quark://[::1]:9"},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			got, err := Normalize(tt.addr)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Normalize() = %v, want %v", got, tt.want)
			}

			// Normalized text parses back to the same address
			again, err := Normalize(got)
			if err != nil {
				t.Fatalf("Normalize(normalized) error = %v", err)
			}
			if again != got {
				t.Errorf("Normalize(normalized) = %v, want %v", again, got)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("localhost:8080"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Validate("localhost:-1"); err == nil {
		t.Error("expected error but got none")
	}
}

func TestAddressString(t *testing.T) {
	a := &Address{Host: "::1", Port: 8080, Token: "secret"}
	if got := a.String(); got != "[::1]:8080" {
		t.Errorf("String() = %v, want [::1]:8080", got)
	}
	if got := a.URL(); got != "quark://[::1]:8080" {
		t.Errorf("URL() = %v, want quark://[::1]:8080", got)
	}
}

func TestParseErrorHint(t *testing.T) {
	err := NewParseError("x", "bad", "try y")
	want := "invalid server address: bad\nHint: try y"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if got := NewParseError("x", "bad", "").Error(); got != "invalid server address: bad" {
		t.Errorf("Error() = %q", got)
	}
}
