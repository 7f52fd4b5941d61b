// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

package keychain

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
)

func newTestManager() (*Manager, *keyring.ArrayKeyring) {
	ring := keyring.NewArrayKeyring(nil)
	return NewManagerWithRing(ring), ring
}

func TestSaveLoadToken(t *testing.T) {
	m, ring := newTestManager()

	if err := m.SaveToken("db:8080", "secret"); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}

	got, err := m.LoadToken("db:8080")
	if err != nil {
		t.Fatalf("LoadToken() error = %v", err)
	}
	if got != "secret" {
		t.Errorf("LoadToken() = %v, want secret", got)
	}

	it, err := ring.Get(TokenKey("db:8080"))
	if err != nil {
		t.Fatalf("ring.Get() error = %v", err)
	}
	if string(it.Data) != "secret" {
		t.Errorf("stored data = %q, want secret", it.Data)
	}
}

func TestTokensAreKeyedByAddress(t *testing.T) {
	m, _ := newTestManager()

	_ = m.SaveToken("a:1", "one")
	_ = m.SaveToken("a:2", "two")

	tests := []struct {
		addr string
		want string
	}{
		{addr: "a:1", want: "one"},
		{addr: "a:2", want: "two"},
	}
	for _, tt := range tests {
		got, err := m.LoadToken(tt.addr)
		if err != nil {
			t.Fatalf("LoadToken(%s) error = %v", tt.addr, err)
		}
		if got != tt.want {
			t.Errorf("LoadToken(%s) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

func TestLoadToken_NotFound(t *testing.T) {
	m, _ := newTestManager()

	_, err := m.LoadToken("nowhere:1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadToken() error = %v, want ErrNotFound", err)
	}
}

func TestClearToken(t *testing.T) {
	m, _ := newTestManager()

	_ = m.SaveToken("db:8080", "secret")
	if err := m.ClearToken("db:8080"); err != nil {
		t.Fatalf("ClearToken() error = %v", err)
	}
	if _, err := m.LoadToken("db:8080"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadToken() after clear error = %v, want ErrNotFound", err)
	}

	// Clearing again is not an error
	if err := m.ClearToken("db:8080"); err != nil {
		t.Errorf("second ClearToken() error = %v", err)
	}
}

func TestSaveToken_Empty(t *testing.T) {
	m, _ := newTestManager()

	if err := m.SaveToken("db:8080", ""); err == nil {
		t.Error("expected error but got none")
	}
}
