// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain stores per-server access tokens in the OS keychain or
// credential store. Tokens are keyed by the server's host:port, so one
// machine can hold tokens for several Quark servers.
//
// macOS uses the security command when available; other platforms go
// through 99designs/keyring with native backends only (no file fallback).
// When no backend is usable the caller falls back to the recent-servers file.
package keychain

import (
	"errors"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
)

// ErrNotFound is returned when no token is stored for a server.
var ErrNotFound = errors.New("keychain: token not found")

// Global keychain manager instance
var (
	globalManager *Manager
	globalError   error
	mu            sync.Mutex
)

// Manager provides thread-safe token operations on the OS keychain.
type Manager struct {
	mu      sync.RWMutex
	backend keychainBackend
}

// keychainBackend defines the interface for keychain operations.
type keychainBackend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "quark"

// tokenKeyPrefix prefixes the host:port of each stored token.
const tokenKeyPrefix = "token:"

// TokenKey returns the keychain key for a server address.
func TokenKey(addr string) string {
	return tokenKeyPrefix + addr
}

// NewManager creates a new keychain manager with the OS keyring initialized.
func NewManager() (*Manager, error) {
	// Try native security backend first on macOS
	if runtime.GOOS == "darwin" {
		backend, err := newSecurityBackend()
		if err == nil {
			return &Manager{backend: backend}, nil
		}
		// Fall through to keyring library if security command fails
	}

	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return NewManagerWithRing(ring), nil
}

// NewManagerWithRing wraps an already opened keyring.
func NewManagerWithRing(ring keyring.Keyring) *Manager {
	return &Manager{backend: ringBackend{ring: ring}}
}

// GetManager returns the global keychain manager instance.
// If not initialized, it will be created on first call.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	globalManager, globalError = NewManager()
	if globalError != nil {
		return nil, globalError
	}
	return globalManager, nil
}

// openRing opens the OS keyring using native platform backends only.
func openRing() (keyring.Keyring, error) {
	var allowedBackends []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		// Pass requires 'pass' utility installed: brew install pass
		allowedBackends = []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.PassBackend,
		}
	case "windows":
		allowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	case "linux", "freebsd", "openbsd":
		allowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
		}
	default:
		return nil, errors.New("secure storage not supported on " + runtime.GOOS)
	}

	cfg := keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowedBackends,
		PassPrefix:      ServiceName,
		KWalletAppID:    ServiceName,
		KWalletFolder:   ServiceName,
	}

	// Hint prefixes where supported to minimize namespace collisions
	if runtime.GOOS == "windows" {
		cfg.WinCredPrefix = ServiceName
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		if runtime.GOOS == "darwin" {
			return nil, errors.New("macOS Keychain unavailable. On macOS 26.0+, install 'pass': brew install pass gnupg && gpg --generate-key && pass init <gpg-key-id>")
		}
		return nil, err
	}
	return ring, nil
}

// SaveToken stores the token for the server at addr (host:port).
// This method is thread-safe.
func (m *Manager) SaveToken(addr, token string) error {
	if token == "" {
		return errors.New("keychain: empty token")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backend.Set(TokenKey(addr), token)
}

// LoadToken retrieves the token for the server at addr.
// It returns ErrNotFound when none is stored.
// This method is thread-safe.
func (m *Manager) LoadToken(addr string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	token, err := m.backend.Get(TokenKey(addr))
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrNotFound
	}
	return token, nil
}

// ClearToken removes the token for the server at addr. A missing token is
// not an error.
// This method is thread-safe.
func (m *Manager) ClearToken(addr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backend.Delete(TokenKey(addr))
}

// ringBackend adapts a keyring.Keyring to keychainBackend.
type ringBackend struct {
	ring keyring.Keyring
}

func (b ringBackend) Set(key, value string) error {
	return b.ring.Set(keyring.Item{Key: key, Data: []byte(value), Label: ServiceName + " " + key})
}

func (b ringBackend) Get(key string) (string, error) {
	it, err := b.ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(it.Data), nil
}

func (b ringBackend) Delete(key string) error {
	err := b.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}
