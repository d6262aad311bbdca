// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides centralized, thread-safe keychain operations for pgscope.
// This module manages all interactions with the OS keychain/credential store and is
// the only place database passwords are ever persisted. Profiles on disk never carry
// credentials; each remembered password is stored under a key derived from the
// profile ID and username.
//
// The package supports the macOS Keychain, Windows Credential Manager and the
// freedesktop Secret Service, with a native `security`-command backend on macOS.
package keychain

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/99designs/keyring"

	"pgscope/cli/internal/profile"
)

// Global keychain manager instance
var (
	globalManager *Manager
	globalError   error
	mu            sync.Mutex
)

// Manager provides centralized, thread-safe operations for the OS keychain.
type Manager struct {
	mu      sync.RWMutex
	ring    keyring.Keyring
	backend keychainBackend
}

// keychainBackend defines the interface for keychain operations.
type keychainBackend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "pgscope"

// ErrNotFound is returned when no password is stored for a profile.
var ErrNotFound = errors.New("no stored password")

// passwordKey derives the keychain key for a profile's database password.
func passwordKey(id profile.ID, username string) string {
	return fmt.Sprintf("db_password_%s:%s", id, username)
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

	return &Manager{
		ring: ring,
	}, nil
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
		// Try macOS Keychain first, then pass (password store) as fallback.
		// Pass requires the 'pass' utility installed: brew install pass
		allowedBackends = []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.PassBackend,
		}
	case "windows":
		allowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	default:
		allowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.PassBackend,
		}
	}

	cfg := keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowedBackends,
		PassPrefix:      ServiceName,
	}

	// Hint prefixes where supported to minimize namespace collisions
	if runtime.GOOS == "windows" {
		cfg.WinCredPrefix = ServiceName
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, err
	}

	return ring, nil
}

// SavePassword stores a profile's database password in the OS keychain.
// This method is thread-safe.
func (m *Manager) SavePassword(id profile.ID, username, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := passwordKey(id, username)
	if m.backend != nil {
		return m.backend.Set(key, password)
	}
	return m.ring.Set(keyring.Item{Key: key, Data: []byte(password)})
}

// LoadPassword retrieves a profile's database password from the keychain.
// It returns ErrNotFound when no password has been stored for the profile.
// This method is thread-safe.
func (m *Manager) LoadPassword(id profile.ID, username string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := passwordKey(id, username)
	if m.backend != nil {
		value, err := m.backend.Get(key)
		if err != nil {
			return "", ErrNotFound
		}
		return value, nil
	}

	it, err := m.ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(it.Data), nil
}

// DeletePassword removes a profile's stored password. Missing entries are not
// an error. This method is thread-safe.
func (m *Manager) DeletePassword(id profile.ID, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := passwordKey(id, username)
	if m.backend != nil {
		_ = m.backend.Delete(key)
		return nil
	}

	if err := m.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}
