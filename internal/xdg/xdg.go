// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package xdg resolves the XDG base directories pgscope stores its files
// in: configuration (profiles, settings) and state (shell history). Both
// are created on demand with private permissions, since the config dir
// holds connection coordinates and the state dir query history.
package xdg

import (
	"os"
	"path/filepath"
)

const appDir = "pgscope"

// ConfigDir returns the pgscope configuration directory, honoring
// XDG_CONFIG_HOME and falling back to ~/.config.
func ConfigDir() (string, error) {
	return ensure("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the pgscope state directory, honoring XDG_STATE_HOME
// and falling back to ~/.local/state.
func StateDir() (string, error) {
	return ensure("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func ensure(envVar, homeRelative string) (string, error) {
	base := os.Getenv(envVar)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, homeRelative)
	}
	dir := filepath.Join(base, appDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
