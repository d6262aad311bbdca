// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

package profile

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Store persists the ordered profile list as JSON in the config directory.
type Store struct {
	path string
}

// NewStore creates a store rooted at the given config directory.
func NewStore(configDir string) *Store {
	return &Store{path: filepath.Join(configDir, "profiles.json")}
}

// Load reads all profiles; a missing file yields an empty list.
func (s *Store) Load() ([]ConnectionProfile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var profiles []ConnectionProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Save writes the full profile list with 0600 permissions.
func (s *Store) Save(profiles []ConnectionProfile) error {
	b, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}

// Find returns the profile with the given name, or false when absent.
func (s *Store) Find(name string) (ConnectionProfile, bool, error) {
	profiles, err := s.Load()
	if err != nil {
		return ConnectionProfile{}, false, err
	}
	for _, p := range profiles {
		if p.Name == name {
			return p, true, nil
		}
	}
	return ConnectionProfile{}, false, nil
}
