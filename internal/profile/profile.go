// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package profile defines connection profiles and their on-disk store.
// A profile holds everything needed to open a database session except the
// password, which lives in the OS keychain when the user opts to remember it.
package profile

import (
	"github.com/google/uuid"
)

// ID uniquely identifies a connection profile across renames.
type ID = uuid.UUID

// ConnectionProfile describes a named PostgreSQL connection target.
// Profiles are immutable for the lifetime of a session; edits create a new
// value that is persisted through the Store.
type ConnectionProfile struct {
	ID               ID     `json:"id"`
	Name             string `json:"name"`
	Host             string `json:"host"`
	Port             uint16 `json:"port"`
	Database         string `json:"database"`
	Username         string `json:"username"`
	RememberPassword bool   `json:"remember_password,omitempty"`
}

// New creates a profile with a fresh unique ID.
func New(name, host string, port uint16, database, username string, rememberPassword bool) ConnectionProfile {
	return ConnectionProfile{
		ID:               uuid.New(),
		Name:             name,
		Host:             host,
		Port:             port,
		Database:         database,
		Username:         username,
		RememberPassword: rememberPassword,
	}
}
