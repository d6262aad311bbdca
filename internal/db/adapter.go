// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package db defines the database adapter boundary for pgscope sessions.
// The Adapter interface decouples the session protocol from any one engine;
// PostgresAdapter is the single production implementation. Adapters own
// exactly one live connection and must only ever be driven from a single
// goroutine; the session worker guarantees that.
package db

import (
	"context"
	"time"
)

const (
	// RowLimit caps how many rows of any statement are rendered for display.
	RowLimit = 1000
	// PreviewLimit is the default number of rows shown by a table preview.
	PreviewLimit = 50
)

// ColumnMetadata describes one column of a table.
type ColumnMetadata struct {
	Name     string
	DataType string
}

// QueryResult is a fully rendered statement result. Rows contains display
// strings, one per column, at most the requested limit of them; RowCount is
// the number of rows the statement actually produced.
type QueryResult struct {
	Columns   []string
	Rows      [][]string
	RowCount  int
	Duration  time.Duration
	Truncated bool
}

// CloseMonitor reports how the adapter's underlying network connection
// terminated. Wait blocks until termination; an empty reason means the
// shutdown was requested through Disconnect.
type CloseMonitor struct {
	done   <-chan struct{}
	reason func() string
}

// NewCloseMonitor builds a monitor from a termination signal and a reason
// callback. The callback is only invoked after the signal fires.
func NewCloseMonitor(done <-chan struct{}, reason func() string) *CloseMonitor {
	return &CloseMonitor{done: done, reason: reason}
}

// Wait blocks until the connection has terminated and returns the close
// reason, or an empty string if the context is canceled first.
func (m *CloseMonitor) Wait(ctx context.Context) string {
	select {
	case <-m.done:
		return m.reason()
	case <-ctx.Done():
		return ""
	}
}

// Adapter is the interface between the session worker and a database engine.
// Every method takes exclusive access to the one live connection. Connect
// returns a classified *ConnectionError on failure and, on success, an
// optional CloseMonitor for observing connection termination. Disconnect is
// idempotent and safe to call even if Connect never succeeded.
type Adapter interface {
	Connect(ctx context.Context) (*CloseMonitor, error)
	Disconnect(ctx context.Context)
	Execute(ctx context.Context, sql string, limit int) (*QueryResult, error)
	FetchSchemas(ctx context.Context) ([]string, error)
	FetchTables(ctx context.Context, schema string) ([]string, error)
	FetchColumns(ctx context.Context, schema, table string) ([]ColumnMetadata, error)
	PreviewTable(ctx context.Context, schema, table string, limit int) (*QueryResult, error)
}
