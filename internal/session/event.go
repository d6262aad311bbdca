// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"pgscope/cli/internal/db"
)

// Event is the sealed set of notifications a session posts to its consumer.
// Events for queued commands arrive in command order.
type Event interface {
	isEvent()
}

// ConnectedEvent reports a successful connection. Handle is the only way to
// reach the live session.
type ConnectedEvent struct {
	Handle *Handle
}

// ConnectionFailedEvent reports that the connection attempt failed; no
// session exists and no further events follow.
type ConnectionFailedEvent struct {
	Err *db.ConnectionError
}

// ConnectionClosedEvent reports that the session ended. An empty Reason
// means the shutdown was requested; otherwise it describes why the
// connection dropped.
type ConnectionClosedEvent struct {
	Reason string
}

// QueryFinishedEvent carries the rendered result of an ExecuteCommand.
type QueryFinishedEvent struct {
	Result *db.QueryResult
}

// QueryFailedEvent carries the raw database error of a failed
// ExecuteCommand. The session stays alive.
type QueryFailedEvent struct {
	Message string
}

// SchemasLoadedEvent carries the schema listing.
type SchemasLoadedEvent struct {
	Schemas []string
}

// TablesLoadedEvent carries the table listing of one schema.
type TablesLoadedEvent struct {
	Schema string
	Tables []string
}

// ColumnsLoadedEvent carries the column listing of one table.
type ColumnsLoadedEvent struct {
	Schema  string
	Table   string
	Columns []db.ColumnMetadata
}

// TablePreviewReadyEvent carries a rendered table preview.
type TablePreviewReadyEvent struct {
	Schema string
	Table  string
	Result *db.QueryResult
}

// MetadataFailedEvent reports a failed metadata or preview command, with a
// message already prefixed by what was being loaded. The session stays
// alive.
type MetadataFailedEvent struct {
	Message string
}

func (ConnectedEvent) isEvent()         {}
func (ConnectionFailedEvent) isEvent()  {}
func (ConnectionClosedEvent) isEvent()  {}
func (QueryFinishedEvent) isEvent()     {}
func (QueryFailedEvent) isEvent()       {}
func (SchemasLoadedEvent) isEvent()     {}
func (TablesLoadedEvent) isEvent()      {}
func (ColumnsLoadedEvent) isEvent()     {}
func (TablePreviewReadyEvent) isEvent() {}
func (MetadataFailedEvent) isEvent()    {}

// Events is the unbounded sink sessions post to and the consumer receives
// from. One Events value may serve several consecutive sessions.
type Events struct {
	q *queue[Event]
}

// NewEvents creates an open event sink.
func NewEvents() *Events {
	return &Events{q: newQueue[Event]()}
}

// C returns the receive side. It is closed by Close.
func (e *Events) C() <-chan Event {
	return e.q.out
}

// Close shuts the sink down; events posted afterwards are dropped.
func (e *Events) Close() {
	e.q.close()
}

func (e *Events) emit(ev Event) {
	e.q.push(ev)
}
