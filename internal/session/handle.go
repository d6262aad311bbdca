// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"sync"

	"pgscope/cli/internal/db"
)

// Handle is the consumer's side of a live session, delivered inside
// ConnectedEvent. All methods post a command and return immediately; they
// never block, and commands posted after the worker has exited are
// silently dropped.
type Handle struct {
	cmds *queue[Command]
	done <-chan struct{}
	once sync.Once
}

func newHandle(cmds *queue[Command], done <-chan struct{}) *Handle {
	return &Handle{cmds: cmds, done: done}
}

// Execute runs a SQL statement, rendering at most the global row cap.
func (h *Handle) Execute(sql string) {
	h.cmds.push(ExecuteCommand{SQL: sql, Limit: db.RowLimit})
}

// LoadSchemas requests the schema listing.
func (h *Handle) LoadSchemas() {
	h.cmds.push(FetchSchemasCommand{})
}

// LoadTables requests the base tables of a schema.
func (h *Handle) LoadTables(schema string) {
	h.cmds.push(FetchTablesCommand{Schema: schema})
}

// LoadColumns requests the columns of a table.
func (h *Handle) LoadColumns(schema, table string) {
	h.cmds.push(FetchColumnsCommand{Schema: schema, Table: table})
}

// PreviewTable requests a preview of a table's first rows. A limit of zero
// means the default preview size.
func (h *Handle) PreviewTable(schema, table string, limit int) {
	h.cmds.push(PreviewTableCommand{Schema: schema, Table: table, Limit: limit})
}

// Disconnect asks the worker to shut down without waiting for it.
func (h *Handle) Disconnect() {
	h.cmds.push(DisconnectCommand{})
}

// Done is closed once the worker goroutine has fully exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Close requests a disconnect and waits for the worker to exit. Safe to
// call repeatedly and after the connection already dropped.
func (h *Handle) Close() {
	h.once.Do(func() {
		h.cmds.push(DisconnectCommand{})
		<-h.done
	})
}
