// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

// Command is the sealed set of requests a session worker executes, strictly
// in the order they were posted.
type Command interface {
	isCommand()
}

// ExecuteCommand runs an arbitrary SQL statement. Limit caps how many rows
// are rendered; zero means the global row cap.
type ExecuteCommand struct {
	SQL   string
	Limit int
}

// FetchSchemasCommand lists the user schemas of the connected database.
type FetchSchemasCommand struct{}

// FetchTablesCommand lists the base tables of one schema.
type FetchTablesCommand struct {
	Schema string
}

// FetchColumnsCommand lists the columns of one table.
type FetchColumnsCommand struct {
	Schema string
	Table  string
}

// PreviewTableCommand renders the first rows of a table. Limit of zero
// means the default preview size.
type PreviewTableCommand struct {
	Schema string
	Table  string
	Limit  int
}

// DisconnectCommand asks the worker to close the connection and exit.
type DisconnectCommand struct{}

func (ExecuteCommand) isCommand()      {}
func (FetchSchemasCommand) isCommand() {}
func (FetchTablesCommand) isCommand()  {}
func (FetchColumnsCommand) isCommand() {}
func (PreviewTableCommand) isCommand() {}
func (DisconnectCommand) isCommand()   {}
