// Package main is the entry point for the pgscope CLI application.
// It provides an interactive PostgreSQL session shell with managed
// connection profiles and keychain-backed credential storage.
package main

import (
	"pgscope/cli/cmd"
)

// main is the entry point for the pgscope CLI application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
