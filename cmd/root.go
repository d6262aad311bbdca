// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for pgscope.
// It implements subcommands for managing connection profiles and opening
// interactive database sessions using the Cobra CLI framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pgscope/cli/internal/config"
	"pgscope/cli/internal/logging"
)

var (
	showVersion bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "pgscope",
	Short:         "Interactive PostgreSQL session manager",
	Long: `pgscope is a command-line PostgreSQL client. It keeps named connection
profiles, stores passwords in the OS keychain, and opens interactive
sessions for running queries and browsing schemas, tables and data.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logging.Setup(cfg.LogLevel)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("pgscope %s\n", Version)
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")
}
