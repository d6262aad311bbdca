// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"atomicgo.dev/cursor"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pgscope/cli/internal/config"
	"pgscope/cli/internal/db"
	"pgscope/cli/internal/keychain"
	"pgscope/cli/internal/logging"
	"pgscope/cli/internal/profile"
	"pgscope/cli/internal/session"
	"pgscope/cli/internal/xdg"
)

var (
	connectProfile string
	verboseConnect bool
)

// connectCmd opens an interactive session against a stored profile. The
// shell posts commands to the session worker and renders the events it
// sends back; it never touches the connection itself.
var connectCmd = &cobra.Command{
	Use:   "connect [profile]",
	Short: "Open an interactive database session",
	Long: `The connect command opens an interactive session against a stored profile.
Plain input runs as SQL; backslash commands browse metadata:

  \schemas                       list schemas
  \tables [schema]               list tables (default schema: public)
  \columns <schema> <table>      list columns
  \preview <schema> <table> [n]  show the first n rows
  \q                             disconnect and quit

Passwords come from the OS keychain when the profile remembers them,
otherwise from a hidden prompt.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if verboseConnect {
			os.Setenv("PGSCOPE_VERBOSE", "1")
			logging.Setup("debug")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		p, err := pickProfile(args)
		if err != nil {
			return err
		}
		password, err := resolvePassword(p)
		if err != nil {
			return err
		}

		events := session.NewEvents()
		defer events.Close()
		session.SpawnPostgres(p, password, events)

		cursor.Hide()
		stopSpinner := startInlineSpinner(os.Stdout,
			fmt.Sprintf("connecting to %s:%d", p.Host, p.Port),
			[]string{"-", "\\", "|", "/"}, 100*time.Millisecond)

		first, ok := <-events.C()
		stopSpinner()
		cursor.Show()
		if !ok {
			return errors.New("session ended before connecting")
		}

		switch ev := first.(type) {
		case session.ConnectionFailedEvent:
			pterm.Error.Println(ev.Err.Summary)
			logrus.WithField("detail", logging.Mask(ev.Err.Detail)).Debug("connection failed")
			if p.RememberPassword && ev.Err.Kind == db.KindAuthFailed {
				pterm.Println("The stored password may be stale. Re-create the profile with: pgscope profiles add --remember")
			}
			return errors.New("connection failed")
		case session.ConnectedEvent:
			pterm.Success.Printf("Connected to %s/%s as %s\n", p.Host, p.Database, p.Username)
			runShell(ev.Handle, events, p, cfg)
			return nil
		default:
			return fmt.Errorf("unexpected first event %T", first)
		}
	},
}

// pickProfile resolves which profile to connect to, from the positional
// argument, the --profile flag, or the single stored profile.
func pickProfile(args []string) (profile.ConnectionProfile, error) {
	var p profile.ConnectionProfile
	store, err := openStore()
	if err != nil {
		return p, err
	}
	profiles, err := store.Load()
	if err != nil {
		return p, err
	}
	if len(profiles) == 0 {
		return p, errors.New("no profiles configured; create one with: pgscope profiles add")
	}

	name := connectProfile
	if len(args) == 1 {
		name = args[0]
	}
	if name == "" {
		if len(profiles) == 1 {
			return profiles[0], nil
		}
		names := make([]string, len(profiles))
		for i, pr := range profiles {
			names[i] = pr.Name
		}
		return p, fmt.Errorf("several profiles exist, pick one of: %s", strings.Join(names, ", "))
	}

	for _, pr := range profiles {
		if pr.Name == name {
			return pr, nil
		}
	}
	return p, fmt.Errorf("no profile named %q", name)
}

// resolvePassword fetches the stored password for remembered profiles and
// prompts otherwise. A remembered profile whose keychain entry is gone
// falls back to the prompt.
func resolvePassword(p profile.ConnectionProfile) (string, error) {
	if p.RememberPassword {
		km, err := keychain.GetManager()
		if err == nil {
			pw, err := km.LoadPassword(p.ID, p.Username)
			if err == nil {
				return pw, nil
			}
			if !errors.Is(err, keychain.ErrNotFound) {
				return "", err
			}
		}
	}
	return promptPassword(fmt.Sprintf("Password for %s@%s: ", p.Username, p.Host))
}

// runShell is the interactive loop. Each accepted input posts exactly one
// command and waits for its outcome event before prompting again, so output
// order matches input order.
func runShell(h *session.Handle, events *session.Events, p profile.ConnectionProfile, cfg config.Config) {
	fmt.Println(`Type SQL to run it, \? for help, \q to quit.`)
	reader := bufio.NewReader(os.Stdin)
	prompt := p.Database + "=> "
	history := openHistory()
	if history != nil {
		defer history.Close()
	}

	for {
		select {
		case <-h.Done():
			// The worker is gone (connection dropped); the closed event
			// was already rendered by awaitOutcome.
			return
		default:
		}

		fmt.Print(prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			closeAndReport(h, events)
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if history != nil {
			fmt.Fprintln(history, line)
		}

		if strings.HasPrefix(line, `\`) {
			quit, sent := dispatchMeta(h, line, cfg)
			if quit {
				closeAndReport(h, events)
				return
			}
			if !sent {
				continue
			}
		} else {
			h.Execute(line)
		}

		if sessionEnded := awaitOutcome(events); sessionEnded {
			return
		}
	}
}

// dispatchMeta handles backslash commands. It reports whether the shell
// should quit and whether a session command was actually posted.
func dispatchMeta(h *session.Handle, line string, cfg config.Config) (quit, sent bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case `\q`, `\quit`:
		return true, false

	case `\?`, `\help`:
		fmt.Println(`  \schemas                       list schemas`)
		fmt.Println(`  \tables [schema]               list tables (default schema: public)`)
		fmt.Println(`  \columns <schema> <table>      list columns`)
		fmt.Println(`  \preview <schema> <table> [n]  show the first n rows`)
		fmt.Println(`  \q                             disconnect and quit`)
		return false, false

	case `\schemas`:
		h.LoadSchemas()
		return false, true

	case `\tables`:
		schema := "public"
		if len(fields) > 1 {
			schema = fields[1]
		}
		h.LoadTables(schema)
		return false, true

	case `\columns`:
		schema, tbl, ok := parseTableRef(fields[1:])
		if !ok {
			pterm.Warning.Println(`usage: \columns <schema> <table>`)
			return false, false
		}
		h.LoadColumns(schema, tbl)
		return false, true

	case `\preview`:
		schema, tbl, ok := parseTableRef(fields[1:])
		if !ok {
			pterm.Warning.Println(`usage: \preview <schema> <table> [n]`)
			return false, false
		}
		limit := cfg.PreviewLimit
		if n := previewArgLimit(fields); n > 0 {
			limit = n
		}
		h.PreviewTable(schema, tbl, limit)
		return false, true

	default:
		pterm.Warning.Printf("unknown command %s (try \\?)\n", fields[0])
		return false, false
	}
}

// parseTableRef accepts either "schema table" or a single "schema.table".
func parseTableRef(args []string) (schema, table string, ok bool) {
	switch len(args) {
	case 0:
		return "", "", false
	case 1:
		parts := strings.SplitN(args[0], ".", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return "public", args[0], args[0] != ""
		}
		return parts[0], parts[1], true
	default:
		return args[0], args[1], true
	}
}

// previewArgLimit extracts the optional trailing row count of \preview.
func previewArgLimit(fields []string) int {
	if len(fields) < 2 {
		return 0
	}
	n, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0
	}
	return n
}

// awaitOutcome blocks until the outcome event of the last posted command
// arrives and renders it. Returns true when the session ended instead.
func awaitOutcome(events *session.Events) bool {
	for ev := range events.C() {
		switch e := ev.(type) {
		case session.QueryFinishedEvent:
			renderResult(e.Result)
			return false
		case session.QueryFailedEvent:
			pterm.Error.Println(e.Message)
			return false
		case session.SchemasLoadedEvent:
			renderNames("Schemas", e.Schemas)
			return false
		case session.TablesLoadedEvent:
			renderNames(fmt.Sprintf("Tables in %s", e.Schema), e.Tables)
			return false
		case session.ColumnsLoadedEvent:
			renderColumns(e.Schema, e.Table, e.Columns)
			return false
		case session.TablePreviewReadyEvent:
			renderResult(e.Result)
			return false
		case session.MetadataFailedEvent:
			pterm.Error.Println(e.Message)
			return false
		case session.ConnectionClosedEvent:
			reportClosed(e)
			return true
		}
	}
	return true
}

// closeAndReport shuts the session down and renders the closing event.
func closeAndReport(h *session.Handle, events *session.Events) {
	h.Close()
	for {
		select {
		case ev, ok := <-events.C():
			if !ok {
				return
			}
			if e, isClosed := ev.(session.ConnectionClosedEvent); isClosed {
				reportClosed(e)
				return
			}
		case <-time.After(2 * time.Second):
			return
		}
	}
}

// openHistory appends shell input to a history file in the state dir.
// History is best-effort; a nil return disables it.
func openHistory() *os.File {
	dir, err := xdg.StateDir()
	if err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, "history"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil
	}
	return f
}

func reportClosed(e session.ConnectionClosedEvent) {
	if e.Reason == "" {
		pterm.Println("Disconnected.")
		return
	}
	pterm.Error.Printf("Connection closed: %s\n", e.Reason)
}

// renderResult prints a query or preview result as a table with its row
// count and timing.
func renderResult(res *db.QueryResult) {
	if len(res.Columns) > 0 && len(res.Rows) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		header := make(table.Row, len(res.Columns))
		for i, c := range res.Columns {
			header[i] = c
		}
		t.AppendHeader(header)
		for _, r := range res.Rows {
			row := make(table.Row, len(r))
			for i, cell := range r {
				row[i] = cell
			}
			t.AppendRow(row)
		}
		t.Render()
	}
	pterm.Printf("%d row(s) in %s\n", res.RowCount, res.Duration.Round(time.Millisecond))
	if res.Truncated {
		pterm.Warning.Printf("Output truncated to %d row(s).\n", len(res.Rows))
	}
}

func renderNames(title string, names []string) {
	pterm.Println(pterm.NewStyle(pterm.FgLightCyan, pterm.Bold).Sprint(title))
	if len(names) == 0 {
		fmt.Println("  (none)")
		return
	}
	items := make([]pterm.BulletListItem, len(names))
	for i, n := range names {
		items[i] = pterm.BulletListItem{Level: 0, Text: n}
	}
	_ = pterm.DefaultBulletList.WithItems(items).Render()
}

func renderColumns(schema, tbl string, cols []db.ColumnMetadata) {
	pterm.Println(pterm.NewStyle(pterm.FgLightCyan, pterm.Bold).Sprintf("Columns of %s.%s", schema, tbl))
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Type"})
	for _, c := range cols {
		t.AppendRow(table.Row{c.Name, c.DataType})
	}
	t.Render()
}

func init() {
	rootCmd.AddCommand(connectCmd)
	connectCmd.Flags().StringVar(&connectProfile, "profile", "", "Profile name to connect with")
	connectCmd.Flags().BoolVarP(&verboseConnect, "verbose", "v", false, "Enable verbose debug output")
}
