// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sirupsen/logrus"

	"pgscope/cli/internal/profile"
)

// Ordered metadata queries over information_schema. System schemas are
// excluded from the schema listing.
const (
	sqlSchemas = `SELECT schema_name FROM information_schema.schemata
WHERE schema_name NOT IN ('pg_catalog', 'pg_toast', 'information_schema')
ORDER BY schema_name`

	sqlTables = `SELECT table_name FROM information_schema.tables
WHERE table_schema = $1 AND table_type = 'BASE TABLE'
ORDER BY table_name`

	sqlColumns = `SELECT column_name, data_type FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`
)

// PostgresAdapter owns a single pgx connection for one session. It is not
// safe for concurrent use; the session worker is its only caller.
type PostgresAdapter struct {
	profile  profile.ConnectionProfile
	password string
	conn     *pgx.Conn

	// disconnecting is set strictly before teardown begins so the close
	// monitor can tell a requested shutdown from a dropped connection.
	disconnecting atomic.Bool
	closeReason   atomic.Pointer[string]
}

// NewPostgresAdapter builds an adapter for the given profile. The password
// is held in memory only and never logged.
func NewPostgresAdapter(p profile.ConnectionProfile, password string) *PostgresAdapter {
	return &PostgresAdapter{profile: p, password: password}
}

// Connect opens the connection described by the profile. On failure the
// returned error is a classified *ConnectionError. On success the returned
// monitor fires when the underlying network connection terminates.
func (a *PostgresAdapter) Connect(ctx context.Context) (*CloseMonitor, error) {
	cfg, err := pgx.ParseConfig(a.connString())
	if err != nil {
		return nil, classifyConnectError(err)
	}
	// The password is injected after parsing so it never needs URL escaping
	// and never appears in any string representation of the config.
	cfg.Password = a.password

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, classifyConnectError(err)
	}
	a.conn = conn

	logrus.WithFields(logrus.Fields{
		"host":     a.profile.Host,
		"database": a.profile.Database,
		"user":     a.profile.Username,
	}).Debug("database connection established")

	return NewCloseMonitor(conn.PgConn().CleanupDone(), a.closeReasonText), nil
}

func (a *PostgresAdapter) connString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.User(a.profile.Username),
		Host:     fmt.Sprintf("%s:%d", a.profile.Host, a.profile.Port),
		Path:     "/" + a.profile.Database,
		RawQuery: "sslmode=prefer",
	}
	return u.String()
}

// closeReasonText is consulted by the CloseMonitor once the connection has
// terminated. An empty string means the shutdown was requested.
func (a *PostgresAdapter) closeReasonText() string {
	if a.disconnecting.Load() {
		return ""
	}
	if r := a.closeReason.Load(); r != nil {
		return *r
	}
	return "server closed the connection unexpectedly"
}

// noteFatal records the error text of a command that coincided with the
// connection dying, so the close monitor can report something useful.
func (a *PostgresAdapter) noteFatal(err error) {
	if a.conn != nil && a.conn.IsClosed() {
		msg := err.Error()
		a.closeReason.Store(&msg)
	}
}

// Disconnect closes the connection if one is open. Idempotent.
func (a *PostgresAdapter) Disconnect(ctx context.Context) {
	a.disconnecting.Store(true)
	if a.conn != nil {
		if err := a.conn.Close(ctx); err != nil {
			logrus.WithError(err).Debug("error closing database connection")
		}
		a.conn = nil
	}
}

func (a *PostgresAdapter) client() (*pgx.Conn, error) {
	if a.conn == nil {
		return nil, errors.New("not connected to a database")
	}
	return a.conn, nil
}

// Execute runs an arbitrary SQL statement and renders at most limit rows.
// RowCount reports how many rows the statement actually produced, and
// Truncated is set when that exceeds the limit.
func (a *PostgresAdapter) Execute(ctx context.Context, sql string, limit int) (*QueryResult, error) {
	conn, err := a.client()
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > RowLimit {
		limit = RowLimit
	}

	started := time.Now()
	rows, err := conn.Query(ctx, sql)
	if err != nil {
		a.noteFatal(err)
		return nil, err
	}
	res, err := collectResult(conn.TypeMap(), rows, limit, started)
	if err != nil {
		a.noteFatal(err)
		return nil, err
	}
	return res, nil
}

// collectResult drains rows, rendering at most limit of them. Column names
// come from the field descriptions so zero-row results still carry headers.
func collectResult(m *pgtype.Map, rows pgx.Rows, limit int, started time.Time) (*QueryResult, error) {
	defer rows.Close()

	fds := rows.FieldDescriptions()
	columns := make([]string, len(fds))
	for i, fd := range fds {
		columns[i] = fd.Name
	}

	var rendered [][]string
	total := 0
	for rows.Next() {
		total++
		if total > limit {
			continue
		}
		raw := rows.RawValues()
		cells := make([]string, len(fds))
		for i, fd := range fds {
			cells[i] = renderValue(m, fd.DataTypeOID, fd.Format, raw[i])
		}
		rendered = append(rendered, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &QueryResult{
		Columns:   columns,
		Rows:      rendered,
		RowCount:  total,
		Duration:  time.Since(started),
		Truncated: total > len(rendered),
	}, nil
}

// FetchSchemas lists user schemas in name order.
func (a *PostgresAdapter) FetchSchemas(ctx context.Context) ([]string, error) {
	conn, err := a.client()
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(ctx, sqlSchemas)
	if err != nil {
		a.noteFatal(err)
		return nil, err
	}
	return collectNames(rows)
}

// FetchTables lists base tables of a schema in name order.
func (a *PostgresAdapter) FetchTables(ctx context.Context, schema string) ([]string, error) {
	conn, err := a.client()
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(ctx, sqlTables, schema)
	if err != nil {
		a.noteFatal(err)
		return nil, err
	}
	return collectNames(rows)
}

// collectNames drains a single-column name query. Rows that fail to decode
// are skipped rather than failing the whole listing.
func collectNames(rows pgx.Rows) ([]string, error) {
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			continue
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// FetchColumns lists the columns of a table in ordinal position order.
func (a *PostgresAdapter) FetchColumns(ctx context.Context, schema, table string) ([]ColumnMetadata, error) {
	conn, err := a.client()
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(ctx, sqlColumns, schema, table)
	if err != nil {
		a.noteFatal(err)
		return nil, err
	}
	defer rows.Close()

	var cols []ColumnMetadata
	for rows.Next() {
		var c ColumnMetadata
		if err := rows.Scan(&c.Name, &c.DataType); err != nil {
			continue
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cols, nil
}

// PreviewTable renders the first rows of a table. The limit is clamped to
// the global row cap; one extra row is fetched to detect truncation, and
// RowCount reports only the rows actually shown.
func (a *PostgresAdapter) PreviewTable(ctx context.Context, schema, table string, limit int) (*QueryResult, error) {
	conn, err := a.client()
	if err != nil {
		return nil, err
	}
	stmt, limit := previewStatement(schema, table, limit)

	started := time.Now()
	rows, err := conn.Query(ctx, stmt)
	if err != nil {
		a.noteFatal(err)
		return nil, err
	}
	res, err := collectResult(conn.TypeMap(), rows, limit, started)
	if err != nil {
		a.noteFatal(err)
		return nil, err
	}
	res.RowCount = len(res.Rows)
	return res, nil
}
