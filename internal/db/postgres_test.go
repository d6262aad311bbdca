// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

package db

import (
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// fakeRows feeds scripted raw wire values through the pgx.Rows interface.
type fakeRows struct {
	fds  []pgconn.FieldDescription
	data [][][]byte
	idx  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return r.fds }
func (r *fakeRows) Scan(dest ...any) error                       { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return r.data[r.idx-1] }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.idx < len(r.data) {
		r.idx++
		return true
	}
	return false
}

func intRows(n int) *fakeRows {
	rows := &fakeRows{
		fds: []pgconn.FieldDescription{
			{Name: "n", DataTypeOID: pgtype.Int4OID, Format: pgtype.TextFormatCode},
		},
	}
	for i := 0; i < n; i++ {
		rows.data = append(rows.data, [][]byte{[]byte(fmt.Sprint(i))})
	}
	return rows
}

func TestCollectResultTruncation(t *testing.T) {
	m := pgtype.NewMap()

	res, err := collectResult(m, intRows(1001), 1000, time.Now())
	if err != nil {
		t.Fatalf("collectResult: %v", err)
	}
	if res.RowCount != 1001 {
		t.Errorf("RowCount = %d, want 1001", res.RowCount)
	}
	if len(res.Rows) != 1000 {
		t.Errorf("len(Rows) = %d, want 1000", len(res.Rows))
	}
	if !res.Truncated {
		t.Error("expected Truncated for 1001 rows at limit 1000")
	}
	if res.Rows[0][0] != "0" || res.Rows[999][0] != "999" {
		t.Errorf("unexpected boundary cells %q, %q", res.Rows[0][0], res.Rows[999][0])
	}

	res, err = collectResult(m, intRows(1000), 1000, time.Now())
	if err != nil {
		t.Fatalf("collectResult: %v", err)
	}
	if res.Truncated {
		t.Error("exactly limit rows must not report truncation")
	}
	if res.RowCount != 1000 {
		t.Errorf("RowCount = %d, want 1000", res.RowCount)
	}
}

func TestCollectResultKeepsColumnsForEmptyResult(t *testing.T) {
	m := pgtype.NewMap()
	res, err := collectResult(m, intRows(0), 10, time.Now())
	if err != nil {
		t.Fatalf("collectResult: %v", err)
	}
	if len(res.Columns) != 1 || res.Columns[0] != "n" {
		t.Errorf("Columns = %v, want [n]", res.Columns)
	}
	if res.RowCount != 0 || res.Truncated {
		t.Errorf("unexpected count/truncation: %d %v", res.RowCount, res.Truncated)
	}
}
