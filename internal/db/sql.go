// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

package db

import (
	"fmt"
	"strings"
)

// QuoteIdentifier makes an identifier safe for interpolation into SQL by
// wrapping it in double quotes and doubling any embedded double quotes.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QualifiedTableName returns the quoted schema.table form.
func QualifiedTableName(schema, table string) string {
	return QuoteIdentifier(schema) + "." + QuoteIdentifier(table)
}

// previewStatement builds the SELECT for a table preview. The limit is
// clamped to [1, RowLimit], defaulting to PreviewLimit; the statement asks
// for one extra row so the caller can detect truncation. Returns the SQL
// and the effective display limit.
func previewStatement(schema, table string, limit int) (string, int) {
	if limit <= 0 {
		limit = PreviewLimit
	}
	if limit > RowLimit {
		limit = RowLimit
	}
	stmt := fmt.Sprintf("SELECT * FROM %s LIMIT %d", QualifiedTableName(schema, table), limit+1)
	return stmt, limit
}
