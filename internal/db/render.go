// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

package db

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Cell placeholders. Rendering is total: every value becomes some string,
// never an error.
const (
	nullCell        = "NULL"
	errCell         = "<err>"
	unsupportedCell = "<unsupported>"
)

const (
	timestampLayout = "2006-01-02 15:04:05.999999"
	dateLayout      = "2006-01-02"
)

// renderValue turns one raw wire value into its display string based on the
// column's type OID. NULL renders as "NULL", a value that fails to decode as
// "<err>", and a type outside the supported set as "<unsupported>".
func renderValue(m *pgtype.Map, oid uint32, format int16, src []byte) string {
	if src == nil {
		return nullCell
	}

	switch oid {
	case pgtype.BoolOID:
		var v bool
		if err := m.Scan(oid, format, src, &v); err != nil {
			return errCell
		}
		return strconv.FormatBool(v)

	case pgtype.Int2OID:
		var v int16
		if err := m.Scan(oid, format, src, &v); err != nil {
			return errCell
		}
		return strconv.FormatInt(int64(v), 10)

	case pgtype.Int4OID:
		var v int32
		if err := m.Scan(oid, format, src, &v); err != nil {
			return errCell
		}
		return strconv.FormatInt(int64(v), 10)

	case pgtype.Int8OID:
		var v int64
		if err := m.Scan(oid, format, src, &v); err != nil {
			return errCell
		}
		return strconv.FormatInt(v, 10)

	case pgtype.Float4OID:
		var v float32
		if err := m.Scan(oid, format, src, &v); err != nil {
			return errCell
		}
		return strconv.FormatFloat(float64(v), 'g', -1, 32)

	case pgtype.Float8OID:
		var v float64
		if err := m.Scan(oid, format, src, &v); err != nil {
			return errCell
		}
		return strconv.FormatFloat(v, 'g', -1, 64)

	case pgtype.TextOID, pgtype.VarcharOID, pgtype.BPCharOID, pgtype.NameOID:
		var v string
		if err := m.Scan(oid, format, src, &v); err != nil {
			return errCell
		}
		return v

	case pgtype.TimestampOID:
		var v time.Time
		if err := m.Scan(oid, format, src, &v); err != nil {
			return errCell
		}
		return v.Format(timestampLayout)

	case pgtype.TimestamptzOID:
		var v time.Time
		if err := m.Scan(oid, format, src, &v); err != nil {
			return errCell
		}
		return v.UTC().Format(time.RFC3339Nano)

	case pgtype.DateOID:
		var v time.Time
		if err := m.Scan(oid, format, src, &v); err != nil {
			return errCell
		}
		return v.Format(dateLayout)

	case pgtype.UUIDOID:
		var v pgtype.UUID
		if err := m.Scan(oid, format, src, &v); err != nil || !v.Valid {
			return errCell
		}
		return uuid.UUID(v.Bytes).String()

	case pgtype.JSONOID, pgtype.JSONBOID:
		var v []byte
		if err := m.Scan(oid, format, src, &v); err != nil {
			return errCell
		}
		return compactJSON(v)

	case pgtype.ByteaOID:
		var v []byte
		if err := m.Scan(oid, format, src, &v); err != nil {
			return errCell
		}
		return `\x` + hex.EncodeToString(v)

	default:
		return unsupportedCell
	}
}

// compactJSON normalizes json/jsonb cells to their compact form, falling
// back to the raw text when the payload is not valid JSON.
func compactJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
