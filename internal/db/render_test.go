// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

package db

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestRenderValue(t *testing.T) {
	m := pgtype.NewMap()

	tests := []struct {
		name string
		oid  uint32
		src  []byte
		want string
	}{
		{"null", pgtype.TextOID, nil, "NULL"},
		{"bool true", pgtype.BoolOID, []byte("t"), "true"},
		{"bool false", pgtype.BoolOID, []byte("f"), "false"},
		{"int2", pgtype.Int2OID, []byte("-7"), "-7"},
		{"int4", pgtype.Int4OID, []byte("42"), "42"},
		{"int8", pgtype.Int8OID, []byte("9000000000"), "9000000000"},
		{"float4", pgtype.Float4OID, []byte("1.5"), "1.5"},
		{"float8", pgtype.Float8OID, []byte("1.25"), "1.25"},
		{"float8 integral", pgtype.Float8OID, []byte("3"), "3"},
		{"text", pgtype.TextOID, []byte("hello"), "hello"},
		{"varchar", pgtype.VarcharOID, []byte("world"), "world"},
		{"name", pgtype.NameOID, []byte("public"), "public"},
		{"timestamp", pgtype.TimestampOID, []byte("2024-03-05 10:11:12"), "2024-03-05 10:11:12"},
		{"timestamp fractional", pgtype.TimestampOID, []byte("2024-03-05 10:11:12.5"), "2024-03-05 10:11:12.5"},
		{"timestamptz utc", pgtype.TimestamptzOID, []byte("2024-03-05 10:11:12+00"), "2024-03-05T10:11:12Z"},
		{"timestamptz offset", pgtype.TimestamptzOID, []byte("2024-03-05 12:11:12+02"), "2024-03-05T10:11:12Z"},
		{"date", pgtype.DateOID, []byte("2024-03-05"), "2024-03-05"},
		{"uuid", pgtype.UUIDOID, []byte("550e8400-e29b-41d4-a716-446655440000"), "550e8400-e29b-41d4-a716-446655440000"},
		{"json compacted", pgtype.JSONOID, []byte(`{"a": 1, "b": [1, 2]}`), `{"a":1,"b":[1,2]}`},
		{"jsonb compacted", pgtype.JSONBOID, []byte(`{ "k" : "v" }`), `{"k":"v"}`},
		{"bytea", pgtype.ByteaOID, []byte(`\xdeadbeef`), `\xdeadbeef`},
		{"bytea empty", pgtype.ByteaOID, []byte(`\x`), `\x`},
		{"unsupported oid", 628, []byte("{1,-1,0}"), "<unsupported>"},
		{"decode failure", pgtype.Int4OID, []byte("notanumber"), "<err>"},
		{"bad uuid", pgtype.UUIDOID, []byte("not-a-uuid"), "<err>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderValue(m, tt.oid, pgtype.TextFormatCode, tt.src)
			if got != tt.want {
				t.Errorf("renderValue(%s) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestCompactJSONInvalidPayload(t *testing.T) {
	raw := "{not json"
	if got := compactJSON([]byte(raw)); got != raw {
		t.Errorf("compactJSON fallback = %q, want %q", got, raw)
	}
}
