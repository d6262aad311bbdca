// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorKind categorizes connection failures so the UI can react
// differently to bad credentials vs an unreachable host.
type ErrorKind string

const (
	KindAuthFailed           ErrorKind = "password_auth_failed"
	KindInvalidAuthorization ErrorKind = "invalid_authorization"
	KindUnknownDatabase      ErrorKind = "unknown_database"
	KindServerReported       ErrorKind = "server_error"
	KindHostUnreachable      ErrorKind = "host_unreachable"
	KindTimeout              ErrorKind = "connect_timeout"
	KindConnectFailed        ErrorKind = "connect_failed"
)

// ConnectionError is a classified connect-time failure. Summary is a short
// human-readable sentence safe to show directly; Detail carries the full
// driver error text for logs and verbose output.
type ConnectionError struct {
	Kind    ErrorKind
	Summary string
	Detail  string
}

func (e *ConnectionError) Error() string {
	if e.Detail == "" {
		return e.Summary
	}
	return fmt.Sprintf("%s: %s", e.Summary, e.Detail)
}

// AsConnectionError returns err as a *ConnectionError, wrapping it in a
// generic connect_failed classification when it is not one already.
func AsConnectionError(err error) *ConnectionError {
	var ce *ConnectionError
	if errors.As(err, &ce) {
		return ce
	}
	return &ConnectionError{
		Kind:    KindConnectFailed,
		Summary: "Failed to connect to the database.",
		Detail:  err.Error(),
	}
}

// SQLSTATE codes the server reports for connect-time failures.
const (
	sqlstateInvalidPassword = "28P01"
	sqlstateInvalidAuthSpec = "28000"
	sqlstateInvalidCatalog  = "3D000"
)

// classifyConnectError maps a raw driver error to a ConnectionError.
// Server-reported SQLSTATEs win over transport-level string matching.
func classifyConnectError(err error) *ConnectionError {
	detail := err.Error()

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlstateInvalidPassword:
			return &ConnectionError{Kind: KindAuthFailed, Summary: "Password authentication failed.", Detail: detail}
		case sqlstateInvalidAuthSpec:
			return &ConnectionError{Kind: KindInvalidAuthorization, Summary: "User does not exist or lacks permission.", Detail: detail}
		case sqlstateInvalidCatalog:
			return &ConnectionError{Kind: KindUnknownDatabase, Summary: "Database does not exist.", Detail: detail}
		}
		return &ConnectionError{Kind: KindServerReported, Summary: pgErr.Message, Detail: detail}
	}

	lower := strings.ToLower(detail)
	switch {
	case strings.Contains(lower, "connection refused"):
		return &ConnectionError{Kind: KindHostUnreachable, Summary: "Unable to reach the database host (connection refused).", Detail: detail}
	case strings.Contains(lower, "timeout"):
		return &ConnectionError{Kind: KindTimeout, Summary: "Connection timed out.", Detail: detail}
	default:
		return &ConnectionError{Kind: KindConnectFailed, Summary: "Failed to connect to the database.", Detail: detail}
	}
}
