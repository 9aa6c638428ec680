// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database types
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Open connects to the configured store. For SQLite the URL is a file
// path; foreign keys are switched on and the pool is capped at one
// connection because SQLite allows a single writer. For Postgres the URL
// is a standard connection string.
func Open(databaseType, databaseURL string) (*sql.DB, error) {
	switch databaseType {
	case TypeSQLite:
		conn, err := sql.Open("sqlite", sqliteDSN(databaseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		conn.SetMaxOpenConns(1)
		return conn, nil
	case TypePostgres:
		conn, err := sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", databaseType)
	}
}

// sqliteDSN turns a bare file path into a DSN with cascade deletes and a
// busy timeout enabled. URLs that already carry parameters pass through.
func sqliteDSN(url string) string {
	if strings.Contains(url, "?") {
		return url
	}
	return "file:" + url + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
// Neither driver exposes a typed error for this, so match on the message
// shapes both emit.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
