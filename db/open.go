// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/yearbook-vote/cliparse"
)

// pq error code for unique_violation
const pqUniqueViolation = "23505"

// Open connects to the configured database and verifies the connection.
func Open(cfg cliparse.Config) (*sql.DB, error) {
	driver, dsn := driverFor(cfg)

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.DatabaseType, err)
	}

	if cfg.DatabaseType == cliparse.DatabaseSQLite {
		// SQLite allows one writer; a single connection keeps writes ordered
		// instead of failing with SQLITE_BUSY.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.DatabaseType, err)
	}

	return conn, nil
}

func driverFor(cfg cliparse.Config) (driver, dsn string) {
	if cfg.DatabaseType == cliparse.DatabasePostgres {
		return "postgres", cfg.DatabaseURL
	}
	return "sqlite", SQLiteDSN(cfg.DatabaseURL)
}

// SQLiteDSN adds the pragmas the app relies on to a sqlite file path or URI.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "_pragma=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// IsUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint on either supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}

	// modernc.org/sqlite: "constraint failed: UNIQUE constraint failed: vote.user_id, vote.category_id (2067)"
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
