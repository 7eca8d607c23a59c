// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db_test

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/lib/pq"

	"github.com/danielhkuo/yearbook-vote/cliparse"
	"github.com/danielhkuo/yearbook-vote/db"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(cliparse.Config{
		DatabaseType: cliparse.DatabaseSQLite,
		DatabaseURL:  filepath.Join(t.TempDir(), "schema.db"),
	})
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSQLiteDSN(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{"yearbook.db", "yearbook.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
		{"file:yearbook.db?mode=rwc", "file:yearbook.db?mode=rwc&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
		{"x.db?_pragma=foreign_keys(1)", "x.db?_pragma=foreign_keys(1)"},
	}

	for _, tc := range testCases {
		if got := db.SQLiteDSN(tc.in); got != tc.expected {
			t.Errorf("SQLiteDSN(%q): expected %q, got %q", tc.in, tc.expected, got)
		}
	}
}

func TestCreateSchemaIdempotent(t *testing.T) {
	conn := openSQLite(t)

	for i := 0; i < 2; i++ {
		if err := db.CreateSchema(conn); err != nil {
			t.Fatalf("CreateSchema call %d failed: %v", i+1, err)
		}
	}

	for _, table := range []string{"users", "category", "candidate", "vote", "reveal_setting"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = $1`, table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s missing: %v", table, err)
		}
	}

	if err := db.DropSchema(conn); err != nil {
		t.Fatalf("DropSchema failed: %v", err)
	}
	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'`).Scan(&count); err != nil {
		t.Fatalf("Failed to count tables: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no tables after DropSchema, got %d", count)
	}
}

func TestVoteUniqueConstraint(t *testing.T) {
	conn := openSQLite(t)
	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("CreateSchema failed: %v", err)
	}

	mustExec := func(query string, args ...interface{}) {
		t.Helper()
		if _, err := conn.Exec(query, args...); err != nil {
			t.Fatalf("Exec failed: %v", err)
		}
	}
	mustExec(`INSERT INTO users (id, username, display_name, password_hash, role) VALUES ('u1', 'ana', 'Ana', 'x', 'student')`)
	mustExec(`INSERT INTO category (id, name) VALUES ('smile', 'Best Smile')`)
	mustExec(`INSERT INTO candidate (id, category_id, name) VALUES ('s1', 'smile', 'Zoe')`)
	mustExec(`INSERT INTO candidate (id, category_id, name) VALUES ('s2', 'smile', 'Max')`)

	insert := `INSERT INTO vote (id, user_id, category_id, candidate_id, created_at) VALUES ($1, 'u1', 'smile', $2, $3)`
	if _, err := conn.Exec(insert, "v1", "s1", time.Now().UTC()); err != nil {
		t.Fatalf("First vote failed: %v", err)
	}

	_, err := conn.Exec(insert, "v2", "s2", time.Now().UTC())
	if err == nil {
		t.Fatal("Expected second vote in the same category to fail")
	}
	if !db.IsUniqueViolation(err) {
		t.Errorf("Expected a unique violation, got %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"pq unique violation", &pq.Error{Code: "23505"}, true},
		{"wrapped pq unique violation", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true},
		{"pq foreign key violation", &pq.Error{Code: "23503"}, false},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: vote.user_id, vote.category_id (2067)"), true},
		{"sqlite check", errors.New("constraint failed: CHECK constraint failed: role (275)"), false},
		{"other", errors.New("connection refused"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := db.IsUniqueViolation(tc.err); got != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}
