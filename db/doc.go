// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and handles schema creation.

# Drivers

Open picks the driver from the configured database type:

  - postgres: github.com/lib/pq
  - sqlite: modernc.org/sqlite (pure Go), limited to one open connection

SQLite paths get busy_timeout and WAL pragmas added by SQLiteDSN.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same DDL runs on both drivers.

# Tables

  - users: students and admins with bcrypt password hashes
  - category: award categories in display order
  - candidate: candidates, each in one category, in ballot order
  - vote: append-only, UNIQUE (user_id, category_id)
  - reveal_setting: single row (id = 1) holding the reveal time

# Relationships

	category 1──* candidate
	users    1──* vote
	category 1──* vote
	candidate 1──* vote

All foreign keys use ON DELETE CASCADE.

# Unique Violations

The vote table's unique constraint is the only guard against double votes.
IsUniqueViolation recognises it on both drivers:

	if db.IsUniqueViolation(err) {
		return ledger.ErrAlreadyVoted
	}
*/
package db
