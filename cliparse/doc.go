// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

A .env file in the working directory is loaded before flags are read.
Variables already present in the environment are never overwritten by it.

# CLI Flags

	-p               Server port (default: 3318)
	-d               Database URL (DSN for postgres, file path for sqlite)
	-t               Database type: sqlite (default) or postgres
	-session-secret  Session token signing secret
	-session-ttl     Session token lifetime (default: 72h)
	-tz              Timezone for reveal times without offset (default: UTC)
	-seed            YAML seed file

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	SESSION_SECRET → -session-secret
	SESSION_TTL    → -session-ttl
	TIMEZONE       → -tz
	SEED_FILE      → -seed

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if DATABASE_URL or SESSION_SECRET is missing,
if the database type is unknown, or if the timezone cannot be loaded.
*/
package cliparse
