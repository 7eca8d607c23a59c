// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the yearbook vote API server.

Students sign in, cast one vote per award category, and see the results
once the reveal time set by the yearbook committee has passed. Admins
watch live tallies at any time.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=yearbook.db SESSION_SECRET=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -seed seed.example.yaml

A .env file in the working directory is read as well.

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite file path or PostgreSQL connection string
  - SESSION_SECRET (-session-secret): Secret for signing session tokens

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - SESSION_TTL (-session-ttl): Session lifetime (default: 72h)
  - TIMEZONE (-tz): Zone for reveal times entered without an offset (default: UTC)
  - SEED_FILE (-seed): YAML file with categories, candidates, users and a reveal time

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (auth, catalog, voting, results, admin)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, sessions, JSON helpers
  - models: Request/response and domain types
  - ledger: Append-only vote store, one vote per user and category
  - tally: Pure result aggregation and ranking
  - reveal: Reveal gate state machine and the reveal setting
  - feed: Live own-vote subscriptions, in process or over LISTEN/NOTIFY
  - catalog: Categories, candidates and seeding
  - identity, auth, session: Login, tokens and the per-request session
  - db: Driver selection and schema
  - cliparse: Configuration parsing
  - client: Go SDK for the API, including the client-side reveal gate

See package documentation for each component.
*/
package main
