// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the yearbook vote API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	hub := feed.NewHub()
	mux := router.NewRouter(db, cfg, hub)

# Endpoints

Public:

	GET  /health      - Health check
	POST /auth/login  - Exchange username/password for a session token
	GET  /time        - Server clock sample

Signed in (Authorization: Bearer <token>):

	GET  /me                          - Session user
	GET  /categories                  - Category list
	GET  /categories/{id}             - Category with its candidates
	GET  /categories/{id}/vote-status - Has the user voted here
	POST /categories/{id}/votes       - Cast a vote (students only)
	GET  /me/votes                    - Categories the user has voted in
	GET  /me/votes/stream             - Server-Sent Events of own new votes
	GET  /reveal                      - Reveal gate status and countdown
	GET  /summary                     - Results, once revealed

Admin:

	GET /admin/dashboard - Live results and participation
	PUT /admin/reveal    - Set the reveal time

# Live Feed

With SQLite the voting handler publishes straight into hub. With PostgreSQL
it publishes with pg_notify and main runs a feed.Listener that relays
notifications into hub, so streams on every instance stay current.
*/
package router
