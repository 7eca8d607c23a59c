// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the yearbook vote API.

# Handler Types

Each handler is a struct built from the database connection and config:

  - AuthHandler: login and the current user
  - CatalogHandler: categories and their ballots
  - VotingHandler: vote status, vote submission and the own-vote stream
  - ResultsHandler: server time, reveal status and the student summary
  - AdminHandler: live dashboard and the reveal time

Handlers are created via constructor functions:

	authHandler := handlers.NewAuthHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg, publisher, hub)

VotingHandler additionally takes where new votes are published and where
own-vote subscriptions are registered (see package feed).

# Sessions

Every route except login, health and server time runs behind
middleware.RequireAuth; handlers read the user with session.From and never
trust ids from the request body.

# Voting

	GET  /categories/{id}/vote-status → GetVoteStatus
	POST /categories/{id}/votes       → SubmitVote

SubmitVote answers 201 with the stored vote, 409 already_voted when the
user has a vote in the category (including a lost race between two tabs),
400 invalid_candidate, and 503 transient for store failures. Nothing is
retried server side.

# Results

	GET /reveal  → GetReveal
	GET /summary → GetSummary

For students GetSummary checks the reveal gate first and answers 403
results_sealed or not_configured without reading any votes. Admins see
results at any time, as does GET /admin/dashboard.
*/
package handlers
