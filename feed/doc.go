// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package feed carries newly inserted votes to live subscribers.
//
// Hub is the in-process fan-out. Every subscription is scoped to one user
// and returns a dispose function; after dispose returns no further votes
// are delivered to it.
//
// With a single SQLite-backed server the ledger publishes straight into the
// Hub. With PostgreSQL the ledger publishes through PGNotifier
// (pg_notify on the vote_inserted channel) and every server instance runs a
// Listener that relays notifications into its own Hub, so a vote cast on one
// instance reaches streams held open by another.
package feed
