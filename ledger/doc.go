// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package ledger is the append-only store of votes.
//
// A user has at most one vote per category. SubmitVote checks for an
// existing vote before inserting, but that check is only a fast path: two
// submits racing past it are settled by the UNIQUE (user_id, category_id)
// constraint, and the loser gets ErrAlreadyVoted exactly as if the check had
// caught it. There is no lock or transaction around check-then-insert.
//
// Votes are never updated or deleted. Nothing in this package retries;
// ErrTransient is returned to the caller, who decides whether to ask the user
// to try again.
//
// Every successful insert is handed to a Publisher so live subscribers (see
// package feed) learn about it. A failed publish is logged and does not fail
// the vote.
package ledger
