// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - LoginRequest: username, password
  - SubmitVoteRequest: candidate_id
  - SetRevealRequest: summary_open_at (RFC 3339 or datetime-local)

# Response Types

Types for JSON responses:

  - LoginResponse: token, user
  - VoteStatusResponse: category_id, has_voted
  - MyVotesResponse: votes (category -> candidate), voted_count, category_count
  - ServerTimeResponse: server_now
  - RevealStatus: state, countdown and remaining time of the reveal gate
  - Summary: per-category results for students
  - Dashboard: live results and participation for admins
  - ErrorResponse: error, message, code

# Domain Types

  - User: identity and role (never carries the password hash)
  - Category, Candidate: the ballot
  - Vote: one user's choice in one category, immutable
  - RevealSetting: the single reveal time row
  - RankedCandidate, CategoryResult: tally output

# Constants

Roles:

	RoleStudent = "student"
	RoleAdmin   = "admin"

Reveal states:

	RevealUninitialized = "uninitialized"
	RevealCountingDown  = "counting_down"
	RevealOpen          = "open"

Error codes (ErrorResponse.Code) let clients branch without parsing
messages: invalid_credentials, already_voted, transient, results_sealed,
not_configured, invalid_candidate.
*/
package models
