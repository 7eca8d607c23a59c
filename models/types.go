// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// User roles
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Reveal gate states as exposed over the API
const (
	RevealUninitialized = "uninitialized"
	RevealCountingDown  = "counting_down"
	RevealOpen          = "open"
)

// Error codes carried in ErrorResponse.Code
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeSessionRequired    = "session_required"
	CodeSessionExpired     = "session_expired"
	CodeAlreadyVoted       = "already_voted"
	CodeTransient          = "transient"
	CodeResultsSealed      = "results_sealed"
	CodeNotConfigured      = "not_configured"
	CodeInvalidCandidate   = "invalid_candidate"
)

// Request types

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SubmitVoteRequest struct {
	CandidateID string `json:"candidate_id"`
}

// Accepts RFC 3339 or datetime-local ("2006-01-02T15:04")
type SetRevealRequest struct {
	SummaryOpenAt string `json:"summary_open_at"`
}

// Response types

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type VoteStatusResponse struct {
	CategoryID string `json:"category_id"`
	HasVoted   bool   `json:"has_voted"`
}

// category_id -> candidate_id
type MyVotesResponse struct {
	Votes         map[string]string `json:"votes"`
	VotedCount    int               `json:"voted_count"`
	CategoryCount int               `json:"category_count"`
}

type ServerTimeResponse struct {
	ServerNow time.Time `json:"server_now"`
}

type Countdown struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

type RevealStatus struct {
	State         string     `json:"state"`
	Configured    bool       `json:"configured"`
	SummaryOpenAt *time.Time `json:"summary_open_at,omitempty"`
	ServerNow     time.Time  `json:"server_now"`
	RemainingMS   int64      `json:"remaining_ms"`
	Countdown     Countdown  `json:"countdown"`
	OpensIn       string     `json:"opens_in,omitempty"`
}

type Summary struct {
	Categories []CategoryResult `json:"categories"`
	TotalVotes int              `json:"total_votes"`
}

type Dashboard struct {
	TotalVotes        int              `json:"total_votes"`
	CategoryCount     int              `json:"category_count"`
	EligibleVoters    int              `json:"eligible_voters"`
	ParticipationRate float64          `json:"participation_rate"`
	ParticipationPct  int              `json:"participation_percent"`
	Reveal            *RevealSetting   `json:"reveal,omitempty"`
	Categories        []CategoryResult `json:"categories"`
}

// Domain types

type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Category struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IconKey string `json:"icon_key"`
}

type Candidate struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ClassLabel string `json:"class_label"`
	PhotoRef   string `json:"photo_ref"`
	CategoryID string `json:"category_id"`
}

type CategoryWithCandidates struct {
	Category   Category    `json:"category"`
	Candidates []Candidate `json:"candidates"`
}

type Vote struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CategoryID  string    `json:"category_id"`
	CandidateID string    `json:"candidate_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type RevealSetting struct {
	ID            int       `json:"id"`
	SummaryOpenAt time.Time `json:"summary_open_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Tally result types

type RankedCandidate struct {
	Candidate
	Votes      int `json:"votes"`
	Rank       int `json:"rank"`        // 1-indexed ranking
	Percent    int `json:"percent"`     // share of the category total
	BarPercent int `json:"bar_percent"` // relative to the leader
}

type CategoryResult struct {
	Category   Category          `json:"category"`
	TotalVotes int               `json:"total_votes"`
	WinnerID   string            `json:"winner_id,omitempty"`
	Candidates []RankedCandidate `json:"candidates"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}
