// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/yearbook-vote/catalog"
	"github.com/danielhkuo/yearbook-vote/cliparse"
	"github.com/danielhkuo/yearbook-vote/ledger"
	"github.com/danielhkuo/yearbook-vote/middleware"
	"github.com/danielhkuo/yearbook-vote/models"
	"github.com/danielhkuo/yearbook-vote/session"
)

// StreamHeartbeat is how often an idle vote stream sends a comment line
var StreamHeartbeat = 25 * time.Second

// Buffered votes per stream. A client this far behind misses votes and
// should reload /me/votes.
const streamBuffer = 16

type VotingHandler struct {
	ledger  *ledger.Ledger
	catalog *catalog.Catalog
	cfg     cliparse.Config
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config, pub ledger.Publisher, sub ledger.Subscriber) *VotingHandler {
	return &VotingHandler{
		ledger:  ledger.New(db, pub, sub),
		catalog: catalog.New(db),
		cfg:     cfg,
	}
}

// GetVoteStatus handles GET /categories/{id}/vote-status
func (h *VotingHandler) GetVoteStatus(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("id")
	if categoryID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "category id is required")
		return
	}

	sess, _ := session.From(r.Context())

	voted, err := h.ledger.HasVoted(r.Context(), sess.User.ID, categoryID)
	if err != nil {
		slog.Error("failed to check vote", "error", err, "user_id", sess.User.ID, "category_id", categoryID)
		middleware.CodedErrorResponse(w, http.StatusServiceUnavailable, models.CodeTransient, "Could not check your vote, try again")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoteStatusResponse{
		CategoryID: categoryID,
		HasVoted:   voted,
	})
}

// SubmitVote handles POST /categories/{id}/votes
func (h *VotingHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("id")
	if categoryID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "category id is required")
		return
	}

	sess, _ := session.From(r.Context())
	if sess.User.IsAdmin() {
		middleware.ErrorResponse(w, http.StatusForbidden, "Admins cannot vote")
		return
	}

	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.CandidateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "candidate_id is required")
		return
	}

	_, err := h.catalog.GetCategory(r.Context(), categoryID)
	if errors.Is(err, catalog.ErrCategoryNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Category not found")
		return
	}
	if err != nil {
		slog.Error("failed to load category", "error", err, "category_id", categoryID)
		middleware.CodedErrorResponse(w, http.StatusServiceUnavailable, models.CodeTransient, "Could not save your vote, try again")
		return
	}

	vote, err := h.ledger.SubmitVote(r.Context(), sess.User.ID, categoryID, req.CandidateID)
	switch {
	case err == nil:
	case errors.Is(err, ledger.ErrAlreadyVoted):
		middleware.CodedErrorResponse(w, http.StatusConflict, models.CodeAlreadyVoted, "You have already voted in this category")
		return
	case errors.Is(err, ledger.ErrInvalidCandidate):
		middleware.CodedErrorResponse(w, http.StatusBadRequest, models.CodeInvalidCandidate, "Candidate is not in this category")
		return
	case errors.Is(err, ledger.ErrTransient):
		slog.Error("failed to submit vote", "error", err, "user_id", sess.User.ID, "category_id", categoryID)
		middleware.CodedErrorResponse(w, http.StatusServiceUnavailable, models.CodeTransient, "Could not save your vote, try again")
		return
	default:
		slog.Error("failed to submit vote", "error", err, "user_id", sess.User.ID, "category_id", categoryID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit vote")
		return
	}

	slog.Info("vote submitted", "vote_id", vote.ID, "user_id", vote.UserID, "category_id", vote.CategoryID)

	middleware.JSONResponse(w, http.StatusCreated, vote)
}

// GetMyVotes handles GET /me/votes
func (h *VotingHandler) GetMyVotes(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.From(r.Context())

	voted, err := h.ledger.VotedCategories(r.Context(), sess.User.ID)
	if err != nil {
		slog.Error("failed to load votes", "error", err, "user_id", sess.User.ID)
		middleware.CodedErrorResponse(w, http.StatusServiceUnavailable, models.CodeTransient, "Could not load your votes, try again")
		return
	}

	count, err := h.catalog.CountCategories(r.Context())
	if err != nil {
		slog.Error("failed to count categories", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MyVotesResponse{
		Votes:         voted,
		VotedCount:    len(voted),
		CategoryCount: count,
	})
}

// StreamMyVotes handles GET /me/votes/stream
// Server-Sent Events, one "vote" event per vote the session user casts
// while connected. The subscription ends with the request.
func (h *VotingHandler) StreamMyVotes(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	sess, _ := session.From(r.Context())
	userID := sess.User.ID

	votes := make(chan models.Vote, streamBuffer)
	dispose := h.ledger.SubscribeOwnVotes(userID, func(v models.Vote) {
		select {
		case votes <- v:
		default:
			slog.Warn("vote stream full, dropping event", "user_id", userID, "vote_id", v.ID)
		}
	})
	defer dispose()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(StreamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case v := <-votes:
			data, err := json.Marshal(v)
			if err != nil {
				slog.Error("failed to encode vote event", "error", err)
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: vote\ndata: %s\n\n", v.ID, data)
			flusher.Flush()
		}
	}
}
