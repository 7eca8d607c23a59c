// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
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
	"github.com/danielhkuo/yearbook-vote/reveal"
	"github.com/danielhkuo/yearbook-vote/session"
	"github.com/danielhkuo/yearbook-vote/tally"
)

type ResultsHandler struct {
	catalog *catalog.Catalog
	ledger  *ledger.Ledger
	reveal  *reveal.Store
	cfg     cliparse.Config
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{
		catalog: catalog.New(db),
		ledger:  ledger.New(db, nil, nil),
		reveal:  reveal.NewStore(db),
		cfg:     cfg,
	}
}

// GetServerTime handles GET /time
// Clients anchor their reveal countdown to this sample instead of the local clock.
func (h *ResultsHandler) GetServerTime(w http.ResponseWriter, r *http.Request) {
	now, _ := h.reveal.ServerNow(r.Context())
	middleware.JSONResponse(w, http.StatusOK, models.ServerTimeResponse{ServerNow: now})
}

// GetReveal handles GET /reveal
func (h *ResultsHandler) GetReveal(w http.ResponseWriter, r *http.Request) {
	gate := reveal.NewGate()
	err := gate.Load(r.Context(), h.reveal)
	if err != nil && !errors.Is(err, reveal.ErrNotConfigured) {
		slog.Error("failed to load reveal gate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	status := gate.Snapshot().Status()
	if !status.Configured {
		status.ServerNow, _ = h.reveal.ServerNow(r.Context())
	}

	middleware.JSONResponse(w, http.StatusOK, status)
}

// GetSummary handles GET /summary
// Students see results only once the reveal gate is open; until then no
// votes are read. Admins always see them.
func (h *ResultsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.From(r.Context())

	if !sess.User.IsAdmin() {
		gate := reveal.NewGate()
		err := gate.Load(r.Context(), h.reveal)
		if errors.Is(err, reveal.ErrNotConfigured) {
			middleware.CodedErrorResponse(w, http.StatusForbidden, models.CodeNotConfigured, "Results reveal time has not been set")
			return
		}
		if err != nil {
			slog.Error("failed to load reveal gate", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if gate.State() != reveal.Open {
			middleware.CodedErrorResponse(w, http.StatusForbidden, models.CodeResultsSealed,
				"Results are sealed until "+gate.Snapshot().OpenAt.Format(time.RFC3339))
			return
		}
	}

	summary, err := loadSummary(r.Context(), h.catalog, h.ledger)
	if err != nil {
		slog.Error("failed to load summary", "error", err)
		middleware.CodedErrorResponse(w, http.StatusServiceUnavailable, models.CodeTransient, "Could not load results, try again")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, summary)
}

func loadSummary(ctx context.Context, cat *catalog.Catalog, l *ledger.Ledger) (models.Summary, error) {
	categories, err := cat.ListCategories(ctx)
	if err != nil {
		return models.Summary{}, fmt.Errorf("failed to list categories: %w", err)
	}

	candidates, err := cat.ListAllCandidates(ctx)
	if err != nil {
		return models.Summary{}, fmt.Errorf("failed to list candidates: %w", err)
	}

	votes, err := l.ListVotes(ctx)
	if err != nil {
		return models.Summary{}, fmt.Errorf("failed to list votes: %w", err)
	}

	return models.Summary{
		Categories: tally.Summarize(categories, candidates, votes),
		TotalVotes: len(votes),
	}, nil
}
