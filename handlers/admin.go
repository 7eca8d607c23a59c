// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/yearbook-vote/catalog"
	"github.com/danielhkuo/yearbook-vote/cliparse"
	"github.com/danielhkuo/yearbook-vote/identity"
	"github.com/danielhkuo/yearbook-vote/ledger"
	"github.com/danielhkuo/yearbook-vote/middleware"
	"github.com/danielhkuo/yearbook-vote/models"
	"github.com/danielhkuo/yearbook-vote/reveal"
	"github.com/danielhkuo/yearbook-vote/session"
	"github.com/danielhkuo/yearbook-vote/tally"
)

type AdminHandler struct {
	catalog *catalog.Catalog
	ledger  *ledger.Ledger
	users   *identity.Service
	reveal  *reveal.Store
	cfg     cliparse.Config
}

func NewAdminHandler(db *sql.DB, cfg cliparse.Config) *AdminHandler {
	return &AdminHandler{
		catalog: catalog.New(db),
		ledger:  ledger.New(db, nil, nil),
		users:   identity.NewService(db),
		reveal:  reveal.NewStore(db),
		cfg:     cfg,
	}
}

// GetDashboard handles GET /admin/dashboard
// Live results for every category, never gated by the reveal time.
func (h *AdminHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	var (
		categories []models.Category
		candidates []models.Candidate
		votes      []models.Vote
		eligible   int
		setting    *models.RevealSetting
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		categories, err = h.catalog.ListCategories(ctx)
		return err
	})
	g.Go(func() (err error) {
		candidates, err = h.catalog.ListAllCandidates(ctx)
		return err
	})
	g.Go(func() (err error) {
		votes, err = h.ledger.ListVotes(ctx)
		return err
	})
	g.Go(func() (err error) {
		eligible, err = h.users.CountStudents(ctx)
		return err
	})
	g.Go(func() error {
		s, err := h.reveal.Get(ctx)
		if errors.Is(err, reveal.ErrNotConfigured) {
			return nil
		}
		if err != nil {
			return err
		}
		setting = &s
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("failed to load dashboard", "error", err)
		middleware.CodedErrorResponse(w, http.StatusServiceUnavailable, models.CodeTransient, "Could not load dashboard, try again")
		return
	}

	rate := tally.ParticipationRate(len(votes), eligible, len(categories))

	middleware.JSONResponse(w, http.StatusOK, models.Dashboard{
		TotalVotes:        len(votes),
		CategoryCount:     len(categories),
		EligibleVoters:    eligible,
		ParticipationRate: rate,
		ParticipationPct:  tally.RoundPercent(rate),
		Reveal:            setting,
		Categories:        tally.Summarize(categories, candidates, votes),
	})
}

// SetReveal handles PUT /admin/reveal
func (h *AdminHandler) SetReveal(w http.ResponseWriter, r *http.Request) {
	var req models.SetRevealRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	openAt, err := reveal.ParseRevealTime(req.SummaryOpenAt, h.cfg.Location())
	if errors.Is(err, reveal.ErrEmptyRevealTime) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "summary_open_at is required")
		return
	}
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "summary_open_at must be RFC 3339 or YYYY-MM-DDTHH:MM")
		return
	}

	setting, err := h.reveal.Set(r.Context(), openAt)
	if err != nil {
		slog.Error("failed to save reveal time", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save reveal time")
		return
	}

	sess, _ := session.From(r.Context())
	slog.Info("reveal time updated",
		"summary_open_at", setting.SummaryOpenAt,
		"opens", humanize.Time(setting.SummaryOpenAt),
		"admin_id", sess.User.ID,
	)

	middleware.JSONResponse(w, http.StatusOK, setting)
}
