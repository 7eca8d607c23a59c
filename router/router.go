// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/yearbook-vote/cliparse"
	"github.com/danielhkuo/yearbook-vote/feed"
	"github.com/danielhkuo/yearbook-vote/handlers"
	"github.com/danielhkuo/yearbook-vote/ledger"
	"github.com/danielhkuo/yearbook-vote/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, hub *feed.Hub) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	catalogHandler := handlers.NewCatalogHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg, votePublisher(db, cfg, hub), hub)
	resultsHandler := handlers.NewResultsHandler(db, cfg)
	adminHandler := handlers.NewAdminHandler(db, cfg)

	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAuth(cfg.SessionSecret, h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(cfg.SessionSecret, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Identity
	mux.HandleFunc("POST /auth/login", middleware.WithLogging(authHandler.Login))
	mux.HandleFunc("GET /me", authed(authHandler.Me))

	// Catalog
	mux.HandleFunc("GET /categories", authed(catalogHandler.ListCategories))
	mux.HandleFunc("GET /categories/{id}", authed(catalogHandler.GetCategory))

	// Voting
	mux.HandleFunc("GET /categories/{id}/vote-status", authed(votingHandler.GetVoteStatus))
	mux.HandleFunc("POST /categories/{id}/votes", authed(votingHandler.SubmitVote))
	mux.HandleFunc("GET /me/votes", authed(votingHandler.GetMyVotes))
	mux.HandleFunc("GET /me/votes/stream", authed(votingHandler.StreamMyVotes))

	// Reveal and results
	mux.HandleFunc("GET /time", middleware.WithLogging(resultsHandler.GetServerTime))
	mux.HandleFunc("GET /reveal", authed(resultsHandler.GetReveal))
	mux.HandleFunc("GET /summary", authed(resultsHandler.GetSummary))

	// Admin
	mux.HandleFunc("GET /admin/dashboard", admin(adminHandler.GetDashboard))
	mux.HandleFunc("PUT /admin/reveal", admin(adminHandler.SetReveal))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("yearbook-vote API v1"))
	})

	return mux
}

// votePublisher picks how stored votes reach the hub. On PostgreSQL they go
// through NOTIFY so every server instance sees them; the feed.Listener
// started in main relays them back into hub.
func votePublisher(db *sql.DB, cfg cliparse.Config, hub *feed.Hub) ledger.Publisher {
	if cfg.DatabaseType == cliparse.DatabasePostgres {
		return feed.NewPGNotifier(db)
	}
	return hub
}
