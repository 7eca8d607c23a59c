// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/yearbook-vote/auth"
	"github.com/danielhkuo/yearbook-vote/cliparse"
	"github.com/danielhkuo/yearbook-vote/identity"
	"github.com/danielhkuo/yearbook-vote/middleware"
	"github.com/danielhkuo/yearbook-vote/models"
	"github.com/danielhkuo/yearbook-vote/session"
)

type AuthHandler struct {
	users *identity.Service
	cfg   cliparse.Config
}

func NewAuthHandler(db *sql.DB, cfg cliparse.Config) *AuthHandler {
	return &AuthHandler{users: identity.NewService(db), cfg: cfg}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	user, err := h.users.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		slog.Info("login rejected", "username", req.Username, "remote", middleware.GetClientIP(r))
		middleware.CodedErrorResponse(w, http.StatusUnauthorized, models.CodeInvalidCredentials, "Invalid username or password")
		return
	}
	if err != nil {
		slog.Error("failed to log in", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	token, err := auth.IssueToken(user, h.cfg.SessionSecret, h.cfg.SessionTTL)
	if err != nil {
		slog.Error("failed to issue session token", "error", err, "user_id", user.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	slog.Info("user logged in", "user_id", user.ID, "role", user.Role)

	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		Token: token,
		User:  user,
	})
}

// Me handles GET /me
// The stored user is returned so a deleted account stops working before its token expires.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.From(r.Context())

	user, err := h.users.GetUser(r.Context(), sess.User.ID)
	if err == sql.ErrNoRows {
		middleware.CodedErrorResponse(w, http.StatusUnauthorized, models.CodeSessionExpired, "User no longer exists")
		return
	}
	if err != nil {
		slog.Error("failed to load user", "error", err, "user_id", sess.User.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, user)
}
