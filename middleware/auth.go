// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/yearbook-vote/auth"
	"github.com/danielhkuo/yearbook-vote/models"
	"github.com/danielhkuo/yearbook-vote/session"
)

// BearerToken returns the token from an "Authorization: Bearer" header.
// EventSource cannot set headers, so an access_token query parameter is
// accepted as a fallback.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("access_token")
}

// RequireAuth verifies the session token and stores the session in the
// request context. Requests without a valid token get 401.
func RequireAuth(secret string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			CodedErrorResponse(w, http.StatusUnauthorized, models.CodeSessionRequired, "Authorization header required")
			return
		}

		user, err := auth.ParseToken(token, secret)
		if err != nil {
			slog.Warn("rejected session token", "error", err, "remote", GetClientIP(r))
			CodedErrorResponse(w, http.StatusUnauthorized, models.CodeSessionExpired, "Invalid or expired session")
			return
		}

		ctx := session.With(r.Context(), session.Session{
			User:     user,
			Token:    token,
			LoadedAt: time.Now(),
		})
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin wraps RequireAuth and additionally rejects non-admin users with 403
func RequireAdmin(secret string, next http.HandlerFunc) http.HandlerFunc {
	return RequireAuth(secret, func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.From(r.Context())
		if !ok || !sess.User.IsAdmin() {
			ErrorResponse(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r)
	})
}
