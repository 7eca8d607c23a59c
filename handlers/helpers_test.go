// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/danielhkuo/yearbook-vote/models"
	"github.com/danielhkuo/yearbook-vote/session"
	"github.com/danielhkuo/yearbook-vote/testutil"
)

// withSession attaches user's session the way RequireAuth would
func withSession(r *http.Request, user models.User) *http.Request {
	return r.WithContext(session.With(r.Context(), session.Session{
		User:     user,
		Token:    "test-token",
		LoadedAt: time.Now(),
	}))
}

// seedBallots creates two categories with candidates:
// smile: s1 Ana, s2 Zoe, s3 Max; clown: c1 Ben, c2 Kim
func seedBallots(t *testing.T, db *sql.DB) {
	t.Helper()
	testutil.CreateTestCategory(t, db, "smile", "Best Smile")
	testutil.CreateTestCategory(t, db, "clown", "Class Clown")
	testutil.AddTestCandidate(t, db, "smile", "s1", "Ana")
	testutil.AddTestCandidate(t, db, "smile", "s2", "Zoe")
	testutil.AddTestCandidate(t, db, "smile", "s3", "Max")
	testutil.AddTestCandidate(t, db, "clown", "c1", "Ben")
	testutil.AddTestCandidate(t, db, "clown", "c2", "Kim")
}
