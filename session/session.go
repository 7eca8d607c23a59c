// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package session carries the authenticated identity of a request.
//
// A Session is created by middleware.RequireAuth once the bearer token has
// been verified and lives exactly as long as the request context. Handlers
// read it with From instead of reaching for any global user state.
package session

import (
	"context"
	"time"

	"github.com/danielhkuo/yearbook-vote/models"
)

type Session struct {
	User     models.User
	Token    string
	LoadedAt time.Time
}

type contextKey struct{}

// With returns a copy of ctx carrying s
func With(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// From returns the session stored in ctx, if any
func From(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}
