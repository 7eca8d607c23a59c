// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status,
duration_ms). Responses with a 5xx status are logged at error level. The
wrapped writer still implements http.Flusher, so the vote stream works
behind it.

# Sessions

Protect a route with a session token:

	mux.HandleFunc("GET /me", middleware.WithLogging(
		middleware.RequireAuth(cfg.SessionSecret, h.Me)))

RequireAuth reads "Authorization: Bearer <token>" (or ?access_token= for
EventSource clients), verifies it and stores a session.Session in the
request context. RequireAdmin does the same and then requires role admin.
A missing token is answered 401 with code session_required, a bad or
expired one with session_expired.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, OPTIONS with headers Content-Type,
Authorization and Last-Event-ID. Preflight requests get 204.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.CodedErrorResponse(w, http.StatusConflict, models.CodeAlreadyVoted, "message")

Parse JSON request bodies (at most MaxBodyBytes, empty bodies rejected):

	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Used in request and rejected-login logs.
*/
package middleware
