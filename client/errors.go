// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/danielhkuo/yearbook-vote/models"
	"github.com/danielhkuo/yearbook-vote/reveal"
)

var (
	ErrAuth           = errors.New("invalid username or password")
	ErrSessionExpired = errors.New("session expired, log in again")
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrAlreadyVoted   = errors.New("already voted in this category")
	ErrTransient      = errors.New("temporary failure, try again")
	ErrInvalidRequest = errors.New("invalid request")
	ErrResultsSealed  = errors.New("results are sealed")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")

	// Same value as reveal.ErrNotConfigured
	ErrNotConfigured = reveal.ErrNotConfigured
)

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Code    string
	Message string

	kind error
}

// newAPIError classifies a failed response. authed says whether the request
// carried a session token; a 401 then means the session, not the password,
// was rejected.
func newAPIError(status int, body models.ErrorResponse, authed bool) *APIError {
	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	return &APIError{
		Status:  status,
		Code:    body.Code,
		Message: msg,
		kind:    classify(status, body.Code, authed),
	}
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api error: %d %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

func classify(status int, code string, authed bool) error {
	switch {
	case status == http.StatusUnauthorized && code == models.CodeInvalidCredentials:
		return ErrAuth
	case status == http.StatusUnauthorized && authed:
		return ErrSessionExpired
	case status == http.StatusUnauthorized:
		return ErrAuth
	case status == http.StatusConflict:
		return ErrAlreadyVoted
	case status == http.StatusBadRequest:
		return ErrInvalidRequest
	case status == http.StatusForbidden && code == models.CodeResultsSealed:
		return ErrResultsSealed
	case status == http.StatusForbidden && code == models.CodeNotConfigured:
		return ErrNotConfigured
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 500:
		return ErrTransient
	}
	return nil
}
