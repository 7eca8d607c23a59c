// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/yearbook-vote/models"
)

func TestWithLoggingRecordsStatus(t *testing.T) {
	testCases := []struct {
		name     string
		handler  http.HandlerFunc
		expected int
	}{
		{"explicit status", func(w http.ResponseWriter, r *http.Request) {
			CodedErrorResponse(w, http.StatusConflict, models.CodeAlreadyVoted, "voted")
		}, http.StatusConflict},
		{"implicit 200 on write", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("yearbook-vote API v1"))
		}, http.StatusOK},
		{"first status wins", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			w.WriteHeader(http.StatusInternalServerError)
		}, http.StatusCreated},
		{"nothing written", func(w http.ResponseWriter, r *http.Request) {}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var sw *statusWriter
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				sw, _ = w.(*statusWriter)
				tc.handler(w, r)
			})

			handler(httptest.NewRecorder(), httptest.NewRequest("POST", "/categories/smile/votes", nil))

			if sw == nil {
				t.Fatal("Expected handler to receive a statusWriter")
			}
			if sw.status != tc.expected {
				t.Errorf("Expected recorded status %d, got %d", tc.expected, sw.status)
			}
		})
	}
}

func TestWithLoggingKeepsFlusher(t *testing.T) {
	handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Error("Expected wrapped writer to implement http.Flusher")
			return
		}
		if _, ok := w.(interface{ Unwrap() http.ResponseWriter }); !ok {
			t.Error("Expected wrapped writer to expose Unwrap")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(": connected\n\n"))
		flusher.Flush()
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest("GET", "/me/votes/stream", nil))

	if !w.Flushed {
		t.Error("Expected Flush to reach the underlying writer")
	}
	if w.Body.String() != ": connected\n\n" {
		t.Errorf("Unexpected body %q", w.Body.String())
	}
}

// The first event must reach the client before the handler returns.
func TestWithLoggingStreamsOverHTTP(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(WithLogging(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(": connected\n\n"))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, "GET", server.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil || line != ": connected\n" {
		t.Fatalf("Expected flushed comment, got %q (%v)", line, err)
	}
}

func TestCodedErrorResponse(t *testing.T) {
	testCases := []struct {
		status  int
		code    string
		message string
	}{
		{http.StatusUnauthorized, models.CodeInvalidCredentials, "Invalid username or password"},
		{http.StatusUnauthorized, models.CodeSessionExpired, "Invalid or expired session"},
		{http.StatusConflict, models.CodeAlreadyVoted, "You have already voted in this category"},
		{http.StatusBadRequest, models.CodeInvalidCandidate, "Candidate is not in this category"},
		{http.StatusServiceUnavailable, models.CodeTransient, "Could not save your vote, try again"},
		{http.StatusForbidden, models.CodeResultsSealed, "Results are sealed until 2030-06-01T09:00:00Z"},
		{http.StatusForbidden, models.CodeNotConfigured, "Results reveal time has not been set"},
	}

	for _, tc := range testCases {
		t.Run(tc.code, func(t *testing.T) {
			w := httptest.NewRecorder()
			CodedErrorResponse(w, tc.status, tc.code, tc.message)

			if w.Code != tc.status {
				t.Errorf("Expected status %d, got %d", tc.status, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected application/json, got %q", ct)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			expected := models.ErrorResponse{Error: http.StatusText(tc.status), Message: tc.message, Code: tc.code}
			if resp != expected {
				t.Errorf("Expected %+v, got %+v", expected, resp)
			}
		})
	}
}

func TestErrorResponseOmitsCode(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorResponse(w, http.StatusNotFound, "Category not found")

	var raw map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if _, ok := raw["code"]; ok {
		t.Errorf("Expected no code field, got %v", raw)
	}
	if raw["error"] != "Not Found" || raw["message"] != "Category not found" {
		t.Errorf("Unexpected error response %v", raw)
	}
}

func TestParseJSONBody(t *testing.T) {
	testCases := []struct {
		name        string
		body        string
		expected    string
		expectedErr error
		wantErr     bool
	}{
		{"vote", `{"candidate_id":"s1"}`, "s1", nil, false},
		{"surrounding whitespace", "\n  {\"candidate_id\": \"s2\"}  \n", "s2", nil, false},
		{"empty", "", "", ErrEmptyBody, true},
		{"blank", "   \n", "", ErrEmptyBody, true},
		{"malformed", `{"candidate_id":`, "", nil, true},
		{"wrong type", `{"candidate_id":7}`, "", nil, true},
		{"too large", `{"candidate_id":"` + strings.Repeat("x", MaxBodyBytes) + `"}`, "", ErrBodyTooLarge, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/categories/smile/votes", strings.NewReader(tc.body))

			var vote models.SubmitVoteRequest
			err := ParseJSONBody(req, &vote)

			if tc.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				if tc.expectedErr != nil && !errors.Is(err, tc.expectedErr) {
					t.Errorf("Expected %v, got %v", tc.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if vote.CandidateID != tc.expected {
				t.Errorf("Expected candidate %q, got %q", tc.expected, vote.CandidateID)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	var called bool
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("preflight for a vote", func(t *testing.T) {
		called = false
		req := httptest.NewRequest("OPTIONS", "/categories/smile/votes", nil)
		req.Header.Set("Origin", "https://yearbook.example")
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("Expected 204, got %d", w.Code)
		}
		if called {
			t.Error("Preflight must not reach the handler")
		}
		h := w.Header()
		if h.Get("Access-Control-Allow-Origin") != "https://yearbook.example" {
			t.Errorf("Expected origin to be reflected, got %q", h.Get("Access-Control-Allow-Origin"))
		}
		if h.Get("Vary") != "Origin" {
			t.Errorf("Expected Vary: Origin, got %q", h.Get("Vary"))
		}
		for _, method := range []string{"GET", "POST", "PUT"} {
			if !strings.Contains(h.Get("Access-Control-Allow-Methods"), method) {
				t.Errorf("Expected %s to be allowed", method)
			}
		}
		for _, header := range []string{"Authorization", "Last-Event-ID"} {
			if !strings.Contains(h.Get("Access-Control-Allow-Headers"), header) {
				t.Errorf("Expected %s header to be allowed", header)
			}
		}
	})

	t.Run("admin reveal update passes through", func(t *testing.T) {
		called = false
		req := httptest.NewRequest("PUT", "/admin/reveal", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if !called || w.Code != http.StatusOK {
			t.Errorf("Expected handler to run, called=%v status=%d", called, w.Code)
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("Expected wildcard origin without Origin header, got %q", w.Header().Get("Access-Control-Allow-Origin"))
		}
	})
}

func TestGetClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		expected   string
	}{
		{"remote ipv4", "10.1.2.3:51000", nil, "10.1.2.3"},
		{"remote ipv6", "[2001:db8::1]:51000", nil, "2001:db8::1"},
		{"remote without port", "10.1.2.3", nil, "10.1.2.3"},
		{"forwarded chain", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "203.0.113.7"},
		{"forwarded padded", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "  203.0.113.8 "}, "203.0.113.8"},
		{"real ip", "10.0.0.1:80", map[string]string{"X-Real-IP": "198.51.100.4"}, "198.51.100.4"},
		{"forwarded wins", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "203.0.113.7", "X-Real-IP": "198.51.100.4"}, "203.0.113.7"},
		{"empty forwarded entry", "10.0.0.1:80", map[string]string{"X-Forwarded-For": " , 10.0.0.2", "X-Real-IP": "198.51.100.4"}, "198.51.100.4"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/auth/login", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			if got := GetClientIP(req); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}
