// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/danielhkuo/yearbook-vote/auth"
	"github.com/danielhkuo/yearbook-vote/cliparse"
	"github.com/danielhkuo/yearbook-vote/db"
	"github.com/danielhkuo/yearbook-vote/models"
)

// TestPassword is the password of every user created by CreateTestUser
const TestPassword = "password"

// SetupTestDB creates a fresh SQLite database file with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := GetTestConfig()
	cfg.DatabaseURL = filepath.Join(t.TempDir(), "test.db")

	conn, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseURL:   "file:test.db",
		DatabaseType:  cliparse.DatabaseSQLite,
		SessionSecret: "test-session-secret",
		SessionTTL:    time.Hour,
		Timezone:      "UTC",
	}
}

// CreateTestUser inserts a user with TestPassword and the given role
func CreateTestUser(t *testing.T, conn *sql.DB, username, role string) models.User {
	t.Helper()

	// MinCost keeps fixtures fast; CheckPassword accepts any cost
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := models.User{
		ID:          uuid.NewString(),
		Username:    username,
		DisplayName: "Test " + username,
		Role:        role,
	}

	_, err = conn.Exec(`
		INSERT INTO users (id, username, display_name, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Username, user.DisplayName, string(hash), user.Role, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// CreateTestCategory inserts a category after the existing ones
func CreateTestCategory(t *testing.T, conn *sql.DB, id, name string) models.Category {
	t.Helper()

	cat := models.Category{ID: id, Name: name, IconKey: "Sparkles"}
	_, err := conn.Exec(`
		INSERT INTO category (id, name, icon_key, position)
		VALUES ($1, $2, $3, (SELECT COUNT(*) FROM category))
	`, cat.ID, cat.Name, cat.IconKey)
	if err != nil {
		t.Fatalf("Failed to create test category: %v", err)
	}

	return cat
}

// AddTestCandidate inserts a candidate after the existing ones in its category
func AddTestCandidate(t *testing.T, conn *sql.DB, categoryID, id, name string) models.Candidate {
	t.Helper()

	cand := models.Candidate{
		ID:         id,
		Name:       name,
		ClassLabel: "9A",
		PhotoRef:   id,
		CategoryID: categoryID,
	}
	_, err := conn.Exec(`
		INSERT INTO candidate (id, category_id, name, class_label, photo_ref, position)
		VALUES ($1, $2, $3, $4, $5, (SELECT COUNT(*) FROM candidate WHERE category_id = $2))
	`, cand.ID, cand.CategoryID, cand.Name, cand.ClassLabel, cand.PhotoRef)
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}

	return cand
}

// CastTestVote inserts a vote directly, bypassing the ledger
func CastTestVote(t *testing.T, conn *sql.DB, userID, categoryID, candidateID string) models.Vote {
	t.Helper()

	vote := models.Vote{
		ID:          uuid.NewString(),
		UserID:      userID,
		CategoryID:  categoryID,
		CandidateID: candidateID,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := conn.Exec(`
		INSERT INTO vote (id, user_id, category_id, candidate_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, vote.ID, vote.UserID, vote.CategoryID, vote.CandidateID, vote.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}

	return vote
}

// SetTestReveal writes the reveal setting singleton
func SetTestReveal(t *testing.T, conn *sql.DB, openAt time.Time) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO reveal_setting (id, summary_open_at, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET summary_open_at = excluded.summary_open_at, updated_at = excluded.updated_at
	`, openAt.UTC(), time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to set test reveal time: %v", err)
	}
}

// TestToken issues a session token for user with the test config secret
func TestToken(t *testing.T, user models.User) string {
	t.Helper()

	cfg := GetTestConfig()
	token, err := auth.IssueToken(user, cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		t.Fatalf("Failed to issue test token: %v", err)
	}
	return token
}

// AuthHeaders returns the Authorization header for a bearer token
func AuthHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
