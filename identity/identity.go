// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package identity is the login collaborator: it checks a username and
// password against the users table and returns the stored identity.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/danielhkuo/yearbook-vote/auth"
	"github.com/danielhkuo/yearbook-vote/models"
)

// ErrInvalidCredentials covers both unknown users and wrong passwords
var ErrInvalidCredentials = errors.New("invalid username or password")

var ErrEmptyCredentials = errors.New("username and password are required")

// Compared against when the username is unknown so both failure paths cost one bcrypt check.
var (
	dummyHash     string
	dummyHashOnce sync.Once
)

func unknownUserHash() string {
	dummyHashOnce.Do(func() {
		dummyHash, _ = auth.HashPassword("yearbook-vote-unknown-user")
	})
	return dummyHash
}

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Login returns the user for a valid username/password pair.
// Input is trimmed the same way the login form does.
func (s *Service) Login(ctx context.Context, username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return models.User{}, ErrInvalidCredentials
	}

	var user models.User
	var hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, display_name, role, password_hash
		FROM users
		WHERE username = $1
	`, username).Scan(&user.ID, &user.Username, &user.DisplayName, &user.Role, &hash)

	if err == sql.ErrNoRows {
		_ = auth.CheckPassword(unknownUserHash(), password)
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to query user: %w", err)
	}

	if err := auth.CheckPassword(hash, password); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser loads a user by id
func (s *Service) GetUser(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, display_name, role FROM users WHERE id = $1
	`, id).Scan(&user.ID, &user.Username, &user.DisplayName, &user.Role)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// CountStudents returns the number of eligible voters
func (s *Service) CountStudents(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users WHERE role = $1
	`, models.RoleStudent).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return count, nil
}

// CreateUser hashes the password and inserts the user. Username and
// password are trimmed as Login trims them.
// Existing usernames are left untouched and reported with created=false.
func (s *Service) CreateUser(ctx context.Context, user models.User, password string) (created bool, err error) {
	user.Username = strings.TrimSpace(user.Username)
	password = strings.TrimSpace(password)
	if user.Username == "" || password == "" {
		return false, ErrEmptyCredentials
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, display_name, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
	`, user.ID, user.Username, user.DisplayName, hash, user.Role)
	if err != nil {
		return false, fmt.Errorf("failed to insert user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
