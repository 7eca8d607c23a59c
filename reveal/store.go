// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package reveal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/yearbook-vote/models"
)

// settingID is the primary key of the only reveal_setting row
const settingID = 1

// DateTimeLocal is the layout of an HTML datetime-local input
const DateTimeLocal = "2006-01-02T15:04"

var (
	ErrNotConfigured     = errors.New("reveal time not configured")
	ErrEmptyRevealTime   = errors.New("reveal time is required")
	ErrInvalidRevealTime = errors.New("reveal time is not a valid date and time")
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Get returns the reveal setting, or ErrNotConfigured if none was saved
func (s *Store) Get(ctx context.Context) (models.RevealSetting, error) {
	var setting models.RevealSetting
	err := s.db.QueryRowContext(ctx, `
		SELECT id, summary_open_at, updated_at
		FROM reveal_setting
		WHERE id = $1
	`, settingID).Scan(&setting.ID, &setting.SummaryOpenAt, &setting.UpdatedAt)

	if err == sql.ErrNoRows {
		return models.RevealSetting{}, ErrNotConfigured
	}
	if err != nil {
		return models.RevealSetting{}, fmt.Errorf("failed to query reveal setting: %w", err)
	}

	setting.SummaryOpenAt = setting.SummaryOpenAt.UTC()
	setting.UpdatedAt = setting.UpdatedAt.UTC()
	return setting, nil
}

// Set saves openAt as the reveal time, replacing any previous value
func (s *Store) Set(ctx context.Context, openAt time.Time) (models.RevealSetting, error) {
	setting := models.RevealSetting{
		ID:            settingID,
		SummaryOpenAt: openAt.UTC(),
		UpdatedAt:     s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reveal_setting (id, summary_open_at, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET summary_open_at = excluded.summary_open_at, updated_at = excluded.updated_at
	`, setting.ID, setting.SummaryOpenAt, setting.UpdatedAt)
	if err != nil {
		return models.RevealSetting{}, fmt.Errorf("failed to save reveal setting: %w", err)
	}

	return setting, nil
}

// SummaryOpenAt implements Source
func (s *Store) SummaryOpenAt(ctx context.Context) (time.Time, error) {
	setting, err := s.Get(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return setting.SummaryOpenAt, nil
}

// ServerNow implements Source with the server clock
func (s *Store) ServerNow(context.Context) (time.Time, error) {
	return s.now().UTC(), nil
}

// ParseRevealTime accepts RFC 3339 or a datetime-local value. Values without
// a zone are read in loc.
func ParseRevealTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrEmptyRevealTime
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}

	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range []string{DateTimeLocal, "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidRevealTime, value)
}
