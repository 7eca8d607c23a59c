// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/yearbook-vote/db"
	"github.com/danielhkuo/yearbook-vote/models"
)

var (
	ErrAlreadyVoted     = errors.New("already voted in this category")
	ErrTransient        = errors.New("temporary failure, try again")
	ErrInvalidCandidate = errors.New("candidate does not belong to this category")
)

// Publisher receives every vote after it is stored
type Publisher interface {
	Publish(ctx context.Context, v models.Vote) error
}

// Subscriber delivers stored votes for one user until dispose is called
type Subscriber interface {
	Subscribe(userID string, fn func(models.Vote)) (dispose func())
}

// Runs between the existence check and the insert. Tests use it to land a
// competing vote inside that window.
var testHookBeforeInsert = func() {}

type Ledger struct {
	db  *sql.DB
	pub Publisher
	sub Subscriber
	now func() time.Time
}

func New(db *sql.DB, pub Publisher, sub Subscriber) *Ledger {
	return &Ledger{db: db, pub: pub, sub: sub, now: time.Now}
}

// HasVoted reports whether userID already has a vote in categoryID
func (l *Ledger) HasVoted(ctx context.Context, userID, categoryID string) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM vote
			WHERE user_id = $1 AND category_id = $2
		)
	`, userID, categoryID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: check vote: %w", ErrTransient, err)
	}
	return exists, nil
}

// SubmitVote records userID's vote for candidateID in categoryID.
//
// Returns ErrInvalidCandidate if the candidate is not on that category's
// ballot, ErrAlreadyVoted if the user has voted there (including losing a
// concurrent race), and an error wrapping ErrTransient for any other store
// failure.
func (l *Ledger) SubmitVote(ctx context.Context, userID, categoryID, candidateID string) (models.Vote, error) {
	var onBallot bool
	err := l.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM candidate
			WHERE id = $1 AND category_id = $2
		)
	`, candidateID, categoryID).Scan(&onBallot)
	if err != nil {
		return models.Vote{}, fmt.Errorf("%w: check candidate: %w", ErrTransient, err)
	}
	if !onBallot {
		return models.Vote{}, ErrInvalidCandidate
	}

	voted, err := l.HasVoted(ctx, userID, categoryID)
	if err != nil {
		return models.Vote{}, err
	}
	if voted {
		return models.Vote{}, ErrAlreadyVoted
	}

	testHookBeforeInsert()

	vote := models.Vote{
		ID:          uuid.NewString(),
		UserID:      userID,
		CategoryID:  categoryID,
		CandidateID: candidateID,
		CreatedAt:   l.now().UTC(),
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO vote (id, user_id, category_id, candidate_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, vote.ID, vote.UserID, vote.CategoryID, vote.CandidateID, vote.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			slog.Info("concurrent vote rejected", "user_id", userID, "category_id", categoryID)
			return models.Vote{}, ErrAlreadyVoted
		}
		return models.Vote{}, fmt.Errorf("%w: insert vote: %w", ErrTransient, err)
	}

	if l.pub != nil {
		if err := l.pub.Publish(ctx, vote); err != nil {
			slog.Error("failed to publish vote", "error", err, "vote_id", vote.ID)
		}
	}

	return vote, nil
}

// SubscribeOwnVotes calls onVote for each vote userID casts from now on.
// The returned dispose is idempotent.
func (l *Ledger) SubscribeOwnVotes(userID string, onVote func(models.Vote)) (dispose func()) {
	if l.sub == nil {
		return func() {}
	}
	return l.sub.Subscribe(userID, onVote)
}

// VotedCategories maps each category userID has voted in to the chosen candidate
func (l *Ledger) VotedCategories(ctx context.Context, userID string) (map[string]string, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT category_id, candidate_id FROM vote WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: query votes: %w", ErrTransient, err)
	}
	defer rows.Close()

	voted := make(map[string]string)
	for rows.Next() {
		var categoryID, candidateID string
		if err := rows.Scan(&categoryID, &candidateID); err != nil {
			return nil, fmt.Errorf("%w: scan vote: %w", ErrTransient, err)
		}
		voted[categoryID] = candidateID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read votes: %w", ErrTransient, err)
	}
	return voted, nil
}

// ListVotes returns every vote in insertion order
func (l *Ledger) ListVotes(ctx context.Context) ([]models.Vote, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, user_id, category_id, candidate_id, created_at
		FROM vote
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query votes: %w", ErrTransient, err)
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.ID, &v.UserID, &v.CategoryID, &v.CandidateID, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan vote: %w", ErrTransient, err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read votes: %w", ErrTransient, err)
	}
	return votes, nil
}
