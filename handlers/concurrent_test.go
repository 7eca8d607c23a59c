// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/yearbook-vote/feed"
	"github.com/danielhkuo/yearbook-vote/models"
	"github.com/danielhkuo/yearbook-vote/testutil"
)

// TestConcurrentDoubleSubmit simulates one student with two tabs open
// pressing submit at the same time: exactly one vote is stored and the other
// tab gets 409 already_voted.
func TestConcurrentDoubleSubmit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	hub := feed.NewHub()
	handler := NewVotingHandler(db, testutil.GetTestConfig(), hub, hub)
	seedBallots(t, db)
	ana := testutil.CreateTestUser(t, db, "ana", models.RoleStudent)

	var published atomic.Int32
	dispose := hub.Subscribe(ana.ID, func(models.Vote) { published.Add(1) })
	defer dispose()

	const tabs = 2
	var created, conflicts atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < tabs; i++ {
		wg.Add(1)
		go func(tab int) {
			defer wg.Done()

			candidate := []string{"s1", "s2"}[tab]
			w := submitVote(handler, ana, "smile", models.SubmitVoteRequest{CandidateID: candidate})

			switch w.Code {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusConflict:
				var resp models.ErrorResponse
				json.NewDecoder(w.Body).Decode(&resp)
				if resp.Code != models.CodeAlreadyVoted {
					t.Errorf("Expected already_voted code, got %q", resp.Code)
				}
				conflicts.Add(1)
			default:
				t.Errorf("Unexpected status %d: %s", w.Code, w.Body.String())
			}
		}(i)
	}

	wg.Wait()

	if created.Load() != 1 || conflicts.Load() != tabs-1 {
		t.Errorf("Expected 1 created and %d conflicts, got %d and %d", tabs-1, created.Load(), conflicts.Load())
	}

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM vote WHERE user_id = $1 AND category_id = $2", ana.ID, "smile").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected exactly 1 stored vote, got %d", count)
	}

	if published.Load() != 1 {
		t.Errorf("Expected exactly 1 published vote, got %d", published.Load())
	}
}

// TestConcurrentManySubmits hammers one category from many users, each
// submitting several times, and checks the one-vote-per-user invariant.
func TestConcurrentManySubmits(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler := NewVotingHandler(db, testutil.GetTestConfig(), nil, nil)
	seedBallots(t, db)

	const numVoters = 10
	const attemptsPerVoter = 3

	voters := make([]models.User, numVoters)
	for i := range voters {
		voters[i] = testutil.CreateTestUser(t, db, fmt.Sprintf("voter%d", i), models.RoleStudent)
	}

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numVoters; i++ {
		for j := 0; j < attemptsPerVoter; j++ {
			wg.Add(1)
			go func(voter models.User, attempt int) {
				defer wg.Done()
				candidate := []string{"s1", "s2", "s3"}[attempt]
				w := submitVote(handler, voter, "smile", models.SubmitVoteRequest{CandidateID: candidate})
				if w.Code == http.StatusCreated {
					successCount.Add(1)
				} else if w.Code != http.StatusConflict {
					t.Errorf("Unexpected status %d: %s", w.Code, w.Body.String())
				}
			}(voters[i], j)
		}
	}

	wg.Wait()

	if int(successCount.Load()) != numVoters {
		t.Errorf("Expected %d successful submissions, got %d", numVoters, successCount.Load())
	}

	var total, distinct int
	if err := db.QueryRow("SELECT COUNT(*), COUNT(DISTINCT user_id) FROM vote WHERE category_id = $1", "smile").Scan(&total, &distinct); err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	if total != numVoters || distinct != numVoters {
		t.Errorf("Expected %d votes from %d voters, got %d from %d", numVoters, numVoters, total, distinct)
	}
}
