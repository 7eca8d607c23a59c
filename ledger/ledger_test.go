// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/yearbook-vote/feed"
	"github.com/danielhkuo/yearbook-vote/models"
	"github.com/danielhkuo/yearbook-vote/testutil"
)

type recordingPublisher struct {
	mu    sync.Mutex
	votes []models.Vote
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, v models.Vote) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.votes = append(p.votes, v)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.votes)
}

func countVotes(t *testing.T, l *Ledger, userID, categoryID string) int {
	t.Helper()
	var n int
	err := l.db.QueryRow(`
		SELECT COUNT(*) FROM vote WHERE user_id = $1 AND category_id = $2
	`, userID, categoryID).Scan(&n)
	if err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	return n
}

func TestSubmitVote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	alice := testutil.CreateTestUser(t, db, "alice", models.RoleStudent)
	testutil.CreateTestCategory(t, db, "smile", "Best Smile")
	testutil.CreateTestCategory(t, db, "clown", "Class Clown")
	testutil.AddTestCandidate(t, db, "smile", "s1", "Ana")
	testutil.AddTestCandidate(t, db, "clown", "c1", "Ben")

	pub := &recordingPublisher{}
	l := New(db, pub, nil)
	ctx := context.Background()

	voted, err := l.HasVoted(ctx, alice.ID, "smile")
	if err != nil {
		t.Fatalf("HasVoted failed: %v", err)
	}
	if voted {
		t.Fatal("Expected no vote before submitting")
	}

	vote, err := l.SubmitVote(ctx, alice.ID, "smile", "s1")
	if err != nil {
		t.Fatalf("SubmitVote failed: %v", err)
	}
	if vote.ID == "" || vote.CandidateID != "s1" || vote.CreatedAt.IsZero() {
		t.Errorf("Unexpected vote: %+v", vote)
	}

	voted, err = l.HasVoted(ctx, alice.ID, "smile")
	if err != nil {
		t.Fatalf("HasVoted failed: %v", err)
	}
	if !voted {
		t.Error("Expected HasVoted after submitting")
	}

	if pub.count() != 1 || pub.votes[0].ID != vote.ID {
		t.Errorf("Expected the vote to be published once, got %+v", pub.votes)
	}

	t.Run("second vote in same category", func(t *testing.T) {
		_, err := l.SubmitVote(ctx, alice.ID, "smile", "s1")
		if !errors.Is(err, ErrAlreadyVoted) {
			t.Errorf("Expected ErrAlreadyVoted, got %v", err)
		}
		if n := countVotes(t, l, alice.ID, "smile"); n != 1 {
			t.Errorf("Expected 1 stored vote, got %d", n)
		}
		if pub.count() != 1 {
			t.Error("Rejected vote must not be published")
		}
	})

	t.Run("candidate from another category", func(t *testing.T) {
		_, err := l.SubmitVote(ctx, alice.ID, "clown", "s1")
		if !errors.Is(err, ErrInvalidCandidate) {
			t.Errorf("Expected ErrInvalidCandidate, got %v", err)
		}
	})

	t.Run("other category still open", func(t *testing.T) {
		if _, err := l.SubmitVote(ctx, alice.ID, "clown", "c1"); err != nil {
			t.Errorf("Expected vote in another category to succeed, got %v", err)
		}
	})

	voted2, err := l.VotedCategories(ctx, alice.ID)
	if err != nil {
		t.Fatalf("VotedCategories failed: %v", err)
	}
	if len(voted2) != 2 || voted2["smile"] != "s1" || voted2["clown"] != "c1" {
		t.Errorf("Unexpected voted categories: %v", voted2)
	}

	all, err := l.ListVotes(ctx)
	if err != nil {
		t.Fatalf("ListVotes failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 votes, got %d", len(all))
	}
}

func TestSubmitVotePublishFailureKeepsVote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	alice := testutil.CreateTestUser(t, db, "alice", models.RoleStudent)
	testutil.CreateTestCategory(t, db, "smile", "Best Smile")
	testutil.AddTestCandidate(t, db, "smile", "s1", "Ana")

	l := New(db, &recordingPublisher{err: errors.New("feed down")}, nil)

	if _, err := l.SubmitVote(context.Background(), alice.ID, "smile", "s1"); err != nil {
		t.Fatalf("Expected vote to succeed despite publish failure, got %v", err)
	}
	if n := countVotes(t, l, alice.ID, "smile"); n != 1 {
		t.Errorf("Expected 1 stored vote, got %d", n)
	}
}

func TestSubmitVoteStoreFailureIsTransient(t *testing.T) {
	db := testutil.SetupTestDB(t)

	alice := testutil.CreateTestUser(t, db, "alice", models.RoleStudent)
	testutil.CreateTestCategory(t, db, "smile", "Best Smile")
	testutil.AddTestCandidate(t, db, "smile", "s1", "Ana")

	l := New(db, nil, nil)
	db.Close()

	_, err := l.SubmitVote(context.Background(), alice.ID, "smile", "s1")
	if !errors.Is(err, ErrTransient) {
		t.Errorf("Expected ErrTransient, got %v", err)
	}

	if _, err := l.HasVoted(context.Background(), alice.ID, "smile"); !errors.Is(err, ErrTransient) {
		t.Errorf("Expected ErrTransient from HasVoted, got %v", err)
	}
}

// A competing vote landing between the existence check and the insert is
// rejected by the unique constraint and reported as ErrAlreadyVoted.
func TestSubmitVoteLosesRaceToConstraint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	alice := testutil.CreateTestUser(t, db, "alice", models.RoleStudent)
	testutil.CreateTestCategory(t, db, "smile", "Best Smile")
	testutil.AddTestCandidate(t, db, "smile", "s1", "Ana")
	testutil.AddTestCandidate(t, db, "smile", "s2", "Zoe")

	prev := testHookBeforeInsert
	defer func() { testHookBeforeInsert = prev }()
	testHookBeforeInsert = func() {
		testHookBeforeInsert = func() {}
		testutil.CastTestVote(t, db, alice.ID, "smile", "s2")
	}

	pub := &recordingPublisher{}
	l := New(db, pub, nil)

	_, err := l.SubmitVote(context.Background(), alice.ID, "smile", "s1")
	if !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("Expected ErrAlreadyVoted, got %v", err)
	}
	if n := countVotes(t, l, alice.ID, "smile"); n != 1 {
		t.Errorf("Expected exactly 1 stored vote, got %d", n)
	}
	if pub.count() != 0 {
		t.Error("Losing vote must not be published")
	}
}

// Two tabs submitting for the same user and category at once: exactly one
// vote is stored and every other attempt reports ErrAlreadyVoted.
func TestConcurrentSubmitSameUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	alice := testutil.CreateTestUser(t, db, "alice", models.RoleStudent)
	testutil.CreateTestCategory(t, db, "smile", "Best Smile")
	testutil.AddTestCandidate(t, db, "smile", "s1", "Ana")
	testutil.AddTestCandidate(t, db, "smile", "s2", "Zoe")

	l := New(db, nil, nil)
	ctx := context.Background()

	const attempts = 10
	var successCount, alreadyCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			candidate := "s1"
			if i%2 == 1 {
				candidate = "s2"
			}
			_, err := l.SubmitVote(ctx, alice.ID, "smile", candidate)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, ErrAlreadyVoted):
				alreadyCount.Add(1)
			default:
				t.Errorf("Unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("Expected exactly 1 successful submit, got %d", successCount.Load())
	}
	if alreadyCount.Load() != attempts-1 {
		t.Errorf("Expected %d already-voted results, got %d", attempts-1, alreadyCount.Load())
	}
	if n := countVotes(t, l, alice.ID, "smile"); n != 1 {
		t.Errorf("Expected exactly 1 stored vote, got %d", n)
	}
}

func TestSubscribeOwnVotes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	alice := testutil.CreateTestUser(t, db, "alice", models.RoleStudent)
	bob := testutil.CreateTestUser(t, db, "bob", models.RoleStudent)
	testutil.CreateTestCategory(t, db, "smile", "Best Smile")
	testutil.CreateTestCategory(t, db, "clown", "Class Clown")
	testutil.AddTestCandidate(t, db, "smile", "s1", "Ana")
	testutil.AddTestCandidate(t, db, "clown", "c1", "Ben")

	hub := feed.NewHub()
	l := New(db, hub, hub)
	ctx := context.Background()

	var received []models.Vote
	dispose := l.SubscribeOwnVotes(alice.ID, func(v models.Vote) {
		received = append(received, v)
	})

	if _, err := l.SubmitVote(ctx, alice.ID, "smile", "s1"); err != nil {
		t.Fatalf("SubmitVote failed: %v", err)
	}
	if _, err := l.SubmitVote(ctx, bob.ID, "smile", "s1"); err != nil {
		t.Fatalf("SubmitVote failed: %v", err)
	}

	if len(received) != 1 || received[0].UserID != alice.ID {
		t.Fatalf("Expected only alice's vote, got %+v", received)
	}

	dispose()
	dispose()

	if _, err := l.SubmitVote(ctx, alice.ID, "clown", "c1"); err != nil {
		t.Fatalf("SubmitVote failed: %v", err)
	}
	if len(received) != 1 {
		t.Errorf("Expected no delivery after dispose, got %d votes", len(received))
	}
}
