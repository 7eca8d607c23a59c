// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package feed

import (
	"context"
	"sync"

	"github.com/danielhkuo/yearbook-vote/models"
)

type subscriber struct {
	userID string
	fn     func(models.Vote)

	mu     sync.Mutex
	closed bool
}

func (s *subscriber) deliver(v models.Vote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.fn(v)
}

// Hub fans out votes to per-user subscribers.
type Hub struct {
	mu   sync.RWMutex
	next uint64
	subs map[uint64]*subscriber
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*subscriber)}
}

// Subscribe registers fn for votes cast by userID. The returned dispose
// function is idempotent and blocks until any in-flight delivery to fn has
// finished. fn must not block and must not call dispose itself.
func (h *Hub) Subscribe(userID string, fn func(models.Vote)) (dispose func()) {
	sub := &subscriber{userID: userID, fn: fn}

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = sub
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()

			sub.mu.Lock()
			sub.closed = true
			sub.mu.Unlock()
		})
	}
}

// Publish delivers v to every subscriber of v.UserID.
func (h *Hub) Publish(_ context.Context, v models.Vote) error {
	h.mu.RLock()
	var matched []*subscriber
	for _, sub := range h.subs {
		if sub.userID == v.UserID {
			matched = append(matched, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range matched {
		sub.deliver(v)
	}
	return nil
}

// Len returns the number of live subscriptions
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
