// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package feed

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/danielhkuo/yearbook-vote/models"
)

// Channel is the PostgreSQL notification channel for inserted votes
const Channel = "vote_inserted"

const (
	minReconnectDelay = 500 * time.Millisecond
	maxReconnectDelay = 30 * time.Second
)

// PGNotifier publishes votes with pg_notify over the app's database/sql pool.
type PGNotifier struct {
	db *sql.DB
}

func NewPGNotifier(db *sql.DB) *PGNotifier {
	return &PGNotifier{db: db}
}

func (n *PGNotifier) Publish(ctx context.Context, v models.Vote) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode vote: %w", err)
	}

	if _, err := n.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, Channel, string(payload)); err != nil {
		return fmt.Errorf("failed to notify %s: %w", Channel, err)
	}
	return nil
}

// Listener holds a dedicated pgx connection on LISTEN and relays every
// notification into a Hub.
type Listener struct {
	dsn string
	hub *Hub

	readyOnce sync.Once
	ready     chan struct{}
}

func NewListener(dsn string, hub *Hub) *Listener {
	return &Listener{dsn: dsn, hub: hub, ready: make(chan struct{})}
}

// Ready is closed once the first LISTEN has been issued.
func (l *Listener) Ready() <-chan struct{} {
	return l.ready
}

// Run listens until ctx is cancelled, reconnecting with backoff when the
// connection drops. It returns ctx.Err().
func (l *Listener) Run(ctx context.Context) error {
	delay := minReconnectDelay
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		slog.Warn("vote listener disconnected", "error", err, "retry_in", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{Channel}.Sanitize()); err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	slog.Info("listening for votes", "channel", Channel)
	l.readyOnce.Do(func() { close(l.ready) })

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var v models.Vote
		if err := json.Unmarshal([]byte(n.Payload), &v); err != nil {
			slog.Error("failed to decode vote notification", "error", err, "payload", n.Payload)
			continue
		}

		l.hub.Publish(ctx, v)
	}
}
