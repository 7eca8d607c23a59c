// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package reveal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/yearbook-vote/models"
)

// TickInterval is how far one Tick advances the gate's clock
const TickInterval = time.Second

var (
	ErrAlreadyInitialized = errors.New("reveal gate already initialized")
	ErrNotInitialized     = errors.New("reveal gate not initialized")
)

type State int

const (
	Uninitialized State = iota
	CountingDown
	Open
)

func (s State) String() string {
	switch s {
	case CountingDown:
		return models.RevealCountingDown
	case Open:
		return models.RevealOpen
	default:
		return models.RevealUninitialized
	}
}

// Source supplies the reveal time and one server-time sample
type Source interface {
	SummaryOpenAt(ctx context.Context) (time.Time, error)
	ServerNow(ctx context.Context) (time.Time, error)
}

type Gate struct {
	mu        sync.Mutex
	state     State
	openAt    time.Time
	now       time.Time
	remaining time.Duration
	opened    chan struct{}
}

func NewGate() *Gate {
	return &Gate{opened: make(chan struct{})}
}

// Init anchors the gate at serverNow. If openAt is not in the future the
// gate opens immediately.
func (g *Gate) Init(openAt, serverNow time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Uninitialized {
		return ErrAlreadyInitialized
	}

	g.openAt = openAt
	g.now = serverNow
	g.state = CountingDown
	g.recompute()
	return nil
}

// Load initializes the gate from src: first the reveal time, then the
// server clock. Any error leaves the gate Uninitialized.
func (g *Gate) Load(ctx context.Context, src Source) error {
	if g.State() != Uninitialized {
		return ErrAlreadyInitialized
	}

	openAt, err := src.SummaryOpenAt(ctx)
	if err != nil {
		return err
	}

	serverNow, err := src.ServerNow(ctx)
	if err != nil {
		return err
	}

	return g.Init(openAt, serverNow)
}

// Tick advances the gate by one TickInterval. It is a no-op unless the gate
// is counting down.
func (g *Gate) Tick() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != CountingDown {
		return
	}

	g.now = g.now.Add(TickInterval)
	g.recompute()
}

// must hold g.mu
func (g *Gate) recompute() {
	g.remaining = g.openAt.Sub(g.now)
	if g.remaining <= 0 {
		g.remaining = 0
		g.state = Open
		close(g.opened)
	}
}

// Run ticks the gate from t until it opens or ctx is done, then stops t.
// It returns nil once the gate is Open.
func (g *Gate) Run(ctx context.Context, t Ticker) error {
	defer t.Stop()

	switch g.State() {
	case Uninitialized:
		return ErrNotInitialized
	case Open:
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.opened:
			return nil
		case <-t.C():
			g.Tick()
		}
	}
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Remaining is the time left until the gate opens, never negative
func (g *Gate) Remaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.remaining
}

// Opened is closed when the gate transitions to Open
func (g *Gate) Opened() <-chan struct{} {
	return g.opened
}

// Snapshot is a point-in-time view of a gate
type Snapshot struct {
	State     State
	OpenAt    time.Time
	Now       time.Time
	Remaining time.Duration
}

func (g *Gate) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{
		State:     g.state,
		OpenAt:    g.openAt,
		Now:       g.now,
		Remaining: g.remaining,
	}
}

// Countdown splits the remaining time into whole days, hours, minutes and seconds
func (s Snapshot) Countdown() models.Countdown {
	total := int64(s.Remaining / time.Second)
	return models.Countdown{
		Days:    int(total / 86400),
		Hours:   int(total % 86400 / 3600),
		Minutes: int(total % 3600 / 60),
		Seconds: int(total % 60),
	}
}

// OpensIn is a human readable countdown such as "3 days from now".
// Empty unless counting down.
func (s Snapshot) OpensIn() string {
	if s.State != CountingDown {
		return ""
	}
	return humanize.RelTime(s.Now, s.OpenAt, "from now", "ago")
}

// Status renders the snapshot for the API
func (s Snapshot) Status() models.RevealStatus {
	status := models.RevealStatus{
		State:       s.State.String(),
		Configured:  s.State != Uninitialized,
		ServerNow:   s.Now,
		RemainingMS: s.Remaining.Milliseconds(),
		Countdown:   s.Countdown(),
		OpensIn:     s.OpensIn(),
	}
	if status.Configured {
		openAt := s.OpenAt
		status.SummaryOpenAt = &openAt
	}
	return status
}
