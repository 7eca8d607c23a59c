// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/danielhkuo/yearbook-vote/models"
	"github.com/danielhkuo/yearbook-vote/reveal"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 64 << 10
)

// Session is the persisted login
type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client. Its Timeout is ignored
// for the vote stream.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

type Client struct {
	baseURL string
	http    *http.Client
	store   SessionStore

	mu      sync.Mutex
	session *Session
	nextSub uint64
	subs    map[uint64]func()
}

// New creates a client for the API at baseURL and restores any session
// saved in store. A nil store keeps the session in memory.
func New(baseURL string, store SessionStore, opts ...Option) (*Client, error) {
	if store == nil {
		store = NewMemorySessionStore()
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		store:   store,
		subs:    make(map[uint64]func()),
	}
	for _, opt := range opts {
		opt(c)
	}

	data, err := store.Get(SessionKey)
	switch {
	case errors.Is(err, ErrNoEntry):
	case err != nil:
		return nil, fmt.Errorf("failed to restore session: %w", err)
	default:
		var s Session
		if err := json.Unmarshal(data, &s); err != nil || s.Token == "" {
			slog.Warn("discarding unreadable session", "error", err)
			if err := store.Delete(SessionKey); err != nil {
				return nil, fmt.Errorf("failed to clear session: %w", err)
			}
			break
		}
		c.session = &s
	}

	return c, nil
}

// Session returns the current session, if logged in
func (c *Client) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return ""
	}
	return c.session.Token
}

// Login authenticates and persists the session. Bad credentials return
// ErrAuth.
func (c *Client) Login(ctx context.Context, username, password string) (models.User, error) {
	var resp models.LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", "", models.LoginRequest{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		return models.User{}, err
	}

	s := Session{Token: resp.Token, User: resp.User}
	data, err := json.Marshal(s)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := c.store.Set(SessionKey, data); err != nil {
		return models.User{}, fmt.Errorf("failed to save session: %w", err)
	}

	c.mu.Lock()
	c.session = &s
	c.mu.Unlock()

	return resp.User, nil
}

// Logout disposes every subscription opened by c and forgets the session
func (c *Client) Logout() error {
	c.mu.Lock()
	subs := c.subs
	c.subs = make(map[uint64]func())
	c.session = nil
	c.mu.Unlock()

	for _, dispose := range subs {
		dispose()
	}

	if err := c.store.Delete(SessionKey); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Me fetches the session user from the server
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var user models.User
	err := c.authed(ctx, http.MethodGet, "/me", nil, &user)
	return user, err
}

func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := c.authed(ctx, http.MethodGet, "/categories", nil, &categories)
	return categories, err
}

// Category fetches one category and its ballot
func (c *Client) Category(ctx context.Context, categoryID string) (models.CategoryWithCandidates, error) {
	var ballot models.CategoryWithCandidates
	err := c.authed(ctx, http.MethodGet, "/categories/"+url.PathEscape(categoryID), nil, &ballot)
	return ballot, err
}

func (c *Client) HasVoted(ctx context.Context, categoryID string) (bool, error) {
	var resp models.VoteStatusResponse
	err := c.authed(ctx, http.MethodGet, "/categories/"+url.PathEscape(categoryID)+"/vote-status", nil, &resp)
	return resp.HasVoted, err
}

// SubmitVote casts the session user's vote. It returns ErrAlreadyVoted when
// the pre-check finds an existing vote or the server rejects a duplicate.
func (c *Client) SubmitVote(ctx context.Context, categoryID, candidateID string) (models.Vote, error) {
	voted, err := c.HasVoted(ctx, categoryID)
	if err != nil {
		return models.Vote{}, err
	}
	if voted {
		return models.Vote{}, ErrAlreadyVoted
	}

	var vote models.Vote
	err = c.authed(ctx, http.MethodPost, "/categories/"+url.PathEscape(categoryID)+"/votes",
		models.SubmitVoteRequest{CandidateID: candidateID}, &vote)
	return vote, err
}

func (c *Client) MyVotes(ctx context.Context) (models.MyVotesResponse, error) {
	var resp models.MyVotesResponse
	err := c.authed(ctx, http.MethodGet, "/me/votes", nil, &resp)
	return resp, err
}

// SubscribeOwnVotes streams the session user's new votes to onVote until
// dispose is called, ctx is done, Logout runs or the stream breaks.
// onVote runs on the stream goroutine.
func (c *Client) SubscribeOwnVotes(ctx context.Context, onVote func(models.Vote)) (dispose func(), err error) {
	token := c.token()
	if token == "" {
		return nil, ErrNotLoggedIn
	}

	subCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(subCtx, http.MethodGet, c.baseURL+"/me/votes/stream", nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+token)

	stream := *c.http
	stream.Timeout = 0

	resp, err := stream.Do(req)
	if err != nil {
		cancel()
		return nil, transportError(ctx, req, err)
	}
	if resp.StatusCode != http.StatusOK {
		err := decodeError(resp, true)
		resp.Body.Close()
		cancel()
		return nil, err
	}

	var once sync.Once
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	dispose = func() {
		once.Do(func() {
			cancel()
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
	c.subs[id] = dispose
	c.mu.Unlock()

	go func() {
		defer resp.Body.Close()
		defer dispose()

		err := readEvents(resp.Body, func(ev event) {
			if ev.Event != "vote" || subCtx.Err() != nil {
				return
			}
			var v models.Vote
			if err := json.Unmarshal([]byte(ev.Data), &v); err != nil {
				slog.Warn("skipping malformed vote event", "error", err, "id", ev.ID)
				return
			}
			onVote(v)
		})
		if err != nil && subCtx.Err() == nil {
			slog.Warn("vote stream ended", "error", err)
		}
	}()

	return dispose, nil
}

// VotedSet is the session user's category -> candidate choices, loaded
// once and then kept current by the vote stream
type VotedSet struct {
	mu      sync.RWMutex
	votes   map[string]string
	dispose func()
}

// VotedSet subscribes before loading /me/votes so no vote cast in between
// is missed. Close it when done.
func (c *Client) VotedSet(ctx context.Context) (*VotedSet, error) {
	s := &VotedSet{votes: make(map[string]string)}

	dispose, err := c.SubscribeOwnVotes(ctx, s.add)
	if err != nil {
		return nil, err
	}

	mine, err := c.MyVotes(ctx)
	if err != nil {
		dispose()
		return nil, err
	}

	s.mu.Lock()
	for categoryID, candidateID := range mine.Votes {
		s.votes[categoryID] = candidateID
	}
	s.dispose = dispose
	s.mu.Unlock()

	return s, nil
}

func (s *VotedSet) add(v models.Vote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes[v.CategoryID] = v.CandidateID
}

func (s *VotedSet) Has(categoryID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.votes[categoryID]
	return ok
}

// Choice returns the candidate voted for in categoryID
func (s *VotedSet) Choice(categoryID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidateID, ok := s.votes[categoryID]
	return candidateID, ok
}

func (s *VotedSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.votes)
}

// Close stops the underlying subscription
func (s *VotedSet) Close() {
	s.mu.RLock()
	dispose := s.dispose
	s.mu.RUnlock()
	if dispose != nil {
		dispose()
	}
}

// remoteSource reads the reveal time and a server clock sample from the API
type remoteSource struct {
	c *Client
}

func (r remoteSource) SummaryOpenAt(ctx context.Context) (time.Time, error) {
	var status models.RevealStatus
	if err := r.c.authed(ctx, http.MethodGet, "/reveal", nil, &status); err != nil {
		return time.Time{}, err
	}
	if !status.Configured || status.SummaryOpenAt == nil {
		return time.Time{}, ErrNotConfigured
	}
	return *status.SummaryOpenAt, nil
}

func (r remoteSource) ServerNow(ctx context.Context) (time.Time, error) {
	var resp models.ServerTimeResponse
	if err := r.c.do(ctx, http.MethodGet, "/time", "", nil, &resp); err != nil {
		return time.Time{}, err
	}
	return resp.ServerNow, nil
}

// RevealGate returns a gate anchored at the server clock. When no reveal
// time is configured the gate is returned Uninitialized with a nil error.
func (c *Client) RevealGate(ctx context.Context) (*reveal.Gate, error) {
	gate := reveal.NewGate()

	err := gate.Load(ctx, remoteSource{c: c})
	if err != nil && !errors.Is(err, ErrNotConfigured) {
		return nil, err
	}
	return gate, nil
}

// Summary fetches the results. Students get ErrResultsSealed until the
// reveal time and ErrNotConfigured if none is set.
func (c *Client) Summary(ctx context.Context) (models.Summary, error) {
	var summary models.Summary
	err := c.authed(ctx, http.MethodGet, "/summary", nil, &summary)
	return summary, err
}

// AwaitSummary runs gate on t and fetches the summary once it opens. No
// request is made while the gate is closed.
func (c *Client) AwaitSummary(ctx context.Context, gate *reveal.Gate, t reveal.Ticker) (models.Summary, error) {
	if err := gate.Run(ctx, t); err != nil {
		if errors.Is(err, reveal.ErrNotInitialized) {
			return models.Summary{}, ErrNotConfigured
		}
		return models.Summary{}, err
	}
	return c.Summary(ctx)
}

// Dashboard is the admin view with client-side category selection
type Dashboard struct {
	models.Dashboard
}

// Category picks one category's results from the fetched dashboard
func (d *Dashboard) Category(categoryID string) (models.CategoryResult, bool) {
	for _, result := range d.Categories {
		if result.Category.ID == categoryID {
			return result, true
		}
	}
	return models.CategoryResult{}, false
}

func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	if err := c.authed(ctx, http.MethodGet, "/admin/dashboard", nil, &d.Dashboard); err != nil {
		return nil, err
	}
	return &d, nil
}

// SetRevealTime stores a new reveal time. value is RFC 3339 or a
// datetime-local string in the server's timezone.
func (c *Client) SetRevealTime(ctx context.Context, value string) (models.RevealSetting, error) {
	var setting models.RevealSetting
	err := c.authed(ctx, http.MethodPut, "/admin/reveal", models.SetRevealRequest{SummaryOpenAt: value}, &setting)
	return setting, err
}

func (c *Client) authed(ctx context.Context, method, path string, in, out interface{}) error {
	token := c.token()
	if token == "" {
		return ErrNotLoggedIn
	}
	return c.do(ctx, method, path, token, in, out)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(ctx, req, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp, token != "")
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode %s %s response: %w", ErrTransient, method, path, err)
	}
	return nil
}

// Cancellation is returned as is; anything else on the wire is transient.
func transportError(ctx context.Context, req *http.Request, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %s %s: %w", ErrTransient, req.Method, req.URL.Path, err)
}

func decodeError(resp *http.Response, authed bool) error {
	var body models.ErrorResponse
	// Non-JSON bodies leave body empty; the status alone still classifies.
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body)
	return newAPIError(resp.StatusCode, body, authed)
}
