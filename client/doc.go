// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package client is a Go SDK for the yearbook-vote API.

It holds the client half of the voting protocol: the cached session, the
ledger calls, the own-vote feed and the reveal gate.

# Sessions

A Client owns an explicit session. Login stores {token, user} in a
SessionStore under SessionKey; New restores it so a restarted process stays
logged in. Logout clears the store and disposes every live subscription
the client opened.

	c, err := client.New("http://localhost:3318", client.NewFileSessionStore(path))
	if err != nil {
		return err
	}
	user, err := c.Login(ctx, "ana", "secret")

# Voting

SubmitVote checks HasVoted first and then posts the vote. A lost race is
reported by the server as 409 and comes back as ErrAlreadyVoted, the same
as a failed pre-check:

	vote, err := c.SubmitVote(ctx, "smile", "s1")
	switch {
	case errors.Is(err, client.ErrAlreadyVoted):
		// show the already-voted view
	case errors.Is(err, client.ErrTransient):
		// safe to retry
	}

# Live Feed

SubscribeOwnVotes streams the caller's own votes over Server-Sent Events
and returns a dispose func. VotedSet combines the stream with /me/votes.

# Reveal

RevealGate builds a reveal.Gate anchored at the server's clock. AwaitSummary
runs the gate and requests /summary only after it opens:

	gate, err := c.RevealGate(ctx)
	if err != nil {
		return err
	}
	summary, err := c.AwaitSummary(ctx, gate, reveal.NewTicker())

# Errors

Non-2xx responses are returned as *APIError, which unwraps to one of the
package sentinels (ErrAuth, ErrSessionExpired, ErrAlreadyVoted, ErrTransient,
ErrInvalidRequest, ErrResultsSealed, ErrNotConfigured, ErrForbidden,
ErrNotFound). ErrAuth is a rejected login; ErrSessionExpired is a 401 on a
call made with a stored session. Network failures unwrap to ErrTransient.
*/
package client
