// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides password hashing and session token utilities.

# Passwords

Passwords are stored as bcrypt hashes:

	hash, err := auth.HashPassword("secret")
	err = auth.CheckPassword(hash, "secret")

CheckPassword returns ErrInvalidPassword on mismatch and never says why.

# Session Tokens

A login issues an HS256 JWT carrying the user's id (sub), username,
display name and role:

	token, err := auth.IssueToken(user, cfg.SessionSecret, cfg.SessionTTL)
	user, err := auth.ParseToken(token, cfg.SessionSecret)

ParseToken rejects tokens with another signing method, another issuer,
a bad signature, or a missing or past expiry. All of these surface as
ErrInvalidToken.
*/
package auth
