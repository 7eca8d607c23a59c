// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package tally turns raw votes into per-category results.
//
// Everything here is a pure function over slices loaded by the caller; no
// aggregate is cached or stored, so results always reflect the ledger at
// the moment the votes were read.
//
// Ranking is descending by vote count. Ties keep the order candidates were
// passed in (the catalog's ballot order), which makes the winner of a tie,
// including the all-zero case, the first listed candidate.
package tally
