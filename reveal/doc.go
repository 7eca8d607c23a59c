// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package reveal decides when results become visible to students.
//
// A Gate is a small state machine:
//
//	Uninitialized --Init/Load--> CountingDown --Tick (remaining hits 0)--> Open
//	Uninitialized --Init/Load (already due)--> Open
//
// The gate is anchored to one server-time sample taken at Init and then
// advances its own estimate of "now" by exactly one second per Tick, so it
// never depends on the local clock. Open is terminal. A reveal time changed
// by an admin after a gate opened does not close it again; a new gate is
// needed to observe the new value.
//
// Store persists the single reveal setting row. It also serves as the gate
// Source on the server, where "server now" is simply the server clock.
package reveal
