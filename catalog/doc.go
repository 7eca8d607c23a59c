// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package catalog lists award categories and their candidates.
//
// The catalog is read-only at runtime. Categories come back in their
// configured position order and candidates in (position, id) order; that
// candidate order is the input order the tally ranking keeps for ties.
//
// Seed data is loaded from a YAML file (see LoadSeedFile) and applied with
// Catalog.Seed, which inserts missing rows and leaves existing ones alone.
package catalog
