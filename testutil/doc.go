// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package testutil provides shared helpers for handler and database
// tests: a throwaway SQLite database, fixture builders, and HTTP
// request/assertion utilities.
package testutil
