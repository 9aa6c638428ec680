// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package handlers contains the HTTP handlers and the core campaign
// logic: vote submission with duplicate rejection, cross-tabulated
// statistics, demographic breakdowns, and CSV export.
package handlers
