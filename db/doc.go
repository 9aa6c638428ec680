// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles store connection and schema creation.

# Drivers

Two backends are supported, selected by DATABASE_TYPE:

  - sqlite (default): embedded store via modernc.org/sqlite; DATABASE_URL
    is a file path. Foreign keys are enabled and the pool is capped at one
    connection.
  - postgres: github.com/lib/pq; DATABASE_URL is a connection string.

Both are opened with:

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

# Schema Creation

CreateSchema initializes all required tables for the chosen dialect:

	if err := db.CreateSchema(conn, cfg.DatabaseType); err != nil {
		// ...
	}

Safe to call multiple times - uses IF NOT EXISTS for tables and indexes.

# Tables

  - campaign: campaign metadata, demographics config, active flag
  - question: questions per campaign (single/multi, max_selections)
  - option: options per question, optionally decorated
  - response: one response per (campaign, voter token)
  - response_detail: one row per selected option per response

# Relationships

	campaign 1──* question
	question 1──* option
	campaign 1──* response
	response 1──* response_detail

All foreign keys use ON DELETE CASCADE.

# Constraints

UNIQUE (campaign_id, voter_token) on response is the anti-double-vote
guarantee. Duplicate submissions are rejected by the store itself, not by
a read-then-insert check, so the guarantee holds under concurrent
submissions. IsUniqueViolation classifies the resulting driver error.
*/
package db
