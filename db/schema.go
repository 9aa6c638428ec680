// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, databaseType string) error {
	var schema string
	switch databaseType {
	case TypeSQLite:
		schema = schemaSQLite
	case TypePostgres:
		schema = schemaPostgres
	default:
		return fmt.Errorf("unsupported database type %q", databaseType)
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Boolean columns are INTEGER 0/1 in both dialects so that scan code is
// identical across drivers.

const schemaSQLite = `
-- Campaigns
CREATE TABLE IF NOT EXISTS campaign (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    demographics_config TEXT NOT NULL DEFAULT '{}',
    show_results INTEGER NOT NULL DEFAULT 0,
    is_active INTEGER NOT NULL DEFAULT 1,
    share_slug TEXT UNIQUE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_campaign_share_slug ON campaign(share_slug);

-- Questions
CREATE TABLE IF NOT EXISTS question (
    id TEXT PRIMARY KEY,
    campaign_id TEXT NOT NULL REFERENCES campaign(id) ON DELETE CASCADE,
    question_text TEXT NOT NULL,
    question_type TEXT NOT NULL DEFAULT 'single' CHECK (question_type IN ('single', 'multi')),
    max_selections INTEGER NOT NULL DEFAULT 1 CHECK (max_selections >= 1),
    order_index INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_question_campaign_id ON question(campaign_id);

-- Options
CREATE TABLE IF NOT EXISTS option (
    id TEXT PRIMARY KEY,
    question_id TEXT NOT NULL REFERENCES question(id) ON DELETE CASCADE,
    option_text TEXT NOT NULL,
    image_url TEXT,
    bg_color TEXT,
    order_index INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_option_question_id ON option(question_id);

-- Responses
CREATE TABLE IF NOT EXISTS response (
    id TEXT PRIMARY KEY,
    campaign_id TEXT NOT NULL REFERENCES campaign(id) ON DELETE CASCADE,
    demographics TEXT NOT NULL DEFAULT '{}',
    voter_token TEXT NOT NULL,
    ip_hash TEXT,
    user_agent TEXT,
    submitted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (campaign_id, voter_token)
);

CREATE INDEX IF NOT EXISTS idx_response_campaign_id ON response(campaign_id);

-- Response Details
CREATE TABLE IF NOT EXISTS response_detail (
    id TEXT PRIMARY KEY,
    response_id TEXT NOT NULL REFERENCES response(id) ON DELETE CASCADE,
    question_id TEXT NOT NULL REFERENCES question(id) ON DELETE CASCADE,
    option_id TEXT NOT NULL REFERENCES option(id) ON DELETE CASCADE,
    UNIQUE (response_id, option_id)
);

CREATE INDEX IF NOT EXISTS idx_response_detail_response_id ON response_detail(response_id);
CREATE INDEX IF NOT EXISTS idx_response_detail_option_id ON response_detail(option_id);
`

const schemaPostgres = `
-- Campaigns
CREATE TABLE IF NOT EXISTS campaign (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    demographics_config TEXT NOT NULL DEFAULT '{}',
    show_results INTEGER NOT NULL DEFAULT 0,
    is_active INTEGER NOT NULL DEFAULT 1,
    share_slug TEXT UNIQUE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_campaign_share_slug ON campaign(share_slug);

-- Questions
CREATE TABLE IF NOT EXISTS question (
    id TEXT PRIMARY KEY,
    campaign_id TEXT NOT NULL REFERENCES campaign(id) ON DELETE CASCADE,
    question_text TEXT NOT NULL,
    question_type TEXT NOT NULL DEFAULT 'single' CHECK (question_type IN ('single', 'multi')),
    max_selections INTEGER NOT NULL DEFAULT 1 CHECK (max_selections >= 1),
    order_index INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_question_campaign_id ON question(campaign_id);

-- Options
CREATE TABLE IF NOT EXISTS option (
    id TEXT PRIMARY KEY,
    question_id TEXT NOT NULL REFERENCES question(id) ON DELETE CASCADE,
    option_text TEXT NOT NULL,
    image_url TEXT,
    bg_color TEXT,
    order_index INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_option_question_id ON option(question_id);

-- Responses
CREATE TABLE IF NOT EXISTS response (
    id TEXT PRIMARY KEY,
    campaign_id TEXT NOT NULL REFERENCES campaign(id) ON DELETE CASCADE,
    demographics TEXT NOT NULL DEFAULT '{}',
    voter_token TEXT NOT NULL,
    ip_hash TEXT,
    user_agent TEXT,
    submitted_at TIMESTAMP NOT NULL DEFAULT NOW(),
    UNIQUE (campaign_id, voter_token)
);

CREATE INDEX IF NOT EXISTS idx_response_campaign_id ON response(campaign_id);

-- Response Details
CREATE TABLE IF NOT EXISTS response_detail (
    id TEXT PRIMARY KEY,
    response_id TEXT NOT NULL REFERENCES response(id) ON DELETE CASCADE,
    question_id TEXT NOT NULL REFERENCES question(id) ON DELETE CASCADE,
    option_id TEXT NOT NULL REFERENCES option(id) ON DELETE CASCADE,
    UNIQUE (response_id, option_id)
);

CREATE INDEX IF NOT EXISTS idx_response_detail_response_id ON response_detail(response_id);
CREATE INDEX IF NOT EXISTS idx_response_detail_option_id ON response_detail(option_id);
`
