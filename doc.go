// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the QuickPoll API server.

QuickPoll is an opinion-polling service: admins build multi-question
campaigns, voters answer once each through a share link, and results
come back as per-option counts with percentages, demographic
cross-tabs, and CSV export.

# Starting the Server

The server reads configuration from a .env file, environment variables,
or CLI flags:

	DATABASE_TYPE=sqlite DATABASE_URL=data/quickpoll.db go run main.go

Or with flags:

	go run main.go -p 8230 -t postgres -d "postgres://..."

# Configuration

Required settings:

  - ADMIN_KEY_SALT (-admin-salt): Secret for admin key HMAC
  - SHARE_SLUG_SALT (-slug-salt): Secret for share slug generation

Optional settings:

  - PORT (-p): Server port (default: 8230)
  - DATABASE_TYPE (-t): "sqlite" or "postgres" (default: sqlite)
  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - BASE_URL (-base-url): Public base for share links

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers plus the submission and statistics logic
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - demographics: The fixed demographic field registry
  - auth: Token generation and validation
  - db: Connection setup and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
