// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

LoadDotenv pulls a local .env file into the environment (no-op when
absent), then ParseFlags returns a Config struct with all settings:

	cliparse.LoadDotenv()
	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 8230)
  - DatabaseType: sqlite (default) or postgres
  - DatabaseURL: file path (sqlite) or connection string (postgres,
    required)
  - BaseURL: public base URL used when building share links
  - AdminKeySalt: Secret for admin key HMAC (required)
  - ShareSlugSalt: Secret for share slug generation (required)

# CLI Flags

	-p           Server port
	-d           Database URL
	-t           Database type
	-base-url    Public base URL
	-admin-salt  Admin key salt
	-slug-salt   Share slug salt

# Environment Variables

Flags fall back to environment variables:

	PORT            → -p
	DATABASE_URL    → -d
	DATABASE_TYPE   → -t
	BASE_URL        → -base-url
	ADMIN_KEY_SALT  → -admin-salt
	SHARE_SLUG_SALT → -slug-salt

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided when DATABASE_TYPE is postgres
  - ADMIN_KEY_SALT must be provided
  - SHARE_SLUG_SALT must be provided
*/
package cliparse
