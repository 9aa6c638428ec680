// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token and key generation utilities.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(campaignID, salt)
	err := auth.ValidateAdminKey(campaignID, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's
deterministic, the same campaign ID and salt always produce the same key,
so nothing needs to be stored in the database.

# Voter Tokens

Voter tokens are random 24-byte (192-bit) secrets:

	token, err := auth.GenerateVoterToken()

A token identifies one voting session and is the sole duplicate-vote key.
The server makes no attempt to tie it to a person; clearing it lets a
device vote again, which is the accepted trade-off.

# Share Slugs

Share slugs create URL-friendly identifiers for campaign voting links:

	slug := auth.GenerateShareSlug(campaignID, salt)

Slugs are base62 encoded (alphanumeric only) so they survive QR codes and
chat apps intact.

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters

# IP Hashing

For privacy-preserving voter logs:

	hash := auth.HashIP(ipAddress, salt)

Returns the first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
