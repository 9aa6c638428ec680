// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidAdminKey = errors.New("invalid admin key")

// GenerateID creates a random hex ID of the specified byte length.
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateAdminKey derives the HMAC admin key for a campaign. The key is
// deterministic given the salt, so it never needs to be stored.
func GenerateAdminKey(campaignID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(campaignID))
	return strings.TrimRight(base64.URLEncoding.EncodeToString(h.Sum(nil)), "=")
}

// ValidateAdminKey checks the provided admin key against the campaign's
// derived key in constant time.
func ValidateAdminKey(campaignID, adminKey, salt string) error {
	expected := GenerateAdminKey(campaignID, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// GenerateVoterToken creates a random opaque token identifying one voting
// session. The token is the sole duplicate-vote key; a client that
// discards it can vote again, which is the accepted anti-spam posture.
func GenerateVoterToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate voter token: %w", err)
	}
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// GenerateShareSlug derives a short URL slug for a campaign's public
// voting link. HMAC keeps it deterministic, base62 keeps it QR-friendly.
func GenerateShareSlug(campaignID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(campaignID))
	return base62Encode(h.Sum(nil)[:8])
}

// HashIP produces a salted one-way hash of an IP address. Responses store
// only the hash; 64 bits is plenty for abuse triage.
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	return hex.EncodeToString(h.Sum(nil)[:8])
}

const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// base62Encode folds up to 8 bytes into an alphanumeric string.
func base62Encode(data []byte) string {
	var num uint64
	for i := 0; i < len(data) && i < 8; i++ {
		num = num<<8 | uint64(data[i])
	}
	if num == 0 {
		return "0"
	}

	result := make([]byte, 0, 11)
	for num > 0 {
		result = append(result, base62Chars[num%62])
		num /= 62
	}
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return string(result)
}
