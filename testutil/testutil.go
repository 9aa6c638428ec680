// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/quickpoll/auth"
	"github.com/danielhkuo/quickpoll/cliparse"
	"github.com/danielhkuo/quickpoll/db"
)

// SetupTestDB opens a fresh SQLite database in a per-test temp dir with
// the full schema applied. The file vanishes with the test's tempdir.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbc, err := db.Open(db.TypeSQLite, filepath.Join(t.TempDir(), "quickpoll_test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { dbc.Close() })

	if err := db.CreateSchema(dbc, db.TypeSQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return dbc
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseType:  db.TypeSQLite,
		AdminKeySalt:  "test-admin-salt",
		ShareSlugSalt: "test-slug-salt",
		BaseURL:       "http://localhost:3318",
	}
}

// CreateTestCampaign creates a campaign and returns its ID, admin key,
// and share slug. demographicsConfig may be nil for none collected.
func CreateTestCampaign(t *testing.T, dbc *sql.DB, cfg cliparse.Config, active bool, showResults bool, demographicsConfig map[string]bool) (campaignID, adminKey, shareSlug string) {
	t.Helper()

	campaignID, _ = auth.GenerateID(16)
	adminKey = auth.GenerateAdminKey(campaignID, cfg.AdminKeySalt)
	shareSlug = auth.GenerateShareSlug(campaignID, cfg.ShareSlugSalt)

	if demographicsConfig == nil {
		demographicsConfig = map[string]bool{}
	}
	configJSON, _ := json.Marshal(demographicsConfig)

	isActive := 0
	if active {
		isActive = 1
	}
	show := 0
	if showResults {
		show = 1
	}

	_, err := dbc.Exec(`
		INSERT INTO campaign (id, title, description, demographics_config, show_results, is_active, share_slug, created_at)
		VALUES ($1, 'Test Campaign', 'A test campaign', $2, $3, $4, $5, $6)
	`, campaignID, string(configJSON), show, isActive, shareSlug, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test campaign: %v", err)
	}

	return campaignID, adminKey, shareSlug
}

// AddTestQuestion adds a question with the given option texts and
// returns the question ID plus the option IDs in order.
func AddTestQuestion(t *testing.T, dbc *sql.DB, campaignID, text, qType string, maxSelections int, optionTexts ...string) (string, []string) {
	t.Helper()

	questionID, _ := auth.GenerateID(12)

	var orderIndex int
	if err := dbc.QueryRow("SELECT COUNT(*) FROM question WHERE campaign_id = $1", campaignID).Scan(&orderIndex); err != nil {
		t.Fatalf("Failed to count questions: %v", err)
	}

	_, err := dbc.Exec(`
		INSERT INTO question (id, campaign_id, question_text, question_type, max_selections, order_index)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, questionID, campaignID, text, qType, maxSelections, orderIndex)
	if err != nil {
		t.Fatalf("Failed to create test question: %v", err)
	}

	optionIDs := make([]string, 0, len(optionTexts))
	for i, optText := range optionTexts {
		optionID, _ := auth.GenerateID(12)
		_, err := dbc.Exec(`
			INSERT INTO option (id, question_id, option_text, order_index)
			VALUES ($1, $2, $3, $4)
		`, optionID, questionID, optText, i)
		if err != nil {
			t.Fatalf("Failed to create test option: %v", err)
		}
		optionIDs = append(optionIDs, optionID)
	}

	return questionID, optionIDs
}

// SubmitTestResponse inserts a response with its details directly,
// bypassing validation. Returns the response ID.
func SubmitTestResponse(t *testing.T, dbc *sql.DB, campaignID, voterToken string, demographics map[string]string, answers map[string][]string) string {
	t.Helper()

	responseID, _ := auth.GenerateID(16)
	if demographics == nil {
		demographics = map[string]string{}
	}
	demoJSON, _ := json.Marshal(demographics)

	_, err := dbc.Exec(`
		INSERT INTO response (id, campaign_id, demographics, voter_token, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
	`, responseID, campaignID, string(demoJSON), voterToken, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test response: %v", err)
	}

	for questionID, optionIDs := range answers {
		for _, optionID := range optionIDs {
			detailID, _ := auth.GenerateID(12)
			_, err := dbc.Exec(`
				INSERT INTO response_detail (id, response_id, question_id, option_id)
				VALUES ($1, $2, $3, $4)
			`, detailID, responseID, questionID, optionID)
			if err != nil {
				t.Fatalf("Failed to create test response detail: %v", err)
			}
		}
	}

	return responseID
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
