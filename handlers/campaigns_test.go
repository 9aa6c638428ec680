// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

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
	"github.com/danielhkuo/quickpoll/models"
)

// setupTestDB creates a throwaway SQLite database for testing
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbc, err := db.Open(db.TypeSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.CreateSchema(dbc, db.TypeSQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return dbc
}

func getTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          8080,
		DatabaseType:  db.TypeSQLite,
		AdminKeySalt:  "test-admin-salt",
		ShareSlugSalt: "test-slug-salt",
		BaseURL:       "http://localhost:8080",
	}
}

// createCampaign inserts a campaign row directly and returns id, admin
// key, and slug.
func createCampaign(t *testing.T, dbc *sql.DB, cfg cliparse.Config, active, showResults bool, config map[string]bool) (string, string, string) {
	t.Helper()

	campaignID, _ := auth.GenerateID(16)
	adminKey := auth.GenerateAdminKey(campaignID, cfg.AdminKeySalt)
	shareSlug := auth.GenerateShareSlug(campaignID, cfg.ShareSlugSalt)

	if config == nil {
		config = map[string]bool{}
	}
	configJSON, _ := json.Marshal(config)

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

// addQuestion inserts a question with options directly and returns the
// question ID plus option IDs in order.
func addQuestion(t *testing.T, dbc *sql.DB, campaignID, text, qType string, maxSelections int, optionTexts ...string) (string, []string) {
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

	var optionIDs []string
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

// insertResponse writes a response with details directly, bypassing
// validation.
func insertResponse(t *testing.T, dbc *sql.DB, campaignID, voterToken string, demo map[string]string, answers map[string][]string) string {
	t.Helper()

	responseID, _ := auth.GenerateID(16)
	if demo == nil {
		demo = map[string]string{}
	}
	demoJSON, _ := json.Marshal(demo)

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

func TestCreateCampaign(t *testing.T) {
	dbc := setupTestDB(t)
	defer dbc.Close()

	cfg := getTestConfig()
	handler := NewCampaignHandler(dbc, cfg)

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		checkResponse  func(t *testing.T, resp *models.CreateCampaignResponse)
	}{
		{
			name: "valid campaign creation",
			requestBody: models.CreateCampaignRequest{
				Title:       "Election 2026",
				Description: "Who do you support?",
				ShowResults: true,
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *models.CreateCampaignResponse) {
				if resp.CampaignID == "" {
					t.Error("Expected non-empty campaign_id")
				}
				if resp.AdminKey == "" {
					t.Error("Expected non-empty admin_key")
				}
				if resp.ShareSlug == "" {
					t.Error("Expected non-empty share_slug")
				}
				if resp.ShareURL != cfg.BaseURL+"/polls/"+resp.ShareSlug {
					t.Errorf("Unexpected share_url: %s", resp.ShareURL)
				}

				// New campaigns default to active with all demographics enabled
				var isActive int
				var configJSON string
				err := dbc.QueryRow(`
					SELECT is_active, demographics_config FROM campaign WHERE id = $1
				`, resp.CampaignID).Scan(&isActive, &configJSON)
				if err != nil {
					t.Fatalf("Failed to query campaign: %v", err)
				}
				if isActive != 1 {
					t.Error("Expected new campaign to be active")
				}
				config := map[string]bool{}
				json.Unmarshal([]byte(configJSON), &config)
				if !config["age_group"] || !config["region"] {
					t.Errorf("Expected default config to enable all fields, got %v", config)
				}
			},
		},
		{
			name: "custom demographics config",
			requestBody: models.CreateCampaignRequest{
				Title:              "Quick Survey",
				DemographicsConfig: map[string]bool{"age_group": true, "region": false},
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *models.CreateCampaignResponse) {
				var configJSON string
				err := dbc.QueryRow(`
					SELECT demographics_config FROM campaign WHERE id = $1
				`, resp.CampaignID).Scan(&configJSON)
				if err != nil {
					t.Fatalf("Failed to query campaign: %v", err)
				}
				config := map[string]bool{}
				json.Unmarshal([]byte(configJSON), &config)
				if !config["age_group"] || config["region"] {
					t.Errorf("Config not persisted as sent: %v", config)
				}
			},
		},
		{
			name:           "missing title",
			requestBody:    models.CreateCampaignRequest{Description: "no title"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown demographic field in config",
			requestBody: models.CreateCampaignRequest{
				Title:              "Bad Config",
				DemographicsConfig: map[string]bool{"shoe_size": true},
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest("POST", "/campaigns", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreateCampaign(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.checkResponse != nil && w.Code == http.StatusCreated {
				var resp models.CreateCampaignResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				tt.checkResponse(t, &resp)
			}
		})
	}
}

func TestGetCampaignAdmin(t *testing.T) {
	dbc := setupTestDB(t)
	defer dbc.Close()

	cfg := getTestConfig()
	handler := NewCampaignHandler(dbc, cfg)

	campaignID, adminKey, _ := createCampaign(t, dbc, cfg, true, false, map[string]bool{"age_group": true})
	questionID, optionIDs := addQuestion(t, dbc, campaignID, "Favorite color?", models.TypeSingle, 1, "Red", "Blue")
	insertResponse(t, dbc, campaignID, "voter-1", nil, map[string][]string{questionID: {optionIDs[0]}})

	t.Run("valid admin view", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/campaigns/"+campaignID, nil)
		req.SetPathValue("id", campaignID)
		req.Header.Set("X-Admin-Key", adminKey)
		w := httptest.NewRecorder()

		handler.GetCampaignAdmin(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d. Body: %s", w.Code, w.Body.String())
		}

		var view models.CampaignAdminView
		if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if view.Campaign.ID != campaignID {
			t.Errorf("Expected campaign %s, got %s", campaignID, view.Campaign.ID)
		}
		if len(view.Questions) != 1 {
			t.Fatalf("Expected 1 question, got %d", len(view.Questions))
		}
		if len(view.Questions[0].Options) != 2 {
			t.Errorf("Expected 2 options, got %d", len(view.Questions[0].Options))
		}
		if view.ResponseCount != 1 {
			t.Errorf("Expected response_count 1, got %d", view.ResponseCount)
		}
	})

	t.Run("invalid admin key", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/campaigns/"+campaignID, nil)
		req.SetPathValue("id", campaignID)
		req.Header.Set("X-Admin-Key", "wrong-key")
		w := httptest.NewRecorder()

		handler.GetCampaignAdmin(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", w.Code)
		}
	})

	t.Run("campaign not found", func(t *testing.T) {
		missingID := "does-not-exist-0000"
		req := httptest.NewRequest("GET", "/campaigns/"+missingID, nil)
		req.SetPathValue("id", missingID)
		req.Header.Set("X-Admin-Key", auth.GenerateAdminKey(missingID, cfg.AdminKeySalt))
		w := httptest.NewRecorder()

		handler.GetCampaignAdmin(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})
}

func TestUpdateCampaign(t *testing.T) {
	dbc := setupTestDB(t)
	defer dbc.Close()

	cfg := getTestConfig()
	handler := NewCampaignHandler(dbc, cfg)

	campaignID, adminKey, _ := createCampaign(t, dbc, cfg, true, false, map[string]bool{"age_group": true})

	t.Run("partial update leaves other fields alone", func(t *testing.T) {
		newTitle := "Renamed Campaign"
		show := true
		body, _ := json.Marshal(models.UpdateCampaignRequest{Title: &newTitle, ShowResults: &show})

		req := httptest.NewRequest("PUT", "/campaigns/"+campaignID, bytes.NewReader(body))
		req.SetPathValue("id", campaignID)
		req.Header.Set("X-Admin-Key", adminKey)
		w := httptest.NewRecorder()

		handler.UpdateCampaign(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d. Body: %s", w.Code, w.Body.String())
		}

		var title, description string
		var showResults int
		err := dbc.QueryRow(`
			SELECT title, description, show_results FROM campaign WHERE id = $1
		`, campaignID).Scan(&title, &description, &showResults)
		if err != nil {
			t.Fatalf("Failed to query campaign: %v", err)
		}
		if title != newTitle {
			t.Errorf("Expected title %q, got %q", newTitle, title)
		}
		if description != "A test campaign" {
			t.Errorf("Description should be untouched, got %q", description)
		}
		if showResults != 1 {
			t.Error("Expected show_results enabled")
		}
	})

	t.Run("empty title rejected", func(t *testing.T) {
		empty := ""
		body, _ := json.Marshal(models.UpdateCampaignRequest{Title: &empty})

		req := httptest.NewRequest("PUT", "/campaigns/"+campaignID, bytes.NewReader(body))
		req.SetPathValue("id", campaignID)
		req.Header.Set("X-Admin-Key", adminKey)
		w := httptest.NewRecorder()

		handler.UpdateCampaign(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("unknown field in config rejected", func(t *testing.T) {
		body, _ := json.Marshal(models.UpdateCampaignRequest{
			DemographicsConfig: map[string]bool{"star_sign": true},
		})

		req := httptest.NewRequest("PUT", "/campaigns/"+campaignID, bytes.NewReader(body))
		req.SetPathValue("id", campaignID)
		req.Header.Set("X-Admin-Key", adminKey)
		w := httptest.NewRecorder()

		handler.UpdateCampaign(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}

func TestToggleCampaign(t *testing.T) {
	dbc := setupTestDB(t)
	defer dbc.Close()

	cfg := getTestConfig()
	handler := NewCampaignHandler(dbc, cfg)

	campaignID, adminKey, _ := createCampaign(t, dbc, cfg, true, false, nil)

	toggle := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/campaigns/"+campaignID+"/toggle", nil)
		req.SetPathValue("id", campaignID)
		req.Header.Set("X-Admin-Key", adminKey)
		w := httptest.NewRecorder()
		handler.ToggleCampaign(w, req)
		return w
	}

	w := toggle()
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d. Body: %s", w.Code, w.Body.String())
	}
	var resp models.ToggleCampaignResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.IsActive {
		t.Error("Expected campaign to be inactive after first toggle")
	}

	w = toggle()
	json.NewDecoder(w.Body).Decode(&resp)
	if !resp.IsActive {
		t.Error("Expected campaign to be active after second toggle")
	}
}

func TestDeleteCampaign(t *testing.T) {
	dbc := setupTestDB(t)
	defer dbc.Close()

	cfg := getTestConfig()
	handler := NewCampaignHandler(dbc, cfg)

	campaignID, adminKey, _ := createCampaign(t, dbc, cfg, true, false, nil)
	questionID, optionIDs := addQuestion(t, dbc, campaignID, "Q1", models.TypeSingle, 1, "A", "B")
	insertResponse(t, dbc, campaignID, "voter-1", nil, map[string][]string{questionID: {optionIDs[0]}})

	req := httptest.NewRequest("DELETE", "/campaigns/"+campaignID, nil)
	req.SetPathValue("id", campaignID)
	req.Header.Set("X-Admin-Key", adminKey)
	w := httptest.NewRecorder()

	handler.DeleteCampaign(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d. Body: %s", w.Code, w.Body.String())
	}

	// Cascade should take questions, options, responses, and details
	for _, table := range []string{"campaign", "question", "response"} {
		var count int
		if err := dbc.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Fatalf("Failed to count %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("Expected 0 rows in %s after delete, got %d", table, count)
		}
	}
}

func TestResetResponses(t *testing.T) {
	dbc := setupTestDB(t)
	defer dbc.Close()

	cfg := getTestConfig()
	handler := NewCampaignHandler(dbc, cfg)

	campaignID, adminKey, _ := createCampaign(t, dbc, cfg, true, false, nil)
	questionID, optionIDs := addQuestion(t, dbc, campaignID, "Q1", models.TypeSingle, 1, "A", "B")
	insertResponse(t, dbc, campaignID, "voter-1", nil, map[string][]string{questionID: {optionIDs[0]}})
	insertResponse(t, dbc, campaignID, "voter-2", nil, map[string][]string{questionID: {optionIDs[1]}})

	// Second campaign's data must survive the reset
	otherID, _, _ := createCampaign(t, dbc, cfg, true, false, nil)
	otherQ, otherOpts := addQuestion(t, dbc, otherID, "Q1", models.TypeSingle, 1, "A", "B")
	insertResponse(t, dbc, otherID, "voter-1", nil, map[string][]string{otherQ: {otherOpts[0]}})

	req := httptest.NewRequest("POST", "/campaigns/"+campaignID+"/reset", nil)
	req.SetPathValue("id", campaignID)
	req.Header.Set("X-Admin-Key", adminKey)
	w := httptest.NewRecorder()

	handler.ResetResponses(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d. Body: %s", w.Code, w.Body.String())
	}

	var count int
	if err := dbc.QueryRow("SELECT COUNT(*) FROM response WHERE campaign_id = $1", campaignID).Scan(&count); err != nil {
		t.Fatalf("Failed to count responses: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 responses after reset, got %d", count)
	}

	// Questions survive
	if err := dbc.QueryRow("SELECT COUNT(*) FROM question WHERE campaign_id = $1", campaignID).Scan(&count); err != nil {
		t.Fatalf("Failed to count questions: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected questions to survive reset, got %d", count)
	}

	// Other campaign untouched
	if err := dbc.QueryRow("SELECT COUNT(*) FROM response WHERE campaign_id = $1", otherID).Scan(&count); err != nil {
		t.Fatalf("Failed to count responses: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected other campaign's response to survive, got %d", count)
	}
}
