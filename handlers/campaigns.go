// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/quickpoll/auth"
	"github.com/danielhkuo/quickpoll/cliparse"
	"github.com/danielhkuo/quickpoll/demographics"
	"github.com/danielhkuo/quickpoll/middleware"
	"github.com/danielhkuo/quickpoll/models"
)

type CampaignHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewCampaignHandler(db *sql.DB, cfg cliparse.Config) *CampaignHandler {
	return &CampaignHandler{db: db, cfg: cfg}
}

// CreateCampaign handles POST /campaigns
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCampaignRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}

	config := demographics.DefaultConfig()
	if req.DemographicsConfig != nil {
		for field := range req.DemographicsConfig {
			if !demographics.IsField(field) {
				middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("unknown demographic field %q", field))
				return
			}
		}
		config = req.DemographicsConfig
	}
	configJSON, err := json.Marshal(config)
	if err != nil {
		slog.Error("failed to encode demographics config", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create campaign")
		return
	}

	campaignID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate campaign ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create campaign")
		return
	}

	adminKey := auth.GenerateAdminKey(campaignID, h.cfg.AdminKeySalt)
	shareSlug := auth.GenerateShareSlug(campaignID, h.cfg.ShareSlugSalt)

	showResults := 0
	if req.ShowResults {
		showResults = 1
	}

	_, err = h.db.Exec(`
		INSERT INTO campaign (id, title, description, demographics_config, show_results, is_active, share_slug, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, campaignID, req.Title, req.Description, string(configJSON), showResults, 1, shareSlug, time.Now())

	if err != nil {
		slog.Error("failed to insert campaign", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create campaign")
		return
	}

	slog.Info("campaign created", "campaign_id", campaignID, "share_slug", shareSlug)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateCampaignResponse{
		CampaignID: campaignID,
		AdminKey:   adminKey,
		ShareSlug:  shareSlug,
		ShareURL:   h.cfg.BaseURL + "/polls/" + shareSlug,
	})
}

// GetCampaignAdmin handles GET /campaigns/:id
func (h *CampaignHandler) GetCampaignAdmin(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	campaign, err := loadCampaign(h.db, campaignID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Campaign not found")
		return
	}
	if err != nil {
		slog.Error("failed to query campaign", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	questions, err := loadQuestions(h.db, campaignID)
	if err != nil {
		slog.Error("failed to query questions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var responseCount int
	err = h.db.QueryRow(`
		SELECT COUNT(*) FROM response WHERE campaign_id = $1
	`, campaignID).Scan(&responseCount)
	if err != nil {
		slog.Error("failed to count responses", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CampaignAdminView{
		Campaign:      campaign,
		Questions:     questions,
		ResponseCount: responseCount,
	})
}

// UpdateCampaign handles PUT /campaigns/:id
func (h *CampaignHandler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req models.UpdateCampaignRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	campaign, err := loadCampaign(h.db, campaignID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Campaign not found")
		return
	}
	if err != nil {
		slog.Error("failed to query campaign", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if req.Title != nil {
		if *req.Title == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, "title cannot be empty")
			return
		}
		campaign.Title = *req.Title
	}
	if req.Description != nil {
		campaign.Description = *req.Description
	}
	if req.ShowResults != nil {
		campaign.ShowResults = *req.ShowResults
	}
	if req.DemographicsConfig != nil {
		for field := range req.DemographicsConfig {
			if !demographics.IsField(field) {
				middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("unknown demographic field %q", field))
				return
			}
		}
		campaign.DemographicsConfig = req.DemographicsConfig
	}

	configJSON, err := json.Marshal(campaign.DemographicsConfig)
	if err != nil {
		slog.Error("failed to encode demographics config", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update campaign")
		return
	}

	showResults := 0
	if campaign.ShowResults {
		showResults = 1
	}

	_, err = h.db.Exec(`
		UPDATE campaign
		SET title = $1, description = $2, demographics_config = $3, show_results = $4
		WHERE id = $5
	`, campaign.Title, campaign.Description, string(configJSON), showResults, campaignID)

	if err != nil {
		slog.Error("failed to update campaign", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update campaign")
		return
	}

	slog.Info("campaign updated", "campaign_id", campaignID)

	middleware.JSONResponse(w, http.StatusOK, campaign)
}

// ToggleCampaign handles POST /campaigns/:id/toggle
func (h *CampaignHandler) ToggleCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var isActive int
	err := h.db.QueryRow("SELECT is_active FROM campaign WHERE id = $1", campaignID).Scan(&isActive)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Campaign not found")
		return
	}
	if err != nil {
		slog.Error("failed to query campaign", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	newState := 1 - isActive
	_, err = h.db.Exec("UPDATE campaign SET is_active = $1 WHERE id = $2", newState, campaignID)
	if err != nil {
		slog.Error("failed to toggle campaign", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to toggle campaign")
		return
	}

	slog.Info("campaign toggled", "campaign_id", campaignID, "is_active", newState == 1)

	middleware.JSONResponse(w, http.StatusOK, models.ToggleCampaignResponse{
		CampaignID: campaignID,
		IsActive:   newState == 1,
	})
}

// DeleteCampaign handles DELETE /campaigns/:id
func (h *CampaignHandler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	result, err := h.db.Exec("DELETE FROM campaign WHERE id = $1", campaignID)
	if err != nil {
		slog.Error("failed to delete campaign", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete campaign")
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Campaign not found")
		return
	}

	slog.Info("campaign deleted", "campaign_id", campaignID)

	w.WriteHeader(http.StatusNoContent)
}

// ResetResponses handles POST /campaigns/:id/reset
// Deletes every response and detail for the campaign; the campaign and
// its questions survive.
func (h *CampaignHandler) ResetResponses(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var exists int
	err := h.db.QueryRow("SELECT 1 FROM campaign WHERE id = $1", campaignID).Scan(&exists)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Campaign not found")
		return
	}
	if err != nil {
		slog.Error("failed to query campaign", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		DELETE FROM response_detail
		WHERE response_id IN (SELECT id FROM response WHERE campaign_id = $1)
	`, campaignID)
	if err != nil {
		slog.Error("failed to delete response details", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reset responses")
		return
	}

	result, err := tx.Exec("DELETE FROM response WHERE campaign_id = $1", campaignID)
	if err != nil {
		slog.Error("failed to delete responses", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reset responses")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reset responses")
		return
	}

	deleted, _ := result.RowsAffected()
	slog.Info("responses reset", "campaign_id", campaignID, "deleted", deleted)

	middleware.JSONResponse(w, http.StatusOK, models.ResponseCountResponse{
		CampaignID:    campaignID,
		ResponseCount: 0,
	})
}

// authorize extracts the campaign ID from the path and checks the
// X-Admin-Key header. On failure it writes the error response itself.
func (h *CampaignHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	campaignID := r.PathValue("id")
	if campaignID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "campaign_id is required")
		return "", false
	}

	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(campaignID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return "", false
	}
	return campaignID, true
}

// loadCampaign fetches one campaign row into the domain type.
func loadCampaign(dbc *sql.DB, campaignID string) (models.Campaign, error) {
	var campaign models.Campaign
	var configJSON string
	var showResults, isActive int

	err := dbc.QueryRow(`
		SELECT id, title, description, demographics_config, show_results, is_active, share_slug, created_at
		FROM campaign
		WHERE id = $1
	`, campaignID).Scan(
		&campaign.ID, &campaign.Title, &campaign.Description, &configJSON,
		&showResults, &isActive, &campaign.ShareSlug, &campaign.CreatedAt,
	)
	if err != nil {
		return campaign, err
	}

	campaign.ShowResults = showResults == 1
	campaign.IsActive = isActive == 1
	campaign.DemographicsConfig = map[string]bool{}
	if configJSON != "" {
		if err := json.Unmarshal([]byte(configJSON), &campaign.DemographicsConfig); err != nil {
			return campaign, fmt.Errorf("failed to parse demographics config: %w", err)
		}
	}
	return campaign, nil
}

// loadCampaignBySlug resolves a public share slug to the campaign.
func loadCampaignBySlug(dbc *sql.DB, slug string) (models.Campaign, error) {
	var campaignID string
	err := dbc.QueryRow("SELECT id FROM campaign WHERE share_slug = $1", slug).Scan(&campaignID)
	if err != nil {
		return models.Campaign{}, err
	}
	return loadCampaign(dbc, campaignID)
}

// loadQuestions fetches the campaign's questions with their options, in
// display order.
func loadQuestions(dbc *sql.DB, campaignID string) ([]models.Question, error) {
	rows, err := dbc.Query(`
		SELECT id, campaign_id, question_text, question_type, max_selections, order_index
		FROM question
		WHERE campaign_id = $1
		ORDER BY order_index
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	index := map[string]int{}
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.CampaignID, &q.Text, &q.Type, &q.MaxSelections, &q.OrderIndex); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		q.Options = []models.Option{}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	optRows, err := dbc.Query(`
		SELECT o.id, o.question_id, o.option_text, o.image_url, o.bg_color, o.order_index
		FROM option o
		JOIN question q ON o.question_id = q.id
		WHERE q.campaign_id = $1
		ORDER BY o.order_index
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer optRows.Close()

	for optRows.Next() {
		var opt models.Option
		if err := optRows.Scan(&opt.ID, &opt.QuestionID, &opt.Text, &opt.ImageURL, &opt.BgColor, &opt.OrderIndex); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		if i, ok := index[opt.QuestionID]; ok {
			questions[i].Options = append(questions[i].Options, opt)
		}
	}
	return questions, optRows.Err()
}
