// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickpoll/auth"
	"github.com/danielhkuo/quickpoll/cliparse"
	"github.com/danielhkuo/quickpoll/demographics"
	"github.com/danielhkuo/quickpoll/middleware"
	"github.com/danielhkuo/quickpoll/models"
)

type ResultsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg}
}

// GetStatistics handles GET /campaigns/:id/statistics
// Demographic filters arrive as query params named after registry
// fields, e.g. ?age_group=18-24&region=North.
func (h *ResultsHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	if found := h.campaignExists(w, campaignID); !found {
		return
	}

	filters := map[string]string{}
	for _, field := range demographics.Fields() {
		if v := r.URL.Query().Get(field.Key); v != "" {
			filters[field.Key] = v
		}
	}

	stats, err := ComputeStatistics(h.db, campaignID, filters)
	if err != nil {
		slog.Error("failed to compute statistics", "error", err, "campaign_id", campaignID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, stats)
}

// GetBreakdown handles GET /campaigns/:id/breakdown?field=age_group
func (h *ResultsHandler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	if found := h.campaignExists(w, campaignID); !found {
		return
	}

	field := r.URL.Query().Get("field")
	if field == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "field query parameter is required")
		return
	}

	breakdown, err := ComputeBreakdown(h.db, campaignID, field)
	if errors.Is(err, ErrUnknownField) {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to compute breakdown", "error", err, "campaign_id", campaignID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute breakdown")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, breakdown)
}

// ExportCSV handles GET /campaigns/:id/export
func (h *ResultsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	table, err := ExportResponses(h.db, campaignID)
	if errors.Is(err, ErrCampaignNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Campaign not found")
		return
	}
	if err != nil {
		slog.Error("failed to export responses", "error", err, "campaign_id", campaignID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to export responses")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "responses_"+campaignID+".csv"))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	if err := cw.Write(table.Header); err != nil {
		slog.Error("failed to write CSV header", "error", err)
		return
	}
	for _, row := range table.Rows {
		if err := cw.Write(row); err != nil {
			slog.Error("failed to write CSV row", "error", err)
			return
		}
	}
	cw.Flush()
}

// VoterLogs handles GET /campaigns/:id/voters
// Per-response audit trail: hashed IP, user agent, demographics. Voter
// tokens themselves are never returned.
func (h *ResultsHandler) VoterLogs(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	if found := h.campaignExists(w, campaignID); !found {
		return
	}

	rows, err := h.db.Query(`
		SELECT id, ip_hash, user_agent, demographics, submitted_at
		FROM response
		WHERE campaign_id = $1
		ORDER BY submitted_at DESC, id DESC
	`, campaignID)
	if err != nil {
		slog.Error("failed to query responses", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	logs := []models.VoterLog{}
	for rows.Next() {
		var log models.VoterLog
		var raw string
		if err := rows.Scan(&log.ResponseID, &log.IPHash, &log.UserAgent, &raw, &log.SubmittedAt); err != nil {
			slog.Error("failed to scan response", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		log.Demographics = map[string]string{}
		if raw != "" {
			json.Unmarshal([]byte(raw), &log.Demographics)
		}
		logs = append(logs, log)
	}

	middleware.JSONResponse(w, http.StatusOK, logs)
}

// GetResponseCount handles GET /polls/:slug/count
// Public endpoint so a voter page can show participation.
func (h *ResultsHandler) GetResponseCount(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	var campaignID string
	err := h.db.QueryRow("SELECT id FROM campaign WHERE share_slug = $1", slug).Scan(&campaignID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query campaign", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var count int
	err = h.db.QueryRow("SELECT COUNT(*) FROM response WHERE campaign_id = $1", campaignID).Scan(&count)
	if err != nil {
		slog.Error("failed to count responses", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ResponseCountResponse{
		CampaignID:    campaignID,
		ResponseCount: count,
	})
}

// GetPublicResults handles GET /polls/:slug/results
// Only available when the campaign opted in with show_results.
func (h *ResultsHandler) GetPublicResults(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	campaign, err := loadCampaignBySlug(h.db, slug)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query campaign", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !campaign.ShowResults {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are not public for this poll")
		return
	}

	stats, err := ComputeStatistics(h.db, campaign.ID, nil)
	if err != nil {
		slog.Error("failed to compute statistics", "error", err, "campaign_id", campaign.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, stats)
}

func (h *ResultsHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
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

// campaignExists writes a 404 and returns false when the campaign is
// missing.
func (h *ResultsHandler) campaignExists(w http.ResponseWriter, campaignID string) bool {
	var exists int
	err := h.db.QueryRow("SELECT 1 FROM campaign WHERE id = $1", campaignID).Scan(&exists)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Campaign not found")
		return false
	}
	if err != nil {
		slog.Error("failed to query campaign", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false
	}
	return true
}
