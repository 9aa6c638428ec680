// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickpoll/auth"
	"github.com/danielhkuo/quickpoll/cliparse"
	"github.com/danielhkuo/quickpoll/middleware"
	"github.com/danielhkuo/quickpoll/models"
)

type QuestionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewQuestionHandler(db *sql.DB, cfg cliparse.Config) *QuestionHandler {
	return &QuestionHandler{db: db, cfg: cfg}
}

// AddQuestion handles POST /campaigns/:id/questions
func (h *QuestionHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req models.AddQuestionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if msg := validateQuestionInput(req.Text, req.Type, req.MaxSelections, req.Options); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	if locked, err := h.campaignLocked(w, campaignID); err != nil || locked {
		return
	}

	var orderIndex int
	err := h.db.QueryRow(`
		SELECT COUNT(*) FROM question WHERE campaign_id = $1
	`, campaignID).Scan(&orderIndex)
	if err != nil {
		slog.Error("failed to count questions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	questionID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate question ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create question")
		return
	}

	maxSelections := req.MaxSelections
	if req.Type == models.TypeSingle {
		maxSelections = 1
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO question (id, campaign_id, question_text, question_type, max_selections, order_index)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, questionID, campaignID, req.Text, req.Type, maxSelections, orderIndex)

	if err != nil {
		slog.Error("failed to insert question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create question")
		return
	}

	if err := insertOptions(tx, questionID, req.Options); err != nil {
		slog.Error("failed to insert options", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create question")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create question")
		return
	}

	slog.Info("question added", "campaign_id", campaignID, "question_id", questionID)

	middleware.JSONResponse(w, http.StatusCreated, models.AddQuestionResponse{
		QuestionID: questionID,
	})
}

// UpdateQuestion handles PUT /campaigns/:id/questions/:qid
// Replaces the question's text, type, and full option set.
func (h *QuestionHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	questionID := r.PathValue("qid")
	if questionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "question_id is required")
		return
	}

	var req models.UpdateQuestionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if msg := validateQuestionInput(req.Text, req.Type, req.MaxSelections, req.Options); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	if found, err := h.questionExists(w, campaignID, questionID); err != nil || !found {
		return
	}

	if locked, err := h.campaignLocked(w, campaignID); err != nil || locked {
		return
	}

	maxSelections := req.MaxSelections
	if req.Type == models.TypeSingle {
		maxSelections = 1
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE question
		SET question_text = $1, question_type = $2, max_selections = $3
		WHERE id = $4
	`, req.Text, req.Type, maxSelections, questionID)
	if err != nil {
		slog.Error("failed to update question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update question")
		return
	}

	// Options are replaced wholesale rather than diffed.
	_, err = tx.Exec("DELETE FROM option WHERE question_id = $1", questionID)
	if err != nil {
		slog.Error("failed to delete options", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update question")
		return
	}

	if err := insertOptions(tx, questionID, req.Options); err != nil {
		slog.Error("failed to insert options", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update question")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update question")
		return
	}

	slog.Info("question updated", "campaign_id", campaignID, "question_id", questionID)

	middleware.JSONResponse(w, http.StatusOK, models.AddQuestionResponse{
		QuestionID: questionID,
	})
}

// DeleteQuestion handles DELETE /campaigns/:id/questions/:qid
func (h *QuestionHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	questionID := r.PathValue("qid")
	if questionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "question_id is required")
		return
	}

	if found, err := h.questionExists(w, campaignID, questionID); err != nil || !found {
		return
	}

	if locked, err := h.campaignLocked(w, campaignID); err != nil || locked {
		return
	}

	_, err := h.db.Exec("DELETE FROM question WHERE id = $1", questionID)
	if err != nil {
		slog.Error("failed to delete question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete question")
		return
	}

	slog.Info("question deleted", "campaign_id", campaignID, "question_id", questionID)

	w.WriteHeader(http.StatusNoContent)
}

func (h *QuestionHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
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

// campaignLocked rejects structural edits once the campaign has any
// responses, so recorded details never point at vanished options. It
// also handles the campaign-not-found case. A true return or non-nil
// error means the response is already written.
func (h *QuestionHandler) campaignLocked(w http.ResponseWriter, campaignID string) (bool, error) {
	var exists int
	err := h.db.QueryRow("SELECT 1 FROM campaign WHERE id = $1", campaignID).Scan(&exists)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Campaign not found")
		return true, nil
	}
	if err != nil {
		slog.Error("failed to query campaign", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false, err
	}

	var responseCount int
	err = h.db.QueryRow(`
		SELECT COUNT(*) FROM response WHERE campaign_id = $1
	`, campaignID).Scan(&responseCount)
	if err != nil {
		slog.Error("failed to count responses", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false, err
	}

	if responseCount > 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot modify questions after responses exist")
		return true, nil
	}
	return false, nil
}

func (h *QuestionHandler) questionExists(w http.ResponseWriter, campaignID, questionID string) (bool, error) {
	var exists int
	err := h.db.QueryRow(`
		SELECT 1 FROM question WHERE id = $1 AND campaign_id = $2
	`, questionID, campaignID).Scan(&exists)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found")
		return false, nil
	}
	if err != nil {
		slog.Error("failed to query question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false, err
	}
	return true, nil
}

// validateQuestionInput returns an error message for bad input, or ""
// when the input is acceptable.
func validateQuestionInput(text, qType string, maxSelections int, options []models.OptionInput) string {
	if text == "" {
		return "text is required"
	}
	if qType != models.TypeSingle && qType != models.TypeMulti {
		return fmt.Sprintf("type must be %q or %q", models.TypeSingle, models.TypeMulti)
	}
	if qType == models.TypeMulti && maxSelections < 1 {
		return "max_selections must be at least 1"
	}
	if len(options) < 2 {
		return "question must have at least 2 options"
	}
	for _, opt := range options {
		if opt.Text == "" {
			return "option text cannot be empty"
		}
	}
	return ""
}

func insertOptions(tx *sql.Tx, questionID string, options []models.OptionInput) error {
	for i, opt := range options {
		optionID, err := auth.GenerateID(12)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`
			INSERT INTO option (id, question_id, option_text, image_url, bg_color, order_index)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, optionID, questionID, opt.Text, opt.ImageURL, opt.BgColor, i)
		if err != nil {
			return err
		}
	}
	return nil
}
