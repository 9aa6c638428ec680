// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickpoll/auth"
	"github.com/danielhkuo/quickpoll/cliparse"
	"github.com/danielhkuo/quickpoll/demographics"
	"github.com/danielhkuo/quickpoll/middleware"
	"github.com/danielhkuo/quickpoll/models"
)

type VotingHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{db: db, cfg: cfg}
}

// GetPoll handles GET /polls/:slug
// Public view of a campaign for voters: questions, options, and the
// demographic fields the campaign collects. Admin material never
// appears here.
func (h *VotingHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
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

	// Closed campaigns stay visible only when their results are public
	if !campaign.IsActive && !campaign.ShowResults {
		middleware.ErrorResponse(w, http.StatusForbidden, "Poll is closed")
		return
	}

	questions, err := loadQuestions(h.db, campaign.ID)
	if err != nil {
		slog.Error("failed to query questions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PollView{
		Campaign:     campaign,
		Questions:    questions,
		Demographics: demographics.Enabled(campaign.DemographicsConfig),
	})
}

// IssueVoterToken handles POST /polls/:slug/voter-token
// Hands a fresh opaque token to a voter's browser. The token only
// spends when a submission commits, so requesting one is free.
func (h *VotingHandler) IssueVoterToken(w http.ResponseWriter, r *http.Request) {
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

	token, err := auth.GenerateVoterToken()
	if err != nil {
		slog.Error("failed to generate voter token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoterTokenResponse{
		VoterToken: token,
	})
}

// SubmitVote handles POST /polls/:slug/responses
func (h *VotingHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	voterToken := r.Header.Get("X-Voter-Token")
	if voterToken == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "X-Voter-Token header is required")
		return
	}

	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
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

	responseID, err := SubmitVote(h.db, campaignID, models.VoteSubmission{
		Demographics: req.Demographics,
		Answers:      req.Answers,
		VoterToken:   voterToken,
		IPHash:       auth.HashIP(middleware.GetClientIP(r), h.cfg.AdminKeySalt),
		UserAgent:    r.UserAgent(),
	})

	switch {
	case err == nil:
	case errors.Is(err, ErrCampaignNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	case errors.Is(err, ErrCampaignClosed):
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is not accepting votes")
		return
	case errors.Is(err, ErrAlreadyVoted):
		middleware.ErrorResponse(w, http.StatusConflict, "You have already voted in this poll")
		return
	case errors.Is(err, ErrValidation):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	default:
		slog.Error("failed to submit vote", "error", err, "campaign_id", campaignID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit vote")
		return
	}

	slog.Info("vote submitted", "campaign_id", campaignID, "response_id", responseID)

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitVoteResponse{
		ResponseID: responseID,
		Message:    "Vote recorded",
	})
}
