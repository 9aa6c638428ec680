// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"time"

	"github.com/danielhkuo/quickpoll/demographics"
)

// Question type constants
const (
	TypeSingle = "single"
	TypeMulti  = "multi"
)

// Request types

type CreateCampaignRequest struct {
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	DemographicsConfig map[string]bool `json:"demographics_config"`
	ShowResults        bool            `json:"show_results"`
}

// UpdateCampaignRequest uses pointers so absent fields stay untouched.
type UpdateCampaignRequest struct {
	Title              *string         `json:"title"`
	Description        *string         `json:"description"`
	DemographicsConfig map[string]bool `json:"demographics_config"`
	ShowResults        *bool           `json:"show_results"`
}

// OptionInput is either a plain option (just text) or a decorated one
// carrying an image and a background color for candidate-style cards.
type OptionInput struct {
	Text     string  `json:"text"`
	ImageURL *string `json:"image_url,omitempty"`
	BgColor  *string `json:"bg_color,omitempty"`
}

type AddQuestionRequest struct {
	Text          string        `json:"text"`
	Type          string        `json:"type"`
	MaxSelections int           `json:"max_selections"`
	Options       []OptionInput `json:"options"`
}

type UpdateQuestionRequest struct {
	Text          string        `json:"text"`
	Type          string        `json:"type"`
	MaxSelections int           `json:"max_selections"`
	Options       []OptionInput `json:"options"`
}

// question_id -> selected option_ids
type SubmitVoteRequest struct {
	Demographics map[string]string   `json:"demographics"`
	Answers      map[string][]string `json:"answers"`
}

// Response types

type CreateCampaignResponse struct {
	CampaignID string `json:"campaign_id"`
	AdminKey   string `json:"admin_key"`
	ShareSlug  string `json:"share_slug"`
	ShareURL   string `json:"share_url"`
}

type AddQuestionResponse struct {
	QuestionID string `json:"question_id"`
}

type ToggleCampaignResponse struct {
	CampaignID string `json:"campaign_id"`
	IsActive   bool   `json:"is_active"`
}

type VoterTokenResponse struct {
	VoterToken string `json:"voter_token"`
}

type SubmitVoteResponse struct {
	ResponseID string `json:"response_id"`
	Message    string `json:"message"`
}

type ResponseCountResponse struct {
	CampaignID    string `json:"campaign_id"`
	ResponseCount int    `json:"response_count"`
}

// Domain types

type Campaign struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	DemographicsConfig map[string]bool `json:"demographics_config"`
	ShowResults        bool            `json:"show_results"`
	IsActive           bool            `json:"is_active"`
	ShareSlug          string          `json:"share_slug"`
	CreatedAt          time.Time       `json:"created_at"`
}

type Question struct {
	ID            string   `json:"id"`
	CampaignID    string   `json:"campaign_id"`
	Text          string   `json:"text"`
	Type          string   `json:"type"`
	MaxSelections int      `json:"max_selections"`
	OrderIndex    int      `json:"order_index"`
	Options       []Option `json:"options"`
}

type Option struct {
	ID         string  `json:"id"`
	QuestionID string  `json:"question_id"`
	Text       string  `json:"text"`
	ImageURL   *string `json:"image_url,omitempty"`
	BgColor    *string `json:"bg_color,omitempty"`
	OrderIndex int     `json:"order_index"`
}

type Response struct {
	ID           string            `json:"id"`
	CampaignID   string            `json:"campaign_id"`
	Demographics map[string]string `json:"demographics"`
	VoterToken   string            `json:"-"` // Never expose in JSON
	IPHash       *string           `json:"-"` // Never expose in JSON
	UserAgent    *string           `json:"-"` // Never expose in JSON
	SubmittedAt  time.Time         `json:"submitted_at"`
}

// VoteSubmission is the caller-owned input for one submission attempt.
// The submission service keeps no ambient state of its own.
type VoteSubmission struct {
	Demographics map[string]string
	Answers      map[string][]string
	VoterToken   string
	IPHash       string
	UserAgent    string
}

// Admin / voter views

type CampaignAdminView struct {
	Campaign      Campaign   `json:"campaign"`
	Questions     []Question `json:"questions"`
	ResponseCount int        `json:"response_count"`
}

type PollView struct {
	Campaign     Campaign             `json:"campaign"`
	Questions    []Question           `json:"questions"`
	Demographics []demographics.Field `json:"demographics"`
}

// Statistics types

type OptionCount struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Rank       int     `json:"rank"` // 1-indexed display rank, never persisted
}

type QuestionStatistics struct {
	ID      string        `json:"id"`
	Text    string        `json:"text"`
	Type    string        `json:"type"`
	Options []OptionCount `json:"options"`
}

type CampaignStatistics struct {
	TotalVotes int                  `json:"total_votes"`
	Questions  []QuestionStatistics `json:"questions"`
}

type BreakdownBucket struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type DemographicBreakdown struct {
	Field string            `json:"field"`
	Label string            `json:"label"`
	Data  []BreakdownBucket `json:"data"`
}

// Reporting types

type VoterLog struct {
	ResponseID   string            `json:"response_id"`
	IPHash       *string           `json:"ip_hash,omitempty"`
	UserAgent    *string           `json:"user_agent,omitempty"`
	Demographics map[string]string `json:"demographics"`
	SubmittedAt  time.Time         `json:"submitted_at"`
}

// ExportTable is a flat projection of a campaign's responses: one row per
// response, one column per demographic field and one per question.
type ExportTable struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
