// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/quickpoll/auth"
	"github.com/danielhkuo/quickpoll/db"
	"github.com/danielhkuo/quickpoll/demographics"
	"github.com/danielhkuo/quickpoll/models"
)

// Submission failure taxonomy. HTTP handlers map these onto status codes.
// Any other error is a store failure; the whole submission is safe to
// retry because nothing partial commits.
var (
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrCampaignClosed   = errors.New("campaign is not accepting votes")
	ErrAlreadyVoted     = errors.New("voter already submitted a response")
	ErrValidation       = errors.New("invalid submission")
)

// SubmitVote records one voter's complete answer set for a campaign,
// exactly once per (campaign, voter token). The response row and all its
// detail rows commit as a single transaction; duplicates are rejected by
// the store's unique constraint, not by a prior read, so first writer
// wins under concurrent submissions.
func SubmitVote(dbc *sql.DB, campaignID string, sub models.VoteSubmission) (string, error) {
	if sub.VoterToken == "" {
		return "", fmt.Errorf("%w: voter token is required", ErrValidation)
	}
	if len(sub.Answers) == 0 {
		return "", fmt.Errorf("%w: answers cannot be empty", ErrValidation)
	}

	var isActive int
	var configJSON string
	err := dbc.QueryRow(`
		SELECT is_active, demographics_config FROM campaign WHERE id = $1
	`, campaignID).Scan(&isActive, &configJSON)

	if err == sql.ErrNoRows {
		return "", ErrCampaignNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load campaign: %w", err)
	}
	if isActive == 0 {
		return "", ErrCampaignClosed
	}

	config := map[string]bool{}
	if configJSON != "" {
		if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
			return "", fmt.Errorf("failed to parse demographics config: %w", err)
		}
	}

	demo, err := validateDemographics(sub.Demographics, config)
	if err != nil {
		return "", err
	}

	if err := validateAnswers(dbc, campaignID, sub.Answers); err != nil {
		return "", err
	}

	demoJSON, err := json.Marshal(demo)
	if err != nil {
		return "", fmt.Errorf("failed to encode demographics: %w", err)
	}

	responseID, err := auth.GenerateID(16)
	if err != nil {
		return "", fmt.Errorf("failed to generate response ID: %w", err)
	}

	tx, err := dbc.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO response (id, campaign_id, demographics, voter_token, ip_hash, user_agent, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, responseID, campaignID, string(demoJSON), sub.VoterToken,
		nullIfEmpty(sub.IPHash), nullIfEmpty(sub.UserAgent), time.Now())

	if err != nil {
		if db.IsUniqueViolation(err) {
			return "", ErrAlreadyVoted
		}
		return "", fmt.Errorf("failed to insert response: %w", err)
	}

	for questionID, optionIDs := range sub.Answers {
		for _, optionID := range optionIDs {
			detailID, err := auth.GenerateID(12)
			if err != nil {
				return "", fmt.Errorf("failed to generate detail ID: %w", err)
			}
			_, err = tx.Exec(`
				INSERT INTO response_detail (id, response_id, question_id, option_id)
				VALUES ($1, $2, $3, $4)
			`, detailID, responseID, questionID, optionID)
			if err != nil {
				return "", fmt.Errorf("failed to insert response detail: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		if db.IsUniqueViolation(err) {
			return "", ErrAlreadyVoted
		}
		return "", fmt.Errorf("failed to commit submission: %w", err)
	}

	return responseID, nil
}

// validateDemographics checks submitted fields against the campaign's
// config and the registry. Empty values are dropped; unknown fields and
// off-list values are rejected rather than stored.
func validateDemographics(submitted map[string]string, config map[string]bool) (map[string]string, error) {
	demo := make(map[string]string, len(submitted))
	for field, value := range submitted {
		if value == "" {
			continue
		}
		if !config[field] {
			return nil, fmt.Errorf("%w: demographic field %q is not collected by this campaign", ErrValidation, field)
		}
		if !demographics.IsAllowedValue(field, value) {
			return nil, fmt.Errorf("%w: %q is not an allowed value for %q", ErrValidation, value, field)
		}
		demo[field] = value
	}
	return demo, nil
}

// validateAnswers enforces the selection rules: every question belongs to
// the campaign, every option belongs to its stated question, single
// questions take exactly one option, multi questions take 1..max.
func validateAnswers(dbc *sql.DB, campaignID string, answers map[string][]string) error {
	questions, err := loadQuestionRules(dbc, campaignID)
	if err != nil {
		return err
	}

	for questionID, optionIDs := range answers {
		rule, ok := questions[questionID]
		if !ok {
			return fmt.Errorf("%w: question %s does not belong to campaign", ErrValidation, questionID)
		}
		if len(optionIDs) == 0 {
			return fmt.Errorf("%w: question %s has no selected options", ErrValidation, questionID)
		}

		seen := make(map[string]bool, len(optionIDs))
		for _, optionID := range optionIDs {
			if !rule.options[optionID] {
				return fmt.Errorf("%w: option %s does not belong to question %s", ErrValidation, optionID, questionID)
			}
			if seen[optionID] {
				return fmt.Errorf("%w: option %s selected twice for question %s", ErrValidation, optionID, questionID)
			}
			seen[optionID] = true
		}

		switch rule.questionType {
		case models.TypeSingle:
			if len(optionIDs) != 1 {
				return fmt.Errorf("%w: question %s accepts exactly one selection", ErrValidation, questionID)
			}
		case models.TypeMulti:
			if len(optionIDs) > rule.maxSelections {
				return fmt.Errorf("%w: question %s accepts at most %d selections", ErrValidation, questionID, rule.maxSelections)
			}
		}
	}
	return nil
}

type questionRule struct {
	questionType  string
	maxSelections int
	options       map[string]bool
}

// loadQuestionRules fetches the campaign's questions with their valid
// option IDs for answer validation.
func loadQuestionRules(dbc *sql.DB, campaignID string) (map[string]questionRule, error) {
	rows, err := dbc.Query(`
		SELECT id, question_type, max_selections FROM question WHERE campaign_id = $1
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	rules := make(map[string]questionRule)
	for rows.Next() {
		var id, qType string
		var maxSel int
		if err := rows.Scan(&id, &qType, &maxSel); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		rules[id] = questionRule{questionType: qType, maxSelections: maxSel, options: make(map[string]bool)}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	optRows, err := dbc.Query(`
		SELECT o.id, o.question_id
		FROM option o
		JOIN question q ON o.question_id = q.id
		WHERE q.campaign_id = $1
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer optRows.Close()

	for optRows.Next() {
		var optionID, questionID string
		if err := optRows.Scan(&optionID, &questionID); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		if rule, ok := rules[questionID]; ok {
			rule.options[optionID] = true
		}
	}
	return rules, optRows.Err()
}

// nullIfEmpty maps "" to NULL for optional text columns.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
