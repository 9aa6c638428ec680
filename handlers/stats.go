// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/danielhkuo/quickpoll/demographics"
	"github.com/danielhkuo/quickpoll/models"
)

// ErrUnknownField is returned when a breakdown or filter names a
// demographic field outside the registry.
var ErrUnknownField = errors.New("unknown demographic field")

// ComputeStatistics aggregates vote counts per option across every
// question in the campaign, optionally restricted to responses matching
// all of the given demographic filters. Percentages are of the filtered
// response total, rounded to one decimal place.
func ComputeStatistics(dbc *sql.DB, campaignID string, filters map[string]string) (models.CampaignStatistics, error) {
	var stats models.CampaignStatistics

	for field := range filters {
		if !demographics.IsField(field) {
			return stats, fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
	}

	responseIDs, err := matchingResponseIDs(dbc, campaignID, filters)
	if err != nil {
		return stats, err
	}
	stats.TotalVotes = len(responseIDs)

	questions, err := loadQuestions(dbc, campaignID)
	if err != nil {
		return stats, err
	}

	counts, err := optionVoteCounts(dbc, campaignID, responseIDs)
	if err != nil {
		return stats, err
	}

	for _, q := range questions {
		qs := models.QuestionStatistics{
			ID:      q.ID,
			Text:    q.Text,
			Type:    q.Type,
			Options: make([]models.OptionCount, 0, len(q.Options)),
		}
		for _, opt := range q.Options {
			c := counts[opt.ID]
			qs.Options = append(qs.Options, models.OptionCount{
				ID:         opt.ID,
				Text:       opt.Text,
				Count:      c,
				Percentage: percentage(c, stats.TotalVotes),
			})
		}
		RankOptions(qs.Options)
		stats.Questions = append(stats.Questions, qs)
	}
	return stats, nil
}

// RankOptions assigns dense ranks by descending count. Ties share a
// rank; slice order is left untouched so options keep their display
// order regardless of popularity.
func RankOptions(options []models.OptionCount) {
	distinct := make([]int, 0, len(options))
	seen := make(map[int]bool)
	for _, opt := range options {
		if !seen[opt.Count] {
			seen[opt.Count] = true
			distinct = append(distinct, opt.Count)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(distinct)))

	rankOf := make(map[int]int, len(distinct))
	for i, c := range distinct {
		rankOf[c] = i + 1
	}
	for i := range options {
		options[i].Rank = rankOf[options[i].Count]
	}
}

// ComputeBreakdown tallies responses by the values of one demographic
// field. Responses that did not supply the field land in the Unknown
// bucket. Buckets come back ordered by count descending, then value
// ascending for stable output.
func ComputeBreakdown(dbc *sql.DB, campaignID, field string) (models.DemographicBreakdown, error) {
	var breakdown models.DemographicBreakdown

	def, ok := demographics.Lookup(field)
	if !ok {
		return breakdown, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	breakdown.Field = def.Key
	breakdown.Label = def.Label

	rows, err := dbc.Query(`
		SELECT demographics FROM response WHERE campaign_id = $1
	`, campaignID)
	if err != nil {
		return breakdown, fmt.Errorf("failed to query responses: %w", err)
	}
	defer rows.Close()

	tally := map[string]int{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return breakdown, fmt.Errorf("failed to scan response: %w", err)
		}
		tally[demographicValue(raw, field)]++
	}
	if err := rows.Err(); err != nil {
		return breakdown, err
	}

	breakdown.Data = make([]models.BreakdownBucket, 0, len(tally))
	for value, count := range tally {
		breakdown.Data = append(breakdown.Data, models.BreakdownBucket{Value: value, Count: count})
	}
	sort.Slice(breakdown.Data, func(i, j int) bool {
		if breakdown.Data[i].Count != breakdown.Data[j].Count {
			return breakdown.Data[i].Count > breakdown.Data[j].Count
		}
		return breakdown.Data[i].Value < breakdown.Data[j].Value
	})
	return breakdown, nil
}

// ExportResponses builds a flat table of every response: one row per
// response with its demographics and the option texts it selected per
// question, comma-joined for multi-select.
func ExportResponses(dbc *sql.DB, campaignID string) (models.ExportTable, error) {
	var table models.ExportTable

	var configJSON string
	err := dbc.QueryRow(`
		SELECT demographics_config FROM campaign WHERE id = $1
	`, campaignID).Scan(&configJSON)
	if err == sql.ErrNoRows {
		return table, ErrCampaignNotFound
	}
	if err != nil {
		return table, fmt.Errorf("failed to load campaign: %w", err)
	}

	config := map[string]bool{}
	if configJSON != "" {
		if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
			return table, fmt.Errorf("failed to parse demographics config: %w", err)
		}
	}
	fields := demographics.Enabled(config)

	questions, err := loadQuestions(dbc, campaignID)
	if err != nil {
		return table, err
	}

	table.Header = []string{"response_id", "submitted_at"}
	for _, f := range fields {
		table.Header = append(table.Header, f.Label)
	}
	for _, q := range questions {
		table.Header = append(table.Header, q.Text)
	}

	selections, err := responseSelections(dbc, campaignID)
	if err != nil {
		return table, err
	}

	rows, err := dbc.Query(`
		SELECT id, demographics, submitted_at
		FROM response
		WHERE campaign_id = $1
		ORDER BY submitted_at, id
	`, campaignID)
	if err != nil {
		return table, fmt.Errorf("failed to query responses: %w", err)
	}
	defer rows.Close()

	optionText := map[string]string{}
	for _, q := range questions {
		for _, opt := range q.Options {
			optionText[opt.ID] = opt.Text
		}
	}

	for rows.Next() {
		var resp models.Response
		var raw string
		if err := rows.Scan(&resp.ID, &raw, &resp.SubmittedAt); err != nil {
			return table, fmt.Errorf("failed to scan response: %w", err)
		}

		demo := map[string]string{}
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &demo); err != nil {
				demo = map[string]string{}
			}
		}

		row := []string{resp.ID, resp.SubmittedAt.Format("2006-01-02 15:04:05")}
		for _, f := range fields {
			v := demo[f.Key]
			if v == "" {
				v = demographics.Unknown
			}
			row = append(row, v)
		}
		for _, q := range questions {
			texts := make([]string, 0, 2)
			for _, optionID := range selections[resp.ID][q.ID] {
				texts = append(texts, optionText[optionID])
			}
			row = append(row, strings.Join(texts, ", "))
		}
		table.Rows = append(table.Rows, row)
	}
	return table, rows.Err()
}

// matchingResponseIDs returns the IDs of responses in the campaign whose
// stored demographics satisfy every filter (AND semantics). With no
// filters it returns all response IDs.
func matchingResponseIDs(dbc *sql.DB, campaignID string, filters map[string]string) ([]string, error) {
	rows, err := dbc.Query(`
		SELECT id, demographics FROM response WHERE campaign_id = $1
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		if matchesFilters(raw, filters) {
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}

func matchesFilters(rawDemographics string, filters map[string]string) bool {
	if len(filters) == 0 {
		return true
	}
	demo := map[string]string{}
	if rawDemographics != "" {
		if err := json.Unmarshal([]byte(rawDemographics), &demo); err != nil {
			return false
		}
	}
	for field, want := range filters {
		if demo[field] != want {
			return false
		}
	}
	return true
}

// demographicValue extracts one field from a stored demographics blob,
// mapping absent or malformed data to the Unknown bucket.
func demographicValue(raw, field string) string {
	if raw == "" {
		return demographics.Unknown
	}
	demo := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &demo); err != nil {
		return demographics.Unknown
	}
	if v := demo[field]; v != "" {
		return v
	}
	return demographics.Unknown
}

// optionVoteCounts counts selections per option across the campaign,
// restricted to the given response IDs.
func optionVoteCounts(dbc *sql.DB, campaignID string, responseIDs []string) (map[string]int, error) {
	counts := map[string]int{}
	if len(responseIDs) == 0 {
		return counts, nil
	}
	included := make(map[string]bool, len(responseIDs))
	for _, id := range responseIDs {
		included[id] = true
	}

	rows, err := dbc.Query(`
		SELECT rd.response_id, rd.option_id
		FROM response_detail rd
		JOIN response r ON rd.response_id = r.id
		WHERE r.campaign_id = $1
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to query response details: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var responseID, optionID string
		if err := rows.Scan(&responseID, &optionID); err != nil {
			return nil, fmt.Errorf("failed to scan response detail: %w", err)
		}
		if included[responseID] {
			counts[optionID]++
		}
	}
	return counts, rows.Err()
}

// responseSelections maps response ID -> question ID -> selected option
// IDs, preserving option display order within each question.
func responseSelections(dbc *sql.DB, campaignID string) (map[string]map[string][]string, error) {
	rows, err := dbc.Query(`
		SELECT rd.response_id, rd.question_id, rd.option_id
		FROM response_detail rd
		JOIN response r ON rd.response_id = r.id
		JOIN option o ON rd.option_id = o.id
		WHERE r.campaign_id = $1
		ORDER BY o.order_index
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to query response details: %w", err)
	}
	defer rows.Close()

	selections := map[string]map[string][]string{}
	for rows.Next() {
		var responseID, questionID, optionID string
		if err := rows.Scan(&responseID, &questionID, &optionID); err != nil {
			return nil, fmt.Errorf("failed to scan response detail: %w", err)
		}
		if selections[responseID] == nil {
			selections[responseID] = map[string][]string{}
		}
		selections[responseID][questionID] = append(selections[responseID][questionID], optionID)
	}
	return selections, rows.Err()
}

// percentage returns count/total as a percentage rounded to one decimal
// place, with a zero total mapping to 0 rather than dividing.
func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*100*10) / 10
}
