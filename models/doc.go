// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateCampaignRequest / UpdateCampaignRequest: title, description,
    demographics_config, show_results
  - AddQuestionRequest / UpdateQuestionRequest: text, type, max_selections,
    options
  - OptionInput: plain (text only) or decorated (image_url, bg_color)
  - SubmitVoteRequest: demographics, answers (map[string][]string)

# Response Types

Types for JSON responses:

  - CreateCampaignResponse: campaign_id, admin_key, share_slug, share_url
  - AddQuestionResponse: question_id
  - VoterTokenResponse: voter_token
  - SubmitVoteResponse: response_id, message
  - ResponseCountResponse: response_count
  - ErrorResponse: error, message

# Domain Types

Internal data structures:

  - Campaign: poll campaign metadata, demographics config, active flag
  - Question: question with type, selection limit, and ordered options
  - Option: option text plus optional image/color decoration
  - Response: one voter's submission metadata
  - VoteSubmission: caller-owned input to the submission service

# Statistics Types

  - CampaignStatistics: total_votes plus per-question option counts
  - OptionCount: count, percentage (one decimal), display rank
  - DemographicBreakdown: per-value response counts for one field
  - ExportTable: flat header/rows projection for CSV export

# Constants

Question types:

	TypeSingle = "single"
	TypeMulti  = "multi"
*/
package models
