// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/quickpoll/models"
	"github.com/danielhkuo/quickpoll/testutil"
)

// TestFullCampaignWorkflow tests the complete end-to-end workflow:
// 1. Create campaign
// 2. Add questions
// 3. Voters fetch the poll and get tokens
// 4. Voters submit responses
// 5. Duplicate submission rejected
// 6. Statistics and breakdown reflect the votes
// 7. Export produces the full table
// 8. Reset clears responses
func TestFullCampaignWorkflow(t *testing.T) {
	dbc := testutil.SetupTestDB(t)

	cfg := testutil.GetTestConfig()
	campaignHandler := NewCampaignHandler(dbc, cfg)
	questionHandler := NewQuestionHandler(dbc, cfg)
	votingHandler := NewVotingHandler(dbc, cfg)
	resultsHandler := NewResultsHandler(dbc, cfg)

	// Step 1: Create a campaign collecting age_group only
	createReq := models.CreateCampaignRequest{
		Title:              "Integration Test Campaign",
		Description:        "Testing the full workflow",
		DemographicsConfig: map[string]bool{"age_group": true},
		ShowResults:        true,
	}
	body, _ := json.Marshal(createReq)
	req := httptest.NewRequest("POST", "/campaigns", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	campaignHandler.CreateCampaign(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Step 1 - Create campaign failed: %d - %s", w.Code, w.Body.String())
	}

	var createResp models.CreateCampaignResponse
	json.NewDecoder(w.Body).Decode(&createResp)
	campaignID := createResp.CampaignID
	adminKey := createResp.AdminKey
	shareSlug := createResp.ShareSlug

	if campaignID == "" || adminKey == "" || shareSlug == "" {
		t.Fatal("Step 1 - Missing campaign_id, admin_key, or share_slug")
	}
	t.Logf("Step 1 - Created campaign: %s", campaignID)

	// Step 2: Add one single and one multi question
	questionReqs := []models.AddQuestionRequest{
		{
			Text: "Favorite cuisine?",
			Type: models.TypeSingle,
			Options: []models.OptionInput{
				{Text: "Pizza"}, {Text: "Sushi"}, {Text: "Tacos"},
			},
		},
		{
			Text:          "Which meals do you cook?",
			Type:          models.TypeMulti,
			MaxSelections: 2,
			Options: []models.OptionInput{
				{Text: "Breakfast"}, {Text: "Lunch"}, {Text: "Dinner"},
			},
		},
	}
	for _, qr := range questionReqs {
		body, _ := json.Marshal(qr)
		req := httptest.NewRequest("POST", "/campaigns/"+campaignID+"/questions", bytes.NewReader(body))
		req.SetPathValue("id", campaignID)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Admin-Key", adminKey)
		w := httptest.NewRecorder()
		questionHandler.AddQuestion(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("Step 2 - Add question %q failed: %d - %s", qr.Text, w.Code, w.Body.String())
		}
	}

	// Step 3: Fetch the public poll view
	req = httptest.NewRequest("GET", "/polls/"+shareSlug, nil)
	req.SetPathValue("slug", shareSlug)
	w = httptest.NewRecorder()
	votingHandler.GetPoll(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Step 3 - Get poll failed: %d - %s", w.Code, w.Body.String())
	}

	var poll models.PollView
	json.NewDecoder(w.Body).Decode(&poll)
	if len(poll.Questions) != 2 {
		t.Fatalf("Step 3 - Expected 2 questions, got %d", len(poll.Questions))
	}
	if len(poll.Demographics) != 1 || poll.Demographics[0].Key != "age_group" {
		t.Fatalf("Step 3 - Expected age_group demographic, got %+v", poll.Demographics)
	}

	singleQ := poll.Questions[0]
	multiQ := poll.Questions[1]

	// Step 4: Three voters get tokens and vote
	vote := func(token, ageGroup string, singleOpt int, multiOpts []int) *httptest.ResponseRecorder {
		answers := map[string][]string{
			singleQ.ID: {singleQ.Options[singleOpt].ID},
		}
		if multiOpts != nil {
			var ids []string
			for _, i := range multiOpts {
				ids = append(ids, multiQ.Options[i].ID)
			}
			answers[multiQ.ID] = ids
		}
		voteReq := models.SubmitVoteRequest{
			Demographics: map[string]string{"age_group": ageGroup},
			Answers:      answers,
		}
		body, _ := json.Marshal(voteReq)
		req := httptest.NewRequest("POST", "/polls/"+shareSlug+"/responses", bytes.NewReader(body))
		req.SetPathValue("slug", shareSlug)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Voter-Token", token)
		w := httptest.NewRecorder()
		votingHandler.SubmitVote(w, req)
		return w
	}

	issueToken := func() string {
		req := httptest.NewRequest("POST", "/polls/"+shareSlug+"/voter-token", nil)
		req.SetPathValue("slug", shareSlug)
		w := httptest.NewRecorder()
		votingHandler.IssueVoterToken(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("Step 4 - Issue token failed: %d - %s", w.Code, w.Body.String())
		}
		var resp models.VoterTokenResponse
		json.NewDecoder(w.Body).Decode(&resp)
		return resp.VoterToken
	}

	tokens := []string{issueToken(), issueToken(), issueToken()}

	// Pizza, Pizza, Sushi; only the first voter answers the multi question
	if w := vote(tokens[0], "18-24", 0, []int{0, 2}); w.Code != http.StatusCreated {
		t.Fatalf("Step 4 - Vote 1 failed: %d - %s", w.Code, w.Body.String())
	}
	if w := vote(tokens[1], "18-24", 0, nil); w.Code != http.StatusCreated {
		t.Fatalf("Step 4 - Vote 2 failed: %d - %s", w.Code, w.Body.String())
	}
	if w := vote(tokens[2], "25-40", 1, nil); w.Code != http.StatusCreated {
		t.Fatalf("Step 4 - Vote 3 failed: %d - %s", w.Code, w.Body.String())
	}

	// Step 5: Voter 1 tries again and is rejected
	if w := vote(tokens[0], "18-24", 2, nil); w.Code != http.StatusConflict {
		t.Fatalf("Step 5 - Expected 409 on duplicate vote, got %d", w.Code)
	}

	// Step 6: Statistics reflect the three votes
	req = httptest.NewRequest("GET", "/campaigns/"+campaignID+"/statistics", nil)
	req.SetPathValue("id", campaignID)
	req.Header.Set("X-Admin-Key", adminKey)
	w = httptest.NewRecorder()
	resultsHandler.GetStatistics(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Step 6 - Get statistics failed: %d - %s", w.Code, w.Body.String())
	}

	var stats models.CampaignStatistics
	json.NewDecoder(w.Body).Decode(&stats)
	if stats.TotalVotes != 3 {
		t.Fatalf("Step 6 - Expected 3 votes, got %d", stats.TotalVotes)
	}
	pizza := stats.Questions[0].Options[0]
	if pizza.Count != 2 || pizza.Percentage != 66.7 || pizza.Rank != 1 {
		t.Errorf("Step 6 - Pizza expected 2 votes / 66.7%% / rank 1, got %d / %v / %d",
			pizza.Count, pizza.Percentage, pizza.Rank)
	}

	// Breakdown puts two voters in 18-24
	req = httptest.NewRequest("GET", "/campaigns/"+campaignID+"/breakdown?field=age_group", nil)
	req.SetPathValue("id", campaignID)
	req.Header.Set("X-Admin-Key", adminKey)
	w = httptest.NewRecorder()
	resultsHandler.GetBreakdown(w, req)

	var breakdown models.DemographicBreakdown
	json.NewDecoder(w.Body).Decode(&breakdown)
	if len(breakdown.Data) != 2 || breakdown.Data[0].Value != "18-24" || breakdown.Data[0].Count != 2 {
		t.Errorf("Step 6 - Unexpected breakdown: %+v", breakdown.Data)
	}

	// Public results are visible since show_results is on
	req = httptest.NewRequest("GET", "/polls/"+shareSlug+"/results", nil)
	req.SetPathValue("slug", shareSlug)
	w = httptest.NewRecorder()
	resultsHandler.GetPublicResults(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Step 6 - Expected public results, got %d", w.Code)
	}

	// Step 7: Export has header + 3 rows
	req = httptest.NewRequest("GET", "/campaigns/"+campaignID+"/export", nil)
	req.SetPathValue("id", campaignID)
	req.Header.Set("X-Admin-Key", adminKey)
	w = httptest.NewRecorder()
	resultsHandler.ExportCSV(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Step 7 - Export failed: %d - %s", w.Code, w.Body.String())
	}

	// Step 8: Reset clears responses but keeps the campaign votable
	req = httptest.NewRequest("POST", "/campaigns/"+campaignID+"/reset", nil)
	req.SetPathValue("id", campaignID)
	req.Header.Set("X-Admin-Key", adminKey)
	w = httptest.NewRecorder()
	campaignHandler.ResetResponses(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Step 8 - Reset failed: %d - %s", w.Code, w.Body.String())
	}

	// The same voter can now vote again
	if w := vote(tokens[0], "18-24", 2, nil); w.Code != http.StatusCreated {
		t.Fatalf("Step 8 - Expected revote after reset to succeed, got %d - %s", w.Code, w.Body.String())
	}
}
