// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/quickpoll/cliparse"
	"github.com/danielhkuo/quickpoll/handlers"
	"github.com/danielhkuo/quickpoll/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	campaignHandler := handlers.NewCampaignHandler(db, cfg)
	questionHandler := handlers.NewQuestionHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg)
	resultsHandler := handlers.NewResultsHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Campaign management (admin operations)
	mux.HandleFunc("POST /campaigns", middleware.WithLogging(campaignHandler.CreateCampaign))
	mux.HandleFunc("GET /campaigns/{id}", middleware.WithLogging(campaignHandler.GetCampaignAdmin))
	mux.HandleFunc("PUT /campaigns/{id}", middleware.WithLogging(campaignHandler.UpdateCampaign))
	mux.HandleFunc("DELETE /campaigns/{id}", middleware.WithLogging(campaignHandler.DeleteCampaign))
	mux.HandleFunc("POST /campaigns/{id}/toggle", middleware.WithLogging(campaignHandler.ToggleCampaign))
	mux.HandleFunc("POST /campaigns/{id}/reset", middleware.WithLogging(campaignHandler.ResetResponses))

	// Question management (admin operations)
	mux.HandleFunc("POST /campaigns/{id}/questions", middleware.WithLogging(questionHandler.AddQuestion))
	mux.HandleFunc("PUT /campaigns/{id}/questions/{qid}", middleware.WithLogging(questionHandler.UpdateQuestion))
	mux.HandleFunc("DELETE /campaigns/{id}/questions/{qid}", middleware.WithLogging(questionHandler.DeleteQuestion))

	// Results retrieval (admin operations)
	mux.HandleFunc("GET /campaigns/{id}/statistics", middleware.WithLogging(resultsHandler.GetStatistics))
	mux.HandleFunc("GET /campaigns/{id}/breakdown", middleware.WithLogging(resultsHandler.GetBreakdown))
	mux.HandleFunc("GET /campaigns/{id}/export", middleware.WithLogging(resultsHandler.ExportCSV))
	mux.HandleFunc("GET /campaigns/{id}/voters", middleware.WithLogging(resultsHandler.VoterLogs))

	// Voting operations (public)
	mux.HandleFunc("GET /polls/{slug}", middleware.WithLogging(votingHandler.GetPoll))
	mux.HandleFunc("POST /polls/{slug}/voter-token", middleware.WithLogging(votingHandler.IssueVoterToken))
	mux.HandleFunc("POST /polls/{slug}/responses", middleware.WithLogging(votingHandler.SubmitVote))
	mux.HandleFunc("GET /polls/{slug}/results", middleware.WithLogging(resultsHandler.GetPublicResults))
	mux.HandleFunc("GET /polls/{slug}/count", middleware.WithLogging(resultsHandler.GetResponseCount))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quickpoll API v1"))
	})

	return mux
}
