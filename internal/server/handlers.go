package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/db"
	"github.com/jonathan/job-matcher/internal/pipeline"
	"github.com/jonathan/job-matcher/internal/profile"
	"github.com/jonathan/job-matcher/internal/ranking"
	"github.com/jonathan/job-matcher/internal/types"
)

// MatchRequest represents the request body for /match and /match/stream.
// Exactly one of profile or resume_text must be provided.
type MatchRequest struct {
	Profile    *types.Profile   `json:"profile,omitempty"`
	ResumeText string           `json:"resume_text,omitempty"`
	Jobs       []map[string]any `json:"jobs"`
	TopMatches int              `json:"top_matches,omitempty"`
}

// AnalyzeRequest represents the request body for /analyze
type AnalyzeRequest struct {
	Profile    *types.Profile `json:"profile,omitempty"`
	ResumeText string         `json:"resume_text,omitempty"`
	Job        map[string]any `json:"job"`
}

// RankRequest represents the request body for /rank
type RankRequest struct {
	Profile    *types.Profile   `json:"profile,omitempty"`
	ResumeText string           `json:"resume_text,omitempty"`
	Jobs       []map[string]any `json:"jobs"`
	BatchSize  int              `json:"batch_size,omitempty"`
}

// RunSummary represents one entry in the /runs listing
type RunSummary struct {
	RunID         string `json:"run_id"`
	CandidateName string `json:"candidate_name"`
	Query         string `json:"query,omitempty"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	CompletedAt   string `json:"completed_at,omitempty"`
}

// resolveProfile returns the candidate profile from a request body, building
// one from resume text when no structured profile was supplied.
func (s *Server) resolveProfile(ctx context.Context, prof *types.Profile, resumeText string) (*types.Profile, error) {
	if prof != nil {
		if len(prof.Skills) == 0 {
			return nil, &ErrValidation{Field: "profile", Message: "profile has no skills"}
		}
		return prof, nil
	}
	if resumeText == "" {
		return nil, &ErrValidation{Field: "profile", Message: "either profile or resume_text is required"}
	}
	return profile.Extract(ctx, resumeText, s.invoker)
}

func (s *Server) runnerOptions(topMatches int, onProgress pipeline.ProgressCallback) pipeline.Options {
	if topMatches <= 0 {
		topMatches = s.cfg.TopMatches
	}
	return pipeline.Options{
		TopMatches:     topMatches,
		InterCallDelay: time.Duration(s.cfg.InterCallDelayMS) * time.Millisecond,
		Store:          s.store,
		OnProgress:     onProgress,
		Log:            s.log,
	}
}

// handleMatch runs the full matching pipeline and returns the final report.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Jobs) == 0 {
		s.errorResponse(w, http.StatusBadRequest, "jobs is required")
		return
	}

	ctx := r.Context()
	prof, err := s.resolveProfile(ctx, req.Profile, req.ResumeText)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	runner := pipeline.NewRunner(s.invoker, s.runnerOptions(req.TopMatches, nil))
	report, err := runner.Run(ctx, prof, req.Jobs)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Matching run failed: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, report)
}

// handleMatchStream runs the pipeline and streams stage progress via SSE,
// finishing with the final report.
func (s *Server) handleMatchStream(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Jobs) == 0 {
		s.errorResponse(w, http.StatusBadRequest, "jobs is required")
		return
	}

	ctx := r.Context()
	prof, err := s.resolveProfile(ctx, req.Profile, req.ResumeText)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	var runID string
	opts := s.runnerOptions(req.TopMatches, func(event pipeline.ProgressEvent) {
		if event.RunID != "" {
			runID = event.RunID
		}
		if err := sse.WriteEvent("stage", event); err != nil {
			s.log.Error("writing SSE event", zap.Error(err))
		}
	})

	runner := pipeline.NewRunner(s.invoker, opts)
	report, err := runner.Run(ctx, prof, req.Jobs)
	if err != nil {
		sse.WriteError(err.Error())
		return
	}

	sse.WriteComplete(runID, report)
}

// handleAnalyze runs the single-job variant: normalize, extract skills, and
// gap-analyze one posting against the profile. No ranking or review.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Job) == 0 {
		s.errorResponse(w, http.StatusBadRequest, "job is required")
		return
	}

	ctx := r.Context()
	prof, err := s.resolveProfile(ctx, req.Profile, req.ResumeText)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	runner := pipeline.NewRunner(s.invoker, s.runnerOptions(0, nil))
	report, err := runner.RunSingle(ctx, prof, req.Job)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Analysis run failed: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, report)
}

// handleQuickRank runs the cheap batched scoring pass and returns a map of
// posting ID to score without skill extraction or gap analysis.
func (s *Server) handleQuickRank(w http.ResponseWriter, r *http.Request) {
	var req RankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Jobs) == 0 {
		s.errorResponse(w, http.StatusBadRequest, "jobs is required")
		return
	}

	ctx := r.Context()
	prof, err := s.resolveProfile(ctx, req.Profile, req.ResumeText)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	postings := s.normalizer.All(req.Jobs)
	if len(postings) == 0 {
		s.errorResponse(w, http.StatusBadRequest, "no valid job postings in request")
		return
	}

	batch := req.BatchSize
	if batch <= 0 {
		batch = s.cfg.QuickRankBatch
	}

	ranker := ranking.NewRanker(s.invoker, s.log)
	scores, err := ranker.QuickRank(ctx, prof, postings, batch)
	if err != nil && len(scores) == 0 {
		s.errorResponse(w, http.StatusInternalServerError, "Quick rank failed: "+err.Error())
		return
	}

	resp := map[string]any{"scores": scores}
	if err != nil {
		resp["warning"] = "partial result: " + err.Error()
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// requireStore writes a 503 and returns false when no database is configured.
func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		err := &ErrStoreUnavailable{}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return false
	}
	return true
}

// handleListRuns returns recent matching runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.errorResponse(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, runSummary(run))
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": summaries})
}

// handleGetRun returns the status of a single matching run
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if run == nil {
		notFound := &ErrRunNotFound{RunID: runID}
		s.errorResponse(w, HTTPStatus(notFound), notFound.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, runSummary(*run))
}

// handleGetRunReport returns the persisted final report of a run
func (s *Server) handleGetRunReport(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}

	report, err := s.store.GetFinalReportByRunID(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if report == nil {
		s.errorResponse(w, http.StatusNotFound, "No final report for run "+runID.String())
		return
	}

	s.jsonResponse(w, http.StatusOK, report)
}

// handleDeleteRun removes a run and its artifacts
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteRun(r.Context(), runID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, err.Error())
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted", "run_id": runID.String()})
}

func (s *Server) parseRunID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := r.PathValue("id")
	if idStr == "" {
		s.errorResponse(w, http.StatusBadRequest, "Run ID is required")
		return uuid.Nil, false
	}
	runID, err := uuid.Parse(idStr)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid run ID format")
		return uuid.Nil, false
	}
	return runID, true
}

func runSummary(run db.Run) RunSummary {
	summary := RunSummary{
		RunID:         run.ID.String(),
		CandidateName: run.CandidateName,
		Query:         run.Query,
		Status:        run.Status,
		CreatedAt:     run.CreatedAt.Format(time.RFC3339),
	}
	if run.CompletedAt != nil {
		summary.CompletedAt = run.CompletedAt.Format(time.RFC3339)
	}
	return summary
}
