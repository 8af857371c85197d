// Package pipeline provides the high-level orchestration for a job matching
// run. Stages execute sequentially; a failing stage degrades the run with a
// warning instead of aborting it, so every run ends Finalized with a report.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/db"
	"github.com/jonathan/job-matcher/internal/gap"
	"github.com/jonathan/job-matcher/internal/llm"
	"github.com/jonathan/job-matcher/internal/normalize"
	"github.com/jonathan/job-matcher/internal/ranking"
	"github.com/jonathan/job-matcher/internal/report"
	"github.com/jonathan/job-matcher/internal/review"
	"github.com/jonathan/job-matcher/internal/skills"
	"github.com/jonathan/job-matcher/internal/types"
)

// Stage identifies a pipeline state.
type Stage string

// Pipeline states in execution order. A single-job run skips StageRanking
// and StageReviewing.
const (
	StageNormalizing      Stage = "normalizing"
	StageExtractingSkills Stage = "extracting_skills"
	StageRanking          Stage = "ranking"
	StageAnalyzingGaps    Stage = "analyzing_gaps"
	StageReviewing        Stage = "reviewing"
	StageFinalized        Stage = "finalized"
)

// ProgressEvent represents a progress update during a run.
type ProgressEvent struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when run progress occurs.
type ProgressCallback func(event ProgressEvent)

// Options holds configuration for a Runner.
type Options struct {
	// TopMatches bounds how many ranked matches get gap analysis.
	TopMatches int
	// InterCallDelay is the pause between per-posting LLM calls in the
	// extraction and gap stages.
	InterCallDelay time.Duration
	// Store persists per-stage artifacts when non-nil.
	Store *db.DB
	// OnProgress receives stage events when non-nil.
	OnProgress ProgressCallback
	Log        *zap.Logger
}

// Runner executes matching runs over a shared invoker.
type Runner struct {
	normalizer *normalize.Normalizer
	extractor  *skills.Extractor
	ranker     *ranking.Ranker
	analyzer   *gap.Analyzer
	reviewer   *review.Reviewer
	opts       Options
	log        *zap.Logger
}

// NewRunner wires the stage functions around one invoker.
func NewRunner(invoker llm.Caller, opts Options) *Runner {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.TopMatches <= 0 {
		opts.TopMatches = 10
	}
	return &Runner{
		normalizer: normalize.New(opts.Log),
		extractor:  skills.NewExtractor(invoker, opts.InterCallDelay, opts.Log),
		ranker:     ranking.NewRanker(invoker, opts.Log),
		analyzer:   gap.NewAnalyzer(invoker, opts.InterCallDelay, opts.Log),
		reviewer:   review.NewReviewer(invoker, opts.Log),
		opts:       opts,
		log:        opts.Log,
	}
}

// run tracks the mutable state of one execution.
type run struct {
	id       uuid.UUID
	warnings []string
}

func (r *run) warnf(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// Run executes the full pipeline over raw posting records and returns the
// final report. The report is produced even when stages degrade; the error
// is non-nil only when the context was canceled mid-run.
func (p *Runner) Run(ctx context.Context, prof *types.Profile, rawJobs []map[string]any) (types.FinalReport, error) {
	state := p.startRun(ctx, prof)

	// Normalizing
	p.emit(state, StageNormalizing, fmt.Sprintf("Normalizing %d raw job records", len(rawJobs)), nil)
	postings := p.normalizer.All(rawJobs)
	if dropped := len(rawJobs) - len(postings); dropped > 0 {
		state.warnf("%d job record(s) dropped during normalization", dropped)
	}
	p.persist(ctx, state, db.StepPostings, db.CategoryNormalize, postings)
	if len(postings) == 0 {
		state.warnf("no jobs found or failed to normalize jobs")
		return p.finalize(ctx, state, report.Input{Warnings: state.warnings}), ctx.Err()
	}

	// ExtractingSkills
	p.emit(state, StageExtractingSkills, fmt.Sprintf("Extracting skills from %d postings", len(postings)), nil)
	skillsByPosting, extractErrs := p.extractor.Extract(ctx, postings)
	for _, err := range extractErrs {
		state.warnf("skill extraction: %v", err)
	}
	p.persist(ctx, state, db.StepSkills, db.CategoryExtract, skillsByPosting)

	// Ranking
	p.emit(state, StageRanking, fmt.Sprintf("Ranking %d postings", len(postings)), nil)
	matches, err := p.ranker.Rank(ctx, prof, postings, skillsByPosting, p.opts.TopMatches)
	if err != nil {
		state.warnf("ranking degraded: %v", err)
		matches = defaultMatches(postings, p.opts.TopMatches)
	}
	p.persist(ctx, state, db.StepMatches, db.CategoryRanking, matches)
	if len(matches) == 0 {
		state.warnf("no job matches found")
		return p.finalize(ctx, state, report.Input{Warnings: state.warnings}), ctx.Err()
	}

	// AnalyzingGaps
	p.emit(state, StageAnalyzingGaps, fmt.Sprintf("Analyzing skill gaps for %d matches", len(matches)), nil)
	gaps, gapErrs := p.analyzer.AnalyzeAll(ctx, prof, matches, skillsByPosting)
	for _, err := range gapErrs {
		state.warnf("gap analysis: %v", err)
	}
	p.persist(ctx, state, db.StepGaps, db.CategoryAnalysis, gaps)

	// Reviewing
	p.emit(state, StageReviewing, "Reviewing recommendations", nil)
	outcome, err := p.reviewer.Review(ctx, prof, matches, gaps)
	if err != nil {
		state.warnf("review process encountered an error: %v", err)
	}
	p.persist(ctx, state, db.StepReview, db.CategoryReview, outcome)

	return p.finalize(ctx, state, report.Input{
		Matches:  matches,
		Gaps:     gaps,
		Review:   outcome,
		Warnings: state.warnings,
	}), ctx.Err()
}

// RunSingle executes the single-job variant: the caller already selected one
// posting, so ranking and review are skipped.
func (p *Runner) RunSingle(ctx context.Context, prof *types.Profile, rawJob map[string]any) (types.FinalReport, error) {
	state := p.startRun(ctx, prof)

	p.emit(state, StageNormalizing, "Normalizing job record", nil)
	posting, err := p.normalizer.One(rawJob)
	if err != nil {
		state.warnf("failed to normalize job record: %v", err)
		return p.finalize(ctx, state, report.Input{Warnings: state.warnings}), ctx.Err()
	}
	p.persist(ctx, state, db.StepPostings, db.CategoryNormalize, []types.Posting{posting})

	p.emit(state, StageExtractingSkills, "Extracting skills from posting", nil)
	skillsByPosting, extractErrs := p.extractor.Extract(ctx, []types.Posting{posting})
	for _, err := range extractErrs {
		state.warnf("skill extraction: %v", err)
	}
	p.persist(ctx, state, db.StepSkills, db.CategoryExtract, skillsByPosting)

	// The posting is carried into the report as a caller-selected match.
	match := types.Match{Posting: posting, Reasoning: "Selected directly; not ranked."}

	p.emit(state, StageAnalyzingGaps, "Analyzing skill gap", nil)
	gaps, gapErrs := p.analyzer.AnalyzeAll(ctx, prof, []types.Match{match}, skillsByPosting)
	for _, err := range gapErrs {
		state.warnf("gap analysis: %v", err)
	}
	p.persist(ctx, state, db.StepGaps, db.CategoryAnalysis, gaps)

	return p.finalize(ctx, state, report.Input{
		Matches:  []types.Match{match},
		Gaps:     gaps,
		Warnings: state.warnings,
	}), ctx.Err()
}

func (p *Runner) startRun(ctx context.Context, prof *types.Profile) *run {
	state := &run{}
	if p.opts.Store != nil {
		id, err := p.opts.Store.CreateRun(ctx, prof.Name, "")
		if err != nil {
			p.log.Warn("failed to create run record, continuing without persistence", zap.Error(err))
		} else {
			state.id = id
			p.persist(ctx, state, db.StepProfile, db.CategoryLifecycle, prof)
		}
	}
	return state
}

func (p *Runner) finalize(ctx context.Context, state *run, in report.Input) types.FinalReport {
	final := report.Build(in)
	p.persist(ctx, state, db.StepReport, db.CategoryReport, final)
	if p.opts.Store != nil && state.id != uuid.Nil {
		status := db.StatusCompleted
		if final.Empty() {
			status = db.StatusFailed
		}
		if err := p.opts.Store.CompleteRun(ctx, state.id, status); err != nil {
			p.log.Warn("failed to mark run complete", zap.Error(err))
		}
	}
	p.emit(state, StageFinalized, final.OverallSummary, final)
	return final
}

func (p *Runner) emit(state *run, stage Stage, message string, content any) {
	p.log.Info("pipeline stage", zap.String("stage", string(stage)), zap.String("message", message))
	if p.opts.OnProgress != nil {
		runID := ""
		if state.id != uuid.Nil {
			runID = state.id.String()
		}
		p.opts.OnProgress(ProgressEvent{
			Stage:   stage,
			Message: message,
			RunID:   runID,
			Content: content,
		})
	}
}

func (p *Runner) persist(ctx context.Context, state *run, step, category string, content any) {
	if p.opts.Store == nil || state.id == uuid.Nil {
		return
	}
	if err := p.opts.Store.SaveArtifact(ctx, state.id, step, category, content); err != nil {
		p.log.Warn("failed to persist artifact",
			zap.String("step", step),
			zap.Error(err))
	}
}

// defaultMatches is the ranking fallback: every posting gets a neutral score
// so downstream stages still have material to work with.
func defaultMatches(postings []types.Posting, topK int) []types.Match {
	if topK > 0 && len(postings) > topK {
		postings = postings[:topK]
	}
	matches := make([]types.Match, 0, len(postings))
	for _, posting := range postings {
		matches = append(matches, types.Match{
			Posting:   posting,
			Score:     0.5,
			Reasoning: "Ranking unavailable; default score assigned",
		})
	}
	return matches
}
