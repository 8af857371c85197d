// Package review runs a quality check over matches and gap analyses,
// flagging hallucinated skills and obvious mismatches.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/llm"
	"github.com/jonathan/job-matcher/internal/prompts"
	"github.com/jonathan/job-matcher/internal/types"
)

const (
	// maxMatchesReviewed bounds the review prompt to the top matches.
	maxMatchesReviewed = 20
	// maxSkillsPerSummary truncates skill lists in match summaries.
	maxSkillsPerSummary = 5
)

// Reviewer asks the LLM to audit a set of recommendations.
type Reviewer struct {
	invoker llm.Caller
	log     *zap.Logger
}

// NewReviewer creates a Reviewer. A nil logger disables logging.
func NewReviewer(invoker llm.Caller, log *zap.Logger) *Reviewer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reviewer{invoker: invoker, log: log}
}

// matchSummary is the compact per-match view embedded in the review prompt.
type matchSummary struct {
	JobID         string   `json:"job_id"`
	Title         string   `json:"title"`
	Company       string   `json:"company"`
	Location      string   `json:"location"`
	Salary        string   `json:"salary"`
	MatchScore    float64  `json:"match_score"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
}

// reviewResponse is the wire shape of the review verdict; ids may come back
// as strings or numbers.
type reviewResponse struct {
	Warnings    []string     `json:"warnings"`
	FlaggedIDs  []flexID     `json:"flagged_job_ids"`
	Corrections []correction `json:"corrections"`
}

type correction struct {
	PostingID  flexID `json:"posting_id"`
	Field      string `json:"field"`
	Suggestion string `json:"suggestion"`
}

type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	*f = flexID(strings.Trim(string(b), `"`))
	return nil
}

// Review audits the top matches against the profile. An empty match list
// short-circuits to an empty outcome without an LLM call.
func (r *Reviewer) Review(ctx context.Context, prof *types.Profile, matches []types.Match, gaps []types.GapResult) (types.ReviewOutcome, error) {
	outcome := types.ReviewOutcome{
		Warnings:          []string{},
		FlaggedPostingIDs: []string{},
	}
	if len(matches) == 0 {
		return outcome, nil
	}

	candidateSkills := strings.Join(prof.Skills, ", ")
	if candidateSkills == "" {
		candidateSkills = "None"
	}
	experienceLevel := prof.Preferences.ExperienceLevel
	if experienceLevel == "" {
		experienceLevel = "Not specified"
	}
	location := prof.Preferences.Location
	if location == "" {
		location = "Not specified"
	}

	prompt := prompts.Format(prompts.MustGet("review-matches"), map[string]string{
		"CandidateSkills": candidateSkills,
		"ExperienceLevel": experienceLevel,
		"Location":        location,
		"SalaryText":      prof.Preferences.SalaryText(),
		"MatchSummaries":  summariesJSON(matches, gaps),
	})

	var resp reviewResponse
	if err := r.invoker.InvokeJSON(ctx, llm.TierStandard, prompt, "review_outcome", &resp); err != nil {
		return outcome, fmt.Errorf("review failed: %w", err)
	}

	if resp.Warnings != nil {
		outcome.Warnings = resp.Warnings
	}
	for _, id := range resp.FlaggedIDs {
		if id != "" {
			outcome.FlaggedPostingIDs = append(outcome.FlaggedPostingIDs, string(id))
		}
	}
	for _, c := range resp.Corrections {
		if c.Suggestion == "" {
			continue
		}
		outcome.Corrections = append(outcome.Corrections, types.Correction{
			PostingID:  string(c.PostingID),
			Field:      c.Field,
			Suggestion: c.Suggestion,
		})
	}
	return outcome, nil
}

func summariesJSON(matches []types.Match, gaps []types.GapResult) string {
	if len(matches) > maxMatchesReviewed {
		matches = matches[:maxMatchesReviewed]
	}

	gapByID := make(map[string]types.GapResult, len(gaps))
	for _, g := range gaps {
		gapByID[g.PostingID] = g
	}

	summaries := make([]matchSummary, 0, len(matches))
	for _, m := range matches {
		summary := matchSummary{
			JobID:         m.Posting.ID,
			Title:         m.Posting.Title,
			Company:       m.Posting.Company,
			Location:      orDefault(m.Posting.Location, "Not specified"),
			Salary:        orDefault(m.Posting.SalaryText, "Not specified"),
			MatchScore:    m.Score,
			MatchedSkills: []string{},
			MissingSkills: []string{},
		}
		if g, ok := gapByID[m.Posting.ID]; ok {
			summary.MatchedSkills = capList(g.MatchedSkills)
			summary.MissingSkills = capList(g.MissingRequiredSkills)
		}
		summaries = append(summaries, summary)
	}

	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func capList(skills []string) []string {
	if len(skills) > maxSkillsPerSummary {
		return skills[:maxSkillsPerSummary]
	}
	if skills == nil {
		return []string{}
	}
	return skills
}
