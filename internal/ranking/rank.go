// Package ranking scores job postings against a candidate profile.
package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/llm"
	"github.com/jonathan/job-matcher/internal/profile"
	"github.com/jonathan/job-matcher/internal/prompts"
	"github.com/jonathan/job-matcher/internal/types"
)

const (
	// maxJobsPerPrompt bounds a single ranking prompt to stay under token
	// limits.
	maxJobsPerPrompt = 50
	// maxDescriptionChars truncates each posting's description in summaries.
	maxDescriptionChars = 500
	// maxSkillsPerList truncates each skill list in summaries.
	maxSkillsPerList = 10
)

// Ranker asks the LLM to score postings against a profile.
type Ranker struct {
	invoker llm.Caller
	log     *zap.Logger
}

// NewRanker creates a Ranker. A nil logger disables logging.
func NewRanker(invoker llm.Caller, log *zap.Logger) *Ranker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ranker{invoker: invoker, log: log}
}

// jobSummary is the compact posting view embedded in ranking prompts.
type jobSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
	Skills      string `json:"skills,omitempty"`
}

// rankEntry is one element of the model's ranking response. Job IDs come
// back as strings or numbers depending on the model's mood.
type rankEntry struct {
	JobID     flexID  `json:"job_id"`
	Score     float64 `json:"match_score"`
	Reasoning string  `json:"reasoning"`
}

type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	*f = flexID(strings.Trim(string(b), `"`))
	return nil
}

// Rank scores up to maxJobsPerPrompt postings against the profile and
// returns matches sorted by score descending, capped at topK (topK <= 0
// means no cap). Postings the model omits are absent from the result.
// Equal scores keep the original posting order.
func (r *Ranker) Rank(ctx context.Context, prof *types.Profile, postings []types.Posting, skillsByPosting types.SkillsByPosting, topK int) ([]types.Match, error) {
	if len(postings) == 0 {
		return nil, nil
	}

	prompt := prompts.Format(prompts.MustGet("rank-full"), map[string]string{
		"ProfileSummary": profile.Summary(prof),
		"JobSummaries":   summariesJSON(postings, skillsByPosting),
	})

	var entries []rankEntry
	if err := r.invoker.InvokeJSON(ctx, llm.TierStandard, prompt, "matches", &entries); err != nil {
		return nil, fmt.Errorf("ranking failed: %w", err)
	}

	scored := make(map[string]rankEntry, len(entries))
	for _, entry := range entries {
		if entry.JobID != "" {
			scored[string(entry.JobID)] = entry
		}
	}

	matches := make([]types.Match, 0, len(postings))
	for _, posting := range postings {
		entry, ok := scored[posting.ID]
		if !ok {
			r.log.Debug("posting missing from ranking response",
				zap.String("posting_id", posting.ID))
			continue
		}
		reasoning := entry.Reasoning
		if reasoning == "" {
			reasoning = "No reasoning provided"
		}
		matches = append(matches, types.Match{
			Posting:   posting,
			Score:     types.ClampScore(entry.Score),
			Reasoning: reasoning,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// summariesJSON renders the compact posting summaries block for prompts.
func summariesJSON(postings []types.Posting, skillsByPosting types.SkillsByPosting) string {
	if len(postings) > maxJobsPerPrompt {
		postings = postings[:maxJobsPerPrompt]
	}

	summaries := make([]jobSummary, 0, len(postings))
	for _, posting := range postings {
		summaries = append(summaries, jobSummary{
			ID:          posting.ID,
			Title:       posting.Title,
			Company:     posting.Company,
			Description: prompts.Truncate(posting.Description, maxDescriptionChars),
			Skills:      skillsText(skillsByPosting[posting.ID]),
		})
	}

	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}

func skillsText(skills types.ExtractedSkills) string {
	seniority := skills.Seniority
	if seniority == "" {
		seniority = "Not specified"
	}
	return fmt.Sprintf("Hard Skills: %s\nSoft Skills: %s\nTools: %s\nSeniority: %s",
		joinCapped(skills.HardSkills),
		joinCapped(skills.SoftSkills),
		joinCapped(skills.Tools),
		seniority)
}

func joinCapped(skills []string) string {
	if len(skills) > maxSkillsPerList {
		skills = skills[:maxSkillsPerList]
	}
	return strings.Join(skills, ", ")
}
