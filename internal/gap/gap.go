// Package gap produces per-posting skill-gap analyses for top matches.
package gap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/llm"
	"github.com/jonathan/job-matcher/internal/prompts"
	"github.com/jonathan/job-matcher/internal/types"
)

// Analyzer runs per-match gap analysis with a pause between calls.
type Analyzer struct {
	invoker llm.Caller
	delay   time.Duration
	log     *zap.Logger
	sleep   func(time.Duration)
}

// NewAnalyzer creates an Analyzer. delay is the pause inserted between
// consecutive matches on top of the invoker's own rate limiting.
func NewAnalyzer(invoker llm.Caller, delay time.Duration, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{
		invoker: invoker,
		delay:   delay,
		log:     log,
		sleep:   time.Sleep,
	}
}

// gapResponse is the wire shape of the model's gap analysis.
type gapResponse struct {
	MatchedSkills         []string      `json:"matched_skills"`
	MissingRequiredSkills []string      `json:"missing_required_skills"`
	Writeup               string        `json:"missing_required_skills_writeup"`
	NiceToHaveSkills      []string      `json:"nice_to_have_skills"`
	LearningPath          []string      `json:"suggested_learning_path"`
	LearningResources     []gapResource `json:"learning_resources"`
}

type gapResource struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Type  string `json:"type"`
	Skill string `json:"skill"`
}

// AnalyzeAll produces one GapResult per match, preserving match order.
// A match whose analysis fails is logged, reported in the error slice, and
// absent from the result.
func (a *Analyzer) AnalyzeAll(ctx context.Context, prof *types.Profile, matches []types.Match, skillsByPosting types.SkillsByPosting) ([]types.GapResult, []error) {
	results := make([]types.GapResult, 0, len(matches))
	var errs []error

	for i, match := range matches {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("gap analysis canceled at posting %s: %w", match.Posting.ID, err))
			return results, errs
		}
		if i > 0 && a.delay > 0 {
			a.sleep(a.delay)
		}

		result, err := a.Analyze(ctx, prof, match.Posting, skillsByPosting[match.Posting.ID])
		if err != nil {
			a.log.Warn("gap analysis failed for posting",
				zap.String("posting_id", match.Posting.ID),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("posting %s: %w", match.Posting.ID, err))
			continue
		}
		results = append(results, result)
	}

	return results, errs
}

// Analyze produces the gap analysis for a single posting.
func (a *Analyzer) Analyze(ctx context.Context, prof *types.Profile, posting types.Posting, skills types.ExtractedSkills) (types.GapResult, error) {
	candidateSkills := strings.Join(prof.Skills, ", ")
	if candidateSkills == "" {
		candidateSkills = "None specified"
	}

	prompt := prompts.Format(prompts.MustGet("analyze-gap"), map[string]string{
		"CandidateSkills": candidateSkills,
		"Title":           posting.Title,
		"Company":         posting.Company,
		"HardSkills":      strings.Join(skills.HardSkills, ", "),
		"SoftSkills":      strings.Join(skills.SoftSkills, ", "),
		"Tools":           strings.Join(skills.Tools, ", "),
		"Description":     posting.Description,
	})

	var resp gapResponse
	if err := a.invoker.InvokeJSON(ctx, llm.TierAdvanced, prompt, "gap_result", &resp); err != nil {
		return types.GapResult{}, err
	}

	resources := make([]types.LearningResource, 0, len(resp.LearningResources))
	for _, r := range resp.LearningResources {
		if r.Name == "" {
			continue
		}
		resources = append(resources, types.LearningResource(r))
	}

	return types.GapResult{
		PostingID:             posting.ID,
		PostingTitle:          posting.Title,
		MatchedSkills:         emptyIfNil(resp.MatchedSkills),
		MissingRequiredSkills: emptyIfNil(resp.MissingRequiredSkills),
		MissingSkillsWriteup:  resp.Writeup,
		NiceToHaveSkills:      emptyIfNil(resp.NiceToHaveSkills),
		LearningPath:          emptyIfNil(resp.LearningPath),
		LearningResources:     resources,
	}, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
