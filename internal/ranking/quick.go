package ranking

import (
	"context"
	"fmt"

	"github.com/jonathan/job-matcher/internal/llm"
	"github.com/jonathan/job-matcher/internal/profile"
	"github.com/jonathan/job-matcher/internal/prompts"
	"github.com/jonathan/job-matcher/internal/types"
)

// quickEntry is one score-only element of a quick-rank response.
type quickEntry struct {
	JobID flexID  `json:"job_id"`
	Score float64 `json:"match_score"`
}

// QuickRank scores postings in batches without reasoning text, using the
// cheaper model tier. batchSize <= 0 uses maxJobsPerPrompt. The result maps
// posting ID to a clamped score; postings the model omitted are absent.
func (r *Ranker) QuickRank(ctx context.Context, prof *types.Profile, postings []types.Posting, batchSize int) (map[string]float64, error) {
	if len(postings) == 0 {
		return map[string]float64{}, nil
	}
	if batchSize <= 0 {
		batchSize = maxJobsPerPrompt
	}

	profileSummary := profile.Summary(prof)
	scores := make(map[string]float64, len(postings))

	for start := 0; start < len(postings); start += batchSize {
		end := start + batchSize
		if end > len(postings) {
			end = len(postings)
		}
		batch := postings[start:end]

		prompt := prompts.Format(prompts.MustGet("rank-quick"), map[string]string{
			"ProfileSummary": profileSummary,
			"JobSummaries":   summariesJSON(batch, nil),
		})

		var entries []quickEntry
		if err := r.invoker.InvokeJSON(ctx, llm.TierLite, prompt, "quick_rank", &entries); err != nil {
			return scores, fmt.Errorf("quick rank batch %d-%d failed: %w", start, end, err)
		}
		for _, entry := range entries {
			if entry.JobID != "" {
				scores[string(entry.JobID)] = types.ClampScore(entry.Score)
			}
		}
	}

	return scores, nil
}
