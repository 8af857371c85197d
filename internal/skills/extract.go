// Package skills extracts the skill requirements of each job posting via
// the LLM.
package skills

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/llm"
	"github.com/jonathan/job-matcher/internal/prompts"
	"github.com/jonathan/job-matcher/internal/types"
)

// maxDescriptionChars bounds the description text sent per posting.
const maxDescriptionChars = 3000

// Extractor runs per-posting skill extraction with a pause between calls.
type Extractor struct {
	invoker llm.Caller
	delay   time.Duration
	log     *zap.Logger
	sleep   func(time.Duration)
}

// NewExtractor creates an Extractor. delay is the pause inserted between
// consecutive postings on top of the invoker's own rate limiting.
func NewExtractor(invoker llm.Caller, delay time.Duration, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{
		invoker: invoker,
		delay:   delay,
		log:     log,
		sleep:   time.Sleep,
	}
}

// Extract returns extracted skills keyed by posting ID. A posting whose
// extraction fails is logged, reported in the returned error slice, and
// absent from the result; one bad posting never fails the batch.
func (e *Extractor) Extract(ctx context.Context, postings []types.Posting) (types.SkillsByPosting, []error) {
	results := make(types.SkillsByPosting, len(postings))
	var errs []error

	for i, posting := range postings {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("skill extraction canceled at posting %s: %w", posting.ID, err))
			return results, errs
		}
		if i > 0 && e.delay > 0 {
			e.sleep(e.delay)
		}

		extracted, err := e.extractOne(ctx, posting)
		if err != nil {
			e.log.Warn("skill extraction failed for posting",
				zap.String("posting_id", posting.ID),
				zap.String("title", posting.Title),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("posting %s: %w", posting.ID, err))
			continue
		}
		results[posting.ID] = extracted
	}

	return results, errs
}

func (e *Extractor) extractOne(ctx context.Context, posting types.Posting) (types.ExtractedSkills, error) {
	description := prompts.Truncate(posting.Description, maxDescriptionChars)

	prompt := prompts.Format(prompts.MustGet("extract-skills"), map[string]string{
		"Title":       posting.Title,
		"Company":     posting.Company,
		"Description": description,
	})

	var extracted types.ExtractedSkills
	if err := e.invoker.InvokeJSON(ctx, llm.TierLite, prompt, "extracted_skills", &extracted); err != nil {
		return types.ExtractedSkills{}, err
	}
	return extracted, nil
}
