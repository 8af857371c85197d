// Package report consolidates stage outputs into the final run report.
// Everything here is pure: no LLM calls, no I/O.
package report

import (
	"fmt"
	"strings"

	"github.com/jonathan/job-matcher/internal/types"
)

// maxRoadmapEntries caps the aggregated upskilling roadmap.
const maxRoadmapEntries = 10

// maxSummaryMatches caps the matches listed in the summary text.
const maxSummaryMatches = 5

// Input carries everything the aggregator consolidates.
type Input struct {
	Matches  []types.Match
	Gaps     []types.GapResult
	Review   types.ReviewOutcome
	Warnings []string // run-level warnings accumulated by the orchestrator
}

// Build assembles the final report. The same input always produces the same
// report.
func Build(in Input) types.FinalReport {
	warnings := make([]string, 0, len(in.Warnings)+len(in.Review.Warnings))
	warnings = append(warnings, in.Warnings...)
	warnings = append(warnings, in.Review.Warnings...)

	flagged := in.Review.FlaggedPostingIDs
	if flagged == nil {
		flagged = []string{}
	}

	return types.FinalReport{
		RankedJobs:        in.Matches,
		SkillGaps:         in.Gaps,
		Roadmap:           buildRoadmap(in.Gaps),
		OverallSummary:    buildSummary(in.Matches, len(flagged)),
		Warnings:          warnings,
		FlaggedPostingIDs: flagged,
	}
}

// buildRoadmap merges learning resources across gaps, deduplicated by
// (name, URL) in first-seen order and capped at maxRoadmapEntries.
func buildRoadmap(gaps []types.GapResult) []types.LearningResource {
	roadmap := make([]types.LearningResource, 0, maxRoadmapEntries)
	seen := make(map[string]struct{})

	for _, gap := range gaps {
		for _, resource := range gap.LearningResources {
			if resource.Name == "" {
				continue
			}
			key := strings.ToLower(strings.TrimSpace(resource.Name)) + "|" + strings.ToLower(strings.TrimSpace(resource.URL))
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			roadmap = append(roadmap, resource)
			if len(roadmap) == maxRoadmapEntries {
				return roadmap
			}
		}
	}
	return roadmap
}

// buildSummary renders a deterministic overview from counts alone.
func buildSummary(matches []types.Match, flaggedCount int) string {
	if len(matches) == 0 {
		return "No matching jobs found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d job recommendations based on your profile.\n\nTop matches:\n", len(matches))

	top := matches
	if len(top) > maxSummaryMatches {
		top = top[:maxSummaryMatches]
	}
	for _, m := range top {
		fmt.Fprintf(&b, "- %s at %s (Match: %.0f%%)\n", m.Posting.Title, m.Posting.Company, m.Score*100)
	}

	if flaggedCount > 0 {
		fmt.Fprintf(&b, "\n%d recommendation(s) were flagged during review.", flaggedCount)
	}
	return strings.TrimRight(b.String(), "\n")
}
