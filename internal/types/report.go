package types

// FinalReport is the consolidated result of a pipeline run. A run always
// produces one, even when every stage degraded to empty output.
type FinalReport struct {
	RankedJobs        []Match            `json:"ranked_jobs"`
	SkillGaps         []GapResult        `json:"skill_gaps"`
	Roadmap           []LearningResource `json:"roadmap"` // deduplicated, at most 10 entries
	OverallSummary    string             `json:"overall_summary"`
	Warnings          []string           `json:"warnings"`
	FlaggedPostingIDs []string           `json:"flagged_posting_ids,omitempty"`
}

// Empty reports whether the run produced no usable content.
func (r *FinalReport) Empty() bool {
	return len(r.RankedJobs) == 0 && len(r.SkillGaps) == 0 && len(r.Roadmap) == 0
}
