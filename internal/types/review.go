package types

// ReviewOutcome is the quality-review verdict over a batch of matches and gaps.
type ReviewOutcome struct {
	Warnings          []string     `json:"warnings"`
	FlaggedPostingIDs []string     `json:"flagged_posting_ids"`
	Corrections       []Correction `json:"corrections,omitempty"`
}

// Correction is a suggested fix for a flagged recommendation.
type Correction struct {
	PostingID  string `json:"posting_id"`
	Field      string `json:"field,omitempty"`
	Suggestion string `json:"suggestion"`
}

// Flagged reports whether the given posting ID was flagged by the review.
func (r *ReviewOutcome) Flagged(postingID string) bool {
	for _, id := range r.FlaggedPostingIDs {
		if id == postingID {
			return true
		}
	}
	return false
}
