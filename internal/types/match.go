package types

// Match pairs a posting with its relevance to the candidate profile.
type Match struct {
	Posting   Posting `json:"posting"`
	Score     float64 `json:"match_score"` // always in [0.0, 1.0]
	Reasoning string  `json:"reasoning"`
}

// ClampScore bounds a model-reported score to the valid [0.0, 1.0] range.
func ClampScore(score float64) float64 {
	if score < 0.0 {
		return 0.0
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}
