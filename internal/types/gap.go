package types

// GapResult is the skill-gap analysis for a single posting.
type GapResult struct {
	PostingID             string             `json:"posting_id"`
	PostingTitle          string             `json:"posting_title"`
	MatchedSkills         []string           `json:"matched_skills"`
	MissingRequiredSkills []string           `json:"missing_required_skills"`
	MissingSkillsWriteup  string             `json:"missing_skills_writeup,omitempty"` // narrative, at most 200 words
	NiceToHaveSkills      []string           `json:"nice_to_have_skills"`
	LearningPath          []string           `json:"learning_path"` // 3-5 ordered steps
	LearningResources     []LearningResource `json:"learning_resources"`
}

// LearningResource points at a concrete place to learn a skill.
// Two resources are considered identical when both name and URL match.
type LearningResource struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Type  string `json:"type"` // e.g. "university", "online_course", "certification"
	Skill string `json:"skill"`
}
