package types

// Posting represents a normalized job posting. The ID is unique and stable
// within a pipeline run; every downstream artifact references postings by it.
type Posting struct {
	ID          string `json:"id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Company     string `json:"company" validate:"required"`
	Location    string `json:"location,omitempty"`
	SalaryText  string `json:"salary_text,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description" validate:"required"`
	URL         string `json:"url,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// ExtractedSkills holds the skills extracted from a single posting.
// The string slices are sets: ordering carries no meaning.
type ExtractedSkills struct {
	HardSkills []string `json:"hard_skills"`
	SoftSkills []string `json:"soft_skills"`
	Tools      []string `json:"tools"`
	Seniority  string   `json:"seniority,omitempty"`
}

// SkillsByPosting maps posting IDs to their extraction results. A posting
// whose extraction failed is simply absent from the map.
type SkillsByPosting map[string]ExtractedSkills
