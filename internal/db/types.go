package db

import (
	"time"

	"github.com/google/uuid"
)

// Run represents a matching run record.
type Run struct {
	ID            uuid.UUID  `json:"id"`
	CandidateName string     `json:"candidate_name"`
	Query         string     `json:"query"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// Run status values.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ArtifactStep constants for known artifact types.
const (
	StepRunStarted = "run_started"
	StepProfile    = "profile"
	StepPostings   = "postings"
	StepSkills     = "extracted_skills"
	StepMatches    = "matches"
	StepGaps       = "skill_gaps"
	StepReview     = "review_outcome"
	StepReport     = "final_report"
)

// Category constants for grouping artifacts by pipeline phase.
const (
	CategoryLifecycle = "lifecycle"
	CategoryNormalize = "normalize"
	CategoryExtract   = "extraction"
	CategoryRanking   = "ranking"
	CategoryAnalysis  = "analysis"
	CategoryReview    = "review"
	CategoryReport    = "report"
)
