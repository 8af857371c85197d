package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/job-matcher/internal/types"
)

// GetFinalReportByRunID loads the final report artifact for a run.
// A run without a stored report returns (nil, nil).
func (db *DB) GetFinalReportByRunID(ctx context.Context, runID uuid.UUID) (*types.FinalReport, error) {
	content, err := db.GetArtifact(ctx, runID, StepReport)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, nil
	}

	var report types.FinalReport
	if err := json.Unmarshal(content, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal final report: %w", err)
	}
	return &report, nil
}

// GetProfileByRunID loads the candidate profile artifact for a run.
func (db *DB) GetProfileByRunID(ctx context.Context, runID uuid.UUID) (*types.Profile, error) {
	content, err := db.GetArtifact(ctx, runID, StepProfile)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, nil
	}

	var profile types.Profile
	if err := json.Unmarshal(content, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &profile, nil
}

// GetPostingsByRunID loads the normalized postings artifact for a run.
func (db *DB) GetPostingsByRunID(ctx context.Context, runID uuid.UUID) ([]types.Posting, error) {
	content, err := db.GetArtifact(ctx, runID, StepPostings)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, nil
	}

	var postings []types.Posting
	if err := json.Unmarshal(content, &postings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal postings: %w", err)
	}
	return postings, nil
}
