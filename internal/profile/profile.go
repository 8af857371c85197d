// Package profile builds the candidate profile that drives ranking and gap
// analysis, either from a resume text file via the LLM or from a pre-built
// profile JSON file.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/job-matcher/internal/llm"
	"github.com/jonathan/job-matcher/internal/prompts"
	"github.com/jonathan/job-matcher/internal/types"
)

// maxResumeChars bounds the resume text sent to the model.
const maxResumeChars = 4000

// Extract asks the LLM to turn free-form resume text into a structured
// candidate profile.
func Extract(ctx context.Context, resumeText string, invoker llm.Caller) (*types.Profile, error) {
	text := strings.TrimSpace(resumeText)
	if text == "" {
		return nil, fmt.Errorf("resume text is empty")
	}
	text = prompts.Truncate(text, maxResumeChars)

	prompt := prompts.Format(prompts.MustGet("extract-profile"), map[string]string{
		"ResumeText": text,
	})

	var p types.Profile
	if err := invoker.InvokeJSON(ctx, llm.TierStandard, prompt, "profile", &p); err != nil {
		return nil, fmt.Errorf("profile extraction failed: %w", err)
	}

	if p.Name == "" {
		p.Name = "Candidate"
	}
	return &p, nil
}

// Load reads a pre-built profile from a JSON file.
func Load(path string) (*types.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file %s: %w", path, err)
	}

	var p types.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile JSON: %w", err)
	}
	if len(p.Skills) == 0 {
		return nil, fmt.Errorf("profile %s lists no skills", path)
	}
	return &p, nil
}

// Summary renders the profile as a compact plain-text block for ranking and
// review prompts.
func Summary(p *types.Profile) string {
	var b strings.Builder

	if p.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", p.Name)
	}
	if p.Headline != "" {
		fmt.Fprintf(&b, "Headline: %s\n", p.Headline)
	}
	if len(p.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(p.Skills, ", "))
	}

	for _, exp := range p.Experience {
		line := exp.Title
		if exp.Company != "" {
			line += " at " + exp.Company
		}
		if exp.Duration != "" {
			line += " (" + string(exp.Duration) + ")"
		}
		fmt.Fprintf(&b, "Experience: %s\n", line)
	}
	for _, edu := range p.Education {
		line := edu.Degree
		if edu.Institution != "" {
			line += ", " + edu.Institution
		}
		fmt.Fprintf(&b, "Education: %s\n", line)
	}

	prefs := p.Preferences
	if len(prefs.TargetRoles) > 0 {
		fmt.Fprintf(&b, "Target roles: %s\n", strings.Join(prefs.TargetRoles, ", "))
	}
	if prefs.ExperienceLevel != "" {
		fmt.Fprintf(&b, "Experience level: %s\n", prefs.ExperienceLevel)
	}
	if prefs.Location != "" {
		fmt.Fprintf(&b, "Preferred location: %s\n", prefs.Location)
	}
	fmt.Fprintf(&b, "Salary expectation: %s\n", prefs.SalaryText())

	return strings.TrimRight(b.String(), "\n")
}
