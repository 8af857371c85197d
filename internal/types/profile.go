// Package types provides type definitions for structured data used throughout the job-matcher system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"
)

// Profile represents a candidate profile, extracted from resume text or entered manually.
// A Profile is built once per pipeline run and never mutated by the pipeline.
type Profile struct {
	Name        string       `json:"name,omitempty"`
	Headline    string       `json:"headline,omitempty"`
	Summary     string       `json:"summary,omitempty"`
	Skills      []string     `json:"skills"`
	Experience  []Experience `json:"experience,omitempty"`
	Education   []Education  `json:"education,omitempty"`
	Preferences Preferences  `json:"preferences"`
}

// FlexString is a string that also decodes from a bare JSON number or null.
// Models quote durations and years inconsistently ("3 years", "3", 3).
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	*f = FlexString(strings.Trim(s, `"`))
	return nil
}

// Experience represents a single work experience record.
type Experience struct {
	Company          string     `json:"company"`
	Title            string     `json:"title"`
	Duration         FlexString `json:"duration,omitempty"`
	Responsibilities string     `json:"responsibilities,omitempty"`
}

// Education represents a single education record.
type Education struct {
	Institution string     `json:"institution"`
	Degree      string     `json:"degree,omitempty"`
	Field       string     `json:"field,omitempty"`
	Year        FlexString `json:"year,omitempty"`
}

// Preferences holds the candidate's search preferences.
type Preferences struct {
	TargetRoles     []string `json:"target_roles,omitempty"`
	ExperienceLevel string   `json:"experience_level,omitempty"` // e.g. "Junior", "Mid-Level", "Senior"
	Location        string   `json:"location,omitempty"`
	SalaryMin       int      `json:"salary_min,omitempty"`
	SalaryMax       int      `json:"salary_max,omitempty"`
	SalaryCurrency  string   `json:"salary_currency,omitempty"`
}

// SalaryText renders the salary expectation as a human-readable string,
// or "Not specified" when no bound is set.
func (p Preferences) SalaryText() string {
	currency := p.SalaryCurrency
	if currency == "" {
		currency = "SGD"
	}
	switch {
	case p.SalaryMin > 0 && p.SalaryMax > 0:
		return fmt.Sprintf("%s %d-%d", currency, p.SalaryMin, p.SalaryMax)
	case p.SalaryMin > 0:
		return fmt.Sprintf("%s %d+", currency, p.SalaryMin)
	case p.SalaryMax > 0:
		return fmt.Sprintf("%s up to %d", currency, p.SalaryMax)
	default:
		return "Not specified"
	}
}
