// Package config provides configuration loading and validation for the CLI
// and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the job matcher configuration that can be loaded from a
// JSON file. All fields are optional; missing values use defaults or must be
// provided via CLI flags.
type Config struct {
	// Inputs
	Resume  string `json:"resume,omitempty"`   // Path to resume/profile text file
	Profile string `json:"profile,omitempty"`  // Path to a pre-built profile JSON file
	Jobs    string `json:"jobs,omitempty"`     // Path to a JSON file of job postings
	JobsURL string `json:"jobs_url,omitempty"` // Base URL of the job postings API

	// Search filters forwarded to the postings API
	Query    string `json:"query,omitempty"`
	Category string `json:"category,omitempty"`
	MaxJobs  int    `json:"max_jobs,omitempty"`

	// Limits
	QuotaPerMinute    int `json:"quota_per_minute,omitempty"`      // LLM requests per model per minute
	MaxAttempts       int `json:"max_attempts,omitempty"`          // Total attempts per LLM call
	InterCallDelayMS  int `json:"inter_call_delay_ms,omitempty"`   // Pause between per-posting LLM calls
	QuickRankBatch    int `json:"quick_rank_batch,omitempty"`      // Postings per quick-rank prompt
	TopMatches        int `json:"top_matches,omitempty"`           // Matches carried into gap analysis
	JobAPIQuotaPerMin int `json:"job_api_quota_per_min,omitempty"` // Postings API requests per minute

	// Behavior
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	Verbose     bool   `json:"verbose,omitempty"`      // Print detailed debug information
	JSONLogs    bool   `json:"json_logs,omitempty"`    // Emit structured JSON logs
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL (optional)
	Output      string `json:"output,omitempty"`       // Path to write the final report JSON
}

// Default limits applied when neither the config file nor flags set them.
const (
	defaultQuotaPerMinute    = 10
	defaultMaxAttempts       = 3
	defaultInterCallDelayMS  = 500
	defaultQuickRankBatch    = 50
	defaultTopMatches        = 10
	defaultJobAPIQuotaPerMin = 60
)

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv fills credential fields from the environment when the config file
// and flags left them empty. GEMINI_API_KEY and DATABASE_URL are recognized.
func (c *Config) FromEnv() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	// Validate mutually exclusive fields
	if c.Resume != "" && c.Profile != "" {
		return fmt.Errorf("config error: 'resume' and 'profile' are mutually exclusive")
	}
	if c.Jobs != "" && c.JobsURL != "" {
		return fmt.Errorf("config error: 'jobs' and 'jobs_url' are mutually exclusive")
	}

	// Validate numeric ranges
	if c.QuotaPerMinute < 0 {
		return fmt.Errorf("config error: 'quota_per_minute' must be non-negative")
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("config error: 'max_attempts' must be non-negative")
	}
	if c.InterCallDelayMS < 0 {
		return fmt.Errorf("config error: 'inter_call_delay_ms' must be non-negative")
	}
	if c.QuickRankBatch < 0 {
		return fmt.Errorf("config error: 'quick_rank_batch' must be non-negative")
	}
	if c.MaxJobs < 0 {
		return fmt.Errorf("config error: 'max_jobs' must be non-negative")
	}

	// Validate file paths exist (if specified)
	for name, path := range map[string]string{
		"resume":  c.Resume,
		"profile": c.Profile,
		"jobs":    c.Jobs,
	} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("config error: %s file not found: %s", name, path)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults, and built-in limits applied where both sides are zero.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Resume == "" {
		result.Resume = defaults.Resume
	}
	if result.Profile == "" {
		result.Profile = defaults.Profile
	}
	if result.Jobs == "" {
		result.Jobs = defaults.Jobs
	}
	if result.JobsURL == "" {
		result.JobsURL = defaults.JobsURL
	}
	if result.Query == "" {
		result.Query = defaults.Query
	}
	if result.Category == "" {
		result.Category = defaults.Category
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Output == "" {
		result.Output = defaults.Output
	}

	// Int fields: use default if zero, built-in limit if both are zero
	merge := func(val, def, builtin int) int {
		if val != 0 {
			return val
		}
		if def != 0 {
			return def
		}
		return builtin
	}
	result.MaxJobs = merge(result.MaxJobs, defaults.MaxJobs, 0)
	result.QuotaPerMinute = merge(result.QuotaPerMinute, defaults.QuotaPerMinute, defaultQuotaPerMinute)
	result.MaxAttempts = merge(result.MaxAttempts, defaults.MaxAttempts, defaultMaxAttempts)
	result.InterCallDelayMS = merge(result.InterCallDelayMS, defaults.InterCallDelayMS, defaultInterCallDelayMS)
	result.QuickRankBatch = merge(result.QuickRankBatch, defaults.QuickRankBatch, defaultQuickRankBatch)
	result.TopMatches = merge(result.TopMatches, defaults.TopMatches, defaultTopMatches)
	result.JobAPIQuotaPerMin = merge(result.JobAPIQuotaPerMin, defaults.JobAPIQuotaPerMin, defaultJobAPIQuotaPerMin)

	// Bool fields: true wins
	result.Verbose = result.Verbose || defaults.Verbose
	result.JSONLogs = result.JSONLogs || defaults.JSONLogs

	return result
}
