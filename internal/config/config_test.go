package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	path := writeTempConfig(t, `{
		"resume": "resume.txt",
		"query": "data engineer",
		"quota_per_minute": 5,
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "resume.txt", cfg.Resume)
	assert.Equal(t, "data engineer", cfg.Query)
	assert.Equal(t, 5, cfg.QuotaPerMinute)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err, "empty path should error")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err, "missing file should error")

	path := writeTempConfig(t, `{not json`)
	_, err = LoadConfig(path)
	assert.Error(t, err, "malformed JSON should error")
}

func TestValidate_MutuallyExclusive(t *testing.T) {
	cfg := &Config{Resume: "a.txt", Profile: "b.json"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")

	cfg = &Config{Jobs: "jobs.json", JobsURL: "https://example.com"}
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestValidate_NegativeLimits(t *testing.T) {
	cfg := &Config{QuotaPerMinute: -1}
	assert.Error(t, cfg.Validate())

	cfg = &Config{InterCallDelayMS: -500}
	assert.Error(t, cfg.Validate())
}

func TestValidate_MissingInputFile(t *testing.T) {
	cfg := &Config{Resume: filepath.Join(t.TempDir(), "nope.txt")}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resume file not found")
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{Query: "backend", QuotaPerMinute: 3}
	defaults := Config{Query: "ignored", Category: "IT", Output: "report.json"}

	merged := cfg.MergeWithDefaults(defaults)

	assert.Equal(t, "backend", merged.Query, "explicit value wins over default")
	assert.Equal(t, "IT", merged.Category, "empty field filled from default")
	assert.Equal(t, "report.json", merged.Output)
	assert.Equal(t, 3, merged.QuotaPerMinute, "explicit limit preserved")
	assert.Equal(t, 3, merged.MaxAttempts, "built-in limit applied when unset")
	assert.Equal(t, 500, merged.InterCallDelayMS)
	assert.Equal(t, 50, merged.QuickRankBatch)
	assert.Equal(t, 10, merged.TopMatches)
	assert.Equal(t, 60, merged.JobAPIQuotaPerMin)
	assert.Equal(t, 0, merged.MaxJobs, "max_jobs has no built-in cap")
}

func TestFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("DATABASE_URL", "postgres://env")

	cfg := &Config{}
	cfg.FromEnv()
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "postgres://env", cfg.DatabaseURL)

	cfg = &Config{APIKey: "explicit"}
	cfg.FromEnv()
	assert.Equal(t, "explicit", cfg.APIKey, "explicit key not overwritten")
}
