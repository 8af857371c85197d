package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envWithout(key string) []string {
	var env []string
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, key+"=") {
			env = append(env, e)
		}
	}
	return env
}

func TestMatchCommand_MissingInputs(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "match")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "either --profile or --resume must be provided")
}

func TestMatchCommand_MissingJobs(t *testing.T) {
	binaryPath := getBinaryPath(t)

	profileFile := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(profileFile, []byte(`{"name": "Jane", "skills": ["Go"]}`), 0644))

	cmd := exec.Command(binaryPath, "match", "--profile", profileFile)
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "either --jobs or --jobs-url must be provided")
}

func TestMatchCommand_MissingAPIKey(t *testing.T) {
	binaryPath := getBinaryPath(t)

	tmpDir := t.TempDir()
	profileFile := filepath.Join(tmpDir, "profile.json")
	require.NoError(t, os.WriteFile(profileFile, []byte(`{"name": "Jane", "skills": ["Go"]}`), 0644))
	jobsFile := filepath.Join(tmpDir, "jobs.json")
	require.NoError(t, os.WriteFile(jobsFile, []byte(`[{"id": "1", "title": "Engineer"}]`), 0644))

	cmd := exec.Command(binaryPath, "match", "--profile", profileFile, "--jobs", jobsFile)
	cmd.Env = envWithout("GEMINI_API_KEY")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "GEMINI_API_KEY environment variable or --api-key flag is required")
}

func TestMatchCommand_MutuallyExclusiveInputs(t *testing.T) {
	binaryPath := getBinaryPath(t)

	tmpDir := t.TempDir()
	profileFile := filepath.Join(tmpDir, "profile.json")
	require.NoError(t, os.WriteFile(profileFile, []byte(`{"name": "Jane", "skills": ["Go"]}`), 0644))
	resumeFile := filepath.Join(tmpDir, "resume.txt")
	require.NoError(t, os.WriteFile(resumeFile, []byte("Jane. Go developer."), 0644))

	cmd := exec.Command(binaryPath, "match", "--profile", profileFile, "--resume", resumeFile)
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "mutually exclusive")
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "token")
	cmd.Env = envWithout("JWT_SECRET")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "JWT_SECRET environment variable is required")
}
