package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-matcher/internal/types"
)

func TestParseIntList(t *testing.T) {
	assert.Equal(t, []int{3, 17}, parseIntList("3, 17"))
	assert.Equal(t, []int{5}, parseIntList("5,abc,"))
	assert.Nil(t, parseIntList(""))
}

func TestCapRecords(t *testing.T) {
	records := []map[string]any{{"id": "1"}, {"id": "2"}, {"id": "3"}}

	assert.Len(t, capRecords(records, 2), 2)
	assert.Len(t, capRecords(records, 0), 3)
	assert.Len(t, capRecords(records, 10), 3)
}

func TestReadJobsFile_BareArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "1", "title": "Engineer"},
		{"id": "2", "title": "Analyst"}
	]`), 0644))

	records, err := readJobsFile(path, 0)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestReadJobsFile_Enveloped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"data": [{"id": "1", "title": "Engineer"}]
	}`), 0644))

	records, err := readJobsFile(path, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestReadJobsFile_Unrecognizable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"count": 3}`), 0644))

	_, err := readJobsFile(path, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recognizable job list")
}

func TestReadSingleJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id": "1", "title": "Engineer"}`), 0644))

	record, err := readSingleJob(path)
	require.NoError(t, err)
	assert.Equal(t, "1", record["id"])

	_, err = readSingleJob(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestWriteReport_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	report := types.FinalReport{OverallSummary: "No matching jobs found."}

	require.NoError(t, writeReport(report, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "No matching jobs found.")
}
