package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/config"
	"github.com/jonathan/job-matcher/internal/jobsource"
	"github.com/jonathan/job-matcher/internal/llm"
	"github.com/jonathan/job-matcher/internal/profile"
	"github.com/jonathan/job-matcher/internal/types"
)

// recordsPerPage is the page size the postings API serves; used to turn a
// max-jobs budget into a page count.
const recordsPerPage = 50

// buildInvoker constructs the rate-limited LLM caller every stage goes through.
func buildInvoker(ctx context.Context, cfg config.Config, log *zap.Logger) (llm.Caller, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return llm.NewInvoker(client, llm.InvokerOptions{
		QuotaPerMinute: cfg.QuotaPerMinute,
		MaxAttempts:    cfg.MaxAttempts,
	}, log), nil
}

// loadProfile returns the candidate profile, either parsed from a profile
// JSON file or extracted from resume text with one LLM call.
func loadProfile(ctx context.Context, cfg config.Config, invoker llm.Caller) (*types.Profile, error) {
	switch {
	case cfg.Profile != "":
		return profile.Load(cfg.Profile)
	case cfg.Resume != "":
		text, err := os.ReadFile(cfg.Resume)
		if err != nil {
			return nil, fmt.Errorf("failed to read resume file: %w", err)
		}
		return profile.Extract(ctx, string(text), invoker)
	default:
		return nil, fmt.Errorf("either --profile or --resume must be provided (via flag or config)")
	}
}

// loadJobs returns raw job records, either from a JSON file or fetched from
// the postings API.
func loadJobs(ctx context.Context, cfg config.Config, log *zap.Logger) ([]map[string]any, error) {
	switch {
	case cfg.Jobs != "":
		return readJobsFile(cfg.Jobs, cfg.MaxJobs)
	case cfg.JobsURL != "":
		return fetchJobs(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("either --jobs or --jobs-url must be provided (via flag or config)")
	}
}

// readJobsFile parses a JSON file of job records. The file may hold a bare
// array or any of the envelope shapes the postings API serves.
func readJobsFile(path string, maxJobs int) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs file: %w", err)
	}

	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse jobs file %s: %w", path, err)
	}

	records := jobsource.ExtractRecords(payload)
	if records == nil {
		return nil, fmt.Errorf("jobs file %s has no recognizable job list", path)
	}
	return capRecords(records, maxJobs), nil
}

func fetchJobs(ctx context.Context, cfg config.Config, log *zap.Logger) ([]map[string]any, error) {
	client := jobsource.NewClient(cfg.JobsURL, cfg.JobAPIQuotaPerMin, log)

	params := jobsource.SearchParams{
		Keywords:      cfg.Query,
		JobCategories: parseIntList(cfg.Category),
	}

	maxPages := 1
	if cfg.MaxJobs > 0 {
		maxPages = (cfg.MaxJobs + recordsPerPage - 1) / recordsPerPage
	}

	records, err := client.FetchAll(ctx, maxPages, params)
	if err != nil {
		return nil, err
	}
	return capRecords(records, cfg.MaxJobs), nil
}

func capRecords(records []map[string]any, maxJobs int) []map[string]any {
	if maxJobs > 0 && len(records) > maxJobs {
		return records[:maxJobs]
	}
	return records
}

// parseIntList parses a comma-separated list of numeric IDs, skipping
// anything non-numeric.
func parseIntList(s string) []int {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			ids = append(ids, n)
		}
	}
	return ids
}

// writeReport writes the final report as indented JSON to the output path,
// or stdout when no path is set.
func writeReport(report types.FinalReport, outputPath string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if outputPath == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", outputPath, err)
	}
	fmt.Printf("Report written to %s\n", outputPath)
	return nil
}
