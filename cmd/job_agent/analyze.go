package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-matcher/internal/config"
	"github.com/jonathan/job-matcher/internal/db"
	"github.com/jonathan/job-matcher/internal/logger"
	"github.com/jonathan/job-matcher/internal/pipeline"
)

var analyzeCommand = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a single job posting against the candidate profile",
	Long:  `Runs the single-posting variant of the pipeline: normalize the posting, extract its required skills, and produce a gap analysis. No ranking or review.`,
	RunE:  runAnalyzeCmd,
}

var (
	analyzeResume      string
	analyzeProfile     string
	analyzeJob         string
	analyzeAPIKey      string
	analyzeDatabaseURL string
	analyzeOutput      string
	analyzeVerbose     bool
	analyzeJSONLogs    bool
)

func init() {
	analyzeCommand.Flags().StringVarP(&analyzeResume, "resume", "r", "", "Path to resume text file (mutually exclusive with --profile)")
	analyzeCommand.Flags().StringVarP(&analyzeProfile, "profile", "p", "", "Path to profile JSON file (mutually exclusive with --resume)")
	analyzeCommand.Flags().StringVarP(&analyzeJob, "job", "j", "", "Path to a JSON file holding one job posting (required)")
	analyzeCommand.Flags().StringVar(&analyzeAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	analyzeCommand.Flags().StringVar(&analyzeDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	analyzeCommand.Flags().StringVarP(&analyzeOutput, "output", "o", "", "Path to write the report JSON (default: stdout)")
	analyzeCommand.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Print detailed debug information")
	analyzeCommand.Flags().BoolVar(&analyzeJSONLogs, "json-logs", false, "Emit structured JSON logs")
	_ = analyzeCommand.MarkFlagRequired("job")

	rootCmd.AddCommand(analyzeCommand)
}

func runAnalyzeCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg := config.Config{
		Resume:      analyzeResume,
		Profile:     analyzeProfile,
		APIKey:      analyzeAPIKey,
		DatabaseURL: analyzeDatabaseURL,
		Output:      analyzeOutput,
		Verbose:     analyzeVerbose,
		JSONLogs:    analyzeJSONLogs,
	}
	cfg.FromEnv()
	cfg = cfg.MergeWithDefaults(config.Config{})
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Resume == "" && cfg.Profile == "" {
		return fmt.Errorf("either --profile or --resume must be provided")
	}

	log, err := logger.New(cfg.JSONLogs, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	invoker, err := buildInvoker(ctx, cfg, log)
	if err != nil {
		return err
	}

	rawJob, err := readSingleJob(analyzeJob)
	if err != nil {
		return err
	}

	prof, err := loadProfile(ctx, cfg, invoker)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		InterCallDelay: time.Duration(cfg.InterCallDelayMS) * time.Millisecond,
		Log:            log,
		OnProgress: func(event pipeline.ProgressEvent) {
			fmt.Printf("[%s] %s\n", event.Stage, event.Message)
		},
	}

	if cfg.DatabaseURL != "" {
		store, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer store.Close()
		opts.Store = store
	}

	runner := pipeline.NewRunner(invoker, opts)
	report, err := runner.RunSingle(ctx, prof, rawJob)
	if err != nil {
		return err
	}

	return writeReport(report, cfg.Output)
}

// readSingleJob parses a JSON file holding exactly one job record.
func readSingleJob(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse job file %s: %w", path, err)
	}
	return record, nil
}
