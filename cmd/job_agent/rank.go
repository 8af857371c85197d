package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-matcher/internal/config"
	"github.com/jonathan/job-matcher/internal/logger"
	"github.com/jonathan/job-matcher/internal/normalize"
	"github.com/jonathan/job-matcher/internal/ranking"
)

var rankCommand = &cobra.Command{
	Use:   "rank",
	Short: "Quick-rank job postings without the full pipeline",
	Long:  `Runs the cheap batched scoring pass: postings are scored against the profile in large batches with a single lightweight model call per batch. No skill extraction, gap analysis, or review.`,
	RunE:  runRankCmd,
}

var (
	rankResume    string
	rankProfile   string
	rankJobs      string
	rankJobsURL   string
	rankQuery     string
	rankMaxJobs   int
	rankBatchSize int
	rankAPIKey    string
	rankVerbose   bool
)

func init() {
	rankCommand.Flags().StringVarP(&rankResume, "resume", "r", "", "Path to resume text file (mutually exclusive with --profile)")
	rankCommand.Flags().StringVarP(&rankProfile, "profile", "p", "", "Path to profile JSON file (mutually exclusive with --resume)")
	rankCommand.Flags().StringVarP(&rankJobs, "jobs", "j", "", "Path to a JSON file of job postings (mutually exclusive with --jobs-url)")
	rankCommand.Flags().StringVar(&rankJobsURL, "jobs-url", "", "Base URL of the job postings API (mutually exclusive with --jobs)")
	rankCommand.Flags().StringVarP(&rankQuery, "query", "q", "", "Keyword query forwarded to the postings API")
	rankCommand.Flags().IntVar(&rankMaxJobs, "max-jobs", 0, "Maximum job records to process")
	rankCommand.Flags().IntVar(&rankBatchSize, "batch-size", 0, "Postings per scoring prompt")
	rankCommand.Flags().StringVar(&rankAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	rankCommand.Flags().BoolVarP(&rankVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(rankCommand)
}

func runRankCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg := config.Config{
		Resume:         rankResume,
		Profile:        rankProfile,
		Jobs:           rankJobs,
		JobsURL:        rankJobsURL,
		Query:          rankQuery,
		MaxJobs:        rankMaxJobs,
		QuickRankBatch: rankBatchSize,
		APIKey:         rankAPIKey,
		Verbose:        rankVerbose,
	}
	cfg.FromEnv()
	cfg = cfg.MergeWithDefaults(config.Config{})
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Resume == "" && cfg.Profile == "" {
		return fmt.Errorf("either --profile or --resume must be provided")
	}
	if cfg.Jobs == "" && cfg.JobsURL == "" {
		return fmt.Errorf("either --jobs or --jobs-url must be provided")
	}

	log, err := logger.New(false, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	invoker, err := buildInvoker(ctx, cfg, log)
	if err != nil {
		return err
	}

	prof, err := loadProfile(ctx, cfg, invoker)
	if err != nil {
		return err
	}

	rawJobs, err := loadJobs(ctx, cfg, log)
	if err != nil {
		return err
	}

	postings := normalize.New(log).All(rawJobs)
	if len(postings) == 0 {
		return fmt.Errorf("no valid job postings to rank")
	}

	ranker := ranking.NewRanker(invoker, log)
	scores, err := ranker.QuickRank(ctx, prof, postings, cfg.QuickRankBatch)
	if err != nil && len(scores) == 0 {
		return fmt.Errorf("quick rank failed: %w", err)
	}
	if err != nil {
		fmt.Printf("Warning: partial result: %v\n", err)
	}

	data, err := json.MarshalIndent(scores, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode scores: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
