package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-matcher/internal/config"
	"github.com/jonathan/job-matcher/internal/db"
	"github.com/jonathan/job-matcher/internal/logger"
	"github.com/jonathan/job-matcher/internal/pipeline"
	"github.com/jonathan/job-matcher/internal/types"
)

var matchCommand = &cobra.Command{
	Use:   "match",
	Short: "Run the full matching pipeline end-to-end",
	Long: `Orchestrates the entire matching process: normalize -> extract skills -> rank -> analyze gaps -> review -> final report.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runMatchCmd,
}

var (
	matchConfigPath  string
	matchResume      string
	matchProfile     string
	matchJobs        string
	matchJobsURL     string
	matchQuery       string
	matchCategory    string
	matchMaxJobs     int
	matchTopMatches  int
	matchQuota       int
	matchAPIKey      string
	matchDatabaseURL string
	matchOutput      string
	matchVerbose     bool
	matchJSONLogs    bool
)

func init() {
	// Config file flag (processed first)
	matchCommand.Flags().StringVar(&matchConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	matchCommand.Flags().StringVarP(&matchResume, "resume", "r", "", "Path to resume text file (mutually exclusive with --profile)")
	matchCommand.Flags().StringVarP(&matchProfile, "profile", "p", "", "Path to profile JSON file (mutually exclusive with --resume)")
	matchCommand.Flags().StringVarP(&matchJobs, "jobs", "j", "", "Path to a JSON file of job postings (mutually exclusive with --jobs-url)")
	matchCommand.Flags().StringVar(&matchJobsURL, "jobs-url", "", "Base URL of the job postings API (mutually exclusive with --jobs)")
	matchCommand.Flags().StringVarP(&matchQuery, "query", "q", "", "Keyword query forwarded to the postings API")
	matchCommand.Flags().StringVar(&matchCategory, "category", "", "Comma-separated job category IDs for the postings API")
	matchCommand.Flags().IntVar(&matchMaxJobs, "max-jobs", 0, "Maximum job records to process")
	matchCommand.Flags().IntVar(&matchTopMatches, "top-matches", 0, "Matches carried into gap analysis")
	matchCommand.Flags().IntVar(&matchQuota, "quota", 0, "LLM requests per model per minute")
	matchCommand.Flags().StringVarP(&matchOutput, "output", "o", "", "Path to write the final report JSON (default: stdout)")
	matchCommand.Flags().BoolVarP(&matchVerbose, "verbose", "v", false, "Print detailed debug information")
	matchCommand.Flags().BoolVar(&matchJSONLogs, "json-logs", false, "Emit structured JSON logs")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	matchCommand.Flags().StringVar(&matchAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for artifact persistence
	matchCommand.Flags().StringVar(&matchDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(matchCommand)
}

// resolveMatchConfig merges the config file, CLI overrides, environment
// credentials, and built-in defaults into a validated Config.
func resolveMatchConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if matchConfigPath != "" {
		loadedCfg, err := config.LoadConfig(matchConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loadedCfg
		if matchVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", matchConfigPath)
		}
	}

	// CLI overrides take priority, but only when the flag was explicitly set
	if cmd.Flags().Changed("resume") {
		cfg.Resume = matchResume
	}
	if cmd.Flags().Changed("profile") {
		cfg.Profile = matchProfile
	}
	if cmd.Flags().Changed("jobs") {
		cfg.Jobs = matchJobs
	}
	if cmd.Flags().Changed("jobs-url") {
		cfg.JobsURL = matchJobsURL
	}
	if cmd.Flags().Changed("query") {
		cfg.Query = matchQuery
	}
	if cmd.Flags().Changed("category") {
		cfg.Category = matchCategory
	}
	if cmd.Flags().Changed("max-jobs") {
		cfg.MaxJobs = matchMaxJobs
	}
	if cmd.Flags().Changed("top-matches") {
		cfg.TopMatches = matchTopMatches
	}
	if cmd.Flags().Changed("quota") {
		cfg.QuotaPerMinute = matchQuota
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = matchAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = matchDatabaseURL
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = matchOutput
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = matchVerbose
	}
	if cmd.Flags().Changed("json-logs") {
		cfg.JSONLogs = matchJSONLogs
	}

	cfg.FromEnv()
	cfg = cfg.MergeWithDefaults(config.Config{})

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if cfg.Resume == "" && cfg.Profile == "" {
		return cfg, fmt.Errorf("either --profile or --resume must be provided (via flag or config)")
	}
	if cfg.Jobs == "" && cfg.JobsURL == "" {
		return cfg, fmt.Errorf("either --jobs or --jobs-url must be provided (via flag or config)")
	}
	return cfg, nil
}

func runMatchCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveMatchConfig(cmd)
	if err != nil {
		return err
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

	// Profile extraction and job fetching are independent; run them
	// concurrently.
	var (
		prof    *types.Profile
		rawJobs []map[string]any
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prof, err = loadProfile(gctx, cfg, invoker)
		return err
	})
	g.Go(func() error {
		var err error
		rawJobs, err = loadJobs(gctx, cfg, log)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	opts := pipeline.Options{
		TopMatches:     cfg.TopMatches,
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
	report, err := runner.Run(ctx, prof, rawJobs)
	if err != nil {
		return err
	}

	return writeReport(report, cfg.Output)
}
