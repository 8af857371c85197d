package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-matcher/internal/config"
	"github.com/jonathan/job-matcher/internal/logger"
	"github.com/jonathan/job-matcher/internal/server"
)

var (
	servePort     int
	serveVerbose  bool
	serveJSONLogs bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for running matching pipelines and inspecting persisted runs.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "Print detailed debug information")
	serveCmd.Flags().BoolVar(&serveJSONLogs, "json-logs", true, "Emit structured JSON logs")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	var cfg config.Config
	cfg.Verbose = serveVerbose
	cfg.JSONLogs = serveJSONLogs
	cfg.FromEnv()
	cfg = cfg.MergeWithDefaults(config.Config{})

	log, err := logger.New(cfg.JSONLogs, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	invoker, err := buildInvoker(ctx, cfg, log)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Port:     servePort,
		Matching: cfg,
	}, invoker, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
