// Package main provides the entry point for the job matcher CLI and API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "job_agent",
	Short: "LLM-backed job matching pipeline",
	Long:  "job_agent matches a candidate profile against job postings: it normalizes raw records, extracts required skills, ranks matches, analyzes skill gaps, and reviews the result into a final report.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
