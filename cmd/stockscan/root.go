// Package main provides the entry point for the stockscan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for stockscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stockscan",
		Short: "Fundamental analysis tool for listed companies",
		Long: `stockscan analyzes a company through a fixed seven-step framework:
lifecycle phase, business model, moat, growth, key metrics, risks, and
valuation. Each step runs as an independent task over a shared evidence
bundle built from uploaded documents, structured market data, and model
knowledge, so one failing step never takes down the others.

An inference API key is required (GEMINI_API_KEY or --api-key).
A market data token (TUSHARE_TOKEN or --market-token) is optional;
without it, data-dependent steps are reported as degraded.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
