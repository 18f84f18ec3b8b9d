package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	appName = "riskdraft"
	Version = "0.1.0"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Construction risk-assessment table service",
		Long: `riskdraft drafts construction-process risk-assessment tables with Gemini,
lets you edit and supplement them, and keeps an in-memory archive that exports
to an xlsx safety plan.

Without a subcommand the transport mode comes from configuration.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, "")
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API, metrics and MCP over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, modeHTTP)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "stdio",
		Short: "Serve MCP over stdin/stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, modeStdio)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	return cmd
}
