package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "reclink",
	Short: "Probabilistic record-linkage engine",
	Long:  "Blocks, scores, accepts, and resolves candidate pairs across two datasets (or one, for dedup) under a configured cardinality regime.",
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "json", "log format: json or console")

	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}
