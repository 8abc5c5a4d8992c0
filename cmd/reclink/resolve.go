package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chapinhall-oss/reclink/internal/acceptor"
	"github.com/chapinhall-oss/reclink/internal/config"
	"github.com/chapinhall-oss/reclink/internal/resolver"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a pairwise output file into a final crosswalk",
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().String("config", "", "path to the match configuration file (required, for matchtype)")
	resolveCmd.Flags().String("input", "", "pairwise output CSV produced by match (required)")
	resolveCmd.Flags().String("output", "", "crosswalk CSV path (required)")
	resolveCmd.Flags().String("strictness", "review", "strictness level to resolve at: strict, moderate, relaxed, review")
	_ = resolveCmd.MarkFlagRequired("config")
	_ = resolveCmd.MarkFlagRequired("input")
	_ = resolveCmd.MarkFlagRequired("output")
}

func runResolve(cmd *cobra.Command, args []string) error {
	logger, err := loggerFromFlags(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	strictnessFlag, _ := cmd.Flags().GetString("strictness")
	strictness, err := parseStrictness(strictnessFlag)
	if err != nil {
		return err
	}

	inputPath, _ := cmd.Flags().GetString("input")
	rows, err := resolver.ReadOutputRows(inputPath)
	if err != nil {
		return err
	}

	cw, err := resolver.Resolve(cfg.MatchType, rows, strictness)
	if err != nil {
		return err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if err := resolver.WriteCrosswalk(outputPath, cw); err != nil {
		return err
	}

	logger.Info("resolve complete",
		zap.String("matchtype", string(cfg.MatchType)),
		zap.String("strictness", strictness.String()),
		zap.Int("rows", len(cw.Rows)))
	return nil
}

func parseStrictness(s string) (acceptor.Strictness, error) {
	for _, lvl := range acceptor.Levels {
		if lvl.String() == s {
			return lvl, nil
		}
	}
	return 0, fmt.Errorf("reclink: unrecognized strictness %q", s)
}
