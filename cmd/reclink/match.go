package main

import (
	"fmt"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chapinhall-oss/reclink/internal/acceptor"
	"github.com/chapinhall-oss/reclink/internal/config"
	"github.com/chapinhall-oss/reclink/internal/db"
	"github.com/chapinhall-oss/reclink/internal/driver"
	"github.com/chapinhall-oss/reclink/internal/record"
	"github.com/chapinhall-oss/reclink/internal/runlog"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Run the blocker/driver pipeline and write the pairwise output file",
	RunE:  runMatch,
}

func init() {
	matchCmd.Flags().String("config", "", "path to the match configuration file (required)")
	matchCmd.Flags().String("output", "", "output CSV path (default: <output_dir>/output.csv)")
	_ = matchCmd.MarkFlagRequired("config")
}

func runMatch(cmd *cobra.Command, args []string) error {
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

	acc, ok := acceptor.Lookup(cfg.AcceptorName)
	if !ok {
		return fmt.Errorf("reclink: unregistered acceptor %q", cfg.AcceptorName)
	}

	var database *sqlx.DB
	if needsDB(cfg) {
		conn, err := db.Connect()
		if err != nil {
			return fmt.Errorf("reclink: connect database: %w", err)
		}
		defer conn.Close()
		database = conn
	}

	tableA, err := loadDataset(cfg.DataParam["df_a"], cfg.GroundTruthIDs, database)
	if err != nil {
		return err
	}

	var tableB *record.Table
	if cfg.MatchType == config.Dedup {
		tableB = record.DedupAlias(tableA)
	} else {
		tableB, err = loadDataset(cfg.DataParam["df_b"], cfg.GroundTruthIDs, database)
		if err != nil {
			return err
		}
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = filepath.Join(cfg.OutputDir, "output.csv")
	}
	shardDir := filepath.Join(cfg.OutputDir, "shards")

	drv := driver.New(cfg, acc, logger)
	stats, err := drv.Run(cmd.Context(), tableA, tableB, shardDir, outputPath)
	if err != nil {
		return err
	}

	for _, pc := range stats.Counts() {
		logger.Info("pass match counts",
			zap.String("passnum", pc.Passnum),
			zap.Int("strict", pc.Strict), zap.Int("moderate", pc.Moderate),
			zap.Int("relaxed", pc.Relaxed), zap.Int("review", pc.Review))
	}
	logger.Info("match complete", zap.String("output", outputPath), zap.Int("total_review", stats.Total()))
	return nil
}

func needsDB(cfg *config.Config) bool {
	for _, dp := range cfg.DataParam {
		if dp.Kind == "db" {
			return true
		}
	}
	return false
}

func loggerFromFlags(cmd *cobra.Command) (*zap.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	return runlog.New(level, format)
}
