package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chapinhall-oss/reclink/internal/acceptor"
	"github.com/chapinhall-oss/reclink/internal/api"
	"github.com/chapinhall-oss/reclink/internal/config"
	"github.com/chapinhall-oss/reclink/internal/db"
	"github.com/chapinhall-oss/reclink/internal/driver"
	"github.com/chapinhall-oss/reclink/internal/record"
	"github.com/chapinhall-oss/reclink/internal/runqueue"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve match-run status over HTTP and process queued run requests",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "address to listen on")
	serveCmd.Flags().Int("poll-interval-ms", 1000, "run queue poll interval in milliseconds")
}

// runServe starts the status API alongside a background poller over
// internal/runqueue: one reclink serve instance both answers status
// queries and executes queued match runs.
func runServe(cmd *cobra.Command, args []string) error {
	logger, err := loggerFromFlags(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	database, err := db.Connect()
	if err != nil {
		return err
	}
	defer database.Close()

	pollIntervalMs, _ := cmd.Flags().GetInt("poll-interval-ms")
	queue := runqueue.New(database, logger)
	queue.RecoverStale()

	srv := api.New(database, queue, logger)
	addr, _ := cmd.Flags().GetString("addr")

	stop := make(chan struct{})
	go pollRunQueue(queue, logger, time.Duration(pollIntervalMs)*time.Millisecond, stop)

	go func() {
		if err := srv.Start(addr); err != nil {
			logger.Fatal("api server failed", zap.Error(err))
		}
	}()
	logger.Info("reclink serve started", zap.String("addr", addr))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutting down")
	close(stop)
	return srv.Shutdown()
}

func pollRunQueue(queue *runqueue.Queue, logger *zap.Logger, interval time.Duration, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		run, err := queue.ClaimNext()
		if err != nil {
			logger.Warn("claim run failed", zap.Error(err))
			time.Sleep(interval)
			continue
		}
		if run == nil {
			time.Sleep(interval)
			continue
		}

		if err := executeRun(queue, logger, run); err != nil {
			logger.Error("run failed", zap.String("run_id", run.ID), zap.Error(err))
			if ferr := queue.Fail(run, err); ferr != nil {
				logger.Error("failed to record run failure", zap.Error(ferr))
			}
			continue
		}
		if err := queue.Complete(run.ID); err != nil {
			logger.Error("failed to record run completion", zap.Error(err))
		}
	}
}

func executeRun(queue *runqueue.Queue, logger *zap.Logger, run *runqueue.Run) error {
	cfg, err := config.Load(run.ConfigPath)
	if err != nil {
		return err
	}
	acc, ok := acceptor.Lookup(cfg.AcceptorName)
	if !ok {
		return &config.ErrConfig{Detail: "unregistered acceptor " + cfg.AcceptorName}
	}

	tableA, err := loadDataset(cfg.DataParam["df_a"], cfg.GroundTruthIDs, queue.DB)
	if err != nil {
		return err
	}
	var tableB *record.Table
	if cfg.MatchType == config.Dedup {
		tableB = record.DedupAlias(tableA)
	} else {
		tableB, err = loadDataset(cfg.DataParam["df_b"], cfg.GroundTruthIDs, queue.DB)
		if err != nil {
			return err
		}
	}

	outputDir := run.OutputDir
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	outputPath := filepath.Join(outputDir, "output.csv")
	shardDir := filepath.Join(outputDir, "shards")

	drv := driver.New(cfg, acc, logger)
	stats, err := drv.Run(context.Background(), tableA, tableB, shardDir, outputPath)
	if err != nil {
		return err
	}
	return queue.SetProgress(run.ID, tableA.Len(), stats.Total())
}
