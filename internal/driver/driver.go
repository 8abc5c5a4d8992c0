// Package driver orchestrates the match: pass ordering, chunked
// candidate dispatch across a fixed-size worker pool, shard writing,
// and the final k-way merge into one weight-sorted output stream.
// Workers run under a golang.org/x/sync/errgroup bounded by
// config.Parallelization.NumProcesses.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chapinhall-oss/reclink/internal/acceptor"
	"github.com/chapinhall-oss/reclink/internal/blocker"
	"github.com/chapinhall-oss/reclink/internal/comparers"
	"github.com/chapinhall-oss/reclink/internal/config"
	"github.com/chapinhall-oss/reclink/internal/record"
	"github.com/chapinhall-oss/reclink/internal/weigher"
)

// ErrWorkerFailed wraps the first error any worker chunk returned.
// Any worker failure aborts the entire match; no partial output is
// retained.
type ErrWorkerFailed struct{ Err error }

func (e *ErrWorkerFailed) Error() string { return fmt.Sprintf("driver: worker failed: %v", e.Err) }
func (e *ErrWorkerFailed) Unwrap() error { return e.Err }

// OutputRow is one row of the pairwise output stream.
type OutputRow struct {
	IndvIDA, IndvIDB string
	IdxA, IdxB       int
	Passnum          string
	Scores           acceptor.ScoreVector
	MatchStrict      bool
	MatchModerate    bool
	MatchRelaxed     bool
	MatchReview      bool
	Weight           float64
}

// Driver holds the config and pluggable Acceptor a match runs with.
type Driver struct {
	Config   *config.Config
	Acceptor acceptor.Acceptor
	Logger   *zap.Logger
}

// New constructs a Driver. A nil logger is replaced with zap.NewNop.
func New(cfg *config.Config, acc acceptor.Acceptor, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{Config: cfg, Acceptor: acc, Logger: logger}
}

// Run executes the full pipeline: ground-truth pre-blocking, then
// regular passes in configured order, each chunked and dispatched to
// the worker pool, each worker's surviving rows written as a sorted
// shard under shardDir, finally merged into one descending-weight CSV
// at outputPath. On any error, shards already written this run are
// deleted and no output file is left behind.
func (d *Driver) Run(ctx context.Context, tableA, tableB *record.Table, shardDir, outputPath string) (*RunStats, error) {
	cfg := d.Config
	if err := os.MkdirAll(shardDir, 0o755); err != nil {
		return nil, fmt.Errorf("driver: create shard dir: %w", err)
	}

	passes := blocker.CompilePasses(cfg.BlocksByPass)
	totalPasses := len(passes)
	dedup := cfg.MatchType == config.Dedup

	th := buildThresholds(cfg, tableA.Fields, tableB.Fields)
	compNames := cfg.WantedCompNames()
	sort.Strings(compNames)

	registries := make(map[int]comparers.Registry, totalPasses)
	for _, p := range passes {
		wanted := []string{}
		if p.Number < len(cfg.CompNamesByPass) {
			wanted = cfg.CompNamesByPass[p.Number]
		}
		reg, err := comparers.Build(wanted, cfg.SimParam, tableA.Fields, tableB.Fields)
		if err != nil {
			return nil, err
		}
		registries[p.Number] = reg
	}

	bl := &blocker.Blocker{Passes: passes, Dedup: dedup}
	seen := blocker.NewSeenSet()

	stats := NewRunStats()
	var shardPaths []string
	cleanup := func() {
		for _, p := range shardPaths {
			os.Remove(p)
		}
	}

	shardIdx := 0
	nextShardPath := func() string {
		p := filepath.Join(shardDir, fmt.Sprintf("shard_%04d.csv", shardIdx))
		shardIdx++
		return p
	}

	// Ground-truth-ID pre-blocking passes run first and bypass scoring
	// entirely: every pair they find is marked true at all four
	// strictness levels and weighed above any regular pass.
	gtResults := blocker.GroundTruthPasses(tableA, tableB, cfg.GroundTruthIDs, dedup, seen)
	for _, gt := range gtResults {
		if len(gt.Candidates) == 0 {
			continue
		}
		rows := make([]OutputRow, 0, len(gt.Candidates))
		passnum := "dup_" + gt.ID
		w := weigher.GroundTruthWeight(totalPasses)
		for _, c := range gt.Candidates {
			recA, recB := tableA.ByIdx(c.IdxA), tableB.ByIdx(c.IdxB)
			rows = append(rows, OutputRow{
				IndvIDA: recA.IndvID, IndvIDB: recB.IndvID,
				IdxA: c.IdxA, IdxB: c.IdxB, Passnum: passnum,
				MatchStrict: true, MatchModerate: true, MatchRelaxed: true, MatchReview: true,
				Weight: w,
			})
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].IdxA != rows[j].IdxA {
				return rows[i].IdxA < rows[j].IdxA
			}
			return rows[i].IdxB < rows[j].IdxB
		})
		d.Logger.Info("ground-truth pass matched", zap.String("id", gt.ID), zap.Int("candidates", len(rows)))
		stats.AddRows(passnum, rows)
		path := nextShardPath()
		if err := writeShard(path, rows, compNames); err != nil {
			cleanup()
			return nil, fmt.Errorf("driver: write ground-truth shard: %w", err)
		}
		shardPaths = append(shardPaths, path)
	}

	passResults := bl.Run(tableA, tableB, seen)
	for _, pr := range passResults {
		select {
		case <-ctx.Done():
			cleanup()
			return nil, ctx.Err()
		default:
		}

		if pr.Skipped {
			d.Logger.Warn("blocking pass skipped", zap.Int("pass", pr.Pass.Number), zap.String("reason", pr.SkipReason))
			continue
		}
		if len(pr.Candidates) == 0 {
			d.Logger.Info("blocking pass produced no candidates", zap.Int("pass", pr.Pass.Number))
			continue
		}

		chunkSize := cfg.Parallelization.ChunkSize(pr.Pass.Number)
		chunks := chunkCandidates(pr.Candidates, chunkSize)
		d.Logger.Info("blocking pass", zap.Int("pass", pr.Pass.Number),
			zap.Int("candidates", len(pr.Candidates)), zap.Int("chunks", len(chunks)))

		numProcesses := cfg.Parallelization.NumProcesses
		if numProcesses < 1 {
			numProcesses = 1
		}
		reg := registries[pr.Pass.Number]

		// Dispatch in groups of 2W chunks at a time, bounding peak
		// in-flight memory, releasing each group's
		// results before starting the next.
		groupSize := 2 * numProcesses
		for start := 0; start < len(chunks); start += groupSize {
			end := start + groupSize
			if end > len(chunks) {
				end = len(chunks)
			}
			group := chunks[start:end]

			eg, egCtx := errgroup.WithContext(ctx)
			eg.SetLimit(numProcesses)
			paths := make([]string, len(group))
			written := make([]bool, len(group))
			for i, chunk := range group {
				i, chunk := i, chunk
				paths[i] = nextShardPath()
				eg.Go(func() error {
					rows, err := processChunk(egCtx, pr.Pass.Number, totalPasses, chunk, tableA, tableB, reg, d.Acceptor, th)
					if err != nil {
						return err
					}
					if len(rows) == 0 {
						return nil
					}
					stats.AddRows(fmt.Sprint(pr.Pass.Number), rows)
					if err := writeShard(paths[i], rows, compNames); err != nil {
						return err
					}
					written[i] = true
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				for _, p := range paths {
					os.Remove(p)
				}
				cleanup()
				return nil, &ErrWorkerFailed{Err: err}
			}
			for i, p := range paths {
				if written[i] {
					shardPaths = append(shardPaths, p)
				}
			}
		}
	}

	if len(shardPaths) == 0 {
		// No candidates accepted anywhere; an empty output is still a
		// success.
		if err := writeEmptyOutput(outputPath, compNames); err != nil {
			return nil, err
		}
		return stats, nil
	}

	if err := mergeShards(shardPaths, outputPath, compNames); err != nil {
		cleanup()
		os.Remove(outputPath)
		return nil, fmt.Errorf("driver: merge shards: %w", err)
	}
	cleanup()

	return stats, nil
}

func chunkCandidates(cands []blocker.Candidate, size int) [][]blocker.Candidate {
	if size <= 0 {
		size = 500_000
	}
	var chunks [][]blocker.Candidate
	for start := 0; start < len(cands); start += size {
		end := start + size
		if end > len(cands) {
			end = len(cands)
		}
		chunks = append(chunks, cands[start:end])
	}
	return chunks
}

// processChunk is the worker unit: join the chunk to the record
// tables by idx, score, accept, weigh, drop non-review rows, and sort
// the survivors descending by weight (ties by idx_a, idx_b). No I/O
// happens here; the caller writes the shard.
func processChunk(ctx context.Context, pass, totalPasses int, cands []blocker.Candidate, tableA, tableB *record.Table,
	reg comparers.Registry, acc acceptor.Acceptor, th acceptor.Thresholds) ([]OutputRow, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	rows := make([]OutputRow, 0, len(cands))
	for _, c := range cands {
		recA, recB := tableA.ByIdx(c.IdxA), tableB.ByIdx(c.IdxB)

		scores := acceptor.ScoreVector{}
		for name, cf := range reg {
			scores[name] = cf(recA, recB)
		}
		masks := acceptor.ComputeMasks(scores, th)

		var flags [4]bool
		prev := false
		for i, s := range acceptor.Levels {
			accepted := acc.Accept(pass, s, scores, masks, th) || prev
			flags[i] = accepted
			prev = accepted
		}
		if !flags[3] {
			// Rows failing review are dropped before writing: the
			// engine persists only pairs worth reviewing.
			continue
		}

		rows = append(rows, OutputRow{
			IndvIDA: recA.IndvID, IndvIDB: recB.IndvID,
			IdxA: c.IdxA, IdxB: c.IdxB, Passnum: fmt.Sprint(pass),
			Scores:        scores,
			MatchStrict:   flags[0],
			MatchModerate: flags[1],
			MatchRelaxed:  flags[2],
			MatchReview:   flags[3],
			Weight:        weigher.Weight(pass, totalPasses, scores),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Weight != rows[j].Weight {
			return rows[i].Weight > rows[j].Weight
		}
		if rows[i].IdxA != rows[j].IdxA {
			return rows[i].IdxA < rows[j].IdxA
		}
		return rows[i].IdxB < rows[j].IdxB
	})
	return rows, nil
}

// buildThresholds assembles acceptor.Thresholds from the configured
// cutoff scores and per-comparison sim_param tiers, and records which
// optional comparisons both tables actually carry.
func buildThresholds(cfg *config.Config, fieldsA, fieldsB record.FieldSet) acceptor.Thresholds {
	th := acceptor.Thresholds{
		NameHighScore:     cfg.CutoffScores.NameHighScore,
		NameVeryHighScore: cfg.CutoffScores.NameVeryHighScore,
		IDHighScore:       cfg.CutoffScores.IDHighScore,
		NameReviewScore:   cfg.CutoffScores.NameReviewScore,
		IDReviewScore:     cfg.CutoffScores.IDReviewScore,
	}
	if p, ok := cfg.SimParam["byear"]; ok {
		th.ByearWithin1 = p.WithinYear
	}
	if p, ok := cfg.SimParam["bmonthbday"]; ok {
		th.BmonthBdayEither = p.EitherMonthDay
		th.BmonthBdaySwap = p.SwapMonthDay
	}
	if p, ok := cfg.SimParam["minitial"]; ok {
		th.MinitMatchMnameUnclear = p.MinitMatchMnameUnclear
	}

	th.HasCommonID = fieldsA.Has(record.FieldCommonID) && fieldsB.Has(record.FieldCommonID)
	th.HasMinitial = fieldsA.HasAll(record.FieldMinitial, record.FieldMName) && fieldsB.HasAll(record.FieldMinitial, record.FieldMName)
	th.HasDOB = fieldsA.HasAll(record.FieldBmonth, record.FieldBday, record.FieldByear) &&
		fieldsB.HasAll(record.FieldBmonth, record.FieldBday, record.FieldByear)
	th.HasZipcode = fieldsA.Has(record.FieldZipcode) && fieldsB.Has(record.FieldZipcode)
	th.HasCounty = fieldsA.Has(record.FieldCounty) && fieldsB.Has(record.FieldCounty)
	return th
}
