package driver

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/chapinhall-oss/reclink/internal/comparers"
)

// fixedColumns are the output CSV's non-score columns, in order. The
// score columns follow, one per comparison name in compNames, sorted
// so every shard (and the merged output) shares one column layout
// regardless of which pass produced it.
var fixedColumns = []string{
	"indv_id_a", "indv_id_b", "idx_a", "idx_b", "passnum",
	"match_strict", "match_moderate", "match_relaxed", "match_review", "weight",
}

func header(compNames []string) []string {
	return append(append([]string{}, fixedColumns...), compNames...)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// writeShard serializes one worker chunk's (already sorted) surviving
// rows to a CSV file under the shard directory.
func writeShard(path string, rows []OutputRow, compNames []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("driver: create shard %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header(compNames)); err != nil {
		return err
	}
	rec := make([]string, len(fixedColumns)+len(compNames))
	for _, r := range rows {
		rec[0] = r.IndvIDA
		rec[1] = r.IndvIDB
		rec[2] = strconv.Itoa(r.IdxA)
		rec[3] = strconv.Itoa(r.IdxB)
		rec[4] = r.Passnum
		rec[5] = formatBool(r.MatchStrict)
		rec[6] = formatBool(r.MatchModerate)
		rec[7] = formatBool(r.MatchRelaxed)
		rec[8] = formatBool(r.MatchReview)
		rec[9] = formatFloat(r.Weight)
		for i, name := range compNames {
			rec[len(fixedColumns)+i] = formatFloat(r.Scores.Get(name))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// writeEmptyOutput writes just the header row, the output of a run
// whose every pass was skipped or produced zero accepted candidates.
func writeEmptyOutput(path string, compNames []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("driver: create output %s: %w", path, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(header(compNames)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// shardReader streams one shard file's rows in file order (already
// sorted descending by weight, idx_a, idx_b by the writer), one row
// buffered at a time, for the merge step's k-way pass.
type shardReader struct {
	f         *os.File
	r         *csv.Reader
	compNames []string
	cur       *OutputRow
	done      bool
}

func openShardReader(path string, compNames []string) (*shardReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("driver: open shard %s: %w", path, err)
	}
	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil { // discard header
		f.Close()
		if err == io.EOF {
			return nil, fmt.Errorf("driver: shard %s has no header", path)
		}
		return nil, err
	}
	sr := &shardReader{f: f, r: r, compNames: compNames}
	if err := sr.advance(); err != nil {
		f.Close()
		return nil, err
	}
	return sr, nil
}

func (sr *shardReader) advance() error {
	rec, err := sr.r.Read()
	if err == io.EOF {
		sr.cur = nil
		sr.done = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("driver: read shard row: %w", err)
	}
	row, err := parseRow(rec, sr.compNames)
	if err != nil {
		return err
	}
	sr.cur = row
	return nil
}

func (sr *shardReader) close() error { return sr.f.Close() }

func parseRow(rec []string, compNames []string) (*OutputRow, error) {
	if len(rec) < len(fixedColumns)+len(compNames) {
		return nil, fmt.Errorf("driver: shard row has %d fields, want %d", len(rec), len(fixedColumns)+len(compNames))
	}
	idxA, err := strconv.Atoi(rec[2])
	if err != nil {
		return nil, fmt.Errorf("driver: parse idx_a: %w", err)
	}
	idxB, err := strconv.Atoi(rec[3])
	if err != nil {
		return nil, fmt.Errorf("driver: parse idx_b: %w", err)
	}
	weight, err := strconv.ParseFloat(rec[9], 64)
	if err != nil {
		return nil, fmt.Errorf("driver: parse weight: %w", err)
	}
	row := &OutputRow{
		IndvIDA: rec[0], IndvIDB: rec[1],
		IdxA: idxA, IdxB: idxB, Passnum: rec[4],
		MatchStrict:   rec[5] == "1",
		MatchModerate: rec[6] == "1",
		MatchRelaxed:  rec[7] == "1",
		MatchReview:   rec[8] == "1",
		Weight:        weight,
	}
	if len(compNames) > 0 {
		row.Scores = make(map[string]float64, len(compNames))
		for i, name := range compNames {
			v, err := strconv.ParseFloat(rec[len(fixedColumns)+i], 64)
			if err != nil {
				return nil, fmt.Errorf("driver: parse score %s: %w", name, err)
			}
			if v != comparers.Missing {
				row.Scores[name] = v
			}
		}
	}
	return row, nil
}
