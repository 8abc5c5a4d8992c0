package resolver

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/chapinhall-oss/reclink/internal/driver"
)

// ReadOutputRows loads a driver-produced pairwise output CSV, looking
// up the fixed columns by name so it tolerates whatever set of score
// columns that particular match configuration produced; the resolver
// never reads score values, only the id/flag/weight columns.
func ReadOutputRows(path string) ([]driver.OutputRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("resolver: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("resolver: %s has no header", path)
		}
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	required := []string{"indv_id_a", "indv_id_b", "idx_a", "idx_b", "passnum",
		"match_strict", "match_moderate", "match_relaxed", "match_review", "weight"}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("resolver: %s missing required column %q", path, name)
		}
	}

	var rows []driver.OutputRow
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("resolver: read %s: %w", path, err)
		}
		idxA, err := strconv.Atoi(rec[col["idx_a"]])
		if err != nil {
			return nil, fmt.Errorf("resolver: parse idx_a: %w", err)
		}
		idxB, err := strconv.Atoi(rec[col["idx_b"]])
		if err != nil {
			return nil, fmt.Errorf("resolver: parse idx_b: %w", err)
		}
		weight, err := strconv.ParseFloat(rec[col["weight"]], 64)
		if err != nil {
			return nil, fmt.Errorf("resolver: parse weight: %w", err)
		}
		rows = append(rows, driver.OutputRow{
			IndvIDA:       rec[col["indv_id_a"]],
			IndvIDB:       rec[col["indv_id_b"]],
			IdxA:          idxA,
			IdxB:          idxB,
			Passnum:       rec[col["passnum"]],
			MatchStrict:   rec[col["match_strict"]] == "1",
			MatchModerate: rec[col["match_moderate"]] == "1",
			MatchRelaxed:  rec[col["match_relaxed"]] == "1",
			MatchReview:   rec[col["match_review"]] == "1",
			Weight:        weight,
		})
	}
	return rows, nil
}

// WriteCrosswalk writes the resolved crosswalk to a CSV, with a
// matchtype-appropriate column set.
func WriteCrosswalk(path string, cw Crosswalk) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("resolver: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	groupwise := cw.MatchType == "M2M" || cw.MatchType == "dedup"
	var hdr []string
	if groupwise {
		if cw.MatchType == "dedup" {
			hdr = []string{"indv_id", "group_id"}
		} else {
			hdr = []string{"indv_id_a", "indv_id_b", "passnum", "group_id"}
		}
	} else {
		hdr = []string{"indv_id_a", "indv_id_b", "passnum"}
	}
	if err := w.Write(hdr); err != nil {
		return err
	}

	for _, row := range cw.Rows {
		var rec []string
		switch {
		case cw.MatchType == "dedup":
			rec = []string{row.IndvIDA, row.GroupID}
		case cw.MatchType == "M2M":
			rec = []string{row.IndvIDA, row.IndvIDB, row.Passnum, row.GroupID}
		default:
			rec = []string{row.IndvIDA, row.IndvIDB, row.Passnum}
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
