package main

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate deterministic sample datasets for trying out the engine",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().String("dir", "seed-data", "directory to write df_a.csv and df_b.csv into")
	seedCmd.Flags().Int("count", 500, "number of individuals per dataset")
	seedCmd.Flags().Int64("rand-seed", 42, "PRNG seed, fixed so repeated runs produce identical files")
}

var seedFirstNames = []string{"JOHN", "MARY", "JAMES", "PATRICIA", "ROBERT", "JENNIFER", "MICHAEL", "LINDA", "KIM", "DAVID"}
var seedLastNames = []string{"SMITH", "JOHNSON", "WILLIAMS", "BROWN", "JONES", "GARCIA", "MILLER", "DAVIS", "LEE", "WILSON"}

// runSeed writes two overlapping person datasets. Roughly 60% of
// individuals appear in both files; a slice of those shared rows carry
// planted noise (swapped first/last name, birth year off by one,
// missing common_id) so every blocking pass has work to do.
func runSeed(cmd *cobra.Command, args []string) error {
	logger, err := loggerFromFlags(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	dir, _ := cmd.Flags().GetString("dir")
	count, _ := cmd.Flags().GetInt("count")
	randSeed, _ := cmd.Flags().GetInt64("rand-seed")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("reclink: create seed dir: %w", err)
	}
	rng := rand.New(rand.NewSource(randSeed))

	type person struct {
		commonID, fname, mname, lname string
		byear, bmonth, bday           int
		zipcode                       string
	}

	people := make([]person, count)
	for i := range people {
		people[i] = person{
			commonID: fmt.Sprintf("%09d", 100000000+i),
			fname:    seedFirstNames[rng.Intn(len(seedFirstNames))],
			mname:    seedFirstNames[rng.Intn(len(seedFirstNames))],
			lname:    seedLastNames[rng.Intn(len(seedLastNames))],
			byear:    1950 + rng.Intn(60),
			bmonth:   1 + rng.Intn(12),
			bday:     1 + rng.Intn(28),
			zipcode:  fmt.Sprintf("606%02d", rng.Intn(100)),
		}
	}

	header := []string{"person_id", "ssn", "first_name", "middle_name", "last_name", "birth_year", "birth_month", "birth_day", "zip"}
	row := func(id string, p person) []string {
		return []string{id, p.commonID, p.fname, p.mname, p.lname,
			strconv.Itoa(p.byear), strconv.Itoa(p.bmonth), strconv.Itoa(p.bday), p.zipcode}
	}

	writeCSV := func(name string, rows [][]string) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("reclink: create %s: %w", path, err)
		}
		defer f.Close()
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return err
		}
		if err := w.WriteAll(rows); err != nil {
			return err
		}
		w.Flush()
		return w.Error()
	}

	rowsA := make([][]string, 0, count)
	rowsB := make([][]string, 0, count)
	shared := 0
	for i, p := range people {
		rowsA = append(rowsA, row(fmt.Sprintf("A%05d", i), p))
		if rng.Float64() >= 0.6 {
			continue
		}
		shared++
		q := p
		switch rng.Intn(5) {
		case 0:
			q.fname, q.lname = q.lname, q.fname
		case 1:
			q.byear += 2*rng.Intn(2) - 1
		case 2:
			q.commonID = ""
		case 3:
			q.bmonth, q.bday = q.bday, q.bmonth
		}
		rowsB = append(rowsB, row(fmt.Sprintf("B%05d", i), q))
	}
	// Pad B with unmatched individuals so both files are the same size.
	for i := len(rowsB); i < count; i++ {
		p := person{
			commonID: fmt.Sprintf("%09d", 900000000+i),
			fname:    seedFirstNames[rng.Intn(len(seedFirstNames))],
			lname:    seedLastNames[rng.Intn(len(seedLastNames))],
			byear:    1950 + rng.Intn(60),
			bmonth:   1 + rng.Intn(12),
			bday:     1 + rng.Intn(28),
			zipcode:  fmt.Sprintf("606%02d", rng.Intn(100)),
		}
		rowsB = append(rowsB, row(fmt.Sprintf("B9%04d", i), p))
	}

	if err := writeCSV("df_a.csv", rowsA); err != nil {
		return err
	}
	if err := writeCSV("df_b.csv", rowsB); err != nil {
		return err
	}
	if err := writeSeedConfig(dir); err != nil {
		return err
	}

	logger.Info("seed datasets written",
		zap.String("dir", dir),
		zap.Int("rows_a", len(rowsA)), zap.Int("rows_b", len(rowsB)),
		zap.Int("shared_individuals", shared))
	return nil
}

// writeSeedConfig emits a match.yaml wired to the generated datasets so
// `reclink match --config <dir>/match.yaml` works out of the box.
func writeSeedConfig(dir string) error {
	vars := map[string]string{
		"common_id": "ssn",
		"fname":     "first_name",
		"mname":     "middle_name",
		"lname":     "last_name",
		"byear":     "birth_year",
		"bmonth":    "birth_month",
		"bday":      "birth_day",
		"zipcode":   "zip",
	}
	cfg := map[string]any{
		"matchtype":  "121",
		"output_dir": filepath.Join(dir, "out"),
		"data_param": map[string]any{
			"df_a": map[string]any{
				"name": "df_a", "kind": "csv",
				"filepath": filepath.Join(dir, "df_a.csv"),
				"indv_id":  "person_id", "vars": vars,
			},
			"df_b": map[string]any{
				"name": "df_b", "kind": "csv",
				"filepath": filepath.Join(dir, "df_b.csv"),
				"indv_id":  "person_id", "vars": vars,
			},
		},
		"blocks_by_pass": [][]string{
			{"common_id"},
			{"fname", "lname"},
			{"fname_inv", "lname_inv"},
		},
		"comp_names_by_pass": [][]string{
			{},
			{"fname", "lname", "byear", "bmonthbday", "common_id"},
			{"fnamelname", "lnamefname", "byear", "bmonthbday", "common_id"},
		},
		"sim_param": map[string]any{
			"fname":      map[string]any{"comparer": "jarowinkler", "missing_value": -1},
			"lname":      map[string]any{"comparer": "jarowinkler", "missing_value": -1},
			"mname":      map[string]any{"comparer": "jarowinkler", "missing_value": -1},
			"fnamelname": map[string]any{"comparer": "inv_jarowinkler", "missing_value": -1},
			"lnamefname": map[string]any{"comparer": "inv_jarowinkler", "missing_value": -1},
			"common_id":  map[string]any{"comparer": "levenshtein", "missing_value": -1},
			"zipcode":    map[string]any{"comparer": "exact", "missing_value": -1},
			"byear":      map[string]any{"comparer": "byear", "missing_value": -1, "within_1y": 0.7, "year_dif": 1},
			"bmonthbday": map[string]any{"comparer": "bmonthbday", "missing_value": -1, "swap_month_day": 0.8, "either_month_day": 0.4},
		},
		"cutoff_scores": map[string]any{
			"name_high_score":      0.85,
			"name_very_high_score": 0.95,
			"id_high_score":        0.9,
			"name_review_score":    0.8,
			"id_review_score":      0.85,
		},
		"parallelization_metrics": map[string]any{
			"num_processes": 4,
		},
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("reclink: marshal seed config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "match.yaml"), data, 0o644)
}
