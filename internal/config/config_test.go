package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
matchtype: "121"
output_dir: /tmp/match-out
ground_truth_ids:
  - case_id
data_param:
  df_a:
    name: students
    kind: csv
    filepath: /data/students.csv
    indv_id: student_id
    vars:
      fname: first_name
      lname: last_name
  df_b:
    name: enrollees
    kind: db
    table: enrollees
    indv_id: enrollee_id
    vars:
      fname: fname
      lname: lname
blocks_by_pass:
  - [common_id]
  - [xf, xl]
  - [xf_inv, xl_inv]
comp_names_by_pass:
  - []
  - [fname, lname, byear]
  - [fnamelname, lnamefname, byear]
sim_param:
  fname:
    comparer: jarowinkler
    missing_value: -1
  byear:
    comparer: byear
    missing_value: -1
    within_1y: 0.7
    year_dif: 1
cutoff_scores:
  name_high_score: 0.85
  name_very_high_score: 0.95
  id_high_score: 0.9
  name_review_score: 0.8
  id_review_score: 0.85
parallelization_metrics:
  num_processes: 8
  chunk_sizes:
    "1": 250000
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "match.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, OneToOne, cfg.MatchType)
	assert.Equal(t, []string{"case_id"}, cfg.GroundTruthIDs)
	assert.Len(t, cfg.BlocksByPass, 3)
	assert.Equal(t, []string{"xf_inv", "xl_inv"}, cfg.BlocksByPass[2])

	assert.Equal(t, "csv", cfg.DataParam["df_a"].Kind)
	assert.Equal(t, "first_name", cfg.DataParam["df_a"].Vars["fname"])
	assert.Equal(t, "enrollees", cfg.DataParam["df_b"].Table)

	assert.Equal(t, "jarowinkler", cfg.SimParam["fname"].Comparer)
	assert.Equal(t, 0.7, cfg.SimParam["byear"].WithinYear)
	assert.Equal(t, 0.85, cfg.CutoffScores.NameHighScore)

	assert.Equal(t, 8, cfg.Parallelization.NumProcesses)
	assert.Equal(t, 250000, cfg.Parallelization.ChunkSize(1))
	assert.Equal(t, 500000, cfg.Parallelization.ChunkSize(2))

	// Defaulted when absent from the file.
	assert.Equal(t, "default", cfg.AcceptorName)
}

func TestLoad_UnknownMatchType(t *testing.T) {
	bad := `
matchtype: "12M21"
data_param:
  df_a: {name: a, kind: csv}
blocks_by_pass:
  - [fname]
`
	_, err := Load(writeConfig(t, "match.yaml", bad))
	var cfgErr *ErrConfig
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "matchtype")
}

func TestLoad_UnknownComparerKind(t *testing.T) {
	bad := `
matchtype: "M2M"
data_param:
  df_a: {name: a, kind: csv}
  df_b: {name: b, kind: csv}
blocks_by_pass:
  - [fname]
sim_param:
  fname:
    comparer: metaphoneish
`
	_, err := Load(writeConfig(t, "match.yaml", bad))
	var cfgErr *ErrConfig
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "comparer kind")
}

func TestValidate_DedupNeedsOnlyOneTable(t *testing.T) {
	cfg := &Config{
		MatchType:    Dedup,
		BlocksByPass: [][]string{{"fname"}},
		DataParam:    map[string]DatasetParam{"df_a": {Name: "a", Kind: "csv"}},
	}
	assert.NoError(t, cfg.Validate())

	cfg.MatchType = OneToOne
	assert.Error(t, cfg.Validate())
}

func TestWantedCompNames_Dedupes(t *testing.T) {
	cfg := &Config{CompNamesByPass: [][]string{
		{},
		{"fname", "lname"},
		{"fname", "byear"},
	}}
	assert.ElementsMatch(t, []string{"fname", "lname", "byear"}, cfg.WantedCompNames())
}
