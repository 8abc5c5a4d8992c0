package driver

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chapinhall-oss/reclink/internal/acceptor"
	"github.com/chapinhall-oss/reclink/internal/blocker"
	"github.com/chapinhall-oss/reclink/internal/comparers"
	"github.com/chapinhall-oss/reclink/internal/config"
	"github.com/chapinhall-oss/reclink/internal/record"
)

func testConfig() *config.Config {
	return &config.Config{
		MatchType: config.OneToOne,
		BlocksByPass: [][]string{
			{"common_id"},
			{"fname", "lname"},
		},
		CompNamesByPass: [][]string{
			{},
			{"fname", "lname", "byear", "bmonthbday", "common_id"},
		},
		SimParam: map[string]comparers.Param{
			"fname":      {Comparer: "jarowinkler", MissingValue: -1},
			"lname":      {Comparer: "jarowinkler", MissingValue: -1},
			"common_id":  {Comparer: "levenshtein", MissingValue: -1},
			"byear":      {Comparer: "byear", MissingValue: -1, WithinYear: 0.7, YearDif: 1},
			"bmonthbday": {Comparer: "bmonthbday", MissingValue: -1, SwapMonthDay: 0.8, EitherMonthDay: 0.4},
		},
		CutoffScores: config.CutoffScores{
			NameHighScore:     0.85,
			NameVeryHighScore: 0.95,
			IDHighScore:       0.9,
			NameReviewScore:   0.8,
			IDReviewScore:     0.85,
		},
		Parallelization: config.Parallelization{NumProcesses: 2},
	}
}

var testFields = record.FieldSet{
	record.FieldCommonID: true,
	record.FieldFName:    true,
	record.FieldLName:    true,
	record.FieldByear:    true,
	record.FieldBmonth:   true,
	record.FieldBday:     true,
}

type personRow struct {
	indvID, commonID, fname, lname string
	byear, bmonth, bday            float64
	gt                             string
}

func makeTable(rows []personRow) *record.Table {
	t := &record.Table{Fields: testFields, GroundTruthFields: []string{"case_id"}}
	for i, row := range rows {
		rec := record.Record{Idx: i, IndvID: row.indvID}
		rec.SetString(record.FieldCommonID, row.commonID)
		rec.SetString(record.FieldFName, row.fname)
		rec.SetString(record.FieldLName, row.lname)
		if row.byear > 0 {
			rec.SetFloat(record.FieldByear, row.byear, true)
			rec.SetFloat(record.FieldBmonth, row.bmonth, true)
			rec.SetFloat(record.FieldBday, row.bday, true)
		}
		if row.gt != "" {
			rec.GroundTruth = map[string]string{"case_id": row.gt}
		}
		t.Records = append(t.Records, rec)
	}
	return t
}

func readOutput(t *testing.T, path string) ([]string, [][]string) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	all, err := r.ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, all)
	return all[0], all[1:]
}

func col(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func TestRun_EndToEnd(t *testing.T) {
	tableA := makeTable([]personRow{
		{indvID: "a1", commonID: "111111111", fname: "JOHN", lname: "SMITH", byear: 1980, bmonth: 3, bday: 7},
		{indvID: "a2", commonID: "222222222", fname: "KIM", lname: "LEE", byear: 1990, bmonth: 5, bday: 9},
	})
	tableB := makeTable([]personRow{
		{indvID: "b1", commonID: "111111111", fname: "JOHN", lname: "SMITH", byear: 1980, bmonth: 3, bday: 7},
		{indvID: "b2", commonID: "", fname: "JOHN", lname: "SMITH", byear: 1980, bmonth: 3, bday: 7},
	})

	dir := t.TempDir()
	outputPath := filepath.Join(dir, "output.csv")
	shardDir := filepath.Join(dir, "shards")

	drv := New(testConfig(), acceptor.Default{}, nil)
	stats, err := drv.Run(context.Background(), tableA, tableB, shardDir, outputPath)
	require.NoError(t, err)

	header, rows := readOutput(t, outputPath)
	require.Len(t, rows, 2)

	pass := col(header, "passnum")
	weight := col(header, "weight")
	idA, idB := col(header, "indv_id_a"), col(header, "indv_id_b")

	// The common_id block (pass 0) outweighs the name block (pass 1).
	assert.Equal(t, "0", rows[0][pass])
	assert.Equal(t, "a1", rows[0][idA])
	assert.Equal(t, "b1", rows[0][idB])
	assert.Equal(t, "1", rows[1][pass])
	assert.Equal(t, "b2", rows[1][idB])

	w0, _ := strconv.ParseFloat(rows[0][weight], 64)
	w1, _ := strconv.ParseFloat(rows[1][weight], 64)
	assert.Greater(t, w0, w1)

	// Acceptance flags are monotone and review is always set on emitted
	// rows.
	for _, r := range rows {
		s := r[col(header, "match_strict")] == "1"
		m := r[col(header, "match_moderate")] == "1"
		x := r[col(header, "match_relaxed")] == "1"
		v := r[col(header, "match_review")] == "1"
		assert.False(t, s && !m)
		assert.False(t, m && !x)
		assert.False(t, x && !v)
		assert.True(t, v)
	}

	// Each pair appears under exactly one pass.
	seen := map[string]int{}
	for _, r := range rows {
		seen[r[idA]+"|"+r[idB]]++
	}
	for pair, n := range seen {
		assert.Equal(t, 1, n, "pair %s emitted more than once", pair)
	}

	// Shards are deleted after the merge.
	entries, err := os.ReadDir(shardDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.Equal(t, 2, stats.Total())
}

func TestRun_GroundTruthPassDominates(t *testing.T) {
	tableA := makeTable([]personRow{
		{indvID: "a1", commonID: "111111111", fname: "JOHN", lname: "SMITH", byear: 1980, bmonth: 3, bday: 7, gt: "C-1"},
	})
	tableB := makeTable([]personRow{
		{indvID: "b1", commonID: "999999999", fname: "TOTALLY", lname: "DIFFERENT", byear: 1955, bmonth: 1, bday: 1, gt: "C-1"},
	})

	cfg := testConfig()
	cfg.GroundTruthIDs = []string{"case_id"}

	dir := t.TempDir()
	outputPath := filepath.Join(dir, "output.csv")

	drv := New(cfg, acceptor.Default{}, nil)
	_, err := drv.Run(context.Background(), tableA, tableB, filepath.Join(dir, "shards"), outputPath)
	require.NoError(t, err)

	header, rows := readOutput(t, outputPath)
	require.Len(t, rows, 1)

	// The shared ground-truth ID forces the pair out at every strictness
	// level with a weight above any regular pass, despite the records
	// agreeing on nothing else.
	assert.Equal(t, "dup_case_id", rows[0][col(header, "passnum")])
	assert.Equal(t, "1", rows[0][col(header, "match_strict")])
	w, _ := strconv.ParseFloat(rows[0][col(header, "weight")], 64)
	assert.Equal(t, 1000.0, w)
}

func TestRun_EmptyCandidates(t *testing.T) {
	tableA := makeTable([]personRow{
		{indvID: "a1", commonID: "111111111", fname: "JOHN", lname: "SMITH"},
	})
	tableB := makeTable([]personRow{
		{indvID: "b1", commonID: "222222222", fname: "KIM", lname: "LEE"},
	})

	dir := t.TempDir()
	outputPath := filepath.Join(dir, "output.csv")

	drv := New(testConfig(), acceptor.Default{}, nil)
	stats, err := drv.Run(context.Background(), tableA, tableB, filepath.Join(dir, "shards"), outputPath)
	require.NoError(t, err)

	_, rows := readOutput(t, outputPath)
	assert.Empty(t, rows)
	assert.Equal(t, 0, stats.Total())
}

func TestRun_SkipsPassMissingFields(t *testing.T) {
	fields := record.FieldSet{record.FieldFName: true, record.FieldLName: true}
	slim := func(rows []personRow) *record.Table {
		tbl := makeTable(rows)
		tbl.Fields = fields
		return tbl
	}
	tableA := slim([]personRow{{indvID: "a1", fname: "JOHN", lname: "SMITH"}})
	tableB := slim([]personRow{{indvID: "b1", fname: "JOHN", lname: "SMITH"}})

	cfg := testConfig()
	cfg.CompNamesByPass = [][]string{{}, {"fname", "lname"}}

	dir := t.TempDir()
	outputPath := filepath.Join(dir, "output.csv")

	drv := New(cfg, acceptor.Default{}, nil)
	_, err := drv.Run(context.Background(), tableA, tableB, filepath.Join(dir, "shards"), outputPath)
	require.NoError(t, err)

	// The common_id pass is skipped (field unmapped); the name pass
	// still runs.
	header, rows := readOutput(t, outputPath)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0][col(header, "passnum")])
}

func TestRun_DedupSelfExclusion(t *testing.T) {
	table := makeTable([]personRow{
		{indvID: "p1", commonID: "111111111", fname: "JOHN", lname: "SMITH", byear: 1980, bmonth: 3, bday: 7},
		{indvID: "p1", commonID: "111111111", fname: "JOHN", lname: "SMITH", byear: 1980, bmonth: 3, bday: 7},
		{indvID: "p2", commonID: "111111111", fname: "JOHN", lname: "SMITH", byear: 1980, bmonth: 3, bday: 7},
	})

	cfg := testConfig()
	cfg.MatchType = config.Dedup

	dir := t.TempDir()
	outputPath := filepath.Join(dir, "output.csv")

	drv := New(cfg, acceptor.Default{}, nil)
	_, err := drv.Run(context.Background(), table, record.DedupAlias(table), filepath.Join(dir, "shards"), outputPath)
	require.NoError(t, err)

	header, rows := readOutput(t, outputPath)
	idxA, idxB := col(header, "idx_a"), col(header, "idx_b")
	idA, idB := col(header, "indv_id_a"), col(header, "indv_id_b")
	require.NotEmpty(t, rows)
	for _, r := range rows {
		a, _ := strconv.Atoi(r[idxA])
		b, _ := strconv.Atoi(r[idxB])
		assert.Less(t, a, b)
		assert.NotEqual(t, r[idA], r[idB])
	}
}

func TestProcessChunk_SortsByWeightDescending(t *testing.T) {
	cfg := testConfig()
	tableA := makeTable([]personRow{
		{indvID: "a1", commonID: "111111111", fname: "JOHN", lname: "SMITH", byear: 1980, bmonth: 3, bday: 7},
		{indvID: "a2", commonID: "222222222", fname: "JOHN", lname: "SMITH", byear: 1990, bmonth: 5, bday: 9},
	})
	tableB := makeTable([]personRow{
		{indvID: "b1", commonID: "111111111", fname: "JOHN", lname: "SMITH", byear: 1980, bmonth: 3, bday: 7},
		{indvID: "b2", commonID: "222222222", fname: "JOHN", lname: "SMITH", byear: 1990, bmonth: 5, bday: 9},
	})

	reg, err := comparers.Build(cfg.CompNamesByPass[1], cfg.SimParam, tableA.Fields, tableB.Fields)
	require.NoError(t, err)
	th := buildThresholds(cfg, tableA.Fields, tableB.Fields)

	cands := []blocker.Candidate{{IdxA: 0, IdxB: 0}, {IdxA: 0, IdxB: 1}, {IdxA: 1, IdxB: 0}, {IdxA: 1, IdxB: 1}}
	rows, err := processChunk(context.Background(), 1, 2, cands, tableA, tableB, reg, acceptor.Default{}, th)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, rows[i-1].Weight, rows[i].Weight)
	}
}

func TestMergeShards_GlobalOrder(t *testing.T) {
	dir := t.TempDir()
	compNames := []string{"fname"}

	mk := func(name string, weights ...float64) string {
		var rows []OutputRow
		for i, w := range weights {
			rows = append(rows, OutputRow{
				IndvIDA: "a", IndvIDB: "b", IdxA: i, IdxB: i, Passnum: "1",
				MatchReview: true, Weight: w,
				Scores: acceptor.ScoreVector{"fname": 1},
			})
		}
		path := filepath.Join(dir, name)
		require.NoError(t, writeShard(path, rows, compNames))
		return path
	}

	// Each shard is individually descending; the merge must interleave.
	s1 := mk("s1.csv", 9.5, 7.1, 2.3)
	s2 := mk("s2.csv", 8.8, 8.8, 1.0)
	s3 := mk("s3.csv")

	outputPath := filepath.Join(dir, "merged.csv")
	require.NoError(t, mergeShards([]string{s1, s2, s3}, outputPath, compNames))

	header, rows := readOutput(t, outputPath)
	require.Len(t, rows, 6)
	w := col(header, "weight")
	var prev float64 = 1e18
	for _, r := range rows {
		cur, err := strconv.ParseFloat(r[w], 64)
		require.NoError(t, err)
		assert.LessOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestChunkCandidates_Bounds(t *testing.T) {
	cands := []blocker.Candidate{{IdxA: 0, IdxB: 0}, {IdxA: 0, IdxB: 1}, {IdxA: 1, IdxB: 0}, {IdxA: 1, IdxB: 1}, {IdxA: 2, IdxB: 0}}
	chunks := chunkCandidates(cands, 2)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[2], 1)
}
