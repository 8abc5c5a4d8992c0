package blocker

import (
	"strconv"

	"github.com/chapinhall-oss/reclink/internal/record"
)

// Candidate is one pair emitted by a blocking pass.
type Candidate struct {
	IdxA, IdxB int
}

// PassResult is the outcome of running one pass: either its candidates,
// or a skip reason.
type PassResult struct {
	Pass       Pass
	Candidates []Candidate
	Skipped    bool
	SkipReason string
}

type pairKey struct{ a, b int }

// Blocker runs an ordered list of passes over two tables, applying the
// exclusion accumulator: a pair already produced by an earlier pass
// (or a ground-truth pass) never appears again in a later pass's
// output.
type Blocker struct {
	Passes []Pass
	// Dedup, when true, treats tableB as tableA (a self-join) and
	// additionally requires idxA < idxB and distinct individual IDs.
	Dedup bool
}

// Run executes every compiled pass in order against tableA/tableB,
// returning one PassResult per pass. seen carries forward the set of
// pairs already attributed to an earlier pass or a ground-truth pass;
// pass the same set GroundTruthPasses filled to exclude ground-truth
// pairs from ordinary passes.
func (bl *Blocker) Run(tableA, tableB *record.Table, seen map[pairKey]bool) []PassResult {
	if seen == nil {
		seen = map[pairKey]bool{}
	}
	results := make([]PassResult, 0, len(bl.Passes))
	for _, p := range bl.Passes {
		if !p.Ready(tableA.Fields, tableB.Fields) {
			results = append(results, PassResult{Pass: p, Skipped: true,
				SkipReason: "blocking fields missing from one or both tables"})
			continue
		}
		cands := bl.runPass(p, tableA, tableB, seen)
		results = append(results, PassResult{Pass: p, Candidates: cands})
	}
	return results
}

func (bl *Blocker) runPass(p Pass, tableA, tableB *record.Table, seen map[pairKey]bool) []Candidate {
	bucketsB := map[string][]int{}
	for idxB := 0; idxB < tableB.Len(); idxB++ {
		recB := tableB.ByIdx(idxB)
		k, ok := blockKey(p, recB, false)
		if !ok {
			continue
		}
		bucketsB[k] = append(bucketsB[k], idxB)
	}

	var out []Candidate
	for idxA := 0; idxA < tableA.Len(); idxA++ {
		recA := tableA.ByIdx(idxA)
		k, ok := blockKey(p, recA, true)
		if !ok {
			continue
		}
		for _, idxB := range bucketsB[k] {
			if bl.Dedup {
				if idxA >= idxB {
					continue
				}
				recB := tableB.ByIdx(idxB)
				if recA.IndvID == recB.IndvID {
					continue
				}
			}
			pk := pairKey{idxA, idxB}
			if seen[pk] {
				continue
			}
			seen[pk] = true
			out = append(out, Candidate{IdxA: idxA, IdxB: idxB})
		}
	}
	return out
}

// blockKey builds the grouping key for one record's side of a pass,
// treating an empty/absent field as non-blocking (no key produced) so
// rows where "missing" encodes to "" never block together.
func blockKey(p Pass, rec *record.Record, sideA bool) (string, bool) {
	parts := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		field := f.B
		if sideA {
			field = f.A
		}
		v, ok := rec.String(field)
		if !ok {
			f, fok := rec.Float(field)
			if !fok {
				return "", false
			}
			v = strconv.FormatFloat(f, 'g', -1, 64)
		}
		if v == "" {
			return "", false
		}
		parts[i] = v
	}
	return joinKey(parts), true
}

func joinKey(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "\x1f"
		}
		out += p
	}
	return out
}

// NewSeenSet returns an empty exclusion accumulator for Run.
func NewSeenSet() map[pairKey]bool { return map[pairKey]bool{} }
