package blocker

import "github.com/chapinhall-oss/reclink/internal/record"

// GroundTruthResult is the candidate set for one ground-truth-ID
// pre-blocking pass: pairs sharing the configured identifier are
// surfaced as a virtual pass named "dup_<id>", ahead of every regular
// pass.
type GroundTruthResult struct {
	ID         string
	Candidates []Candidate
}

// GroundTruthPasses runs one virtual pass per configured ground-truth
// identifier, in the order given, marking every pair it finds as seen
// so regular passes never re-emit them. dedup applies the same
// self-join exclusions as Blocker.Dedup: self-pairs and
// same-individual pairs are dropped.
func GroundTruthPasses(tableA, tableB *record.Table, ids []string, dedup bool, seen map[pairKey]bool) []GroundTruthResult {
	if seen == nil {
		seen = map[pairKey]bool{}
	}
	results := make([]GroundTruthResult, 0, len(ids))
	for _, id := range ids {
		bucketsB := map[string][]int{}
		for idxB := 0; idxB < tableB.Len(); idxB++ {
			v := tableB.ByIdx(idxB).GroundTruth[id]
			if v == "" {
				continue
			}
			bucketsB[v] = append(bucketsB[v], idxB)
		}

		var cands []Candidate
		for idxA := 0; idxA < tableA.Len(); idxA++ {
			recA := tableA.ByIdx(idxA)
			v := recA.GroundTruth[id]
			if v == "" {
				continue
			}
			for _, idxB := range bucketsB[v] {
				if dedup {
					if idxA >= idxB {
						continue
					}
					if recA.IndvID == tableB.ByIdx(idxB).IndvID {
						continue
					}
				}
				pk := pairKey{idxA, idxB}
				if seen[pk] {
					continue
				}
				seen[pk] = true
				cands = append(cands, Candidate{IdxA: idxA, IdxB: idxB})
			}
		}
		results = append(results, GroundTruthResult{ID: id, Candidates: cands})
	}
	return results
}
