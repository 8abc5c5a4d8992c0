package driver

import (
	"container/heap"
	"encoding/csv"
	"fmt"
	"os"
)

// shardHeap is a max-heap of shard readers ordered by their buffered
// row's (weight desc, idx_a asc, idx_b asc). Each shard is already
// sorted, so the merge reads every shard once, sequentially.
type shardHeap []*shardReader

func (h shardHeap) Len() int { return len(h) }
func (h shardHeap) Less(i, j int) bool {
	a, b := h[i].cur, h[j].cur
	if a.Weight != b.Weight {
		return a.Weight > b.Weight
	}
	if a.IdxA != b.IdxA {
		return a.IdxA < b.IdxA
	}
	return a.IdxB < b.IdxB
}
func (h shardHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *shardHeap) Push(x any)   { *h = append(*h, x.(*shardReader)) }
func (h *shardHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// mergeShards performs a k-way merge of every shard, already internally
// sorted descending by weight with (idx_a, idx_b) tie-break, into one
// output CSV in that same global order.
func mergeShards(shardPaths []string, outputPath string, compNames []string) error {
	var readers []*shardReader
	defer func() {
		for _, r := range readers {
			r.close()
		}
	}()

	h := shardHeap{}
	for _, p := range shardPaths {
		r, err := openShardReader(p, compNames)
		if err != nil {
			return err
		}
		readers = append(readers, r)
		if !r.done {
			h = append(h, r)
		}
	}
	heap.Init(&h)

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("driver: create output %s: %w", outputPath, err)
	}
	defer out.Close()
	w := csv.NewWriter(out)
	if err := w.Write(header(compNames)); err != nil {
		return err
	}

	rec := make([]string, len(fixedColumns)+len(compNames))
	for h.Len() > 0 {
		sr := h[0]
		row := sr.cur
		rec[0] = row.IndvIDA
		rec[1] = row.IndvIDB
		rec[2] = fmt.Sprint(row.IdxA)
		rec[3] = fmt.Sprint(row.IdxB)
		rec[4] = row.Passnum
		rec[5] = formatBool(row.MatchStrict)
		rec[6] = formatBool(row.MatchModerate)
		rec[7] = formatBool(row.MatchRelaxed)
		rec[8] = formatBool(row.MatchReview)
		rec[9] = formatFloat(row.Weight)
		for i, name := range compNames {
			rec[len(fixedColumns)+i] = formatFloat(row.Scores.Get(name))
		}
		if err := w.Write(rec); err != nil {
			return err
		}

		if err := sr.advance(); err != nil {
			return err
		}
		if sr.done {
			heap.Pop(&h)
		} else {
			heap.Fix(&h, 0)
		}
	}

	w.Flush()
	return w.Error()
}
