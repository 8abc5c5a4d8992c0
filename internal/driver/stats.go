package driver

import "sync"

// passStats tallies how many pairs one pass contributed at each
// strictness level.
type passStats struct {
	Strict, Moderate, Relaxed, Review int
}

// RunStats accumulates per-pass match counts across the whole run.
// Safe for concurrent use by worker goroutines.
type RunStats struct {
	mu     sync.Mutex
	byPass map[string]*passStats
	order  []string
}

// NewRunStats returns an empty, ready-to-use RunStats.
func NewRunStats() *RunStats {
	return &RunStats{byPass: map[string]*passStats{}}
}

// AddRows folds a chunk's surviving rows into the pass's running totals.
func (s *RunStats) AddRows(passnum string, rows []OutputRow) {
	if len(rows) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.byPass[passnum]
	if !ok {
		ps = &passStats{}
		s.byPass[passnum] = ps
		s.order = append(s.order, passnum)
	}
	for _, r := range rows {
		if r.MatchStrict {
			ps.Strict++
		}
		if r.MatchModerate {
			ps.Moderate++
		}
		if r.MatchRelaxed {
			ps.Relaxed++
		}
		if r.MatchReview {
			ps.Review++
		}
	}
}

// PassCount is one pass's match totals, in the order passes first
// contributed a row.
type PassCount struct {
	Passnum                           string
	Strict, Moderate, Relaxed, Review int
}

// Counts returns every pass's totals in first-contribution order.
func (s *RunStats) Counts() []PassCount {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PassCount, 0, len(s.order))
	for _, p := range s.order {
		ps := s.byPass[p]
		out = append(out, PassCount{Passnum: p, Strict: ps.Strict, Moderate: ps.Moderate, Relaxed: ps.Relaxed, Review: ps.Review})
	}
	return out
}

// Total returns the run-wide review-level match count.
func (s *RunStats) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ps := range s.byPass {
		n += ps.Review
	}
	return n
}
