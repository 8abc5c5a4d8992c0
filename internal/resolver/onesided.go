package resolver

import "github.com/chapinhall-oss/reclink/internal/driver"

// side names which id (a or b) a uniqueness constraint binds.
type side int

const (
	sideA side = iota
	sideB
	sideBoth
)

// resolveOneToOne processes rows in weight-descending order; within a
// tied-weight group, a side seen more than once (against different
// partners) is contested and none of its rows in that group are
// assigned. Contested rows are simply omitted, never retried, and the
// contested id stays unmatched: lower-weight rows cannot bind it later.
func resolveOneToOne(rows []driver.OutputRow) []CrosswalkRow {
	return resolveGreedy(rows, sideBoth)
}

// resolveOneSided handles 12M/M21: unique names which side (the "many"
// side) must bind at most one partner; the other ("one") side is never
// checked and may recur across many rows.
func resolveOneSided(rows []driver.OutputRow, unique side) []CrosswalkRow {
	return resolveGreedy(rows, unique)
}

// resolveGreedy is the shared engine behind 121/12M/M21: per
// weight-descending group, assign every row whose constrained side(s)
// are both free and unambiguous within the group, then commit those
// assignments, and mark the group's contested ids as taken, before
// moving to the next (lower) weight group.
func resolveGreedy(rows []driver.OutputRow, unique side) []CrosswalkRow {
	assignedA := map[string]bool{}
	assignedB := map[string]bool{}
	var out []CrosswalkRow

	for _, group := range groupByWeight(rows) {
		// Only rows whose constrained side(s) are still free are
		// candidates this round; a higher-weight assignment is never
		// overridden.
		var candidates []driver.OutputRow
		for _, r := range group {
			if (unique == sideA || unique == sideBoth) && assignedA[r.IndvIDA] {
				continue
			}
			if (unique == sideB || unique == sideBoth) && assignedB[r.IndvIDB] {
				continue
			}
			candidates = append(candidates, r)
		}

		contestedA := map[string]bool{}
		contestedB := map[string]bool{}
		if unique == sideA || unique == sideBoth {
			seenA := map[string]bool{}
			for _, r := range candidates {
				if seenA[r.IndvIDA] {
					contestedA[r.IndvIDA] = true
				}
				seenA[r.IndvIDA] = true
			}
		}
		if unique == sideB || unique == sideBoth {
			seenB := map[string]bool{}
			for _, r := range candidates {
				if seenB[r.IndvIDB] {
					contestedB[r.IndvIDB] = true
				}
				seenB[r.IndvIDB] = true
			}
		}

		for _, r := range candidates {
			if contestedA[r.IndvIDA] || contestedB[r.IndvIDB] {
				continue
			}
			if unique == sideA || unique == sideBoth {
				assignedA[r.IndvIDA] = true
			}
			if unique == sideB || unique == sideBoth {
				assignedB[r.IndvIDB] = true
			}
			out = append(out, CrosswalkRow{IndvIDA: r.IndvIDA, IndvIDB: r.IndvIDB, Passnum: r.Passnum})
		}
		for id := range contestedA {
			assignedA[id] = true
		}
		for id := range contestedB {
			assignedB[id] = true
		}
	}
	return out
}
