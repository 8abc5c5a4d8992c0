package resolver

import (
	"github.com/chapinhall-oss/reclink/internal/driver"
	"github.com/chapinhall-oss/reclink/internal/resolver/unionfind"
)

// resolveManyToMany handles M2M: every accepted
// pair is folded into a disjoint-set over namespaced `a_<id>`/`b_<id>`
// items so a table-A id and a table-B id can never collide just
// because their source ids happen to match textually. Each input row
// becomes one crosswalk row carrying the final group id both its
// items ended up in.
func resolveManyToMany(rows []driver.OutputRow) []CrosswalkRow {
	uf := unionfind.New()
	for _, r := range rows {
		uf.AddPair("a_"+r.IndvIDA, "b_"+r.IndvIDB)
	}

	out := make([]CrosswalkRow, 0, len(rows))
	for _, r := range rows {
		group, _ := uf.GroupOf("a_" + r.IndvIDA)
		out = append(out, CrosswalkRow{
			IndvIDA: r.IndvIDA, IndvIDB: r.IndvIDB,
			Passnum: r.Passnum, GroupID: group,
		})
	}
	return out
}

// resolveDedup runs union-find over the single id space shared by both
// sides of the self-join. The crosswalk carries one row per id that
// ended up in a group of two or more members; ids that never matched
// anything are singletons and omitted from the crosswalk.
func resolveDedup(rows []driver.OutputRow) []CrosswalkRow {
	uf := unionfind.New()
	for _, r := range rows {
		uf.AddPair(r.IndvIDA, r.IndvIDB)
	}

	var out []CrosswalkRow
	for group, members := range uf.Groups() {
		if len(members) < 2 {
			continue
		}
		for _, id := range members {
			out = append(out, CrosswalkRow{IndvIDA: id, GroupID: group})
		}
	}
	return out
}
