// Package resolver turns the driver's pairwise accepted-row stream,
// filtered to one strictness level, into the final crosswalk for the
// configured cardinality regime.
package resolver

import (
	"fmt"
	"sort"

	"github.com/chapinhall-oss/reclink/internal/acceptor"
	"github.com/chapinhall-oss/reclink/internal/config"
	"github.com/chapinhall-oss/reclink/internal/driver"
)

// CrosswalkRow is one output row. Which fields are populated depends
// on the matchtype: 121/12M/M21 rows carry IndvIDA/IndvIDB/Passnum;
// M2M rows additionally carry GroupID; dedup rows carry only IndvIDA
// (the member id) and GroupID.
type CrosswalkRow struct {
	IndvIDA string
	IndvIDB string
	Passnum string
	GroupID string
}

// Crosswalk is the resolved mapping for one match run at one
// strictness level.
type Crosswalk struct {
	MatchType config.MatchType
	Strictness acceptor.Strictness
	Rows      []CrosswalkRow
}

// ErrUnsupportedMatchType is returned for a matchtype Resolve doesn't
// recognize; config.Config.Validate should have already rejected it,
// so this only fires when Resolve is called directly with a bad value.
type ErrUnsupportedMatchType struct{ MatchType config.MatchType }

func (e *ErrUnsupportedMatchType) Error() string {
	return fmt.Sprintf("resolver: unsupported matchtype %q", e.MatchType)
}

// Resolve dispatches to the cardinality-regime-specific resolution
// function. rows need not be pre-sorted; Resolve sorts a filtered copy
// descending by weight (ties by idx_a, idx_b) before resolving, the
// same order the driver's merged output is already in.
func Resolve(matchtype config.MatchType, rows []driver.OutputRow, strictness acceptor.Strictness) (Crosswalk, error) {
	filtered := filterAccepted(rows, strictness)
	sortByWeightDesc(filtered)

	cw := Crosswalk{MatchType: matchtype, Strictness: strictness}
	switch matchtype {
	case config.OneToOne:
		cw.Rows = resolveOneToOne(filtered)
	case config.OneToMany:
		// 12M: table A is the "one" side, table B is constrained to at
		// most one partner.
		cw.Rows = resolveOneSided(filtered, sideB)
	case config.ManyToOne:
		// M21: table B is the "one" side, table A is constrained.
		cw.Rows = resolveOneSided(filtered, sideA)
	case config.ManyToMany:
		cw.Rows = resolveManyToMany(filtered)
	case config.Dedup:
		cw.Rows = resolveDedup(filtered)
	default:
		return Crosswalk{}, &ErrUnsupportedMatchType{MatchType: matchtype}
	}
	return cw, nil
}

func filterAccepted(rows []driver.OutputRow, strictness acceptor.Strictness) []driver.OutputRow {
	out := make([]driver.OutputRow, 0, len(rows))
	for _, r := range rows {
		if acceptedAt(r, strictness) {
			out = append(out, r)
		}
	}
	return out
}

func acceptedAt(r driver.OutputRow, strictness acceptor.Strictness) bool {
	switch strictness {
	case acceptor.Strict:
		return r.MatchStrict
	case acceptor.Moderate:
		return r.MatchModerate
	case acceptor.Relaxed:
		return r.MatchRelaxed
	case acceptor.Review:
		return r.MatchReview
	default:
		return false
	}
}

func sortByWeightDesc(rows []driver.OutputRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Weight != rows[j].Weight {
			return rows[i].Weight > rows[j].Weight
		}
		if rows[i].IdxA != rows[j].IdxA {
			return rows[i].IdxA < rows[j].IdxA
		}
		return rows[i].IdxB < rows[j].IdxB
	})
}

// groupByWeight splits an already weight-sorted slice into consecutive
// equal-weight runs, the unit the tie rule reasons about.
func groupByWeight(rows []driver.OutputRow) [][]driver.OutputRow {
	var groups [][]driver.OutputRow
	i := 0
	for i < len(rows) {
		j := i + 1
		for j < len(rows) && rows[j].Weight == rows[i].Weight {
			j++
		}
		groups = append(groups, rows[i:j])
		i = j
	}
	return groups
}
