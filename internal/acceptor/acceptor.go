// Package acceptor evaluates the cascading pass/strictness rule set over
// a candidate pair's score vector, producing the four monotonic
// acceptance flags.
package acceptor

import "github.com/chapinhall-oss/reclink/internal/comparers"

// Strictness is one of the four monotone cascade levels.
type Strictness int

const (
	Strict Strictness = iota
	Moderate
	Relaxed
	Review
)

var strictnessNames = [...]string{"strict", "moderate", "relaxed", "review"}

func (s Strictness) String() string {
	if int(s) < 0 || int(s) >= len(strictnessNames) {
		return "unknown"
	}
	return strictnessNames[s]
}

// Levels is the fixed cascade order, strict first: callers OR each
// level's predicate into the next, so strict implies moderate implies
// relaxed implies review.
var Levels = [...]Strictness{Strict, Moderate, Relaxed, Review}

// ScoreVector holds the per-comparison scores computed for one
// candidate pair in one pass. A comparison absent from this pass (not
// in that pass's configured comp_names, or skipped because its fields
// weren't present in one of the tables) reads as the missing sentinel.
type ScoreVector map[string]float64

// Get returns a comparison's score, or the missing sentinel if this pass
// did not compute it.
func (s ScoreVector) Get(name string) float64 {
	if v, ok := s[name]; ok {
		return v
	}
	return comparers.Missing
}

// Thresholds carries the configured cutoff scores (cutoff_scores) and the
// per-comparison tier cutoffs the masks need (sim_param's within_1y,
// either_month_day, swap_month_day, minit_match_mname_unclear), plus
// which optional comparisons this match configuration carries at all.
type Thresholds struct {
	NameHighScore     float64
	NameVeryHighScore float64
	IDHighScore       float64
	NameReviewScore   float64
	IDReviewScore     float64

	ByearWithin1           float64
	BmonthBdayEither       float64
	BmonthBdaySwap         float64
	MinitMatchMnameUnclear float64

	HasCommonID  bool
	HasMinitial  bool
	HasDOB       bool
	HasZipcode   bool
	HasCounty    bool
}

// Masks are the reusable boolean conditions predicates compose over.
type Masks struct {
	CommonIDNull                   bool
	IDHighMask                     bool
	IDReviewMask                   bool
	DobExactMask                   bool
	DobPartialMask                 bool
	MinitMatchMnameVeryHighSimMask bool
	LocExactMask                   bool
}

// ComputeMasks derives the masks from a score vector and thresholds.
func ComputeMasks(sv ScoreVector, th Thresholds) Masks {
	var m Masks

	if th.HasCommonID {
		cid := sv.Get("common_id")
		m.CommonIDNull = cid == comparers.Missing
		m.IDHighMask = cid >= th.IDHighScore
		m.IDReviewMask = cid >= th.IDReviewScore
	} else {
		m.CommonIDNull = true
	}

	if th.HasMinitial {
		minit := sv.Get("minitial")
		mname := sv.Get("mname")
		m.MinitMatchMnameVeryHighSimMask = minit == 1 ||
			(minit == th.MinitMatchMnameUnclear && mname >= th.NameVeryHighScore)
	}

	if th.HasDOB {
		byear := sv.Get("byear")
		bmbd := sv.Get("bmonthbday")
		m.DobExactMask = bmbd == 1 && byear == 1
		m.DobPartialMask = (bmbd == 1 && byear >= th.ByearWithin1) ||
			(bmbd >= th.BmonthBdayEither && bmbd <= th.BmonthBdaySwap && byear == 1)
	}

	if th.HasZipcode {
		m.LocExactMask = sv.Get("zipcode") == 1
	}
	if th.HasCounty {
		m.LocExactMask = m.LocExactMask || sv.Get("county") == 1
	}

	return m
}

// Acceptor evaluates one pass/strictness predicate. A project
// substitutes its own type satisfying this interface instead of
// acceptor.Default, selected by name through Register/Lookup.
type Acceptor interface {
	Accept(pass int, strictness Strictness, scores ScoreVector, masks Masks, th Thresholds) bool
}

var registry = map[string]Acceptor{}

// Register makes an Acceptor available by name for config.AcceptorName
// to select.
func Register(name string, a Acceptor) { registry[name] = a }

// Lookup resolves a registered acceptor by name.
func Lookup(name string) (Acceptor, bool) {
	a, ok := registry[name]
	return a, ok
}

func init() {
	Register("default", Default{})
}
