// Package comparers implements the engine's typed per-field similarity
// functions as a registry built once from configuration: a
// map[string]CompareFunc keyed by comparison name, constructed once per
// pass before any pass runs.
package comparers

import (
	"fmt"
	"strings"

	"github.com/chapinhall-oss/reclink/internal/record"
)

// Missing is the sentinel score for "at least one side lacked evidence",
// distinct from any real comparer output (all non-custom comparers
// produce values in [0,1]).
const Missing = -1.0

// CompareFunc computes a similarity score in [0,1] or Missing for one
// named comparison between two records.
type CompareFunc func(a, b *record.Record) float64

// Registry is the built, pass-independent set of comparers keyed by
// comparison name (e.g. "fname", "fnamelname", "byear").
type Registry map[string]CompareFunc

// Param holds the per-comparison configuration: comparer kind plus the
// thresholds that kind needs (the `sim_param[<name>]` config block).
type Param struct {
	Comparer string `mapstructure:"comparer"`

	MissingValue float64 `mapstructure:"missing_value"`

	// byear
	WithinYear float64 `mapstructure:"within_1y"`
	YearDif    float64 `mapstructure:"year_dif"`

	// bmonthbday
	SwapMonthDay   float64 `mapstructure:"swap_month_day"`
	EitherMonthDay float64 `mapstructure:"either_month_day"`

	// minitial
	MinitMatchMnameUnclear float64 `mapstructure:"minit_match_mname_unclear"`

	// numeric
	Offset float64 `mapstructure:"offset"`

	// date
	DateSwapMonthDay float64 `mapstructure:"date_swap_month_day"`
}

// Build constructs a Registry from a parameter table, the set of
// comparison names actually required (the union over
// config.CompNamesByPass), and the field sets of both tables (used to
// decide whether derived comparisons like fnamelname/bmonthbday are
// constructible). An unknown comparer kind is a configuration error
// surfaced here, before any pass runs.
func Build(wanted []string, params map[string]Param, fieldsA, fieldsB record.FieldSet) (Registry, error) {
	reg := Registry{}
	for _, name := range wanted {
		if _, ok := reg[name]; ok {
			continue
		}
		p, ok := params[name]
		if !ok {
			return nil, fmt.Errorf("comparers: no sim_param entry for comparison %q", name)
		}
		cf, ok, err := build(name, p, fieldsA, fieldsB)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Fields this comparison needs are not present on both
			// sides; skip silently.
			continue
		}
		reg[name] = cf
	}
	return reg, nil
}

func build(name string, p Param, fieldsA, fieldsB record.FieldSet) (CompareFunc, bool, error) {
	switch p.Comparer {
	case "jarowinkler":
		if !fieldsA.Has(name) || !fieldsB.Has(name) {
			return nil, false, nil
		}
		return stringComparer(name, p.MissingValue, jaroWinklerSim), true, nil
	case "levenshtein":
		if !fieldsA.Has(name) || !fieldsB.Has(name) {
			return nil, false, nil
		}
		return stringComparer(name, p.MissingValue, levenshteinSim), true, nil
	case "inv_jarowinkler":
		if len(name) < 6 {
			return nil, false, fmt.Errorf("comparers: inv_jarowinkler comparison name %q too short to split", name)
		}
		va, vb := name[:5], name[5:]
		if !fieldsA.Has(va) || !fieldsB.Has(vb) {
			return nil, false, nil
		}
		return invertedStringComparer(va, vb, p.MissingValue, jaroWinklerSim), true, nil
	case "exact":
		if !fieldsA.Has(name) || !fieldsB.Has(name) {
			return nil, false, nil
		}
		return exactComparer(name, p.MissingValue), true, nil
	case "numeric":
		if !fieldsA.Has(name) || !fieldsB.Has(name) {
			return nil, false, nil
		}
		return numericComparer(name, p.MissingValue, p.Offset), true, nil
	case "date":
		if !fieldsA.HasAll(record.FieldBmonth, record.FieldBday) ||
			!fieldsB.HasAll(record.FieldBmonth, record.FieldBday) {
			return nil, false, nil
		}
		return dateComparer(p.MissingValue, p.DateSwapMonthDay), true, nil
	case "byear":
		if !fieldsA.Has(record.FieldByear) || !fieldsB.Has(record.FieldByear) {
			return nil, false, nil
		}
		yearDif := p.YearDif
		if yearDif == 0 {
			yearDif = 1
		}
		return byearComparer(p.WithinYear, p.MissingValue, yearDif), true, nil
	case "bmonthbday":
		if !fieldsA.HasAll(record.FieldBmonth, record.FieldBday) ||
			!fieldsB.HasAll(record.FieldBmonth, record.FieldBday) {
			return nil, false, nil
		}
		return bmonthBdayComparer(p.SwapMonthDay, p.EitherMonthDay, p.MissingValue), true, nil
	case "minitial":
		if !fieldsA.HasAll(record.FieldMinitial, record.FieldMName) ||
			!fieldsB.HasAll(record.FieldMinitial, record.FieldMName) {
			return nil, false, nil
		}
		return minitialComparer(p.MinitMatchMnameUnclear, p.MissingValue), true, nil
	default:
		return nil, false, fmt.Errorf("comparers: unrecognized comparer kind %q for comparison %q", p.Comparer, name)
	}
}

func stringComparer(field string, missing float64, sim func(a, b string) float64) CompareFunc {
	return func(a, b *record.Record) float64 {
		av, aok := a.String(field)
		bv, bok := b.String(field)
		if !aok || !bok {
			return missing
		}
		if av == bv {
			return 1.0
		}
		return sim(av, bv)
	}
}

func invertedStringComparer(fieldA, fieldB string, missing float64, sim func(a, b string) float64) CompareFunc {
	return func(a, b *record.Record) float64 {
		av, aok := a.String(fieldA)
		bv, bok := b.String(fieldB)
		if !aok || !bok {
			return missing
		}
		if av == bv {
			return 1.0
		}
		return sim(av, bv)
	}
}

func exactComparer(field string, missing float64) CompareFunc {
	return func(a, b *record.Record) float64 {
		av, aok := a.String(field)
		bv, bok := b.String(field)
		if !aok || !bok {
			return missing
		}
		if av == bv {
			return 1.0
		}
		return 0.0
	}
}

func numericComparer(field string, missing, offset float64) CompareFunc {
	return func(a, b *record.Record) float64 {
		av, aok := a.Float(field)
		bv, bok := b.Float(field)
		if !aok || !bok {
			return missing
		}
		if offset <= 0 {
			if av == bv {
				return 1.0
			}
			return 0.0
		}
		diff := av - bv
		if diff < 0 {
			diff = -diff
		}
		sim := 1.0 - diff/offset
		if sim < 0 {
			return 0.0
		}
		return sim
	}
}

func dateComparer(missing, swapCredit float64) CompareFunc {
	return func(a, b *record.Record) float64 {
		am, aok1 := a.Float(record.FieldBmonth)
		ad, aok2 := a.Float(record.FieldBday)
		bm, bok1 := b.Float(record.FieldBmonth)
		bd, bok2 := b.Float(record.FieldBday)
		if !aok1 || !aok2 || !bok1 || !bok2 {
			return missing
		}
		if am == bm && ad == bd {
			return 1.0
		}
		if ad == bm && am == bd {
			return swapCredit
		}
		return 0.0
	}
}

func byearComparer(withinYear, missing, yearDif float64) CompareFunc {
	return func(a, b *record.Record) float64 {
		av, aok := a.Float(record.FieldByear)
		bv, bok := b.Float(record.FieldByear)
		if !aok || !bok {
			return missing
		}
		if av == bv {
			return 1.0
		}
		diff := av - bv
		if diff < 0 {
			diff = -diff
		}
		if diff <= yearDif {
			return withinYear
		}
		return 0.0
	}
}

func bmonthBdayComparer(swapMonthDay, eitherMonthDay, missing float64) CompareFunc {
	return func(a, b *record.Record) float64 {
		am, aok1 := a.Float(record.FieldBmonth)
		ad, aok2 := a.Float(record.FieldBday)
		bm, bok1 := b.Float(record.FieldBmonth)
		bd, bok2 := b.Float(record.FieldBday)
		if !aok1 || !aok2 || !bok1 || !bok2 {
			return missing
		}
		if am == bm && ad == bd {
			return 1.0
		}
		if ad == bm && am == bd {
			return swapMonthDay
		}
		if am == bm || ad == bd {
			return eitherMonthDay
		}
		return 0.0
	}
}

func minitialComparer(unclear, missing float64) CompareFunc {
	return func(a, b *record.Record) float64 {
		aInit, aok := a.String(record.FieldMinitial)
		bInit, bok := b.String(record.FieldMinitial)
		if !aok || !bok {
			return missing
		}
		if aInit != bInit {
			return 0.0
		}
		aName, _ := a.String(record.FieldMName)
		bName, _ := b.String(record.FieldMName)
		if len(aName) == 1 || len(bName) == 1 {
			return 1.0
		}
		return unclear
	}
}

// ValidCompNames lists the usable comparison names for a dataset: every
// logical field the dataset maps is a usable comparison name except
// indv_id/xf/xl (which feed blocking, not scoring directly), plus the
// derived fnamelname/lnamefname/bmonthbday names when their component
// fields are present.
func ValidCompNames(fields record.FieldSet) []string {
	var out []string
	for name := range fields {
		switch name {
		case "indv_id", record.FieldXF, record.FieldXL:
			continue
		}
		out = append(out, name)
	}
	if fields.HasAll(record.FieldFName, record.FieldLName) {
		out = append(out, "fnamelname", "lnamefname")
	}
	if fields.HasAll(record.FieldBmonth, record.FieldBday) {
		out = append(out, "bmonthbday")
	}
	return out
}

// String similarity is case-insensitive; record fields are uppercased
// during standardization but raw callers may pass mixed case.
func normalizeUpper(s string) string { return strings.ToUpper(s) }
