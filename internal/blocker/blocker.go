// Package blocker generates candidate pairs across an ordered list of
// blocking passes, excluding any pair already produced by an earlier
// (stricter) pass so every candidate is attributed to exactly one pass.
package blocker

import (
	"strings"

	"github.com/chapinhall-oss/reclink/internal/record"
)

// FieldPair names the logical field compared on each side of a pass;
// normally identical, but an inverted pass (the "_inv" suffix
// convention, e.g. blocking on xf/xl transposed to catch first/last
// name swaps) pairs a field on A with a different field on B.
type FieldPair struct {
	A, B string
}

// Pass is one compiled blocking pass.
type Pass struct {
	Number int
	Fields []FieldPair
}

// CompilePasses parses the flat blocks_by_pass configuration
// (one string list per pass, entries optionally suffixed "_inv") into
// FieldPair lists. An "_inv" pass pairs A's fields, in the order given,
// against B's fields in reverse order.
func CompilePasses(blocksByPass [][]string) []Pass {
	passes := make([]Pass, len(blocksByPass))
	for i, vars := range blocksByPass {
		inverted := false
		stripped := make([]string, len(vars))
		for j, v := range vars {
			if strings.HasSuffix(v, "_inv") {
				inverted = true
				stripped[j] = strings.TrimSuffix(v, "_inv")
			} else {
				stripped[j] = v
			}
		}
		bFields := stripped
		if inverted {
			bFields = reverseStrings(stripped)
		}
		fields := make([]FieldPair, len(stripped))
		for j := range stripped {
			fields[j] = FieldPair{A: stripped[j], B: bFields[j]}
		}
		passes[i] = Pass{Number: i, Fields: fields}
	}
	return passes
}

func reverseStrings(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// Ready reports whether both tables carry every field a pass needs.
// A pass with a field missing from either side is skipped entirely
// (warned, not fatal).
func (p Pass) Ready(fieldsA, fieldsB record.FieldSet) bool {
	for _, f := range p.Fields {
		if !fieldsA.Has(f.A) || !fieldsB.Has(f.B) {
			return false
		}
	}
	return true
}
