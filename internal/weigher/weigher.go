// Package weigher computes the scalar weight attached to each accepted
// pair, used to rank competing matches during resolution.
package weigher

import "github.com/chapinhall-oss/reclink/internal/acceptor"

// Weight returns 10^(totalPasses-pass) plus the sum of this pair's
// scores, each missing-sentinel score credited as 0.5 rather than -1
// so that an absent comparison neither rewards nor unfairly penalizes a
// pair relative to one where the field genuinely mismatched (0.0).
// The 10^(totalPasses-pass) term dominates ranking by pass: an earlier
// (stricter) pass outweighs any score total a later pass can produce.
func Weight(pass, totalPasses int, scores acceptor.ScoreVector) float64 {
	w := pow10(totalPasses - pass)
	for _, v := range scores {
		if v == -1 {
			v = 0.5
		}
		w += v
	}
	return w
}

// GroundTruthWeight is assigned to pairs accepted via a ground-truth ID
// match rather than a blocking pass, ranking them above every ordinary
// pass's output.
func GroundTruthWeight(totalPasses int) float64 {
	return pow10(totalPasses + 1)
}

func pow10(exp int) float64 {
	v := 1.0
	if exp >= 0 {
		for i := 0; i < exp; i++ {
			v *= 10
		}
		return v
	}
	for i := 0; i < -exp; i++ {
		v /= 10
	}
	return v
}
