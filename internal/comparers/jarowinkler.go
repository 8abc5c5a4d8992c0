package comparers

import "math"

// jaroWinklerSim returns the Jaro-Winkler similarity of two strings in
// [0,1]. Callers check exact equality before falling back to this
// function, so there is no short circuit here.
func jaroWinklerSim(s1, s2 string) float64 {
	s1 = normalizeUpper(s1)
	s2 = normalizeUpper(s2)

	if len(s1) == 0 || len(s2) == 0 {
		return 0.0
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	len1 := len(r1)
	len2 := len(r2)

	matchWindow := int(math.Max(float64(len1), float64(len2))/2.0) - 1
	if matchWindow < 1 {
		matchWindow = 1
	}

	s1Matches := make([]bool, len1)
	s2Matches := make([]bool, len2)

	matches := 0
	transpositions := 0

	for i := 0; i < len1; i++ {
		start := int(math.Max(0, float64(i-matchWindow)))
		end := int(math.Min(float64(len2), float64(i+matchWindow+1)))

		for j := start; j < end; j++ {
			if s2Matches[j] || r1[i] != r2[j] {
				continue
			}
			s1Matches[i] = true
			s2Matches[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	k := 0
	for i := 0; i < len1; i++ {
		if !s1Matches[i] {
			continue
		}
		for !s2Matches[k] {
			k++
		}
		if r1[i] != r2[k] {
			transpositions++
		}
		k++
	}

	jaro := (float64(matches)/float64(len1) +
		float64(matches)/float64(len2) +
		float64(matches-transpositions/2)/float64(matches)) / 3.0

	prefixLen := 0
	maxPrefix := int(math.Min(4, math.Min(float64(len1), float64(len2))))
	for i := 0; i < maxPrefix; i++ {
		if r1[i] == r2[i] {
			prefixLen++
		} else {
			break
		}
	}

	return jaro + (0.1 * float64(prefixLen) * (1.0 - jaro))
}
