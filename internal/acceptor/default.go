package acceptor

// Default is the engine's built-in Acceptor: twenty pass/strictness
// predicates, passes 0 through 4 each at strict/moderate/relaxed/review.
type Default struct{}

func (Default) Accept(pass int, s Strictness, sv ScoreVector, m Masks, th Thresholds) bool {
	switch pass {
	case 0:
		return acceptP0(s)
	case 1:
		return acceptP1(s, sv, m, th)
	case 2:
		return acceptP2(s, sv, m, th)
	case 3:
		return acceptP3(s, sv, m, th)
	case 4:
		return acceptP4(s, sv, m, th)
	default:
		return false
	}
}

// Pass 0 is the exact-match pass: its candidates already agree on every
// field it blocks on, it carries no comparisons, and all four
// strictness levels accept unconditionally.
func acceptP0(Strictness) bool { return true }

func acceptP1(s Strictness, sv ScoreVector, m Masks, th Thresholds) bool {
	fname, lname := sv.Get("fname"), sv.Get("lname")
	fnamelname, lnamefname := sv.Get("fnamelname"), sv.Get("lnamefname")
	byear := sv.Get("byear")

	strict := (fname >= th.NameHighScore && lname >= th.NameHighScore && m.DobPartialMask) ||
		(fnamelname >= th.NameHighScore && lnamefname >= th.NameHighScore && m.DobPartialMask)

	switch s {
	case Strict:
		return strict
	case Moderate:
		return strict ||
			(fname >= th.NameHighScore && lname >= th.NameHighScore) ||
			(fnamelname >= th.NameHighScore && lnamefname >= th.NameHighScore) ||
			(fname >= th.NameHighScore && byear >= th.ByearWithin1) ||
			((fname >= th.NameHighScore || lname >= th.NameHighScore) && (m.DobExactMask || m.DobPartialMask))
	case Relaxed:
		return fname >= th.NameHighScore || m.DobExactMask || m.DobPartialMask
	case Review:
		return true
	default:
		return false
	}
}

func acceptP2(s Strictness, sv ScoreVector, m Masks, th Thresholds) bool {
	fname, lname := sv.Get("fname"), sv.Get("lname")
	mname, altlname := sv.Get("mname"), sv.Get("altlname")

	twoOfThree := (fname == 1 && lname >= th.NameHighScore) ||
		(fname >= th.NameHighScore && lname == 1)

	strict := (m.IDHighMask && twoOfThree && m.DobExactMask) ||
		(m.CommonIDNull && twoOfThree && m.DobExactMask &&
			(m.MinitMatchMnameVeryHighSimMask || altlname >= th.NameHighScore)) ||
		(m.CommonIDNull && fname == 1 && lname == 1 && m.DobExactMask && mname == -1 && m.LocExactMask) ||
		(fname == 1 && lname == 1 && m.DobExactMask && (altlname == 1 || m.MinitMatchMnameVeryHighSimMask))

	switch s {
	case Strict:
		return strict
	case Moderate:
		return strict || (fname >= th.NameHighScore && lname >= th.NameHighScore && m.DobPartialMask &&
			(m.IDHighMask || mname >= th.NameHighScore || altlname >= th.NameHighScore || m.LocExactMask))
	case Relaxed:
		return fname >= th.NameHighScore && lname >= th.NameHighScore && (m.DobPartialMask || m.IDHighMask)
	case Review:
		return fname >= th.NameReviewScore && lname >= th.NameReviewScore && (m.DobPartialMask || m.IDReviewMask)
	default:
		return false
	}
}

// Pass 3 mirrors pass 2 with the inverted name comparisons
// (fnamelname/lnamefname instead of fname/lname), with three asymmetries:
// strict drops the "three exact plus null middle name plus exact
// location" branch pass 2 has (moderate gains it instead), relaxed
// requires dob_exact_mask where pass 2 takes dob_partial_mask, and
// review shaves 0.05 off the name review cutoff.
func acceptP3(s Strictness, sv ScoreVector, m Masks, th Thresholds) bool {
	fnamelname, lnamefname := sv.Get("fnamelname"), sv.Get("lnamefname")
	mname, altlname := sv.Get("mname"), sv.Get("altlname")

	twoOfThree := (fnamelname == 1 && lnamefname >= th.NameHighScore) ||
		(fnamelname >= th.NameHighScore && lnamefname == 1)

	strict := (m.IDHighMask && twoOfThree && m.DobExactMask) ||
		(m.CommonIDNull && twoOfThree && m.DobExactMask &&
			(m.MinitMatchMnameVeryHighSimMask || altlname >= th.NameHighScore)) ||
		(fnamelname == 1 && lnamefname == 1 && m.DobExactMask && (altlname == 1 || m.MinitMatchMnameVeryHighSimMask))

	switch s {
	case Strict:
		return strict
	case Moderate:
		return strict ||
			(fnamelname >= th.NameHighScore && lnamefname >= th.NameHighScore && m.DobPartialMask &&
				(m.IDHighMask || mname >= th.NameHighScore || altlname >= th.NameHighScore || m.LocExactMask)) ||
			(m.CommonIDNull && fnamelname == 1 && lnamefname == 1 && m.DobExactMask && mname == -1 && m.LocExactMask)
	case Relaxed:
		return fnamelname >= th.NameHighScore && lnamefname >= th.NameHighScore && (m.DobExactMask || m.IDHighMask)
	case Review:
		threshold := th.NameReviewScore - 0.05
		return fnamelname >= threshold && lnamefname >= threshold && (m.DobPartialMask || m.IDReviewMask)
	default:
		return false
	}
}

func acceptP4(s Strictness, sv ScoreVector, m Masks, th Thresholds) bool {
	fname, lname := sv.Get("fname"), sv.Get("lname")
	altlname := sv.Get("altlname")

	strict := (m.IDHighMask && fname >= th.NameHighScore && lname >= th.NameHighScore) ||
		(m.CommonIDNull && fname == 1 && lname >= th.NameHighScore &&
			(m.MinitMatchMnameVeryHighSimMask || altlname >= th.NameHighScore)) ||
		(fname == 1 && lname >= th.NameHighScore && (m.MinitMatchMnameVeryHighSimMask || altlname == 1))

	switch s {
	case Strict:
		return strict
	case Moderate:
		return fname >= th.NameHighScore && lname >= th.NameHighScore &&
			(sv.Get("mname") >= th.NameHighScore || altlname >= th.NameHighScore || m.LocExactMask)
	case Relaxed:
		return (lname >= th.NameHighScore && fname >= th.NameHighScore) ||
			(lname >= th.NameHighScore && m.IDHighMask) ||
			(m.IDHighMask && fname >= th.NameHighScore)
	case Review:
		return (lname >= th.NameReviewScore-0.1 && m.IDReviewMask) ||
			(fname >= th.NameReviewScore-0.1 && lname >= th.NameReviewScore-0.1)
	default:
		return false
	}
}
