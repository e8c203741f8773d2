package grading

// Result status values. Results are provisioned as not_graded and finalized
// when an attempt is submitted.
const (
	StatusNotGraded = "not_graded"
	StatusPassed    = "passed"
	StatusFailed    = "failed"
	StatusAbsent    = "absent"
)

// DefaultPassThreshold is the score/total ratio at or above which a result
// passes. Overridable via config.
const DefaultPassThreshold = 0.4

// LetterGrade maps a score ratio to a band, evaluated high to low.
func LetterGrade(score, total float64) string {
	if total <= 0 {
		return "F"
	}
	pct := score / total * 100
	switch {
	case pct >= 90:
		return "A+"
	case pct >= 80:
		return "A"
	case pct >= 70:
		return "B"
	case pct >= 60:
		return "C"
	case pct >= 50:
		return "D"
	default:
		return "F"
	}
}

// DeriveStatus applies the fixed competition policy: a zero score with no
// answered questions is absent; otherwise passing is score/total at or above
// the threshold. A zero score from attempted-but-wrong answers fails, it is
// not absent.
func DeriveStatus(score, total float64, answered int, threshold float64) string {
	if score == 0 && answered == 0 {
		return StatusAbsent
	}
	if total > 0 && score/total >= threshold {
		return StatusPassed
	}
	return StatusFailed
}
