package quality

// Thresholds bound each grade: a measure strictly above a bound falls to
// that grade.
type Thresholds struct {
	ComplexityBad      int
	ComplexityModerate int
	ComplexityGood     int

	// CyclomaticModerate is also the floor: smaller complexities are ignored.
	CyclomaticBad      int
	CyclomaticModerate int

	// BoolExprGood is also the floor for reported expressions.
	BoolExprBad      int
	BoolExprModerate int
	BoolExprGood     int

	// per file
	BestPracticesModerate int
	BestPracticesGood     int

	// CodeStyle* are shares of non-blank lines.
	CodeStyleBad      float64
	CodeStyleModerate float64
	CodeStyleGood     float64
	CodeStyleLinesBad int
	// CodeStyleHeaderLines are not counted towards the share (package,
	// class header, closing braces).
	CodeStyleHeaderLines int
}

// DefaultThresholds are tuned for Java sources.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ComplexityBad:      6,
		ComplexityModerate: 3,
		ComplexityGood:     1,

		CyclomaticBad:      14,
		CyclomaticModerate: 13,

		BoolExprBad:      6,
		BoolExprModerate: 5,
		BoolExprGood:     3,

		BestPracticesModerate: 4,
		BestPracticesGood:     1,

		CodeStyleBad:         0.23,
		CodeStyleModerate:    0.17,
		CodeStyleGood:        0,
		CodeStyleLinesBad:    10,
		CodeStyleHeaderLines: 4,
	}
}
