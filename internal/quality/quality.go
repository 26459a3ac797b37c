// Package quality turns a run's diagnostics into a coarse grade per rule
// category and an overall grade for the whole submission.
//
// A category grade depends on a single measure: a count of findings, the
// largest reported metric, or the share of lines with style findings. The
// overall grade is the worst category grade.
package quality

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"lintel/internal/diag"
	"lintel/internal/rule"
	"lintel/internal/source"
)

// Grade orders from worst to best.
type Grade uint8

const (
	Bad Grade = iota
	Moderate
	Good
	Excellent
)

var gradeNames = [...]string{"BAD", "MODERATE", "GOOD", "EXCELLENT"}

func (g Grade) String() string {
	if int(g) < len(gradeNames) {
		return gradeNames[g]
	}
	return "Grade(" + strconv.Itoa(int(g)) + ")"
}

// MarshalText keeps the grade readable in json and msgpack reports.
func (g Grade) MarshalText() ([]byte, error) {
	if int(g) >= len(gradeNames) {
		return nil, fmt.Errorf("unknown grade %d", g)
	}
	return []byte(gradeNames[g]), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (g *Grade) UnmarshalText(text []byte) error {
	i := slices.Index(gradeNames[:], strings.ToUpper(string(bytes.TrimSpace(text))))
	if i < 0 {
		return fmt.Errorf("unknown grade %q", text)
	}
	*g = Grade(i)
	return nil
}

// next is the grade one step up; Excellent stays.
func (g Grade) next() Grade {
	if g >= Good {
		return Excellent
	}
	return g + 1
}

// Verdict is the grade of one category.
type Verdict struct {
	Category rule.Category `json:"category" msgpack:"category"`
	Grade    Grade         `json:"grade" msgpack:"grade"`
	Next     Grade         `json:"next" msgpack:"next"`
	// Value is the measure the grade was taken from.
	Value float64 `json:"value" msgpack:"value"`
	// Delta is how far Value must drop to reach Next; 0 at Excellent.
	Delta float64 `json:"delta" msgpack:"delta"`
}

// Report is the overall grade plus the categories holding it down.
type Report struct {
	Grade Grade `json:"grade" msgpack:"grade"`
	Next  Grade `json:"next" msgpack:"next"`
	// Requirements are the verdicts graded at Grade, ordered by category.
	Requirements []Verdict `json:"requirements,omitempty" msgpack:"requirements,omitempty"`
	Categories   []Verdict `json:"categories" msgpack:"categories"`
}

// Input is everything Evaluate needs from a run.
type Input struct {
	Diagnostics []diag.Diagnostic
	// Category resolves a rule id; unknown ids are not graded.
	Category func(ruleID string) (rule.Category, bool)
	Files    int
	// Lines counts non-blank source lines over all files.
	Lines int
}

// Measure counts files and non-blank lines in fs.
func Measure(fs *source.FileSet) (files, lines int) {
	if fs == nil {
		return 0, 0
	}
	for i := range fs.Len() {
		f := fs.Get(source.FileID(i))
		for line := range bytes.SplitSeq(f.Content, []byte{'\n'}) {
			if len(bytes.TrimSpace(line)) > 0 {
				lines++
			}
		}
	}
	return fs.Len(), lines
}

// Evaluate grades in. Suppressed diagnostics do not count.
func Evaluate(in Input, th Thresholds) Report {
	var (
		counts   = make(map[rule.Category]int)
		maxCC    int
		maxBool  int
		styleAt  = make(map[lineKey]struct{})
		category = in.Category
	)
	if category == nil {
		category = func(string) (rule.Category, bool) { return "", false }
	}
	for i := range in.Diagnostics {
		d := &in.Diagnostics[i]
		if d.Suppressed {
			continue
		}
		cat, ok := category(d.RuleID)
		if !ok {
			continue
		}
		switch cat {
		case rule.CatCyclomaticComplexity:
			// мелкие значения не влияют на оценку
			if v := measure(d, "complexity"); v > th.CyclomaticModerate {
				maxCC = max(maxCC, v)
			}
		case rule.CatBoolExprLen:
			if v := measure(d, "operators"); v > th.BoolExprGood {
				maxBool = max(maxBool, v)
			}
		case rule.CatCodeStyle:
			styleAt[lineKey{d.Location.Path, d.Location.Start.Line}] = struct{}{}
		default:
			counts[cat]++
		}
	}

	cats := []Verdict{
		errorProne(counts[rule.CatErrorProne]),
		bestPractices(counts[rule.CatBestPractices], in.Files, th),
		stepped(rule.CatComplexity, float64(counts[rule.CatComplexity]),
			th.ComplexityBad, th.ComplexityModerate, th.ComplexityGood),
		stepped(rule.CatCyclomaticComplexity, float64(maxCC),
			th.CyclomaticBad, th.CyclomaticModerate, noLevel),
		stepped(rule.CatBoolExprLen, float64(maxBool),
			th.BoolExprBad, th.BoolExprModerate, th.BoolExprGood),
		codeStyle(len(styleAt), in.Lines, th),
	}
	slices.SortFunc(cats, func(a, b Verdict) int { return strings.Compare(string(a.Category), string(b.Category)) })

	rep := Report{Grade: Excellent, Next: Excellent, Categories: cats}
	for _, v := range cats {
		rep.Grade = min(rep.Grade, v.Grade)
		rep.Next = min(rep.Next, v.Next)
	}
	for _, v := range cats {
		if v.Grade == rep.Grade && rep.Grade != Excellent {
			rep.Requirements = append(rep.Requirements, v)
		}
	}
	return rep
}

type lineKey struct {
	path string
	line uint32
}

func measure(d *diag.Diagnostic, key string) int {
	v, err := strconv.Atoi(d.Data[key])
	if err != nil {
		return 0
	}
	return v
}

// noLevel disables a step in stepped.
const noLevel = -1

// stepped grades a measure where more is worse: above bad is Bad, above
// moderate is Moderate, above good is Good.
func stepped(cat rule.Category, value float64, bad, moderate, good int) Verdict {
	v := Verdict{Category: cat, Value: value, Grade: Excellent}
	switch {
	case bad != noLevel && value > float64(bad):
		v.Grade, v.Delta = Bad, value-float64(bad)
	case moderate != noLevel && value > float64(moderate):
		v.Grade, v.Delta = Moderate, value-float64(moderate)
	case good != noLevel && value > float64(good):
		v.Grade, v.Delta = Good, value-float64(good)
	}
	v.Next = v.Grade.next()
	return v
}

// errorProne: любая находка это Bad.
func errorProne(n int) Verdict {
	v := Verdict{Category: rule.CatErrorProne, Value: float64(n), Grade: Excellent, Next: Excellent}
	if n > 0 {
		v.Grade, v.Delta = Bad, float64(n)
	}
	return v
}

func bestPractices(n, files int, th Thresholds) Verdict {
	ratio := float64(n) / float64(max(1, files))
	return stepped(rule.CatBestPractices, ratio, noLevel, th.BestPracticesModerate, th.BestPracticesGood)
}

// codeStyle grades the share of lines carrying style findings. A single
// such line never falls below Good and two never below Moderate; more
// than CodeStyleLinesBad lines is Bad whatever the share.
func codeStyle(lines, total int, th Thresholds) Verdict {
	ratio := float64(lines) / float64(max(1, total-th.CodeStyleHeaderLines))
	v := Verdict{Category: rule.CatCodeStyle, Value: ratio, Grade: Excellent}
	switch {
	case ratio > th.CodeStyleBad:
		v.Grade = Bad
	case ratio > th.CodeStyleModerate:
		v.Grade = Moderate
	case ratio > th.CodeStyleGood:
		v.Grade = Good
	}
	switch lines {
	case 1:
		v.Grade = max(v.Grade, Good)
	case 2:
		v.Grade = max(v.Grade, Moderate)
	}
	switch {
	case lines > th.CodeStyleLinesBad:
		v.Grade, v.Delta = Bad, float64(lines-th.CodeStyleLinesBad)
	case v.Grade == Bad:
		v.Delta = ratio - th.CodeStyleBad
	case v.Grade == Moderate:
		v.Delta = ratio - th.CodeStyleModerate
	case v.Grade == Good:
		v.Delta = ratio - th.CodeStyleGood
	default:
		v.Delta = 0
	}
	v.Next = v.Grade.next()
	return v
}

// String renders the report the way the pretty summary prints it.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "code quality: %s", r.Grade)
	if r.Grade == Excellent {
		return b.String()
	}
	fmt.Fprintf(&b, ", next level: %s (", r.Next)
	for i, v := range r.Requirements {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", v.Category, strconv.FormatFloat(v.Delta, 'g', 3, 64))
	}
	b.WriteByte(')')
	return b.String()
}
