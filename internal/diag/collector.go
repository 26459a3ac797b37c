package diag

import (
	"sort"
	"sync"
)

// Collector aggregates per-unit diagnostics from concurrent workers.
// Result is independent of the order in which units were added.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

func NewCollector() *Collector {
	return &Collector{}
}

// AddUnit appends the diagnostics of one unit.
func (c *Collector) AddUnit(diags []Diagnostic) {
	c.mu.Lock()
	c.items = append(c.items, diags...)
	c.mu.Unlock()
}

// Report implements Reporter.
func (c *Collector) Report(d Diagnostic) {
	c.AddUnit([]Diagnostic{d})
}

// Result returns the deduplicated, totally ordered diagnostic list.
func (c *Collector) Result() []Diagnostic {
	c.mu.Lock()
	items := make([]Diagnostic, len(c.items))
	copy(items, c.items)
	c.mu.Unlock()

	// сортируем до дедупликации, чтобы «первый» дубликат не зависел от порядка воркеров
	sort.SliceStable(items, func(i, j int) bool {
		if Less(&items[i], &items[j]) {
			return true
		}
		if Less(&items[j], &items[i]) {
			return false
		}
		// equal keys: an unsuppressed copy wins
		return !items[i].Suppressed && items[j].Suppressed
	})
	return Dedup(items)
}

// Stats summarises a diagnostic list.
type Stats struct {
	Total      int            `json:"total" msgpack:"total"`
	Suppressed int            `json:"suppressed" msgpack:"suppressed"`
	Errors     int            `json:"errors" msgpack:"errors"`
	Warnings   int            `json:"warnings" msgpack:"warnings"`
	Infos      int            `json:"infos" msgpack:"infos"`
	ByRule     map[string]int `json:"by_rule,omitempty" msgpack:"by_rule,omitempty"`
}

// Summarize counts diagnostics; severity counters only include unsuppressed ones.
func Summarize(diags []Diagnostic) Stats {
	st := Stats{Total: len(diags), ByRule: make(map[string]int)}
	for i := range diags {
		d := &diags[i]
		st.ByRule[d.RuleID]++
		if d.Suppressed {
			st.Suppressed++
			continue
		}
		switch d.Severity {
		case SevError:
			st.Errors++
		case SevWarning:
			st.Warnings++
		default:
			st.Infos++
		}
	}
	return st
}

// Failing reports whether any unsuppressed diagnostic reaches threshold.
func Failing(diags []Diagnostic, threshold Severity) bool {
	for i := range diags {
		if !diags[i].Suppressed && diags[i].Severity >= threshold {
			return true
		}
	}
	return false
}

// FilterLines keeps diagnostics whose start line falls inside [from, to].
// A zero bound is open.
func FilterLines(diags []Diagnostic, from, to uint32) []Diagnostic {
	if from == 0 && to == 0 {
		return diags
	}
	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		line := d.Location.Start.Line
		if from != 0 && line < from {
			continue
		}
		if to != 0 && line > to {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Visible drops suppressed diagnostics.
func Visible(diags []Diagnostic) []Diagnostic {
	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		if !d.Suppressed {
			out = append(out, d)
		}
	}
	return out
}
