package observ

import (
	"errors"
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("discover")
	tm.End(idx, "12 files")
	err := tm.Measure("analyze", func() error { return errors.New("canceled") })
	if err == nil {
		t.Fatal("Measure must return fn's error")
	}
	tm.End(42, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("got %d phases", len(r.Phases))
	}
	if r.Phases[0].Note != "12 files" || r.Phases[1].Note != "canceled" {
		t.Errorf("notes = %q, %q", r.Phases[0].Note, r.Phases[1].Note)
	}
	if r.TotalMS < r.Phases[0].DurationMS {
		t.Error("total smaller than a phase")
	}
	s := tm.Summary()
	for _, want := range []string{"discover", "analyze", "total", "// canceled"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
}

func TestEmptyTimer(t *testing.T) {
	if r := NewTimer().Report(); r.TotalMS != 0 || r.Phases != nil {
		t.Errorf("got %+v", r)
	}
}
