package version

import (
	"testing"

	"github.com/fatih/color"
)

func withVersion(t *testing.T, v, commit, date string) {
	t.Helper()
	ov, oc, od := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() { Version, GitCommit, BuildDate = ov, oc, od })
}

func TestString(t *testing.T) {
	cases := []struct {
		version, commit, date string
		want                  string
	}{
		{"0.1.0-dev", "", "", "lintel 0.1.0-dev"},
		{"1.2.3", "abc123", "", "lintel 1.2.3 (abc123)"},
		{"1.2.3", "1234567890abcdef1234", "2026-01-15", "lintel 1.2.3 (1234567890ab) built 2026-01-15"},
	}
	for _, tc := range cases {
		withVersion(t, tc.version, tc.commit, tc.date)
		if got := String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestColored(t *testing.T) {
	saved := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = saved }()

	for _, v := range []string{"0.1.0-dev", "1.2.3-rc.1+build.123", "nightly"} {
		withVersion(t, v, "", "")
		if got := Colored(); got != v {
			t.Errorf("Colored() = %q, want %q", got, v)
		}
	}
}
