package driver_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lintel/internal/checks"
	"lintel/internal/diag"
	"lintel/internal/driver"
	"lintel/internal/engine"
	"lintel/internal/rule"
)

const unbraced = `class %s {
    void f(int x) {
        if (x > 0) System.out.println(x);
    }
}
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return root
}

func sampleTree(t *testing.T) string {
	return writeTree(t, map[string]string{
		"src/A.java":             fmt.Sprintf(unbraced, "A"),
		"src/B.java":             "class B {\n    void f() {\n        int x = ;\n    }\n}\n",
		"src/Empty.java":         "\n",
		"src/generated/G.java":   fmt.Sprintf(unbraced, "G"),
		"src/notes.txt":          "not java",
		"src/deep/nested/C.java": fmt.Sprintf(unbraced, "C"),
	})
}

func newEngine(t *testing.T, cfg *rule.Config) *engine.Engine {
	t.Helper()
	eng, err := engine.New(checks.Default(), cfg, engine.Options{})
	require.NoError(t, err)
	return eng
}

func TestListFiles(t *testing.T) {
	root := sampleTree(t)
	files, err := driver.ListFiles(root, []string{"**/generated/**"})
	require.NoError(t, err)

	var rel []string
	for _, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.Equal(t, []string{"src/A.java", "src/B.java", "src/Empty.java", "src/deep/nested/C.java"}, rel)
}

func TestExcluded(t *testing.T) {
	tests := []struct {
		pattern, path string
		want          bool
	}{
		{"**/generated/**", "src/generated/", true},
		{"**/generated/**", "src/generated/x/Y.java", true},
		{"**/generated/**", "src/gen/Y.java", false},
		{"gen", "gen/", true},
		{"*.java", "A.java", true},
		{"*.java", "src/A.java", false},
		{"**/*Test.java", "src/a/FooTest.java", true},
		{"src/*/C.java", "src/deep/C.java", true},
		{"[", "x", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, driver.Excluded(tt.path, []string{tt.pattern}), "%s ~ %s", tt.pattern, tt.path)
	}
}

func TestRun(t *testing.T) {
	root := sampleTree(t)
	var mu sync.Mutex
	events := map[driver.EventKind]int{}

	res, err := driver.Run(t.Context(), driver.Request{
		Paths:   []string{root},
		Exclude: []string{"**/generated/**"},
		Jobs:    2,
		Engine:  newEngine(t, nil),
		Progress: func(ev driver.Event) {
			mu.Lock()
			events[ev.Kind]++
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Len(t, res.Files, 4)
	assert.NotEqual(t, uuid.Nil, res.RunID)

	var rules, files []string
	for _, d := range res.Diagnostics {
		rules = append(rules, d.RuleID)
		files = append(files, filepath.Base(d.Location.Path))
	}
	assert.Equal(t, []string{checks.NeedBraces, diag.RuleParseFailure, checks.NeedBraces}, rules)
	assert.Equal(t, []string{"A.java", "B.java", "C.java"}, files)

	pf := res.Diagnostics[1]
	assert.Equal(t, diag.SevError, pf.Severity)
	assert.Equal(t, uint32(3), pf.Location.Start.Line)

	assert.Equal(t, 1, res.Stats.Errors)
	assert.Equal(t, 2, res.Stats.Warnings)

	for _, f := range res.Files {
		switch filepath.Base(f.Path) {
		case "Empty.java":
			assert.True(t, f.Skipped)
		case "B.java":
			assert.True(t, f.Failed)
		}
	}

	assert.Equal(t, 1, events[driver.EventDiscovered])
	assert.Equal(t, 4, events[driver.EventFileStarted])
	assert.Equal(t, 4, events[driver.EventFileDone])
	assert.Equal(t, 1, events[driver.EventDone])

	var phases []string
	for _, p := range res.Timings.Phases {
		phases = append(phases, p.Name)
	}
	assert.Equal(t, []string{"discover", "load", "analyze"}, phases)
}

func TestRunIsDeterministic(t *testing.T) {
	root := sampleTree(t)
	run := func(jobs int) []diag.Diagnostic {
		res, err := driver.Run(t.Context(), driver.Request{Paths: []string{root}, Jobs: jobs, Engine: newEngine(t, nil)})
		require.NoError(t, err)
		return res.Diagnostics
	}
	one := run(1)
	assert.Equal(t, diag.FormatGoldenDiagnostics(one, true), diag.FormatGoldenDiagnostics(run(8), true))
	// generated/G.java is included without the exclude pattern
	assert.Len(t, one, 4)
}

func TestRunSingleFile(t *testing.T) {
	root := sampleTree(t)
	res, err := driver.Run(t.Context(), driver.Request{
		Paths:   []string{filepath.Join(root, "src", "generated", "G.java")},
		Exclude: []string{"**/generated/**"},
		Engine:  newEngine(t, nil),
	})
	require.NoError(t, err)
	assert.Len(t, res.Diagnostics, 1, "explicit files bypass excludes")
}

func TestRunMissingPath(t *testing.T) {
	_, err := driver.Run(t.Context(), driver.Request{
		Paths:  []string{filepath.Join(t.TempDir(), "nope")},
		Engine: newEngine(t, nil),
	})
	assert.Error(t, err)
}

func TestRunCanceled(t *testing.T) {
	root := sampleTree(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := driver.Run(ctx, driver.Request{Paths: []string{root}, Engine: newEngine(t, nil)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseFailureNeverSuppressed(t *testing.T) {
	root := writeTree(t, map[string]string{
		"X.java": "// lintel:ignore-file\nclass X { void f() { int = } }\n",
	})
	res, err := driver.Run(t.Context(), driver.Request{Paths: []string{root}, Engine: newEngine(t, nil)})
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.RuleParseFailure, res.Diagnostics[0].RuleID)
	assert.False(t, res.Diagnostics[0].Suppressed)
	assert.True(t, diag.Failing(res.Diagnostics, diag.SevError))
}

func TestRunMaxFileSize(t *testing.T) {
	root := writeTree(t, map[string]string{
		"Small.java": "class Small {}\n",
		"Big.java":   fmt.Sprintf(unbraced, "Big"),
	})
	res, err := driver.Run(t.Context(), driver.Request{
		Paths:       []string{root},
		MaxFileSize: 32,
		Engine:      newEngine(t, nil),
	})
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.RuleParseFailure, res.Diagnostics[0].RuleID)
	assert.Contains(t, res.Diagnostics[0].Location.Path, "Big.java")
}
