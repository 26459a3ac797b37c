package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/owenrumney/go-sarif/v2/sarif"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lintel/internal/checks"
	"lintel/internal/diagfmt"
	"lintel/internal/quality"
	"lintel/internal/rule"
)

const unbraced = `class A {
    void f(int x) {
        if (x > 0) System.out.println(x);
    }
}
`

const suppressed = `class A {
    @SuppressWarnings("need-braces")
    void f(int x) {
        if (x > 0) System.out.println(x);
    }
}
`

// project writes files under a temp dir and makes it the working directory.
func project(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	t.Chdir(root)
	return root
}

func run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = execute(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestCheckExitStatus(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"findings", nil, exitFindings},
		{"rule disabled", []string{"--disable", "need-braces"}, exitOK},
		{"below fail-on", []string{"--fail-on", "error"}, exitOK},
		{"outside line range", []string{"--start-line", "4"}, exitOK},
		{"unknown rule", []string{"--enable", "no-such-rule"}, exitUsage},
		{"bad format", []string{"--format", "xml"}, exitUsage},
		{"bad set", []string{"--set", "need-braces"}, exitUsage},
		{"bad line range", []string{"--start-line", "5", "--end-line", "2"}, exitUsage},
		{"unknown flag", []string{"--no-such-flag"}, exitUsage},
		{"missing path", []string{"does/not/exist"}, exitUsage},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			project(t, map[string]string{"src/A.java": unbraced})
			args := append([]string{"check", "--ui", "off", "--format", "short"}, tc.args...)
			code, _, stderr := run(t, args...)
			assert.Equal(t, tc.want, code, stderr)
		})
	}
}

func TestCheckShortOutput(t *testing.T) {
	project(t, map[string]string{"src/A.java": unbraced})
	code, stdout, _ := run(t, "check", "--ui", "off", "--format", "short", "src")
	assert.Equal(t, exitFindings, code)
	assert.Contains(t, stdout, "warning need-braces src/A.java:3:9 ")
}

func TestCheckPrettyOutput(t *testing.T) {
	project(t, map[string]string{"src/A.java": unbraced})
	code, stdout, _ := run(t, "check", "--ui", "off", "--color", "off")
	assert.Equal(t, exitFindings, code)
	assert.Contains(t, stdout, "src/A.java:3:9: warning[need-braces]: ")
	assert.Contains(t, stdout, " 3 |         if (x > 0) System.out.println(x);\n")
	assert.Contains(t, stdout, "1 problem (0 errors, 1 warning, 0 info)\n")
	assert.Contains(t, stdout, "code quality: GOOD, next level: EXCELLENT (CODE_STYLE: 1)\n")
	assert.NotContains(t, stdout, "\x1b[")
}

func TestCheckSuppressed(t *testing.T) {
	project(t, map[string]string{"A.java": suppressed})

	code, stdout, _ := run(t, "check", "--ui", "off", "--format", "short")
	assert.Equal(t, exitOK, code)
	assert.Empty(t, stdout)

	code, stdout, _ = run(t, "check", "--ui", "off", "--format", "short", "--show-suppressed")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "need-braces A.java:4:9 ")
	assert.Contains(t, stdout, "[suppressed]")
}

func TestCheckParseFailureFails(t *testing.T) {
	project(t, map[string]string{"B.java": "class B {\n    void f() {\n        int x = ;\n    }\n}\n"})
	code, stdout, _ := run(t, "check", "--ui", "off", "--format", "short")
	assert.Equal(t, exitFindings, code)
	assert.Contains(t, stdout, "error parse-failure B.java:3:")
}

func TestCheckConfigFile(t *testing.T) {
	project(t, map[string]string{
		"src/A.java": unbraced,
		"lintel.toml": `fail_on = "warning"

[rules.need-braces]
enabled = false
`,
	})
	code, _, stderr := run(t, "check", "--ui", "off", "--format", "short")
	assert.Equal(t, exitOK, code, stderr)

	// флаги сильнее файла
	code, _, _ = run(t, "check", "--ui", "off", "--format", "short", "--enable", "need-braces")
	assert.Equal(t, exitFindings, code)
}

func TestCheckBadConfig(t *testing.T) {
	project(t, map[string]string{
		"src/A.java":  unbraced,
		"lintel.toml": "jobz = 3\n",
	})
	code, _, stderr := run(t, "check", "--ui", "off")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "jobz")
}

func TestCheckJSONReport(t *testing.T) {
	project(t, map[string]string{"src/A.java": unbraced})
	code, stdout, _ := run(t, "check", "--ui", "off", "--format", "json", "--timings")
	assert.Equal(t, exitFindings, code)

	var rep diagfmt.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &rep), stdout)
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, "lintel", rep.Tool)
	assert.Equal(t, 1, rep.Stats.Warnings)
	require.Len(t, rep.Diagnostics, 1)
	assert.Equal(t, "need-braces", rep.Diagnostics[0].Rule)
	require.NotNil(t, rep.Timings)
	assert.NotEmpty(t, rep.Timings.Phases)

	// одна строка со стилевой находкой не опускает оценку ниже GOOD
	require.NotNil(t, rep.Quality)
	assert.Equal(t, quality.Good, rep.Quality.Grade)
	assert.Equal(t, quality.Excellent, rep.Quality.Next)
	require.Len(t, rep.Quality.Requirements, 1)
	assert.Equal(t, rule.CatCodeStyle, rep.Quality.Requirements[0].Category)
}

func TestCheckSarifToFile(t *testing.T) {
	root := project(t, map[string]string{"src/A.java": unbraced})
	out := filepath.Join(root, "report.sarif")
	code, stdout, _ := run(t, "check", "--ui", "off", "--format", "sarif", "--output", out)
	assert.Equal(t, exitFindings, code)
	assert.Empty(t, stdout)

	rep, err := sarif.Open(out)
	require.NoError(t, err)
	require.Len(t, rep.Runs, 1)
	require.Len(t, rep.Runs[0].Results, 1)
	assert.Equal(t, "need-braces", *rep.Runs[0].Results[0].RuleID)
}

func TestRulesCommand(t *testing.T) {
	code, stdout, _ := run(t, "rules")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "need-braces")
	assert.Contains(t, stdout, "max=10")

	code, stdout, _ = run(t, "rules", "--format", "json")
	assert.Equal(t, exitOK, code)
	var infos []ruleInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &infos))
	assert.Len(t, infos, checks.Default().Len())

	code, _, _ = run(t, "rules", "--format", "yaml")
	assert.Equal(t, exitUsage, code)
}

func TestVersionCommand(t *testing.T) {
	code, stdout, _ := run(t, "version", "--format", "json")
	assert.Equal(t, exitOK, code)
	var p versionPayload
	require.NoError(t, json.Unmarshal([]byte(stdout), &p))
	assert.Equal(t, "lintel", p.Tool)
	assert.NotEmpty(t, p.Version)

	code, stdout, _ = run(t, "version", "--color", "off")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "lintel ")
}

func TestInvalidLogLevel(t *testing.T) {
	project(t, map[string]string{"A.java": unbraced})
	code, _, stderr := run(t, "--log-level", "loud", "check", "--ui", "off")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "log-level")
}

func TestTraceToStderr(t *testing.T) {
	project(t, map[string]string{"A.java": unbraced})
	code, _, stderr := run(t, "--trace-level", "phase", "check", "--ui", "off", "--format", "short")
	assert.Equal(t, exitFindings, code)
	assert.Contains(t, stderr, "check")
	assert.Contains(t, stderr, "analyze")
}

func TestCheckProfiles(t *testing.T) {
	root := project(t, map[string]string{"A.java": unbraced})
	cpu := filepath.Join(root, "cpu.pprof")
	mem := filepath.Join(root, "mem.pprof")
	code, _, stderr := run(t, "--cpu-profile", cpu, "--mem-profile", mem, "check", "--ui", "off", "--format", "short")
	assert.Equal(t, exitFindings, code, stderr)
	assert.FileExists(t, cpu)
	assert.FileExists(t, mem)
}
