package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"lintel/internal/diag"
	"lintel/internal/quality"
	"lintel/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, info *color.Color
	note, path      *color.Color
	gutter, caret   *color.Color
	dim             *color.Color
}

// newPalette включает или выключает цвет явно, не полагаясь на color.NoColor.
func newPalette(on bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		note:   mk(color.FgBlue),
		path:   mk(color.Bold),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgGreen, color.Bold),
		dim:    mk(color.Faint),
	}
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Для каждой печатает заголовок
//
//	<path>:<line>:<col>: <severity>[<rule>]: <message>
//
// затем строку исходника с подчёркиванием ^~~~ по Primary, затем заметки.
// diags are expected in diag.Less order. The summary counts all of diags,
// including suppressed ones hidden by HideSuppressed.
func Pretty(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	var b strings.Builder

	listed := diags
	if opts.HideSuppressed {
		listed = diag.Visible(diags)
	}
	shown := listed
	if opts.Max > 0 && len(shown) > opts.Max {
		shown = shown[:opts.Max]
	}
	for i := range shown {
		d := &shown[i]
		writeHeader(&b, p, d)
		if opts.ShowSource {
			if f := fileFor(fs, d); f != nil {
				writeSnippet(&b, p, f, d.Location)
			}
		}
		if opts.ShowNotes {
			for _, n := range d.Notes {
				fmt.Fprintf(&b, "  %s %s: %s\n", p.note.Sprint("= note:"), formatPos(n.Location), n.Msg)
			}
		}
	}
	if rest := len(listed) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "%s\n", p.dim.Sprintf("... and %d more", rest))
	}
	if opts.Summary {
		writeSummary(&b, p, diag.Summarize(diags))
		if opts.Quality != nil {
			writeQuality(&b, p, opts.Quality)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeHeader(b *strings.Builder, p palette, d *diag.Diagnostic) {
	sev := p.severity(d.Severity)
	fmt.Fprintf(b, "%s: %s: %s", p.path.Sprint(formatPos(d.Location)),
		sev.Sprintf("%s[%s]", d.Severity.Label(), d.RuleID), d.Message)
	if d.Suppressed {
		b.WriteString(p.dim.Sprint(" (suppressed)"))
	}
	b.WriteByte('\n')
}

func formatPos(loc source.Location) string {
	return fmt.Sprintf("%s:%d:%d", loc.Path, loc.Start.Line, loc.Start.Col)
}

// fileFor finds the file a diagnostic points into, or nil when its text is
// not available.
func fileFor(fs *source.FileSet, d *diag.Diagnostic) *source.File {
	if fs == nil || d.Location.Start.Line == 0 {
		return nil
	}
	if int(d.Primary.File) < fs.Len() {
		if f := fs.Get(d.Primary.File); f.Path == d.Location.Path {
			return f
		}
	}
	if id, ok := fs.GetLatest(d.Location.Path); ok {
		return fs.Get(id)
	}
	return nil
}

func writeSnippet(b *strings.Builder, p palette, f *source.File, loc source.Location) {
	line := f.GetLine(loc.Start.Line)
	num := strconv.FormatUint(uint64(loc.Start.Line), 10)
	pad := strings.Repeat(" ", len(num))

	startCol := clampCol(loc.Start.Col, line)
	endCol := len(line) + 1
	if loc.End.Line == loc.Start.Line && loc.End.Col > loc.Start.Col {
		endCol = clampCol(loc.End.Col, line)
	}
	offset := displayWidth(line[:startCol-1])
	width := displayWidth(line[startCol-1 : endCol-1])
	if width < 1 {
		width = 1
	}

	fmt.Fprintf(b, " %s %s\n", p.gutter.Sprint(num+" |"), expandTabs(line))
	fmt.Fprintf(b, " %s %s%s\n", p.gutter.Sprint(pad+" |"), strings.Repeat(" ", offset),
		p.caret.Sprint("^"+strings.Repeat("~", width-1)))
}

// clampCol maps a 1-based byte column into [1, len(line)+1].
func clampCol(col uint32, line string) int {
	c := int(col)
	if c < 1 {
		return 1
	}
	if c > len(line)+1 {
		return len(line) + 1
	}
	return c
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

// displayWidth is the terminal width of s after tab expansion.
func displayWidth(s string) int {
	return runewidth.StringWidth(expandTabs(s))
}

func writeSummary(b *strings.Builder, p palette, st diag.Stats) {
	problems := st.Total - st.Suppressed
	if problems == 0 {
		b.WriteString(p.dim.Sprint("no problems found"))
	} else {
		fmt.Fprintf(b, "%s (%s, %s, %s)",
			p.path.Sprint(plural(problems, "problem")),
			p.err.Sprint(plural(st.Errors, "error")),
			p.warn.Sprint(plural(st.Warnings, "warning")),
			p.info.Sprint(plural(st.Infos, "info")))
	}
	if st.Suppressed > 0 {
		fmt.Fprintf(b, ", %s", p.dim.Sprintf("%d suppressed", st.Suppressed))
	}
	b.WriteByte('\n')
}

func writeQuality(b *strings.Builder, p palette, q *quality.Report) {
	c := p.info
	switch q.Grade {
	case quality.Bad:
		c = p.err
	case quality.Moderate:
		c = p.warn
	}
	b.WriteString(c.Sprint(q.String()))
	b.WriteByte('\n')
}

func plural(n int, word string) string {
	if n == 1 || word == "info" {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
