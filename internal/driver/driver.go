// Package driver runs a whole check: it discovers files, loads them, parses
// and analyzes units on a worker pool and collects one ordered result.
package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"lintel/internal/diag"
	"lintel/internal/engine"
	"lintel/internal/javasrc"
	"lintel/internal/observ"
	"lintel/internal/source"
	"lintel/internal/trace"
	"lintel/internal/tree"
)

// Request describes one run.
type Request struct {
	Paths   []string // files or directories
	Exclude []string
	Jobs    int // 0 means GOMAXPROCS
	// MaxFileSize bounds source files in bytes; 0 keeps javasrc.DefaultMaxFileSize.
	// Ignored when Parser is set.
	MaxFileSize int

	Engine *engine.Engine
	Parser tree.Parser // defaults to javasrc

	Logger   hclog.Logger
	Progress func(Event) // called from workers; must be goroutine-safe
	Timer    *observ.Timer
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path        string
	FileID      source.FileID
	Loaded      bool
	Skipped     bool // empty source
	Failed      bool // load or parse failure
	Diagnostics int
	Duration    time.Duration
}

// Result is the outcome of a run.
type Result struct {
	RunID       uuid.UUID
	FileSet     *source.FileSet
	Files       []FileResult
	Diagnostics []diag.Diagnostic
	Stats       diag.Stats
	Timings     observ.Report
}

// ParseFailure means a file could not be turned into a unit. It becomes a
// parse-failure diagnostic and never stops the run.
type ParseFailure struct {
	Path string
	Err  error
}

func (e *ParseFailure) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e *ParseFailure) Unwrap() error { return e.Err }

// Run checks every file named by req. Rule and parse failures end up as
// diagnostics; an error is returned only for discovery problems, fail-fast
// rule failures and cancellation.
func Run(ctx context.Context, req Request) (*Result, error) {
	if req.Engine == nil {
		return nil, errors.New("driver: nil engine")
	}
	log := req.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	log = log.Named("driver")
	parser := req.Parser
	if parser == nil {
		parser = javasrc.NewParser(javasrc.WithLogger(log), javasrc.WithMaxFileSize(req.MaxFileSize))
	}
	timer := req.Timer
	if timer == nil {
		timer = observ.NewTimer()
	}
	progress := req.Progress
	if progress == nil {
		progress = func(Event) {}
	}

	res := &Result{RunID: uuid.New(), FileSet: source.NewFileSet()}
	ctx, runSpan := trace.Start(ctx, trace.ScopeRun, "check")
	runSpan.WithExtra("run_id", res.RunID.String())
	defer func() { runSpan.End(strconv.Itoa(len(res.Diagnostics)) + " diagnostics") }()

	// discover
	var files []string
	err := phase(ctx, timer, "discover", func() error {
		var err error
		files, err = discover(req.Paths, req.Exclude)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Debug("discovered files", "count", len(files), "run_id", res.RunID)
	progress(Event{Kind: EventDiscovered, Total: len(files)})

	// load: FileSet is not safe for concurrent Add, so files are read up front
	res.Files = make([]FileResult, len(files))
	loadErrs := make([]error, len(files))
	_ = phase(ctx, timer, "load", func() error {
		for i, path := range files {
			res.Files[i].Path = path
			id, err := res.FileSet.Load(path)
			if err != nil {
				loadErrs[i] = err
				log.Warn("cannot read file", "path", path, "error", err)
				continue
			}
			res.Files[i].FileID = id
			res.Files[i].Loaded = true
		}
		return nil
	})

	// analyze
	collector := diag.NewCollector()
	err = phase(ctx, timer, "analyze", func() error {
		jobs := req.Jobs
		if jobs <= 0 {
			jobs = runtime.GOMAXPROCS(0)
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(1, min(jobs, len(files))))
		for i := range files {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				fr := &res.Files[i] // индекс уникален, мьютекс не нужен
				progress(Event{Kind: EventFileStarted, Path: fr.Path, Index: i, Total: len(files)})
				started := time.Now()
				diags, err := analyzeFile(gctx, req.Engine, parser, res.FileSet, fr, loadErrs[i], log)
				fr.Duration = time.Since(started)
				if err != nil {
					progress(Event{Kind: EventFileFailed, Path: fr.Path, Index: i, Total: len(files), Err: err})
					return err
				}
				fr.Diagnostics = len(diags)
				collector.AddUnit(diags)
				progress(Event{Kind: EventFileDone, Path: fr.Path, Index: i, Total: len(files), Diagnostics: len(diags)})
				return nil
			})
		}
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}

	res.Diagnostics = collector.Result()
	res.Stats = diag.Summarize(res.Diagnostics)
	res.Timings = timer.Report()
	progress(Event{Kind: EventDone, Total: len(files), Diagnostics: len(res.Diagnostics)})
	return res, nil
}

func phase(ctx context.Context, timer *observ.Timer, name string, fn func() error) error {
	_, span := trace.Start(ctx, trace.ScopePass, name)
	err := timer.Measure(name, fn)
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	span.End(detail)
	return err
}

func discover(paths, exclude []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", p, err)
		}
		var found []string
		if info.IsDir() {
			if found, err = ListFiles(p, exclude); err != nil {
				return nil, err
			}
		} else {
			// явно указанный файл проверяется всегда
			found = []string{p}
		}
		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out, nil
}

// analyzeFile returns the unit's diagnostics. Only fail-fast rule failures
// and cancellation are returned as errors.
func analyzeFile(ctx context.Context, eng *engine.Engine, parser tree.Parser, fs *source.FileSet,
	fr *FileResult, loadErr error, log hclog.Logger) ([]diag.Diagnostic, error) {
	if loadErr != nil {
		fr.Failed = true
		return []diag.Diagnostic{failureDiagnostic(&ParseFailure{Path: fr.Path, Err: loadErr}, nil)}, nil
	}
	file := fs.Get(fr.FileID)
	u, err := parser.Parse(ctx, file)
	switch {
	case err == nil:
	case errors.Is(err, javasrc.ErrEmptySource):
		log.Debug("skipping empty file", "path", fr.Path)
		fr.Skipped = true
		return nil, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		log.Warn("parse failed", "path", fr.Path, "error", err)
		fr.Failed = true
		return []diag.Diagnostic{failureDiagnostic(&ParseFailure{Path: fr.Path, Err: err}, file)}, nil
	}
	return eng.Analyze(ctx, u)
}

// failureDiagnostic points at the syntax error when the parser reports one,
// else at the start of the file.
func failureDiagnostic(pf *ParseFailure, file *source.File) diag.Diagnostic {
	var span source.Span
	loc := source.Location{Path: filepath.ToSlash(filepath.Clean(pf.Path)), Start: source.LineCol{Line: 1, Col: 1}, End: source.LineCol{Line: 1, Col: 1}}
	if file != nil {
		span = source.Span{File: file.ID}
		loc.Path = file.Path
		var se *javasrc.SyntaxError
		if errors.As(pf.Err, &se) {
			span.Start, span.End = se.Offset, se.Offset
			loc.Start, loc.End = se.Pos, se.Pos
		}
	}
	d := diag.New(diag.RuleParseFailure, diag.SevError, span, "cannot analyze file: "+errorText(pf.Err))
	d.Location = loc
	return d
}

func errorText(err error) string {
	var se *javasrc.SyntaxError
	if errors.As(err, &se) {
		return se.Msg
	}
	return err.Error()
}
