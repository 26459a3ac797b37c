package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"lintel/internal/checks"
	"lintel/internal/config"
	"lintel/internal/diag"
	"lintel/internal/diagfmt"
	"lintel/internal/driver"
	"lintel/internal/engine"
	"lintel/internal/observ"
	"lintel/internal/quality"
	"lintel/internal/rule"
	"lintel/internal/version"
)

type checkOptions struct {
	format         string
	output         string
	configPath     string
	jobs           int
	failFast       bool
	failOn         string
	enable         []string
	disable        []string
	set            []string
	startLine      uint
	endLine        uint
	showSuppressed bool
	withNotes      bool
	maxDiagnostics int
	maxFileSize    int
	ui             string
}

func newCheckCmd() *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check [flags] [paths...]",
		Short: "Inspect Java files and directories",
		Long: `Inspect the given files and directories (default: the current directory).
Exit status is 0 when no unsuppressed diagnostic reaches fail_on,
1 when one does, and 2 on configuration or usage errors.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.format, "format", "pretty", "output format (pretty|short|json|sarif|msgpack)")
	f.StringVarP(&opts.output, "output", "o", "", "write the report to a file instead of stdout")
	f.StringVar(&opts.configPath, "config", "", "config file (default: lintel.toml or lintel.yaml found upwards)")
	f.IntVar(&opts.jobs, "jobs", 0, "max parallel workers (0=auto)")
	f.BoolVar(&opts.failFast, "fail-fast", false, "abort the run on the first rule failure")
	f.StringVar(&opts.failOn, "fail-on", "", "minimum severity that fails the run (info|warning|error)")
	f.StringSliceVar(&opts.enable, "enable", nil, "enable rules by id")
	f.StringSliceVar(&opts.disable, "disable", nil, "disable rules by id")
	f.StringArrayVar(&opts.set, "set", nil, "override a rule setting: rule.key=value")
	f.UintVar(&opts.startLine, "start-line", 0, "report only diagnostics starting at or after this line")
	f.UintVar(&opts.endLine, "end-line", 0, "report only diagnostics starting at or before this line")
	f.BoolVar(&opts.showSuppressed, "show-suppressed", false, "include suppressed diagnostics in pretty/short output")
	f.BoolVar(&opts.withNotes, "with-notes", false, "include diagnostic notes in output")
	f.IntVar(&opts.maxDiagnostics, "max-diagnostics", 100, "maximum number of diagnostics to print in pretty format (0=all)")
	f.IntVar(&opts.maxFileSize, "max-file-size", 0, "largest source file to parse, in bytes (0=10MB)")
	f.StringVar(&opts.ui, "ui", "auto", "progress view (auto|on|off)")
	return cmd
}

// runCheck executes "check": it loads configuration, applies flag
// overrides, runs the driver and renders the diagnostics.
func runCheck(cmd *cobra.Command, args []string, opts *checkOptions) error {
	format, err := diagfmt.ParseFormat(opts.format)
	if err != nil {
		return usageError(err)
	}
	mode, err := readUIMode(opts.ui)
	if err != nil {
		return usageError(err)
	}
	if opts.endLine != 0 && opts.startLine > opts.endLine {
		return usageError(fmt.Errorf("--start-line %d is after --end-line %d", opts.startLine, opts.endLine))
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, err := loadConfig(opts)
	if err != nil {
		return usageError(err)
	}
	if cfg.Path != "" {
		log.Debug("using config", "path", cfg.Path)
	}
	if err := applyOverrides(cmd, cfg, opts); err != nil {
		return usageError(err)
	}

	eng, err := engine.New(checks.Default(), cfg.Rules, engine.Options{Logger: log})
	if err != nil {
		return usageError(err)
	}

	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}
	timer := observ.NewTimer()
	req := driver.Request{
		Paths:       paths,
		Exclude:     cfg.Exclude,
		Jobs:        cfg.Jobs,
		MaxFileSize: opts.maxFileSize,
		Engine:      eng,
		Logger:      log,
		Timer:       timer,
	}

	var res *driver.Result
	if shouldUseTUI(mode, isTerminal(cmd.ErrOrStderr())) {
		res, err = runWithUI(cmd.Context(), "lintel check", req, cmd.ErrOrStderr())
	} else {
		res, err = driver.Run(cmd.Context(), req)
	}
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	diags := diag.FilterLines(res.Diagnostics, uint32(opts.startLine), uint32(opts.endLine)) //nolint:gosec // line numbers
	if err := writeReport(cmd, format, opts, res, diags, timer); err != nil {
		return err
	}

	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	if showTimings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}

	if diag.Failing(diags, cfg.FailOn) {
		return errFindings
	}
	return nil
}

func loadConfig(opts *checkOptions) (*config.Config, error) {
	if opts.configPath != "" {
		return config.Load(opts.configPath)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return config.Discover(wd)
}

// applyOverrides layers command-line flags over the config file.
func applyOverrides(cmd *cobra.Command, cfg *config.Config, opts *checkOptions) error {
	if cmd.Flags().Changed("jobs") {
		if opts.jobs < 0 {
			return &rule.ConfigurationError{Key: "jobs", Reason: fmt.Sprintf("must not be negative, got %d", opts.jobs)}
		}
		cfg.Jobs = opts.jobs
	}
	if opts.failFast {
		cfg.Rules.FailFast = true
	}
	if opts.failOn != "" {
		sev, err := diag.ParseSeverity(opts.failOn)
		if err != nil {
			return &rule.ConfigurationError{Key: "fail_on", Reason: err.Error()}
		}
		cfg.FailOn = sev
	}
	for _, id := range opts.enable {
		cfg.Rules.Enable(id, true)
	}
	for _, id := range opts.disable {
		cfg.Rules.Enable(id, false)
	}
	var errs []error
	for _, expr := range opts.set {
		if err := cfg.Rules.Set(expr); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func writeReport(cmd *cobra.Command, format diagfmt.Format, opts *checkOptions, res *driver.Result, diags []diag.Diagnostic, timer *observ.Timer) (err error) {
	var out io.Writer = cmd.OutOrStdout()
	if opts.output != "" {
		f, createErr := os.Create(opts.output)
		if createErr != nil {
			return usageError(fmt.Errorf("cannot create output file: %w", createErr))
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
		out = f
	} else if format.Binary() && isTerminal(out) {
		return usageError(fmt.Errorf("refusing to write %s to a terminal; use --output", format))
	}

	meta := diagfmt.Meta{
		RunID:       res.RunID,
		ToolName:    "lintel",
		ToolVersion: version.Version,
	}
	if showTimings, _ := cmd.Root().PersistentFlags().GetBool("timings"); showTimings {
		report := timer.Report()
		meta.Timings = &report
	}
	grade := gradeRun(res, diags)
	meta.Quality = &grade

	switch format {
	case diagfmt.FormatShort:
		short := diags
		if !opts.showSuppressed {
			short = diag.Visible(diags)
		}
		return diagfmt.Short(out, short, opts.withNotes)
	case diagfmt.FormatJSON:
		return diagfmt.JSON(out, diags, meta)
	case diagfmt.FormatMsgpack:
		return diagfmt.Msgpack(out, diags, meta)
	case diagfmt.FormatSARIF:
		return diagfmt.Sarif(out, diags, checks.Default().All(), meta)
	default:
		colored, err := useColor(cmd, opts.output == "" && isTerminal(out))
		if err != nil {
			return err
		}
		return diagfmt.Pretty(out, diags, res.FileSet, diagfmt.PrettyOpts{
			Color:          colored,
			Max:            opts.maxDiagnostics,
			ShowNotes:      opts.withNotes,
			HideSuppressed: !opts.showSuppressed,
			ShowSource:     true,
			Summary:        true,
			Quality:        &grade,
		})
	}
}

// gradeRun оценивает прогон по категориям правил.
func gradeRun(res *driver.Result, diags []diag.Diagnostic) quality.Report {
	files, lines := quality.Measure(res.FileSet)
	reg := checks.Default()
	return quality.Evaluate(quality.Input{
		Diagnostics: diags,
		Category: func(id string) (rule.Category, bool) {
			d, ok := reg.Lookup(id)
			if !ok {
				return "", false
			}
			return d.Category, true
		},
		Files: files,
		Lines: lines,
	}, quality.DefaultThresholds())
}
