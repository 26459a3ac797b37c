// Package config loads lintel.toml / lintel.yaml into run options and a
// rule.Config.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"lintel/internal/diag"
	"lintel/internal/rule"
)

// Names are the file names Find looks for, in priority order.
var Names = []string{"lintel.toml", ".lintel.toml", "lintel.yaml", ".lintel.yaml"}

// fileConfig is the on-disk schema.
type fileConfig struct {
	FailFast bool                     `toml:"fail_fast" yaml:"fail_fast"`
	Jobs     int                      `toml:"jobs" yaml:"jobs"`
	Exclude  []string                 `toml:"exclude" yaml:"exclude"`
	FailOn   string                   `toml:"fail_on" yaml:"fail_on"`
	Rules    map[string]rule.Settings `toml:"rules" yaml:"rules"`
}

// Config is a loaded configuration. The zero value is not useful; use Default.
type Config struct {
	Path    string // empty when no file was found
	Root    string // directory of Path
	Jobs    int
	Exclude []string
	FailOn  diag.Severity
	Rules   *rule.Config
}

// Default is the configuration used without a file.
func Default() *Config {
	return &Config{FailOn: diag.SevWarning, Rules: &rule.Config{}}
}

// Load reads filename, choosing the decoder by extension. Unknown keys and bad
// values are ConfigurationErrors. Rule ids are checked later against the
// registry by rule.Config.Validate.
func Load(filename string) (*Config, error) {
	var fc fileConfig
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		err = decodeTOML(filename, &fc)
	case ".yaml", ".yml":
		err = decodeYAML(filename, &fc)
	default:
		return nil, &rule.ConfigurationError{Key: filename, Reason: "unsupported config format (expected .toml, .yaml or .yml)"}
	}
	if err != nil {
		return nil, err
	}

	cfg := Default()
	cfg.Path = filename
	cfg.Root = filepath.Dir(filename)
	cfg.Exclude = fc.Exclude
	cfg.Rules = &rule.Config{Rules: fc.Rules, FailFast: fc.FailFast}

	var errs []error
	if fc.Jobs < 0 {
		errs = append(errs, &rule.ConfigurationError{Key: "jobs", Reason: fmt.Sprintf("must not be negative, got %d", fc.Jobs)})
	}
	cfg.Jobs = fc.Jobs
	if fc.FailOn != "" {
		sev, err := diag.ParseSeverity(fc.FailOn)
		if err != nil {
			errs = append(errs, &rule.ConfigurationError{Key: "fail_on", Reason: err.Error()})
		}
		cfg.FailOn = sev
	}
	for _, pattern := range fc.Exclude {
		if _, err := path.Match(pattern, ""); err != nil {
			errs = append(errs, &rule.ConfigurationError{Key: "exclude", Reason: fmt.Sprintf("bad pattern %q: %v", pattern, err)})
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", filename, errors.Join(errs...))
	}
	return cfg, nil
}

func decodeTOML(path string, fc *fileConfig) error {
	meta, err := toml.DecodeFile(path, fc)
	if err != nil {
		return fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		errs := make([]error, 0, len(undecoded))
		for _, key := range undecoded {
			errs = append(errs, &rule.ConfigurationError{Key: key.String(), Reason: "unknown key"})
		}
		return fmt.Errorf("%s: %w", path, errors.Join(errs...))
	}
	return nil
}

func decodeYAML(path string, fc *fileConfig) error {
	// #nosec G304 -- path comes from the user or Find
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(fc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: %w", path, &rule.ConfigurationError{Reason: err.Error()})
	}
	return nil
}

// Find walks up from startDir and returns the first config file found.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		for _, name := range Names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Discover loads the config found from startDir, or Default when none exists.
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}
