package rule

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"lintel/internal/diag"
)

// Settings is the user-provided configuration of one rule. Nil or empty
// fields fall back to the descriptor defaults.
type Settings struct {
	Enabled    *bool           `toml:"enabled" yaml:"enabled"`
	Severity   string          `toml:"severity" yaml:"severity"`
	Thresholds map[string]int  `toml:"thresholds" yaml:"thresholds"`
	Options    map[string]bool `toml:"options" yaml:"options"`
}

// Config maps rule ids to their settings.
type Config struct {
	Rules    map[string]Settings
	FailFast bool
}

// Effective is a descriptor's defaults merged with the user settings.
type Effective struct {
	Enabled    bool
	Severity   diag.Severity
	Thresholds map[string]int
	Options    map[string]bool
}

// ConfigurationError rejects a configuration before any file is analyzed.
type ConfigurationError struct {
	Rule   string
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Rule == "" && e.Key == "":
		return "configuration: " + e.Reason
	case e.Key == "":
		return fmt.Sprintf("configuration: rule %q: %s", e.Rule, e.Reason)
	case e.Rule == "":
		return fmt.Sprintf("configuration: %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("configuration: rule %q: %s: %s", e.Rule, e.Key, e.Reason)
}

// Validate checks every configured rule against reg. All problems are
// returned joined, in rule id order.
func (c *Config) Validate(reg *Registry) error {
	if c == nil {
		return nil
	}
	ids := make([]string, 0, len(c.Rules))
	for id := range c.Rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		s := c.Rules[id]
		d, ok := reg.Lookup(id)
		if !ok {
			reason := "unknown rule"
			if id == diag.RuleParseFailure || id == diag.RuleRuleFailure {
				reason = "engine rule is not configurable"
			}
			errs = append(errs, &ConfigurationError{Rule: id, Reason: reason})
			continue
		}
		if s.Severity != "" {
			if _, err := diag.ParseSeverity(s.Severity); err != nil {
				errs = append(errs, &ConfigurationError{Rule: id, Key: "severity", Reason: err.Error()})
			}
		}
		for _, k := range sortedKeys(s.Thresholds) {
			if _, known := d.Thresholds[k]; !known {
				errs = append(errs, &ConfigurationError{Rule: id, Key: k, Reason: "unknown threshold"})
				continue
			}
			if s.Thresholds[k] < 0 {
				errs = append(errs, &ConfigurationError{Rule: id, Key: k, Reason: fmt.Sprintf("threshold must not be negative, got %d", s.Thresholds[k])})
			}
		}
		for _, k := range sortedKeys(s.Options) {
			if _, known := d.Options[k]; !known {
				errs = append(errs, &ConfigurationError{Rule: id, Key: k, Reason: "unknown option"})
			}
		}
	}
	return errors.Join(errs...)
}

// Effective resolves d under c. A nil config yields the defaults.
func (c *Config) Effective(d *Descriptor) Effective {
	eff := Effective{
		Enabled:    d.EnabledByDefault,
		Severity:   d.Severity,
		Thresholds: make(map[string]int, len(d.Thresholds)),
		Options:    make(map[string]bool, len(d.Options)),
	}
	for k, v := range d.Thresholds {
		eff.Thresholds[k] = v
	}
	for k, v := range d.Options {
		eff.Options[k] = v
	}
	if c == nil {
		return eff
	}
	s, ok := c.Rules[d.ID]
	if !ok {
		return eff
	}
	if s.Enabled != nil {
		eff.Enabled = *s.Enabled
	}
	if sev, err := diag.ParseSeverity(s.Severity); s.Severity != "" && err == nil {
		eff.Severity = sev
	}
	for k, v := range s.Thresholds {
		eff.Thresholds[k] = v
	}
	for k, v := range s.Options {
		eff.Options[k] = v
	}
	return eff
}

// Enable switches a rule on or off.
func (c *Config) Enable(id string, on bool) {
	s := c.settings(id)
	s.Enabled = &on
	c.Rules[id] = s
}

// Set applies an override of the form "rule.key=value". Integer values set
// thresholds and booleans set options; "severity" sets the severity.
func (c *Config) Set(expr string) error {
	lhs, value, ok := strings.Cut(expr, "=")
	if !ok {
		return &ConfigurationError{Key: expr, Reason: "expected rule.key=value"}
	}
	id, key, ok := strings.Cut(strings.TrimSpace(lhs), ".")
	if !ok || id == "" || key == "" {
		return &ConfigurationError{Key: lhs, Reason: "expected rule.key=value"}
	}
	value = strings.TrimSpace(value)
	s := c.settings(id)
	switch {
	case key == "severity":
		s.Severity = value
	case key == "enabled":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return &ConfigurationError{Rule: id, Key: key, Reason: fmt.Sprintf("invalid bool %q", value)}
		}
		s.Enabled = &on
	default:
		if n, err := strconv.Atoi(value); err == nil {
			if s.Thresholds == nil {
				s.Thresholds = make(map[string]int)
			}
			s.Thresholds[key] = n
		} else if b, err := strconv.ParseBool(value); err == nil {
			if s.Options == nil {
				s.Options = make(map[string]bool)
			}
			s.Options[key] = b
		} else {
			return &ConfigurationError{Rule: id, Key: key, Reason: fmt.Sprintf("value %q is neither a number nor a bool", value)}
		}
	}
	c.Rules[id] = s
	return nil
}

func (c *Config) settings(id string) Settings {
	if c.Rules == nil {
		c.Rules = make(map[string]Settings)
	}
	return c.Rules[id]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
