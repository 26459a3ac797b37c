package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"lintel/internal/checks"
	"lintel/internal/rule"
)

type ruleInfo struct {
	ID               string          `json:"id"`
	Inspector        string          `json:"inspector"`
	Category         string          `json:"category"`
	Severity         string          `json:"severity"`
	EnabledByDefault bool            `json:"enabled_by_default"`
	Summary          string          `json:"summary"`
	Thresholds       map[string]int  `json:"thresholds,omitempty"`
	Options          map[string]bool `json:"options,omitempty"`
}

func newRulesCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the built-in rules and their defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos := describeRules(checks.Default().All())
			switch strings.ToLower(format) {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			case "table", "":
				_, err := fmt.Fprintln(cmd.OutOrStdout(), rulesTable(infos))
				return err
			default:
				return usageError(fmt.Errorf("unknown format %q (expected table|json)", format))
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "output format (table|json)")
	return cmd
}

func describeRules(descs []*rule.Descriptor) []ruleInfo {
	out := make([]ruleInfo, 0, len(descs))
	for _, d := range descs {
		out = append(out, ruleInfo{
			ID:               d.ID,
			Inspector:        d.Inspector,
			Category:         string(d.Category),
			Severity:         d.Severity.Label(),
			EnabledByDefault: d.EnabledByDefault,
			Summary:          d.Summary,
			Thresholds:       d.Thresholds,
			Options:          d.Options,
		})
	}
	return out
}

func rulesTable(infos []ruleInfo) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("RULE", "SEVERITY", "DEFAULT", "SETTINGS", "SUMMARY")
	for _, r := range infos {
		enabled := "off"
		if r.EnabledByDefault {
			enabled = "on"
		}
		t.Row(r.ID, r.Severity, enabled, settingsString(r), r.Summary)
	}
	return t.String()
}

// settingsString renders thresholds and options as "k=v" pairs in key order.
func settingsString(r ruleInfo) string {
	var parts []string
	for k, v := range r.Thresholds {
		parts = append(parts, k+"="+strconv.Itoa(v))
	}
	for k, v := range r.Options {
		parts = append(parts, k+"="+strconv.FormatBool(v))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
