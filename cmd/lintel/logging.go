package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

// newLogger builds the operational logger from --log-level. Logs go to stderr.
func newLogger(cmd *cobra.Command) (hclog.Logger, error) {
	levelStr, err := cmd.Root().PersistentFlags().GetString("log-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get log-level flag: %w", err)
	}
	level := hclog.LevelFromString(levelStr)
	if level == hclog.NoLevel {
		return nil, usageError(fmt.Errorf("invalid --log-level %q (expected trace|debug|info|warn|error|off)", levelStr))
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "lintel",
		Level:  level,
		Output: cmd.ErrOrStderr(),
	}), nil
}

// useColor resolves --color for the writer diagnostics go to.
func useColor(cmd *cobra.Command, isTTY bool) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "on", "always":
		return true, nil
	case "off", "never":
		return false, nil
	case "", "auto":
		return isTTY && !color.NoColor, nil
	}
	return false, usageError(fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode))
}
