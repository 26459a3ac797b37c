package main

import (
	"errors"
	"fmt"
	"io"
)

const (
	exitOK       = 0
	exitFindings = 1
	exitUsage    = 2
)

// exitError carries a process exit status through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error {
	return &exitError{code: exitUsage, err: err}
}

// errFindings ends a check that reported diagnostics at or above fail_on.
// The diagnostics themselves are the message.
var errFindings = &exitError{code: exitFindings}

// exitCode maps a command error to a status. Anything not explicitly
// classified (configuration, bad paths, aborted runs) is a usage error.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "lintel: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "lintel: %v\n", err)
	return exitUsage
}
