// Command kite checks Kite infrastructure-as-code projects: diagnostics,
// navigation, inlay hints, the import graph, watch mode and run history.
package main

import (
	"errors"
	"fmt"
	"os"
)

const version = "0.3.0"

// exitError carries a process exit code. Silent errors have already been
// reported on stdout.
type exitError struct {
	code   int
	silent bool
	err    error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func (e *exitError) ExitCode() int {
	return e.code
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		exitCode := 1
		var withCode *exitError
		if errors.As(err, &withCode) {
			exitCode = withCode.ExitCode()
			if withCode.silent {
				os.Exit(exitCode)
			}
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode)
	}
}
