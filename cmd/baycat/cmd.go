package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// warning prints a warning message to standard error.
func warning(message string) {
	fmt.Fprintln(color.Error, color.YellowString("Warning:"), message)
}

// fail prints an error message to standard error.
func fail(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
}

// errorf builds a plain input-level error, the kind mainify maps to exit
// code 2 (spec §7, "Input errors").
func errorf(format string, v ...interface{}) error {
	return errors.Errorf(format, v...)
}

// colorErrorWriter returns the writer loggers should emit to: color.Error
// wraps os.Stderr with Windows console color translation where needed.
func colorErrorWriter() io.Writer {
	return color.Error
}

// mainify wraps a non-standard Cobra entry point (one returning an error) and
// generates a standard Cobra entry point, translating a returned error into
// the exit code chosen by exitCodeForError. It's useful for entry points that want to rely on defer-based
// cleanup, which doesn't happen if the entry point calls os.Exit itself.
func mainify(entry func(*cobra.Command, []string) error) func(*cobra.Command, []string) {
	return func(command *cobra.Command, arguments []string) {
		if err := entry(command, arguments); err != nil {
			fail(err)
			os.Exit(exitCodeForError(err))
		}
	}
}
