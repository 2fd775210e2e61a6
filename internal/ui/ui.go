package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/sokinpui/schemafix.go/model"
)

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
)

// Status lines go to Status; summaries go to Out.
var (
	Out    io.Writer = os.Stdout
	Status io.Writer = os.Stderr
)

func Warning(format string, a ...interface{}) {
	WarningColor.Fprintf(Status, format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	ErrorColor.Fprintf(Status, format+"\n", a...)
}

// PrintWarnings writes the warnings of a run as status lines.
func PrintWarnings(s model.Summary) {
	for _, w := range s.Warnings {
		Warning("Warning: %s", w)
	}
}

// PrintSummary writes the outcome of a run.
func PrintSummary(s model.Summary) {
	if s.Action != "" {
		HeaderColor.Fprintf(Out, "--- %s ---\n", s.Action)
	}
	for _, d := range s.Details {
		fmt.Fprintln(Out, d)
	}
	if s.Message != "" {
		InfoColor.Fprintln(Out, s.Message)
	}

	if len(s.Modified) > 0 {
		SuccessColor.Fprintf(Out, "Modified %d file(s):\n", len(s.Modified))
		for _, f := range s.Modified {
			fmt.Fprintf(Out, "  - %s\n", f)
		}
	}
	if len(s.Failed) > 0 {
		ErrorColor.Fprintf(Out, "Failed to process %d file(s):\n", len(s.Failed))
		for _, f := range s.Failed {
			fmt.Fprintf(Out, "  - %s\n", f)
		}
	}
}
