package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-faster/errors"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/sokinpui/schemafix.go/cli"
	"github.com/sokinpui/schemafix.go/internal/logging"
	"github.com/sokinpui/schemafix.go/internal/tui"
	"github.com/sokinpui/schemafix.go/internal/ui"
	"github.com/sokinpui/schemafix.go/model"
	"github.com/sokinpui/schemafix.go/schemafix"
)

func main() {
	cfg, err := cli.ParseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		ui.Error("Error: %v", err)
		os.Exit(1)
	}

	lg, err := logging.New(cfg.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	app, err := schemafix.New(cfg, lg)
	if err != nil {
		ui.Error("Failed to initialize application: %v", err)
		os.Exit(1)
	}

	// Previews print a diff to stdout and should not run the TUI.
	if cfg.Preview || cfg.NoAnimation || !isatty.IsTerminal(os.Stdout.Fd()) {
		summary, err := app.Execute()
		if err != nil {
			fail(err)
		}
		ui.PrintSummary(summary)
		ui.PrintWarnings(summary)
		exitOnFailures(summary)
		return
	}

	p := tea.NewProgram(tui.New(app))
	final, err := p.Run()
	if err != nil {
		ui.Error("Error running program: %v", err)
		os.Exit(1)
	}
	if m, ok := final.(tui.Model); ok {
		if m.Err() != nil {
			os.Exit(1)
		}
		exitOnFailures(m.Summary())
	}
}

func fail(err error) {
	var detailed *schemafix.DetailedError
	if errors.As(err, &detailed) {
		fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", detailed.Stack)
	}
	ui.Error("Error: %v", err)
	os.Exit(1)
}

func exitOnFailures(summary model.Summary) {
	if len(summary.Failed) > 0 {
		os.Exit(1)
	}
}
