package schemafix

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/sokinpui/schemafix.go/cli"
	"github.com/sokinpui/schemafix.go/internal/fs"
	"github.com/sokinpui/schemafix.go/internal/nvim"
	"github.com/sokinpui/schemafix.go/internal/parser"
	"github.com/sokinpui/schemafix.go/internal/patcher"
	"github.com/sokinpui/schemafix.go/internal/source"
	"github.com/sokinpui/schemafix.go/internal/splice"
	"github.com/sokinpui/schemafix.go/internal/state"
	"github.com/sokinpui/schemafix.go/model"
)

// App orchestrates the entire application logic.
type App struct {
	cfg            *cli.Config
	lg             *zap.Logger
	stateManager   *state.Manager
	pathResolver   *fs.PathResolver
	sourceProvider *source.SnippetProvider
	out            io.Writer
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

func (e *DetailedError) Unwrap() error {
	return e.Err
}

// New creates a new App instance. A nil logger disables diagnostic logging.
func New(cfg *cli.Config, lg *zap.Logger) (*App, error) {
	if lg == nil {
		lg = zap.NewNop()
	}
	pathResolver, err := fs.NewPathResolver(cfg.LookupDirs)
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:            cfg,
		lg:             lg,
		pathResolver:   pathResolver,
		sourceProvider: source.New(),
		out:            os.Stdout,
	}

	if cfg.Undo || cfg.Redo || (!cfg.NoHistory && !cfg.Preview) {
		stateDir := cfg.StateDir
		if stateDir == "" {
			if stateDir, err = state.DefaultDir(); err != nil {
				return nil, err
			}
		}
		if app.stateManager, err = state.New(stateDir); err != nil {
			return nil, errors.Wrap(err, "initialize state manager")
		}
		lg.Debug("History enabled", zap.String("dir", stateDir))
	}

	return app, nil
}

// SetOutput redirects preview diffs, which go to stdout by default.
func (a *App) SetOutput(w io.Writer) {
	a.out = w
}

// Execute executes the main application logic based on parsed flags.
func (a *App) Execute() (summary model.Summary, err error) {
	// Centralized panic recovery.
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	a.lg.Debug("Executing", zap.String("mode", a.cfg.Mode()))
	switch a.cfg.Mode() {
	case cli.ModeDedupe:
		return a.dedupe()
	case cli.ModeInsert:
		return a.insert()
	case cli.ModeUndo:
		return a.undoLastOperation()
	case cli.ModeRedo:
		return a.redoLastOperation()
	default:
		return model.Summary{}, errors.New("no operation selected")
	}
}

// dedupe removes the duplicated block from the schema file.
func (a *App) dedupe() (model.Summary, error) {
	path := a.pathResolver.Resolve(a.cfg.Schema)
	a.lg.Debug("Reading schema", zap.String("path", path))

	change, details, err := planDedupe(path, a.cfg.Marker)
	if err != nil {
		return model.Summary{}, err
	}
	a.lg.Debug("Planned removal",
		zap.Int("before_bytes", len(change.Before)),
		zap.Int("after_bytes", len(change.After)),
	)

	summary := model.Summary{Action: model.ActionDedupe, Details: details}
	return a.apply(change, summary)
}

// insert splices the snippet into the schema file.
func (a *App) insert() (model.Summary, error) {
	snippetPath := a.cfg.Snippet
	if snippetPath != "" && snippetPath != source.StdinPath {
		snippetPath = a.pathResolver.Resolve(snippetPath)
	}
	a.lg.Debug("Reading snippet", zap.String("path", snippetPath))

	snippet, err := a.sourceProvider.Get(snippetPath)
	if err != nil {
		return model.Summary{}, err
	}
	if a.cfg.Markdown || parser.IsMarkdown(snippetPath) {
		if snippet, err = parser.ExtractSnippet(snippet, a.cfg.Langs); err != nil {
			return model.Summary{}, errors.Wrapf(err, "extract snippet from %s", snippetPath)
		}
		a.lg.Debug("Extracted markdown code blocks", zap.Int("bytes", len(snippet)))
	}

	path := a.pathResolver.Resolve(a.cfg.Schema)
	change, details, err := planInsert(path, snippet, a.cfg.InsertMarker)
	if err != nil {
		return model.Summary{}, err
	}

	summary := model.Summary{Action: model.ActionInsert, Details: details}
	return a.apply(change, summary)
}

// apply previews or writes the change and records it in history.
func (a *App) apply(change model.Change, summary model.Summary) (model.Summary, error) {
	if a.cfg.Preview {
		diff, err := patcher.UnifiedDiff(a.displayPath(change.Path), change.Before, change.After)
		if err != nil {
			return model.Summary{}, err
		}
		fmt.Fprint(a.out, diff)
		summary.Message = "Preview only. No files were written."
		return summary, nil
	}

	write, closeWriter, err := a.writer()
	if err != nil {
		return model.Summary{}, err
	}
	defer closeWriter()

	if err := write(change.Path, change.After); err != nil {
		return model.Summary{}, err
	}
	a.lg.Debug("Wrote schema", zap.String("path", change.Path))

	if a.stateManager != nil {
		if err := a.stateManager.Record(change); err != nil {
			// The file is already written; history is best effort.
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("could not record history: %v", err))
			a.lg.Warn("Record history", zap.Error(err))
		}
	}

	summary.Modified = []string{a.displayPath(change.Path)}
	summary.Message = a.successMessage(change)
	return summary, nil
}

func (a *App) successMessage(change model.Change) string {
	path := a.displayPath(change.Path)
	if change.Action == model.ActionInsert {
		return fmt.Sprintf("Successfully inserted models into %s before %q.", path, a.cfg.InsertMarker)
	}
	return fmt.Sprintf("Removed duplicate %q block from %s.", a.cfg.Marker, path)
}

// writer returns the function used to persist file content, going through
// Neovim when requested.
func (a *App) writer() (state.Writer, func(), error) {
	if !a.cfg.Nvim {
		return fs.WriteFile, func() {}, nil
	}
	manager, err := nvim.New()
	if err != nil {
		return nil, nil, err
	}
	return manager.WriteFile, manager.Close, nil
}

// undoLastOperation handles the undo logic.
func (a *App) undoLastOperation() (model.Summary, error) {
	write, closeWriter, err := a.writer()
	if err != nil {
		return model.Summary{}, err
	}
	defer closeWriter()

	undone, failed, ok, err := a.stateManager.Undo(write)
	if err != nil {
		return model.Summary{}, err
	}
	if !ok {
		return model.Summary{Message: "No operation to undo."}, nil
	}

	summary := model.Summary{
		Action:   cli.ModeUndo,
		Modified: undone,
		Failed:   failed,
		Message:  "Undid last operation.",
	}
	if len(failed) > 0 {
		summary.Message = "Some files changed since the last operation and were left untouched."
	}
	a.relativizeSummaryPaths(&summary)
	return summary, nil
}

// redoLastOperation handles the redo logic.
func (a *App) redoLastOperation() (model.Summary, error) {
	write, closeWriter, err := a.writer()
	if err != nil {
		return model.Summary{}, err
	}
	defer closeWriter()

	redone, failed, ok, err := a.stateManager.Redo(write)
	if err != nil {
		return model.Summary{}, err
	}
	if !ok {
		return model.Summary{Message: "No operation to redo."}, nil
	}

	summary := model.Summary{
		Action:   cli.ModeRedo,
		Modified: redone,
		Failed:   failed,
		Message:  "Redid last undone operation.",
	}
	if len(failed) > 0 {
		summary.Message = "Some files changed since the operation was undone and were left untouched."
	}
	a.relativizeSummaryPaths(&summary)
	return summary, nil
}

// planDedupe reads the schema and computes the duplicate removal.
func planDedupe(path, marker string) (model.Change, []string, error) {
	content, err := fs.ReadFile(path)
	if err != nil {
		return model.Change{}, nil, err
	}

	res, err := splice.RemoveDuplicate(fs.SplitLines(content), marker)
	if err != nil {
		return model.Change{}, nil, errors.Wrapf(err, "dedupe %s", path)
	}

	// The reported range stops at the last non-blank line, but the removal
	// itself always runs up to the second marker.
	details := []string{
		fmt.Sprintf("First occurrence of %q at line %d", marker, res.First+1),
		fmt.Sprintf("Second occurrence at line %d", res.Second+1),
		fmt.Sprintf("Removing lines %d to %d", res.First+1, res.TrimmedEnd+1),
		fmt.Sprintf("Removed %d line(s)", res.Removed()),
	}

	return model.Change{
		Path:   path,
		Action: model.ActionDedupe,
		Before: content,
		After:  strings.Join(res.Lines, ""),
	}, details, nil
}

// planInsert reads the schema and computes the snippet insertion.
func planInsert(path, snippet, marker string) (model.Change, []string, error) {
	content, err := fs.ReadFile(path)
	if err != nil {
		return model.Change{}, nil, err
	}

	updated, line, err := splice.InsertBefore(content, snippet, marker)
	if err != nil {
		return model.Change{}, nil, errors.Wrapf(err, "insert into %s", path)
	}

	details := []string{
		fmt.Sprintf("Found %q at line %d", marker, line),
		fmt.Sprintf("Inserted %d line(s) before it", len(fs.SplitLines(snippet))),
	}

	return model.Change{
		Path:   path,
		Action: model.ActionInsert,
		Before: content,
		After:  updated,
	}, details, nil
}

// displayPath returns path relative to the working directory when possible.
func (a *App) displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// relativizeSummaryPaths converts absolute file paths in a summary to be
// relative to the current working directory for cleaner display.
func (a *App) relativizeSummaryPaths(summary *model.Summary) {
	makeRelative := func(absPaths []string) []string {
		relPaths := make([]string, len(absPaths))
		for i, p := range absPaths {
			relPaths[i] = a.displayPath(p)
		}
		return relPaths
	}

	summary.Modified = makeRelative(summary.Modified)
	summary.Failed = makeRelative(summary.Failed)
}
