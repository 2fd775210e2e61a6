package schemafix_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/schemafix.go/cli"
	"github.com/sokinpui/schemafix.go/internal/splice"
	"github.com/sokinpui/schemafix.go/schemafix"
)

const duplicated = `model User {
  id Int @id
}

model ModerationLog {
  id Int @id
}


model ModerationLog {
  id     Int    @id
  reason String
}

enum BuddyGroupType {
  STUDY
}
`

const snippet = `model BuddyGroup {
  id   Int            @id
  type BuddyGroupType
}

`

func newConfig(t *testing.T, mode string) *cli.Config {
	t.Helper()
	cfg := &cli.Config{
		Marker:       "model ModerationLog {",
		InsertMarker: "enum BuddyGroupType",
		StateDir:     filepath.Join(t.TempDir(), ".schemafix"),
	}
	switch mode {
	case cli.ModeDedupe:
		cfg.Dedupe = true
	case cli.ModeInsert:
		cfg.Insert = true
	case cli.ModeUndo:
		cfg.Undo = true
	case cli.ModeRedo:
		cfg.Redo = true
	}
	return cfg
}

func execute(t *testing.T, cfg *cli.Config) (string, error) {
	t.Helper()
	app, err := schemafix.New(cfg, nil)
	require.NoError(t, err)
	var out bytes.Buffer
	app.SetOutput(&out)
	_, err = app.Execute()
	return out.String(), err
}

func TestExecuteDedupe(t *testing.T) {
	path := writeSchema(t, duplicated)
	cfg := newConfig(t, cli.ModeDedupe)
	cfg.Schema = path

	app, err := schemafix.New(cfg, nil)
	require.NoError(t, err)
	summary, err := app.Execute()
	require.NoError(t, err)

	assert.Equal(t, []string{
		`First occurrence of "model ModerationLog {" at line 5`,
		"Second occurrence at line 10",
		"Removing lines 5 to 7",
		"Removed 5 line(s)",
	}, summary.Details)
	require.Len(t, summary.Modified, 1)

	lines := strings.SplitAfter(duplicated, "\n")
	want := strings.Join(lines[:4], "") + strings.Join(lines[9:], "")
	assert.Equal(t, want, readSchema(t, path))
}

func TestExecuteDedupeSingleMarker(t *testing.T) {
	content := "model ModerationLog {\n  id Int @id\n}\n"
	path := writeSchema(t, content)
	cfg := newConfig(t, cli.ModeDedupe)
	cfg.Schema = path

	_, err := execute(t, cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, splice.ErrMarkerNotFound))
	assert.Equal(t, content, readSchema(t, path))
}

func TestExecuteInsert(t *testing.T) {
	path := writeSchema(t, duplicated)
	snippetPath := filepath.Join(t.TempDir(), "new-models.prisma")
	require.NoError(t, os.WriteFile(snippetPath, []byte(snippet), 0o644))

	cfg := newConfig(t, cli.ModeInsert)
	cfg.Schema = path
	cfg.Snippet = snippetPath

	app, err := schemafix.New(cfg, nil)
	require.NoError(t, err)
	summary, err := app.Execute()
	require.NoError(t, err)

	prefix, suffix, found := strings.Cut(duplicated, "enum BuddyGroupType")
	require.True(t, found)
	assert.Equal(t, prefix+snippet+"enum BuddyGroupType"+suffix, readSchema(t, path))
	assert.Equal(t, `Found "enum BuddyGroupType" at line 15`, summary.Details[0])
	assert.Contains(t, summary.Message, "Successfully inserted models")
}

func TestExecuteInsertMissingMarker(t *testing.T) {
	content := "model User {\n}\n"
	path := writeSchema(t, content)
	snippetPath := filepath.Join(t.TempDir(), "new-models.prisma")
	require.NoError(t, os.WriteFile(snippetPath, []byte(snippet), 0o644))

	cfg := newConfig(t, cli.ModeInsert)
	cfg.Schema = path
	cfg.Snippet = snippetPath

	_, err := execute(t, cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, splice.ErrMarkerNotFound))
	assert.Equal(t, content, readSchema(t, path))
}

func TestExecuteInsertMarkdownSnippet(t *testing.T) {
	path := writeSchema(t, duplicated)
	snippetPath := filepath.Join(t.TempDir(), "models.md")
	md := "New models:\n\n```prisma\n" + strings.TrimRight(snippet, "\n") + "\n```\n"
	require.NoError(t, os.WriteFile(snippetPath, []byte(md), 0o644))

	cfg := newConfig(t, cli.ModeInsert)
	cfg.Schema = path
	cfg.Snippet = snippetPath

	_, err := execute(t, cfg)
	require.NoError(t, err)

	got := readSchema(t, path)
	assert.Contains(t, got, snippet+"enum BuddyGroupType")
	assert.NotContains(t, got, "New models:")
}

func TestExecutePreview(t *testing.T) {
	path := writeSchema(t, duplicated)
	cfg := newConfig(t, cli.ModeDedupe)
	cfg.Schema = path
	cfg.Preview = true

	out, err := execute(t, cfg)
	require.NoError(t, err)

	assert.Contains(t, out, "--- a/")
	assert.Contains(t, out, "-  id Int @id\n")
	assert.Equal(t, duplicated, readSchema(t, path))

	_, statErr := os.Stat(cfg.StateDir)
	assert.True(t, os.IsNotExist(statErr), "preview does not create history")
}

func TestExecuteUndoRedo(t *testing.T) {
	path := writeSchema(t, duplicated)
	cfg := newConfig(t, cli.ModeDedupe)
	cfg.Schema = path

	_, err := execute(t, cfg)
	require.NoError(t, err)
	deduped := readSchema(t, path)
	require.NotEqual(t, duplicated, deduped)

	undo := newConfig(t, cli.ModeUndo)
	undo.StateDir = cfg.StateDir
	app, err := schemafix.New(undo, nil)
	require.NoError(t, err)
	summary, err := app.Execute()
	require.NoError(t, err)
	assert.Empty(t, summary.Failed)
	assert.Equal(t, duplicated, readSchema(t, path))

	redo := newConfig(t, cli.ModeRedo)
	redo.StateDir = cfg.StateDir
	_, err = execute(t, redo)
	require.NoError(t, err)
	assert.Equal(t, deduped, readSchema(t, path))

	app, err = schemafix.New(redo, nil)
	require.NoError(t, err)
	summary, err = app.Execute()
	require.NoError(t, err)
	assert.Equal(t, "No operation to redo.", summary.Message)
}

func TestExecuteNoHistory(t *testing.T) {
	path := writeSchema(t, duplicated)
	cfg := newConfig(t, cli.ModeDedupe)
	cfg.Schema = path
	cfg.NoHistory = true

	_, err := execute(t, cfg)
	require.NoError(t, err)

	_, statErr := os.Stat(cfg.StateDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExecuteHistoryWarning(t *testing.T) {
	// Writable file whose name the history cannot store.
	path := filepath.Join(t.TempDir(), "schema\n.prisma")
	require.NoError(t, os.WriteFile(path, []byte(duplicated), 0o644))
	cfg := newConfig(t, cli.ModeDedupe)
	cfg.Schema = path

	app, err := schemafix.New(cfg, nil)
	require.NoError(t, err)
	summary, err := app.Execute()
	require.NoError(t, err)

	assert.NotEqual(t, duplicated, readSchema(t, path))
	assert.Len(t, summary.Modified, 1)
	require.Len(t, summary.Warnings, 1)
	assert.Contains(t, summary.Warnings[0], "could not record history")
	assert.Contains(t, summary.Message, "Removed duplicate")
}
