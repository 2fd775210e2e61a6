package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir runs the test from an empty directory so no stray config file is
// picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(wd))
	})
	return dir
}

func TestParseDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := parse([]string{"--dedupe"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, ModeDedupe, cfg.Mode())
	assert.Equal(t, "apps/api/prisma/schema.prisma", cfg.Schema)
	assert.Equal(t, "model ModerationLog {", cfg.Marker)
	assert.Equal(t, "enum BuddyGroupType", cfg.InsertMarker)
}

func TestParseFlagsOverrideConfigFile(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schema: file.prisma\nsnippet: file-snippet.prisma\n"), 0o644))

	cfg, err := parse([]string{"-i", "-c", path, "-f", "flag.prisma"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, ModeInsert, cfg.Mode())
	assert.Equal(t, "flag.prisma", cfg.Schema)
	assert.Equal(t, "file-snippet.prisma", cfg.Snippet)
}

func TestParseDefaultConfigFile(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schemafix.yaml"), []byte("marker: model Report {\n"), 0o644))

	cfg, err := parse([]string{"-d"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "model Report {", cfg.Marker)
}

func TestParseValidation(t *testing.T) {
	inTempDir(t)

	for name, args := range map[string][]string{
		"no mode":          {},
		"two modes":        {"--undo", "--redo"},
		"preview undo":     {"--undo", "--preview"},
		"empty marker":     {"--dedupe", "--marker", ""},
		"empty ins marker": {"--insert", "-M", ""},
		"unknown flag":     {"--dedupe", "--bogus"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parse(args, io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestParseEmptySnippetMeansClipboard(t *testing.T) {
	inTempDir(t)

	cfg, err := parse([]string{"--insert", "--snippet="}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Snippet)
}
