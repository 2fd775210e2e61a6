package parser

import (
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
)

// ErrNoCodeBlocks is returned when a markdown snippet holds no usable blocks.
var ErrNoCodeBlocks = errors.New("no matching code blocks in markdown snippet")

// DefaultLangs are the block languages taken from a markdown snippet. The
// empty string matches blocks without an info string.
var DefaultLangs = []string{"", "prisma"}

// IsMarkdown reports whether path names a markdown file.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// ExtractSnippet concatenates the contents of the fenced code blocks whose
// language is in langs, in document order. Blocks are separated by a blank
// line and the result ends with one.
func ExtractSnippet(source string, langs []string) (string, error) {
	if len(langs) == 0 {
		langs = DefaultLangs
	}

	blocks, err := ExtractCodeBlocks([]byte(source))
	if err != nil {
		return "", errors.Wrap(err, "parse markdown")
	}

	var b strings.Builder
	for _, block := range blocks {
		if !hasLang(block.Lang, langs) {
			continue
		}
		body := strings.TrimRight(block.Content, "\n")
		if strings.TrimSpace(body) == "" {
			continue
		}
		b.WriteString(body)
		b.WriteString("\n\n")
	}

	if b.Len() == 0 {
		return "", ErrNoCodeBlocks
	}
	return b.String(), nil
}

func hasLang(lang string, langs []string) bool {
	for _, l := range langs {
		if strings.EqualFold(lang, l) {
			return true
		}
	}
	return false
}
