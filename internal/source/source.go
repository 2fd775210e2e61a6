package source

import (
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/go-faster/errors"
)

// StdinPath selects standard input as the snippet source.
const StdinPath = "-"

// ErrEmptySnippet is returned when the selected source holds only whitespace.
var ErrEmptySnippet = errors.New("snippet is empty")

// SnippetProvider retrieves the snippet text to splice into the schema.
type SnippetProvider struct {
	stdin     io.Reader
	clipboard func() (string, error)
}

// New creates a SnippetProvider reading os.Stdin and the system clipboard.
func New() *SnippetProvider {
	return &SnippetProvider{
		stdin:     os.Stdin,
		clipboard: clipboard.ReadAll,
	}
}

// Get reads the snippet from path, from stdin when path is "-", or from the
// clipboard when path is empty.
func (sp *SnippetProvider) Get(path string) (string, error) {
	var (
		content string
		origin  = path
	)

	switch path {
	case StdinPath:
		origin = "stdin"
		data, err := io.ReadAll(sp.stdin)
		if err != nil {
			return "", errors.Wrap(err, "read snippet from stdin")
		}
		content = string(data)
	case "":
		origin = "clipboard"
		data, err := sp.clipboard()
		if err != nil {
			return "", errors.Wrap(err, "read snippet from clipboard")
		}
		content = data
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", errors.Wrapf(err, "read snippet %s", path)
		}
		content = string(data)
	}

	if strings.TrimSpace(content) == "" {
		return "", errors.Wrapf(ErrEmptySnippet, "%s", origin)
	}
	return content, nil
}
