// Package splice holds the text operations applied to a schema file. Both work
// on plain strings and know nothing about files or schema syntax.
package splice

import (
	"strings"

	"github.com/go-faster/errors"
)

// ErrMarkerNotFound is returned when the marker text does not occur often
// enough in the input.
var ErrMarkerNotFound = errors.New("marker not found")

// DedupeResult describes a duplicate removal. Indices are 0-based.
type DedupeResult struct {
	Lines []string
	// First and Second are the indices of the two marker lines.
	First  int
	Second int
	// TrimmedEnd is the last non-blank line before Second, never before First.
	// It is reported but the removal always spans First..Second-1.
	TrimmedEnd int
}

// Removed returns the number of lines dropped from the input.
func (r DedupeResult) Removed() int {
	return r.Second - r.First
}

// RemoveDuplicate drops everything from the first line containing marker up
// to, but not including, the second such line. Lines outside that range are
// returned unchanged and in order.
func RemoveDuplicate(lines []string, marker string) (DedupeResult, error) {
	if marker == "" {
		return DedupeResult{}, errors.New("empty marker")
	}

	first, second := -1, -1
	for i, line := range lines {
		if !strings.Contains(line, marker) {
			continue
		}
		if first == -1 {
			first = i
			continue
		}
		second = i
		break
	}

	if second == -1 {
		found := 0
		if first != -1 {
			found = 1
		}
		return DedupeResult{}, errors.Wrapf(ErrMarkerNotFound, "%q: need 2 occurrences, found %d", marker, found)
	}

	end := second - 1
	for end > first && strings.TrimSpace(lines[end]) == "" {
		end--
	}

	out := make([]string, 0, len(lines)-(second-first))
	out = append(out, lines[:first]...)
	out = append(out, lines[second:]...)

	return DedupeResult{
		Lines:      out,
		First:      first,
		Second:     second,
		TrimmedEnd: end,
	}, nil
}

// InsertBefore places snippet immediately before the first occurrence of
// marker in content. It returns the new content and the 1-based line number
// the marker was found on.
func InsertBefore(content, snippet, marker string) (string, int, error) {
	if marker == "" {
		return "", 0, errors.New("empty marker")
	}
	idx := strings.Index(content, marker)
	if idx == -1 {
		return "", 0, errors.Wrapf(ErrMarkerNotFound, "%q", marker)
	}

	var b strings.Builder
	b.Grow(len(content) + len(snippet))
	b.WriteString(content[:idx])
	b.WriteString(snippet)
	b.WriteString(content[idx:])

	line := strings.Count(content[:idx], "\n") + 1
	return b.String(), line, nil
}
