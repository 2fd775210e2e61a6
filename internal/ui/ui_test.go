package ui

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/sokinpui/schemafix.go/model"
)

func TestPrintSummary(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	prev := Out
	Out = &buf
	t.Cleanup(func() { Out = prev })

	PrintSummary(model.Summary{
		Action:   model.ActionDedupe,
		Details:  []string{"First occurrence at line 5", "Second occurrence at line 10"},
		Modified: []string{"schema.prisma"},
		Failed:   []string{"other.prisma"},
	})

	assert.Equal(t, "--- dedupe ---\n"+
		"First occurrence at line 5\n"+
		"Second occurrence at line 10\n"+
		"Modified 1 file(s):\n"+
		"  - schema.prisma\n"+
		"Failed to process 1 file(s):\n"+
		"  - other.prisma\n", buf.String())
}

func TestPrintWarnings(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	prev := Status
	Status = &buf
	t.Cleanup(func() { Status = prev })

	PrintWarnings(model.Summary{Warnings: []string{"could not record history: disk full"}})
	PrintWarnings(model.Summary{})

	assert.Equal(t, "Warning: could not record history: disk full\n", buf.String())
}

func TestErrorGoesToStatus(t *testing.T) {
	color.NoColor = true
	var status, out bytes.Buffer
	prevStatus, prevOut := Status, Out
	Status, Out = &status, &out
	t.Cleanup(func() { Status, Out = prevStatus, prevOut })

	Error("Error: %v", "marker not found")

	assert.Equal(t, "Error: marker not found\n", status.String())
	assert.Empty(t, out.String())
}
