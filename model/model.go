package model

// Action names recorded in summaries and history.
const (
	ActionDedupe = "dedupe"
	ActionInsert = "insert"
)

// Change represents a single planned rewrite of a file.
type Change struct {
	Path   string
	Action string
	Before string
	After  string
}

// Summary holds the results of an operation for display.
type Summary struct {
	Action   string
	Details  []string // Diagnostic lines, e.g. marker line numbers.
	Modified []string
	Failed   []string
	Warnings []string // Problems that did not stop the operation.
	Message  string
}
