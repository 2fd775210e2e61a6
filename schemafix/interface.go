package schemafix

import (
	"github.com/sokinpui/schemafix.go/internal/fs"
	"github.com/sokinpui/schemafix.go/model"
)

// Dedupe removes everything from the first line containing marker up to the
// second one and overwrites path. It does not touch the history.
func Dedupe(path, marker string) (model.Summary, error) {
	change, details, err := planDedupe(path, marker)
	if err != nil {
		return model.Summary{}, err
	}
	if err := fs.WriteFile(path, change.After); err != nil {
		return model.Summary{}, err
	}
	return model.Summary{
		Action:   model.ActionDedupe,
		Details:  details,
		Modified: []string{path},
	}, nil
}

// Insert splices snippet verbatim before the first occurrence of marker and
// overwrites path. It does not touch the history.
func Insert(path, snippet, marker string) (model.Summary, error) {
	change, details, err := planInsert(path, snippet, marker)
	if err != nil {
		return model.Summary{}, err
	}
	if err := fs.WriteFile(path, change.After); err != nil {
		return model.Summary{}, err
	}
	return model.Summary{
		Action:   model.ActionInsert,
		Details:  details,
		Modified: []string{path},
	}, nil
}
