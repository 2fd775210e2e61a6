package state

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/sokinpui/schemafix.go/internal/fs"
	"github.com/sokinpui/schemafix.go/model"
)

const (
	stateDirName  = ".schemafix"
	stateFileName = "state"
	objectsDir    = "objects"
)

// Operation represents a single rewrite of one file.
type Operation struct {
	Action     string
	Path       string
	BeforeHash string
	AfterHash  string
}

// HistoryEntry represents one complete run of the tool.
type HistoryEntry struct {
	Timestamp  int64
	Operations []Operation
}

// State represents the entire state file.
type State struct {
	History      []HistoryEntry
	CurrentIndex int
}

// Writer persists new file content, e.g. fs.WriteFile.
type Writer func(path, content string) error

// Manager handles the lifecycle of the state file and its object store.
type Manager struct {
	statePath string
	state     *State
	objects   *fs.ObjectStore
	StateDir  string
}

// findGitRoot finds the root of the git repository.
func findGitRoot() (string, error) {
	output, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// DefaultDir returns the state directory at the git root, or under the
// working directory outside a repository.
func DefaultDir() (string, error) {
	rootDir, err := findGitRoot()
	if err != nil {
		rootDir, err = os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "get working directory")
		}
	}
	return filepath.Join(rootDir, stateDirName), nil
}

// New creates and loads a state manager rooted at stateDir.
func New(stateDir string) (*Manager, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create state directory")
	}
	objects, err := fs.NewObjectStore(filepath.Join(stateDir, objectsDir))
	if err != nil {
		return nil, err
	}

	m := &Manager{
		statePath: filepath.Join(stateDir, stateFileName),
		objects:   objects,
		StateDir:  stateDir,
	}
	if err := m.load(); err != nil {
		return nil, errors.Wrapf(err, "load %s", m.statePath)
	}
	return m, nil
}

func emptyState() *State {
	return &State{CurrentIndex: -1, History: []HistoryEntry{}}
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = emptyState()
			return nil
		}
		return err
	}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	blocks := strings.Split(content, "\n\n")
	if strings.TrimSpace(blocks[0]) == "" {
		m.state = emptyState()
		return nil
	}

	// First block is the current index.
	index, err := strconv.Atoi(strings.TrimSpace(blocks[0]))
	if err != nil {
		return errors.Wrap(err, "invalid state file: parse current index")
	}

	st := &State{CurrentIndex: index, History: []HistoryEntry{}}
	for _, block := range blocks[1:] {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")

		ts, err := strconv.ParseInt(lines[0], 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid state file: parse timestamp %q", lines[0])
		}

		entry := HistoryEntry{Timestamp: ts}
		opLines := lines[1:]
		if len(opLines)%4 != 0 {
			return errors.New("invalid state file: incomplete operation record")
		}
		for i := 0; i < len(opLines); i += 4 {
			entry.Operations = append(entry.Operations, Operation{
				Action:     opLines[i],
				Path:       opLines[i+1],
				BeforeHash: opLines[i+2],
				AfterHash:  opLines[i+3],
			})
		}
		st.History = append(st.History, entry)
	}

	if st.CurrentIndex < -1 || st.CurrentIndex >= len(st.History) {
		return errors.Errorf("invalid state file: index %d out of range", st.CurrentIndex)
	}
	m.state = st
	return nil
}

func (m *Manager) save() error {
	blocks := []string{strconv.Itoa(m.state.CurrentIndex)}

	for _, entry := range m.state.History {
		lines := []string{strconv.FormatInt(entry.Timestamp, 10)}
		for _, op := range entry.Operations {
			lines = append(lines, op.Action, op.Path, op.BeforeHash, op.AfterHash)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}

	content := strings.Join(blocks, "\n\n") + "\n"
	if err := os.WriteFile(m.statePath, []byte(content), 0o644); err != nil {
		return errors.Wrap(err, "write state file")
	}
	return nil
}

// ErrUnrecordablePath is returned by Record for paths the line-based state
// file cannot hold.
var ErrUnrecordablePath = errors.New("path contains a line break")

// Record stores both versions of the changed file and appends a history
// entry, discarding anything that could still have been redone.
func (m *Manager) Record(changes ...model.Change) error {
	for _, c := range changes {
		if strings.ContainsAny(c.Path, "\r\n") {
			return errors.Wrapf(ErrUnrecordablePath, "record %q", c.Path)
		}
	}

	ops := make([]Operation, 0, len(changes))
	for _, c := range changes {
		before, err := m.objects.Put(c.Before)
		if err != nil {
			return err
		}
		after, err := m.objects.Put(c.After)
		if err != nil {
			return err
		}
		abs, err := filepath.Abs(c.Path)
		if err != nil {
			return errors.Wrapf(err, "resolve %s", c.Path)
		}
		ops = append(ops, Operation{
			Action:     c.Action,
			Path:       abs,
			BeforeHash: before,
			AfterHash:  after,
		})
	}

	if m.state.CurrentIndex < len(m.state.History)-1 {
		m.state.History = m.state.History[:m.state.CurrentIndex+1]
	}
	m.state.History = append(m.state.History, HistoryEntry{
		Timestamp:  time.Now().UTC().Unix(),
		Operations: ops,
	})
	m.state.CurrentIndex++
	return m.save()
}

// Undo restores the files of the current entry to their content before the
// operation. The history pointer moves back only when every file was
// restored. ok is false when there is nothing to undo.
func (m *Manager) Undo(write Writer) (restored, failed []string, ok bool, err error) {
	if m.state.CurrentIndex < 0 {
		return nil, nil, false, nil
	}
	entry := m.state.History[m.state.CurrentIndex]
	restored, failed = m.restore(entry.Operations, write, true)
	if len(failed) > 0 {
		return restored, failed, true, nil
	}

	m.state.CurrentIndex--
	return restored, failed, true, m.save()
}

// Redo reapplies the next entry. Like Undo, the pointer only moves forward
// when every file was rewritten. ok is false when there is nothing to redo.
func (m *Manager) Redo(write Writer) (restored, failed []string, ok bool, err error) {
	next := m.state.CurrentIndex + 1
	if next >= len(m.state.History) {
		return nil, nil, false, nil
	}
	entry := m.state.History[next]
	restored, failed = m.restore(entry.Operations, write, false)
	if len(failed) > 0 {
		return restored, failed, true, nil
	}

	m.state.CurrentIndex = next
	return restored, failed, true, m.save()
}

func (m *Manager) restore(ops []Operation, write Writer, undo bool) (restored, failed []string) {
	for _, op := range ops {
		expect, target := op.AfterHash, op.BeforeHash
		if !undo {
			expect, target = op.BeforeHash, op.AfterHash
		}

		// Refuse to touch a file that changed since the operation.
		current, err := fs.FileSHA256(op.Path)
		if err != nil || current != expect {
			failed = append(failed, op.Path)
			continue
		}
		content, err := m.objects.Get(target)
		if err != nil {
			failed = append(failed, op.Path)
			continue
		}
		if err := write(op.Path, content); err != nil {
			failed = append(failed, op.Path)
			continue
		}
		restored = append(restored, op.Path)
	}
	return restored, failed
}
