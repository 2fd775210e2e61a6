package nvim

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/neovim/go-client/nvim"
)

// Manager handles the connection and interaction with a Neovim instance.
type Manager struct {
	nvim          *nvim.Nvim
	isSelfStarted bool
	cmd           *exec.Cmd
	socketPath    string
}

// New creates a new Neovim manager, connecting to an existing instance
// or starting a new headless one.
func New() (*Manager, error) {
	// Try to connect to a running instance first.
	if addr := os.Getenv("NVIM_LISTEN_ADDRESS"); addr != "" {
		v, err := nvim.Dial(addr)
		if err == nil {
			return &Manager{nvim: v}, nil
		}
	}

	tmpDir, err := os.MkdirTemp("", "schemafix-nvim-")
	if err != nil {
		return nil, errors.Wrap(err, "create temp dir for nvim")
	}
	socketPath := filepath.Join(tmpDir, "nvim.sock")

	cmd := exec.Command("nvim", "--headless", "--clean", "--listen", socketPath)
	if err := cmd.Start(); err != nil {
		os.RemoveAll(tmpDir)
		return nil, errors.Wrap(err, "start headless nvim (is 'nvim' in your PATH?)")
	}

	// Wait for the socket file to appear.
	for i := 0; i < 20; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	v, err := nvim.Dial(socketPath)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		os.RemoveAll(tmpDir)
		return nil, errors.Wrap(err, "connect to headless nvim")
	}

	m := &Manager{
		nvim:          v,
		isSelfStarted: true,
		cmd:           cmd,
		socketPath:    socketPath,
	}
	if err := m.nvim.Command("set noswapfile"); err != nil {
		m.Close()
		return nil, errors.Wrap(err, "configure headless nvim")
	}
	return m, nil
}

// Close disconnects from Neovim and cleans up if it was self-started.
func (m *Manager) Close() {
	if m.nvim != nil {
		m.nvim.Close()
	}
	if m.isSelfStarted && m.cmd != nil && m.cmd.Process != nil {
		if err := m.cmd.Process.Kill(); err == nil {
			m.cmd.Wait()
			os.RemoveAll(filepath.Dir(m.socketPath))
		}
	}
}

// WriteFile replaces the buffer for path with content and writes it, so any
// window showing the file sees the new text. The bytes on disk equal content.
func (m *Manager) WriteFile(path, content string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", path)
	}

	lines, eol := bufferLines(content)
	cmds := writeCommands(eol)

	b := m.nvim.NewBatch()
	b.Command(fmt.Sprintf("edit! %s", escapePath(absPath)))
	b.SetBufferLines(0, 0, -1, true, lines)
	for _, cmd := range cmds {
		b.Command(cmd)
	}
	if err := b.Execute(); err != nil {
		return errors.Wrapf(err, "write %s through nvim", path)
	}
	return nil
}

// writeCommands returns the buffer options and write command that keep the
// buffer bytes as they are. Line endings live in the lines themselves, so
// the buffer is always written with unix line breaks.
func writeCommands(eol bool) []string {
	eolOpt := "endofline"
	if !eol {
		eolOpt = "noendofline"
	}
	return []string{
		"setlocal fileformat=unix nofixendofline nobomb " + eolOpt,
		"write",
	}
}

// bufferLines converts content into buffer lines split on "\n" and reports
// whether the last line was terminated. A "\r" before a line break stays
// part of the line.
func bufferLines(content string) ([][]byte, bool) {
	eol := strings.HasSuffix(content, "\n")
	content = strings.TrimSuffix(content, "\n")

	parts := strings.Split(content, "\n")
	lines := make([][]byte, len(parts))
	for i, p := range parts {
		lines[i] = []byte(p)
	}
	return lines, eol
}

func escapePath(path string) string {
	return strings.NewReplacer(" ", `\ `, "%", `\%`, "#", `\#`).Replace(path)
}
