package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/go-faster/errors"
	"github.com/spf13/pflag"

	"github.com/sokinpui/schemafix.go/internal/config"
)

// Modes of operation. Exactly one is selected per run.
const (
	ModeDedupe = "dedupe"
	ModeInsert = "insert"
	ModeUndo   = "undo"
	ModeRedo   = "redo"
)

// Config holds all the command-line flag values.
type Config struct {
	Dedupe bool
	Insert bool
	Undo   bool
	Redo   bool

	Schema       string
	Snippet      string
	Marker       string
	InsertMarker string
	Markdown     bool
	Langs        []string
	LookupDirs   []string
	StateDir     string

	Preview     bool
	Nvim        bool
	NoHistory   bool
	NoAnimation bool
	Verbose     bool
	ConfigFile  string
}

// Mode returns the selected operation.
func (c *Config) Mode() string {
	switch {
	case c.Dedupe:
		return ModeDedupe
	case c.Insert:
		return ModeInsert
	case c.Undo:
		return ModeUndo
	case c.Redo:
		return ModeRedo
	}
	return ""
}

// Validate checks flag combinations.
func (c *Config) Validate() error {
	n := 0
	for _, set := range []bool{c.Dedupe, c.Insert, c.Undo, c.Redo} {
		if set {
			n++
		}
	}
	if n != 1 {
		return errors.New("exactly one of --dedupe, --insert, --undo or --redo is required")
	}
	if c.Preview && (c.Undo || c.Redo) {
		return errors.New("--preview cannot be combined with --undo or --redo")
	}
	if c.Schema == "" && (c.Dedupe || c.Insert) {
		return errors.New("schema path is empty")
	}
	if c.Dedupe && c.Marker == "" {
		return errors.New("--marker must not be empty")
	}
	if c.Insert && c.InsertMarker == "" {
		return errors.New("--insert-marker must not be empty")
	}
	return nil
}

// ParseFlags defines and parses command-line flags using pflag. Flags that
// are not given on the command line take their value from the config file
// and environment.
func ParseFlags(args []string) (*Config, error) {
	return parse(args, os.Stderr)
}

func parse(args []string, output io.Writer) (*Config, error) {
	cfg := &Config{}
	def := config.Default()

	fs := pflag.NewFlagSet("schemafix", pflag.ContinueOnError)
	fs.SetOutput(output)

	// Mutually exclusive mode group
	fs.BoolVarP(&cfg.Dedupe, "dedupe", "d", false, "Remove the duplicated block between the first two marker lines.")
	fs.BoolVarP(&cfg.Insert, "insert", "i", false, "Insert the snippet before the insert marker.")
	fs.BoolVarP(&cfg.Undo, "undo", "u", false, "Undo the last operation.")
	fs.BoolVarP(&cfg.Redo, "redo", "r", false, "Redo the last undone operation.")

	fs.StringVarP(&cfg.Schema, "schema", "f", def.Schema, "Schema file to edit in place.")
	fs.StringVarP(&cfg.Snippet, "snippet", "s", def.Snippet, "Snippet to insert. Use '-' for stdin or '' for the clipboard.")
	fs.StringVarP(&cfg.Marker, "marker", "m", def.Marker, "Marker line of the duplicated block.")
	fs.StringVarP(&cfg.InsertMarker, "insert-marker", "M", def.InsertMarker, "Marker the snippet is inserted before.")
	fs.BoolVar(&cfg.Markdown, "markdown", false, "Treat the snippet as markdown and take its code blocks (implied for .md files).")
	fs.StringSliceVar(&cfg.Langs, "lang", def.Langs, "Code block languages taken from markdown snippets (default: none and 'prisma').")
	fs.StringSliceVarP(&cfg.LookupDirs, "lookup-dir", "l", def.LookupDirs, "Directories relative paths are resolved against (default: current directory).")
	fs.StringVar(&cfg.StateDir, "state-dir", def.StateDir, "History directory (default: .schemafix at the git root).")

	fs.BoolVarP(&cfg.Preview, "preview", "p", false, "Print a unified diff instead of writing the file.")
	fs.BoolVarP(&cfg.Nvim, "nvim", "n", false, "Write through Neovim so open buffers are updated.")
	fs.BoolVar(&cfg.NoHistory, "no-history", false, "Do not record the operation for undo.")
	fs.BoolVar(&cfg.NoAnimation, "no-animation", false, "Disable the spinner and print plain output.")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log diagnostic output to stderr.")
	fs.StringVarP(&cfg.ConfigFile, "config", "c", "", "Config file (default: schemafix.yaml or .schemafix.yaml if present).")

	fs.Usage = func() {
		fmt.Fprintln(output, "Usage: schemafix (--dedupe | --insert | --undo | --redo) [flags]")
		fmt.Fprintln(output, "\nApply one-off edits to a schema file.")
		fmt.Fprintln(output, "\nExample: schemafix -i -s new-models.prisma -f prisma/schema.prisma")
		fmt.Fprintln(output, "\nFlags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fileCfg, err := config.Load(cfg.ConfigFile)
	if err != nil {
		return nil, err
	}
	mergeUnchanged(fs, cfg, fileCfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeUnchanged copies file and environment values into flags the user did
// not set explicitly.
func mergeUnchanged(fs *pflag.FlagSet, cfg *Config, fileCfg *config.Config) {
	if !fs.Changed("schema") {
		cfg.Schema = fileCfg.Schema
	}
	if !fs.Changed("snippet") {
		cfg.Snippet = fileCfg.Snippet
	}
	if !fs.Changed("marker") {
		cfg.Marker = fileCfg.Marker
	}
	if !fs.Changed("insert-marker") {
		cfg.InsertMarker = fileCfg.InsertMarker
	}
	if !fs.Changed("lang") {
		cfg.Langs = fileCfg.Langs
	}
	if !fs.Changed("lookup-dir") {
		cfg.LookupDirs = fileCfg.LookupDirs
	}
	if !fs.Changed("state-dir") {
		cfg.StateDir = fileCfg.StateDir
	}
}
