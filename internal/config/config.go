package config

import (
	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// EnvPrefix is the prefix of environment variables overriding file values,
// e.g. SCHEMAFIX_SCHEMA.
const EnvPrefix = "SCHEMAFIX"

// DefaultFiles are looked up in order when no config file is given.
var DefaultFiles = []string{"schemafix.yaml", ".schemafix.yaml"}

// Config holds the defaults for command-line flags, loadable from a YAML
// file and SCHEMAFIX_-prefixed environment variables.
type Config struct {
	Schema       string   `default:"apps/api/prisma/schema.prisma" usage:"Schema file to edit" yaml:"schema"`
	Snippet      string   `default:"apps/api/prisma/new-models.prisma" usage:"Snippet file to insert" yaml:"snippet"`
	Marker       string   `default:"model ModerationLog {" usage:"Marker of the duplicated block" yaml:"marker"`
	InsertMarker string   `default:"enum BuddyGroupType" usage:"Marker to insert the snippet before" yaml:"insert_marker"`
	Langs        []string `usage:"Code block languages taken from markdown snippets" yaml:"langs"`
	LookupDirs   []string `usage:"Directories relative paths are resolved against" yaml:"lookup_dirs"`
	StateDir     string   `usage:"History directory (default .schemafix at the git root)" yaml:"state_dir"`
}

// Default returns the built-in defaults, ignoring files and environment.
func Default() Config {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFiles: true,
		SkipEnv:   true,
		SkipFlags: true,
	})
	// Defaults are static struct tags; a failure here is a programming error.
	if err := loader.Load(); err != nil {
		panic(err)
	}
	return cfg
}

// Load reads defaults, then the config file, then the environment. An
// explicit path must exist; the default files are optional.
func Load(path string) (*Config, error) {
	files := DefaultFiles
	if path != "" {
		files = []string{path}
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags:          true,
		EnvPrefix:          EnvPrefix,
		Files:              files,
		FailOnFileNotFound: path != "",
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
			".yml":  aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	return &cfg, nil
}
