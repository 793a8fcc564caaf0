// Package config holds the settings of one comparison run.
//
// A Config starts from Default, is optionally overlaid by a logcompare.toml
// file, and is finally adjusted by CLI flags and the positional log directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"logcompare/internal/field"
)

// FileName is the configuration file looked up by Find.
const FileName = "logcompare.toml"

// Defaults carried over from the original log layout.
const (
	DefaultReference        = "expected.log"
	DefaultCandidate        = "cpu.log"
	DefaultDiagnosticPrefix = "\t"
)

// DefaultDir is the log directory used without a positional argument.
var DefaultDir = filepath.Join("..", "logs")

// Config describes where the two logs live and how they are compared.
type Config struct {
	Dir              string      // directory holding both logs
	Reference        string      // trusted log file name
	Candidate        string      // log produced by the system under test
	DiagnosticPrefix string      // candidate lines with this prefix are skipped; "" disables
	Fields           []string    // rule names in comparison order
	Custom           []FieldSpec // user-defined rules
	Lenient          bool        // record malformed lines instead of aborting
	Context          int         // matched line pairs kept for reports

	// Path is the file the config was loaded from, empty for defaults.
	Path string
}

// FieldSpec is a user-defined extraction rule.
type FieldSpec struct {
	Name    string `toml:"name"`
	Label   string `toml:"label"`
	Pattern string `toml:"pattern"`
}

type fileConfig struct {
	Logs struct {
		Dir              string `toml:"dir"`
		Reference        string `toml:"reference"`
		Candidate        string `toml:"candidate"`
		DiagnosticPrefix string `toml:"diagnostic_prefix"`
	} `toml:"logs"`
	Compare struct {
		Fields  []string `toml:"fields"`
		Lenient bool     `toml:"lenient"`
		Context int      `toml:"context"`
	} `toml:"compare"`
	Field []FieldSpec `toml:"field"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Dir:              DefaultDir,
		Reference:        DefaultReference,
		Candidate:        DefaultCandidate,
		DiagnosticPrefix: DefaultDiagnosticPrefix,
		Fields:           append([]string(nil), field.DefaultNames...),
	}
}

// Load decodes path on top of Default. A relative [logs].dir is resolved
// against the directory containing the file.
func Load(path string) (Config, error) {
	cfg := Default()
	var fc fileConfig
	meta, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if meta.IsDefined("logs", "dir") {
		cfg.Dir = fc.Logs.Dir
		if cfg.Dir != "" && !filepath.IsAbs(cfg.Dir) {
			cfg.Dir = filepath.Join(filepath.Dir(path), cfg.Dir)
		}
	}
	if meta.IsDefined("logs", "reference") {
		cfg.Reference = fc.Logs.Reference
	}
	if meta.IsDefined("logs", "candidate") {
		cfg.Candidate = fc.Logs.Candidate
	}
	if meta.IsDefined("logs", "diagnostic_prefix") {
		cfg.DiagnosticPrefix = fc.Logs.DiagnosticPrefix
	}
	if meta.IsDefined("compare", "fields") {
		cfg.Fields = fc.Compare.Fields
	}
	if meta.IsDefined("compare", "lenient") {
		cfg.Lenient = fc.Compare.Lenient
	}
	if meta.IsDefined("compare", "context") {
		cfg.Context = fc.Compare.Context
	}
	cfg.Custom = fc.Field
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Find walks from startDir towards the filesystem root looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Validate reports settings that cannot produce a run.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Reference) == "" {
		return fmt.Errorf("reference log name is empty")
	}
	if strings.TrimSpace(c.Candidate) == "" {
		return fmt.Errorf("candidate log name is empty")
	}
	if c.Context < 0 {
		return fmt.Errorf("context must be >= 0, got %d", c.Context)
	}
	for i, f := range c.Custom {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("[[field]] #%d: missing name", i+1)
		}
		if f.Pattern == "" {
			return fmt.Errorf("[[field]] %q: missing pattern", f.Name)
		}
	}
	return nil
}

// ReferencePath joins Dir and Reference.
func (c Config) ReferencePath() string { return filepath.Join(c.Dir, c.Reference) }

// CandidatePath joins Dir and Candidate.
func (c Config) CandidatePath() string { return filepath.Join(c.Dir, c.Candidate) }

// Rules compiles the ordered rule set.
func (c Config) Rules() (*field.Set, error) {
	custom := make([]field.Rule, 0, len(c.Custom))
	for _, spec := range c.Custom {
		r, err := field.NewRule(strings.ToLower(spec.Name), spec.Label, spec.Pattern)
		if err != nil {
			return nil, err
		}
		custom = append(custom, r)
	}
	names := c.Fields
	if len(names) == 0 {
		names = field.DefaultNames
	}
	return field.Select(names, custom)
}
