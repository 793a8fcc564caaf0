package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, data string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write %s: %v", FileName, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.ReferencePath() != filepath.Join("..", "logs", "expected.log") {
		t.Fatalf("ReferencePath() = %q", cfg.ReferencePath())
	}
	if cfg.CandidatePath() != filepath.Join("..", "logs", "cpu.log") {
		t.Fatalf("CandidatePath() = %q", cfg.CandidatePath())
	}
	if cfg.DiagnosticPrefix != "\t" {
		t.Fatalf("DiagnosticPrefix = %q, want tab", cfg.DiagnosticPrefix)
	}
	set, err := cfg.Rules()
	if err != nil {
		t.Fatalf("Rules: %v", err)
	}
	if got := set.Names(); !reflect.DeepEqual(got, []string{"pc", "a", "x", "y", "p", "sp"}) {
		t.Fatalf("default rules = %v", got)
	}
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, `# nestest layout
[logs]
dir = "traces"
reference = "nestest.log"
candidate = "emu.log"
diagnostic_prefix = "#"

[compare]
fields = ["pc", "a", "x", "y", "p", "sp", "cyc", "scanline"]
lenient = true
context = 3

[[field]]
name = "scanline"
label = "SL"
pattern = 'SL:(?P<value>\d+)'
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dir != filepath.Join(root, "traces") {
		t.Fatalf("Dir = %q, want resolved against config dir", cfg.Dir)
	}
	if cfg.Reference != "nestest.log" || cfg.Candidate != "emu.log" {
		t.Fatalf("unexpected file names %q %q", cfg.Reference, cfg.Candidate)
	}
	if cfg.DiagnosticPrefix != "#" || !cfg.Lenient || cfg.Context != 3 {
		t.Fatalf("unexpected compare settings %+v", cfg)
	}
	if cfg.Path != path {
		t.Fatalf("Path = %q, want %q", cfg.Path, path)
	}
	set, err := cfg.Rules()
	if err != nil {
		t.Fatalf("Rules: %v", err)
	}
	rules := set.Rules()
	if len(rules) != 8 || rules[7].Label != "SL" {
		t.Fatalf("unexpected rules %v", set.Names())
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[compare]\nlenient = true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dir != DefaultDir || cfg.Reference != DefaultReference || cfg.DiagnosticPrefix != DefaultDiagnosticPrefix {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadEmptyPrefixDisablesFiltering(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[logs]\ndiagnostic_prefix = \"\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DiagnosticPrefix != "" {
		t.Fatalf("DiagnosticPrefix = %q, want empty", cfg.DiagnosticPrefix)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{"syntax", "[logs\n", "failed to parse TOML"},
		{"unknown key", "[logs]\nfolder = \"x\"\n", "unknown keys: logs.folder"},
		{"negative context", "[compare]\ncontext = -1\n", "context must be >= 0"},
		{"field without pattern", "[[field]]\nname = \"z\"\n", "missing pattern"},
		{"empty reference", "[logs]\nreference = \"\"\n", "reference log name is empty"},
	}
	for _, tc := range cases {
		path := writeConfig(t, t.TempDir(), tc.data)
		_, err := Load(path)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error %q does not contain %q", tc.name, err, tc.want)
		}
	}
}

func TestRulesUnknownField(t *testing.T) {
	cfg := Default()
	cfg.Fields = []string{"pc", "bogus"}
	if _, err := cfg.Rules(); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	want := writeConfig(t, root, "")
	got, ok, err := Find(nested)
	if err != nil || !ok {
		t.Fatalf("Find = (%q, %v, %v)", got, ok, err)
	}
	if got != want {
		t.Fatalf("Find = %q, want %q", got, want)
	}
}
