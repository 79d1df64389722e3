// SPDX-License-Identifier: MPL-2.0

package emulator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"netfacts-cli/internal/facts"
)

func TestDefaultResponses_CoverEveryFactCommand(t *testing.T) {
	t.Parallel()

	d := NewDevice(DefaultResponses(), nil)
	for _, line := range facts.AllCommandLines() {
		out, stderr, code := run(d, &Terminal{}, line)
		if code != 0 {
			t.Errorf("%q exit = %d: %s", line, code, stderr)
			continue
		}
		if strings.TrimSpace(out) == "" {
			t.Errorf("%q produced no output", line)
		}
	}
}

func TestDefaultResponses_AreCopies(t *testing.T) {
	t.Parallel()

	r := DefaultResponses()
	r.Commands["show version"] = "mutated"
	if DefaultResponses().Commands["show version"] == "mutated" {
		t.Error("DefaultResponses() shares its command map")
	}
}

func TestParseResponses(t *testing.T) {
	t.Parallel()

	r, err := ParseResponses([]byte(`
running_config = "hostname from-file\n"

[commands]
"show   version" = "Dummy OS 2.0\n"
"show clock" = "12:00:00 UTC\n"
`))
	if err != nil {
		t.Fatalf("ParseResponses() error: %v", err)
	}
	if r.Commands["show version"] != "Dummy OS 2.0\n" {
		t.Errorf("show version = %q, want override with normalized key", r.Commands["show version"])
	}
	if r.Commands["show clock"] != "12:00:00 UTC\n" {
		t.Errorf("show clock = %q", r.Commands["show clock"])
	}
	if r.Commands["show ip route"] == "" {
		t.Error("defaults not kept for commands missing from the file")
	}
	if r.RunningConfig != "hostname from-file\n" {
		t.Errorf("RunningConfig = %q", r.RunningConfig)
	}
	if r.StartupConfig != defaultRunningConfig {
		t.Errorf("StartupConfig should keep the default")
	}
}

func TestParseResponses_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "unknown key", input: `hostname = "r1"`},
		{name: "bad syntax", input: `[commands`},
		{name: "empty command", input: "[commands]\n\"  \" = \"x\""},
		{name: "wrong type", input: `running_config = 3`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseResponses([]byte(tt.input)); err == nil {
				t.Errorf("ParseResponses(%q) returned nil error", tt.input)
			}
		})
	}
}

func TestLoadResponses(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "responses.toml")
	if err := os.WriteFile(path, []byte("[commands]\n\"show clock\" = \"noon\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := LoadResponses(path)
	if err != nil {
		t.Fatalf("LoadResponses() error: %v", err)
	}
	if r.Commands["show clock"] != "noon" {
		t.Errorf("show clock = %q", r.Commands["show clock"])
	}

	if _, err := LoadResponses(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("LoadResponses(missing) returned nil error")
	}
}
