// SPDX-License-Identifier: MPL-2.0

package emulator

import (
	"bytes"
	"strings"
	"testing"
)

func run(d *Device, term *Terminal, line string) (stdout, stderr string, code int) {
	var out, errOut bytes.Buffer
	code = d.Exec(term, line, &out, &errOut)
	return out.String(), errOut.String(), code
}

func TestDevice_Exec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		line     string
		wantCode int
		want     string
		wantErr  string
	}{
		{name: "known command", line: "show version", want: "Dummy OS Software, Version 1.4.2\n"},
		{name: "extra whitespace", line: "  show   ip   route ", want: "Codes: C - connected"},
		{name: "quoted grep", line: `show processes node-id 1 | grep "Mem :"`, want: "Mem : 8123456K total, 2345678K used, 5777778K free\n"},
		{name: "include", line: "show ip interface brief | include eth1", want: "eth1       198.51.100.1"},
		{name: "exclude", line: "show ip interface brief | exclude eth", want: "Interface  IP-Address"},
		{name: "begin", line: "show ip route | begin ^S", want: "S*    0.0.0.0/0"},
		{name: "chained filters", line: "show interface | include Internet | exclude 198", want: "  Internet address is 192.0.2.1/24\n"},
		{name: "filter without match", line: "show version | include nomatch", want: ""},
		{name: "unknown command", line: "show bogus", wantCode: 1, wantErr: InvalidInput},
		{name: "unknown filter", line: "show version | sort", wantCode: 1, wantErr: InvalidInput},
		{name: "filter without pattern", line: "show version | include", wantCode: 1, wantErr: InvalidInput},
		{name: "bad regexp", line: "show version | include (", wantCode: 1, wantErr: InvalidInput},
		{name: "and list", line: "show version && show system", wantCode: 1, wantErr: InvalidInput},
		{name: "redirect", line: "show version > /tmp/x", wantCode: 1, wantErr: InvalidInput},
		{name: "unterminated quote", line: `show "version`, wantCode: 1, wantErr: InvalidInput},
		{name: "empty line", line: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := NewDevice(DefaultResponses(), nil)
			stdout, stderr, code := run(d, &Terminal{}, tt.line)
			if code != tt.wantCode {
				t.Fatalf("Exec(%q) exit = %d, want %d (stderr %q)", tt.line, code, tt.wantCode, stderr)
			}
			if tt.wantErr != "" {
				if !strings.HasPrefix(stderr, tt.wantErr) {
					t.Errorf("stderr = %q, want prefix %q", stderr, tt.wantErr)
				}
				if stdout != "" {
					t.Errorf("stdout = %q, want empty on error", stdout)
				}
				return
			}
			if tt.want == "" && stdout != "" {
				t.Errorf("stdout = %q, want empty", stdout)
			}
			if !strings.Contains(stdout, tt.want) {
				t.Errorf("stdout = %q, want it to contain %q", stdout, tt.want)
			}
		})
	}
}

func TestDevice_ConfigMode(t *testing.T) {
	t.Parallel()

	d := NewDevice(DefaultResponses(), nil)
	term := &Terminal{}

	for _, line := range []string{"configure terminal", "hostname lab-r2", "interface eth2", " description uplink's port", "end"} {
		if _, stderr, code := run(d, term, line); code != 0 {
			t.Fatalf("Exec(%q) exit = %d: %s", line, code, stderr)
		}
	}
	if term.InConfigMode() {
		t.Fatal("terminal still in config mode after end")
	}

	running, _, _ := run(d, term, "show running-config all")
	if !strings.HasSuffix(running, "hostname lab-r2\ninterface eth2\ndescription uplink's port\n") {
		t.Errorf("running-config does not end with the applied lines:\n%s", running)
	}
	if !strings.HasPrefix(running, "hostname dummy-r1\n") {
		t.Errorf("running-config lost its base:\n%s", running)
	}

	startup, _, _ := run(d, term, "show startup-config")
	if strings.Contains(startup, "lab-r2") {
		t.Error("startup-config changed by a running edit")
	}

	// Config lines are not commands outside configuration mode.
	if _, _, code := run(d, term, "hostname lab-r3"); code != 1 {
		t.Errorf("hostname outside config mode exit = %d, want 1", code)
	}
}

func TestDevice_ConfigModeIsPerTerminal(t *testing.T) {
	t.Parallel()

	d := NewDevice(DefaultResponses(), nil)
	a, b := &Terminal{}, &Terminal{}

	run(d, a, "conf t")
	if !a.InConfigMode() || b.InConfigMode() {
		t.Fatalf("config mode leaked: a=%v b=%v", a.InConfigMode(), b.InConfigMode())
	}
	if out, _, code := run(d, b, "show version"); code != 0 || out == "" {
		t.Errorf("second terminal could not run show version: %d %q", code, out)
	}
}

func TestDevice_SetResponsesKeepsEdits(t *testing.T) {
	t.Parallel()

	d := NewDevice(DefaultResponses(), nil)
	term := &Terminal{}
	run(d, term, "configure terminal")
	run(d, term, "ntp server 192.0.2.123")
	run(d, term, "exit")

	r := DefaultResponses()
	r.RunningConfig = "hostname reloaded"
	r.Commands["show version"] = "Dummy OS 9.9\n"
	d.SetResponses(r)

	if out, _, _ := run(d, term, "show version"); out != "Dummy OS 9.9\n" {
		t.Errorf("show version = %q after reload", out)
	}
	if got := d.RunningConfig(); got != "hostname reloaded\nntp server 192.0.2.123\n" {
		t.Errorf("RunningConfig() = %q", got)
	}
}

func TestParsePipeline(t *testing.T) {
	t.Parallel()

	stages, err := parsePipeline(`show processes node-id 1 | grep "Mem :" | exclude 'x y'`)
	if err != nil {
		t.Fatalf("parsePipeline() error: %v", err)
	}
	want := [][]string{
		{"show", "processes", "node-id", "1"},
		{"grep", "Mem :"},
		{"exclude", "x y"},
	}
	if len(stages) != len(want) {
		t.Fatalf("stages = %q, want %q", stages, want)
	}
	for i := range want {
		if strings.Join(stages[i], "\x00") != strings.Join(want[i], "\x00") {
			t.Errorf("stage %d = %q, want %q", i, stages[i], want[i])
		}
	}
}
