// SPDX-License-Identifier: MPL-2.0

package emulator

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// InvalidInput is the error banner printed for rejected commands.
const InvalidInput = "% Invalid input detected"

var errUnsupported = errors.New("unsupported syntax")

type (
	// Device is the state shared by every connection: the response table and
	// the running configuration. It is safe for concurrent use.
	Device struct {
		mu        sync.RWMutex
		responses Responses
		edits     []string
		logger    *log.Logger
	}

	// Terminal is per-connection CLI state.
	Terminal struct {
		configMode atomic.Bool
	}
)

// NewDevice creates a device answering from r. A nil logger discards output.
func NewDevice(r Responses, logger *log.Logger) *Device {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Device{responses: r, logger: logger.WithPrefix("device")}
}

// SetResponses swaps the response table. Configuration edits are kept.
func (d *Device) SetResponses(r Responses) {
	d.mu.Lock()
	d.responses = r
	d.mu.Unlock()
}

// RunningConfig returns the base running configuration followed by every
// line applied in configuration mode.
func (d *Device) RunningConfig() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.runningConfigLocked()
}

func (d *Device) runningConfigLocked() string {
	var sb strings.Builder
	sb.WriteString(d.responses.RunningConfig)
	if len(d.edits) > 0 && !strings.HasSuffix(d.responses.RunningConfig, "\n") && d.responses.RunningConfig != "" {
		sb.WriteByte('\n')
	}
	for _, line := range d.edits {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// InConfigMode reports whether the terminal is in configuration mode.
func (t *Terminal) InConfigMode() bool {
	return t.configMode.Load()
}

// Exec runs one command line for term, writing output to stdout and errors
// to stderr, and returns the exit status.
func (d *Device) Exec(term *Terminal, line string, stdout, stderr io.Writer) int {
	line = strings.TrimSpace(line)
	if line == "" {
		return 0
	}

	if term.InConfigMode() {
		switch normalizeCommand(line) {
		case "end", "exit":
			term.configMode.Store(false)
			return 0
		}
		d.mu.Lock()
		d.edits = append(d.edits, line)
		d.mu.Unlock()
		d.logger.Debug("config line applied", "line", line)
		return 0
	}

	stages, err := parsePipeline(line)
	if err != nil {
		d.logger.Debug("rejecting command", "line", line, "err", err)
		return invalid(stderr, line)
	}

	cmd := strings.Join(stages[0], " ")
	switch cmd {
	case "configure terminal", "conf t":
		term.configMode.Store(true)
		return 0
	}

	out, ok := d.lookup(cmd)
	if !ok {
		return invalid(stderr, line)
	}
	for _, stage := range stages[1:] {
		out, err = applyFilter(out, stage)
		if err != nil {
			d.logger.Debug("rejecting filter", "line", line, "err", err)
			return invalid(stderr, line)
		}
	}

	_, _ = io.WriteString(stdout, out)
	return 0
}

func (d *Device) lookup(cmd string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	switch cmd {
	case cmdShowRunning, cmdShowRunningAll:
		return d.runningConfigLocked(), true
	case cmdShowStartup:
		return d.responses.StartupConfig, true
	}
	out, ok := d.responses.Commands[cmd]
	return out, ok
}

func invalid(stderr io.Writer, line string) int {
	_, _ = fmt.Fprintf(stderr, "%s: %s\n", InvalidInput, line)
	return 1
}

// parsePipeline splits a command line into pipeline stages of literal words.
// Only plain words joined by "|" are accepted.
func parsePipeline(line string) ([][]string, error) {
	file, err := syntax.NewParser().Parse(strings.NewReader(line), "")
	if err != nil {
		return nil, err
	}
	if len(file.Stmts) != 1 {
		return nil, fmt.Errorf("%w: %d statements", errUnsupported, len(file.Stmts))
	}
	stmt := file.Stmts[0]
	if stmt.Background || stmt.Negated || len(stmt.Redirs) > 0 {
		return nil, errUnsupported
	}

	var calls []*syntax.CallExpr
	var walk func(cmd syntax.Command) error
	walk = func(cmd syntax.Command) error {
		switch cmd := cmd.(type) {
		case *syntax.CallExpr:
			if len(cmd.Assigns) > 0 || len(cmd.Args) == 0 {
				return errUnsupported
			}
			calls = append(calls, cmd)
			return nil
		case *syntax.BinaryCmd:
			if cmd.Op != syntax.Pipe {
				return fmt.Errorf("%w: operator %s", errUnsupported, cmd.Op)
			}
			if len(cmd.X.Redirs) > 0 || len(cmd.Y.Redirs) > 0 {
				return errUnsupported
			}
			if err := walk(cmd.X.Cmd); err != nil {
				return err
			}
			return walk(cmd.Y.Cmd)
		default:
			return errUnsupported
		}
	}
	if err := walk(stmt.Cmd); err != nil {
		return nil, err
	}

	stages := make([][]string, len(calls))
	for i, call := range calls {
		words := make([]string, len(call.Args))
		for j, w := range call.Args {
			lit, err := expand.Literal(nil, w)
			if err != nil {
				return nil, err
			}
			words[j] = lit
		}
		stages[i] = words
	}
	return stages, nil
}

// applyFilter runs one "| filter pattern" stage over out.
func applyFilter(out string, stage []string) (string, error) {
	if len(stage) < 2 {
		return "", fmt.Errorf("%w: filter without pattern", errUnsupported)
	}
	re, err := regexp.Compile(strings.Join(stage[1:], " "))
	if err != nil {
		return "", err
	}

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	var kept []string
	switch stage[0] {
	case "include", "grep":
		for _, l := range lines {
			if re.MatchString(l) {
				kept = append(kept, l)
			}
		}
	case "exclude":
		for _, l := range lines {
			if !re.MatchString(l) {
				kept = append(kept, l)
			}
		}
	case "begin":
		for i, l := range lines {
			if re.MatchString(l) {
				kept = lines[i:]
				break
			}
		}
	default:
		return "", fmt.Errorf("%w: filter %q", errUnsupported, stage[0])
	}

	if len(kept) == 0 {
		return "", nil
	}
	return strings.Join(kept, "\n") + "\n", nil
}
