// SPDX-License-Identifier: MPL-2.0

package facts

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// ErrExecutor is the sentinel error wrapped by ExecutorError.
var ErrExecutor = errors.New("command executor failed")

type (
	// RunOptions controls how an Executor treats failing commands.
	RunOptions struct {
		// CheckError makes a failing command a hard error. When false the
		// executor returns whatever text the device produced as the output.
		CheckError bool
	}

	// Executor sends CLI commands to a device. Implementations return one
	// output per command in order; a shorter slice is tolerated by callers.
	// A non-nil error means the executor itself failed (transport, auth).
	Executor interface {
		Run(ctx context.Context, commands []string, opts RunOptions) ([]string, error)
	}

	// ExecutorFunc adapts a function to the Executor interface.
	ExecutorFunc func(ctx context.Context, commands []string, opts RunOptions) ([]string, error)

	// CommandOutput pairs a command line with the text it produced.
	CommandOutput struct {
		Command string
		Output  string
	}

	// CommandOutputs is an ordered command -> output record. It marshals to
	// JSON and YAML as a mapping that keeps command list order.
	CommandOutputs []CommandOutput

	// RawOutput groups per-subset records by the subset's display name.
	RawOutput map[string]CommandOutputs

	// CollectorOptions configures a Collector.
	CollectorOptions struct {
		// Logger receives debug output. Nil discards it.
		Logger *log.Logger
		// Parallel gathers subsets concurrently. Subsets write to disjoint
		// keys, so the result is identical to a sequential run; only the
		// order of executor calls differs.
		Parallel bool
	}

	// Collector runs each subset's command list through an Executor.
	Collector struct {
		executor Executor
		logger   *log.Logger
		parallel bool
	}

	// ExecutorError is returned when the executor fails outright while a
	// subset is being gathered. It wraps ErrExecutor and the cause.
	ExecutorError struct {
		Subset SubsetName
		Err    error
	}
)

// Run calls f(ctx, commands, opts).
func (f ExecutorFunc) Run(ctx context.Context, commands []string, opts RunOptions) ([]string, error) {
	return f(ctx, commands, opts)
}

// Error implements the error interface for ExecutorError.
func (e *ExecutorError) Error() string {
	return fmt.Sprintf("gather subset %s: %v", e.Subset, e.Err)
}

// Unwrap returns both ErrExecutor and the underlying cause.
func (e *ExecutorError) Unwrap() []error { return []error{ErrExecutor, e.Err} }

// Get returns the output recorded for command, if any.
func (c CommandOutputs) Get(command string) (string, bool) {
	for _, co := range c {
		if co.Command == command {
			return co.Output, true
		}
	}
	return "", false
}

// Map returns the record as an unordered map.
func (c CommandOutputs) Map() map[string]string {
	m := make(map[string]string, len(c))
	for _, co := range c {
		m[co.Command] = co.Output
	}
	return m
}

// NewCollector creates a Collector that sends commands through executor.
func NewCollector(executor Executor, opts CollectorOptions) *Collector {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Collector{
		executor: executor,
		logger:   logger,
		parallel: opts.Parallel,
	}
}

// Collect gathers every subset in subsets. Any executor failure aborts the
// whole collection and no partial result is returned.
func (c *Collector) Collect(ctx context.Context, subsets Subsets) (RawOutput, error) {
	names := subsets.Sorted()
	records := make([]CommandOutputs, len(names))
	defs := make([]Subset, len(names))

	for i, name := range names {
		def, err := LookupSubset(name)
		if err != nil {
			return nil, err
		}
		defs[i] = def
	}

	if c.parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i := range defs {
			g.Go(func() error {
				rec, err := c.gather(gctx, defs[i])
				if err != nil {
					return err
				}
				records[i] = rec
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range defs {
			rec, err := c.gather(ctx, defs[i])
			if err != nil {
				return nil, err
			}
			records[i] = rec
		}
	}

	out := make(RawOutput, len(defs))
	for i, def := range defs {
		out[def.Display] = records[i]
	}
	return out, nil
}

// gather runs one subset. Outputs are matched to commands by position;
// commands without an output are left out of the record.
func (c *Collector) gather(ctx context.Context, subset Subset) (CommandOutputs, error) {
	lines := subset.Lines()
	c.logger.Debug("gathering subset", "subset", subset.Name, "commands", len(lines))

	responses, err := c.executor.Run(ctx, lines, RunOptions{CheckError: false})
	if err != nil {
		return nil, &ExecutorError{Subset: subset.Name, Err: err}
	}

	if len(responses) != len(lines) {
		c.logger.Warn("executor returned a different number of outputs than commands",
			"subset", subset.Name, "commands", len(lines), "outputs", len(responses))
	}

	record := make(CommandOutputs, 0, len(lines))
	for i, line := range lines {
		if i >= len(responses) {
			break
		}
		record = append(record, CommandOutput{Command: line, Output: responses[i]})
	}
	return record, nil
}
