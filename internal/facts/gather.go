// SPDX-License-Identifier: MPL-2.0

package facts

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// FactPrefix is prepended to every returned fact key.
const FactPrefix = "ansible_net_"

type (
	// Facts maps prefixed fact keys to values.
	Facts map[string]any

	// Result is what a gather returns to its caller.
	Result struct {
		Facts    Facts    `json:"ansible_facts" yaml:"ansible_facts"`
		Warnings []string `json:"warnings" yaml:"warnings"`
	}

	// GathererOptions configures a Gatherer.
	GathererOptions struct {
		Logger   *log.Logger
		Parallel bool
		// Warnings are passed through to every Result unchanged.
		Warnings []string
	}

	// Gatherer is the invocation surface: it resolves a gather subset list,
	// collects raw output, and returns prefixed facts.
	Gatherer struct {
		collector *Collector
		logger    *log.Logger
		warnings  []string
	}
)

// NewGatherer creates a Gatherer over executor.
func NewGatherer(executor Executor, opts GathererOptions) *Gatherer {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Gatherer{
		collector: NewCollector(executor, CollectorOptions{Logger: logger, Parallel: opts.Parallel}),
		logger:    logger,
		warnings:  opts.Warnings,
	}
}

// Gather runs the subsets selected by gatherSubset. A nil list means
// DefaultGatherSubset. An invalid token fails before any command is sent.
func (g *Gatherer) Gather(ctx context.Context, gatherSubset []string) (*Result, error) {
	if gatherSubset == nil {
		gatherSubset = DefaultGatherSubset
	}

	subsets, err := Resolve(gatherSubset)
	if err != nil {
		return nil, err
	}

	logger := g.logger.With("run", uuid.NewString())
	logger.Info("gathering facts", "subsets", strings.Join(subsets.Strings(), ","))

	raw, err := g.collector.Collect(ctx, subsets)
	if err != nil {
		logger.Error("gather failed", "error", err)
		return nil, err
	}

	facts := Facts{"gather_subset": subsets.Strings()}
	for _, name := range subsets.Sorted() {
		def, _ := LookupSubset(name) // resolved names are always known
		facts[string(name)] = raw[def.Display]
	}

	warnings := make([]string, len(g.warnings))
	copy(warnings, g.warnings)

	return &Result{Facts: facts.Prefixed(), Warnings: warnings}, nil
}

// Prefixed returns a copy of f with FactPrefix added to every key that does
// not already carry it.
func (f Facts) Prefixed() Facts {
	out := make(Facts, len(f))
	for k, v := range f {
		if !strings.HasPrefix(k, FactPrefix) {
			k = FactPrefix + k
		}
		out[k] = v
	}
	return out
}

// Record returns the raw output record stored under a subset's fact key.
func (f Facts) Record(name SubsetName) (CommandOutputs, bool) {
	v, ok := f[FactPrefix+string(name)]
	if !ok {
		return nil, false
	}
	rec, ok := v.(CommandOutputs)
	return rec, ok
}
