// SPDX-License-Identifier: MPL-2.0

// Package facts gathers raw CLI output from a dummy network operating system
// and reports it as ansible_net_* facts.
//
// A gather runs in three steps. Resolve turns the caller's gather subset list
// (names, "all", and their "!" negations) into the set of subsets to run.
// Collector.Collect sends each subset's fixed command list through an Executor
// and zips the commands with the returned outputs. Gatherer.Gather wraps both
// and prefixes the resulting keys with "ansible_net_".
//
// Device output is never parsed; every value is the opaque text the device
// returned, including error text the executor reported as data.
package facts
