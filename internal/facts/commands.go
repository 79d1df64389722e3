// SPDX-License-Identifier: MPL-2.0

package facts

import "slices"

type (
	// Command is one literal CLI command sent to the device.
	Command struct {
		// Key is a short identifier for the command (e.g., "version").
		Key string
		// Line is the exact text sent to the device.
		Line string
	}

	// Subset describes what a subset runs and how its output is grouped.
	Subset struct {
		Name SubsetName
		// Display is the grouping key used in raw output records.
		Display  string
		commands []Command
	}
)

// Commands returns a copy of the subset's command list in declaration order.
func (s Subset) Commands() []Command {
	return slices.Clone(s.commands)
}

// Lines returns the command lines in declaration order.
func (s Subset) Lines() []string {
	lines := make([]string, len(s.commands))
	for i, c := range s.commands {
		lines[i] = c.Line
	}
	return lines
}

var subsetTable = map[SubsetName]Subset{
	SubsetDefault: {
		Name:    SubsetDefault,
		Display: "Default",
		commands: []Command{
			{Key: "version", Line: "show version"},
			{Key: "system", Line: "show system"},
		},
	},
	SubsetHardware: {
		Name:    SubsetHardware,
		Display: "Hardware",
		commands: []Command{
			{Key: "version", Line: "show version"},
			{Key: "memory", Line: `show processes node-id 1 | grep "Mem :"`},
		},
	},
	SubsetInterfaces: {
		Name:    SubsetInterfaces,
		Display: "Interfaces",
		commands: []Command{
			{Key: "interfaces", Line: "show interface"},
			{Key: "interfaces-brief", Line: "show ip interface brief"},
			{Key: "interfaces-ipv6", Line: "show ipv6 interface brief"},
			{Key: "lldp-neighbors", Line: "show lldp neighbors detail"},
		},
	},
	SubsetRouting: {
		Name:    SubsetRouting,
		Display: "Routing",
		commands: []Command{
			{Key: "ip-route", Line: "show ip route"},
			{Key: "ipv6-route", Line: "show ipv6 route"},
		},
	},
	SubsetConfig: {
		Name:    SubsetConfig,
		Display: "Config",
		commands: []Command{
			{Key: "running-config", Line: "show running-config"},
		},
	},
}

// LookupSubset returns the definition of a subset.
func LookupSubset(name SubsetName) (Subset, error) {
	s, ok := subsetTable[name]
	if !ok {
		return Subset{}, &InvalidSubsetError{Token: string(name)}
	}
	return s, nil
}

// AllCommandLines returns every distinct command line known to any subset,
// in SubsetNames order.
func AllCommandLines() []string {
	var lines []string
	for _, name := range SubsetNames() {
		for _, line := range subsetTable[name].Lines() {
			if !slices.Contains(lines, line) {
				lines = append(lines, line)
			}
		}
	}
	return lines
}
