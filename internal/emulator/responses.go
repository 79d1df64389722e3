// SPDX-License-Identifier: MPL-2.0

package emulator

import (
	"bytes"
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	// cmdShowRunning and cmdShowRunningAll both print the running configuration.
	cmdShowRunning    = "show running-config"
	cmdShowRunningAll = "show running-config all"
	cmdShowStartup    = "show startup-config"
)

// Responses is the canned output a device answers with. It is the shape of
// a responses file:
//
//	running_config = """
//	hostname lab-r1
//	"""
//
//	[commands]
//	"show version" = "Dummy OS 2.0"
type Responses struct {
	// Commands maps a command (words separated by single spaces) to its output.
	Commands map[string]string `toml:"commands"`
	// RunningConfig is the initial running configuration.
	RunningConfig string `toml:"running_config"`
	// StartupConfig is returned by "show startup-config".
	StartupConfig string `toml:"startup_config"`
}

// DefaultResponses returns the built-in dummy OS outputs.
func DefaultResponses() Responses {
	return Responses{
		Commands:      maps.Clone(defaultCommands),
		RunningConfig: defaultRunningConfig,
		StartupConfig: defaultRunningConfig,
	}
}

// LoadResponses reads a TOML responses file and layers it over the defaults.
func LoadResponses(path string) (Responses, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Responses{}, fmt.Errorf("read responses file: %w", err)
	}
	return ParseResponses(data)
}

// ParseResponses decodes TOML responses and layers them over the defaults.
// Unknown keys are rejected so typos surface instead of silently doing nothing.
func ParseResponses(data []byte) (Responses, error) {
	var file Responses
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return Responses{}, fmt.Errorf("parse responses: %w", err)
	}

	r := DefaultResponses()
	for cmd, out := range file.Commands {
		key := normalizeCommand(cmd)
		if key == "" {
			return Responses{}, fmt.Errorf("parse responses: empty command name")
		}
		r.Commands[key] = out
	}
	if file.RunningConfig != "" {
		r.RunningConfig = file.RunningConfig
	}
	if file.StartupConfig != "" {
		r.StartupConfig = file.StartupConfig
	}
	return r, nil
}

// normalizeCommand collapses runs of whitespace so "show  ip route" and
// "show ip route" are the same command.
func normalizeCommand(cmd string) string {
	return strings.Join(strings.Fields(cmd), " ")
}

const defaultRunningConfig = `hostname dummy-r1
!
interface eth0
 ip address 192.0.2.1 255.255.255.0
 ipv6 address 2001:db8::1/64
!
interface eth1
 ip address 198.51.100.1 255.255.255.0
 shutdown
!
ip route 0.0.0.0 0.0.0.0 192.0.2.254
!
lldp run
`

var defaultCommands = map[string]string{
	"show version": `Dummy OS Software, Version 1.4.2
Copyright (c) 2024 Dummy Networks
Uptime is 12 days, 4 hours, 31 minutes
Model: DUMMY-ROUTER-1000
Serial Number: DMY1234X0001
`,
	"show system": `System name: dummy-r1
System MAC: 52:54:00:12:34:56
Location: lab
Contact: noc@example.net
`,
	"show processes node-id 1": `Node: 1
CPU utilization for five seconds: 3%; one minute: 2%; five minutes: 2%
Mem : 8123456K total, 2345678K used, 5777778K free
 PID  NAME
   1  init
 212  routed
 340  lldpd
`,
	"show interface": `eth0 is up, line protocol is up
  Hardware is Ethernet, address is 5254.0012.3456
  Internet address is 192.0.2.1/24
  MTU 1500 bytes, BW 1000000 Kbit
eth1 is administratively down, line protocol is down
  Hardware is Ethernet, address is 5254.0012.3457
  Internet address is 198.51.100.1/24
  MTU 1500 bytes, BW 1000000 Kbit
`,
	"show ip interface brief": `Interface  IP-Address     OK? Method Status                Protocol
eth0       192.0.2.1      YES manual up                    up
eth1       198.51.100.1   YES manual administratively down down
`,
	"show ipv6 interface brief": `eth0   [up/up]
    FE80::5054:FF:FE12:3456
    2001:DB8::1
eth1   [administratively down/down]
    unassigned
`,
	"show lldp neighbors detail": `Local Intf: eth0
Chassis id: 5254.00ab.cdef
Port id: ge-0/0/1
System Name: dummy-sw1
System Description: Dummy Switch OS 3.1

Total entries displayed: 1
`,
	"show ip route": `Codes: C - connected, S - static

Gateway of last resort is 192.0.2.254 to network 0.0.0.0

S*    0.0.0.0/0 [1/0] via 192.0.2.254
C     192.0.2.0/24 is directly connected, eth0
`,
	"show ipv6 route": `Codes: C - Connected, L - Local

C   2001:DB8::/64 [0/0]
     via eth0, directly connected
L   2001:DB8::1/128 [0/0]
     via eth0, receive
`,
}
