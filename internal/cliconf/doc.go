// SPDX-License-Identifier: MPL-2.0

// Package cliconf implements the device-facing CLI operations for the dummy
// network operating system: reading device info and configuration, pushing
// configuration lines, and running single commands.
//
// It does not manage sessions. Every operation goes through a Conn, which the
// transport package provides for SSH and tests provide with fakes.
package cliconf
