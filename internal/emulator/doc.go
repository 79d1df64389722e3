// SPDX-License-Identifier: MPL-2.0

// Package emulator serves a dummy network OS over SSH.
//
// The device answers exec requests from a table of canned responses, supports
// output filters ("| include", "| grep", "| exclude", "| begin") and a
// configuration mode whose lines are appended to the running configuration.
// It exists so the facts, cliconf and transport layers can be exercised
// end-to-end without real hardware.
package emulator
