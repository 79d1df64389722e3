// SPDX-License-Identifier: MPL-2.0

// Package transport runs device commands over SSH.
//
// A Client holds one SSH connection and opens an exec session per command.
// It satisfies both facts.Executor (batch runs where a failing command is
// data) and cliconf.Conn (single commands where a failure is an error).
package transport
