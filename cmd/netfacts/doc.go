// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for netfacts.
//
// This package implements the Cobra command hierarchy: fact gathering,
// the cliconf operations (device-info, get, config-get, config-edit,
// capabilities), the built-in device emulator, and configuration management.
package cmd
