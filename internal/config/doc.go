// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/netfacts/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/netfacts/config.cue on macOS, %APPDATA%\netfacts\config.cue
// on Windows), falling back to ./config.cue. Environment variables prefixed with NETFACTS_
// override file values (NETFACTS_DEVICE_PASSWORD sets device.password).
//
// Configuration validation is performed against a CUE schema (config_schema.cue) to ensure
// type safety and provide clear error messages for invalid configurations.
package config
