// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of Markdown help
// pages for the failures netfacts users hit most: unreachable devices,
// rejected credentials, bad gather subsets and broken config files.
package issue
