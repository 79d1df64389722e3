// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers that fail or log consistently so tests
// stay short: environment and working directory changes that undo themselves
// (MustSetenv, MustChdir, SetHomeDir), cleanup of servers and clients
// (DeferClose, DeferStop), and a limit on concurrent container starts for
// integration tests (ContainerSemaphore).
package testutil
