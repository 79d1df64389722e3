// SPDX-License-Identifier: MPL-2.0

package emulator

const (
	// StateCreated indicates the server was created but Start was not called.
	StateCreated State = iota
	// StateStarting indicates Start was called and the listener is being set up.
	StateStarting
	// StateRunning indicates the server accepts connections.
	StateRunning
	// StateStopping indicates a graceful shutdown is in progress.
	StateStopping
	// StateStopped is terminal: the server has stopped.
	StateStopped
	// StateFailed is terminal: the server failed to start or serve.
	StateFailed
)

// State is the lifecycle state of a Server.
type State int32

// String returns a human-readable representation of the server state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the server can no longer change state.
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFailed
}
