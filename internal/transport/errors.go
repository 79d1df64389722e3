// SPDX-License-Identifier: MPL-2.0

package transport

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDial is returned when the TCP connection cannot be opened.
	ErrDial = errors.New("dial device")
	// ErrAuth is returned when the device rejects every offered credential.
	ErrAuth = errors.New("ssh authentication failed")
	// ErrHostKey is returned when the device host key is unknown or changed.
	ErrHostKey = errors.New("host key verification failed")
	// ErrCommandFailed is the sentinel error wrapped by CommandError.
	ErrCommandFailed = errors.New("command failed")
	// ErrClosed is returned when a closed Client is used.
	ErrClosed = errors.New("client closed")
)

// CommandError is returned when a command exits non-zero and the caller
// asked for errors to be checked.
type CommandError struct {
	Command    string
	ExitStatus int
	Output     string
}

// Error implements the error interface for CommandError.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %q exited with status %d", e.Command, e.ExitStatus)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

// Unwrap returns ErrCommandFailed for errors.Is() compatibility.
func (e *CommandError) Unwrap() error { return ErrCommandFailed }
