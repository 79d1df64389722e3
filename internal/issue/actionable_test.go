// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "gather facts"},
			expected: "failed to gather facts",
		},
		{
			name: "operation with resource",
			err: &ActionableError{
				Operation: "connect to device",
				Resource:  "192.0.2.1:22",
			},
			expected: "failed to connect to device: 192.0.2.1:22",
		},
		{
			name: "operation with cause",
			err: &ActionableError{
				Operation: "load configuration",
				Cause:     errors.New("expected '}', found EOF"),
			},
			expected: "failed to load configuration: expected '}', found EOF",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "connect to device",
				Resource:  "192.0.2.1:22",
				Cause:     errors.New("connection refused"),
			},
			expected: "failed to connect to device: 192.0.2.1:22: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ActionableError{Operation: "test", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	errNoCause := &ActionableError{Operation: "test"}
	if errNoCause.Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name:     "simple error non-verbose",
			err:      &ActionableError{Operation: "load configuration"},
			contains: []string{"failed to load configuration"},
		},
		{
			name: "error with suggestions",
			err: &ActionableError{
				Operation:   "connect to device",
				Resource:    "r1:22",
				Suggestions: []string{"Check the port", "Raise the timeout"},
			},
			contains: []string{
				"failed to connect to device",
				"r1:22",
				"• Check the port",
				"• Raise the timeout",
			},
		},
		{
			name: "error chain in verbose mode",
			err: &ActionableError{
				Operation: "gather facts",
				Cause:     fmt.Errorf("subset interfaces: %w", errors.New("session closed")),
			},
			verbose: true,
			contains: []string{
				"Error chain:",
				"1. subset interfaces: session closed",
				"2. session closed",
			},
		},
		{
			name: "no error chain in non-verbose",
			err: &ActionableError{
				Operation: "gather facts",
				Cause:     errors.New("session closed"),
			},
			excludes: []string{"Error chain:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Format(tt.verbose)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Format(%v) = %q, want it to contain %q", tt.verbose, got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("Format(%v) = %q, must not contain %q", tt.verbose, got, unwanted)
				}
			}
		})
	}
}

func TestErrorContext_Build(t *testing.T) {
	ae := NewErrorContext().
		WithOperation("fetch configuration").
		WithResource("r1:22").
		WithIssue(UnsupportedConfigSourceId).
		WithSuggestion("Use running").
		WithSuggestions("Or startup").
		Wrap(errors.New("candidate")).
		Build()

	if ae == nil {
		t.Fatal("Build() returned nil")
	}
	if ae.Operation != "fetch configuration" || ae.Resource != "r1:22" {
		t.Errorf("ActionableError = %+v", ae)
	}
	if ae.Issue != UnsupportedConfigSourceId {
		t.Errorf("Issue = %d, want %d", ae.Issue, UnsupportedConfigSourceId)
	}
	if len(ae.Suggestions) != 2 || !ae.HasSuggestions() {
		t.Errorf("Suggestions = %v", ae.Suggestions)
	}

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if NewErrorContext().BuildError() != nil {
		t.Error("BuildError() without operation should return nil")
	}
}

func TestWrapWithOperation(t *testing.T) {
	cause := errors.New("original error")
	err := WrapWithOperation(cause, "run command")
	if err == nil || err.Operation != "run command" || !errors.Is(err, cause) {
		t.Errorf("WrapWithOperation() = %+v", err)
	}
	if WrapWithOperation(nil, "test") != nil {
		t.Error("WrapWithOperation(nil) should return nil")
	}
}

func TestIssueOf(t *testing.T) {
	inner := NewErrorContext().
		WithOperation("authenticate").
		WithIssue(AuthenticationFailedId).
		Wrap(errors.New("permission denied")).
		BuildError()
	outer := NewErrorContext().
		WithOperation("gather facts").
		Wrap(fmt.Errorf("connect: %w", inner)).
		BuildError()

	got := IssueOf(outer)
	if got == nil || got.Id() != AuthenticationFailedId {
		t.Fatalf("IssueOf() = %v, want the authentication issue", got)
	}

	if IssueOf(errors.New("plain")) != nil {
		t.Error("IssueOf(plain error) should be nil")
	}
	if IssueOf(WrapWithOperation(errors.New("x"), "y")) != nil {
		t.Error("IssueOf() without a linked issue should be nil")
	}
}
