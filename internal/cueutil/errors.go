// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

var (
	// ErrFileTooLarge is the sentinel error wrapped by FileTooLargeError.
	ErrFileTooLarge = errors.New("file too large")
	// ErrSchema is the sentinel error wrapped by SchemaError.
	ErrSchema = errors.New("schema validation failed")
)

type (
	// FileTooLargeError is returned before parsing when a document exceeds
	// the size limit.
	FileTooLargeError struct {
		Filename string
		Size     int64
		Limit    int64
	}

	// FieldError is one problem found in a document.
	FieldError struct {
		// Path is the JSON-style path of the field, empty for document-level
		// problems such as syntax errors.
		Path    string
		Message string
	}

	// SchemaError collects every problem CUE reported for a document.
	SchemaError struct {
		Filename string
		Fields   []FieldError
	}
)

// Error implements the error interface.
func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("%s is %d bytes, limit is %d", e.Filename, e.Size, e.Limit)
}

// Unwrap returns ErrFileTooLarge for errors.Is() compatibility.
func (e *FileTooLargeError) Unwrap() error { return ErrFileTooLarge }

// String renders the field as "path: message".
func (f FieldError) String() string {
	if f.Path == "" {
		return f.Message
	}
	return f.Path + ": " + f.Message
}

// Error implements the error interface. A single problem stays on one line.
func (e *SchemaError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("%s: %s", e.Filename, e.Fields[0])
	}
	lines := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		lines[i] = f.String()
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", e.Filename, strings.Join(lines, "\n  "))
}

// Unwrap returns ErrSchema for errors.Is() compatibility.
func (e *SchemaError) Unwrap() error { return ErrSchema }

// newSchemaError converts a CUE error (possibly a list) into a SchemaError.
func newSchemaError(err error, filename string) error {
	if err == nil {
		return nil
	}

	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return &SchemaError{Filename: filename, Fields: []FieldError{{Message: err.Error()}}}
	}

	fields := make([]FieldError, 0, len(list))
	for _, e := range list {
		path := formatPath(cueerrors.Path(e))
		format, args := e.Msg()
		msg := strings.TrimSpace(fmt.Sprintf(format, args...))
		fields = append(fields, FieldError{Path: path, Message: msg})
	}
	return &SchemaError{Filename: filename, Fields: fields}
}

// formatPath turns ["facts", "gather_subset", "1"] into facts.gather_subset[1].
func formatPath(path []string) string {
	var sb strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			sb.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(part)
	}
	return sb.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
