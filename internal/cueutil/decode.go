// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Decode validates data against the schema definition (for example "#Config")
// and decodes the unified value into T.
func Decode[T any](schema string, data []byte, definition string, opts ...Option) (T, error) {
	var zero T

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if size := int64(len(data)); size > o.maxFileSize {
		return zero, &FileTooLargeError{Filename: o.filename, Size: size, Limit: o.maxFileSize}
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(schema)
	if schemaValue.Err() != nil {
		return zero, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}
	root := schemaValue.LookupPath(cue.ParsePath(definition))
	if !root.Exists() {
		return zero, fmt.Errorf("internal error: schema definition %s not found", definition)
	}

	userValue := ctx.CompileBytes(data, cue.Filename(o.filename))
	if userValue.Err() != nil {
		return zero, newSchemaError(userValue.Err(), o.filename)
	}

	unified := root.Unify(userValue)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return zero, newSchemaError(err, o.filename)
	}

	var out T
	if err := unified.Decode(&out); err != nil {
		return zero, newSchemaError(err, o.filename)
	}
	return out, nil
}
