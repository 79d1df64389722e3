// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema and
// decodes them into Go values.
//
// The flow is the same for every caller: compile the schema, compile the
// user document, unify it with a schema definition, validate, decode.
// Validation failures come back as *SchemaError with one entry per offending
// field, each named by its JSON-style path (device.port, facts.gather_subset[1]).
//
//	//go:embed config_schema.cue
//	var schema string
//
//	doc, err := cueutil.Decode[map[string]any](schema, data, "#Config",
//	    cueutil.WithFilename(path),
//	    cueutil.WithConcrete(false),
//	)
package cueutil
