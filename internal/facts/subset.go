// SPDX-License-Identifier: MPL-2.0

package facts

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	// SubsetDefault collects baseline device metadata. It always runs.
	SubsetDefault SubsetName = "default"
	// SubsetHardware collects version and memory output.
	SubsetHardware SubsetName = "hardware"
	// SubsetInterfaces collects interface and LLDP neighbor output.
	SubsetInterfaces SubsetName = "interfaces"
	// SubsetRouting collects IPv4 and IPv6 routing tables.
	SubsetRouting SubsetName = "routing"
	// SubsetConfig collects the running configuration.
	SubsetConfig SubsetName = "config"

	// TokenAll selects every subset.
	TokenAll = "all"
	// negationPrefix marks a token as an exclusion.
	negationPrefix = "!"
)

// ErrInvalidSubset is the sentinel error wrapped by InvalidSubsetError.
var ErrInvalidSubset = errors.New("invalid subset")

// DefaultGatherSubset is used when the caller does not request anything.
var DefaultGatherSubset = []string{"!config"}

type (
	// SubsetName identifies a named group of CLI commands.
	SubsetName string

	// Subsets is a resolved, duplicate-free set of subset names.
	Subsets map[SubsetName]struct{}

	// InvalidSubsetError is returned when a gather subset token names a
	// subset that does not exist. It wraps ErrInvalidSubset.
	InvalidSubsetError struct {
		Token string
	}
)

// SubsetNames returns every known subset in a stable order.
func SubsetNames() []SubsetName {
	return []SubsetName{SubsetDefault, SubsetHardware, SubsetInterfaces, SubsetRouting, SubsetConfig}
}

// String returns the string representation of the SubsetName.
func (s SubsetName) String() string { return string(s) }

// Validate returns nil if the SubsetName is one of the known subsets,
// or an *InvalidSubsetError otherwise.
func (s SubsetName) Validate() error {
	if !slices.Contains(SubsetNames(), s) {
		return &InvalidSubsetError{Token: string(s)}
	}
	return nil
}

// Error implements the error interface for InvalidSubsetError.
func (e *InvalidSubsetError) Error() string {
	return fmt.Sprintf("Bad subset %q (valid: %s, all)", e.Token, strings.Join(subsetNameStrings(), ", "))
}

// Unwrap returns ErrInvalidSubset for errors.Is() compatibility.
func (e *InvalidSubsetError) Unwrap() error { return ErrInvalidSubset }

// Has reports whether name is part of the set.
func (s Subsets) Has(name SubsetName) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the members in SubsetNames order.
func (s Subsets) Sorted() []SubsetName {
	out := make([]SubsetName, 0, len(s))
	for _, name := range SubsetNames() {
		if s.Has(name) {
			out = append(out, name)
		}
	}
	return out
}

// Strings returns the sorted members as plain strings.
func (s Subsets) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, name := range sorted {
		out[i] = string(name)
	}
	return out
}

// Resolve computes the subsets to run for a gather subset list.
//
// Inclusions and exclusions are collected separately and the difference is
// taken after every token has been read, so "!name" wins over "name"
// regardless of order. An empty inclusion set means every subset. The
// default subset is added back last and therefore cannot be excluded.
func Resolve(requested []string) (Subsets, error) {
	include := Subsets{}
	exclude := Subsets{}

	for _, token := range requested {
		if token == TokenAll {
			addAll(include)
			continue
		}

		target := include
		name := token
		if rest, negated := strings.CutPrefix(token, negationPrefix); negated {
			if rest == TokenAll {
				addAll(exclude)
				continue
			}
			target = exclude
			name = rest
		}

		subset := SubsetName(name)
		if err := subset.Validate(); err != nil {
			return nil, &InvalidSubsetError{Token: token}
		}
		target[subset] = struct{}{}
	}

	if len(include) == 0 {
		addAll(include)
	}

	for name := range exclude {
		delete(include, name)
	}
	include[SubsetDefault] = struct{}{}

	return include, nil
}

func addAll(set Subsets) {
	for _, name := range SubsetNames() {
		set[name] = struct{}{}
	}
}

func subsetNameStrings() []string {
	names := SubsetNames()
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = string(name)
	}
	return out
}
