/*
Copyright © 2023 the ptsrc authors.
This file is part of ptsrc.

ptsrc is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ptsrc is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ptsrc.  If not, see <http://www.gnu.org/licenses/>.
*/

package ptsrc

import (
	"fmt"
	"sort"
	"strings"
)

// MissingParameterError is returned when a stack source lacks a
// release parameter that its source type requires.
type MissingParameterError struct {
	DevID string
	Field string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("ptsrc: source %s is missing required parameter %s", e.DevID, e.Field)
}

// UnknownSourceTypeError is returned when a source has a type that
// cannot be written as an AERMOD source.
type UnknownSourceTypeError struct {
	DevID string
	Type  SourceType
}

func (e *UnknownSourceTypeError) Error() string {
	return fmt.Sprintf("ptsrc: source %s has unrecognized source type %q", e.DevID, string(e.Type))
}

// SourceError is a failure that only affects one source.
type SourceError struct {
	DevID string
	Err   error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.DevID, e.Err)
}

func (e SourceError) Unwrap() error { return e.Err }

// SourceErrors collects the per-source failures of a batch operation.
// A batch that returns SourceErrors has still produced results for the
// sources that are not listed.
type SourceErrors []SourceError

func (e SourceErrors) Error() string {
	s := make([]string, len(e))
	for i, err := range e {
		s[i] = err.Error()
	}
	return fmt.Sprintf("ptsrc: %d source(s) failed:\n%s", len(e), strings.Join(s, "\n"))
}

// DevIDs returns the sorted identifiers of the failed sources.
func (e SourceErrors) DevIDs() []string {
	o := make([]string, len(e))
	for i, err := range e {
		o[i] = err.DevID
	}
	sort.Strings(o)
	return o
}

// Sort orders the errors by device identifier.
func (e SourceErrors) Sort() {
	sort.SliceStable(e, func(i, j int) bool { return e[i].DevID < e[j].DevID })
}

// Err returns nil if e is empty and e otherwise, so that a collected
// SourceErrors can be returned directly as an error.
func (e SourceErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	e.Sort()
	return e
}

// SchemaError is returned when a reference table or file is missing
// an expected sheet or column.
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("ptsrc: table %q is missing", e.Table)
	}
	return fmt.Sprintf("ptsrc: table %q is missing column %q", e.Table, e.Column)
}
