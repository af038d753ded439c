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

// Package setup reads the reference tables that describe permitted
// facilities, their emission sources and their emissions.
package setup

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spatialmodel/ptsrc"
)

// Table is a named table of text cells with a header row.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewTable creates a table. Column names are trimmed of surrounding
// white space.
func NewTable(name string, columns []string, rows [][]string) *Table {
	t := &Table{
		Name:    name,
		Columns: make([]string, len(columns)),
		Rows:    rows,
		index:   make(map[string]int),
	}
	for i, c := range columns {
		c = strings.TrimSpace(c)
		t.Columns[i] = c
		if _, ok := t.index[c]; !ok {
			t.index[c] = i
		}
	}
	return t
}

// Has returns whether the table has the given column.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Require returns *ptsrc.SchemaError if any of columns is missing.
func (t *Table) Require(columns ...string) error {
	for _, c := range columns {
		if !t.Has(c) {
			return &ptsrc.SchemaError{Table: t.Name, Column: c}
		}
	}
	return nil
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// String returns the trimmed contents of the given cell. ok is false
// if the cell is empty or the column does not exist.
func (t *Table) String(row int, column string) (s string, ok bool) {
	i, ok := t.index[column]
	if !ok || i >= len(t.Rows[row]) {
		return "", false
	}
	s = strings.TrimSpace(t.Rows[row][i])
	return s, s != ""
}

// Float returns the numeric value of the given cell, or nil if the
// cell is empty or the column does not exist.
func (t *Table) Float(row int, column string) (*float64, error) {
	s, ok := t.String(row, column)
	if !ok {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("setup: table %q row %d column %q: invalid number %q", t.Name, row+2, column, s)
	}
	if math.IsNaN(v) {
		return nil, nil
	}
	return &v, nil
}

// ID returns the identifier in the given cell. Identifiers stored as
// whole numbers are formatted without a decimal part, so that "1234"
// and "1234.0" refer to the same facility or pollutant.
func (t *Table) ID(row int, column string) (string, bool) {
	s, ok := t.String(row, column)
	if !ok {
		return "", false
	}
	return NormalizeID(s), true
}

// NormalizeID formats whole-number identifiers without a decimal part.
func NormalizeID(s string) string {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}
