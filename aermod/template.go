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

package aermod

import (
	"fmt"
	"io/ioutil"
	"strings"
)

// numSections is the number of pathway sections filled into an input
// file template: source, receptor, meteorology and output.
const numSections = 4

// Template is an AERMOD input file with placeholders for the
// per-source sections. Placeholders are written as "{}", and literal
// braces as "{{" and "}}".
type Template struct {
	parts []string
}

// ParseTemplate parses an input file template. The template must have
// exactly one placeholder for each of the source, receptor, meteorology
// and output sections, in that order.
func ParseTemplate(s string) (*Template, error) {
	t := new(Template)
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '{' && i+1 < len(s) && s[i+1] == '{':
			cur.WriteByte('{')
			i++
		case c == '}' && i+1 < len(s) && s[i+1] == '}':
			cur.WriteByte('}')
			i++
		case c == '{' && i+1 < len(s) && s[i+1] == '}':
			t.parts = append(t.parts, cur.String())
			cur.Reset()
			i++
		case c == '{' || c == '}':
			return nil, fmt.Errorf("aermod: template has unmatched %q at offset %d", c, i)
		default:
			cur.WriteByte(c)
		}
	}
	t.parts = append(t.parts, cur.String())
	if n := len(t.parts) - 1; n != numSections {
		return nil, fmt.Errorf("aermod: template has %d placeholders but needs %d", n, numSections)
	}
	return t, nil
}

// ReadTemplate reads and parses the template file at path.
func ReadTemplate(path string) (*Template, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("aermod: reading template: %v", err)
	}
	return ParseTemplate(string(b))
}

// Fill returns the input file with the source (so), receptor (re),
// meteorology (me) and output (ou) sections filled in.
func (t *Template) Fill(so, re, me, ou string) string {
	var b strings.Builder
	for i, s := range []string{so, re, me, ou} {
		b.WriteString(t.parts[i])
		b.WriteString(s)
	}
	b.WriteString(t.parts[numSections])
	return b.String()
}
