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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// plotColumns is the number of leading plot file columns that are read.
const plotColumns = 10

// DispersionFactor is one receptor row of a plot file. Because sources
// are modeled at a unit emission rate, Conc is the concentration per
// unit emission rate.
type DispersionFactor struct {
	X, Y  float64 // receptor location
	Conc  float64
	ZElev float64 // receptor terrain elevation
	ZHill float64 // receptor hill height scale
	ZFlag float64 // receptor flagpole height
	Ave   string  // averaging period
	Grp   string  // source group
	Hrs   string
	ID    string
}

// ReadPlotFile reads the receptor rows of an AERMOD plot file. The
// first headerLines lines are skipped, as are any further comment
// lines, which start with '*'. Only the first ten columns are read.
func ReadPlotFile(r io.Reader, headerLines int) ([]DispersionFactor, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	var out []DispersionFactor
	line := 0
	for s.Scan() {
		line++
		if line <= headerLines {
			continue
		}
		text := strings.TrimSpace(s.Text())
		if text == "" || strings.HasPrefix(text, "*") {
			continue
		}
		f := strings.Fields(text)
		if len(f) < plotColumns {
			return nil, fmt.Errorf("aermod: plot file line %d has %d columns; need %d", line, len(f), plotColumns)
		}
		var d DispersionFactor
		for i, dst := range []*float64{&d.X, &d.Y, &d.Conc, &d.ZElev, &d.ZHill, &d.ZFlag} {
			v, err := strconv.ParseFloat(f[i], 64)
			if err != nil {
				return nil, fmt.Errorf("aermod: plot file line %d column %d: %v", line, i+1, err)
			}
			*dst = v
		}
		d.Ave, d.Grp, d.Hrs, d.ID = f[6], f[7], f[8], f[9]
		out = append(out, d)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("aermod: reading plot file: %v", err)
	}
	return out, nil
}
