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

// Package aermod writes AERMOD input files for individual emission
// sources and reads the plot files that AERMOD produces.
package aermod

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/spatialmodel/ptsrc"
)

// unitRate is the emission rate [g/s] that every source is modeled
// with, so that plot file concentrations are dispersion factors.
const unitRate = 1.

// SourceSection returns the source (SO) pathway definition of rec.
// The field widths and precisions are fixed by the AERMOD input format.
func SourceSection(rec ptsrc.SourceRecord) (string, error) {
	x, y := rec.Location.X, rec.Location.Y
	b := new(bytes.Buffer)
	switch p := rec.Params.(type) {
	case ptsrc.PointParams:
		if !rec.Type.IsPoint() {
			return "", &ptsrc.UnknownSourceTypeError{DevID: rec.DevID, Type: rec.Type}
		}
		fmt.Fprintf(b, "   LOCATION %10s %s %11.4f %11.4f %7.2f\n", rec.DevID, rec.Type, x, y, rec.Elevation)
		fmt.Fprintf(b, "   SRCPARAM %10s %5.3f %5.3f %7.3f %5.3f %5.3f\n",
			rec.DevID, unitRate, p.Height, p.Temp, p.Velocity, p.Diameter)
	case ptsrc.VolumeParams:
		if rec.Type != ptsrc.Volume {
			return "", &ptsrc.UnknownSourceTypeError{DevID: rec.DevID, Type: rec.Type}
		}
		fmt.Fprintf(b, "   LOCATION %10s %s %11.4f %11.4f %7.2f\n", rec.DevID, ptsrc.Volume, x, y, rec.Elevation)
		fmt.Fprintf(b, "   SRCPARAM %10s %5.3f %5.3f %5.3f %5.3f\n",
			rec.DevID, unitRate, p.ReleaseHeight, p.SigmaY, p.SigmaZ)
	default:
		return "", &ptsrc.UnknownSourceTypeError{DevID: rec.DevID, Type: rec.Type}
	}
	b.WriteString("   URBANSRC ALL\n")
	b.WriteString("   SRCGROUP ALL\n")
	return b.String(), nil
}

// metToken is the placeholder in meteorology fragments that marks the
// start of a surface or profile file path.
const metToken = "CELLIJ"

// MetFile returns the path of the meteorology fragment for grid cell
// cellID within directory metDir.
func MetFile(metDir, cellID string) string {
	return filepath.Join(metDir, fmt.Sprintf("%s_%s.info.txt", metToken, cellID))
}

// MetSection returns the meteorology (ME) pathway of a source in grid
// cell cellID, where the meteorology data files are stored under
// prefix on the machine that runs AERMOD.
func MetSection(metDir, prefix, cellID string) (string, error) {
	b, err := ioutil.ReadFile(MetFile(metDir, cellID))
	if err != nil {
		return "", fmt.Errorf("aermod: reading meteorology for cell %s: %v", cellID, err)
	}
	return ExpandMet(string(b), prefix), nil
}

// ExpandMet prepends prefix to every meteorology file reference in
// fragment.
func ExpandMet(fragment, prefix string) string {
	return strings.Replace(fragment, metToken, prefix+metToken, -1)
}

// PlotFileName returns the name of the period-average plot file of
// source devID.
func PlotFileName(devID string) string {
	return fmt.Sprintf("PE_%s.PLT", devID)
}

// OutputSection returns the output (OU) pathway of source devID, which
// requests the highest first-high 1-hour values and the period average,
// each in a plot file named for the source.
func OutputSection(devID string) string {
	return fmt.Sprintf("   PLOTFILE 1 ALL 1ST H1G_%s.PLT\n   PLOTFILE PERIOD ALL %s", devID, PlotFileName(devID))
}

// UnixLineEndings converts DOS line endings in b to Unix line endings.
func UnixLineEndings(b []byte) []byte {
	return bytes.Replace(b, []byte("\r\n"), []byte("\n"), -1)
}
