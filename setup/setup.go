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

package setup

import (
	"fmt"

	"github.com/spatialmodel/ptsrc"
)

// Names of the tables in a permitted source setup workbook.
const (
	FacilityInfo      = "Facility Info"
	ReleaseParameters = "Release Parameters"
	PMEmissions       = "PM Emissions"
	TACEmissions      = "TAC Emissions"
	GDFRelease        = "GDF Release"
	GDFEmissions      = "GDF Emissions"
)

// Column names used in the setup tables.
const (
	DevID     = "DevID"
	PlantNo   = "PlantNo"
	Name      = "Name"
	XCoord    = "X_USERCOORD"
	YCoord    = "Y_USERCOORD"
	SrcType   = "Source Type"
	RainCap   = "Rain Cap"
	Outlet    = "Outlet"
	StackHt   = "Stkht_m"
	StackDiam = "Stkdiam_m"
	StackTemp = "Temp_K"
	StackVel  = "Vel_ms"
	RelHt     = "Relhgt_m"
	SigmaY    = "Syinit_m"
	SigmaZ    = "Szinit_m"
	GasNoz    = "# gas nozzles"
	DieselNoz = "# diesel nozzles"
	Emissions = "Emissions"
	Pollutant = "Pollutant#"

	// Units is an optional column giving the units of each row of an
	// emissions table.
	Units = "Units"
)

// Schema lists the columns each setup table must have.
var Schema = map[string][]string{
	FacilityInfo:      {PlantNo, Name},
	ReleaseParameters: {DevID, XCoord, YCoord, SrcType, RainCap, Outlet, StackHt, StackDiam, StackTemp, StackVel},
	PMEmissions:       {DevID, Emissions},
	TACEmissions:      {DevID, Pollutant, Emissions},
	GDFRelease:        {DevID, XCoord, YCoord, GasNoz, DieselNoz},
	GDFEmissions:      {DevID, Pollutant, Emissions},
}

// Setup holds the tables of a permitted source setup workbook.
type Setup struct {
	FacilityInfo      *Table
	ReleaseParameters *Table
	PMEmissions       *Table
	TACEmissions      *Table
	GDFRelease        *Table
	GDFEmissions      *Table
}

// Load reads the setup workbook at path.
func Load(path string) (*Setup, error) {
	wb, err := ReadWorkbook(path)
	if err != nil {
		return nil, err
	}
	return New(wb)
}

// New extracts the setup tables from wb, checking that each has the
// columns listed in Schema.
func New(wb Workbook) (*Setup, error) {
	s := new(Setup)
	for _, tt := range []struct {
		name string
		dst  **Table
	}{
		{FacilityInfo, &s.FacilityInfo},
		{ReleaseParameters, &s.ReleaseParameters},
		{PMEmissions, &s.PMEmissions},
		{TACEmissions, &s.TACEmissions},
		{GDFRelease, &s.GDFRelease},
		{GDFEmissions, &s.GDFEmissions},
	} {
		t, err := wb.Table(tt.name)
		if err != nil {
			return nil, err
		}
		if err := t.Require(Schema[tt.name]...); err != nil {
			return nil, err
		}
		*tt.dst = t
	}
	return s, nil
}

// RawSources returns the permitted sources followed by the gasoline
// dispensing facilities. Rows that cannot be read are reported in the
// returned ptsrc.SourceErrors; the remaining rows are still returned.
func (s *Setup) RawSources() ([]ptsrc.RawSource, error) {
	var out []ptsrc.RawSource
	var errs ptsrc.SourceErrors
	for _, tt := range []struct {
		t   *Table
		gdf bool
	}{
		{s.ReleaseParameters, false},
		{s.GDFRelease, true},
	} {
		for i := 0; i < tt.t.Len(); i++ {
			r, ok, err := rawSource(tt.t, i, tt.gdf)
			if !ok {
				continue
			}
			if err != nil {
				errs = append(errs, ptsrc.SourceError{DevID: r.DevID, Err: err})
				continue
			}
			out = append(out, r)
		}
	}
	return out, errs.Err()
}

// rawSource reads row i of t. ok is false if the row has no device
// identifier.
func rawSource(t *Table, i int, gdf bool) (r ptsrc.RawSource, ok bool, err error) {
	r.DevID, ok = t.ID(i, DevID)
	if !ok {
		return r, false, nil
	}
	r.GDF = gdf
	x, err := t.Float(i, XCoord)
	if err != nil {
		return r, true, err
	}
	y, err := t.Float(i, YCoord)
	if err != nil {
		return r, true, err
	}
	if x == nil {
		return r, true, &ptsrc.MissingParameterError{DevID: r.DevID, Field: XCoord}
	}
	if y == nil {
		return r, true, &ptsrc.MissingParameterError{DevID: r.DevID, Field: YCoord}
	}
	r.Lon, r.Lat = *x, *y

	if gdf {
		r.Type = string(ptsrc.Volume)
		if r.GasNozzles, err = t.Float(i, GasNoz); err != nil {
			return r, true, err
		}
		if r.DieselNozzles, err = t.Float(i, DieselNoz); err != nil {
			return r, true, err
		}
		return r, true, nil
	}

	r.Type, _ = t.String(i, SrcType)
	if o, ok := t.String(i, Outlet); ok {
		r.Outlet = &o
	}
	_, r.RainCap = t.String(i, RainCap)
	for _, f := range []struct {
		col string
		dst **float64
	}{
		{StackHt, &r.StackHeight},
		{StackDiam, &r.StackDiameter},
		{StackTemp, &r.StackTemp},
		{StackVel, &r.StackVelocity},
		{RelHt, &r.ReleaseHeight},
		{SigmaY, &r.SigmaY},
		{SigmaZ, &r.SigmaZ},
	} {
		if *f.dst, err = t.Float(i, f.col); err != nil {
			return r, true, err
		}
	}
	return r, true, nil
}

// FacilityNames returns the facility names by facility identifier.
func (s *Setup) FacilityNames() map[string]string {
	o := make(map[string]string)
	for i := 0; i < s.FacilityInfo.Len(); i++ {
		id, ok := s.FacilityInfo.ID(i, PlantNo)
		if !ok {
			continue
		}
		name, _ := s.FacilityInfo.String(i, Name)
		o[id] = name
	}
	return o
}

// String summarizes the contents of s.
func (s *Setup) String() string {
	return fmt.Sprintf("%d facilities, %d permitted sources, %d PM rows, %d TAC rows, %d GDFs, %d GDF emissions rows",
		s.FacilityInfo.Len(), s.ReleaseParameters.Len(), s.PMEmissions.Len(),
		s.TACEmissions.Len(), s.GDFRelease.Len(), s.GDFEmissions.Len())
}
