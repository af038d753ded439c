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
	"math"
	"strings"
)

// typeSynonyms maps declared source types to AERMOD source types.
var typeSynonyms = map[string]SourceType{
	"STACK": Point,
	"BUG":   Point,
}

// Classify returns the AERMOD source type of r. The rules are applied
// in order, with later rules overriding earlier ones:
//
//  1. The declared type is used, with STACK and BUG meaning POINT.
//  2. A source with a rain cap is POINTCAP.
//  3. A source with a horizontal outlet ("H") is POINTHOR.
//  4. Gasoline dispensing facilities are always VOLUME.
//
// Declared types that are not recognized are returned unchanged.
func Classify(r RawSource) SourceType {
	t := SourceType(r.Type)
	if s, ok := typeSynonyms[r.Type]; ok {
		t = s
	}
	if r.RainCap {
		t = PointCap
	}
	if r.Outlet != nil && horizontal(*r.Outlet) {
		t = PointHor
	}
	if r.GDF {
		t = Volume
	}
	return t
}

func horizontal(outlet string) bool {
	o := strings.TrimSpace(outlet)
	return strings.EqualFold(o, "H") || strings.EqualFold(o, "horizontal")
}

// GDFVolume returns the volume source parameters of a gasoline
// dispensing facility with the given numbers of gasoline and diesel
// nozzles. Missing counts are treated as zero.
func GDFVolume(gasNozzles, dieselNozzles *float64, g GDFGeometry) VolumeParams {
	n := valueOrZero(gasNozzles) + valueOrZero(dieselNozzles)
	return VolumeParams{
		ReleaseHeight: g.ReleaseHeight,
		SigmaY:        g.SyA*n*n + g.SyB*n + g.SyC,
		SigmaZ:        g.SigmaZ,
	}
}

func valueOrZero(v *float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return 0
	}
	return *v
}

// NewSourceRecord classifies r and creates the release parameters that
// match its source type. Location, elevation and grid cell are filled
// in later. It returns *MissingParameterError if a parameter required
// by the source type is absent and *UnknownSourceTypeError if the
// source type is not recognized.
func NewSourceRecord(r RawSource, c Config) (SourceRecord, error) {
	rec := SourceRecord{
		DevID:      r.DevID,
		FacilityID: FacilityID(r.DevID, c.FacilitySeparator),
		Lon:        r.Lon,
		Lat:        r.Lat,
		Type:       Classify(r),
	}
	switch {
	case rec.Type == Volume && r.GDF:
		rec.Params = GDFVolume(r.GasNozzles, r.DieselNozzles, c.GDF)
	case rec.Type == Volume:
		vals, err := required(r.DevID, []namedValue{
			{"Relhgt_m", r.ReleaseHeight},
			{"Syinit_m", r.SigmaY},
			{"Szinit_m", r.SigmaZ},
		})
		if err != nil {
			return rec, err
		}
		rec.Params = VolumeParams{ReleaseHeight: vals[0], SigmaY: vals[1], SigmaZ: vals[2]}
	case rec.Type.IsPoint():
		vals, err := required(r.DevID, []namedValue{
			{"Stkht_m", r.StackHeight},
			{"Stkdiam_m", r.StackDiameter},
			{"Temp_K", r.StackTemp},
			{"Vel_ms", r.StackVelocity},
		})
		if err != nil {
			return rec, err
		}
		rec.Params = PointParams{Height: vals[0], Diameter: vals[1], Temp: vals[2], Velocity: vals[3]}
	default:
		return rec, &UnknownSourceTypeError{DevID: r.DevID, Type: rec.Type}
	}
	return rec, nil
}

type namedValue struct {
	name string
	v    *float64
}

func required(devID string, vals []namedValue) ([]float64, error) {
	o := make([]float64, len(vals))
	for i, nv := range vals {
		if nv.v == nil || math.IsNaN(*nv.v) {
			return nil, &MissingParameterError{DevID: devID, Field: nv.name}
		}
		o[i] = *nv.v
	}
	return o, nil
}
