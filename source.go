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
	"strings"

	"github.com/ctessum/geom"
)

// SourceType is an AERMOD source type.
type SourceType string

// These are the AERMOD source types that can be modeled.
const (
	Point    SourceType = "POINT"
	PointCap SourceType = "POINTCAP"
	PointHor SourceType = "POINTHOR"
	Volume   SourceType = "VOLUME"
)

// Valid returns whether t is one of the recognized source types.
func (t SourceType) Valid() bool {
	switch t {
	case Point, PointCap, PointHor, Volume:
		return true
	}
	return false
}

// IsPoint returns whether t is a stack-type source.
func (t SourceType) IsPoint() bool {
	return t == Point || t == PointCap || t == PointHor
}

// ReleaseParams holds the physical release parameters of a source.
// The concrete type is either PointParams or VolumeParams.
type ReleaseParams interface {
	releaseParams()
}

// PointParams are the stack parameters of POINT, POINTCAP and POINTHOR
// sources.
type PointParams struct {
	Height   float64 // [m]
	Diameter float64 // [m]
	Temp     float64 // [K]
	Velocity float64 // [m/s]
}

// VolumeParams are the release parameters of VOLUME sources.
type VolumeParams struct {
	ReleaseHeight float64 // [m]
	SigmaY        float64 // initial lateral dimension [m]
	SigmaZ        float64 // initial vertical dimension [m]
}

func (PointParams) releaseParams()  {}
func (VolumeParams) releaseParams() {}

// RawSource is a row from a release parameter table, before
// classification. Pointer fields are nil where the table cell is empty.
type RawSource struct {
	DevID    string
	Lon, Lat float64

	// Type is the declared source type, e.g. "STACK".
	Type string

	// RainCap is true if the rain cap cell has any value.
	RainCap bool
	Outlet  *string

	StackHeight, StackDiameter, StackTemp, StackVelocity *float64
	ReleaseHeight, SigmaY, SigmaZ                        *float64

	// GasNozzles and DieselNozzles are the nozzle counts of a
	// gasoline dispensing facility.
	GasNozzles, DieselNozzles *float64

	// GDF is true for gasoline dispensing facility dispensers.
	GDF bool
}

// SourceRecord is a classified and located emission source.
type SourceRecord struct {
	DevID      string
	FacilityID string

	Lon, Lat float64

	// Location is the source location in the planar projection.
	Location geom.Point

	// Elevation is the ground elevation [m].
	Elevation float64

	Type   SourceType
	Params ReleaseParams

	// CellID is the identifier of the grid cell containing the source.
	CellID string
}

// FacilityID returns the facility part of devID, which is the text
// before the first occurrence of sep.
func FacilityID(devID, sep string) string {
	if i := strings.Index(devID, sep); i >= 0 {
		return devID[:i]
	}
	return devID
}
