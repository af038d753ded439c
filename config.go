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
	"math"
)

// Config holds the constants used throughout a run. A Config is
// created once, usually with DefaultConfig, and is passed by value to
// every component so that no component depends on package-level state.
type Config struct {
	// GramsPerShortTon and GramsPerPound convert annual mass totals
	// to grams.
	GramsPerShortTon float64 `toml:"grams_per_short_ton"`
	GramsPerPound    float64 `toml:"grams_per_pound"`

	// SecondsPerYear and SecondsPerDay convert annual and daily
	// totals to per-second rates.
	SecondsPerYear float64 `toml:"seconds_per_year"`
	SecondsPerDay  float64 `toml:"seconds_per_day"`

	// InhalationFactor is the intake factor used for toxicity
	// weighting.
	InhalationFactor float64 `toml:"inhalation_factor"`

	// CancerSlope [(mg/kg-day)^-1] and ChronicREL [μg/m³] convert
	// diesel particulate concentrations into cancer risk and chronic
	// hazard index.
	CancerSlope float64 `toml:"cancer_slope"`
	ChronicREL  float64 `toml:"chronic_rel"`

	// GeographicProj is the projection of source coordinates in the
	// reference tables and PlanarProj is the projection AERMOD works
	// in, both in PROJ4 or WKT format.
	GeographicProj string `toml:"geographic_proj"`
	PlanarProj     string `toml:"planar_proj"`

	// GridOffsetI and GridOffsetJ are added to the native grid cell
	// indices so that they match the meteorology file indices.
	GridOffsetI int `toml:"grid_offset_i"`
	GridOffsetJ int `toml:"grid_offset_j"`

	// PlotHeaderLines is the number of header lines at the top of an
	// AERMOD plot file.
	PlotHeaderLines int `toml:"plot_header_lines"`

	// TopN is the number of facilities to report on.
	TopN int `toml:"top_n"`

	// FacilitySeparator separates the facility identifier from the
	// rest of a device identifier.
	FacilitySeparator string `toml:"facility_separator"`

	// Precision is the number of decimal places reported
	// concentrations are rounded to.
	Precision int `toml:"precision"`

	// GDF holds the standard release geometry of gasoline dispensing
	// facilities.
	GDF GDFGeometry `toml:"gdf"`
}

// GDFGeometry specifies the volume source geometry assigned to gasoline
// dispensing facilities. The initial lateral dimension is a quadratic
// in the total number of nozzles n: SyA·n² + SyB·n + SyC.
type GDFGeometry struct {
	ReleaseHeight float64 `toml:"release_height"`
	SyA           float64 `toml:"sy_a"`
	SyB           float64 `toml:"sy_b"`
	SyC           float64 `toml:"sy_c"`
	SigmaZ        float64 `toml:"sigma_z"`
}

// UTM10N is the NAD83 / UTM zone 10N (EPSG:26910) projection.
const UTM10N = "+proj=utm +zone=10 +datum=NAD83 +units=m +no_defs"

// WGS84 is the geographic projection of longitude and latitude
// coordinates.
const WGS84 = "+proj=longlat +datum=WGS84 +no_defs"

// DefaultConfig returns the configuration used for San Francisco Bay
// Area permitted-source modeling.
func DefaultConfig() Config {
	return Config{
		GramsPerShortTon:  907184.74,
		GramsPerPound:     453.592,
		SecondsPerYear:    365 * 24 * 3600,
		SecondsPerDay:     24 * 3600,
		InhalationFactor:  677,
		CancerSlope:       1.1,
		ChronicREL:        5,
		GeographicProj:    WGS84,
		PlanarProj:        UTM10N,
		GridOffsetI:       -464,
		GridOffsetJ:       -548,
		PlotHeaderLines:   7,
		TopN:              10,
		FacilitySeparator: "-",
		Precision:         2,
		GDF: GDFGeometry{
			ReleaseHeight: 1.03,
			SyA:           -0.00393,
			SyB:           0.3292,
			SyC:           0.7285,
			SigmaZ:        1.03 / 2.15,
		},
	}
}

// Validate checks that c contains usable values.
func (c Config) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"GramsPerShortTon", c.GramsPerShortTon},
		{"GramsPerPound", c.GramsPerPound},
		{"SecondsPerYear", c.SecondsPerYear},
		{"SecondsPerDay", c.SecondsPerDay},
		{"ChronicREL", c.ChronicREL},
	}
	for _, p := range positive {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return fmt.Errorf("ptsrc: configuration value %s must be positive but is %g", p.name, p.v)
		}
	}
	if c.GeographicProj == "" || c.PlanarProj == "" {
		return fmt.Errorf("ptsrc: both GeographicProj and PlanarProj must be specified")
	}
	if c.PlotHeaderLines < 0 {
		return fmt.Errorf("ptsrc: PlotHeaderLines must not be negative but is %d", c.PlotHeaderLines)
	}
	if c.TopN < 0 {
		return fmt.Errorf("ptsrc: TopN must not be negative but is %d", c.TopN)
	}
	if c.FacilitySeparator == "" {
		return fmt.Errorf("ptsrc: FacilitySeparator must not be empty")
	}
	return nil
}
