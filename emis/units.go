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

// Package emis converts reported emissions into the per-second
// emission rates used to scale dispersion factors.
package emis

import (
	"fmt"
	"strings"

	"github.com/ctessum/unit"
	"github.com/spatialmodel/ptsrc"
)

// Units are the units emissions are reported in.
type Units int

// These are the supported emissions units.
const (
	TonsPerYear Units = iota
	PoundsPerYear
	GramsPerDay
	GramsPerSecond
)

func (u Units) String() string {
	switch u {
	case TonsPerYear:
		return "tons/year"
	case PoundsPerYear:
		return "lb/year"
	case GramsPerDay:
		return "g/day"
	case GramsPerSecond:
		return "g/s"
	}
	return fmt.Sprintf("Units(%d)", int(u))
}

// ParseUnits parses a units description such as "tons/year" or "lb/yr".
func ParseUnits(s string) (Units, error) {
	switch strings.ToLower(strings.Replace(strings.TrimSpace(s), " ", "", -1)) {
	case "tons/year", "ton/year", "tons/yr", "ton/yr", "tpy":
		return TonsPerYear, nil
	case "lb/year", "lbs/year", "lb/yr", "lbs/yr", "pounds/year":
		return PoundsPerYear, nil
	case "g/day", "grams/day", "g/d":
		return GramsPerDay, nil
	case "g/s", "grams/second":
		return GramsPerSecond, nil
	}
	return 0, fmt.Errorf("emis: unsupported emissions units %q", s)
}

// Converter converts emissions totals into emission rates.
type Converter struct {
	c ptsrc.Config
}

// NewConverter returns a converter that uses the conversion factors in c.
func NewConverter(c ptsrc.Config) Converter {
	return Converter{c: c}
}

// Rate converts v, in units u, to a mass emission rate.
func (c Converter) Rate(v float64, u Units) (*unit.Unit, error) {
	var mass, period *unit.Unit
	switch u {
	case TonsPerYear:
		mass = unit.New(v*c.c.GramsPerShortTon/1000, unit.Kilogram)
		period = unit.New(c.c.SecondsPerYear, unit.Second)
	case PoundsPerYear:
		mass = unit.New(v*c.c.GramsPerPound/1000, unit.Kilogram)
		period = unit.New(c.c.SecondsPerYear, unit.Second)
	case GramsPerDay:
		mass = unit.New(v/1000, unit.Kilogram)
		period = unit.New(c.c.SecondsPerDay, unit.Second)
	case GramsPerSecond:
		mass = unit.New(v/1000, unit.Kilogram)
		period = unit.New(1, unit.Second)
	default:
		return nil, fmt.Errorf("emis: unsupported emissions units %v", u)
	}
	r := unit.Div(mass, period)
	if err := r.Check(kgPerSecond); err != nil {
		return nil, fmt.Errorf("emis: %v", err)
	}
	return r, nil
}

var kgPerSecond = unit.Dimensions{unit.MassDim: 1, unit.TimeDim: -1}

// GramsPerSecond converts v, in units u, to grams per second. A missing
// value is an emission rate of zero.
func (c Converter) GramsPerSecond(v *float64, u Units) (float64, error) {
	if v == nil {
		return 0, nil
	}
	r, err := c.Rate(*v, u)
	if err != nil {
		return 0, err
	}
	return r.Value() * 1000, nil
}

// Inverse converts an emission rate in grams per second back into
// units u.
func (c Converter) Inverse(gps float64, u Units) (float64, error) {
	switch u {
	case TonsPerYear:
		return gps * c.c.SecondsPerYear / c.c.GramsPerShortTon, nil
	case PoundsPerYear:
		return gps * c.c.SecondsPerYear / c.c.GramsPerPound, nil
	case GramsPerDay:
		return gps * c.c.SecondsPerDay, nil
	case GramsPerSecond:
		return gps, nil
	}
	return 0, fmt.Errorf("emis: unsupported emissions units %v", u)
}

// PerVolume splits a daily total in grams across nvols volume sources
// and returns the rate of each in grams per second.
func (c Converter) PerVolume(gPerDay float64, nvols int) (float64, error) {
	if nvols <= 0 {
		return 0, fmt.Errorf("emis: number of volume sources must be positive but is %d", nvols)
	}
	gps, err := c.GramsPerSecond(&gPerDay, GramsPerDay)
	if err != nil {
		return 0, err
	}
	return gps / float64(nvols), nil
}

// Toxicity returns the toxicity-weighted emission rate of a pollutant
// emitted at gps grams per second with the given potency factor.
func (c Converter) Toxicity(gps, potency float64) float64 {
	return gps * c.c.InhalationFactor * potency
}
