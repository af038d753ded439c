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

package emis

import (
	"fmt"
	"sort"

	"github.com/spatialmodel/ptsrc/setup"
)

// Rates holds emission rates [g/s] by device identifier.
type Rates map[string]float64

// Lookup returns the rate of device dev. ok is false if the device has
// no rate.
func (r Rates) Lookup(dev string) (v float64, ok bool) {
	v, ok = r[dev]
	return
}

// Devices returns the sorted identifiers of all devices in r.
func (r Rates) Devices() []string {
	o := make([]string, 0, len(r))
	for d := range r {
		o = append(o, d)
	}
	sort.Strings(o)
	return o
}

// Devices returns the sorted, unique device identifiers in any of rs.
func Devices(rs ...Rates) []string {
	m := make(map[string]struct{})
	for _, r := range rs {
		for d := range r {
			m[d] = struct{}{}
		}
	}
	o := make([]string, 0, len(m))
	for d := range m {
		o = append(o, d)
	}
	sort.Strings(o)
	return o
}

// rowUnits returns the units of row i of t, which are given by the
// optional Units column and otherwise default to def.
func rowUnits(t *setup.Table, i int, def Units) (Units, error) {
	s, ok := t.String(i, setup.Units)
	if !ok {
		return def, nil
	}
	u, err := ParseUnits(s)
	if err != nil {
		return 0, fmt.Errorf("emis: table %q row %d: %v", t.Name, i+2, err)
	}
	return u, nil
}

// PMRates returns the particulate matter emission rate of each device
// in t, a PM Emissions table reported in tons per year unless a Units
// column says otherwise. Rows with no emissions value count as zero
// emissions.
func (c Converter) PMRates(t *setup.Table) (Rates, error) {
	r := make(Rates)
	for i := 0; i < t.Len(); i++ {
		dev, ok := t.ID(i, setup.DevID)
		if !ok {
			continue
		}
		v, err := t.Float(i, setup.Emissions)
		if err != nil {
			return nil, err
		}
		u, err := rowUnits(t, i, TonsPerYear)
		if err != nil {
			return nil, err
		}
		gps, err := c.GramsPerSecond(v, u)
		if err != nil {
			return nil, err
		}
		r[dev] += gps
	}
	return r, nil
}

// TWERates returns the toxicity-weighted emission rate of each device
// in the toxic air contaminant tables ts, which are reported in pounds
// per year unless a Units column says otherwise. Each device's rate is
// the sum over its pollutants of rate × inhalation factor × potency.
// Pollutants with no potency factor and rows with no emissions value
// contribute zero.
func (c Converter) TWERates(potency setup.Potency, ts ...*setup.Table) (Rates, error) {
	r := make(Rates)
	for _, t := range ts {
		for i := 0; i < t.Len(); i++ {
			dev, ok := t.ID(i, setup.DevID)
			if !ok {
				continue
			}
			v, err := t.Float(i, setup.Emissions)
			if err != nil {
				return nil, err
			}
			u, err := rowUnits(t, i, PoundsPerYear)
			if err != nil {
				return nil, err
			}
			gps, err := c.GramsPerSecond(v, u)
			if err != nil {
				return nil, err
			}
			pol, _ := t.ID(i, setup.Pollutant)
			pf, ok := potency.Lookup(pol)
			if !ok {
				pf = 0
			}
			r[dev] += c.Toxicity(gps, pf)
		}
	}
	return r, nil
}
