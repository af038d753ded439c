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

package conc

import (
	"sort"

	"github.com/spatialmodel/ptsrc"
	"github.com/spatialmodel/ptsrc/emis"
	"gonum.org/v1/gonum/floats"
)

// FacilityTotal is the total emission rate of a facility.
type FacilityTotal struct {
	FacilityID string
	Total      float64
}

// Rank groups rates by facility, where the facility of a device is the
// part of its identifier before sep, and returns the n facilities with
// the highest total rates in descending order. Facilities with equal
// totals are ordered by identifier. n <= 0 returns all facilities.
func Rank(rates emis.Rates, sep string, n int) []FacilityTotal {
	byFac := make(map[string][]float64)
	var facs []string
	for _, dev := range rates.Devices() {
		f := ptsrc.FacilityID(dev, sep)
		if _, ok := byFac[f]; !ok {
			facs = append(facs, f)
		}
		byFac[f] = append(byFac[f], rates[dev])
	}
	sort.Strings(facs)
	o := make([]FacilityTotal, len(facs))
	for i, f := range facs {
		o[i] = FacilityTotal{FacilityID: f, Total: floats.Sum(byFac[f])}
	}
	sort.SliceStable(o, func(i, j int) bool { return o[i].Total > o[j].Total })
	if n > 0 && n < len(o) {
		o = o[:n]
	}
	return o
}

// FacilityDevices returns the elements of devs that belong to facility
// fac.
func FacilityDevices(devs []string, fac, sep string) []string {
	var o []string
	for _, d := range devs {
		if ptsrc.FacilityID(d, sep) == fac {
			o = append(o, d)
		}
	}
	return o
}
