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
	"math"
	"testing"

	"github.com/kr/pretty"
	"github.com/spatialmodel/ptsrc"
	"github.com/spatialmodel/ptsrc/setup"
)

func similar(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b)/math.Max(math.Abs(a), math.Abs(b)) < 1.e-12
}

func TestGramsPerSecond(t *testing.T) {
	c := NewConverter(ptsrc.DefaultConfig())
	tests := []struct {
		v    float64
		u    Units
		want float64
	}{
		{v: 1, u: TonsPerYear, want: 907184.74 / 365 / 24 / 3600},
		{v: 10, u: PoundsPerYear, want: 10 * 453.592 / 365 / 24 / 3600},
		{v: 86400, u: GramsPerDay, want: 1},
		{v: 2.5, u: GramsPerSecond, want: 2.5},
	}
	for _, test := range tests {
		t.Run(test.u.String(), func(t *testing.T) {
			v := test.v
			got, err := c.GramsPerSecond(&v, test.u)
			if err != nil {
				t.Fatal(err)
			}
			if !similar(got, test.want) {
				t.Errorf("have %g, want %g", got, test.want)
			}
		})
	}
	got, err := c.GramsPerSecond(nil, TonsPerYear)
	if err != nil || got != 0 {
		t.Errorf("missing value: have %g, %v", got, err)
	}
}

func TestRoundTrip(t *testing.T) {
	c := NewConverter(ptsrc.DefaultConfig())
	for _, u := range []Units{TonsPerYear, PoundsPerYear, GramsPerDay, GramsPerSecond} {
		for _, v := range []float64{0, 1.e-6, 0.37, 1, 12345.678} {
			v := v
			gps, err := c.GramsPerSecond(&v, u)
			if err != nil {
				t.Fatal(err)
			}
			back, err := c.Inverse(gps, u)
			if err != nil {
				t.Fatal(err)
			}
			if !similar(back, v) {
				t.Errorf("%v: %g round trips to %g", u, v, back)
			}
		}
	}
}

func TestParseUnits(t *testing.T) {
	for s, want := range map[string]Units{
		"tons/year": TonsPerYear,
		"Tons/Yr":   TonsPerYear,
		"lb/year":   PoundsPerYear,
		"lbs / yr":  PoundsPerYear,
		"g/day":     GramsPerDay,
	} {
		got, err := ParseUnits(s)
		if err != nil {
			t.Errorf("%s: %v", s, err)
		} else if got != want {
			t.Errorf("%s: have %v, want %v", s, got, want)
		}
	}
	if _, err := ParseUnits("kg/hour"); err == nil {
		t.Error("expected an error")
	}
}

func TestPerVolume(t *testing.T) {
	c := NewConverter(ptsrc.DefaultConfig())
	v, err := c.PerVolume(864000, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !similar(v, 2.5) {
		t.Errorf("have %g, want 2.5", v)
	}
	if _, err := c.PerVolume(1, 0); err == nil {
		t.Error("expected an error for zero volumes")
	}
}

func TestRates(t *testing.T) {
	cfg := ptsrc.DefaultConfig()
	c := NewConverter(cfg)
	pm := setup.NewTable(setup.PMEmissions, []string{setup.DevID, setup.Emissions, setup.Units}, [][]string{
		{"A-1", "1", ""},
		{"A-1", "1", ""},
		{"A-2", "", ""},
		{"B-1", "86400", "g/day"},
	})
	pmr, err := c.PMRates(pm)
	if err != nil {
		t.Fatal(err)
	}
	tpy := 907184.74 / 365 / 24 / 3600
	if !similar(pmr["A-1"], 2*tpy) || pmr["A-2"] != 0 || !similar(pmr["B-1"], 1) {
		t.Errorf("have %v", pmr)
	}

	tac := setup.NewTable(setup.TACEmissions, []string{setup.DevID, setup.Pollutant, setup.Emissions}, [][]string{
		{"A-1", "9901", "100"},
		{"A-1", "41", "50"},
		{"A-1", "999", "50"}, // no potency factor
		{"C-1", "41", ""},
	})
	gdf := setup.NewTable(setup.GDFEmissions, []string{setup.DevID, setup.Pollutant, setup.Emissions}, [][]string{
		{"G-1", "41", "200"},
	})
	potency := setup.Potency{"9901": 1.1, "41": 0.1}
	twe, err := c.TWERates(potency, tac, gdf)
	if err != nil {
		t.Fatal(err)
	}
	lb := 453.592 / 365 / 24 / 3600
	want := Rates{
		"A-1": 100*lb*677*1.1 + 50*lb*677*0.1,
		"C-1": 0,
		"G-1": 200 * lb * 677 * 0.1,
	}
	for dev, w := range want {
		if !similar(twe[dev], w) {
			t.Errorf("%s: have %g, want %g", dev, twe[dev], w)
		}
	}
	if diff := pretty.Diff(Devices(pmr, twe), []string{"A-1", "A-2", "B-1", "C-1", "G-1"}); len(diff) > 0 {
		t.Errorf("%v", diff)
	}
	if _, ok := twe.Lookup("A-2"); ok {
		t.Error("A-2 has no TAC emissions")
	}
}
