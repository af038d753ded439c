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
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/ptsrc"
	"github.com/spatialmodel/ptsrc/aermod"
	"github.com/spatialmodel/ptsrc/emis"
)

// plots is an in-memory FactorSource.
type plots map[string][]aermod.DispersionFactor

func (p plots) PlotFile(ctx context.Context, devID string, headerLines int) ([]aermod.DispersionFactor, error) {
	if devID == "bad" {
		return nil, errors.New("corrupt plot file")
	}
	df, ok := p[devID]
	if !ok {
		return nil, aermod.ErrNoOutput
	}
	return df, nil
}

func factors(vals ...float64) []aermod.DispersionFactor {
	o := make([]aermod.DispersionFactor, len(vals)/3)
	for i := range o {
		o[i] = aermod.DispersionFactor{X: vals[i*3], Y: vals[i*3+1], Conc: vals[i*3+2]}
	}
	return o
}

func opts() Options {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return Options{Workers: 2, Log: log}
}

func TestAggregate(t *testing.T) {
	src := plots{
		"S1": factors(100, 200, 0.5),
		"S2": factors(100, 200, 0.5),
		"S3": factors(100, 200, 0.5),
	}
	pm := emis.Rates{"S1": 2, "S3": 1}
	twe := emis.Rates{"S1": 4}
	r, err := Aggregate(context.Background(), src, []string{"S1", "S2", "S3"}, pm, twe, opts())
	if err != nil {
		t.Fatal(err)
	}
	got := r.Field.Round(2)
	want := Field{{X: 100, Y: 200}: {PM25: 1.5, CancerRisk: 2}}
	if diff := pretty.Diff(got, want); len(diff) > 0 {
		t.Errorf("%v", diff)
	}
	if diff := pretty.Diff(r.Included, []string{"S1", "S2", "S3"}); len(diff) > 0 {
		t.Errorf("%v", diff)
	}
}

func TestAggregateMissing(t *testing.T) {
	src := plots{
		"A-1": factors(0, 0, 1, 10, 0, 2),
	}
	pm := emis.Rates{"A-1": 1, "A-2": 1, "bad": 1}
	r, err := Aggregate(context.Background(), src, []string{"bad", "A-2", "A-1", "A-1"}, pm, nil, opts())
	errs, ok := err.(ptsrc.SourceErrors)
	if !ok {
		t.Fatalf("have error %v, want SourceErrors", err)
	}
	if diff := pretty.Diff(errs.DevIDs(), []string{"bad"}); len(diff) > 0 {
		t.Errorf("%v", diff)
	}
	if diff := pretty.Diff(r.Missing, []string{"A-2"}); len(diff) > 0 {
		t.Errorf("%v", diff)
	}
	want := Field{{X: 0, Y: 0}: {PM25: 1}, {X: 10, Y: 0}: {PM25: 2}}
	if diff := pretty.Diff(r.Field, want); len(diff) > 0 {
		t.Errorf("%v", diff)
	}
	if diff := pretty.Diff(r.Field.Locations(), []Location{{X: 0, Y: 0}, {X: 10, Y: 0}}); len(diff) > 0 {
		t.Errorf("%v", diff)
	}
}

func permutations(s []string) [][]string {
	if len(s) <= 1 {
		return [][]string{append([]string(nil), s...)}
	}
	var o [][]string
	for i := range s {
		rest := make([]string, 0, len(s)-1)
		rest = append(rest, s[:i]...)
		rest = append(rest, s[i+1:]...)
		for _, p := range permutations(rest) {
			o = append(o, append([]string{s[i]}, p...))
		}
	}
	return o
}

func TestAggregateOrderIndependent(t *testing.T) {
	src := plots{
		"A": factors(0, 0, 0.1, 1, 0, 0.7),
		"B": factors(0, 0, 0.2, 2, 0, 1e-9),
		"C": factors(0, 0, 0.3, 1, 0, 3.3),
	}
	pm := emis.Rates{"A": 0.1, "B": 1e8, "C": 0.3}
	twe := emis.Rates{"A": 7, "C": 1.0 / 3}
	var first Field
	for _, p := range permutations([]string{"A", "B", "C"}) {
		r, err := Aggregate(context.Background(), src, p, pm, twe, opts())
		if err != nil {
			t.Fatal(err)
		}
		if first == nil {
			first = r.Field
			continue
		}
		if !reflect.DeepEqual(r.Field, first) {
			t.Errorf("%v: have %v, want %v", p, r.Field, first)
		}
	}
}

func TestAggregateSubset(t *testing.T) {
	src := plots{
		"F-1": factors(0, 0, 0.1, 1, 0, 0.7),
		"G-1": factors(0, 0, 0.2, 2, 0, 0.4),
		"F-2": factors(0, 0, 0.3, 1, 0, 3.3, 5, 5, 1),
	}
	pm := emis.Rates{"F-1": 0.1, "G-1": 2, "F-2": 0.3}
	twe := emis.Rates{"F-1": 1, "G-1": 1, "F-2": 1}
	devs := []string{"F-1", "G-1", "F-2"}

	fDevs := FacilityDevices(devs, "F", "-")
	if diff := pretty.Diff(fDevs, []string{"F-1", "F-2"}); len(diff) > 0 {
		t.Fatalf("%v", diff)
	}
	sub, err := Aggregate(context.Background(), src, fDevs, pm, twe, opts())
	if err != nil {
		t.Fatal(err)
	}

	// Aggregating every source with the other facilities' emissions
	// removed gives the same values at the facility's receptors.
	pmF, tweF := emis.Rates{}, emis.Rates{}
	for _, d := range fDevs {
		pmF[d], tweF[d] = pm[d], twe[d]
	}
	all, err := Aggregate(context.Background(), src, devs, pmF, tweF, opts())
	if err != nil {
		t.Fatal(err)
	}
	for l, v := range sub.Field {
		if all.Field[l] != v {
			t.Errorf("%v: have %v, want %v", l, all.Field[l], v)
		}
	}
}

func TestFieldRound(t *testing.T) {
	f := Field{
		{X: 1, Y: 1}: {PM25: 0.125, CancerRisk: 0.375},
		{X: 2, Y: 1}: {PM25: -0.125, CancerRisk: 1.23456},
	}
	want := Field{
		{X: 1, Y: 1}: {PM25: 0.12, CancerRisk: 0.38},
		{X: 2, Y: 1}: {PM25: -0.12, CancerRisk: 1.23},
	}
	if diff := pretty.Diff(f.Round(2), want); len(diff) > 0 {
		t.Errorf("%v", diff)
	}
	if f[Location{X: 1, Y: 1}].PM25 != 0.125 {
		t.Error("Round should not modify its receiver")
	}
}

func TestRank(t *testing.T) {
	rates := make(emis.Rates)
	for i, v := range []float64{10, 5, 20, 1, 7} {
		rates[fmt.Sprintf("F%d-1", i+1)] = v / 2
		rates[fmt.Sprintf("F%d-2", i+1)] = v / 2
	}
	got := Rank(rates, "-", 3)
	want := []FacilityTotal{{"F3", 20}, {"F1", 10}, {"F5", 7}}
	if diff := pretty.Diff(got, want); len(diff) > 0 {
		t.Errorf("%v", diff)
	}
	if all := Rank(rates, "-", 0); len(all) != 5 {
		t.Errorf("have %d facilities", len(all))
	}

	ties := Rank(emis.Rates{"B-1": 1, "A-1": 1, "C-1": 2}, "-", 10)
	want = []FacilityTotal{{"C", 2}, {"A", 1}, {"B", 1}}
	if diff := pretty.Diff(ties, want); len(diff) > 0 {
		t.Errorf("ties: %v", diff)
	}
}
