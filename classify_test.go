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
	"errors"
	"math"
	"testing"

	"github.com/kr/pretty"
)

func fp(v float64) *float64 { return &v }
func sp(s string) *string   { return &s }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		raw  RawSource
		want SourceType
	}{
		{name: "stack", raw: RawSource{Type: "STACK"}, want: Point},
		{name: "bug", raw: RawSource{Type: "BUG"}, want: Point},
		{name: "point", raw: RawSource{Type: "POINT"}, want: Point},
		{name: "volume", raw: RawSource{Type: "VOLUME"}, want: Volume},
		{name: "rain cap", raw: RawSource{Type: "STACK", RainCap: true}, want: PointCap},
		{name: "horizontal", raw: RawSource{Type: "STACK", Outlet: sp("H")}, want: PointHor},
		{name: "horizontal word", raw: RawSource{Type: "STACK", Outlet: sp("Horizontal")}, want: PointHor},
		{name: "vertical", raw: RawSource{Type: "STACK", Outlet: sp("V")}, want: Point},
		{
			name: "rain cap and horizontal",
			raw:  RawSource{Type: "STACK", RainCap: true, Outlet: sp("H")},
			want: PointHor,
		},
		{
			name: "gdf overrides",
			raw:  RawSource{Type: "STACK", RainCap: true, Outlet: sp("H"), GDF: true},
			want: Volume,
		},
		{name: "unknown passes through", raw: RawSource{Type: "FLARE"}, want: SourceType("FLARE")},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Classify(test.raw)
			if got != test.want {
				t.Errorf("have %s, want %s", got, test.want)
			}
		})
	}
}

func TestGDFVolume(t *testing.T) {
	g := DefaultConfig().GDF
	p := GDFVolume(fp(8), fp(2), g)
	n := 10.
	want := VolumeParams{
		ReleaseHeight: 1.03,
		SigmaY:        -0.00393*n*n + 0.3292*n + 0.7285,
		SigmaZ:        1.03 / 2.15,
	}
	if diff := pretty.Diff(p, want); len(diff) > 0 {
		t.Errorf("%v", diff)
	}

	p = GDFVolume(nil, fp(math.NaN()), g)
	if p.SigmaY != 0.7285 {
		t.Errorf("missing nozzle counts: have syinit %g, want 0.7285", p.SigmaY)
	}
}

func TestNewSourceRecord(t *testing.T) {
	c := DefaultConfig()
	t.Run("point", func(t *testing.T) {
		r, err := NewSourceRecord(RawSource{
			DevID: "A1-3", Type: "STACK",
			StackHeight: fp(10), StackDiameter: fp(0.5), StackTemp: fp(400), StackVelocity: fp(12),
		}, c)
		if err != nil {
			t.Fatal(err)
		}
		want := SourceRecord{
			DevID: "A1-3", FacilityID: "A1", Type: Point,
			Params: PointParams{Height: 10, Diameter: 0.5, Temp: 400, Velocity: 12},
		}
		if diff := pretty.Diff(r, want); len(diff) > 0 {
			t.Errorf("%v", diff)
		}
	})
	t.Run("gdf", func(t *testing.T) {
		r, err := NewSourceRecord(RawSource{DevID: "G7-1", GDF: true}, c)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := r.Params.(VolumeParams); !ok || r.Type != Volume {
			t.Errorf("have %s %T, want VOLUME VolumeParams", r.Type, r.Params)
		}
	})
	t.Run("missing stack parameter", func(t *testing.T) {
		_, err := NewSourceRecord(RawSource{
			DevID: "A1-4", Type: "STACK",
			StackHeight: fp(10), StackDiameter: fp(0.5), StackVelocity: fp(12),
		}, c)
		var mpe *MissingParameterError
		if !errors.As(err, &mpe) {
			t.Fatalf("have error %v, want MissingParameterError", err)
		}
		if mpe.DevID != "A1-4" || mpe.Field != "Temp_K" {
			t.Errorf("have %+v", mpe)
		}
	})
	t.Run("unknown type", func(t *testing.T) {
		_, err := NewSourceRecord(RawSource{DevID: "A1-5", Type: "FLARE"}, c)
		var ute *UnknownSourceTypeError
		if !errors.As(err, &ute) {
			t.Fatalf("have error %v, want UnknownSourceTypeError", err)
		}
	})
}

func TestFacilityID(t *testing.T) {
	for dev, want := range map[string]string{
		"12345-S1":  "12345",
		"12345-S-1": "12345",
		"12345":     "12345",
	} {
		if got := FacilityID(dev, "-"); got != want {
			t.Errorf("%s: have %s, want %s", dev, got, want)
		}
	}
}

func TestSourceErrors(t *testing.T) {
	var errs SourceErrors
	if errs.Err() != nil {
		t.Errorf("empty SourceErrors should give a nil error")
	}
	errs = append(errs, SourceError{DevID: "b", Err: errors.New("x")}, SourceError{DevID: "a", Err: errors.New("y")})
	err := errs.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	if diff := pretty.Diff(errs.DevIDs(), []string{"a", "b"}); len(diff) > 0 {
		t.Errorf("%v", diff)
	}
}
