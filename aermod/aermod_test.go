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

package aermod

import (
	"context"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/ptsrc"
	"github.com/spatialmodel/ptsrc/cloud"
)

func TestSourceSection(t *testing.T) {
	tests := []struct {
		name string
		rec  ptsrc.SourceRecord
		want string
		err  bool
	}{
		{
			name: "point",
			rec: ptsrc.SourceRecord{
				DevID:     "1234-5",
				Location:  geom.Point{X: 560123.456789, Y: 4182345.1},
				Elevation: 12.346,
				Type:      ptsrc.PointCap,
				Params:    ptsrc.PointParams{Height: 10, Diameter: 0.5, Temp: 400, Velocity: 12.25},
			},
			want: "   LOCATION     1234-5 POINTCAP 560123.4568 4182345.1000   12.35\n" +
				"   SRCPARAM     1234-5 1.000 10.000 400.000 12.250 0.500\n" +
				"   URBANSRC ALL\n" +
				"   SRCGROUP ALL\n",
		},
		{
			name: "volume",
			rec: ptsrc.SourceRecord{
				DevID:    "G1",
				Location: geom.Point{X: 1, Y: 2},
				Type:     ptsrc.Volume,
				Params:   ptsrc.VolumeParams{ReleaseHeight: 1.03, SigmaY: 2.5, SigmaZ: 0.479},
			},
			want: "   LOCATION         G1 VOLUME      1.0000      2.0000    0.00\n" +
				"   SRCPARAM         G1 1.000 1.030 2.500 0.479\n" +
				"   URBANSRC ALL\n" +
				"   SRCGROUP ALL\n",
		},
		{
			name: "unknown type",
			rec:  ptsrc.SourceRecord{DevID: "X", Type: "AREA", Params: ptsrc.PointParams{}},
			err:  true,
		},
		{
			name: "no parameters",
			rec:  ptsrc.SourceRecord{DevID: "X", Type: ptsrc.Point},
			err:  true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := SourceSection(test.rec)
			if test.err {
				var ue *ptsrc.UnknownSourceTypeError
				if !errors.As(err, &ue) {
					t.Errorf("have error %v, want UnknownSourceTypeError", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != test.want {
				t.Errorf("have\n%q\nwant\n%q", got, test.want)
			}
		})
	}
}

func TestOutputSection(t *testing.T) {
	want := "   PLOTFILE 1 ALL 1ST H1G_A-1.PLT\n   PLOTFILE PERIOD ALL PE_A-1.PLT"
	if got := OutputSection("A-1"); got != want {
		t.Errorf("have %q, want %q", got, want)
	}
}

func TestTemplate(t *testing.T) {
	tmpl, err := ParseTemplate("CO STARTING\r\nSO INCLUDED {}\r\nRE {}\r\nME {}\r\nOU {}\r\n** {{literal}}\r\n")
	if err != nil {
		t.Fatal(err)
	}
	got := string(UnixLineEndings([]byte(tmpl.Fill("a.src", "r.rec", "SURFFILE x", "PLOTFILE"))))
	want := "CO STARTING\nSO INCLUDED a.src\nRE r.rec\nME SURFFILE x\nOU PLOTFILE\n** {literal}\n"
	if got != want {
		t.Errorf("have %q, want %q", got, want)
	}

	for _, bad := range []string{"{} {} {}", "{} {} {} {} {}", "{} {} {x} {} {}", "{} } {} {} {}"} {
		if _, err := ParseTemplate(bad); err == nil {
			t.Errorf("%q: expected an error", bad)
		}
	}
}

func TestExpandMet(t *testing.T) {
	got := ExpandMet("   SURFFILE CELLIJ_36_52.SFC\n   PROFFILE CELLIJ_36_52.PFL\n", "/met/")
	want := "   SURFFILE /met/CELLIJ_36_52.SFC\n   PROFFILE /met/CELLIJ_36_52.PFL\n"
	if got != want {
		t.Errorf("have %q, want %q", got, want)
	}
}

const testPlot = `* AERMOD ( 19191): test
* MODELING OPTIONS USED: RegDFAULT CONC ELEV URBAN
*         PLOT FILE OF PERIOD VALUES AVERAGED ACROSS 1 YEARS FOR SOURCE GROUP: ALL
*         FOR A TOTAL OF    2 RECEPTORS.
*         FORMAT: (2(1X,F13.5),1X,F13.5,3(1X,F8.2),2X,A6,2X,A8,2X,I8.8,2X,A8)
*        X             Y      AVERAGE CONC    ZELEV    ZHILL    ZFLAG    AVE     GRP       NUM HRS   NET ID
* ____________  ____________  ____________  ______  ______  ______  ______  ________  ________  ________
    100.00000     200.00000       0.50000     5.00     5.00     0.00  PERIOD  ALL       00008760  NA
    150.00000     200.00000       0.25000     6.00     7.00     1.50  PERIOD  ALL       00008760  NA
`

func TestReadPlotFile(t *testing.T) {
	df, err := ReadPlotFile(strings.NewReader(testPlot), 7)
	if err != nil {
		t.Fatal(err)
	}
	want := []DispersionFactor{
		{X: 100, Y: 200, Conc: 0.5, ZElev: 5, ZHill: 5, ZFlag: 0, Ave: "PERIOD", Grp: "ALL", Hrs: "00008760", ID: "NA"},
		{X: 150, Y: 200, Conc: 0.25, ZElev: 6, ZHill: 7, ZFlag: 1.5, Ave: "PERIOD", Grp: "ALL", Hrs: "00008760", ID: "NA"},
	}
	if diff := pretty.Diff(df, want); len(diff) > 0 {
		t.Errorf("%v", diff)
	}

	if _, err := ReadPlotFile(strings.NewReader("h\n1 2 3\n"), 1); err == nil {
		t.Error("expected an error for a short row")
	}
	if _, err := ReadPlotFile(strings.NewReader("1 2 x 4 5 6 a b c d\n"), 0); err == nil {
		t.Error("expected an error for a non-numeric value")
	}
}

func TestCompileAll(t *testing.T) {
	ctx := context.Background()
	metDir, err := ioutil.TempDir("", "met")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(metDir)
	if err := ioutil.WriteFile(MetFile(metDir, "36_52"), []byte("   SURFFILE CELLIJ_36_52.SFC\r\n"), 0644); err != nil {
		t.Fatal(err)
	}
	tmpl, err := ParseTemplate("SO STARTING\r\n   INCLUDED {}\r\nSO FINISHED\r\nRE INCLUDED {}\r\nME STARTING\r\n{}ME FINISHED\r\nOU STARTING\r\n{}\r\nOU FINISHED\r\n")
	if err != nil {
		t.Fatal(err)
	}
	w, err := OpenWorkspace(ctx, "mem://aermod")
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	c := NewCompiler(tmpl, "/recs/grid.rec", metDir, "/cluster/met/", w, logrus.New())

	pp := ptsrc.PointParams{Height: 10, Diameter: 1, Temp: 300, Velocity: 5}
	recs := []ptsrc.SourceRecord{
		{DevID: "A-1", Type: ptsrc.Point, Params: pp, CellID: "36_52"},
		{DevID: "A-2", Type: ptsrc.Point, Params: pp, CellID: "1_1"}, // no met file
		{DevID: "A-3", Type: ptsrc.PointHor, Params: pp, CellID: "36_52"},
		{DevID: "A-4", Type: ptsrc.Point, Params: pp}, // no cell
	}
	err = c.CompileAll(ctx, recs, 2)
	errs, ok := err.(ptsrc.SourceErrors)
	if !ok {
		t.Fatalf("have error %v, want SourceErrors", err)
	}
	if diff := pretty.Diff(errs.DevIDs(), []string{"A-2", "A-4"}); len(diff) > 0 {
		t.Errorf("%v", diff)
	}

	inp, err := w.Input(ctx, "A-1")
	if err != nil {
		t.Fatal(err)
	}
	want := "SO STARTING\n   INCLUDED A-1.src\nSO FINISHED\nRE INCLUDED /recs/grid.rec\n" +
		"ME STARTING\n   SURFFILE /cluster/met/CELLIJ_36_52.SFC\nME FINISHED\n" +
		"OU STARTING\n   PLOTFILE 1 ALL 1ST H1G_A-1.PLT\n   PLOTFILE PERIOD ALL PE_A-1.PLT\nOU FINISHED\n"
	if string(inp) != want {
		t.Errorf("have\n%s\nwant\n%s", inp, want)
	}
	keys, err := cloud.List(ctx, w.Bucket, "")
	if err != nil {
		t.Fatal(err)
	}
	wantKeys := []string{"A-1/A-1.src", "A-1/aermod.inp", "A-3/A-3.src", "A-3/aermod.inp"}
	if diff := pretty.Diff(keys, wantKeys); len(diff) > 0 {
		t.Errorf("%v", diff)
	}
}

func TestPlotFileMissing(t *testing.T) {
	ctx := context.Background()
	dir, err := ioutil.TempDir("", "aermod")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	w, err := OpenWorkspace(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if _, err := w.PlotFile(ctx, "A-1", 7); err != ErrNoOutput {
		t.Errorf("have %v, want ErrNoOutput", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "A-1"), os.ModePerm); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(filepath.Join(dir, "A-1", "PE_A-1.PLT"), []byte(testPlot), 0644); err != nil {
		t.Fatal(err)
	}
	df, err := w.PlotFile(ctx, "A-1", 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(df) != 2 {
		t.Errorf("have %d rows", len(df))
	}
}

func TestFileWorkspaceRunDirectory(t *testing.T) {
	ctx := context.Background()
	dir, err := ioutil.TempDir("", "aermod")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	metDir := filepath.Join(dir, "met")
	if err := os.MkdirAll(metDir, os.ModePerm); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(MetFile(metDir, "36_52"), []byte("   SURFFILE CELLIJ_36_52.SFC\n"), 0644); err != nil {
		t.Fatal(err)
	}
	tmpl, err := ParseTemplate("SO INCLUDED {}\nRE {}\nME STARTING\n{}ME FINISHED\nOU {}\n")
	if err != nil {
		t.Fatal(err)
	}
	w, err := OpenWorkspace(ctx, filepath.Join(dir, "workspace"))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	c := NewCompiler(tmpl, "", metDir, "", w, logrus.New())
	pp := ptsrc.PointParams{Height: 10, Diameter: 1, Temp: 300, Velocity: 5}
	if _, err := c.Compile(ctx, ptsrc.SourceRecord{DevID: "A-1", Type: ptsrc.Point, Params: pp, CellID: "36_52"}); err != nil {
		t.Fatal(err)
	}

	keys, err := cloud.List(ctx, w.Bucket, "")
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(keys, []string{"A-1/A-1.src", "A-1/aermod.inp"}); len(diff) > 0 {
		t.Errorf("metadata files should not be workspace keys: %v", diff)
	}

	run := filepath.Join(dir, "run")
	if err := cloud.Download(ctx, w.Bucket, "A-1/", run); err != nil {
		t.Fatal(err)
	}
	fi, err := ioutil.ReadDir(filepath.Join(run, "A-1"))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, f := range fi {
		names = append(names, f.Name())
	}
	if diff := pretty.Diff(names, []string{"A-1.src", "aermod.inp"}); len(diff) > 0 {
		t.Errorf("run directory: %v", diff)
	}
}
