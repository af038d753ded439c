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

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/spatialmodel/ptsrc/conc"
)

// Shapefile field names of the receptor values.
const (
	PM25Field       = "PM25_CONC"
	CancerRiskField = "CANCRSK"
)

// WriteShapefile writes f to a point shapefile at path, with one
// feature per receptor and the variables in d as extra fields.
// projection, the projection of the receptor locations, is written to
// the .prj file.
func WriteShapefile(path string, f conc.Field, projection string, d *Derived) error {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if err := os.MkdirAll(filepath.Dir(base), os.ModePerm); err != nil {
		return fmt.Errorf("report: %v", err)
	}
	names := append([]string{PM25Field, CancerRiskField}, d.Names()...)
	fields := make([]goshp.Field, len(names))
	for i, n := range names {
		fields[i] = goshp.FloatField(n, 14, 8)
	}
	e, err := shp.NewEncoderFromFields(base+".shp", goshp.POINT, fields...)
	if err != nil {
		return fmt.Errorf("report: creating shapefile: %v", err)
	}
	for _, l := range f.Locations() {
		v := f[l]
		derived, err := d.Eval(v)
		if err != nil {
			e.Close()
			return err
		}
		vals := []interface{}{v.PM25, v.CancerRisk}
		for _, x := range derived {
			vals = append(vals, x)
		}
		if err := e.EncodeFields(geom.Point{X: l.X, Y: l.Y}, vals...); err != nil {
			e.Close()
			return fmt.Errorf("report: writing shapefile: %v", err)
		}
	}
	e.Close()

	prj, err := os.Create(base + ".prj")
	if err != nil {
		return fmt.Errorf("report: creating prj file: %v", err)
	}
	fmt.Fprint(prj, projection)
	return prj.Close()
}
