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

// Package grid holds the meteorological modeling grid and locates
// emission sources within it.
package grid

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
	goshp "github.com/jonas-p/go-shp"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/ptsrc"
)

// Names of the cell index columns in grid shapefiles.
const (
	IField = "I_CELL"
	JField = "J_CELL"
)

// Cell is a grid cell.
type Cell struct {
	geom.Polygonal

	// I and J are the cell indices after the offset has been applied.
	I, J int

	// ID is the composite cell identifier, "I_J".
	ID string

	// order is the position of the cell in the grid file.
	order int
}

// Grid is a set of grid cells in a planar projection.
type Grid struct {
	Cells []*Cell
	SR    *proj.SR

	index *rtree.Rtree
}

// CellID returns the composite identifier of the cell with indices i and j.
func CellID(i, j int) string {
	return fmt.Sprintf("%d_%d", i, j)
}

// NoContainingCellError is returned when a point is not within any
// grid cell.
type NoContainingCellError struct {
	DevID string
	Point geom.Point
}

func (e *NoContainingCellError) Error() string {
	if e.DevID == "" {
		return fmt.Sprintf("grid: point (%g, %g) is not within any grid cell", e.Point.X, e.Point.Y)
	}
	return fmt.Sprintf("grid: source %s at (%g, %g) is not within any grid cell", e.DevID, e.Point.X, e.Point.Y)
}

// New creates a grid from polygons g with native indices i and j.
// The offsets are added to the native indices and the polygons are
// transformed from inputSR to outputSR.
func New(g []geom.Polygonal, i, j []int, inputSR, outputSR *proj.SR, offsetI, offsetJ int) (*Grid, error) {
	if len(g) != len(i) || len(g) != len(j) {
		return nil, fmt.Errorf("grid: %d polygons but %d I and %d J indices", len(g), len(i), len(j))
	}
	ct, err := inputSR.NewTransform(outputSR)
	if err != nil {
		return nil, fmt.Errorf("grid: creating transform: %v", err)
	}
	grid := &Grid{
		Cells: make([]*Cell, len(g)),
		SR:    outputSR,
		index: rtree.NewTree(25, 50),
	}
	for n, gg := range g {
		gg2, err := gg.Transform(ct)
		if err != nil {
			return nil, fmt.Errorf("grid: transforming cell %d: %v", n, err)
		}
		c := &Cell{
			Polygonal: gg2.(geom.Polygonal),
			I:         i[n] + offsetI,
			J:         j[n] + offsetJ,
			order:     n,
		}
		c.ID = CellID(c.I, c.J)
		grid.Cells[n] = c
		grid.index.Insert(c)
	}
	return grid, nil
}

// Load reads a grid from the shapefile at path, which must have
// I_CELL and J_CELL columns and an accompanying .prj file.
func Load(path string, outputSR *proj.SR, offsetI, offsetJ int) (*Grid, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("grid: opening %s: %v", path, err)
	}
	defer d.Close()

	have := make(map[string]bool)
	for _, f := range d.Fields() {
		have[strings.ToUpper(strings.TrimRight(string(f.Name[:]), "\x00"))] = true
	}
	for _, name := range []string{IField, JField} {
		if !have[name] {
			return nil, &ptsrc.SchemaError{Table: filepath.Base(path), Column: name}
		}
	}

	inputSR, err := d.SR()
	if err != nil {
		return nil, fmt.Errorf("grid: reading projection of %s: %v", path, err)
	}

	var polys []geom.Polygonal
	var is, js []int
	for {
		g, fields, more := d.DecodeRowFields(IField, JField)
		if !more {
			break
		}
		p, ok := g.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("grid: %s row %d: geometry type %T is not a polygon", path, len(polys), g)
		}
		i, err := parseIndex(fields[IField])
		if err != nil {
			return nil, fmt.Errorf("grid: %s row %d: %v", path, len(polys), err)
		}
		j, err := parseIndex(fields[JField])
		if err != nil {
			return nil, fmt.Errorf("grid: %s row %d: %v", path, len(polys), err)
		}
		polys = append(polys, p)
		is = append(is, i)
		js = append(js, j)
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("grid: reading %s: %v", path, err)
	}
	return New(polys, is, js, inputSR, outputSR, offsetI, offsetJ)
}

// parseIndex parses a cell index, which may be stored as a
// floating-point number.
func parseIndex(s string) (int, error) {
	s = strings.TrimSpace(strings.Trim(s, "\x00"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cell index %q", s)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("cell index %q is not an integer", s)
	}
	return int(f), nil
}

// Locate returns the cell containing p, which must be in the grid
// projection. Points on a cell edge are within that cell; if more than
// one cell contains p, the cell that comes first in the grid file is
// returned. It returns *NoContainingCellError if no cell contains p.
func (g *Grid) Locate(p geom.Point) (*Cell, error) {
	var found *Cell
	for _, cI := range g.index.SearchIntersect(p.Bounds()) {
		c := cI.(*Cell)
		if p.Within(c.Polygonal) == geom.Outside {
			continue
		}
		if found == nil || c.order < found.order {
			found = c
		}
	}
	if found == nil {
		return nil, &NoContainingCellError{Point: p}
	}
	return found, nil
}

// Assign sets the CellID of each record to the cell containing its
// location. Records outside the grid are left unchanged and reported
// in the returned error.
func (g *Grid) Assign(recs []ptsrc.SourceRecord, log logrus.FieldLogger) error {
	var errs ptsrc.SourceErrors
	for i, r := range recs {
		c, err := g.Locate(r.Location)
		if err != nil {
			if e, ok := err.(*NoContainingCellError); ok {
				e.DevID = r.DevID
			}
			log.WithFields(logrus.Fields{"DevID": r.DevID, "X": r.Location.X, "Y": r.Location.Y}).Error("source is outside the grid")
			errs = append(errs, ptsrc.SourceError{DevID: r.DevID, Err: err})
			continue
		}
		recs[i].CellID = c.ID
	}
	return errs.Err()
}

// WriteShp writes the grid, with offset indices, to a shapefile at
// path. projection is written to the .prj file.
func (g *Grid) WriteShp(path, projection string) error {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range []string{".shp", ".prj", ".dbf", ".shx"} {
		os.Remove(base + ext)
	}
	fields := []goshp.Field{
		goshp.StringField("I_J", 20),
		goshp.NumberField(IField, 10),
		goshp.NumberField(JField, 10),
	}
	e, err := shp.NewEncoderFromFields(base+".shp", goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("grid: creating shapefile: %v", err)
	}
	for _, c := range g.Cells {
		if err := e.EncodeFields(c.Polygonal, c.ID, c.I, c.J); err != nil {
			e.Close()
			return fmt.Errorf("grid: writing shapefile: %v", err)
		}
	}
	e.Close()

	f, err := os.Create(base + ".prj")
	if err != nil {
		return fmt.Errorf("grid: creating prj file: %v", err)
	}
	fmt.Fprint(f, projection)
	return f.Close()
}
