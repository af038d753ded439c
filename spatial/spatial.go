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

// Package spatial wraps coordinate pairs into point geometries and
// reprojects them between spatial references.
package spatial

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// Parse parses a PROJ4- or WKT-formatted spatial reference.
func Parse(projection string) (*proj.SR, error) {
	sr, err := proj.Parse(projection)
	if err != nil {
		return nil, fmt.Errorf("spatial: parsing projection %q: %v", projection, err)
	}
	return sr, nil
}

// NewTransform returns a function that transforms coordinates from
// the from projection to the to projection.
func NewTransform(from, to string) (proj.Transformer, error) {
	src, err := Parse(from)
	if err != nil {
		return nil, err
	}
	dst, err := Parse(to)
	if err != nil {
		return nil, err
	}
	ct, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("spatial: creating transform: %v", err)
	}
	return ct, nil
}

// Points creates points from matching slices of x and y coordinates.
func Points(xs, ys []float64) ([]geom.Point, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("spatial: %d x coordinates but %d y coordinates", len(xs), len(ys))
	}
	o := make([]geom.Point, len(xs))
	for i := range xs {
		o[i] = geom.Point{X: xs[i], Y: ys[i]}
	}
	return o, nil
}

// Reproject transforms pts with ct.
func Reproject(pts []geom.Point, ct proj.Transformer) ([]geom.Point, error) {
	o := make([]geom.Point, len(pts))
	for i, p := range pts {
		var err error
		o[i].X, o[i].Y, err = ct(p.X, p.Y)
		if err != nil {
			return nil, fmt.Errorf("spatial: reprojecting point %+v: %v", p, err)
		}
	}
	return o, nil
}

// ReprojectPoint transforms the point (x, y) from the from projection
// to the to projection.
func ReprojectPoint(x, y float64, from, to string) (geom.Point, error) {
	ct, err := NewTransform(from, to)
	if err != nil {
		return geom.Point{}, err
	}
	pts, err := Reproject([]geom.Point{{X: x, Y: y}}, ct)
	if err != nil {
		return geom.Point{}, err
	}
	return pts[0], nil
}
