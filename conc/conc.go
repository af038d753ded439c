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

// Package conc combines per-source dispersion factors with emission
// rates into concentration and cancer risk fields.
package conc

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/ptsrc"
	"github.com/spatialmodel/ptsrc/aermod"
	"github.com/spatialmodel/ptsrc/emis"
	"gonum.org/v1/gonum/floats"
)

// Location is a receptor location in the planar projection.
type Location struct {
	X, Y float64
}

// Value holds the impacts at one receptor.
type Value struct {
	// PM25 is the PM2.5 concentration [μg/m³].
	PM25 float64

	// CancerRisk is the toxicity-weighted concentration, which is
	// proportional to inhalation cancer risk.
	CancerRisk float64
}

// Field holds the impacts at each receptor.
type Field map[Location]Value

// Add adds v to the value at loc.
func (f Field) Add(loc Location, v Value) {
	o := f[loc]
	o.PM25 += v.PM25
	o.CancerRisk += v.CancerRisk
	f[loc] = o
}

// Locations returns the receptor locations in f, ordered by Y and then
// by X.
func (f Field) Locations() []Location {
	o := make([]Location, 0, len(f))
	for l := range f {
		o = append(o, l)
	}
	sort.Slice(o, func(i, j int) bool {
		if o[i].Y != o[j].Y {
			return o[i].Y < o[j].Y
		}
		return o[i].X < o[j].X
	})
	return o
}

// Round returns a copy of f with values rounded to prec decimal places.
// Halfway values are rounded to even.
func (f Field) Round(prec int) Field {
	o := make(Field, len(f))
	for l, v := range f {
		o[l] = Value{
			PM25:       floats.RoundEven(v.PM25, prec),
			CancerRisk: floats.RoundEven(v.CancerRisk, prec),
		}
	}
	return o
}

// FactorSource provides the dispersion factors of each source.
// *aermod.Workspace is a FactorSource.
type FactorSource interface {
	// PlotFile returns the dispersion factors of source devID, or
	// aermod.ErrNoOutput if the source has not been modeled.
	PlotFile(ctx context.Context, devID string, headerLines int) ([]aermod.DispersionFactor, error)
}

// Options control aggregation.
type Options struct {
	// HeaderLines is the number of header lines in each plot file.
	HeaderLines int

	// Workers is the number of plot files read at the same time.
	// Zero means one per processor.
	Workers int

	Log logrus.FieldLogger
}

// Result is the outcome of an aggregation.
type Result struct {
	Field Field

	// Included holds the sources whose impacts are in Field.
	Included []string

	// Missing holds the sources that have no plot file.
	Missing []string
}

type contribution struct {
	loc []Location
	val []Value
	err error
}

// Aggregate sums the impacts of sources devs, where the impact of a
// source at a receptor is its emission rate multiplied by its
// dispersion factor. pm holds the PM2.5 emission rates and twe the
// toxicity-weighted emission rates; a source with no rate in either
// contributes zero to that field. Sources without a plot file are
// skipped and listed in Result.Missing. Sources whose plot file cannot
// be read are skipped and returned as ptsrc.SourceErrors along with the
// result for the remaining sources.
//
// Contributions are summed in device identifier order, so the result
// does not depend on the order of devs and a subset of sources gives
// the same values as the full set would if the other sources had no
// emissions.
func Aggregate(ctx context.Context, src FactorSource, devs []string, pm, twe emis.Rates, o Options) (*Result, error) {
	log := o.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	devs = unique(devs)
	nprocs := o.Workers
	if nprocs <= 0 {
		nprocs = runtime.GOMAXPROCS(0)
	}

	contribs := make([]contribution, len(devs))
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for ii := pp; ii < len(devs); ii += nprocs {
				if err := ctx.Err(); err != nil {
					contribs[ii].err = err
					continue
				}
				contribs[ii] = contribute(ctx, src, devs[ii], pm, twe, o.HeaderLines)
			}
		}(pp)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := &Result{Field: make(Field)}
	var errs ptsrc.SourceErrors
	for i, c := range contribs {
		dev := devs[i]
		switch {
		case errors.Is(c.err, aermod.ErrNoOutput):
			log.WithField("DevID", dev).Warn("no AERMOD output; skipping source")
			r.Missing = append(r.Missing, dev)
			continue
		case c.err != nil:
			log.WithField("DevID", dev).WithError(c.err).Error("could not read AERMOD output; skipping source")
			errs = append(errs, ptsrc.SourceError{DevID: dev, Err: c.err})
			continue
		}
		for j, l := range c.loc {
			r.Field.Add(l, c.val[j])
		}
		r.Included = append(r.Included, dev)
	}
	log.WithFields(logrus.Fields{
		"included":  len(r.Included),
		"missing":   len(r.Missing),
		"failed":    len(errs),
		"receptors": len(r.Field),
	}).Info("aggregated source impacts")
	return r, errs.Err()
}

// contribute returns the impacts of one source.
func contribute(ctx context.Context, src FactorSource, dev string, pm, twe emis.Rates, headerLines int) contribution {
	df, err := src.PlotFile(ctx, dev, headerLines)
	if err != nil {
		return contribution{err: err}
	}
	pmRate, ok := pm.Lookup(dev)
	if !ok {
		pmRate = 0
	}
	tweRate, ok := twe.Lookup(dev)
	if !ok {
		tweRate = 0
	}
	c := contribution{
		loc: make([]Location, len(df)),
		val: make([]Value, len(df)),
	}
	for i, d := range df {
		c.loc[i] = Location{X: d.X, Y: d.Y}
		c.val[i] = Value{PM25: pmRate * d.Conc, CancerRisk: tweRate * d.Conc}
	}
	return c
}

// unique returns the sorted unique elements of s.
func unique(s []string) []string {
	m := make(map[string]struct{}, len(s))
	o := make([]string, 0, len(s))
	for _, v := range s {
		if _, ok := m[v]; ok {
			continue
		}
		m[v] = struct{}{}
		o = append(o, v)
	}
	sort.Strings(o)
	return o
}
