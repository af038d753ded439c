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

package ptsrcutil

import (
	"context"
	"fmt"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/ptsrc"
	"github.com/spatialmodel/ptsrc/aermod"
	"github.com/spatialmodel/ptsrc/elevation"
	"github.com/spatialmodel/ptsrc/grid"
	"github.com/spatialmodel/ptsrc/setup"
	"github.com/spatialmodel/ptsrc/spatial"
)

// elevationCacheSize is the number of elevations kept in memory.
const elevationCacheSize = 100000

// Preprocess writes an AERMOD input file for each source in the setup
// workbook and records the results in m. Problems with individual
// sources do not stop the others; they are returned together as
// ptsrc.SourceErrors after all other sources have been written. A
// failed elevation lookup stops the run.
func Preprocess(ctx context.Context, p PreprocessArgs, m *Manifest, log logrus.FieldLogger) error {
	var errs ptsrc.SourceErrors
	collect := func(err error) error {
		if se, ok := err.(ptsrc.SourceErrors); ok {
			errs = append(errs, se...)
			return nil
		}
		return err
	}

	if err := m.AddInputs(p.SetupFile, p.GridFile, p.TemplateFile); err != nil {
		return err
	}
	s, err := setup.Load(p.SetupFile)
	if err != nil {
		return err
	}
	log.WithField("setup", s).Info("loaded setup workbook")
	raw, err := s.RawSources()
	if err = collect(err); err != nil {
		return err
	}

	recs, err := SourceRecords(raw, p.Model)
	if err = collect(err); err != nil {
		return err
	}

	if err = resolveElevations(ctx, recs, p.Elevation, p.Workers, log); err != nil {
		return err
	}

	planar, err := spatial.Parse(p.Model.PlanarProj)
	if err != nil {
		return err
	}
	g, err := grid.Load(p.GridFile, planar, p.Model.GridOffsetI, p.Model.GridOffsetJ)
	if err != nil {
		return err
	}
	if err = collect(g.Assign(recs, log)); err != nil {
		return err
	}
	located := recs[:0:0]
	for _, r := range recs {
		if r.CellID != "" {
			located = append(located, r)
		}
	}

	tmpl, err := aermod.ReadTemplate(p.TemplateFile)
	if err != nil {
		return err
	}
	ws, err := aermod.OpenWorkspace(ctx, p.Workspace)
	if err != nil {
		return err
	}
	defer ws.Close()
	c := aermod.NewCompiler(tmpl, p.Receptors, p.MetDir, p.MetPrefix, ws, log)
	compileErr := c.CompileAll(ctx, located, p.Workers)
	if err = collect(compileErr); err != nil {
		return err
	}

	failed := make(map[string]bool)
	if se, ok := compileErr.(ptsrc.SourceErrors); ok {
		for _, e := range se {
			failed[e.DevID] = true
		}
	}
	for _, r := range located {
		if failed[r.DevID] {
			continue
		}
		m.Succeeded = append(m.Succeeded, r.DevID)
		m.AddOutput(aermod.InputKey(r.DevID))
		m.AddOutput(aermod.SourceKey(r.DevID))
	}
	log.WithFields(logrus.Fields{
		"written": len(m.Succeeded),
		"failed":  len(errs),
	}).Info("wrote AERMOD input files")
	return errs.Err()
}

// SourceRecords classifies raw and projects the source locations into
// the planar projection. Sources that cannot be classified are returned
// as ptsrc.SourceErrors along with the others.
func SourceRecords(raw []ptsrc.RawSource, c ptsrc.Config) ([]ptsrc.SourceRecord, error) {
	ct, err := spatial.NewTransform(c.GeographicProj, c.PlanarProj)
	if err != nil {
		return nil, err
	}
	var errs ptsrc.SourceErrors
	recs := make([]ptsrc.SourceRecord, 0, len(raw))
	for _, r := range raw {
		rec, err := ptsrc.NewSourceRecord(r, c)
		if err != nil {
			errs = append(errs, ptsrc.SourceError{DevID: r.DevID, Err: err})
			continue
		}
		pts, err := spatial.Reproject([]geom.Point{{X: r.Lon, Y: r.Lat}}, ct)
		if err != nil {
			errs = append(errs, ptsrc.SourceError{DevID: r.DevID, Err: err})
			continue
		}
		rec.Location = pts[0]
		recs = append(recs, rec)
	}
	return recs, errs.Err()
}

// resolveElevations sets the ground elevation of each of recs. Each
// unique location is only looked up once.
func resolveElevations(ctx context.Context, recs []ptsrc.SourceRecord, r elevation.Resolver, workers int, log logrus.FieldLogger) error {
	if r == nil {
		return fmt.Errorf("ptsrc: no elevation service specified")
	}
	seen := make(map[elevation.Coord]int)
	var coords []elevation.Coord
	for _, rec := range recs {
		c := elevation.Coord{Lat: rec.Lat, Lon: rec.Lon}
		if _, ok := seen[c]; !ok {
			seen[c] = len(coords)
			coords = append(coords, c)
		}
	}
	log.WithFields(logrus.Fields{"sources": len(recs), "locations": len(coords)}).Info("looking up elevations")
	res, err := elevation.ResolveAll(ctx, elevation.Cached(r, elevationCacheSize), coords, workers)
	if err != nil {
		return err
	}
	for i := range recs {
		recs[i].Elevation = res[seen[elevation.Coord{Lat: recs[i].Lat, Lon: recs[i].Lon}]].Elevation
	}
	return nil
}
