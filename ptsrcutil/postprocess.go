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
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/ptsrc"
	"github.com/spatialmodel/ptsrc/aermod"
	"github.com/spatialmodel/ptsrc/conc"
	"github.com/spatialmodel/ptsrc/emis"
	"github.com/spatialmodel/ptsrc/report"
	"github.com/spatialmodel/ptsrc/setup"
)

// Output locations, relative to the output directory.
const (
	htmlDir          = "html"
	shpDir           = "shp"
	allShapefile     = "permitted_pm25_cancrsk_all.shp"
	pm25AllMap       = "pm25_permitted_all.html"
	cancerRiskAllMap = "cancrsk_permitted_all.html"
)

// Map labels and ranking table columns.
const (
	pm25Label        = "PM2.5 Concentration (μg/m3)"
	cancerRiskLabel  = "Cancer Risk (in a million)"
	pmRankColumn     = "PM25_Ems_tpy"
	tweRankColumn    = "TWE_Ems_gs"
	pmRankPrecision  = 2
	tweRankPrecision = 3
)

func pmRankingFile(n int) string  { return fmt.Sprintf("PM25_top%d_facilities.csv", n) }
func tweRankingFile(n int) string { return fmt.Sprintf("TAC_top%d_facilities.csv", n) }

func facilityMapFile(variable, facID string) string {
	return fmt.Sprintf("%s_%s.html", variable, facID)
}

// Postprocess combines the AERMOD output in the workspace with the
// emission rates in the setup workbook. It writes the total PM2.5
// concentration and cancer risk at each receptor to a shapefile and to
// maps, maps the facilities with the highest emissions, and writes
// tables ranking those facilities. Sources without AERMOD output are
// skipped and recorded in m.Missing. Sources whose output cannot be
// read are returned as ptsrc.SourceErrors after everything else has
// been written.
func Postprocess(ctx context.Context, p PostprocessArgs, m *Manifest, log logrus.FieldLogger) error {
	var errs ptsrc.SourceErrors
	collect := func(err error) error {
		if se, ok := err.(ptsrc.SourceErrors); ok {
			errs = append(errs, se...)
			return nil
		}
		return err
	}

	if err := m.AddInputs(p.SetupFile, p.PotencyFile); err != nil {
		return err
	}
	s, err := setup.Load(p.SetupFile)
	if err != nil {
		return err
	}
	potency, err := setup.ReadPotencyFile(p.PotencyFile)
	if err != nil {
		return err
	}
	c := emis.NewConverter(p.Model)
	pm, err := c.PMRates(s.PMEmissions)
	if err != nil {
		return err
	}
	twe, err := c.TWERates(potency, s.TACEmissions, s.GDFEmissions)
	if err != nil {
		return err
	}
	derived, err := report.NewDerived(p.DerivedVariables, p.Model)
	if err != nil {
		return err
	}

	ws, err := aermod.OpenWorkspace(ctx, p.Workspace)
	if err != nil {
		return err
	}
	defer ws.Close()
	opts := conc.Options{HeaderLines: p.Model.PlotHeaderLines, Workers: p.Workers, Log: log}

	devs := emis.Devices(pm, twe)
	res, err := conc.Aggregate(ctx, ws, devs, pm, twe, opts)
	if err = collect(err); err != nil {
		return err
	}
	m.Succeeded = append(m.Succeeded, res.Included...)
	m.Missing = append(m.Missing, res.Missing...)
	field := res.Field.Round(p.Model.Precision)

	shpPath := filepath.Join(p.OutputDir, shpDir, allShapefile)
	if err = report.WriteShapefile(shpPath, field, p.Model.PlanarProj, derived); err != nil {
		return err
	}
	m.AddOutput(shpPath)
	log.WithField("path", shpPath).Info("wrote receptor shapefile")

	mapDir := filepath.Join(p.OutputDir, htmlDir)
	allMaps := []struct {
		file string
		o    report.MapOptions
	}{
		{pm25AllMap, report.MapOptions{Title: "Permitted sources: PM2.5", Label: pm25Label, Value: report.PM25}},
		{cancerRiskAllMap, report.MapOptions{Title: "Permitted sources: cancer risk", Label: cancerRiskLabel, Value: report.CancerRisk}},
	}
	for _, mm := range allMaps {
		mm.o.VMax = p.VMax
		mm.o.Projection = p.Model.PlanarProj
		path := filepath.Join(mapDir, mm.file)
		if err = writeMap(path, field, mm.o); err != nil {
			return err
		}
		m.AddOutput(path)
	}

	sep := p.Model.FacilitySeparator
	pmRank := conc.Rank(pm, sep, p.Model.TopN)
	tweRank := conc.Rank(twe, sep, p.Model.TopN)
	facMaps := []struct {
		variable string
		ranks    []conc.FacilityTotal
		o        report.MapOptions
	}{
		{"pm25", pmRank, report.MapOptions{Label: pm25Label, Value: report.PM25, Threshold: p.PM25Threshold}},
		{"cancrsk", tweRank, report.MapOptions{Label: cancerRiskLabel, Value: report.CancerRisk, Threshold: p.CancerRiskThreshold}},
	}
	for _, fm := range facMaps {
		for _, r := range fm.ranks {
			fr, err := conc.Aggregate(ctx, ws, conc.FacilityDevices(devs, r.FacilityID, sep), pm, twe, opts)
			// Per-source failures were already recorded by the full aggregation.
			if _, ok := err.(ptsrc.SourceErrors); err != nil && !ok {
				return err
			}
			o := fm.o
			o.Title = fmt.Sprintf("Facility %s: %s", r.FacilityID, o.Label)
			o.VMax = p.VMax
			o.Projection = p.Model.PlanarProj
			path := filepath.Join(mapDir, facilityMapFile(fm.variable, r.FacilityID))
			if err = writeMap(path, fr.Field.Round(p.Model.Precision), o); err != nil {
				return err
			}
			m.AddOutput(path)
		}
	}
	log.WithFields(logrus.Fields{"dir": mapDir}).Info("wrote maps")

	names := s.FacilityNames()
	tpy := func(gps float64) (float64, error) { return c.Inverse(gps, emis.TonsPerYear) }
	rankings := []struct {
		file, column string
		ranks        []conc.FacilityTotal
		scale        func(float64) (float64, error)
		prec         int
	}{
		{pmRankingFile(p.Model.TopN), pmRankColumn, pmRank, tpy, pmRankPrecision},
		{tweRankingFile(p.Model.TopN), tweRankColumn, tweRank, nil, tweRankPrecision},
	}
	for _, rr := range rankings {
		path := filepath.Join(p.OutputDir, rr.file)
		if err = writeRanking(path, rr.ranks, names, rr.column, rr.scale, rr.prec); err != nil {
			return err
		}
		m.AddOutput(path)
	}
	log.WithFields(logrus.Fields{
		"included": len(res.Included),
		"missing":  len(res.Missing),
		"failed":   len(errs),
	}).Info("finished post-processing")
	return errs.Err()
}

func writeMap(path string, f conc.Field, o report.MapOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("ptsrc: creating map directory: %v", err)
	}
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ptsrc: creating map: %v", err)
	}
	if err = report.WriteMap(w, f, o); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func writeRanking(path string, ranks []conc.FacilityTotal, names map[string]string, column string, scale func(float64) (float64, error), prec int) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("ptsrc: creating output directory: %v", err)
	}
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ptsrc: creating ranking table: %v", err)
	}
	if err = report.WriteRanking(w, ranks, names, column, scale, prec); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
