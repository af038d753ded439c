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
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/ptsrc"
	"github.com/spatialmodel/ptsrc/elevation"
	"github.com/spf13/cast"
)

// PreprocessArgs hold the inputs to Preprocess.
type PreprocessArgs struct {
	SetupFile, Workspace, OutputDir string
	Workers                         int
	Model                           ptsrc.Config

	GridFile     string
	TemplateFile string
	Receptors    string
	MetDir       string
	MetPrefix    string

	// Elevation looks up the ground elevation of each source.
	Elevation elevation.Resolver
}

// PostprocessArgs hold the inputs to Postprocess.
type PostprocessArgs struct {
	SetupFile, Workspace, OutputDir string
	Workers                         int
	Model                           ptsrc.Config

	PotencyFile string

	// PM25Threshold and CancerRiskThreshold are the smallest values
	// drawn on facility maps.
	PM25Threshold, CancerRiskThreshold float64

	// VMax, if not nil, fixes the top of the map color scales.
	VMax *float64

	DerivedVariables map[string]string
}

// ModelConfig returns the model constants in cfg, using the defaults
// for any that are not set.
func ModelConfig(cfg *viper.Viper) (ptsrc.Config, error) {
	c := ptsrc.DefaultConfig()
	var err error
	for _, s := range []struct {
		name string
		dst  *string
	}{
		{"GeographicProj", &c.GeographicProj},
		{"PlanarProj", &c.PlanarProj},
		{"FacilitySeparator", &c.FacilitySeparator},
	} {
		if cfg.IsSet(s.name) {
			*s.dst = cfg.GetString(s.name)
		}
	}
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"InhalationFactor", &c.InhalationFactor},
		{"CancerSlope", &c.CancerSlope},
		{"ChronicREL", &c.ChronicREL},
	} {
		if !cfg.IsSet(f.name) {
			continue
		}
		if *f.dst, err = cast.ToFloat64E(cfg.Get(f.name)); err != nil {
			return c, fmt.Errorf("ptsrc: configuration variable %s: %v", f.name, err)
		}
	}
	for _, i := range []struct {
		name string
		dst  *int
	}{
		{"GridOffsetI", &c.GridOffsetI},
		{"GridOffsetJ", &c.GridOffsetJ},
		{"PlotHeaderLines", &c.PlotHeaderLines},
		{"TopN", &c.TopN},
		{"Precision", &c.Precision},
	} {
		if !cfg.IsSet(i.name) {
			continue
		}
		if *i.dst, err = cast.ToIntE(cfg.Get(i.name)); err != nil {
			return c, fmt.Errorf("ptsrc: configuration variable %s: %v", i.name, err)
		}
	}
	return c, c.Validate()
}

// PreprocessConfig returns the preprocessing inputs specified by cfg.
// Elevation request retries are logged to log.
func PreprocessConfig(cfg *viper.Viper, log logrus.FieldLogger) (PreprocessArgs, error) {
	c, err := ModelConfig(cfg)
	if err != nil {
		return PreprocessArgs{}, err
	}
	p := PreprocessArgs{
		SetupFile:    os.ExpandEnv(cfg.GetString("SetupFile")),
		Workspace:    os.ExpandEnv(cfg.GetString("Workspace")),
		OutputDir:    os.ExpandEnv(cfg.GetString("OutputDir")),
		Workers:      cfg.GetInt("Workers"),
		Model:        c,
		GridFile:     os.ExpandEnv(cfg.GetString("GridFile")),
		TemplateFile: os.ExpandEnv(cfg.GetString("TemplateFile")),
		Receptors:    os.ExpandEnv(cfg.GetString("Receptors")),
		MetDir:       os.ExpandEnv(cfg.GetString("MetDir")),
		MetPrefix:    os.ExpandEnv(cfg.GetString("MetPrefix")),
	}
	timeout, err := cast.ToDurationE(cfg.Get("ElevationTimeout"))
	if err != nil {
		return p, fmt.Errorf("ptsrc: configuration variable ElevationTimeout: %v", err)
	}
	retries, err := cast.ToIntE(cfg.Get("ElevationRetries"))
	if err != nil || retries < 0 {
		return p, fmt.Errorf("ptsrc: configuration variable ElevationRetries must be a non-negative integer")
	}
	e := elevation.NewEPQS(log)
	e.URL = os.ExpandEnv(cfg.GetString("ElevationURL"))
	e.Timeout = timeout
	e.Retries = uint64(retries)
	p.Elevation = e
	return p, nil
}

// PostprocessConfig returns the post-processing inputs specified by cfg.
func PostprocessConfig(cfg *viper.Viper) (PostprocessArgs, error) {
	c, err := ModelConfig(cfg)
	if err != nil {
		return PostprocessArgs{}, err
	}
	p := PostprocessArgs{
		SetupFile:           os.ExpandEnv(cfg.GetString("SetupFile")),
		Workspace:           os.ExpandEnv(cfg.GetString("Workspace")),
		OutputDir:           os.ExpandEnv(cfg.GetString("OutputDir")),
		Workers:             cfg.GetInt("Workers"),
		Model:               c,
		PotencyFile:         os.ExpandEnv(cfg.GetString("PotencyFile")),
		PM25Threshold:       cfg.GetFloat64("PM25Threshold"),
		CancerRiskThreshold: cfg.GetFloat64("CancerRiskThreshold"),
	}
	if v := cfg.GetFloat64("VMax"); v > 0 {
		p.VMax = &v
	}
	if p.DerivedVariables, err = GetStringMapString("DerivedVariables", cfg); err != nil {
		return p, err
	}
	return p, nil
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapString(v), nil
	case string:
		o := make(map[string]string)
		if v == "" {
			return o, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("ptsrc: configuration variable %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("ptsrc: invalid type for configuration variable %s: %#v", varName, i)
	}
}
