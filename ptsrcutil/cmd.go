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

// Package ptsrcutil contains the command-line interface for ptsrc.
package ptsrcutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
	"github.com/spatialmodel/ptsrc"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	def := ptsrc.DefaultConfig()
	both := func() []*pflag.FlagSet {
		return []*pflag.FlagSet{preprocessCmd.Flags(), postprocessCmd.Flags()}
	}

	// Options are the configuration options available to ptsrc.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel specifies the minimum severity of log messages:
              one of debug, info, warning or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile specifies a file that log messages are written to in
              addition to standard error. If empty, the log is only written
              to standard error.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "SetupFile",
			usage: `
              SetupFile is the path to the permitted source setup workbook,
              which has Facility Info, Release Parameters, PM Emissions,
              TAC Emissions, GDF Release and GDF Emissions sheets.`,
			shorthand:  "s",
			defaultVal: "Input/Setup_PermittedSources.xlsx",
			flagsets:   both(),
		},
		{
			name: "Workspace",
			usage: `
              Workspace is the location of the per-source AERMOD run
              directories. It can be a local directory or a blob storage
              location such as s3://bucket/path or gs://bucket/path.`,
			shorthand:  "w",
			defaultVal: "Output/aermod",
			flagsets:   both(),
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory that reports and the run manifest
              are written to.`,
			shorthand:  "o",
			defaultVal: "Output",
			flagsets:   both(),
		},
		{
			name: "Workers",
			usage: `
              Workers is the number of concurrent elevation requests,
              input file writers and plot file readers. Zero means one per
              processor.`,
			defaultVal: 0,
			flagsets:   both(),
		},
		{
			name: "GeographicProj",
			usage: `
              GeographicProj is the projection of the source coordinates in
              the setup workbook.`,
			defaultVal: def.GeographicProj,
			flagsets:   both(),
		},
		{
			name: "PlanarProj",
			usage: `
              PlanarProj is the projection that AERMOD sources and receptors
              are located in.`,
			defaultVal: def.PlanarProj,
			flagsets:   both(),
		},
		{
			name: "FacilitySeparator",
			usage: `
              FacilitySeparator separates the facility identifier from the
              rest of a device identifier.`,
			defaultVal: def.FacilitySeparator,
			flagsets:   both(),
		},
		{
			name: "GridFile",
			usage: `
              GridFile is the path to the shapefile of meteorology grid cells,
              with I_CELL and J_CELL index columns.`,
			defaultVal: "Input/grid/grid.shp",
			flagsets:   []*pflag.FlagSet{preprocessCmd.Flags()},
		},
		{
			name: "GridOffsetI",
			usage: `
              GridOffsetI is added to the I index of each grid cell so that
              it matches the meteorology file names.`,
			defaultVal: def.GridOffsetI,
			flagsets:   []*pflag.FlagSet{preprocessCmd.Flags()},
		},
		{
			name: "GridOffsetJ",
			usage: `
              GridOffsetJ is added to the J index of each grid cell so that
              it matches the meteorology file names.`,
			defaultVal: def.GridOffsetJ,
			flagsets:   []*pflag.FlagSet{preprocessCmd.Flags()},
		},
		{
			name: "TemplateFile",
			usage: `
              TemplateFile is the path to the AERMOD input file template,
              which has one {} placeholder for each of the source, receptor,
              meteorology and output pathways.`,
			defaultVal: "Input/aermod.inp",
			flagsets:   []*pflag.FlagSet{preprocessCmd.Flags()},
		},
		{
			name: "Receptors",
			usage: `
              Receptors is the text of the receptor pathway placeholder,
              typically the path of a receptor file on the machine that
              runs AERMOD.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{preprocessCmd.Flags()},
		},
		{
			name: "MetDir",
			usage: `
              MetDir is the directory of CELLIJ_<I>_<J>.info.txt meteorology
              pathway fragments.`,
			defaultVal: "Input/met",
			flagsets:   []*pflag.FlagSet{preprocessCmd.Flags()},
		},
		{
			name: "MetPrefix",
			usage: `
              MetPrefix is the directory of the meteorology data files on the
              machine that runs AERMOD.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{preprocessCmd.Flags()},
		},
		{
			name: "ElevationURL",
			usage: `
              ElevationURL is the address of the elevation point query
              service.`,
			defaultVal: "https://epqs.nationalmap.gov/v1/json",
			flagsets:   []*pflag.FlagSet{preprocessCmd.Flags()},
		},
		{
			name: "ElevationTimeout",
			usage: `
              ElevationTimeout limits the duration of each elevation request,
              for example "30s".`,
			defaultVal: "30s",
			flagsets:   []*pflag.FlagSet{preprocessCmd.Flags()},
		},
		{
			name: "ElevationRetries",
			usage: `
              ElevationRetries is the number of times a failed elevation
              request is retried.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{preprocessCmd.Flags()},
		},
		{
			name: "PotencyFile",
			usage: `
              PotencyFile is the path to the comma-separated table of cancer
              potency factors, with POL and CANCSLPFC columns.`,
			shorthand:  "p",
			defaultVal: "Input/cancslpf.csv",
			flagsets:   []*pflag.FlagSet{postprocessCmd.Flags()},
		},
		{
			name: "InhalationFactor",
			usage: `
              InhalationFactor is the intake factor used to calculate
              toxicity-weighted emissions.`,
			defaultVal: def.InhalationFactor,
			flagsets:   []*pflag.FlagSet{postprocessCmd.Flags()},
		},
		{
			name: "CancerSlope",
			usage: `
              CancerSlope is the diesel particulate matter cancer slope used
              by the cancerRisk function of DerivedVariables.`,
			defaultVal: def.CancerSlope,
			flagsets:   []*pflag.FlagSet{postprocessCmd.Flags()},
		},
		{
			name: "ChronicREL",
			usage: `
              ChronicREL is the chronic reference exposure level used by the
              chronicHI function of DerivedVariables.`,
			defaultVal: def.ChronicREL,
			flagsets:   []*pflag.FlagSet{postprocessCmd.Flags()},
		},
		{
			name: "PlotHeaderLines",
			usage: `
              PlotHeaderLines is the number of header lines at the top of
              each AERMOD plot file.`,
			defaultVal: def.PlotHeaderLines,
			flagsets:   []*pflag.FlagSet{postprocessCmd.Flags()},
		},
		{
			name: "TopN",
			usage: `
              TopN is the number of highest-emitting facilities to map and
              rank.`,
			defaultVal: def.TopN,
			flagsets:   []*pflag.FlagSet{postprocessCmd.Flags()},
		},
		{
			name: "Precision",
			usage: `
              Precision is the number of decimal places that reported
              concentrations and risks are rounded to.`,
			defaultVal: def.Precision,
			flagsets:   []*pflag.FlagSet{postprocessCmd.Flags()},
		},
		{
			name: "PM25Threshold",
			usage: `
              PM25Threshold is the smallest PM2.5 concentration drawn on
              facility maps.`,
			defaultVal: 0.1,
			flagsets:   []*pflag.FlagSet{postprocessCmd.Flags()},
		},
		{
			name: "CancerRiskThreshold",
			usage: `
              CancerRiskThreshold is the smallest cancer risk drawn on
              facility maps.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{postprocessCmd.Flags()},
		},
		{
			name: "VMax",
			usage: `
              VMax, if greater than zero, fixes the top of the map color
              scales.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{postprocessCmd.Flags()},
		},
		{
			name: "DerivedVariables",
			usage: `
              DerivedVariables specifies additional shapefile fields as
              expressions of PM25 and CancerRisk. Available functions are
              cancerRisk(x), chronicHI(x) and exp(x). For example:
              {"CHRON_HI":"chronicHI(PM25)"}.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{postprocessCmd.Flags()},
		},
		{
			name: "open",
			usage: `
              open specifies whether to open the aggregate PM2.5 map in a web
              browser when post-processing is finished.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{postprocessCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("PTSRC")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
		}
		// The flag is bound once; every flag set shares the same flag.
		Cfg.BindPFlag(option.name, option.flagsets[0].Lookup(option.name))
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(preprocessCmd)
	Root.AddCommand(postprocessCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("ptsrc: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "ptsrc",
	Short: "Prepare and post-process AERMOD point source modeling.",
	Long: `ptsrc prepares AERMOD input files for permitted emission sources and
combines the resulting AERMOD plot files with source emission rates to
estimate PM2.5 concentrations and cancer risk.
Use the subcommands specified below to access the functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'PTSRC_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of ptsrc.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("ptsrc v%s\n", ptsrc.Version)
	},
	DisableAutoGenTag: true,
}

// preprocessCmd writes AERMOD input files.
var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "Write AERMOD input files.",
	Long: `preprocess reads the permitted source setup workbook, looks up the
ground elevation of each source, assigns each source to a meteorology grid
cell, and writes an AERMOD input file for each source into its own
directory of the workspace. Sources that cannot be prepared are reported
by device identifier; the input files of the other sources are still
written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, closeLog, err := newLogger(Cfg)
		if err != nil {
			return err
		}
		defer closeLog()
		p, err := PreprocessConfig(Cfg, log)
		if err != nil {
			return err
		}
		return runAndRecord(cmd, p.OutputDir, p.Model, log, func(ctx context.Context, m *Manifest) error {
			return Preprocess(ctx, p, m, log)
		})
	},
	DisableAutoGenTag: true,
}

// postprocessCmd combines AERMOD output with emission rates.
var postprocessCmd = &cobra.Command{
	Use:   "postprocess",
	Short: "Calculate concentrations and cancer risk from AERMOD output.",
	Long: `postprocess converts the emissions in the setup workbook into emission
rates, combines them with the AERMOD plot file of each source, and writes
a shapefile and maps of total PM2.5 concentration and cancer risk, maps of
the highest-emitting facilities, and tables ranking those facilities.
Sources without AERMOD output are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, closeLog, err := newLogger(Cfg)
		if err != nil {
			return err
		}
		defer closeLog()
		p, err := PostprocessConfig(Cfg)
		if err != nil {
			return err
		}
		err = runAndRecord(cmd, p.OutputDir, p.Model, log, func(ctx context.Context, m *Manifest) error {
			return Postprocess(ctx, p, m, log)
		})
		if Cfg.GetBool("open") {
			if oerr := open.Run(filepath.Join(p.OutputDir, htmlDir, pm25AllMap)); oerr != nil {
				log.WithError(oerr).Warn("could not open map")
			}
		}
		return err
	},
	DisableAutoGenTag: true,
}

// runAndRecord runs f and then writes the run manifest, which records
// what f produced even if it failed.
func runAndRecord(cmd *cobra.Command, outputDir string, c ptsrc.Config, log logrus.FieldLogger, f func(context.Context, *Manifest) error) error {
	m := NewManifest(cmd.Name(), c)
	err := f(context.Background(), m)
	m.Finish(err)
	path := filepath.Join(outputDir, manifestFile(cmd.Name()))
	if merr := m.Write(path); merr != nil {
		log.WithError(merr).Error("could not write run manifest")
	} else {
		log.WithField("path", path).Info("wrote run manifest")
	}
	return err
}

// newLogger returns the logger specified by the LogLevel and LogFile
// options and a function that closes the log file.
func newLogger(cfg *viper.Viper) (*logrus.Logger, func(), error) {
	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	lvl, err := logrus.ParseLevel(cfg.GetString("LogLevel"))
	if err != nil {
		return nil, nil, fmt.Errorf("ptsrc: %v", err)
	}
	log.SetLevel(lvl)
	logFile := os.ExpandEnv(cfg.GetString("LogFile"))
	if logFile == "" {
		return log, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(logFile), os.ModePerm); err != nil {
		return nil, nil, fmt.Errorf("ptsrc: creating log directory: %v", err)
	}
	f, err := os.Create(logFile)
	if err != nil {
		return nil, nil, fmt.Errorf("ptsrc: creating log file: %v", err)
	}
	log.Out = io.MultiWriter(os.Stderr, f)
	return log, func() { f.Close() }, nil
}
