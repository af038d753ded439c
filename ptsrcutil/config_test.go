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
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kr/pretty"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/ptsrc"
	"github.com/spatialmodel/ptsrc/elevation"
)

func TestModelConfig(t *testing.T) {
	cfg := viper.New()
	cfg.Set("CancerSlope", "1.5")
	cfg.Set("TopN", 5)
	cfg.Set("FacilitySeparator", "_")
	c, err := ModelConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := ptsrc.DefaultConfig()
	want.CancerSlope = 1.5
	want.TopN = 5
	want.FacilitySeparator = "_"
	if diff := pretty.Diff(c, want); len(diff) > 0 {
		t.Errorf("%v", diff)
	}

	cfg.Set("ChronicREL", 0)
	if _, err := ModelConfig(cfg); err == nil {
		t.Error("expected an error for a zero chronic REL")
	}
	cfg.Set("ChronicREL", "abc")
	if _, err := ModelConfig(cfg); err == nil {
		t.Error("expected an error for a non-numeric value")
	}
}

func TestPreprocessConfig(t *testing.T) {
	os.Setenv("PTSRC_TEST_DIR", "/data")
	defer os.Unsetenv("PTSRC_TEST_DIR")
	cfg := viper.New()
	cfg.Set("SetupFile", "${PTSRC_TEST_DIR}/setup.xlsx")
	cfg.Set("ElevationURL", "http://localhost/epqs")
	cfg.Set("ElevationTimeout", "5s")
	cfg.Set("ElevationRetries", 3)
	p, err := PreprocessConfig(cfg, discardLog())
	if err != nil {
		t.Fatal(err)
	}
	if p.SetupFile != "/data/setup.xlsx" {
		t.Errorf("have setup file %s", p.SetupFile)
	}
	e := p.Elevation.(*elevation.EPQS)
	if e.URL != "http://localhost/epqs" || e.Timeout != 5*time.Second || e.Retries != 3 {
		t.Errorf("have %+v", e)
	}

	cfg.Set("ElevationRetries", -1)
	if _, err := PreprocessConfig(cfg, discardLog()); err == nil {
		t.Error("expected an error for negative retries")
	}
}

func TestPostprocessConfig(t *testing.T) {
	cfg := viper.New()
	cfg.Set("DerivedVariables", `{"CHRON_HI":"chronicHI(PM25)"}`)
	cfg.Set("VMax", 2.5)
	cfg.Set("PM25Threshold", 0.1)
	p, err := PostprocessConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if p.VMax == nil || *p.VMax != 2.5 || p.PM25Threshold != 0.1 {
		t.Errorf("have %+v", p)
	}
	if diff := pretty.Diff(p.DerivedVariables, map[string]string{"CHRON_HI": "chronicHI(PM25)"}); len(diff) > 0 {
		t.Errorf("%v", diff)
	}

	cfg.Set("VMax", 0)
	if p, err = PostprocessConfig(cfg); err != nil || p.VMax != nil {
		t.Errorf("zero VMax should leave the color scale unfixed: %v, %v", p.VMax, err)
	}
}

func TestGetStringMapString(t *testing.T) {
	dir, err := ioutil.TempDir("", "ptsrc")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "config.toml")
	if err := ioutil.WriteFile(path, []byte("[DerivedVariables]\ncanc = \"cancerRisk(PM25)\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := viper.New()
	cfg.SetConfigFile(path)
	if err := cfg.ReadInConfig(); err != nil {
		t.Fatal(err)
	}
	m, err := GetStringMapString("DerivedVariables", cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"canc": "cancerRisk(PM25)"}
	if diff := pretty.Diff(m, want); len(diff) > 0 {
		t.Errorf("%v", diff)
	}

	cfg = viper.New()
	cfg.Set("DerivedVariables", "{bad json")
	if _, err := GetStringMapString("DerivedVariables", cfg); err == nil {
		t.Error("expected an error")
	}
}
