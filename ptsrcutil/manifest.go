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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/spatialmodel/ptsrc"
	"github.com/spatialmodel/ptsrc/internal/hash"
)

// Manifest records what a run did, so that failed sources can be
// found and rerun.
type Manifest struct {
	RunID   string    `toml:"run_id"`
	Command string    `toml:"command"`
	Version string    `toml:"version"`
	Start   time.Time `toml:"start"`
	End     time.Time `toml:"end"`

	// Error is the error that stopped the run, if any.
	Error string `toml:"error,omitempty"`

	// Outputs are the files and workspace keys that were written.
	Outputs []string `toml:"outputs"`

	// Succeeded holds the sources that were processed.
	Succeeded []string `toml:"succeeded"`

	// Missing holds the sources without AERMOD output.
	Missing []string `toml:"missing,omitempty"`

	// Failed maps the sources that could not be processed to the
	// reason why.
	Failed map[string]string `toml:"failed,omitempty"`

	// Inputs maps each input file to a key of its contents.
	Inputs map[string]string `toml:"inputs,omitempty"`

	// ConfigKey identifies the model constants in Config.
	ConfigKey string       `toml:"config_key"`
	Config    ptsrc.Config `toml:"config"`
}

// NewManifest starts the manifest of a run of command with
// configuration c.
func NewManifest(command string, c ptsrc.Config) *Manifest {
	return &Manifest{
		RunID:     uuid.New().String(),
		Command:   command,
		Version:   ptsrc.Version,
		Start:     time.Now().UTC(),
		Failed:    make(map[string]string),
		Inputs:    make(map[string]string),
		ConfigKey: hash.Key(c),
		Config:    c,
	}
}

// AddInputs records the content keys of the files at paths. Empty
// paths are ignored.
func (m *Manifest) AddInputs(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		k, err := hash.File(p)
		if err != nil {
			return err
		}
		m.Inputs[p] = k
	}
	return nil
}

// AddOutput records an output location.
func (m *Manifest) AddOutput(path string) {
	m.Outputs = append(m.Outputs, path)
}

// AddFailures records the per-source failures in errs.
func (m *Manifest) AddFailures(errs ptsrc.SourceErrors) {
	for _, e := range errs {
		m.Failed[e.DevID] = e.Err.Error()
	}
}

// Finish records the end of the run and the error that ended it, if
// any. Per-source failures are recorded in Failed rather than Error.
func (m *Manifest) Finish(err error) {
	m.End = time.Now().UTC()
	if se, ok := err.(ptsrc.SourceErrors); ok {
		m.AddFailures(se)
	} else if err != nil {
		m.Error = err.Error()
	}
	sort.Strings(m.Outputs)
	sort.Strings(m.Succeeded)
	sort.Strings(m.Missing)
}

// Write writes m to path in TOML format.
func (m *Manifest) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("ptsrc: creating manifest directory: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ptsrc: creating manifest: %v", err)
	}
	if err := toml.NewEncoder(f).Encode(m); err != nil {
		f.Close()
		return fmt.Errorf("ptsrc: writing manifest: %v", err)
	}
	return f.Close()
}

// ReadManifest reads the manifest at path.
func ReadManifest(path string) (*Manifest, error) {
	m := new(Manifest)
	if _, err := toml.DecodeFile(path, m); err != nil {
		return nil, fmt.Errorf("ptsrc: reading manifest: %v", err)
	}
	return m, nil
}

// manifestFile returns the name of the manifest of command.
func manifestFile(command string) string {
	return command + ".toml"
}
