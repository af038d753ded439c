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

package aermod

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/ptsrc"
)

// Compiler writes AERMOD input files into a Workspace.
type Compiler struct {
	Template *Template

	// Receptors is the receptor (RE) pathway, typically an INCLUDED
	// statement that references a receptor file.
	Receptors string

	// MetDir is the local directory holding the per-cell meteorology
	// fragments, and MetPrefix is the location of the meteorology data
	// files on the machine that runs AERMOD.
	MetDir, MetPrefix string

	Workspace *Workspace
	Log       logrus.FieldLogger

	met *requestcache.Cache
}

// metFragment is a cached meteorology section. Read failures are kept
// in the result so that concurrent requests for the same cell all
// receive them.
type metFragment struct {
	text string
	err  error
}

// NewCompiler returns a compiler. Meteorology fragments are read once
// per grid cell.
func NewCompiler(t *Template, receptors, metDir, metPrefix string, w *Workspace, log logrus.FieldLogger) *Compiler {
	c := &Compiler{
		Template:  t,
		Receptors: receptors,
		MetDir:    metDir,
		MetPrefix: metPrefix,
		Workspace: w,
		Log:       log,
	}
	c.met = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
		text, err := MetSection(c.MetDir, c.MetPrefix, req.(string))
		return metFragment{text: text, err: err}, nil
	}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(1000))
	return c
}

func (c *Compiler) metSection(ctx context.Context, cellID string) (string, error) {
	res, err := c.met.NewRequest(ctx, cellID, cellID).Result()
	if err != nil {
		return "", err
	}
	m := res.(metFragment)
	return m.text, m.err
}

// Compile writes the source definition file and the input file of
// rec. It returns the contents of the input file.
func (c *Compiler) Compile(ctx context.Context, rec ptsrc.SourceRecord) (string, error) {
	if rec.CellID == "" {
		return "", fmt.Errorf("aermod: source %s has not been assigned a grid cell", rec.DevID)
	}
	so, err := SourceSection(rec)
	if err != nil {
		return "", err
	}
	me, err := c.metSection(ctx, rec.CellID)
	if err != nil {
		return "", err
	}
	if err = c.Workspace.write(ctx, SourceKey(rec.DevID), []byte(so)); err != nil {
		return "", err
	}
	inp := c.Template.Fill(rec.DevID+".src", c.Receptors, me, OutputSection(rec.DevID))
	if err = c.Workspace.write(ctx, InputKey(rec.DevID), []byte(inp)); err != nil {
		return "", err
	}
	c.Log.WithFields(logrus.Fields{"DevID": rec.DevID, "type": rec.Type, "cell": rec.CellID}).Debug("wrote AERMOD input")
	return inp, nil
}

// CompileAll writes input files for all of recs using up to nprocs
// concurrent writers (nprocs <= 0 means one per processor). Sources
// that cannot be compiled do not stop the others; their failures are
// returned as ptsrc.SourceErrors.
func (c *Compiler) CompileAll(ctx context.Context, recs []ptsrc.SourceRecord, nprocs int) error {
	if nprocs <= 0 {
		nprocs = runtime.GOMAXPROCS(0)
	}
	errs := make([]error, len(recs))
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for ii := pp; ii < len(recs); ii += nprocs {
				if err := ctx.Err(); err != nil {
					errs[ii] = err
					continue
				}
				_, errs[ii] = c.Compile(ctx, recs[ii])
			}
		}(pp)
	}
	wg.Wait()

	var se ptsrc.SourceErrors
	for i, err := range errs {
		if err != nil {
			c.Log.WithField("DevID", recs[i].DevID).WithError(err).Warn("could not write AERMOD input")
			se = append(se, ptsrc.SourceError{DevID: recs[i].DevID, Err: err})
		}
	}
	return se.Err()
}
