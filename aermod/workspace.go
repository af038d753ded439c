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
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/spatialmodel/ptsrc/cloud"
	"gocloud.dev/blob"
)

// InputFileName is the name of the AERMOD input file in each source
// directory.
const InputFileName = "aermod.inp"

// ErrNoOutput is returned when AERMOD has not produced a plot file for
// a source.
var ErrNoOutput = errors.New("aermod: no plot file")

// Workspace is the set of per-source AERMOD run directories. Each
// source has its own directory, named for its device identifier, so
// that the sources can be modeled independently.
type Workspace struct {
	Bucket *blob.Bucket
}

// OpenWorkspace opens the workspace at location, which is in the
// format accepted by cloud.OpenBucket.
func OpenWorkspace(ctx context.Context, location string) (*Workspace, error) {
	b, err := cloud.OpenBucket(ctx, location)
	if err != nil {
		return nil, err
	}
	return &Workspace{Bucket: b}, nil
}

// Close closes the underlying bucket.
func (w *Workspace) Close() error { return w.Bucket.Close() }

// InputKey returns the key of the input file of source devID.
func InputKey(devID string) string { return devID + "/" + InputFileName }

// SourceKey returns the key of the source definition file of source
// devID.
func SourceKey(devID string) string { return fmt.Sprintf("%s/%s.src", devID, devID) }

// PlotKey returns the key of the period-average plot file of source
// devID.
func PlotKey(devID string) string { return devID + "/" + PlotFileName(devID) }

// write writes data to key after converting it to Unix line endings.
func (w *Workspace) write(ctx context.Context, key string, data []byte) error {
	return cloud.WriteBlob(ctx, w.Bucket, key, UnixLineEndings(data))
}

// Input returns the contents of the input file of source devID.
func (w *Workspace) Input(ctx context.Context, devID string) ([]byte, error) {
	return cloud.ReadBlob(ctx, w.Bucket, InputKey(devID))
}

// PlotFile reads the period-average plot file of source devID, which
// starts with headerLines lines of header. It returns ErrNoOutput if
// the file does not exist.
func (w *Workspace) PlotFile(ctx context.Context, devID string, headerLines int) ([]DispersionFactor, error) {
	b, err := cloud.ReadBlob(ctx, w.Bucket, PlotKey(devID))
	if err != nil {
		if cloud.IsNotExist(err) {
			return nil, ErrNoOutput
		}
		return nil, err
	}
	df, err := ReadPlotFile(bytes.NewReader(b), headerLines)
	if err != nil {
		return nil, fmt.Errorf("aermod: source %s: %v", devID, err)
	}
	return df, nil
}
