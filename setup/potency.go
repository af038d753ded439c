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

package setup

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/spatialmodel/ptsrc"
)

// Column names of the potency table.
const (
	PotencyPollutant = "POL"
	PotencyFactor    = "CANCSLPFC"
)

// Potency maps pollutant identifiers to cancer potency factors.
type Potency map[string]float64

// Lookup returns the potency factor of pollutant pol. ok is false if
// the table has no entry for pol.
func (p Potency) Lookup(pol string) (v float64, ok bool) {
	v, ok = p[NormalizeID(pol)]
	return
}

// ReadPotency reads a comma-separated potency table with POL and
// CANCSLPFC columns. Rows with an empty factor are skipped.
func ReadPotency(r io.Reader) (Potency, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("setup: reading potency table: %v", err)
	}
	if len(recs) == 0 {
		return nil, &ptsrc.SchemaError{Table: "potency"}
	}
	t := NewTable("potency", recs[0], recs[1:])
	if err := t.Require(PotencyPollutant, PotencyFactor); err != nil {
		return nil, err
	}
	p := make(Potency)
	for i := 0; i < t.Len(); i++ {
		pol, ok := t.ID(i, PotencyPollutant)
		if !ok {
			continue
		}
		v, err := t.Float(i, PotencyFactor)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		p[pol] = *v
	}
	return p, nil
}

// ReadPotencyFile reads the potency table at path.
func ReadPotencyFile(path string) (Potency, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("setup: opening potency table: %v", err)
	}
	defer f.Close()
	return ReadPotency(f)
}
