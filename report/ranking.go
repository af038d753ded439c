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

package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/spatialmodel/ptsrc/conc"
	"gonum.org/v1/gonum/floats"
)

// Ranking table column names.
const (
	FacIDColumn = "FacID"
	NameColumn  = "Name"
)

// WriteRanking writes ranks as comma-separated text with columns FacID,
// Name and column. names maps facility identifiers to facility names;
// facilities without a name get an empty Name. Each total is converted
// with scale, which may be nil, and rounded to prec decimal places.
func WriteRanking(w io.Writer, ranks []conc.FacilityTotal, names map[string]string, column string, scale func(float64) (float64, error), prec int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{FacIDColumn, NameColumn, column}); err != nil {
		return fmt.Errorf("report: writing ranking: %v", err)
	}
	for _, r := range ranks {
		v := r.Total
		if scale != nil {
			var err error
			if v, err = scale(v); err != nil {
				return err
			}
		}
		rec := []string{r.FacilityID, names[r.FacilityID], strconv.FormatFloat(floats.RoundEven(v, prec), 'f', -1, 64)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("report: writing ranking: %v", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("report: writing ranking: %v", err)
	}
	return nil
}
