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
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/spatialmodel/ptsrc"
	"github.com/tealeg/xlsx"
)

// excelCache holds previously opened workbooks so that the pre- and
// post-processing steps of one run only read the setup file once.
var excelCache *requestcache.Cache

var loadExcelCacheOnce sync.Once

func loadExcelFile(fileName string) (*xlsx.File, error) {
	loadExcelCacheOnce.Do(func() {
		excelCache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			f, err := xlsx.OpenFile(req.(string))
			if err != nil {
				return nil, fmt.Errorf("setup: opening xlsx file: %v", err)
			}
			return f, nil
		}, runtime.GOMAXPROCS(-1), requestcache.Memory(100))
	})
	fI, err := excelCache.NewRequest(context.Background(), fileName, fileName).Result()
	if err != nil {
		return nil, err
	}
	return fI.(*xlsx.File), nil
}

// Workbook is a set of named tables.
type Workbook map[string]*Table

// ReadWorkbook reads every sheet of the Microsoft Excel file at path
// into a table. The first row of each sheet is the header. Rows with no
// content are skipped.
func ReadWorkbook(path string) (Workbook, error) {
	f, err := loadExcelFile(path)
	if err != nil {
		return nil, err
	}
	wb := make(Workbook)
	for name, s := range f.Sheet {
		wb[name] = sheetTable(name, s)
	}
	return wb, nil
}

func sheetTable(name string, s *xlsx.Sheet) *Table {
	if s.MaxRow == 0 {
		return NewTable(name, nil, nil)
	}
	header := make([]string, s.MaxCol)
	for i := range header {
		header[i] = strings.TrimSpace(s.Cell(0, i).Value)
	}
	var rows [][]string
	for j := 1; j < s.MaxRow; j++ {
		row := make([]string, s.MaxCol)
		empty := true
		for i := range row {
			row[i] = strings.TrimSpace(s.Cell(j, i).Value)
			if row[i] != "" {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return NewTable(name, header, rows)
}

// Table returns the named table, or *ptsrc.SchemaError if the workbook
// does not contain it.
func (wb Workbook) Table(name string) (*Table, error) {
	t, ok := wb[name]
	if !ok {
		return nil, &ptsrc.SchemaError{Table: name}
	}
	return t, nil
}
