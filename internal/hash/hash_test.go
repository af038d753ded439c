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

package hash

import (
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestKey(t *testing.T) {
	type params struct {
		Height, Temp float64
		ID           string
	}
	a := Key(params{Height: 10, Temp: 300, ID: "A-1"})
	if b := Key(params{Height: 10, Temp: 300, ID: "A-1"}); a != b {
		t.Errorf("equal values have different keys: %s, %s", a, b)
	}
	if b := Key(params{Height: 10, Temp: 301, ID: "A-1"}); a == b {
		t.Error("different values have the same key")
	}
	if len(a) != 32 {
		t.Errorf("have key %s", a)
	}
	type withFunc struct {
		F func()
		V float64
	}
	n := Key(withFunc{V: math.Pi})
	if n == "" || n != Key(withFunc{V: math.Pi}) || n == Key(withFunc{V: 1}) {
		t.Errorf("have key %q for a value gob cannot encode", n)
	}
}

func TestFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "hash")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "a.txt")
	if err := ioutil.WriteFile(path, []byte("CO STARTING\n"), 0644); err != nil {
		t.Fatal(err)
	}
	a, err := File(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(path, []byte("CO STARTING \n"), 0644); err != nil {
		t.Fatal(err)
	}
	b, err := File(path)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("different contents have the same key")
	}
	if _, err := File(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected an error")
	}
}
