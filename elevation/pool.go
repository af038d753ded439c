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

package elevation

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/ctessum/requestcache"
	"golang.org/x/sync/errgroup"
)

// Coord is a geographic location.
type Coord struct {
	Lat, Lon float64
}

func (c Coord) key() string {
	return fmt.Sprintf("%v,%v", c.Lat, c.Lon)
}

// lookup is the cached result of one elevation request. Failures are
// stored in the result rather than returned to the cache so that
// duplicate requests waiting on the same location are always answered.
type lookup struct {
	elev float64
	err  error
}

type cached struct {
	c *requestcache.Cache
}

// Cached wraps r so that each unique location is only looked up
// once, even when several lookups of the same location are in
// progress at the same time.
func Cached(r Resolver, maxEntries int) Resolver {
	return cached{
		c: requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			c := req.(Coord)
			e, err := r.Elevation(ctx, c.Lat, c.Lon)
			return lookup{elev: e, err: err}, nil
		}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(maxEntries)),
	}
}

func (c cached) Elevation(ctx context.Context, lat, lon float64) (float64, error) {
	coord := Coord{Lat: lat, Lon: lon}
	res, err := c.c.NewRequest(ctx, coord, coord.key()).Result()
	if err != nil {
		return 0, err
	}
	l := res.(lookup)
	return l.elev, l.err
}

// Result is the outcome of looking up one location.
type Result struct {
	Coord
	Elevation float64

	// Err is nil if Elevation is valid.
	Err error
}

// ResolveAll looks up the elevations of coords using up to workers
// concurrent requests. The first failure cancels the lookups that have
// not started yet; ResolveAll then returns the results gathered so far
// along with that failure. Results are in the same order as coords.
func ResolveAll(ctx context.Context, r Resolver, coords []Coord, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]Result, len(coords))
	for i, c := range coords {
		out[i] = Result{Coord: c, Err: errNotRun}
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range coords {
		i := i
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out[i].Err = err
				return nil
			}
			out[i].Elevation, out[i].Err = r.Elevation(ctx, coords[i].Lat, coords[i].Lon)
			return out[i].Err
		})
	}
	return out, g.Wait()
}

// errNotRun marks locations that were not looked up because an
// earlier lookup failed.
var errNotRun = errors.New("elevation: lookup not run")
