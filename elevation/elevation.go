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

// Package elevation looks up ground elevations of source locations.
package elevation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
)

// Resolver returns the ground elevation in meters at a location.
type Resolver interface {
	Elevation(ctx context.Context, lat, lon float64) (float64, error)
}

// LookupError is returned when an elevation cannot be retrieved.
type LookupError struct {
	Lat, Lon float64
	Err      error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("elevation: looking up (lat=%g, lon=%g): %v", e.Lat, e.Lon, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// EPQSURL is the address of the USGS Elevation Point Query Service.
const EPQSURL = "https://epqs.nationalmap.gov/v1/json"

// EPQS retrieves elevations from the USGS Elevation Point Query Service.
type EPQS struct {
	// URL is the service address.
	URL string

	// Client is used to make requests.
	Client *http.Client

	// Timeout limits the duration of each request. Zero means no limit.
	Timeout time.Duration

	// Retries is the number of times a failed request is retried
	// with exponential backoff. With zero retries the first failure
	// is returned.
	Retries uint64

	Log logrus.FieldLogger
}

// NewEPQS returns an EPQS client with a 30 second request timeout and
// no retries.
func NewEPQS(log logrus.FieldLogger) *EPQS {
	return &EPQS{
		URL:     EPQSURL,
		Client:  http.DefaultClient,
		Timeout: 30 * time.Second,
		Log:     log,
	}
}

type epqsResponse struct {
	Value json.RawMessage `json:"value"`
}

// Elevation implements Resolver.
func (e *EPQS) Elevation(ctx context.Context, lat, lon float64) (float64, error) {
	var elev float64
	op := func() error {
		var err error
		elev, err = e.request(ctx, lat, lon)
		return err
	}
	var err error
	if e.Retries == 0 {
		err = op()
	} else {
		b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), e.Retries), ctx)
		err = backoff.RetryNotify(op, b, func(err error, d time.Duration) {
			if e.Log != nil {
				e.Log.WithFields(logrus.Fields{"lat": lat, "lon": lon}).Warnf("%v: retrying in %v", err, d)
			}
		})
	}
	if err != nil {
		return 0, &LookupError{Lat: lat, Lon: lon, Err: err}
	}
	return elev, nil
}

func (e *EPQS) request(ctx context.Context, lat, lon float64) (float64, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	q := url.Values{}
	q.Set("output", "json")
	q.Set("x", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("y", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("units", "Meters")
	req, err := http.NewRequest(http.MethodGet, e.URL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}
	req = req.WithContext(ctx)
	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("service returned status %s", resp.Status)
	}
	var r epqsResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return 0, fmt.Errorf("decoding response: %v", err)
	}
	return parseValue(r.Value)
}

// parseValue parses an elevation that may be encoded as either a JSON
// number or a string containing a number.
func parseValue(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("response has no elevation value")
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("invalid elevation value %s", string(raw))
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("non-numeric elevation value %q", s)
	}
	return v, nil
}
