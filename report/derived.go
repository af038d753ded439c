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

// Package report writes concentration fields and facility rankings as
// shapefiles, tables and interactive maps.
package report

import (
	"fmt"
	"math"
	"sort"

	"github.com/Knetic/govaluate"
	"github.com/spatialmodel/ptsrc"
	"github.com/spatialmodel/ptsrc/conc"
)

// Names of the receptor variables that derived expressions can use.
const (
	PM25Var       = "PM25"
	CancerRiskVar = "CancerRisk"
)

// maxFieldName is the maximum length of a dBASE field name.
const maxFieldName = 10

// Functions returns the functions available to derived expressions:
//
// 'cancerRisk(x)' converts a diesel particulate matter concentration
// into an inhalation cancer risk using the configured intake factor and
// cancer slope.
//
// 'chronicHI(x)' converts a concentration into a chronic hazard index
// using the configured chronic reference exposure level.
//
// 'exp(x)' applies the exponential function e^x.
func Functions(c ptsrc.Config) map[string]govaluate.ExpressionFunction {
	oneArg := func(name string, f func(float64) float64) govaluate.ExpressionFunction {
		return func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("report: got %d arguments for function '%s', but needs 1", len(args), name)
			}
			x, ok := args[0].(float64)
			if !ok {
				return nil, fmt.Errorf("report: argument to function '%s' must be a number", name)
			}
			return f(x), nil
		}
	}
	return map[string]govaluate.ExpressionFunction{
		"cancerRisk": oneArg("cancerRisk", func(x float64) float64 { return x * c.InhalationFactor * c.CancerSlope }),
		"chronicHI":  oneArg("chronicHI", func(x float64) float64 { return x / c.ChronicREL }),
		"exp":        oneArg("exp", math.Exp),
	}
}

// Derived calculates additional receptor variables from expressions
// over PM25 and CancerRisk.
type Derived struct {
	names []string
	exprs map[string]*govaluate.EvaluableExpression
}

// NewDerived parses exprs, a map of variable names to expressions.
// Variable names are used as shapefile field names, so they must be at
// most ten characters long.
func NewDerived(exprs map[string]string, c ptsrc.Config) (*Derived, error) {
	d := &Derived{exprs: make(map[string]*govaluate.EvaluableExpression)}
	funcs := Functions(c)
	for name, s := range exprs {
		if name == "" || len(name) > maxFieldName {
			return nil, fmt.Errorf("report: derived variable name %q must have between 1 and %d characters", name, maxFieldName)
		}
		e, err := govaluate.NewEvaluableExpressionWithFunctions(s, funcs)
		if err != nil {
			return nil, fmt.Errorf("report: derived variable %s: %v", name, err)
		}
		for _, v := range e.Vars() {
			if v != PM25Var && v != CancerRiskVar {
				return nil, fmt.Errorf("report: derived variable %s uses unknown variable %s", name, v)
			}
		}
		d.exprs[name] = e
		d.names = append(d.names, name)
	}
	sort.Strings(d.names)
	return d, nil
}

// Names returns the sorted names of the derived variables.
func (d *Derived) Names() []string {
	if d == nil {
		return nil
	}
	return d.names
}

// Eval returns the derived variables at a receptor with value v, in
// the order given by Names.
func (d *Derived) Eval(v conc.Value) ([]float64, error) {
	if d == nil {
		return nil, nil
	}
	params := map[string]interface{}{PM25Var: v.PM25, CancerRiskVar: v.CancerRisk}
	o := make([]float64, len(d.names))
	for i, name := range d.names {
		r, err := d.exprs[name].Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("report: evaluating %s: %v", name, err)
		}
		f, ok := r.(float64)
		if !ok {
			return nil, fmt.Errorf("report: %s evaluates to %v, which is not a number", name, r)
		}
		o[i] = f
	}
	return o, nil
}
