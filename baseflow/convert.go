/*
Copyright © 2026 the VICpy authors.
This file is part of VICpy.

VICpy is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

VICpy is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with VICpy.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package baseflow converts VIC soil baseflow parameters between the
// ARNO and NIJSSEN2001 parameterizations.
//
// Both parameterizations describe the same baseflow curve. ARNO uses the
// fraction of maximum baseflow at which nonlinear baseflow begins (Ds), the
// maximum baseflow velocity (Dsmax), the fraction of maximum soil moisture
// at which nonlinear baseflow begins (Ws) and the exponent of the nonlinear
// part of the curve (c). NIJSSEN2001 uses the linear reservoir rate (d1),
// the nonlinear reservoir coefficient (d2), the moisture threshold between
// the two (d3, in the units of maximum soil moisture) and the exponent (d4).
// The conversion depends on the maximum moisture storage of the bottom
// soil layer.
package baseflow

import (
	"math"

	"github.com/ctessum/sparse"
)

// ARNO holds ARNO-style baseflow parameters.
type ARNO struct {
	Ds    float64 // fraction of Dsmax where nonlinear baseflow begins
	Dsmax float64 // maximum baseflow velocity [mm/day]
	Ws    float64 // fraction of maximum soil moisture where nonlinear baseflow begins
	C     float64 // exponent of the nonlinear baseflow curve
}

// Nijssen holds NIJSSEN2001-style baseflow parameters.
type Nijssen struct {
	D1 float64 // linear reservoir rate [1/day]
	D2 float64 // nonlinear reservoir coefficient
	D3 float64 // soil moisture threshold [mm]
	D4 float64 // exponent of the nonlinear baseflow curve
}

// ARNOArrays holds gridded ARNO-style baseflow parameters. The arrays
// may have any shapes that broadcast together.
type ARNOArrays struct {
	Ds, Dsmax, Ws, C *sparse.DenseArray
}

// NijssenArrays holds gridded NIJSSEN2001-style baseflow parameters.
type NijssenArrays struct {
	D1, D2, D3, D4 *sparse.DenseArray
}

// ARNOToNijssen converts ARNO baseflow parameters to NIJSSEN2001
// parameters, where maxMoist is the maximum moisture [mm] of the bottom
// soil layer.
//
// When Ws == 1 the moisture threshold equals the maximum moisture, so the
// nonlinear part of the curve is never reached and D2 is 0.
func ARNOToNijssen(p ARNO, maxMoist float64) (Nijssen, error) {
	if err := p.check(maxMoist); err != nil {
		return Nijssen{}, err
	}
	d4 := p.C
	d3 := maxMoist * p.Ws
	d1 := p.Ds * p.Dsmax / d3
	base := maxMoist - d3
	var d2 float64
	if base != 0 {
		d2 = (p.Dsmax - d1*maxMoist) / math.Pow(base, d4)
	}
	if !finite(d1) {
		return Nijssen{}, &DegenerateParameterError{Index: -1, Param: "d1", Reason: "result is not finite"}
	}
	if !finite(d2) {
		return Nijssen{}, &DegenerateParameterError{Index: -1, Param: "d2", Reason: "result is not finite"}
	}
	return Nijssen{D1: d1, D2: d2, D3: d3, D4: d4}, nil
}

func (p ARNO) check(maxMoist float64) error {
	for _, v := range []struct {
		name string
		val  float64
	}{{"Ds", p.Ds}, {"Dsmax", p.Dsmax}, {"Ws", p.Ws}, {"c", p.C}, {"max moisture", maxMoist}} {
		if !finite(v.val) {
			return &DomainRangeError{Index: -1, Param: v.name, Value: v.val, Valid: "finite numbers"}
		}
	}
	if maxMoist < 0 {
		return &DomainRangeError{Index: -1, Param: "max moisture", Value: maxMoist, Valid: "[0, +Inf)"}
	}
	if p.Ws < 0 || p.Ws > 1 {
		return &DomainRangeError{Index: -1, Param: "Ws", Value: p.Ws, Valid: "(0, 1]"}
	}
	if p.Ws*maxMoist == 0 {
		return &DegenerateParameterError{Index: -1, Param: "d1",
			Reason: "moisture threshold d3 = max moisture * Ws is zero"}
	}
	if p.Ws == 1 && p.C <= 0 {
		return &DegenerateParameterError{Index: -1, Param: "d2",
			Reason: "zero moisture above threshold raised to a non-positive exponent"}
	}
	if p.Ds <= 0 || p.Ds > 1 {
		return &DomainRangeError{Index: -1, Param: "Ds", Value: p.Ds, Valid: "(0, 1]"}
	}
	if p.Dsmax <= 0 {
		return &DomainRangeError{Index: -1, Param: "Dsmax", Value: p.Dsmax, Valid: "(0, +Inf)"}
	}
	if p.C <= 0 {
		return &DomainRangeError{Index: -1, Param: "c", Value: p.C, Valid: "(0, +Inf)"}
	}
	return nil
}

// NijssenToARNO converts NIJSSEN2001 baseflow parameters to ARNO
// parameters, where maxMoist is the maximum moisture [mm] of the bottom
// soil layer. It is the inverse of ARNOToNijssen.
func NijssenToARNO(n Nijssen, maxMoist float64) (ARNO, error) {
	for _, v := range []struct {
		name string
		val  float64
	}{{"d1", n.D1}, {"d2", n.D2}, {"d3", n.D3}, {"d4", n.D4}, {"max moisture", maxMoist}} {
		if !finite(v.val) {
			return ARNO{}, &DomainRangeError{Index: -1, Param: v.name, Value: v.val, Valid: "finite numbers"}
		}
	}
	if maxMoist < 0 {
		return ARNO{}, &DomainRangeError{Index: -1, Param: "max moisture", Value: maxMoist, Valid: "[0, +Inf)"}
	}
	if maxMoist == 0 {
		return ARNO{}, &DegenerateParameterError{Index: -1, Param: "Ws", Reason: "max moisture is zero"}
	}
	if n.D3 < 0 || n.D3 > maxMoist {
		return ARNO{}, &DomainRangeError{Index: -1, Param: "d3", Value: n.D3, Valid: "[0, max moisture]"}
	}
	base := maxMoist - n.D3
	if base == 0 && n.D4 <= 0 {
		return ARNO{}, &DegenerateParameterError{Index: -1, Param: "Dsmax",
			Reason: "zero moisture above threshold raised to a non-positive exponent"}
	}
	var nonlinear float64
	if base != 0 {
		nonlinear = n.D2 * math.Pow(base, n.D4)
	}
	dsmax := nonlinear + n.D1*maxMoist
	if dsmax == 0 || !finite(dsmax) {
		return ARNO{}, &DegenerateParameterError{Index: -1, Param: "Ds", Reason: "Dsmax is zero or not finite"}
	}
	return ARNO{
		Ds:    n.D1 * n.D3 / dsmax,
		Dsmax: dsmax,
		Ws:    n.D3 / maxMoist,
		C:     n.D4,
	}, nil
}

// ConvertArrays calculates ARNOToNijssen element-wise. The parameter
// arrays and the bottom-layer maximum moisture array are broadcast against
// each other. The first invalid element stops the calculation.
func ConvertArrays(p ARNOArrays, maxMoist *sparse.DenseArray) (NijssenArrays, error) {
	return ConvertEach(p, maxMoist, failFast)
}

// ConvertEach is like ConvertArrays, but passes every invalid element to
// handle. Elements for which handle returns nil are NaN in all four
// output arrays.
func ConvertEach(p ARNOArrays, maxMoist *sparse.DenseArray, handle ErrorHandler) (NijssenArrays, error) {
	b, err := newBroadcaster(p.Ds, p.Dsmax, p.Ws, p.C, maxMoist)
	if err != nil {
		return NijssenArrays{}, err
	}
	out := NijssenArrays{D1: b.output(), D2: b.output(), D3: b.output(), D4: b.output()}
	idx := make([]int, 5)
	for i := range out.D1.Elements {
		b.index(i, idx)
		n, err := ARNOToNijssen(ARNO{
			Ds:    p.Ds.Elements[idx[0]],
			Dsmax: p.Dsmax.Elements[idx[1]],
			Ws:    p.Ws.Elements[idx[2]],
			C:     p.C.Elements[idx[3]],
		}, maxMoist.Elements[idx[4]])
		if err != nil {
			if err = handle(i, withIndex(err, i)); err != nil {
				return NijssenArrays{}, err
			}
			nan := math.NaN()
			n = Nijssen{D1: nan, D2: nan, D3: nan, D4: nan}
		}
		out.D1.Elements[i] = n.D1
		out.D2.Elements[i] = n.D2
		out.D3.Elements[i] = n.D3
		out.D4.Elements[i] = n.D4
	}
	return out, nil
}
