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

package baseflow

import "fmt"

// An ErrorHandler is called for each array element whose calculation fails.
// index is the flat index of the element in the broadcast output array.
// Returning nil records NaN for that element and continues with the next
// one; returning an error stops the calculation and the error is returned
// to the caller.
type ErrorHandler func(index int, err error) error

// failFast is the ErrorHandler used by the fail-fast array functions.
func failFast(_ int, err error) error { return err }

// InvalidProfileError indicates a soil layer whose bulk and particle
// densities do not give a porosity in (0, 1].
type InvalidProfileError struct {
	// Index is the flat array index of the offending element, or -1
	// for scalar calculations.
	Index int

	BulkDensity, SoilDensity float64
}

func (e *InvalidProfileError) Error() string {
	return fmt.Sprintf("baseflow: invalid soil profile%s: bulk density %g and soil density %g "+
		"do not give a porosity in (0, 1]", at(e.Index), e.BulkDensity, e.SoilDensity)
}

// DegenerateParameterError indicates a zero or undefined denominator
// in a parameter conversion.
type DegenerateParameterError struct {
	// Index is the flat array index of the offending element, or -1
	// for scalar calculations.
	Index int

	// Param is the parameter that could not be calculated.
	Param string

	Reason string
}

func (e *DegenerateParameterError) Error() string {
	return fmt.Sprintf("baseflow: degenerate parameter %s%s: %s", e.Param, at(e.Index), e.Reason)
}

// DomainRangeError indicates an input value outside of its valid range.
type DomainRangeError struct {
	// Index is the flat array index of the offending element, or -1
	// for scalar calculations.
	Index int

	Param string
	Value float64

	// Valid describes the valid range, e.g. "(0, 1]".
	Valid string
}

func (e *DomainRangeError) Error() string {
	return fmt.Sprintf("baseflow: %s%s = %g is outside of the valid range %s",
		e.Param, at(e.Index), e.Value, e.Valid)
}

func at(index int) string {
	if index < 0 {
		return ""
	}
	return fmt.Sprintf(" at element %d", index)
}

// withIndex returns a copy of err with its element index set to i.
func withIndex(err error, i int) error {
	switch e := err.(type) {
	case *InvalidProfileError:
		ee := *e
		ee.Index = i
		return &ee
	case *DegenerateParameterError:
		ee := *e
		ee.Index = i
		return &ee
	case *DomainRangeError:
		ee := *e
		ee.Index = i
		return &ee
	}
	return err
}
