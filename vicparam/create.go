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

package vicparam

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
)

// Field is a variable to be written by Create.
type Field struct {
	Name string
	Dims []string

	// Data is a []float64, []float32, []int32 or []int16 holding the
	// variable values in row-major order.
	Data interface{}

	// Attributes are the variable attributes. Values can be of type
	// string, []int16, []int32, []float32 or []float64.
	Attributes map[string]interface{}
}

// Create writes a new netCDF file to path with the given dimensions,
// global attributes and variables.
func Create(path string, dims []string, lengths []int, global map[string]interface{}, fields ...Field) error {
	h := cdf.NewHeader(dims, lengths)
	for _, a := range sortKeys(global) {
		h.AddAttribute("", a, global[a])
	}
	for _, f := range fields {
		h.AddVariable(f.Name, f.Dims, f.Data)
		for _, a := range sortKeys(f.Attributes) {
			h.AddAttribute(f.Name, a, f.Attributes[a])
		}
	}
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("vicparam: creating netCDF file: %v", err)
	}
	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("vicparam: creating netCDF file: %v", err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		return fmt.Errorf("vicparam: creating netCDF file: %v", err)
	}
	for _, fld := range fields {
		if lenOf(fld.Data) == 0 {
			continue
		}
		if err := writeVar(f, fld.Name, fld.Data); err != nil {
			return fmt.Errorf("vicparam: writing %s: %v", fld.Name, err)
		}
	}
	if err := cdf.UpdateNumRecs(ff); err != nil {
		return fmt.Errorf("vicparam: updating number of records: %v", err)
	}
	return ff.Close()
}
