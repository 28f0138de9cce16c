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

import (
	"math"

	"github.com/ctessum/sparse"
)

// mmPerM converts soil depth in meters to water depth in millimeters.
const mmPerM = 1000.

// Porosity returns the fraction of soil volume that is not occupied by
// solid particles, given the soil bulk density and the soil particle
// density (both kg/m3).
func Porosity(bulkDensity, soilDensity float64) (float64, error) {
	if !finite(bulkDensity) || !finite(soilDensity) || soilDensity <= 0 {
		return 0, &InvalidProfileError{Index: -1, BulkDensity: bulkDensity, SoilDensity: soilDensity}
	}
	p := 1 - bulkDensity/soilDensity
	if p <= 0 || p > 1 {
		return 0, &InvalidProfileError{Index: -1, BulkDensity: bulkDensity, SoilDensity: soilDensity}
	}
	return p, nil
}

// MaxMoisture returns the maximum moisture storage [mm] of a soil layer
// with the given depth [m], bulk density [kg/m3] and soil particle
// density [kg/m3].
func MaxMoisture(depth, bulkDensity, soilDensity float64) (float64, error) {
	if !finite(depth) || depth <= 0 {
		return 0, &DomainRangeError{Index: -1, Param: "depth", Value: depth, Valid: "(0, +Inf)"}
	}
	p, err := Porosity(bulkDensity, soilDensity)
	if err != nil {
		return 0, err
	}
	return depth * p * mmPerM, nil
}

// MaxMoistureArray calculates MaxMoisture element-wise. The input arrays
// are broadcast against each other, so depth may for example hold one value
// per layer while the densities hold one value per layer and grid cell.
// The first invalid element stops the calculation.
func MaxMoistureArray(depth, bulkDensity, soilDensity *sparse.DenseArray) (*sparse.DenseArray, error) {
	return MaxMoistureEach(depth, bulkDensity, soilDensity, failFast)
}

// MaxMoistureEach is like MaxMoistureArray, but passes every invalid
// element to handle.
func MaxMoistureEach(depth, bulkDensity, soilDensity *sparse.DenseArray, handle ErrorHandler) (*sparse.DenseArray, error) {
	b, err := newBroadcaster(depth, bulkDensity, soilDensity)
	if err != nil {
		return nil, err
	}
	out := b.output()
	idx := make([]int, 3)
	for i := range out.Elements {
		b.index(i, idx)
		m, err := MaxMoisture(depth.Elements[idx[0]], bulkDensity.Elements[idx[1]], soilDensity.Elements[idx[2]])
		if err != nil {
			if err = handle(i, withIndex(err, i)); err != nil {
				return nil, err
			}
			m = math.NaN()
		}
		out.Elements[i] = m
	}
	return out, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
