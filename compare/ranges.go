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

package compare

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
)

// Range holds the expected range of a variable's values (VMin to VMax)
// and of the difference between two datasets (AMin to AMax).
type Range struct {
	VMin, VMax float64
	AMin, AMax float64
}

// DefaultSurfaceVariables are the single-layer variables compared by default.
var DefaultSurfaceVariables = []string{"infilt", "Ws", "Ds", "Dsmax", "avg_T", "c", "elev", "annual_prec"}

// DefaultLayerVariables are the per-layer variables compared by default.
var DefaultLayerVariables = []string{"soil_density", "bulk_density", "Wpwp_FRACT", "bubble", "quartz",
	"resid_moist", "Wcr_FRACT", "expt", "depth", "Ksat", "init_moist"}

// DefaultRanges returns the default value and difference ranges for the
// default variables. The Ws, Ds and Dsmax ranges are for NIJSSEN2001
// parameters.
func DefaultRanges() map[string]Range {
	return map[string]Range{
		"infilt":       {VMin: 0, VMax: 1, AMin: -0.5, AMax: 0.5},
		"Ws":           {VMin: 0, VMax: 1000, AMin: -1000, AMax: 1000},
		"Ds":           {VMin: 0, VMax: 0.03, AMin: -0.01, AMax: 0.01},
		"Dsmax":        {VMin: 0, VMax: 0.001, AMin: -0.001, AMax: 0.001},
		"avg_T":        {VMin: -25, VMax: 25, AMin: -2, AMax: 2},
		"c":            {VMin: 0, VMax: 2.5, AMin: -0.5, AMax: 0.5},
		"elev":         {VMin: 0, VMax: 2500, AMin: -200, AMax: 200},
		"annual_prec":  {VMin: 0, VMax: 2000, AMin: -500, AMax: 500},
		"soil_density": {VMin: 0, VMax: 4000, AMin: -500, AMax: 500},
		"bulk_density": {VMin: 0, VMax: 1800, AMin: -100, AMax: 100},
		"Wpwp_FRACT":   {VMin: 0, VMax: 1, AMin: -0.4, AMax: 0.4},
		"bubble":       {VMin: 0, VMax: 75, AMin: -10, AMax: 10},
		"quartz":       {VMin: 0, VMax: 1, AMin: -0.25, AMax: 0.25},
		"resid_moist":  {VMin: 0, VMax: 0.1, AMin: -0.05, AMax: 0.05},
		"Wcr_FRACT":    {VMin: 0, VMax: 1, AMin: -0.5, AMax: 0.5},
		"expt":         {VMin: 0, VMax: 20, AMin: -5, AMax: 5},
		"depth":        {VMin: 0, VMax: 2.5, AMin: -2, AMax: 2},
		"Ksat":         {VMin: 0, VMax: 4000, AMin: -1000, AMax: 1000},
		"init_moist":   {VMin: 0, VMax: 200, AMin: -100, AMax: 100},
	}
}

type rangeOverride struct {
	VMin, VMax *float64
	AMin, AMax *float64
}

// LoadRanges reads range overrides in TOML format from r and merges them
// into the default ranges. Each table is named after a variable, and
// fields that are left out keep their default values:
//
//	[Ds]
//	VMax = 0.05
//	AMin = -0.02
//	AMax = 0.02
func LoadRanges(r io.Reader) (map[string]Range, error) {
	var overrides map[string]rangeOverride
	if _, err := toml.DecodeReader(r, &overrides); err != nil {
		return nil, fmt.Errorf("compare: reading ranges: %v", err)
	}
	ranges := DefaultRanges()
	for name, o := range overrides {
		rng := ranges[name]
		set := func(dst *float64, src *float64) {
			if src != nil {
				*dst = *src
			}
		}
		set(&rng.VMin, o.VMin)
		set(&rng.VMax, o.VMax)
		set(&rng.AMin, o.AMin)
		set(&rng.AMax, o.AMax)
		if rng.VMin > rng.VMax || rng.AMin > rng.AMax {
			return nil, fmt.Errorf("compare: range for %s has a minimum above its maximum: %+v", name, rng)
		}
		ranges[name] = rng
	}
	return ranges, nil
}
