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

// Package compare calculates summary statistics of the differences
// between two VIC soil parameter datasets.
package compare

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/orianac/VICpy/vicparam"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Options configures a comparison.
type Options struct {
	// Variables are the variables to compare. If empty, the default
	// surface and layer variables that are present in both datasets
	// are compared.
	Variables []string

	// Ranges are the expected value and difference ranges. If nil,
	// DefaultRanges is used.
	Ranges map[string]Range

	// Log receives messages about skipped variables. If nil, the
	// standard logrus logger is used.
	Log logrus.FieldLogger
}

// Result holds comparison statistics for one variable, or for one layer
// of a layered variable. Statistics are calculated over the grid cells
// that are active and not missing in both datasets.
type Result struct {
	Variable string

	// Label is the parameter name shown for the variable; converted
	// baseflow variables are labeled d1, d2 and d3.
	Label       string
	Description string
	Units       string

	// Layer is the soil layer index, or -1 for single-layer variables.
	Layer int

	N int

	MeanA, MeanB float64

	// MeanDiff and StdDiff are the mean and standard deviation of A-B.
	MeanDiff, StdDiff float64
	RMSE              float64
	MaxAbsDiff        float64

	// Correlation is the Pearson correlation between A and B.
	Correlation float64

	// OutOfRange is the number of cells where A is outside of the
	// expected value range, and DiffOutOfRange is the number where A-B is
	// outside of the expected difference range.
	OutOfRange, DiffOutOfRange int
}

// labels holds the NIJSSEN2001 names and descriptions of the converted
// baseflow variables.
var labels = map[string]struct{ label, description, units string }{
	"Ds":    {"d1", "Linear reservoir coefficient", ""},
	"Dsmax": {"d2", "Non-linear reservoir coefficient", ""},
	"Ws":    {"d3", "The soil moisture level at which the baseflow transitions from linear to non-linear", "mm"},
}

// DefaultTitle returns the title used for a dataset in comparison
// tables: the file name without directory or extension.
func DefaultTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Compare compares the variables in datasets a and b. mask, if not nil,
// specifies which grid cells are active.
func Compare(a, b *vicparam.Dataset, mask []bool, o Options) ([]Result, error) {
	log := o.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	ranges := o.Ranges
	if ranges == nil {
		ranges = DefaultRanges()
	}
	vars := o.Variables
	explicit := len(vars) > 0
	if !explicit {
		vars = append(append([]string{}, DefaultSurfaceVariables...), DefaultLayerVariables...)
	}

	var results []Result
	for _, name := range vars {
		if !a.Has(name) || !b.Has(name) {
			if explicit {
				return nil, fmt.Errorf("compare: variable %s is not in both %s and %s", name, a.Path, b.Path)
			}
			log.Infof("skipping %s: not in both datasets", name)
			continue
		}
		r, err := compareVariable(a, b, name, mask, ranges)
		if err != nil {
			return nil, err
		}
		results = append(results, r...)
	}
	return results, nil
}

func compareVariable(a, b *vicparam.Dataset, name string, mask []bool, ranges map[string]Range) ([]Result, error) {
	va, err := a.Read(name)
	if err != nil {
		return nil, err
	}
	vb, err := b.Read(name)
	if err != nil {
		return nil, err
	}
	if !sameShape(va.Data.Shape, vb.Data.Shape) {
		return nil, fmt.Errorf("compare: %s has shape %v in %s but %v in %s",
			name, va.Data.Shape, a.Path, vb.Data.Shape, b.Path)
	}

	nLayers := 1
	if len(va.Data.Shape) >= 3 {
		nLayers = va.Data.Shape[0]
	}
	n := len(va.Data.Elements)
	if nLayers == 0 || n == 0 {
		return nil, nil
	}
	nCells := n / nLayers
	if mask != nil && len(mask) != nCells {
		return nil, fmt.Errorf("compare: %s has %d grid cells per layer but the mask has %d", name, nCells, len(mask))
	}

	base := Result{
		Variable:    name,
		Label:       name,
		Description: va.Description,
		Units:       va.Units,
		Layer:       -1,
	}
	if l, ok := labels[name]; ok && (a.Attribute(name, "note") == vicparam.ConvertedNote ||
		b.Attribute(name, "note") == vicparam.ConvertedNote) {
		base.Label, base.Description, base.Units = l.label, l.description, l.units
	}
	rng, hasRange := ranges[name]

	results := make([]Result, nLayers)
	for layer := 0; layer < nLayers; layer++ {
		r := base
		if len(va.Data.Shape) >= 3 {
			r.Layer = layer
		}
		var x, y []float64
		for c := 0; c < nCells; c++ {
			i := layer*nCells + c
			if (mask != nil && !mask[c]) || va.Missing[i] || vb.Missing[i] {
				continue
			}
			x = append(x, va.Data.Elements[i])
			y = append(y, vb.Data.Elements[i])
		}
		r.summarize(x, y)
		if hasRange {
			r.countOutOfRange(x, y, rng)
		}
		results[layer] = r
	}
	return results, nil
}

// summarize calculates the statistics of A values x and B values y.
func (r *Result) summarize(x, y []float64) {
	r.N = len(x)
	if r.N == 0 {
		nan := math.NaN()
		r.MeanA, r.MeanB, r.MeanDiff, r.StdDiff, r.RMSE, r.MaxAbsDiff, r.Correlation = nan, nan, nan, nan, nan, nan, nan
		return
	}
	diff := make([]float64, len(x))
	floats.SubTo(diff, x, y)
	r.MeanA = stat.Mean(x, nil)
	r.MeanB = stat.Mean(y, nil)
	r.MeanDiff = stat.Mean(diff, nil)
	if r.N > 1 {
		r.StdDiff = stat.StdDev(diff, nil)
		r.Correlation = stat.Correlation(x, y, nil)
	} else {
		r.StdDiff = math.NaN()
		r.Correlation = math.NaN()
	}
	r.RMSE = math.Sqrt(floats.Dot(diff, diff) / float64(r.N))
	r.MaxAbsDiff = floats.Norm(diff, math.Inf(1))
}

func (r *Result) countOutOfRange(x, y []float64, rng Range) {
	for i := range x {
		if x[i] < rng.VMin || x[i] > rng.VMax {
			r.OutOfRange++
		}
		if d := x[i] - y[i]; d < rng.AMin || d > rng.AMax {
			r.DiffOutOfRange++
		}
	}
}

// WriteTable writes results to w as an aligned text table, where titleA
// and titleB name the two compared datasets.
func WriteTable(w io.Writer, titleA, titleB string, results []Result) error {
	tw := new(tabwriter.Writer)
	tw.Init(w, 0, 2, 1, ' ', 0)
	fmt.Fprintf(tw, "variable\tlayer\tunits\tn\tmean %s (A)\tmean %s (B)\tmean A-B\tstd A-B\trmse\tmax |A-B|\tcorr\tA out of range\tA-B out of range\n",
		titleA, titleB)
	for _, r := range results {
		layer := "-"
		if r.Layer >= 0 {
			layer = fmt.Sprint(r.Layer)
		}
		units := r.Units
		if units == "" {
			units = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%d\t%d\n",
			r.Label, layer, units, r.N, r.MeanA, r.MeanB, r.MeanDiff, r.StdDiff, r.RMSE,
			r.MaxAbsDiff, r.Correlation, r.OutOfRange, r.DiffOutOfRange)
	}
	return tw.Flush()
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
