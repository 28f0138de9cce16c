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
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ctessum/sparse"
	"github.com/orianac/VICpy/baseflow"
	"github.com/sirupsen/logrus"
)

const (
	// ConvertedNote is the "note" attribute of converted baseflow variables.
	ConvertedNote = "NIJSSEN2001 baseflow parameter"

	// HistoryNote is appended to the global "history" attribute of
	// converted datasets.
	HistoryNote = "Converted ARNO baseflow params to NIJSSEN2001 baseflow params"
)

// BaseflowVariables are the names of the baseflow parameter variables.
// The names are kept after conversion: Ds holds d1, Dsmax holds d2, Ws
// holds d3 and c holds d4.
var BaseflowVariables = []string{"Ds", "Dsmax", "Ws", "c"}

// ProfileVariables are the names of the soil layer variables used to
// calculate the maximum soil moisture.
var ProfileVariables = []string{"depth", "bulk_density", "soil_density"}

// ErrAlreadyConverted is returned when converting a dataset whose baseflow
// parameters are already in NIJSSEN2001 form.
var ErrAlreadyConverted = errors.New("vicparam: baseflow parameters are already NIJSSEN2001 parameters")

// InvalidPolicy specifies what to do with grid cells whose parameters
// cannot be converted.
type InvalidPolicy int

const (
	// Abort stops the conversion at the first invalid grid cell.
	Abort InvalidPolicy = iota

	// Mask writes fill values for invalid grid cells and continues.
	Mask
)

// ParsePolicy parses "abort" or "mask".
func ParsePolicy(s string) (InvalidPolicy, error) {
	switch strings.ToLower(s) {
	case "abort":
		return Abort, nil
	case "mask":
		return Mask, nil
	}
	return Abort, fmt.Errorf("vicparam: invalid policy %q; valid options are 'abort' and 'mask'", s)
}

func (p InvalidPolicy) String() string {
	switch p {
	case Abort:
		return "abort"
	case Mask:
		return "mask"
	}
	return fmt.Sprintf("InvalidPolicy(%d)", int(p))
}

// Converter converts the baseflow parameters of VIC soil parameter datasets
// from the ARNO to the NIJSSEN2001 parameterization.
type Converter struct {
	Policy InvalidPolicy

	// Log receives progress and masking messages. If nil, the
	// standard logrus logger is used.
	Log logrus.FieldLogger
}

// Summary counts the grid cells handled by a conversion.
type Summary struct {
	Cells     int // grid cells in the dataset
	Converted int // cells with converted parameters
	Masked    int // inactive or missing cells passed through unchanged
	Invalid   int // cells with invalid parameters written as fill values
}

func (c *Converter) log() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

// Convert converts the baseflow parameters in the dataset and writes the
// converted dataset to outPath, which may be the location of the input
// dataset.
func (c *Converter) Convert(in *Dataset, outPath string) (*Summary, error) {
	if in.Attribute("Ds", "note") == ConvertedNote {
		return nil, ErrAlreadyConverted
	}
	log := c.log().WithField("dataset", in.Path)

	vars := make(map[string]*Variable)
	for _, name := range append(append([]string{}, ProfileVariables...), BaseflowVariables...) {
		log.Infof("reading %s", name)
		v, err := in.Read(name)
		if err != nil {
			return nil, err
		}
		vars[name] = v
	}

	grid := vars["Ds"].Data.Shape
	nCells := len(vars["Ds"].Data.Elements)
	for _, name := range BaseflowVariables {
		if !sameShape(vars[name].Data.Shape, grid) {
			return nil, fmt.Errorf("vicparam: %s has shape %v but Ds has shape %v", name, vars[name].Data.Shape, grid)
		}
	}

	inactive, err := inactiveCells(in, vars, nCells)
	if err != nil {
		return nil, err
	}
	invalid := make([]bool, nCells)

	handle := func(i int, err error) error {
		cell := i % nCells
		if inactive[cell] || invalid[cell] {
			return nil
		}
		if c.Policy == Abort {
			return err
		}
		invalid[cell] = true
		log.WithError(err).WithField("cell", cell).Warn("writing fill values for invalid grid cell")
		return nil
	}

	depth := layerColumn(vars["depth"].Data, grid)
	bulk := layerColumn(vars["bulk_density"].Data, grid)
	soil := layerColumn(vars["soil_density"].Data, grid)
	log.Info("calculating maximum soil moisture")
	maxMoist, err := baseflow.MaxMoistureEach(depth, bulk, soil, handle)
	if err != nil {
		return nil, err
	}
	if len(maxMoist.Elements)%nCells != 0 {
		return nil, fmt.Errorf("vicparam: soil layer shape %v does not match grid shape %v", maxMoist.Shape, grid)
	}
	bottom, err := baseflow.BottomLayer(maxMoist)
	if err != nil {
		return nil, err
	}

	log.Info("converting baseflow parameters")
	out, err := baseflow.ConvertEach(baseflow.ARNOArrays{
		Ds:    vars["Ds"].Data,
		Dsmax: vars["Dsmax"].Data,
		Ws:    vars["Ws"].Data,
		C:     vars["c"].Data,
	}, bottom, handle)
	if err != nil {
		return nil, err
	}
	if !sameShape(out.D1.Shape, grid) {
		return nil, fmt.Errorf("vicparam: converted parameter shape %v does not match grid shape %v", out.D1.Shape, grid)
	}

	s := &Summary{Cells: nCells}
	results := []*sparse.DenseArray{out.D1, out.D2, out.D3, out.D4}
	e := new(edits)
	e.data = make(map[string][]float64)
	for k, name := range BaseflowVariables {
		data := results[k].Elements
		for i := range data {
			if invalid[i] {
				// An invalid layer above the bottom layer does not stop
				// the conversion itself, but still invalidates the cell.
				data[i] = math.NaN()
			}
			if inactive[i] {
				// Pass inactive cells through unchanged.
				data[i] = vars[name].Data.Elements[i]
				if vars[name].Missing[i] {
					data[i] = math.NaN()
				}
			}
		}
		e.data[name] = data
		e.setAttr(name, "note", ConvertedNote)
	}
	for i := 0; i < nCells; i++ {
		switch {
		case inactive[i]:
			s.Masked++
		case invalid[i]:
			s.Invalid++
		default:
			s.Converted++
		}
	}

	history := time.Now().UTC().Format(time.RFC3339) + ": " + HistoryNote
	if old := in.Attribute("", "history"); old != "" {
		history = strings.TrimRight(old, "\n") + "\n" + history
	}
	e.setAttr("", "history", history)

	log.WithField("output", outPath).Info("writing converted parameters")
	if err := in.writeCopy(outPath, e); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"cells":     s.Cells,
		"converted": s.Converted,
		"masked":    s.Masked,
		"invalid":   s.Invalid,
	}).Info("conversion complete")
	return s, nil
}

// inactiveCells returns whether each grid cell is excluded by the domain
// mask or has missing input values.
func inactiveCells(in *Dataset, vars map[string]*Variable, nCells int) ([]bool, error) {
	inactive := make([]bool, nCells)
	mask, err := DomainMask(in)
	if err != nil {
		return nil, err
	}
	if mask != nil {
		if len(mask) != nCells {
			return nil, fmt.Errorf("vicparam: mask has %d cells but Ds has %d", len(mask), nCells)
		}
		for i, active := range mask {
			inactive[i] = !active
		}
	}
	for _, v := range vars {
		if len(v.Missing)%nCells != 0 {
			// Not gridded; a missing value cannot be attributed to a cell.
			for _, m := range v.Missing {
				if m {
					return nil, fmt.Errorf("vicparam: %s has missing values", v.Name)
				}
			}
			continue
		}
		for j, m := range v.Missing {
			if m {
				inactive[j%nCells] = true
			}
		}
	}
	return inactive, nil
}

// layerColumn expands a one-dimensional per-layer array to shape
// [layer, grid...] so that every grid cell holds the layer values.
// Other arrays are returned unchanged.
func layerColumn(a *sparse.DenseArray, grid []int) *sparse.DenseArray {
	if len(a.Shape) != 1 || a.Shape[0] == 0 || len(grid) == 0 {
		return a
	}
	o := sparse.ZerosDense(append([]int{a.Shape[0]}, grid...)...)
	n := len(o.Elements) / a.Shape[0]
	for l, v := range a.Elements {
		for i := l * n; i < (l+1)*n; i++ {
			o.Elements[i] = v
		}
	}
	return o
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
