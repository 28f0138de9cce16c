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

// Package vicparam reads and writes gridded VIC soil parameter files in
// netCDF format and converts their baseflow parameters.
package vicparam

import (
	"fmt"
	"math"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Version gives the version number.
const Version = "0.1.0"

// Dataset is an open netCDF soil parameter file.
type Dataset struct {
	// Path is the location of the file.
	Path string

	f       *os.File
	cf      *cdf.File
	numRecs int
}

// Variable holds the data of a dataset variable converted to float64.
type Variable struct {
	Name string

	// Dims holds the dimension names, outermost first.
	Dims []string

	Data *sparse.DenseArray

	// Missing is true for elements that hold the variable's fill value or NaN.
	Missing []bool

	Units, Description string
}

// Open opens the netCDF file at path for reading.
func Open(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vicparam: opening dataset: %v", err)
	}
	cf, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("vicparam: reading netCDF header of %s: %v", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("vicparam: opening dataset: %v", err)
	}
	return &Dataset{
		Path:    path,
		f:       f,
		cf:      cf,
		numRecs: int(cf.Header.NumRecs(fi.Size())),
	}, nil
}

// Close closes the underlying file.
func (d *Dataset) Close() error {
	return d.f.Close()
}

// Variables returns the names of the variables in the dataset.
func (d *Dataset) Variables() []string {
	return d.cf.Header.Variables()
}

// Has returns whether the dataset contains a variable called name.
func (d *Dataset) Has(name string) bool {
	return d.cf.Header.Dimensions(name) != nil
}

// Attribute returns the text attribute attr of variable v, or the global
// attribute attr if v is "". It returns "" if the attribute does not exist
// or is not text.
func (d *Dataset) Attribute(v, attr string) string {
	s, _ := d.cf.Header.GetAttribute(v, attr).(string)
	return s
}

// Shape returns the lengths of the dimensions of variable name, with
// the record dimension set to the number of records in the file.
func (d *Dataset) Shape(name string) ([]int, error) {
	l := d.cf.Header.Lengths(name)
	if l == nil {
		return nil, fmt.Errorf("vicparam: variable %s not found in %s", name, d.Path)
	}
	shape := append([]int{}, l...)
	if d.cf.Header.IsRecordVariable(name) {
		shape[0] = d.numRecs
	}
	return shape, nil
}

// Read reads variable name.
func (d *Dataset) Read(name string) (*Variable, error) {
	shape, err := d.Shape(name)
	if err != nil {
		return nil, err
	}
	buf, err := d.readRaw(name, shape)
	if err != nil {
		return nil, err
	}
	vals, err := toFloat64s(buf)
	if err != nil {
		return nil, fmt.Errorf("vicparam: reading %s: %v", name, err)
	}
	fill := fillValue(d.cf.Header.FillValue(name))
	v := &Variable{
		Name:        name,
		Dims:        d.cf.Header.Dimensions(name),
		Data:        sparse.ZerosDense(shape...),
		Missing:     make([]bool, len(vals)),
		Units:       d.Attribute(name, "units"),
		Description: d.Attribute(name, "description"),
	}
	for i, val := range vals {
		v.Data.Elements[i] = val
		v.Missing[i] = math.IsNaN(val) || val == fill
	}
	return v, nil
}

// readRaw reads the data of variable name in its stored type.
func (d *Dataset) readRaw(name string, shape []int) (interface{}, error) {
	n := 1
	for _, s := range shape {
		n *= s
	}
	if n == 0 {
		return d.cf.Header.ZeroValue(name, 0), nil
	}
	var end []int
	if d.cf.Header.IsRecordVariable(name) {
		end = make([]int, len(shape))
		for i, s := range shape {
			end[i] = s - 1
		}
	}
	r := d.cf.Reader(name, nil, end)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("vicparam: reading %s from %s: %v", name, d.Path, err)
	}
	return buf, nil
}

// DomainMask returns whether each grid cell is active according to the
// dataset's "mask" variable, where zero marks an inactive cell. It returns
// nil if the dataset has no mask.
func DomainMask(d *Dataset) ([]bool, error) {
	if !d.Has("mask") {
		return nil, nil
	}
	m, err := d.Read("mask")
	if err != nil {
		return nil, err
	}
	active := make([]bool, len(m.Data.Elements))
	for i, v := range m.Data.Elements {
		active[i] = !m.Missing[i] && v != 0
	}
	return active, nil
}

func toFloat64s(buf interface{}) ([]float64, error) {
	switch b := buf.(type) {
	case []float64:
		return b, nil
	case []float32:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	case []int32:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	case []int16:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	case []uint8:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(int8(v))
		}
		return o, nil
	default:
		return nil, fmt.Errorf("unsupported data type %T", buf)
	}
}

// fromFloat64s converts vals to a slice of the same type as like,
// replacing NaN values with fill.
func fromFloat64s(vals []float64, like interface{}, fill float64) (interface{}, error) {
	switch like.(type) {
	case []float64:
		o := make([]float64, len(vals))
		for i, v := range vals {
			if math.IsNaN(v) {
				v = fill
			}
			o[i] = v
		}
		return o, nil
	case []float32:
		o := make([]float32, len(vals))
		for i, v := range vals {
			if math.IsNaN(v) {
				v = fill
			}
			o[i] = float32(v)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("variable type %T cannot hold converted values; a floating-point type is required", like)
	}
}

func fillValue(v interface{}) float64 {
	switch f := v.(type) {
	case float64:
		return f
	case float32:
		return float64(f)
	case int32:
		return float64(f)
	case int16:
		return float64(f)
	case int8:
		return float64(f)
	case uint8:
		return float64(int8(f))
	}
	return math.NaN()
}
