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
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/ctessum/cdf"
)

// edits describes changes to make while copying a dataset.
type edits struct {
	// data holds replacement data for variables, in float64. NaN
	// values are stored as the variable's fill value.
	data map[string][]float64

	// attrs holds attributes to set, by variable name ("" for global
	// attributes) and attribute name. Existing attributes with the
	// same names are replaced.
	attrs map[string]map[string]interface{}
}

func (e *edits) setAttr(v, name string, val interface{}) {
	if e.attrs == nil {
		e.attrs = make(map[string]map[string]interface{})
	}
	if e.attrs[v] == nil {
		e.attrs[v] = make(map[string]interface{})
	}
	e.attrs[v][name] = val
}

// header returns a new header with the same dimensions, variables and
// attributes as d, with the attribute edits in e applied.
func (d *Dataset) header(e *edits) (*cdf.Header, error) {
	old := d.cf.Header
	h := cdf.NewHeader(old.Dimensions(""), old.Lengths(""))

	copyAttrs := func(v string) {
		set := e.attrs[v]
		for _, a := range old.Attributes(v) {
			if _, ok := set[a]; ok {
				continue
			}
			h.AddAttribute(v, a, old.GetAttribute(v, a))
		}
		for _, a := range sortKeys(set) {
			h.AddAttribute(v, a, set[a])
		}
	}
	copyAttrs("")
	for _, v := range old.Variables() {
		h.AddVariable(v, old.Dimensions(v), old.ZeroValue(v, 0))
		copyAttrs(v)
	}
	for v := range e.data {
		if !d.Has(v) {
			return nil, fmt.Errorf("vicparam: writing variable %s: not in dataset %s", v, d.Path)
		}
	}
	h.Define()
	for _, err := range h.Check() {
		return nil, fmt.Errorf("vicparam: creating netCDF header: %v", err)
	}
	return h, nil
}

// writeCopy writes a copy of d with edits e to path. The copy is first
// written to a temporary file in the same directory and then renamed, so
// path may be the location of d itself.
func (d *Dataset) writeCopy(path string, e *edits) error {
	h, err := d.header(e)
	if err != nil {
		return err
	}
	ff, err := createTemp(path)
	if err != nil {
		return fmt.Errorf("vicparam: creating output file: %v", err)
	}
	tmp := ff.Name()
	if err := d.writeTo(ff, h, e); err != nil {
		ff.Close()
		os.Remove(tmp)
		return err
	}
	if err := ff.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("vicparam: closing output file: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("vicparam: moving output file into place: %v", err)
	}
	return nil
}

// createTemp creates a new file in the directory of path to be renamed to
// path once written. The file has the permissions of the existing file at
// path, or the permissions os.Create gives a new file.
func createTemp(path string) (*os.File, error) {
	dir, base := filepath.Split(path)
	var ff *os.File
	var err error
	for i := 0; i < 100; i++ {
		name := filepath.Join(dir, "."+base+".tmp"+strconv.FormatInt(time.Now().UnixNano()+int64(i), 36))
		ff, err = os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
		if !os.IsExist(err) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	if fi, err := os.Stat(path); err == nil {
		if err := ff.Chmod(fi.Mode().Perm()); err != nil {
			ff.Close()
			os.Remove(ff.Name())
			return nil, err
		}
	}
	return ff, nil
}

func (d *Dataset) writeTo(ff *os.File, h *cdf.Header, e *edits) error {
	f, err := cdf.Create(ff, h)
	if err != nil {
		return fmt.Errorf("vicparam: creating netCDF file: %v", err)
	}
	for _, v := range h.Variables() {
		shape, err := d.Shape(v)
		if err != nil {
			return err
		}
		buf, err := d.readRaw(v, shape)
		if err != nil {
			return err
		}
		if vals, ok := e.data[v]; ok {
			if len(vals) != lenOf(buf) {
				return fmt.Errorf("vicparam: writing %s: have %d values; want %d", v, len(vals), lenOf(buf))
			}
			buf, err = fromFloat64s(vals, buf, fillValue(h.FillValue(v)))
			if err != nil {
				return fmt.Errorf("vicparam: writing %s: %v", v, err)
			}
		}
		if lenOf(buf) == 0 {
			continue
		}
		if err := writeVar(f, v, buf); err != nil {
			return fmt.Errorf("vicparam: writing %s: %v", v, err)
		}
	}
	if err := cdf.UpdateNumRecs(ff); err != nil {
		return fmt.Errorf("vicparam: updating number of records: %v", err)
	}
	return nil
}

// writeVar writes all of the data of variable v. Writers of fixed-size
// variables return io.EOF once the end of the variable is reached.
func writeVar(f *cdf.File, v string, data interface{}) error {
	n, err := f.Writer(v, nil, nil).Write(data)
	if err == io.EOF && n == lenOf(data) {
		return nil
	}
	return err
}

func lenOf(buf interface{}) int {
	switch b := buf.(type) {
	case []float64:
		return len(b)
	case []float32:
		return len(b)
	case []int32:
		return len(b)
	case []int16:
		return len(b)
	case []uint8:
		return len(b)
	case string:
		return len(b)
	}
	return 0
}

func sortKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
