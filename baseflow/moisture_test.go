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
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/gonum/floats"
)

func dense(shape []int, vals ...float64) *sparse.DenseArray {
	a := sparse.ZerosDense(shape...)
	copy(a.Elements, vals)
	return a
}

func TestMaxMoisture(t *testing.T) {
	t.Run("reference", func(t *testing.T) {
		p, err := Porosity(1300, 2700)
		if err != nil {
			t.Fatal(err)
		}
		if !floats.EqualWithinRel(p, 0.5185185185185186, 1e-15) {
			t.Errorf("porosity: %g != 0.5185185185185186", p)
		}
		m, err := MaxMoisture(1.0, 1300, 2700)
		if err != nil {
			t.Fatal(err)
		}
		if !floats.EqualWithinRel(m, 518.5185185185186, 1e-15) {
			t.Errorf("max moisture: %g != 518.5185185185186", m)
		}
	})
	t.Run("bulk equals soil", func(t *testing.T) {
		_, err := MaxMoisture(1.0, 2700, 2700)
		var e *InvalidProfileError
		if !errors.As(err, &e) {
			t.Fatalf("want InvalidProfileError, have %v", err)
		}
		if e.Index != -1 {
			t.Errorf("index: %d != -1", e.Index)
		}
	})
	t.Run("bulk above soil", func(t *testing.T) {
		_, err := MaxMoisture(1.0, 2800, 2700)
		var e *InvalidProfileError
		if !errors.As(err, &e) {
			t.Fatalf("want InvalidProfileError, have %v", err)
		}
	})
	t.Run("zero soil density", func(t *testing.T) {
		_, err := MaxMoisture(1.0, 1300, 0)
		var e *InvalidProfileError
		if !errors.As(err, &e) {
			t.Fatalf("want InvalidProfileError, have %v", err)
		}
	})
	t.Run("zero bulk density", func(t *testing.T) {
		m, err := MaxMoisture(0.5, 0, 2700)
		if err != nil {
			t.Fatal(err)
		}
		if m != 500 {
			t.Errorf("%g != 500", m)
		}
	})
	t.Run("negative depth", func(t *testing.T) {
		_, err := MaxMoisture(-0.1, 1300, 2700)
		var e *DomainRangeError
		if !errors.As(err, &e) {
			t.Fatalf("want DomainRangeError, have %v", err)
		}
		if e.Param != "depth" {
			t.Errorf("param: %s", e.Param)
		}
	})
}

func TestMaxMoistureArray(t *testing.T) {
	t.Run("scalar", func(t *testing.T) {
		m, err := MaxMoistureArray(Scalar(1), Scalar(1300), Scalar(2700))
		if err != nil {
			t.Fatal(err)
		}
		want, _ := MaxMoisture(1, 1300, 2700)
		if len(m.Shape) != 0 || m.Elements[0] != want {
			t.Errorf("shape %v value %v", m.Shape, m.Elements)
		}
	})
	t.Run("per layer", func(t *testing.T) {
		depth := dense([]int{3}, 0.1, 0.5, 1.0)
		bulk := dense([]int{3}, 1300, 1400, 1500)
		soil := Scalar(2650)
		m, err := MaxMoistureArray(depth, bulk, soil)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(m.Shape, []int{3}) {
			t.Fatalf("shape: %v", m.Shape)
		}
		for i := range m.Elements {
			want, _ := MaxMoisture(depth.Elements[i], bulk.Elements[i], 2650)
			if m.Elements[i] != want {
				t.Errorf("layer %d: %g != %g", i, m.Elements[i], want)
			}
		}
	})
	t.Run("gridded", func(t *testing.T) {
		// depth varies only by layer.
		depth := dense([]int{2, 1, 1}, 0.3, 1.2)
		bulk := dense([]int{2, 2, 2}, 1300, 1310, 1320, 1330, 1400, 1410, 1420, 1430)
		soil := dense([]int{2, 2, 2}, 2650, 2660, 2670, 2680, 2690, 2700, 2710, 2720)
		m, err := MaxMoistureArray(depth, bulk, soil)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(m.Shape, []int{2, 2, 2}) {
			t.Fatalf("shape: %v", m.Shape)
		}
		for i := range m.Elements {
			want, _ := MaxMoisture(depth.Elements[i/4], bulk.Elements[i], soil.Elements[i])
			if m.Elements[i] != want {
				t.Errorf("element %d: %g != %g", i, m.Elements[i], want)
			}
		}
	})
	t.Run("invalid element", func(t *testing.T) {
		bulk := dense([]int{3}, 1300, 2700, 1500)
		_, err := MaxMoistureArray(Scalar(1), bulk, Scalar(2700))
		var e *InvalidProfileError
		if !errors.As(err, &e) {
			t.Fatalf("want InvalidProfileError, have %v", err)
		}
		if e.Index != 1 {
			t.Errorf("index: %d != 1", e.Index)
		}
	})
	t.Run("each", func(t *testing.T) {
		bulk := dense([]int{4}, 2700, 1300, 2800, 1500)
		var failed []int
		m, err := MaxMoistureEach(Scalar(1), bulk, Scalar(2700), func(i int, err error) error {
			failed = append(failed, i)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(failed, []int{0, 2}) {
			t.Errorf("failed: %v", failed)
		}
		if !math.IsNaN(m.Elements[0]) || !math.IsNaN(m.Elements[2]) {
			t.Errorf("invalid elements should be NaN: %v", m.Elements)
		}
		if math.IsNaN(m.Elements[1]) || math.IsNaN(m.Elements[3]) {
			t.Errorf("valid elements should not be NaN: %v", m.Elements)
		}
	})
	t.Run("shape mismatch", func(t *testing.T) {
		_, err := MaxMoistureArray(dense([]int{2}, 1, 1), dense([]int{3}, 1300, 1300, 1300), Scalar(2700))
		if err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestBottomLayer(t *testing.T) {
	t.Run("per layer", func(t *testing.T) {
		b, err := BottomLayer(dense([]int{3}, 1, 2, 3))
		if err != nil {
			t.Fatal(err)
		}
		if len(b.Shape) != 0 || !reflect.DeepEqual(b.Elements, []float64{3}) {
			t.Errorf("shape %v elements %v", b.Shape, b.Elements)
		}
	})
	t.Run("gridded", func(t *testing.T) {
		a := dense([]int{2, 2, 3}, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)
		b, err := BottomLayer(a)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(b.Shape, []int{2, 3}) {
			t.Errorf("shape: %v", b.Shape)
		}
		if !reflect.DeepEqual(b.Elements, []float64{7, 8, 9, 10, 11, 12}) {
			t.Errorf("elements: %v", b.Elements)
		}
		b.Elements[0] = -1
		if a.Elements[6] != 7 {
			t.Error("bottom layer shares storage with its input")
		}
	})
	t.Run("scalar", func(t *testing.T) {
		if _, err := BottomLayer(Scalar(1)); err == nil {
			t.Fatal("expected an error")
		}
	})
}
