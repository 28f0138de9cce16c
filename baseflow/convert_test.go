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
	"math/rand"
	"reflect"
	"testing"

	"github.com/gonum/floats"
)

func TestARNOToNijssenReference(t *testing.T) {
	m, err := MaxMoisture(1.0, 1300, 2700)
	if err != nil {
		t.Fatal(err)
	}
	p := ARNO{Ds: 0.001, Dsmax: 20, Ws: 0.9, C: 2}
	n, err := ARNOToNijssen(p, m)
	if err != nil {
		t.Fatal(err)
	}
	want := Nijssen{
		D1: 4.285714285714285e-05,
		D2: 0.007430510204081633,
		D3: 466.66666666666674,
		D4: 2,
	}
	for _, c := range []struct {
		name       string
		have, want float64
	}{
		{"d1", n.D1, want.D1},
		{"d2", n.D2, want.D2},
		{"d3", n.D3, want.D3},
		{"d4", n.D4, want.D4},
	} {
		if !floats.EqualWithinRel(c.have, c.want, 1e-12) {
			t.Errorf("%s: %g != %g", c.name, c.have, c.want)
		}
	}

	back, err := NijssenToARNO(n, m)
	if err != nil {
		t.Fatal(err)
	}
	checkARNO(t, back, p, 1e-9)
}

func checkARNO(t *testing.T, have, want ARNO, tol float64) {
	t.Helper()
	if !floats.EqualWithinRel(have.Ds, want.Ds, tol) {
		t.Errorf("Ds: %g != %g", have.Ds, want.Ds)
	}
	if !floats.EqualWithinRel(have.Dsmax, want.Dsmax, tol) {
		t.Errorf("Dsmax: %g != %g", have.Dsmax, want.Dsmax)
	}
	if !floats.EqualWithinRel(have.Ws, want.Ws, tol) {
		t.Errorf("Ws: %g != %g", have.Ws, want.Ws)
	}
	if have.C != want.C {
		t.Errorf("c: %g != %g", have.C, want.C)
	}
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	between := func(lo, hi float64) float64 { return lo + r.Float64()*(hi-lo) }
	for i := 0; i < 2000; i++ {
		p := ARNO{
			Ds:    between(1e-4, 1),
			Dsmax: between(0.1, 50),
			Ws:    between(0.05, 0.95),
			C:     between(0.5, 5),
		}
		m := between(10, 2000)
		n, err := ARNOToNijssen(p, m)
		if err != nil {
			t.Fatalf("%+v, %g: %v", p, m, err)
		}
		back, err := NijssenToARNO(n, m)
		if err != nil {
			t.Fatalf("%+v, %g: %v", n, m, err)
		}
		checkARNO(t, back, p, 1e-9)
		if t.Failed() {
			t.Fatalf("round trip failed for %+v, max moisture %g", p, m)
		}
	}
}

func TestARNOToNijssenEdgeCases(t *testing.T) {
	t.Run("threshold at max moisture", func(t *testing.T) {
		n, err := ARNOToNijssen(ARNO{Ds: 0.1, Dsmax: 10, Ws: 1, C: 2}, 300)
		if err != nil {
			t.Fatal(err)
		}
		if n.D2 != 0 {
			t.Errorf("d2: %g != 0", n.D2)
		}
		if n.D3 != 300 {
			t.Errorf("d3: %g != 300", n.D3)
		}
	})
	t.Run("threshold at max moisture with zero exponent", func(t *testing.T) {
		_, err := ARNOToNijssen(ARNO{Ds: 0.1, Dsmax: 10, Ws: 1, C: 0}, 300)
		var e *DegenerateParameterError
		if !errors.As(err, &e) {
			t.Fatalf("want DegenerateParameterError, have %v", err)
		}
	})
	t.Run("zero Ws", func(t *testing.T) {
		_, err := ARNOToNijssen(ARNO{Ds: 0.1, Dsmax: 10, Ws: 0, C: 2}, 300)
		var e *DegenerateParameterError
		if !errors.As(err, &e) {
			t.Fatalf("want DegenerateParameterError, have %v", err)
		}
		if e.Param != "d1" {
			t.Errorf("param: %s", e.Param)
		}
	})
	t.Run("zero max moisture", func(t *testing.T) {
		_, err := ARNOToNijssen(ARNO{Ds: 0.1, Dsmax: 10, Ws: 0.5, C: 2}, 0)
		var e *DegenerateParameterError
		if !errors.As(err, &e) {
			t.Fatalf("want DegenerateParameterError, have %v", err)
		}
	})
	t.Run("underflowing moisture threshold", func(t *testing.T) {
		_, err := ARNOToNijssen(ARNO{Ds: 0.1, Dsmax: 10, Ws: 1e-200, C: 2}, 1e-200)
		var e *DegenerateParameterError
		if !errors.As(err, &e) || e.Param != "d1" {
			t.Fatalf("want d1 DegenerateParameterError, have %v", err)
		}
	})
	t.Run("Ws above one", func(t *testing.T) {
		_, err := ARNOToNijssen(ARNO{Ds: 0.1, Dsmax: 10, Ws: 1.2, C: 2.5}, 300)
		var e *DomainRangeError
		if !errors.As(err, &e) {
			t.Fatalf("want DomainRangeError, have %v", err)
		}
		if e.Param != "Ws" {
			t.Errorf("param: %s", e.Param)
		}
	})
	for _, c := range []struct {
		name  string
		p     ARNO
		m     float64
		param string
	}{
		{"negative max moisture", ARNO{Ds: 0.1, Dsmax: 10, Ws: 0.5, C: 2}, -1, "max moisture"},
		{"zero Ds", ARNO{Ds: 0, Dsmax: 10, Ws: 0.5, C: 2}, 300, "Ds"},
		{"Ds above one", ARNO{Ds: 1.5, Dsmax: 10, Ws: 0.5, C: 2}, 300, "Ds"},
		{"zero Dsmax", ARNO{Ds: 0.1, Dsmax: 0, Ws: 0.5, C: 2}, 300, "Dsmax"},
		{"negative c", ARNO{Ds: 0.1, Dsmax: 10, Ws: 0.5, C: -1}, 300, "c"},
		{"NaN Dsmax", ARNO{Ds: 0.1, Dsmax: math.NaN(), Ws: 0.5, C: 2}, 300, "Dsmax"},
	} {
		t.Run(c.name, func(t *testing.T) {
			_, err := ARNOToNijssen(c.p, c.m)
			var e *DomainRangeError
			if !errors.As(err, &e) {
				t.Fatalf("want DomainRangeError, have %v", err)
			}
			if e.Param != c.param {
				t.Errorf("param: %s != %s", e.Param, c.param)
			}
		})
	}
}

func TestConvertArrays(t *testing.T) {
	ds := dense([]int{2, 3}, 0.001, 0.01, 0.1, 0.2, 0.5, 1)
	dsmax := dense([]int{2, 3}, 20, 5, 1, 30, 12, 0.5)
	ws := dense([]int{2, 3}, 0.9, 0.5, 0.7, 0.3, 0.99, 0.6)
	c := Scalar(2)
	m := dense([]int{2, 3}, 518.5, 300, 120, 900, 45, 1500)

	out, err := ConvertArrays(ARNOArrays{Ds: ds, Dsmax: dsmax, Ws: ws, C: c}, m)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(out.D1.Shape, []int{2, 3}) {
		t.Fatalf("shape: %v", out.D1.Shape)
	}
	t.Run("elementwise independence", func(t *testing.T) {
		for i := range ds.Elements {
			n, err := ARNOToNijssen(ARNO{Ds: ds.Elements[i], Dsmax: dsmax.Elements[i],
				Ws: ws.Elements[i], C: 2}, m.Elements[i])
			if err != nil {
				t.Fatal(err)
			}
			have := Nijssen{D1: out.D1.Elements[i], D2: out.D2.Elements[i],
				D3: out.D3.Elements[i], D4: out.D4.Elements[i]}
			if have != n {
				t.Errorf("cell %d: %+v != %+v", i, have, n)
			}
		}
	})
	t.Run("single cell", func(t *testing.T) {
		one, err := ConvertArrays(ARNOArrays{Ds: Scalar(ds.Elements[4]), Dsmax: Scalar(dsmax.Elements[4]),
			Ws: Scalar(ws.Elements[4]), C: c}, Scalar(m.Elements[4]))
		if err != nil {
			t.Fatal(err)
		}
		if one.D2.Elements[0] != out.D2.Elements[4] {
			t.Errorf("%g != %g", one.D2.Elements[0], out.D2.Elements[4])
		}
	})
	t.Run("fail fast", func(t *testing.T) {
		bad := dense([]int{2, 3}, 0.9, 0.5, 0, 0.3, 0.99, 0.6)
		_, err := ConvertArrays(ARNOArrays{Ds: ds, Dsmax: dsmax, Ws: bad, C: c}, m)
		var e *DegenerateParameterError
		if !errors.As(err, &e) {
			t.Fatalf("want DegenerateParameterError, have %v", err)
		}
		if e.Index != 2 {
			t.Errorf("index: %d != 2", e.Index)
		}
	})
	t.Run("each", func(t *testing.T) {
		bad := dense([]int{2, 3}, 0.9, 1.5, 0.7, 0.3, 0, 0.6)
		var failed []int
		res, err := ConvertEach(ARNOArrays{Ds: ds, Dsmax: dsmax, Ws: bad, C: c}, m, func(i int, err error) error {
			failed = append(failed, i)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(failed, []int{1, 4}) {
			t.Errorf("failed: %v", failed)
		}
		for _, i := range failed {
			if !math.IsNaN(res.D1.Elements[i]) || !math.IsNaN(res.D4.Elements[i]) {
				t.Errorf("element %d should be NaN", i)
			}
		}
		if res.D1.Elements[0] != out.D1.Elements[0] {
			t.Errorf("%g != %g", res.D1.Elements[0], out.D1.Elements[0])
		}
	})
	t.Run("abort", func(t *testing.T) {
		stop := errors.New("stop")
		bad := dense([]int{2, 3}, 0.9, 1.5, 0.7, 0.3, 0, 0.6)
		_, err := ConvertEach(ARNOArrays{Ds: ds, Dsmax: dsmax, Ws: bad, C: c}, m, func(i int, err error) error {
			return stop
		})
		if err != stop {
			t.Errorf("want stop, have %v", err)
		}
	})
}
