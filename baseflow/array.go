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
	"fmt"

	"github.com/ctessum/sparse"
)

// Scalar returns a zero-dimensional array holding v.
func Scalar(v float64) *sparse.DenseArray {
	a := sparse.ZerosDense()
	a.Elements[0] = v
	return a
}

// BottomLayer returns the last slice of a along its outermost (layer)
// dimension. A one-dimensional per-layer array gives a zero-dimensional
// array; an array with shape [layer, y, x] gives one with shape [y, x].
func BottomLayer(a *sparse.DenseArray) (*sparse.DenseArray, error) {
	if a == nil {
		return nil, fmt.Errorf("baseflow: bottom layer of a nil array")
	}
	if len(a.Shape) == 0 {
		return nil, fmt.Errorf("baseflow: bottom layer of a zero-dimensional array")
	}
	nLayers := a.Shape[0]
	if nLayers == 0 {
		return nil, fmt.Errorf("baseflow: bottom layer of an array with no layers")
	}
	shape := append([]int{}, a.Shape[1:]...)
	out := sparse.ZerosDense(shape...)
	n := len(out.Elements)
	if len(a.Elements) != n*nLayers {
		return nil, fmt.Errorf("baseflow: array with shape %v has %d elements", a.Shape, len(a.Elements))
	}
	copy(out.Elements, a.Elements[(nLayers-1)*n:])
	return out, nil
}

// broadcaster maps flat indices of a broadcast output array to flat
// indices of each of its input arrays. Shapes are aligned on their trailing
// dimensions and dimensions of length one are stretched.
type broadcaster struct {
	shape   []int
	size    int
	strides [][]int // per input, aligned with shape; zero on stretched dimensions.
}

func newBroadcaster(arrays ...*sparse.DenseArray) (*broadcaster, error) {
	b := new(broadcaster)
	rank := 0
	for i, a := range arrays {
		if a == nil {
			return nil, fmt.Errorf("baseflow: input array %d is nil", i)
		}
		if want := arrayLen(a.Shape); len(a.Elements) != want {
			return nil, fmt.Errorf("baseflow: array with shape %v has %d elements; want %d",
				a.Shape, len(a.Elements), want)
		}
		if len(a.Shape) > rank {
			rank = len(a.Shape)
		}
	}
	b.shape = make([]int, rank)
	for i := range b.shape {
		b.shape[i] = 1
	}
	for _, a := range arrays {
		offset := len(b.shape) - len(a.Shape)
		for j, n := range a.Shape {
			switch cur := b.shape[offset+j]; {
			case cur == n || n == 1:
			case cur == 1:
				b.shape[offset+j] = n
			default:
				return nil, fmt.Errorf("baseflow: array shapes %v cannot be broadcast together", shapes(arrays))
			}
		}
	}
	b.size = arrayLen(b.shape)

	b.strides = make([][]int, len(arrays))
	for k, a := range arrays {
		s := make([]int, len(b.shape))
		offset := len(b.shape) - len(a.Shape)
		stride := 1
		for j := len(a.Shape) - 1; j >= 0; j-- {
			if a.Shape[j] != 1 {
				s[offset+j] = stride
			}
			stride *= a.Shape[j]
		}
		b.strides[k] = s
	}
	return b, nil
}

// index sets idx[k] to the flat index into input array k that corresponds
// to flat index i of the output array.
func (b *broadcaster) index(i int, idx []int) {
	for k := range idx {
		idx[k] = 0
	}
	for d := len(b.shape) - 1; d >= 0; d-- {
		n := b.shape[d]
		c := i % n
		i /= n
		for k := range idx {
			idx[k] += c * b.strides[k][d]
		}
	}
}

// output returns a new array with the broadcast shape.
func (b *broadcaster) output() *sparse.DenseArray {
	return sparse.ZerosDense(append([]int{}, b.shape...)...)
}

func arrayLen(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func shapes(arrays []*sparse.DenseArray) [][]int {
	s := make([][]int, len(arrays))
	for i, a := range arrays {
		s[i] = a.Shape
	}
	return s
}
