// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package praxis

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMinimizeQuadratic(t *testing.T) {
	target := []float64{1, -2, 3.5, 0.25}
	weights := []float64{1, 10, 0.5, 3}
	f := func(x []float64) float64 {
		s := 0.0
		for i, xi := range x {
			d := xi - target[i]
			s += weights[i] * d * d
		}
		return s
	}
	for _, start := range [][]float64{{0, 0, 0, 0}, {10, 10, -10, 5}, {1, -2, 3.5, 0}} {
		p := &Praxis{Tolerance: 1e-8, Step: 1}
		x := append([]float64(nil), start...)
		res := p.Minimize(f, x)
		assert.True(t, res.Converged)
		assert.InDelta(t, 0, res.F, 1e-10)
		for i := range x {
			assert.InDelta(t, target[i], x[i], 1e-5, "x[%d] from %v", i, start)
		}
		assert.InDelta(t, f(x), res.F, 1e-12)
	}
}

func TestMinimizeCorrelatedBowl(t *testing.T) {
	// (x-y)² + 0.01(x+y-2)² has its minimum at (1, 1) at the bottom
	// of a narrow valley.
	f := func(x []float64) float64 {
		a := x[0] - x[1]
		b := x[0] + x[1] - 2
		return a*a + 0.01*b*b
	}
	x := []float64{-3, 4}
	res := (&Praxis{Tolerance: 1e-9, Scaling: 10}).Minimize(f, x)
	assert.InDelta(t, 1, x[0], 1e-4)
	assert.InDelta(t, 1, x[1], 1e-4)
	assert.InDelta(t, 0, res.F, 1e-8)
}

func TestMinimizeRosenbrock(t *testing.T) {
	f := func(x []float64) float64 {
		a := x[1] - x[0]*x[0]
		b := 1 - x[0]
		return 100*a*a + b*b
	}
	x := []float64{-1.2, 1}
	res := (&Praxis{Tolerance: 1e-10, Step: 1, Cautiousness: 2}).Minimize(f, x)
	assert.InDelta(t, 1, x[0], 1e-3)
	assert.InDelta(t, 1, x[1], 1e-3)
	assert.Less(t, res.F, 1e-6)
	assert.Greater(t, res.LineSearches, 0)
}

func TestMinimizeMaxFun(t *testing.T) {
	f := func(x []float64) float64 {
		a := x[1] - x[0]*x[0]
		b := 1 - x[0]
		return 100*a*a + b*b
	}
	for _, limit := range []int{1, 20, 30, 57} {
		x := []float64{-1.2, 1}
		calls := 0
		g := func(x []float64) float64 {
			calls++
			return f(x)
		}
		res := (&Praxis{Tolerance: 1e-12, MaxFun: limit}).Minimize(g, x)
		assert.False(t, res.Converged, "MaxFun %d", limit)
		assert.Equal(t, limit, res.Evals, "MaxFun %d", limit)
		assert.Equal(t, limit, calls, "MaxFun %d", limit)
		assert.False(t, math.IsInf(res.F, 0), "MaxFun %d", limit)
		assert.Equal(t, f(x), res.F, "MaxFun %d", limit)
		if limit > 1 {
			assert.Less(t, res.F, f([]float64{-1.2, 1}), "MaxFun %d", limit)
		}
	}

	x := []float64{0}
	res := (&Praxis{MaxFun: 5}).Minimize(func(x []float64) float64 { return math.Cosh(x[0] - 3) }, x)
	assert.LessOrEqual(t, res.Evals, 5)
}

func TestMinimizeOneDimension(t *testing.T) {
	f := func(x []float64) float64 { return (x[0] - 7) * (x[0] - 7) }
	x := []float64{0}
	res := (&Praxis{Tolerance: 1e-8}).Minimize(f, x)
	assert.InDelta(t, 7, x[0], 1e-5)
	assert.InDelta(t, 0, res.F, 1e-9)
}

func TestMinimize1D(t *testing.T) {
	x, fx := Minimize1D(math.Cos, 2, 4, 1e-10)
	assert.InDelta(t, math.Pi, x, 1e-6)
	assert.InDelta(t, -1, fx, 1e-12)

	// Reversed bounds are accepted.
	x, _ = Minimize1D(func(u float64) float64 { return (u - 0.3) * (u - 0.3) }, 1, -1, 0)
	assert.InDelta(t, 0.3, x, 1e-6)

	// A monotone function is minimized at the boundary.
	x, _ = Minimize1D(func(u float64) float64 { return u }, 0, 1, 1e-8)
	assert.InDelta(t, 0, x, 1e-6)
}

func TestMinfitSingularValues(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{1, 2, 3, 5, 8} {
		a := mat.NewDense(n, n, nil)
		ab := make([][]float64, n)
		for i := range ab {
			ab[i] = make([]float64, n)
			for j := range ab[i] {
				v := rng.NormFloat64()
				ab[i][j] = v
				a.Set(i, j, v)
			}
		}
		q := make([]float64, n)
		require.True(t, minfit(ab, q, machep, 1e-300))

		var svd mat.SVD
		require.True(t, svd.Factorize(a, mat.SVDNone))
		want := svd.Values(nil)
		got := append([]float64(nil), q...)
		sort.Sort(sort.Reverse(sort.Float64Slice(got)))
		for i := range want {
			assert.InDelta(t, want[i], got[i], 1e-10, "n=%d singular value %d", n, i)
		}

		// ab now holds V: orthonormal, and ‖A vᵢ‖ = qᵢ.
		v := mat.NewDense(n, n, nil)
		for i := range ab {
			v.SetRow(i, ab[i])
		}
		var vtv mat.Dense
		vtv.Mul(v.T(), v)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				want := 0.0
				if i == j {
					want = 1
				}
				assert.InDelta(t, want, vtv.At(i, j), 1e-10)
			}
		}
		var av mat.Dense
		av.Mul(a, v)
		for i := 0; i < n; i++ {
			assert.InDelta(t, q[i], mat.Norm(av.ColView(i), 2), 1e-10)
		}
	}
}

func TestSortPrincipalAxes(t *testing.T) {
	s := &session{
		n: 3,
		d: []float64{1, 3, 2},
		v: [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}},
	}
	s.sort()
	assert.Equal(t, []float64{3, 2, 1}, s.d)
	assert.Equal(t, [][]float64{{2, 3, 1}, {5, 6, 4}, {8, 9, 7}}, s.v)
}
