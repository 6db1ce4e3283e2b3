// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regress

import (
	"fmt"
	"math"

	"github.com/pxlab/pxstat/stats"
)

// Invert replaces the symmetric matrix a with its inverse by
// Gauss-Jordan elimination and returns the determinant of a.
//
// Pivots are taken from the diagonal, largest first. If the largest
// remaining pivot is below 1e-10 times the largest diagonal element
// of a, or a NaN, Invert returns an error wrapping
// stats.ErrSingularMatrix and leaves a in an unspecified state.
func Invert(a [][]float64) (det float64, err error) {
	n := len(a)
	for i, row := range a {
		if len(row) != n {
			return 0, fmt.Errorf("row %d has %d columns, want %d: %w", i, len(row), n, stats.ErrInvalidDesign)
		}
	}
	scale := 0.0
	for i := range a {
		if d := math.Abs(a[i][i]); d > scale || math.IsNaN(d) {
			scale = d
		}
	}
	eps := 1e-10 * scale

	used := make([]bool, n)
	det = 1
	for step := 0; step < n; step++ {
		k := -1
		for i := range a {
			if !used[i] && (k < 0 || math.Abs(a[i][i]) > math.Abs(a[k][k])) {
				k = i
			}
		}
		p := a[k][k]
		if !(math.Abs(p) > eps) {
			return 0, fmt.Errorf("pivot %d is %g: %w", k, p, stats.ErrSingularMatrix)
		}
		used[k] = true
		det *= p

		rk := a[k]
		rk[k] = 1
		for j := range rk {
			rk[j] /= p
		}
		for i, ri := range a {
			if i == k {
				continue
			}
			f := ri[k]
			ri[k] = 0
			for j, v := range rk {
				ri[j] -= f * v
			}
		}
	}
	return det, nil
}
