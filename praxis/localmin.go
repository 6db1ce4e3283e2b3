// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package praxis

import "math"

// Minimize1D finds a local minimum of f in the interval [a, b] by
// golden section search combined with successive parabolic
// interpolation (Brent's localmin). The minimum is located to within
// 2*(sqrt(machep)*|x| + tol/3). It returns the abscissa and value of
// the minimum.
func Minimize1D(f func(float64) float64, a, b, tol float64) (x, fx float64) {
	if a > b {
		a, b = b, a
	}
	if tol <= 0 {
		tol = 1e-10
	}
	return localmin(f, a, b, tol, math.Sqrt(machep))
}

func localmin(f func(float64) float64, a, b, tol, eps float64) (float64, float64) {
	// c is the squared inverse of the golden ratio.
	c := 0.5 * (3 - math.Sqrt(5))

	v := a + c*(b-a)
	w, x := v, v
	d, e := 0.0, 0.0
	fx := f(x)
	fv, fw := fx, fx

	for {
		m := 0.5 * (a + b)
		tol1 := eps*math.Abs(x) + tol/3
		t2 := 2 * tol1
		if math.Abs(x-m) <= t2-0.5*(b-a) {
			return x, fx
		}

		p, q, r := 0.0, 0.0, 0.0
		if math.Abs(e) > tol1 {
			// Fit a parabola.
			r = (x - w) * (fx - fv)
			q = (x - v) * (fx - fw)
			p = (x-v)*q - (x-w)*r
			q = 2 * (q - r)
			if q > 0 {
				p = -p
			} else {
				q = -q
			}
			r = e
			e = d
		}

		var u float64
		if math.Abs(p) < math.Abs(0.5*q*r) && p > q*(a-x) && p < q*(b-x) {
			// Parabolic interpolation step.
			d = p / q
			u = x + d
			// f must not be evaluated too close to a or b.
			if u-a < t2 || b-u < t2 {
				d = tol1
				if x >= m {
					d = -tol1
				}
			}
		} else {
			// Golden section step.
			if x < m {
				e = b - x
			} else {
				e = a - x
			}
			d = c * e
		}

		// f must not be evaluated too close to x.
		switch {
		case math.Abs(d) >= tol1:
			u = x + d
		case d > 0:
			u = x + tol1
		default:
			u = x - tol1
		}
		fu := f(u)

		if fu <= fx {
			if u < x {
				b = x
			} else {
				a = x
			}
			v, fv = w, fw
			w, fw = x, fx
			x, fx = u, fu
			continue
		}
		if u < x {
			a = u
		} else {
			b = u
		}
		if fu <= fw || w == x {
			v, fv = w, fw
			w, fw = u, fu
		} else if fu <= fv || v == x || v == w {
			v, fv = u, fu
		}
	}
}
