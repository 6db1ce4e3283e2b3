// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package praxis

import "math"

// curve is the line index that selects the parabolic space curve
// through q0, x and q1 instead of a search direction.
const curve = -1

// lineMin minimizes f from x along direction j of v, or along the
// space curve if j is curve. d2 is an approximation to half the
// second derivative along the line, or zero if unknown. On entry x1
// is an estimate of the distance to the minimum and f1 is the
// function value at x1 if fk is set; on return x1 is the distance
// moved. nits is the number of times the step may be halved.
func (s *session) lineMin(j, nits int, d2, x1 *float64, f1 float64, fk bool) {
	sf1, sx1 := f1, *x1
	k := 0
	xm := 0.0
	f0 := s.fx
	fm := f0
	dz := *d2 < machep

	// Find the step size.
	xn := 0.0
	for i := 0; i < s.n; i++ {
		xn += s.x[i] * s.x[i]
	}
	xn = math.Sqrt(xn)
	dd := *d2
	if dz {
		dd = s.dmin
	}
	t2 := s.m4*math.Sqrt(math.Abs(s.fx)/dd+xn*s.ldt) + s.m2*s.ldt
	xn = s.m4*xn + s.t
	if dz && t2 > xn {
		t2 = xn
	}
	if t2 < s.small {
		t2 = s.small
	}
	if t2 > 0.01*s.h {
		t2 = 0.01 * s.h
	}
	if fk && f1 <= fm {
		xm = *x1
		fm = f1
	}
	if !fk || math.Abs(*x1) < t2 {
		if *x1 < 0 {
			*x1 = -t2
		} else {
			*x1 = t2
		}
		f1 = s.flin(*x1, j)
	}
	if f1 <= fm {
		xm = *x1
		fm = f1
	}

	var x2, f2 float64
	for {
		if dz {
			// Evaluate flin at another point and estimate the
			// second derivative.
			if f0 < f1 {
				x2 = -*x1
			} else {
				x2 = 2 * *x1
			}
			f2 = s.flin(x2, j)
			if f2 <= fm {
				xm = x2
				fm = f2
			}
			*d2 = (x2*(f1-f0) - *x1*(f2-f0)) / (*x1 * x2 * (*x1 - x2))
		}

		// Estimate the first derivative at 0.
		d1 := (f1-f0)/(*x1) - (*x1)*(*d2)
		dz = true

		// Predict the minimum.
		if *d2 <= s.small {
			if d1 < 0 {
				x2 = s.h
			} else {
				x2 = -s.h
			}
		} else {
			x2 = -0.5 * d1 / *d2
		}
		if math.Abs(x2) > s.h {
			if x2 > 0 {
				x2 = s.h
			} else {
				x2 = -s.h
			}
		}

		// Evaluate f at the predicted minimum, halving the step
		// while that does not help.
		retry := false
		for {
			f2 = s.flin(x2, j)
			if k >= nits || f2 <= f0 {
				break
			}
			k++
			if f0 < f1 && *x1*x2 > 0 {
				retry = true
				break
			}
			x2 *= 0.5
		}
		if !retry {
			break
		}
	}

	// Increment the line search counter.
	s.nl++
	if f2 > fm {
		x2 = xm
	} else {
		fm = f2
	}

	// Get a new estimate of the second derivative.
	if math.Abs(x2*(x2-*x1)) > s.small {
		*d2 = (x2*(f1-f0) - *x1*(fm-f0)) / (*x1 * x2 * (*x1 - x2))
	} else if k > 0 {
		*d2 = 0
	}
	if *d2 <= s.small {
		*d2 = s.small
	}
	*x1 = x2
	s.fx = fm
	if sf1 < s.fx {
		s.fx = sf1
		*x1 = sx1
	}

	// Update x for a linear search.
	if j != curve {
		for i := 0; i < s.n; i++ {
			s.x[i] += *x1 * s.v[i][j]
		}
	}
}

// flin returns f at distance l along direction j, or at parameter l
// on the space curve.
func (s *session) flin(l float64, j int) float64 {
	if j != curve {
		for i := 0; i < s.n; i++ {
			s.xt[i] = s.x[i] + l*s.v[i][j]
		}
	} else {
		qa := l * (l - s.qd1) / (s.qd0 * (s.qd0 + s.qd1))
		qb := (l + s.qd0) * (s.qd1 - l) / (s.qd0 * s.qd1)
		qc := l * (l + s.qd0) / (s.qd1 * (s.qd0 + s.qd1))
		for i := 0; i < s.n; i++ {
			s.xt[i] = qa*s.q0[i] + qb*s.x[i] + qc*s.q1[i]
		}
	}
	return s.eval(s.xt)
}

// quad looks for the minimum along the curve through q0, q1 and x.
func (s *session) quad() {
	n := s.n
	s.fx, s.qf1 = s.qf1, s.fx
	s.qd1 = 0
	for i := 0; i < n; i++ {
		xi, l := s.x[i], s.q1[i]
		s.x[i] = l
		s.q1[i] = xi
		s.qd1 += (xi - l) * (xi - l)
	}
	s.qd1 = math.Sqrt(s.qd1)
	l := s.qd1
	d2 := 0.0
	var qa, qb, qc float64
	if s.qd0 > 0 && s.qd1 > 0 && s.nl >= 3*n*n {
		s.lineMin(curve, 2, &d2, &l, s.qf1, true)
		qa = l * (l - s.qd1) / (s.qd0 * (s.qd0 + s.qd1))
		qb = (l + s.qd0) * (s.qd1 - l) / (s.qd0 * s.qd1)
		qc = l * (l + s.qd0) / (s.qd1 * (s.qd0 + s.qd1))
	} else {
		s.fx = s.qf1
		qa, qb, qc = 0, 0, 1
	}
	s.qd0 = s.qd1
	for i := 0; i < n; i++ {
		q := s.q0[i]
		s.q0[i] = s.x[i]
		s.x[i] = qa*q + qb*s.x[i] + qc*s.q1[i]
	}
}
