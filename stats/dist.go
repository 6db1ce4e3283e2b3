// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats

// A Dist is a continuous statistical distribution.
type Dist interface {
	// PDF returns the value of the probability density function
	// of this distribution at x.
	PDF(x float64) float64

	// CDF returns the value of the cumulative distribution
	// function for this distribution at x.
	CDF(x float64) float64

	// InvCDF returns the inverse of the CDF for y. That is,
	// InvCDF(CDF(x)) = x. The value of y must be in [0, 1].
	InvCDF(y float64) float64

	// Bounds returns reasonable bounds for this distribution's
	// PDF and CDF. The total weight outside of these bounds
	// should be approximately 0.
	Bounds() (float64, float64)
}

// A TailDist is a Dist that can compute its upper tail probability
// directly. Computing 1-CDF(x) loses precision for small tail
// probabilities, which is exactly where p-values live.
type TailDist interface {
	Dist

	// Survival returns 1-CDF(x).
	Survival(x float64) float64
}

// PValue returns the upper tail probability of statistic x under
// d. It returns 1 for x <= 0 and NaN for NaN x.
func PValue(d TailDist, x float64) float64 {
	if x != x {
		return nan
	}
	if x <= 0 {
		return 1
	}
	return d.Survival(x)
}
