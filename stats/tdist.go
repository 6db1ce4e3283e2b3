// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// A TDist is a Student's t-distribution with V degrees of freedom.
type TDist struct {
	V float64
}

func (t TDist) gonum() distuv.StudentsT {
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: t.V}
}

func (t TDist) PDF(x float64) float64 {
	return t.gonum().Prob(x)
}

func (t TDist) CDF(x float64) float64 {
	return t.gonum().CDF(x)
}

func (t TDist) Survival(x float64) float64 {
	return t.gonum().Survival(x)
}

func (t TDist) InvCDF(y float64) float64 {
	if y <= 0 {
		return -inf
	} else if y >= 1 {
		return inf
	}
	return t.gonum().Quantile(y)
}

func (t TDist) Bounds() (float64, float64) {
	return -4, 4
}

// TwoTailed returns the two-tailed p-value of the t statistic x.
func (t TDist) TwoTailed(x float64) float64 {
	if math.IsNaN(x) {
		return nan
	}
	return 2 * t.Survival(math.Abs(x))
}
