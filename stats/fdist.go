// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// FDist is Snedecor's F distribution with D1 numerator and D2
// denominator degrees of freedom.
type FDist struct {
	D1, D2 float64
}

func (d FDist) gonum() distuv.F {
	return distuv.F{D1: d.D1, D2: d.D2}
}

func (d FDist) PDF(x float64) float64 {
	if x < 0 {
		return 0
	}
	return d.gonum().Prob(x)
}

func (d FDist) CDF(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return d.gonum().CDF(x)
}

func (d FDist) Survival(x float64) float64 {
	if x <= 0 {
		return 1
	}
	return d.gonum().Survival(x)
}

func (d FDist) InvCDF(y float64) float64 {
	if y <= 0 {
		return 0
	} else if y >= 1 {
		return inf
	}
	return d.gonum().Quantile(y)
}

func (d FDist) Bounds() (float64, float64) {
	return 0, d.InvCDF(0.999)
}

// FTest returns the upper tail probability of an F ratio with df1
// and df2 degrees of freedom. Non-positive degrees of freedom yield
// NaN.
func FTest(f, df1, df2 float64) float64 {
	if df1 <= 0 || df2 <= 0 {
		return nan
	}
	return PValue(FDist{df1, df2}, f)
}
