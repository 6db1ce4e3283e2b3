// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ChiSquareDist is a χ² distribution with DF degrees of freedom.
type ChiSquareDist struct {
	DF float64
}

func (d ChiSquareDist) gonum() distuv.ChiSquared {
	return distuv.ChiSquared{K: d.DF}
}

func (d ChiSquareDist) PDF(x float64) float64 {
	if x < 0 {
		return 0
	}
	return d.gonum().Prob(x)
}

func (d ChiSquareDist) CDF(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return d.gonum().CDF(x)
}

func (d ChiSquareDist) Survival(x float64) float64 {
	if x <= 0 {
		return 1
	}
	return d.gonum().Survival(x)
}

func (d ChiSquareDist) InvCDF(y float64) float64 {
	if y <= 0 {
		return 0
	} else if y >= 1 {
		return inf
	}
	return d.gonum().Quantile(y)
}

func (d ChiSquareDist) Bounds() (float64, float64) {
	return 0, d.DF + 4*math.Sqrt(2*d.DF)
}
