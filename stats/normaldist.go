// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// NormalDist is a normal (Gaussian) distribution with mean Mu and
// standard deviation Sigma.
type NormalDist struct {
	Mu, Sigma float64
}

// StdNormal is the standard normal distribution (Mu = 0, Sigma = 1),
// the z distribution.
var StdNormal = NormalDist{0, 1}

func (n NormalDist) gonum() distuv.Normal {
	return distuv.Normal{Mu: n.Mu, Sigma: n.Sigma}
}

func (n NormalDist) PDF(x float64) float64 {
	return n.gonum().Prob(x)
}

func (n NormalDist) CDF(x float64) float64 {
	return n.gonum().CDF(x)
}

func (n NormalDist) Survival(x float64) float64 {
	return n.gonum().Survival(x)
}

// InvCDF returns the x for which CDF(x) = y. It returns -Inf for y = 0
// and +Inf for y = 1.
func (n NormalDist) InvCDF(y float64) float64 {
	if y <= 0 {
		return -inf
	} else if y >= 1 {
		return inf
	}
	return n.gonum().Quantile(y)
}

func (n NormalDist) Bounds() (float64, float64) {
	const stddevs = 3
	return n.Mu - stddevs*n.Sigma, n.Mu + stddevs*n.Sigma
}
