// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pmf

import "github.com/pxlab/pxstat/stats"

// A GOF is a chi-square goodness of fit test.
//
// Consecutive stimulus levels are pooled into categories until the
// expected numbers of both responses are at least 1 and one of them
// is at least 5. Levels left over at the end join the last category.
type GOF struct {
	ChiSquare  float64
	Categories int

	// DF is the number of categories less the number of fitted
	// parameters.
	DF float64

	// P is the p-value of ChiSquare. It is only valid if HasP is
	// set, which requires DF >= 1.
	P    float64
	HasP bool
}

type category struct {
	o1, o0, e1, e0 float64
}

func (c *category) chi() float64 {
	sum := 0.0
	if c.e1 > 0 {
		d := c.o1 - c.e1
		sum += d * d / c.e1
	}
	if c.e0 > 0 {
		d := c.o0 - c.e0
		sum += d * d / c.e0
	}
	return sum
}

// goodnessOfFit tests points against the model probabilities psi,
// with npar fitted parameters. It returns nil if no category forms.
func goodnessOfFit(points []Point, psi []float64, npar int) *GOF {
	var cats []category
	var cur category
	for i, p := range points {
		cur.o1 += p.Yes
		cur.o0 += p.N - p.Yes
		cur.e1 += p.N * psi[i]
		cur.e0 += p.N * (1 - psi[i])
		if cur.e1 >= 1 && cur.e0 >= 1 && (cur.e1 >= 5 || cur.e0 >= 5) {
			cats = append(cats, cur)
			cur = category{}
		}
	}
	if len(cats) == 0 {
		return nil
	}
	last := &cats[len(cats)-1]
	last.o1 += cur.o1
	last.o0 += cur.o0
	last.e1 += cur.e1
	last.e0 += cur.e0

	g := &GOF{Categories: len(cats), DF: float64(len(cats) - npar)}
	for i := range cats {
		g.ChiSquare += cats[i].chi()
	}
	if g.DF >= 1 {
		g.HasP = true
		g.P = stats.PValue(stats.ChiSquareDist{DF: g.DF}, g.ChiSquare)
	}
	return g
}
