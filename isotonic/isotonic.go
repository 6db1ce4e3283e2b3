// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package isotonic implements monotone regression by the pool
// adjacent violators algorithm.
package isotonic

import (
	"fmt"
	"math"
	"sort"

	"github.com/pxlab/pxstat/stats"
)

// A Regression is a non-decreasing step function fitted to data
// points. It has one knot for each distinct abscissa of the data.
type Regression struct {
	xs, ys, ws []float64
}

// Fit returns the non-decreasing step function that minimizes the
// weighted squared error to the points (xs[i], ys[i]). If ws is nil,
// all points have weight 1. Points with equal abscissas are pooled
// first.
func Fit(xs, ys, ws []float64) (*Regression, error) {
	if len(xs) != len(ys) || ws != nil && len(ws) != len(xs) {
		return nil, fmt.Errorf("isotonic: %d abscissas, %d values and %d weights", len(xs), len(ys), len(ws))
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("isotonic: no data: %w", stats.ErrInsufficientData)
	}

	order := make([]int, len(xs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return xs[order[i]] < xs[order[j]] })

	// Pool repeated abscissas.
	r := &Regression{}
	for _, i := range order {
		w := 1.0
		if ws != nil {
			w = ws[i]
		}
		if w <= 0 || math.IsNaN(ys[i]) {
			continue
		}
		if n := len(r.xs); n > 0 && r.xs[n-1] == xs[i] {
			tw := r.ws[n-1] + w
			r.ys[n-1] += (ys[i] - r.ys[n-1]) * w / tw
			r.ws[n-1] = tw
			continue
		}
		r.xs = append(r.xs, xs[i])
		r.ys = append(r.ys, ys[i])
		r.ws = append(r.ws, w)
	}
	if len(r.xs) == 0 {
		return nil, fmt.Errorf("isotonic: no data with positive weight: %w", stats.ErrInsufficientData)
	}
	pav(r.ys, r.ws)
	return r, nil
}

// pav replaces ys by its weighted isotonic regression.
func pav(ys, ws []float64) {
	type block struct {
		y, w float64
		n    int
	}
	blocks := make([]block, 0, len(ys))
	for i := range ys {
		blocks = append(blocks, block{ys[i], ws[i], 1})
		// Merge violators backwards.
		for len(blocks) > 1 {
			b, a := blocks[len(blocks)-1], blocks[len(blocks)-2]
			if a.y <= b.y {
				break
			}
			w := a.w + b.w
			blocks = blocks[:len(blocks)-1]
			blocks[len(blocks)-1] = block{(a.y*a.w + b.y*b.w) / w, w, a.n + b.n}
		}
	}
	i := 0
	for _, b := range blocks {
		for j := 0; j < b.n; j++ {
			ys[i] = b.y
			i++
		}
	}
}

// Knots returns the abscissas and values of the knots of r in
// increasing order of abscissa.
func (r *Regression) Knots() (xs, ys []float64) {
	return append([]float64(nil), r.xs...), append([]float64(nil), r.ys...)
}

// Weights returns the pooled weight of each knot.
func (r *Regression) Weights() []float64 {
	return append([]float64(nil), r.ws...)
}

// ValueOf returns the value of the step function at x: the value of
// the first knot at or above x, or the value of the last knot if x
// lies beyond all knots.
func (r *Regression) ValueOf(x float64) float64 {
	i := sort.SearchFloat64s(r.xs, x)
	if i == len(r.xs) {
		i--
	}
	return r.ys[i]
}

// ArgumentFor returns the abscissa at which r reaches p, linearly
// interpolating between the knots that bracket p. It returns the
// first knot's abscissa if p is at or below the first value and the
// last knot's abscissa if p exceeds all values.
func (r *Regression) ArgumentFor(p float64) float64 {
	i := sort.Search(len(r.ys), func(i int) bool { return r.ys[i] >= p })
	switch {
	case i == 0:
		return r.xs[0]
	case i == len(r.ys):
		return r.xs[len(r.xs)-1]
	}
	dy := r.ys[i] - r.ys[i-1]
	if dy <= 0 {
		return r.xs[i]
	}
	return r.xs[i-1] + (p-r.ys[i-1])*(r.xs[i]-r.xs[i-1])/dy
}
