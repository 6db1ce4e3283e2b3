// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package anova

import (
	"fmt"
	"math"

	"github.com/pxlab/pxstat/factorial"
	"github.com/pxlab/pxstat/stats"
)

// contrast tests the main-effect contrast c.
//
// A contrast of a between factor is tested against the error term of
// the factor's main effect. A contrast of a within factor is tested
// against its own interaction with the subjects: the table is reduced
// to one contrast score per subject and remaining level combination,
// and the grand mean of the scores is tested.
func (e *engine) contrast(res *Result, c MainEffectContrast) Contrast {
	out := Contrast{Factor: c.Factor, Coefficients: c.Coefficients, DF: 1}
	fail := func(err error) Contrast {
		out.Err = err
		out.Estimate, out.SS, out.MS = nan, nan, nan
		out.ErrorSS, out.ErrorDF, out.ErrorMS = nan, nan, nan
		out.F, out.P = nan, nan
		return out
	}

	d, ok := e.ft.FactorIndex(c.Factor)
	if !ok || e.random.Contains(d) {
		return fail(fmt.Errorf("contrast: %q is not a fixed factor: %w", c.Factor, stats.ErrInvalidDesign))
	}
	if len(c.Coefficients) != e.levels[d] {
		return fail(fmt.Errorf("contrast: %d coefficients for %d levels of %s: %w",
			len(c.Coefficients), e.levels[d], c.Factor, stats.ErrInvalidDesign))
	}
	var sum, abs, sq float64
	for _, x := range c.Coefficients {
		sum += x
		abs += math.Abs(x)
		sq += x * x
	}
	if abs == 0 || math.Abs(sum) > 1e-9*abs {
		return fail(fmt.Errorf("contrast: coefficients sum to %g, not 0: %w", sum, stats.ErrInvalidDesign))
	}

	sums := make([]float64, e.levels[d])
	counts := make([]int, e.levels[d])
	for _, cl := range e.cells {
		sums[cl.idx[d]] += cl.v
		counts[cl.idx[d]]++
	}
	for l, s := range sums {
		out.Estimate += c.Coefficients[l] * s / float64(counts[l])
	}
	out.Within = !e.between.Contains(d)

	if !out.Within {
		w := 0.0
		for l, x := range c.Coefficients {
			w += x * x / float64(counts[l])
		}
		out.SS = out.Estimate * out.Estimate / w
		var main *Test
		for i := range res.Tests {
			if res.Tests[i].Source == factorial.Singleton(d) {
				main = &res.Tests[i]
			}
		}
		if main == nil {
			return fail(fmt.Errorf("contrast: no main effect of %s: %w", c.Factor, stats.ErrInvalidDesign))
		}
		if main.Err != nil {
			return fail(main.Err)
		}
		out.ErrorSS, out.ErrorDF = main.ErrorSS, main.ErrorDF
	} else {
		scores := e.ft.Derived(d, func(vals []float64) float64 {
			s := 0.0
			for l, v := range vals {
				s += c.Coefficients[l] * v
			}
			return s
		})
		sub, err := newEngine(scores, e.log)
		if err != nil {
			return fail(fmt.Errorf("contrast: %w", err))
		}
		for _, r := range e.random.Minus(factorial.Singleton(0)).Elements() {
			if err := sub.declareRandom(e.names[r]); err != nil {
				return fail(fmt.Errorf("contrast: %w", err))
			}
		}
		t := sub.test(0)
		if t.Err != nil {
			return fail(t.Err)
		}
		// Scores are scaled by the coefficients; undo that so SS is in
		// the units of the data. F is unaffected.
		out.SS = t.SS / sq
		out.ErrorSS = t.ErrorSS / sq
		out.ErrorDF = t.ErrorDF
	}
	if out.ErrorSS <= 0 || out.ErrorDF <= 0 {
		return fail(fmt.Errorf("contrast: vanishing error term: %w", stats.ErrDegenerateEffect))
	}
	out.MS = out.SS
	out.ErrorMS = out.ErrorSS / out.ErrorDF
	out.F = out.MS / out.ErrorMS
	out.P = stats.FTest(out.F, 1, out.ErrorDF)
	return out
}
