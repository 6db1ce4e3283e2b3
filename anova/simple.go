// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package anova

import (
	"fmt"
	"math"

	"github.com/pxlab/pxstat/factorial"
	"github.com/pxlab/pxstat/stats"
	"github.com/pxlab/pxstat/table"
)

// simpleEffect analyzes the data at one level of a fixed factor. The
// effects of the remaining fixed factors are computed from the
// restricted table and tested against the error terms of the
// corresponding effects of the full design.
func (e *engine) simpleEffect(res *Result, se SimpleEffect, opts Options) SimpleEffectResult {
	out := SimpleEffectResult{Factor: se.Factor, Level: se.Level}
	d, ok := e.ft.FactorIndex(se.Factor)
	if !ok || e.random.Contains(d) {
		out.Err = fmt.Errorf("simple effect: %q is not a fixed factor: %w", se.Factor, stats.ErrInvalidDesign)
		return out
	}
	l, ok := e.ft.LevelIndex(d, se.Level)
	if !ok {
		out.Err = fmt.Errorf("simple effect: factor %s has no level %q: %w", se.Factor, se.Level, stats.ErrInvalidDesign)
		return out
	}
	if e.k < 3 {
		out.Err = fmt.Errorf("simple effect: no fixed factor left at %s=%s: %w", se.Factor, se.Level, stats.ErrInvalidDesign)
		return out
	}

	mask := make([]int, e.k)
	for i := range mask {
		mask[i] = -1
	}
	mask[d] = l
	sub, err := newEngine(e.ft.SubTable(mask).Compact(), e.log)
	if err != nil {
		out.Err = fmt.Errorf("simple effect: %w", err)
		return out
	}

	// parent[i] is the factor of the full design that is factor i of
	// the restricted table.
	var parent []int
	for i := 0; i < e.k; i++ {
		if i != d {
			parent = append(parent, i)
		}
	}
	toParent := func(s factorial.BitSet) factorial.BitSet {
		var p factorial.BitSet
		for _, i := range s.Elements() {
			p.Enter(parent[i])
		}
		return p
	}
	for i, p := range parent {
		if e.random.Contains(p) {
			sub.random.Enter(i)
		}
	}

	for _, src := range sub.fixedSources() {
		psrc := toParent(src)
		t := Test{
			Source: psrc,
			Name:   sourceName(e.names, psrc),
			SS:     sub.signedTerm(src, 0),
			DF:     sub.df(src),
		}
		var pt *Test
		for i := range res.Tests {
			if res.Tests[i].Source == psrc {
				pt = &res.Tests[i]
			}
		}
		if pt == nil {
			t.Err = fmt.Errorf("%s: no error term: %w", t.Name, stats.ErrInvalidDesign)
			t.ErrorSS, t.ErrorDF = nan, nan
			t.MS, t.ErrorMS, t.F, t.P, t.EtaSq, t.OmegaSq = nan, nan, nan, nan, nan, nan
		} else {
			t.ErrorSource, t.ErrorName = pt.ErrorSource, pt.ErrorName
			t.ErrorSS, t.ErrorDF = pt.ErrorSS, pt.ErrorDF
			t = sub.finish(t)
		}
		if t.Err != nil {
			opts.logger().Debug("simple effect test skipped", "source", t.Name, "err", t.Err)
		}
		out.Tests = append(out.Tests, t)
	}
	return out
}

// levene tests the homogeneity of variances by analyzing the absolute
// deviations of the data from their cell means, where a cell is a
// combination of levels of all fixed factors.
func (e *engine) levene(opts Options) (*Result, error) {
	dims := make([]int, 0, e.k-1)
	for d := 1; d < e.k; d++ {
		dims = append(dims, d)
	}
	means, _ := e.ft.CellMeans(dims)
	dev := e.ft.Map(func(idx []int, v float64) float64 {
		return math.Abs(v - means[table.CellKey(idx, dims)])
	})
	var analyses []Analysis
	for _, a := range opts.Analyses {
		if rf, ok := a.(RandomFactor); ok {
			analyses = append(analyses, rf)
		}
	}
	res, err := Analyze(dev, Options{Analyses: analyses, Concurrency: opts.Concurrency, Logger: opts.Logger})
	if err != nil {
		return nil, fmt.Errorf("levene: %w", err)
	}
	return res, nil
}
