// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package anova

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pxlab/pxstat/factorial"
	"github.com/pxlab/pxstat/stats"
	"github.com/pxlab/pxstat/table"
	"golang.org/x/sync/errgroup"
)

// maxFactors bounds the number of factors, since there are 2^k
// bracket terms.
const maxFactors = 16

type cell struct {
	idx []int
	v   float64
}

// An engine holds the bracket terms of one factorial table. After
// construction it is read-only, except for declareRandom, and tests
// may be computed concurrently.
type engine struct {
	ft     *table.Factorial
	log    *slog.Logger
	names  []string
	levels []int
	k      int
	cells  []cell

	// brackets[s] is the bracket term of the set of factors s.
	brackets []float64

	between factorial.BitSet
	random  factorial.BitSet
	// groups is the number of combinations of between factor
	// levels.
	groups int
}

func newEngine(ft *table.Factorial, log *slog.Logger) (*engine, error) {
	k := ft.NumFactors()
	if k > maxFactors {
		return nil, fmt.Errorf("%d factors, at most %d supported: %w", k, maxFactors, stats.ErrInvalidDesign)
	}
	e := &engine{
		ft:     ft,
		log:    log,
		names:  ft.FactorNames(),
		levels: ft.Levels(),
		k:      k,
		random: factorial.Singleton(0),
	}
	for d, n := range e.levels {
		if n < 2 {
			return nil, fmt.Errorf("factor %s has %d level(s): %w", e.names[d], n, stats.ErrInvalidDesign)
		}
	}
	ft.Each(func(idx []int, v float64) {
		e.cells = append(e.cells, cell{append([]int(nil), idx...), v})
	})
	if len(e.cells) == 0 {
		return nil, fmt.Errorf("no data: %w", stats.ErrInsufficientData)
	}
	e.computeBrackets()
	if err := e.checkBalance(); err != nil {
		return nil, err
	}
	return e, nil
}

// computeBrackets computes the bracket terms of all sets of factors
// and detects the between-subjects factors.
func (e *engine) computeBrackets() {
	n := 1 << uint(e.k)
	e.brackets = make([]float64, n)
	for s := 0; s < n; s++ {
		src := factorial.BitSet(s)
		b, filled, size := e.bracket(src)
		e.brackets[s] = b
		// Factor d is between subjects if some subject has no data
		// at some level of d.
		if src.Size() == 2 && src.Contains(0) && filled < size {
			e.between.Enter(src.Minus(factorial.Singleton(0)).Elements()[0])
		}
	}
	e.groups = 1
	for _, d := range e.between.Elements() {
		e.groups *= e.levels[d]
	}
}

// bracket returns Σ (cell sum)² / (cell count) over the level
// combinations of the factors in src, together with the number of
// combinations that have data and the number of combinations.
func (e *engine) bracket(src factorial.BitSet) (sum float64, filled, size int) {
	dims := src.Elements()
	stride := make([]int, len(dims))
	size = 1
	for i := len(dims) - 1; i >= 0; i-- {
		stride[i] = size
		size *= e.levels[dims[i]]
	}
	sums := make([]float64, size)
	counts := make([]int, size)
	for _, c := range e.cells {
		j := 0
		for i, d := range dims {
			j += c.idx[d] * stride[i]
		}
		sums[j] += c.v
		counts[j]++
	}
	for j, s := range sums {
		if counts[j] > 0 {
			sum += s * s / float64(counts[j])
			filled++
		}
	}
	return sum, filled, size
}

// checkBalance verifies that the design is balanced: all levels of
// every factor have the same number of cells, subjects are nested in
// exactly one combination of between factors, all combinations have
// the same number of subjects and no cell is missing.
func (e *engine) checkBalance() error {
	for d := 0; d < e.k; d++ {
		counts := make([]int, e.levels[d])
		for _, c := range e.cells {
			counts[c.idx[d]]++
		}
		for l, n := range counts {
			if n != counts[0] {
				return fmt.Errorf("factor %s: level %s has %d cells, level %s has %d: %w",
					e.names[d], e.ft.LevelName(d, 0), counts[0], e.ft.LevelName(d, l), n, stats.ErrUnbalancedFactor)
			}
		}
	}

	bdims := e.between.Elements()
	groupOf := make(map[int]int)
	for _, c := range e.cells {
		g := 0
		for _, d := range bdims {
			g = g*e.levels[d] + c.idx[d]
		}
		s := c.idx[0]
		if prev, ok := groupOf[s]; ok && prev != g {
			return fmt.Errorf("subject %s appears in more than one between-subjects group: %w",
				e.ft.LevelName(0, s), stats.ErrUnbalancedFactor)
		}
		groupOf[s] = g
	}
	sizes := make(map[int]int)
	for _, g := range groupOf {
		sizes[g]++
	}
	if len(sizes) != e.groups {
		return fmt.Errorf("%d of %d between-subjects groups have data: %w", len(sizes), e.groups, stats.ErrUnbalancedFactor)
	}
	per := len(groupOf) / e.groups
	for _, n := range sizes {
		if n != per {
			return fmt.Errorf("between-subjects groups have unequal sizes: %w", stats.ErrUnbalancedFactor)
		}
	}

	want := e.levels[0]
	for d := 1; d < e.k; d++ {
		if !e.between.Contains(d) {
			want *= e.levels[d]
		}
	}
	if len(e.cells) != want {
		return fmt.Errorf("%d cells, want %d: %w", len(e.cells), want, stats.ErrUnbalancedFactor)
	}
	return nil
}

// declareRandom adds the named factor to the random factors.
func (e *engine) declareRandom(name string) error {
	d, ok := e.ft.FactorIndex(name)
	if !ok {
		return fmt.Errorf("random factor %q: no such factor: %w", name, stats.ErrInvalidDesign)
	}
	if e.between.Contains(d) {
		return fmt.Errorf("random factor %q is a between-subjects factor: %w", name, stats.ErrInvalidDesign)
	}
	e.random.Enter(d)
	return nil
}

// fixedSources returns all non-empty sets of fixed factors ordered by
// size, sets of equal size in increasing bit order.
func (e *engine) fixedSources() []factorial.BitSet {
	fixed := factorial.Full(e.k).Minus(e.random)
	var out []factorial.BitSet
	for m := 1; m <= fixed.Size(); m++ {
		// k is at most maxFactors.
		it, err := factorial.NewSubsetIterator(e.k, m)
		if err != nil {
			panic(err)
		}
		for it.Next() {
			if s := it.Value(); s.SubsetOf(fixed) {
				out = append(out, s)
			}
		}
	}
	return out
}

// signedTerm returns Σ_{T ⊆ src} (-1)^{|src|-|T|} bracket[T ∪ base],
// the sum of squares of src nested in base.
func (e *engine) signedTerm(src, base factorial.BitSet) float64 {
	src = src.Minus(base)
	n := src.Size()
	sum := e.brackets[base]
	if n%2 == 1 {
		sum = -sum
	}
	it := src.Subsets()
	for it.Next() {
		t := it.Value()
		b := e.brackets[t.Union(base)]
		if (n-t.Size())%2 == 1 {
			b = -b
		}
		sum += b
	}
	return sum
}

// df returns Π (levels-1) over the factors in src.
func (e *engine) df(src factorial.BitSet) float64 {
	df := 1.0
	for _, d := range src.Elements() {
		df *= float64(e.levels[d] - 1)
	}
	return df
}

// errorSource returns the error term of the effect src: its within
// factors crossed with the random factors.
func (e *engine) errorSource(src factorial.BitSet) factorial.BitSet {
	return src.Minus(e.between).Union(e.random)
}

// errorDF returns the degrees of freedom of the error term of src.
func (e *engine) errorDF(src factorial.BitSet) float64 {
	df := float64(e.levels[0] - e.groups)
	within := e.errorSource(src).Minus(factorial.Singleton(0))
	return df * e.df(within)
}

// epsilon returns the threshold below which a sum of squares is
// treated as zero.
func (e *engine) epsilon() float64 {
	return 1e-10 * math.Abs(e.brackets[len(e.brackets)-1])
}

// test computes the F test of src.
func (e *engine) test(src factorial.BitSet) Test {
	errSrc := e.errorSource(src)
	t := Test{
		Source:      src,
		Name:        sourceName(e.names, src),
		SS:          e.signedTerm(src, 0),
		DF:          e.df(src),
		ErrorSource: errSrc,
		ErrorName:   errorName(e.names, errSrc, e.between),
		ErrorSS:     e.signedTerm(errSrc, e.between),
		ErrorDF:     e.errorDF(src),
	}
	return e.finish(t)
}

// finish computes the F ratio, p-value and effect sizes of t from its
// sums of squares and degrees of freedom.
func (e *engine) finish(t Test) Test {
	eps := e.epsilon()
	switch {
	case t.DF <= 0 || t.ErrorDF <= 0:
		t.Err = fmt.Errorf("%s: %v and %v degrees of freedom: %w", t.Name, t.DF, t.ErrorDF, stats.ErrDegenerateEffect)
	case t.SS < -eps:
		t.Err = fmt.Errorf("%s: negative sum of squares %g: %w", t.Name, t.SS, stats.ErrDegenerateEffect)
	case t.ErrorSS <= eps:
		t.Err = fmt.Errorf("%s: vanishing error sum of squares %g: %w", t.Name, t.ErrorSS, stats.ErrDegenerateEffect)
	}
	if t.Err != nil {
		t.MS, t.ErrorMS, t.F, t.P, t.EtaSq, t.OmegaSq = nan, nan, nan, nan, nan, nan
		return t
	}
	if t.SS < 0 {
		t.SS = 0
	}
	t.MS = t.SS / t.DF
	t.ErrorMS = t.ErrorSS / t.ErrorDF
	t.F = t.MS / t.ErrorMS
	t.P = stats.FTest(t.F, t.DF, t.ErrorDF)
	t.EtaSq = t.SS / (t.SS + t.ErrorSS)
	t.OmegaSq = omegaSq(t.DF, t.F, len(e.cells))
	return t
}

// tests computes the tests of srcs concurrently, running at most
// limit at a time if limit > 0. The results are in the order of srcs.
func (e *engine) tests(srcs []factorial.BitSet, limit int) []Test {
	out := make([]Test, len(srcs))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, src := range srcs {
		i, src := i, src
		g.Go(func() error {
			out[i] = e.test(src)
			return nil
		})
	}
	g.Wait()
	return out
}

var nan = math.NaN()
