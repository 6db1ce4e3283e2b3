// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package table

import (
	"fmt"
	"math"
	"sort"

	"github.com/pxlab/pxstat/stats"
)

// A Factorial maps combinations of factor levels to the mean of the
// values observed for that combination.
//
// Factor 0 is conventionally the sampling factor, such as the
// subject. A Factorial is immutable once built; the projection methods
// return new tables.
type Factorial struct {
	schema
	values map[Key]float64
	counts map[Key]int
}

// NewFactorial builds a Factorial from t. Every column but the last
// is a factor; the last column is the dependent variable. Level
// labels are sorted numerically if they are all numbers and
// lexicographically otherwise. Replicated level combinations are
// averaged.
//
// Rows whose value is NaN (see ParseOptions) are skipped.
func NewFactorial(t *StringTable, opts ParseOptions) (*Factorial, error) {
	nc := t.NumColumns()
	if nc < 2 {
		return nil, fmt.Errorf("factorial table needs at least 2 columns, got %d: %w", nc, stats.ErrInvalidDesign)
	}
	if t.Len() == 0 {
		return nil, fmt.Errorf("factorial table has no data: %w", stats.ErrInsufficientData)
	}
	nf := nc - 1
	names := make([]string, nf)
	levels := make([][]string, nf)
	for d := 0; d < nf; d++ {
		names[d] = t.ColumnName(d)
		levels[d] = distinctLevels(t.Rows, d)
	}
	ft := &Factorial{
		schema: newSchema(names, levels),
		values: make(map[Key]float64),
		counts: make(map[Key]int),
	}
	index := levelIndexes(levels)
	idx := make([]int, nf)
	skipped := 0
	for i, row := range t.Rows {
		v, err := opts.parseFloat(row[nf], i, nf)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(v) {
			skipped++
			continue
		}
		for d := 0; d < nf; d++ {
			idx[d] = index[d][row[d]]
		}
		k := ft.Key(idx)
		ft.values[k] += v
		ft.counts[k]++
	}
	for k, n := range ft.counts {
		ft.values[k] /= float64(n)
	}
	if skipped > 0 {
		opts.logger().Warn("rows without a valid value skipped", "rows", skipped)
	}
	return ft, nil
}

// NewFactorialFromMap builds a Factorial with the given factors from a
// map of level combinations to values. It is mainly useful for
// constructing derived tables and tests.
func NewFactorialFromMap(names []string, levels [][]string, values map[Key]float64) *Factorial {
	ft := &Factorial{
		schema: newSchema(names, levels),
		values: make(map[Key]float64, len(values)),
		counts: make(map[Key]int, len(values)),
	}
	for k, v := range values {
		ft.values[k] = v
		ft.counts[k] = 1
	}
	return ft
}

// Len returns the number of level combinations with data.
func (ft *Factorial) Len() int {
	return len(ft.values)
}

// Keys returns the keys of all level combinations with data in
// increasing order.
func (ft *Factorial) Keys() []Key {
	keys := make([]Key, 0, len(ft.values))
	for k := range ft.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Value returns the mean value of level combination idx and whether
// that combination has data.
func (ft *Factorial) Value(idx []int) (float64, bool) {
	v, ok := ft.values[ft.Key(idx)]
	return v, ok
}

// ValueOf returns the value stored under key k.
func (ft *Factorial) ValueOf(k Key) (float64, bool) {
	v, ok := ft.values[k]
	return v, ok
}

// Count returns the number of raw observations averaged into
// level combination idx.
func (ft *Factorial) Count(idx []int) int {
	return ft.counts[ft.Key(idx)]
}

// Each calls fn for every level combination with data, in key order.
// The idx slice is only valid during the call.
func (ft *Factorial) Each(fn func(idx []int, v float64)) {
	for _, k := range ft.Keys() {
		fn(ft.Index(k), ft.values[k])
	}
}

// SubSection returns the part of ft whose level combinations agree
// with mask on the dimensions d with mask[d] >= 0. The result has the
// same factors as ft.
func (ft *Factorial) SubSection(mask []int) *Factorial {
	nt := &Factorial{
		schema: ft.schema,
		values: make(map[Key]float64),
		counts: make(map[Key]int),
	}
	for k, v := range ft.values {
		if matches(ft.Index(k), mask) {
			nt.values[k] = v
			nt.counts[k] = ft.counts[k]
		}
	}
	return nt
}

// SubTable is like SubSection, but drops the pinned dimensions from
// the result's factors.
func (ft *Factorial) SubTable(mask []int) *Factorial {
	keep := make([]bool, ft.NumFactors())
	for d := range keep {
		keep[d] = mask[d] < 0
	}
	nt := &Factorial{
		schema: ft.subSchema(keep),
		values: make(map[Key]float64),
		counts: make(map[Key]int),
	}
	for k, v := range ft.values {
		idx := ft.Index(k)
		if !matches(idx, mask) {
			continue
		}
		nk := nt.Key(project(idx, keep))
		nt.values[nk] = v
		nt.counts[nk] = ft.counts[k]
	}
	return nt
}

func project(idx []int, keep []bool) []int {
	out := make([]int, 0, len(idx))
	for d, k := range keep {
		if k {
			out = append(out, idx[d])
		}
	}
	return out
}

// Derived collapses factor d by applying fn to the values at all of
// its levels. fn receives one value per level of d, in level order.
// Combinations of the remaining factors that lack data at any level
// of d are omitted from the result.
//
// Derived is used to compute contrast scores: with fn returning
// Σ c_l·v_l, the result holds one contrast score per combination of
// the other factors.
func (ft *Factorial) Derived(d int, fn func(vals []float64) float64) *Factorial {
	keep := make([]bool, ft.NumFactors())
	for i := range keep {
		keep[i] = i != d
	}
	nt := &Factorial{
		schema: ft.subSchema(keep),
		values: make(map[Key]float64),
		counts: make(map[Key]int),
	}
	done := make(map[Key]bool)
	vals := make([]float64, ft.NumLevels(d))
	for k := range ft.values {
		idx := ft.Index(k)
		nk := nt.Key(project(idx, keep))
		if done[nk] {
			continue
		}
		done[nk] = true
		complete := true
		for l := range vals {
			idx[d] = l
			v, ok := ft.values[ft.Key(idx)]
			if !ok {
				complete = false
				break
			}
			vals[l] = v
		}
		if complete {
			nt.values[nk] = fn(vals)
			nt.counts[nk] = 1
		}
	}
	return nt
}

// Map returns a table with the same factors and level combinations as
// ft whose values are fn(idx, v).
func (ft *Factorial) Map(fn func(idx []int, v float64) float64) *Factorial {
	nt := &Factorial{
		schema: ft.schema,
		values: make(map[Key]float64, len(ft.values)),
		counts: make(map[Key]int, len(ft.values)),
	}
	for k, v := range ft.values {
		nt.values[k] = fn(ft.Index(k), v)
		nt.counts[k] = ft.counts[k]
	}
	return nt
}

// CellMeans returns the mean value over all data matching each level
// combination of the factors in dims, together with the number of
// values averaged. The returned maps are keyed by CellKey.
func (ft *Factorial) CellMeans(dims []int) (means map[string]float64, counts map[string]int) {
	means = make(map[string]float64)
	counts = make(map[string]int)
	for k, v := range ft.values {
		idx := ft.Index(k)
		key := cellKey(idx, dims)
		means[key] += v
		counts[key]++
	}
	for k, n := range counts {
		means[k] /= float64(n)
	}
	return
}

// CellKey returns the map key CellMeans uses for idx restricted to
// dims.
func CellKey(idx []int, dims []int) string {
	return cellKey(idx, dims)
}

func cellKey(idx []int, dims []int) string {
	sub := make([]int, len(dims))
	for i, d := range dims {
		sub[i] = idx[d]
	}
	return fmt.Sprint(sub)
}

// Compact returns ft without the factor levels that have no data.
// Level indexes of the remaining levels are renumbered in order.
func (ft *Factorial) Compact() *Factorial {
	nf := ft.NumFactors()
	used := make([][]bool, nf)
	for d := range used {
		used[d] = make([]bool, ft.NumLevels(d))
	}
	for k := range ft.values {
		for d, l := range ft.Index(k) {
			used[d][l] = true
		}
	}
	remap := make([][]int, nf)
	levels := make([][]string, nf)
	for d := range used {
		remap[d] = make([]int, len(used[d]))
		for l, u := range used[d] {
			remap[d][l] = -1
			if u {
				remap[d][l] = len(levels[d])
				levels[d] = append(levels[d], ft.levels[d][l])
			}
		}
	}
	nt := &Factorial{
		schema: newSchema(ft.FactorNames(), levels),
		values: make(map[Key]float64, len(ft.values)),
		counts: make(map[Key]int, len(ft.values)),
	}
	for k, v := range ft.values {
		idx := ft.Index(k)
		for d, l := range idx {
			idx[d] = remap[d][l]
		}
		nk := nt.Key(idx)
		nt.values[nk] = v
		nt.counts[nk] = ft.counts[k]
	}
	return nt
}
