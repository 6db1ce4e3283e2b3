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

// A Frequency counts how often each combination of factor levels
// occurs.
type Frequency struct {
	schema
	counts map[Key]float64
	total  float64
}

// FrequencyOptions control NewFrequency.
type FrequencyOptions struct {
	ParseOptions

	// Weighted indicates that the last column holds the frequency
	// of its row. Otherwise every row counts once.
	Weighted bool
}

// NewFrequency builds a Frequency from t. Every column is a factor,
// except for a trailing frequency column if opts.Weighted is set.
func NewFrequency(t *StringTable, opts FrequencyOptions) (*Frequency, error) {
	nf := t.NumColumns()
	if opts.Weighted {
		nf--
	}
	if nf < 1 {
		return nil, fmt.Errorf("frequency table needs at least one factor column: %w", stats.ErrInvalidDesign)
	}
	if t.Len() == 0 {
		return nil, fmt.Errorf("frequency table has no data: %w", stats.ErrInsufficientData)
	}
	names := make([]string, nf)
	levels := make([][]string, nf)
	for d := 0; d < nf; d++ {
		names[d] = t.ColumnName(d)
		levels[d] = distinctLevels(t.Rows, d)
	}
	ft := &Frequency{
		schema: newSchema(names, levels),
		counts: make(map[Key]float64),
	}
	index := levelIndexes(levels)
	idx := make([]int, nf)
	for i, row := range t.Rows {
		w := 1.0
		if opts.Weighted {
			v, err := opts.parseFloat(row[nf], i, nf)
			if err != nil {
				return nil, err
			}
			if math.IsNaN(v) {
				continue
			}
			if v < 0 {
				return nil, fmt.Errorf("row %d: negative frequency %v: %w", i+1, v, stats.ErrParse)
			}
			w = v
		}
		for d := 0; d < nf; d++ {
			idx[d] = index[d][row[d]]
		}
		ft.counts[ft.Key(idx)] += w
		ft.total += w
	}
	return ft, nil
}

// Len returns the number of level combinations that occurred.
func (ft *Frequency) Len() int {
	return len(ft.counts)
}

// Total returns the sum of all frequencies.
func (ft *Frequency) Total() float64 {
	return ft.total
}

// Keys returns the keys of all level combinations that occurred in
// increasing order.
func (ft *Frequency) Keys() []Key {
	keys := make([]Key, 0, len(ft.counts))
	for k := range ft.counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Count returns the frequency of level combination idx.
func (ft *Frequency) Count(idx []int) float64 {
	return ft.counts[ft.Key(idx)]
}

// CountOf returns the frequency stored under key k.
func (ft *Frequency) CountOf(k Key) float64 {
	return ft.counts[k]
}

// SubTable returns the frequencies of the level combinations that
// agree with mask, dropping the pinned dimensions.
func (ft *Frequency) SubTable(mask []int) *Frequency {
	keep := make([]bool, ft.NumFactors())
	for d := range keep {
		keep[d] = mask[d] < 0
	}
	nt := &Frequency{
		schema: ft.subSchema(keep),
		counts: make(map[Key]float64),
	}
	for k, n := range ft.counts {
		idx := ft.Index(k)
		if !matches(idx, mask) {
			continue
		}
		nt.counts[nt.Key(project(idx, keep))] += n
		nt.total += n
	}
	return nt
}

// Marginal sums the frequencies over every factor not in dims. The
// result has the factors dims, in the given order.
func (ft *Frequency) Marginal(dims ...int) *Frequency {
	names := make([]string, len(dims))
	levels := make([][]string, len(dims))
	for i, d := range dims {
		names[i] = ft.names[d]
		levels[i] = ft.levels[d]
	}
	nt := &Frequency{
		schema: newSchema(names, levels),
		counts: make(map[Key]float64),
		total:  ft.total,
	}
	sub := make([]int, len(dims))
	for k, n := range ft.counts {
		idx := ft.Index(k)
		for i, d := range dims {
			sub[i] = idx[d]
		}
		nt.counts[nt.Key(sub)] += n
	}
	return nt
}
