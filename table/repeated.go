// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package table

import (
	"strings"

	"github.com/pxlab/pxstat/factorial"
)

// A WideTable is a factorial table pivoted into one row per sampling
// unit and one column per combination of the within factors.
type WideTable struct {
	// RowLabels holds, for each row, the level labels of the
	// factors that are not pivoted into columns.
	RowLabels [][]string

	// RowFactors names the factors of RowLabels.
	RowFactors []string

	// Columns names the columns by the level labels of the within
	// factors, joined by ".".
	Columns []string

	// Rows holds the values. Missing cells are NaN.
	Rows [][]float64

	// Missing lists the full index vectors of the cells without
	// data, in row and column order.
	Missing [][]int
}

// RepeatedMeasures pivots the factors in within into columns. Every
// combination of the remaining factors that has any data becomes a
// row.
func (ft *Factorial) RepeatedMeasures(within factorial.BitSet) *WideTable {
	nf := ft.NumFactors()
	keep := make([]bool, nf)
	colMask := make([]int, nf)
	rowMask := make([]int, nf)
	w := &WideTable{}
	for d := 0; d < nf; d++ {
		keep[d] = !within.Contains(d)
		if keep[d] {
			w.RowFactors = append(w.RowFactors, ft.names[d])
			colMask[d] = 0
			rowMask[d] = -1
		} else {
			colMask[d] = -1
			rowMask[d] = 0
		}
	}
	sizes := ft.Levels()

	// Columns: every combination of the within factors.
	var cols [][]int
	it := factorial.NewMaskedExpansionIterator(sizes, colMask)
	for it.Next() {
		idx := it.Index()
		cols = append(cols, append([]int(nil), idx...))
		var parts []string
		for d := 0; d < nf; d++ {
			if !keep[d] {
				parts = append(parts, ft.levels[d][idx[d]])
			}
		}
		w.Columns = append(w.Columns, strings.Join(parts, "."))
	}

	// Rows: every combination of the other factors present in ft.
	present := make(map[Key]bool)
	for k := range ft.values {
		idx := ft.Index(k)
		for d := 0; d < nf; d++ {
			if !keep[d] {
				idx[d] = 0
			}
		}
		present[ft.Key(idx)] = true
	}
	it = factorial.NewMaskedExpansionIterator(sizes, rowMask)
	for it.Next() {
		base := it.Index()
		if !present[ft.Key(base)] {
			continue
		}
		var labels []string
		for d := 0; d < nf; d++ {
			if keep[d] {
				labels = append(labels, ft.levels[d][base[d]])
			}
		}
		row := make([]float64, len(cols))
		for j, c := range cols {
			idx := make([]int, nf)
			for d := 0; d < nf; d++ {
				if keep[d] {
					idx[d] = base[d]
				} else {
					idx[d] = c[d]
				}
			}
			v, ok := ft.Value(idx)
			if !ok {
				v = nan
				w.Missing = append(w.Missing, idx)
			}
			row[j] = v
		}
		w.RowLabels = append(w.RowLabels, labels)
		w.Rows = append(w.Rows, row)
	}
	return w
}
