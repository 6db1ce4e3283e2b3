// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package table

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

var nan = math.NaN()

// A DataTable is a table of numbers with named columns.
type DataTable struct {
	Names []string
	Rows  [][]float64
}

// Numeric converts every token of t to a number.
func (t *StringTable) Numeric(opts ParseOptions) (*DataTable, error) {
	dt := &DataTable{Rows: make([][]float64, len(t.Rows))}
	for j := 0; j < t.NumColumns(); j++ {
		dt.Names = append(dt.Names, t.ColumnName(j))
	}
	for i, row := range t.Rows {
		vals := make([]float64, len(row))
		for j, tok := range row {
			v, err := opts.parseFloat(tok, i, j)
			if err != nil {
				return nil, err
			}
			vals[j] = v
		}
		dt.Rows[i] = vals
	}
	return dt, nil
}

// Len returns the number of rows in t.
func (t *DataTable) Len() int {
	return len(t.Rows)
}

// NumColumns returns the number of columns in t.
func (t *DataTable) NumColumns() int {
	return len(t.Names)
}

// Column returns a copy of column j.
func (t *DataTable) Column(j int) []float64 {
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[j]
	}
	return out
}

// Complete returns a table containing only the rows of t that have no
// NaN values, and the number of rows dropped.
func (t *DataTable) Complete() (*DataTable, int) {
	nt := &DataTable{Names: t.Names}
	for _, row := range t.Rows {
		ok := true
		for _, v := range row {
			if math.IsNaN(v) {
				ok = false
				break
			}
		}
		if ok {
			nt.Rows = append(nt.Rows, row)
		}
	}
	return nt, len(t.Rows) - len(nt.Rows)
}

// Matrix returns the table as a rows×columns gonum matrix.
func (t *DataTable) Matrix() *mat.Dense {
	if len(t.Rows) == 0 || len(t.Names) == 0 {
		return &mat.Dense{}
	}
	m := mat.NewDense(len(t.Rows), len(t.Names), nil)
	for i, row := range t.Rows {
		m.SetRow(i, row)
	}
	return m
}
