// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package descriptive

import (
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/pxlab/pxstat/report"
	"github.com/pxlab/pxstat/stats"
	"github.com/pxlab/pxstat/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

const data = `S cond y
s1 10 4
s1 2 1
s1 2 3
s2 10 6
s2 2 x
s2 10 8
`

func mustRead(t *testing.T, src string) *table.StringTable {
	t.Helper()
	st, err := table.ReadStringTable(strings.NewReader(src), table.ReadOptions{Header: true})
	require.NoError(t, err)
	return st
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{4, 1, 3, 2})
	assert.Equal(t, 4, s.N)
	assert.Equal(t, 2.5, s.Mean)
	assert.Equal(t, 2.5, s.Median)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.InDelta(t, math.Sqrt(5.0/3), s.SD, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3)/2, s.SE, 1e-12)
	// t(3) 97.5% quantile.
	assert.InDelta(t, 2.5-3.182446*s.SE, s.CILow, 1e-5)
	assert.InDelta(t, 2.5+3.182446*s.SE, s.CIHigh, 1e-5)

	s = Summarize([]float64{7})
	assert.Equal(t, 7.0, s.Median)
	assert.True(t, math.IsNaN(s.SD))

	s = Summarize(nil)
	assert.Equal(t, 0, s.N)
	assert.True(t, math.IsNaN(s.Mean))
}

func TestCompute(t *testing.T) {
	r, err := Compute(mustRead(t, data), Options{Factors: []string{"cond"}, Logger: quiet})
	require.NoError(t, err)
	assert.Equal(t, []string{"cond"}, r.Factors)
	assert.Equal(t, "y", r.Value)
	assert.Equal(t, 1, r.Missing)
	require.Len(t, r.Cells, 2)

	// Numeric levels sort by value.
	c := r.Cells[0]
	assert.Equal(t, []string{"2"}, c.Levels)
	assert.Equal(t, []float64{1, 3}, c.Values)
	assert.Equal(t, 2.0, c.Mean)
	c = r.Cells[1]
	assert.Equal(t, []string{"10"}, c.Levels)
	assert.Equal(t, []float64{4, 6, 8}, c.Values)
	assert.Equal(t, 6.0, c.Median)
	assert.Equal(t, 2.0, c.SD)

	assert.Equal(t, 5, r.Total.N)
	assert.Equal(t, 4.4, r.Total.Mean)

	r, err = Compute(mustRead(t, data), Options{Logger: quiet})
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "cond"}, r.Factors)
	// s2 has no valid value at cond 2.
	require.Len(t, r.Cells, 3)
	assert.Equal(t, []string{"s1", "2"}, r.Cells[0].Levels)
	assert.Equal(t, []string{"s2", "10"}, r.Cells[2].Levels)
}

func TestComputeErrors(t *testing.T) {
	_, err := Compute(mustRead(t, data), Options{Value: "z", Logger: quiet})
	assert.ErrorIs(t, err, stats.ErrInvalidDesign)
	_, err = Compute(mustRead(t, data), Options{Factors: []string{"y"}, Logger: quiet})
	assert.ErrorIs(t, err, stats.ErrInvalidDesign)
	_, err = Compute(mustRead(t, data), Options{Strict: true, Logger: quiet})
	assert.ErrorIs(t, err, stats.ErrParse)
	_, err = Compute(mustRead(t, "a b\n1 x\n"), Options{Logger: quiet})
	assert.ErrorIs(t, err, stats.ErrInsufficientData)
}

func TestReport(t *testing.T) {
	r, err := Compute(mustRead(t, data), Options{Factors: []string{"cond"}, Logger: quiet})
	require.NoError(t, err)
	rep := report.New(report.PrintDefault | report.PrintDetailed)
	r.Report(rep)
	var b strings.Builder
	require.NoError(t, rep.WriteText(&b))
	out := b.String()
	assert.Contains(t, out, "Descriptive Statistics of y")
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "4 6 8")
	means := rep.Series("means").Lines
	require.Len(t, means, 2)
	assert.True(t, strings.HasPrefix(means[0], "0 2 "), means[0])
	assert.True(t, strings.HasPrefix(means[1], "1 6 "), means[1])
}
