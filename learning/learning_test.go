// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package learning

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/pxlab/pxstat/praxis"
	"github.com/pxlab/pxstat/report"
	"github.com/pxlab/pxstat/stats"
	"github.com/pxlab/pxstat/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// curveTable returns a table of subjects s1 and s2 in groups g1 and
// g2, whose means per trial lie on the given curves.
func curveTable(t *testing.T, m Model, trials int, params map[string][3]float64) *table.Factorial {
	t.Helper()
	var b strings.Builder
	b.WriteString("S G trial y\n")
	for _, g := range []string{"g1", "g2"} {
		p, ok := params[g]
		if !ok {
			continue
		}
		for tr := 1; tr <= trials; tr++ {
			y := m.Eval(float64(tr), p[0], p[1], p[2])
			fmt.Fprintf(&b, "s1%s %s %d %v\n", g, g, tr, y-1)
			fmt.Fprintf(&b, "s2%s %s %d %v\n", g, g, tr, y+1)
		}
	}
	st, err := table.ReadStringTable(strings.NewReader(b.String()), table.ReadOptions{Header: true})
	require.NoError(t, err)
	ft, err := table.NewFactorial(st, table.ParseOptions{Strict: true})
	require.NoError(t, err)
	return ft
}

func TestEval(t *testing.T) {
	for _, m := range []Model{Exponential, Power} {
		assert.InDelta(t, 2, m.Eval(1, 10, 2, 0.5), 1e-12, m.String())
		assert.InDelta(t, 10, m.Eval(1e6, 10, 2, 0.5), 1e-2, m.String())
	}
}

func TestRecovery(t *testing.T) {
	for _, tc := range []struct {
		m      Model
		params [3]float64
	}{
		{Exponential, [3]float64{10, 2, 0.5}},
		{Power, [3]float64{1, 5, 0.7}},
	} {
		ft := curveTable(t, tc.m, 12, map[string][3]float64{"g1": tc.params})
		r, err := Estimate(ft, Options{Model: tc.m, Minimizer: praxis.Praxis{Tolerance: 1e-8}, Logger: quiet})
		require.NoError(t, err)
		assert.Equal(t, "trial", r.Trial)
		require.Len(t, r.Fits, 1)
		f := r.Fits[0]
		require.NoError(t, f.Err, tc.m.String())
		assert.Len(t, f.Points, 12)
		assert.Equal(t, 2, f.Points[0].N)
		assert.InDelta(t, tc.params[0], f.Asymptote, 1e-3, tc.m.String())
		assert.InDelta(t, tc.params[1], f.Start, 1e-3, tc.m.String())
		assert.InDelta(t, tc.params[2], f.Rate, 1e-3, tc.m.String())
		assert.InDelta(t, 1, f.R2, 1e-6, tc.m.String())
	}
}

func TestGroups(t *testing.T) {
	ft := curveTable(t, Exponential, 8, map[string][3]float64{
		"g1": {10, 2, 0.5},
		"g2": {4, 8, 1},
	})
	r, err := Estimate(ft, Options{Groups: []string{"G"}, Trial: "trial", Concurrency: 1, Logger: quiet})
	require.NoError(t, err)
	require.Len(t, r.Fits, 2)
	assert.Equal(t, "G=g1", r.Fits[0].Group)
	assert.Equal(t, "G=g2", r.Fits[1].Group)
	assert.InDelta(t, 10, r.Fits[0].Asymptote, 1e-3)
	assert.InDelta(t, 4, r.Fits[1].Asymptote, 1e-3)
	assert.InDelta(t, 8, r.Fits[1].Start, 1e-3)

	rep := report.New(report.PrintDefault)
	r.Report(rep)
	lines := rep.Series("learning").Lines
	require.Len(t, lines, 8+1+8)
	assert.Equal(t, "", lines[8])
	assert.True(t, strings.HasPrefix(lines[0], "1 2 "), lines[0])
}

func TestErrors(t *testing.T) {
	ft := curveTable(t, Exponential, 5, map[string][3]float64{"g1": {10, 2, 0.5}})
	_, err := Estimate(ft, Options{Trial: "block", Logger: quiet})
	assert.ErrorIs(t, err, stats.ErrInvalidDesign)
	_, err = Estimate(ft, Options{Groups: []string{"trial"}, Logger: quiet})
	assert.ErrorIs(t, err, stats.ErrInvalidDesign)
	_, err = Estimate(ft, Options{Trial: "G", Logger: quiet})
	assert.ErrorIs(t, err, stats.ErrParse)

	f := FitPoints([]Point{{1, 2, 1}, {2, 3, 1}}, Options{Logger: quiet})
	assert.ErrorIs(t, f.Err, stats.ErrInsufficientData)
	f = FitPoints([]Point{{0, 2, 1}, {1, 3, 1}, {2, 4, 1}}, Options{Model: Power, Logger: quiet})
	assert.ErrorIs(t, f.Err, stats.ErrInvalidDesign)

	m, err := ParseModel("Power")
	require.NoError(t, err)
	assert.Equal(t, Power, m)
	_, err = ParseModel("hyperbolic")
	assert.Error(t, err)
}
