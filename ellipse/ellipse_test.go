// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ellipse

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/pxlab/pxstat/praxis"
	"github.com/pxlab/pxstat/report"
	"github.com/pxlab/pxstat/stats"
	"github.com/pxlab/pxstat/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

var truth = Ellipse{CX: 1, CY: 2, A: 3, B: 1, Angle: 0.5}

func sample(e Ellipse, n int, phi func(k int) float64) (xs, ys []float64) {
	for k := 0; k < n; k++ {
		x, y := e.Point(phi(k))
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return
}

func assertEllipse(t *testing.T, want, got Ellipse, delta float64) {
	t.Helper()
	assert.InDelta(t, want.CX, got.CX, delta, "CX")
	assert.InDelta(t, want.CY, got.CY, delta, "CY")
	assert.InDelta(t, want.A, got.A, delta, "A")
	assert.InDelta(t, want.B, got.B, delta, "B")
	assert.InDelta(t, want.Angle, got.Angle, delta, "Angle")
}

func TestRadius(t *testing.T) {
	for _, phi := range []float64{0, 1, 2, 4} {
		x, y := truth.Point(phi)
		assert.InDelta(t, 1, truth.Radius(x, y), 1e-12)
	}
	assert.Equal(t, 0.0, truth.Radius(1, 2))
	x, y := truth.Point(0)
	assert.InDelta(t, 2, truth.Radius(1+2*(x-1), 2+2*(y-2)), 1e-12)
}

func TestNormalize(t *testing.T) {
	e := Ellipse{A: 1, B: 3, Angle: -0.5}.normalize()
	assert.Equal(t, 3.0, e.A)
	assert.Equal(t, 1.0, e.B)
	assert.InDelta(t, math.Pi/2-0.5, e.Angle, 1e-12)

	e = Ellipse{A: 2, B: 1, Angle: 3 * math.Pi / 2}.normalize()
	assert.InDelta(t, math.Pi/2, e.Angle, 1e-12)
}

func TestEvenlySpaced(t *testing.T) {
	const n = 36
	xs, ys := sample(truth, n, func(k int) float64 { return 2 * math.Pi * float64(k) / n })
	r, err := Estimate(xs, ys, Options{Logger: quiet})
	require.NoError(t, err)
	assertEllipse(t, truth, r.Initial, 1e-9)
	assertEllipse(t, truth, r.Ellipse, 1e-4)
	assert.Less(t, r.SS, 1e-8)
}

func TestUnevenlySpaced(t *testing.T) {
	const n = 40
	xs, ys := sample(truth, n, func(k int) float64 {
		f := float64(k) / n
		return 2 * math.Pi * f * f
	})
	r, err := Estimate(xs, ys, Options{Minimizer: praxis.Praxis{Tolerance: 1e-9}, Logger: quiet})
	require.NoError(t, err)
	assertEllipse(t, truth, r.Ellipse, 1e-3)
	assert.Less(t, r.SS, 1e-6)
}

func TestErrors(t *testing.T) {
	_, err := Estimate([]float64{1, 2}, []float64{1}, Options{Logger: quiet})
	assert.ErrorIs(t, err, stats.ErrInvalidDesign)
	_, err = Estimate([]float64{1, 2, 3, 4}, []float64{1, 2, 3, 4}, Options{Logger: quiet})
	assert.ErrorIs(t, err, stats.ErrInsufficientData)
	_, err = Estimate([]float64{1, 2, 3, 4, 5}, []float64{2, 4, 6, 8, 10}, Options{Logger: quiet})
	assert.ErrorIs(t, err, stats.ErrSingularMatrix)

	_, err = EstimateTable(&table.DataTable{Names: []string{"x"}, Rows: [][]float64{{1}}}, Options{Logger: quiet})
	assert.ErrorIs(t, err, stats.ErrInvalidDesign)
}

func TestReport(t *testing.T) {
	const n = 12
	xs, ys := sample(truth, n, func(k int) float64 { return 2 * math.Pi * float64(k) / n })
	dt := &table.DataTable{Names: []string{"x", "y"}}
	for i := range xs {
		dt.Rows = append(dt.Rows, []float64{xs[i], ys[i]})
	}
	dt.Rows = append(dt.Rows, []float64{math.NaN(), 1})
	r, err := EstimateTable(dt, Options{Logger: quiet})
	require.NoError(t, err)
	assert.Len(t, r.X, n)

	rep := report.New(report.PrintDefault | report.PrintDetailed)
	r.Report(rep)
	assert.Equal(t, []string{"points", "ellipse"}, rep.SeriesNames())
	assert.Len(t, rep.Series("points").Lines, n)
	assert.Len(t, rep.Series("ellipse").Lines, curveSteps+1)
}
