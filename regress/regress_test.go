// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regress

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/pxlab/pxstat/report"
	"github.com/pxlab/pxstat/stats"
	"github.com/pxlab/pxstat/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestInvert(t *testing.T) {
	a := [][]float64{
		{4, 1, 2},
		{1, 5, 3},
		{2, 3, 6},
	}
	m := mat.NewDense(3, 3, []float64{
		4, 1, 2,
		1, 5, 3,
		2, 3, 6,
	})
	det, err := Invert(a)
	require.NoError(t, err)

	assert.InDelta(t, mat.Det(m), det, 1e-9)
	var inv mat.Dense
	require.NoError(t, inv.Inverse(m))
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, inv.At(i, j), a[i][j], 1e-12, "(%d,%d)", i, j)
		}
	}

	_, err = Invert([][]float64{{1, 2}, {2, 4}})
	assert.ErrorIs(t, err, stats.ErrSingularMatrix)

	_, err = Invert([][]float64{{1, 2}, {2}})
	assert.Error(t, err)

	_, err = Invert([][]float64{{math.NaN(), 0}, {0, 1}})
	assert.ErrorIs(t, err, stats.ErrSingularMatrix)
	_, err = Invert([][]float64{{1, math.NaN()}, {math.NaN(), 1}})
	assert.ErrorIs(t, err, stats.ErrSingularMatrix)

	det, err = Invert(nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, det)
}

func TestPerfectFit(t *testing.T) {
	x1 := []float64{1, 2, 3, 4, 5, 6}
	x2 := []float64{2, 1, 4, 3, 6, 8}
	dt := &table.DataTable{Names: []string{"y", "x1", "x2"}}
	for i := range x1 {
		dt.Rows = append(dt.Rows, []float64{2*x1[i] - 3*x2[i] + 5, x1[i], x2[i]})
	}
	dt.Rows = append(dt.Rows, []float64{math.NaN(), 1, 1})

	r, err := Fit(dt, Options{Logger: quiet})
	require.NoError(t, err)
	assert.Equal(t, 6, r.N)
	require.Len(t, r.Predictors, 2)
	assert.InDelta(t, 2, r.Predictors[0].B, 1e-6)
	assert.InDelta(t, -3, r.Predictors[1].B, 1e-6)
	assert.InDelta(t, 5, r.Intercept, 1e-6)
	assert.InDelta(t, 1, r.R2, 1e-9)
	assert.True(t, math.IsInf(r.F, 1))
	assert.Equal(t, 0.0, r.P)
	assert.Equal(t, 0.0, r.Predictors[1].P)
	assert.True(t, math.IsInf(r.Predictors[1].T, -1))
}

func TestSimpleRegression(t *testing.T) {
	dt := &table.DataTable{
		Names: []string{"y", "x"},
		Rows:  [][]float64{{2, 1}, {4, 2}, {5, 3}, {4, 4}, {5, 5}},
	}
	r, err := Fit(dt, Options{Logger: quiet})
	require.NoError(t, err)
	p := r.Predictors[0]
	assert.InDelta(t, 0.6, p.B, 1e-12)
	assert.InDelta(t, 2.2, r.Intercept, 1e-12)
	assert.InDelta(t, 0.6, r.R2, 1e-12)
	assert.InDelta(t, math.Sqrt(0.6), p.Correlation, 1e-12)
	assert.InDelta(t, p.Correlation, p.PartialCorrelation, 1e-12)
	assert.InDelta(t, p.Correlation, p.Beta, 1e-12)
	assert.InDelta(t, 3.6, r.RegressionSS, 1e-12)
	assert.InDelta(t, 2.4, r.ResidualSS, 1e-12)
	assert.Equal(t, 3.0, r.ResidualDF)
	assert.InDelta(t, 4.5, r.F, 1e-9)
	assert.InDelta(t, stats.FTest(4.5, 1, 3), r.P, 1e-12)
	assert.InDelta(t, math.Sqrt(4.5), p.T, 1e-9)
	assert.InDelta(t, r.P, p.P, 1e-9)
	// SE(b) = sqrt(MSres / Sxx).
	assert.InDelta(t, math.Sqrt(0.8/10), p.StdErr, 1e-12)
	assert.InDelta(t, 1, r.Covariance.At(1, 1)/2.5, 1e-12)
}

func TestInsufficientData(t *testing.T) {
	dt := &table.DataTable{Names: []string{"y"}, Rows: [][]float64{{1}, {2}, {3}}}
	r, err := Fit(dt, Options{Logger: quiet})
	assert.ErrorIs(t, err, stats.ErrInsufficientData)
	require.NotNil(t, r)
	assert.Equal(t, 2.0, r.Criterion.Mean)
	assert.InDelta(t, 1, r.Criterion.SD, 1e-12)

	dt = &table.DataTable{Names: []string{"y", "x"}, Rows: [][]float64{{1, 1}, {2, 3}}}
	r, err = Fit(dt, Options{Logger: quiet})
	assert.ErrorIs(t, err, stats.ErrInsufficientData)
	require.NotNil(t, r)
	assert.Empty(t, r.Predictors)

	dt = &table.DataTable{
		Names: []string{"y", "x1", "x2"},
		Rows:  [][]float64{{1, 1, 2}, {3, 2, 4}, {2, 3, 6}, {5, 4, 8}},
	}
	_, err = Fit(dt, Options{Logger: quiet})
	assert.ErrorIs(t, err, stats.ErrSingularMatrix)
}

func TestConstantColumn(t *testing.T) {
	dt := &table.DataTable{
		Names: []string{"y", "x1", "x2"},
		Rows:  [][]float64{{2, 1, 7}, {4, 2, 7}, {5, 3, 7}, {4, 4, 7}, {5, 5, 7}},
	}
	r, err := Fit(dt, Options{Logger: quiet})
	assert.ErrorIs(t, err, stats.ErrSingularMatrix)
	assert.ErrorContains(t, err, "x2")
	require.NotNil(t, r)
	assert.Empty(t, r.Predictors)
	assert.False(t, math.IsNaN(r.Criterion.Mean))

	dt = &table.DataTable{
		Names: []string{"y", "x"},
		Rows:  [][]float64{{3, 1}, {3, 2}, {3, 3}, {3, 4}},
	}
	r, err = Fit(dt, Options{Logger: quiet})
	assert.ErrorIs(t, err, stats.ErrDegenerateEffect)
	require.NotNil(t, r)
	assert.Equal(t, 3.0, r.Criterion.Mean)
	assert.Equal(t, 0.0, r.Criterion.SD)
	assert.Empty(t, r.Predictors)
}

func TestReport(t *testing.T) {
	dt := &table.DataTable{
		Names: []string{"y", "x"},
		Rows:  [][]float64{{2, 1}, {4, 2}, {5, 3}, {4, 4}, {5, 5}},
	}
	r, err := Fit(dt, Options{Logger: quiet})
	require.NoError(t, err)
	rep := report.New(report.PrintDefault | report.PrintRawTerms)
	r.Report(rep)
	var buf bytes.Buffer
	require.NoError(t, rep.WriteHTML(&buf))
	out := buf.String()
	assert.Contains(t, out, "Linear Regression of y")
	assert.Contains(t, out, "<caption>Coefficients</caption>")
	assert.Contains(t, out, "<td>(Intercept)</td><td>2.2</td>")
	assert.Contains(t, out, "<caption>Correlations</caption>")
}
