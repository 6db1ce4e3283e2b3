// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pmf

import (
	"bytes"
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

func mustFrequency(t *testing.T, src string) *table.Frequency {
	t.Helper()
	st, err := table.ReadStringTable(strings.NewReader(src), table.ReadOptions{Header: true})
	require.NoError(t, err)
	ft, err := table.NewFrequency(st, table.FrequencyOptions{
		ParseOptions: table.ParseOptions{Strict: true, Logger: quiet},
		Weighted:     true,
	})
	require.NoError(t, err)
	return ft
}

// exactPoints returns points whose proportions lie on Ψ.
func exactPoints(f Family, a, b, g, l float64, xs ...float64) []Point {
	var pts []Point
	for _, x := range xs {
		psi := g + (1-g-l)*f.cdf(x, a, b)
		pts = append(pts, Point{X: x, Yes: 100 * psi, N: 100})
	}
	return pts
}

func TestTwoLevels(t *testing.T) {
	ft := mustFrequency(t, `x r n
1 0 8
1 1 2
5 0 2
5 1 8
`)
	r, err := Estimate(ft, Options{Logger: quiet})
	require.NoError(t, err)
	require.Len(t, r.Fits, 1)
	f := r.Fits[0]
	require.NoError(t, f.Err)
	assert.Equal(t, "", f.Group)
	assert.InDelta(t, 3, f.A, 1e-3)
	assert.InDelta(t, 2/math.Log(4), f.B, 1e-3)
	assert.InDelta(t, 3, f.PSE, 1e-3)
	assert.InDelta(t, 3, f.Initial[0], 1e-9)
	assert.Less(t, f.Psi(1), f.Psi(3))
	assert.Less(t, f.Psi(3), f.Psi(5))
	require.Len(t, f.Fitted, 2)
	assert.InDelta(t, 0.2, f.Fitted[0], 1e-3)

	require.NotNil(t, f.GOF)
	assert.Equal(t, 2, f.GOF.Categories)
	assert.Equal(t, 0.0, f.GOF.DF)
	assert.False(t, f.GOF.HasP)
	assert.GreaterOrEqual(t, f.GOF.ChiSquare, 0.0)
	assert.Less(t, f.GOF.ChiSquare, 1e-6)

	// LogLikelihood at the saturated fit.
	want := stats.BinomialDist{N: 10, P: 0.2}.LogPMF(2) + stats.BinomialDist{N: 10, P: 0.8}.LogPMF(8)
	assert.InDelta(t, want, f.LogLikelihood, 1e-4)
	assert.InDelta(t, 0, f.Deviance, 1e-4)
}

func TestRecovery(t *testing.T) {
	for _, tc := range []struct {
		family Family
		a, b   float64
		g, l   float64
		xs     []float64
	}{
		{Logistic, 10, 2, 0, 0, []float64{4, 6, 8, 10, 12, 14, 16}},
		{Logistic, 10, 2, 0.5, 0.02, []float64{4, 6, 8, 10, 12, 14, 16}},
		{Weibull, 2, 3, 0, 0, []float64{0.5, 1, 1.5, 2, 2.5, 3, 3.5}},
		{Gumbel, 1, 0.5, 0, 0, []float64{-1, -0.5, 0, 0.5, 1, 1.5, 2}},
	} {
		for _, crit := range []Criterion{ChiSquare, LogLikelihood} {
			pts := exactPoints(tc.family, tc.a, tc.b, tc.g, tc.l, tc.xs...)
			f := FitPoints(pts, Options{
				Family:    tc.family,
				Criterion: crit,
				Guessing:  tc.g,
				Lapsing:   tc.l,
				Logger:    quiet,
			})
			name := tc.family.String() + "/" + crit.String()
			require.NoError(t, f.Err, name)
			assert.InDelta(t, tc.a, f.A, 1e-3, name)
			assert.InDelta(t, tc.b, f.B, 1e-3, name)
			assert.InDelta(t, tc.family.quantile(0.5, tc.a, tc.b), f.PSE, 1e-3, name)
		}
	}

	// Squared logits of Berkson-adjusted proportions are biased but
	// close.
	pts := exactPoints(Logistic, 10, 2, 0, 0, 4, 6, 8, 10, 12, 14, 16)
	f := FitPoints(pts, Options{Criterion: SquaredLogit, Logger: quiet})
	require.NoError(t, f.Err)
	assert.InDelta(t, 10, f.A, 0.1)
	assert.InDelta(t, 2, f.B, 0.2)
}

func TestQuantiles(t *testing.T) {
	assert.InDelta(t, 2*math.Pow(math.Ln2, 1.0/3), Weibull.quantile(0.5, 2, 3), 1e-12)
	assert.InDelta(t, 1+0.5*math.Log(math.Ln2), Gumbel.quantile(0.5, 1, 0.5), 1e-12)
	for _, f := range []Family{Logistic, Weibull, Gumbel} {
		for _, q := range []float64{0.1, 0.5, 0.9} {
			x := f.quantile(q, 2, 3)
			assert.InDelta(t, q, f.cdf(x, 2, 3), 1e-12, "%v(%v)", f, q)
		}
	}
}

func TestIsotonic(t *testing.T) {
	pts := []Point{{1, 1, 10}, {2, 4, 10}, {3, 3, 10}, {4, 9, 10}}
	f := FitPoints(pts, Options{Family: Isotonic, Logger: quiet})
	require.NoError(t, f.Err)
	assert.Equal(t, []float64{0.1, 0.35, 0.35, 0.9}, roundAll(f.Fitted))
	assert.InDelta(t, 3+0.15/0.55, f.PSE, 1e-12)
	assert.InDelta(t, ((3+0.4/0.55)-(1+0.15/0.25))/2, f.Spread, 1e-12)
	assert.Equal(t, f.PSE, f.A)
}

func roundAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Round(x*1e9) / 1e9
	}
	return out
}

func TestGroups(t *testing.T) {
	ft := mustFrequency(t, `G x r n
g1 1 n 8
g1 1 y 2
g1 5 n 2
g1 5 y 8
g2 2 n 9
g2 2 y 1
g2 4 n 1
g2 4 y 9
`)
	r, err := Estimate(ft, Options{Yes: "y", Concurrency: 1, Logger: quiet})
	require.NoError(t, err)
	require.Len(t, r.Fits, 2)
	assert.Equal(t, "G=g1", r.Fits[0].Group)
	assert.Equal(t, "G=g2", r.Fits[1].Group)
	require.NoError(t, r.Fits[0].Err)
	require.NoError(t, r.Fits[1].Err)
	assert.InDelta(t, 3, r.Fits[0].PSE, 1e-3)
	assert.InDelta(t, 3, r.Fits[1].PSE, 1e-3)
	assert.Less(t, r.Fits[1].B, r.Fits[0].B)
	// Levels of x that do not occur in a group are not points.
	assert.Len(t, r.Fits[0].Points, 2)
	assert.Equal(t, []ResponseCount{{"n", 20, false}, {"y", 20, true}}, r.Responses)

	_, err = Estimate(ft, Options{Yes: "1", Logger: quiet})
	assert.ErrorIs(t, err, stats.ErrInvalidDesign)
}

func TestFitErrors(t *testing.T) {
	f := FitPoints([]Point{{1, 2, 10}, {2, 5, 10}}, Options{Guessing: 0.5, Lapsing: 0.5, Logger: quiet})
	assert.ErrorIs(t, f.Err, stats.ErrInvalidDesign)
	assert.True(t, math.IsNaN(f.PSE))

	f = FitPoints([]Point{{1, 2, 10}, {2, 0, 0}}, Options{Logger: quiet})
	assert.ErrorIs(t, f.Err, stats.ErrInsufficientData)

	f = FitPoints([]Point{{0, 2, 10}, {2, 5, 10}}, Options{Family: Weibull, Logger: quiet})
	assert.ErrorIs(t, f.Err, stats.ErrInvalidDesign)

	f = FitPoints([]Point{{1, 2, 10}, {2, 5, 10}}, Options{Params: []float64{1, -1}, Logger: quiet})
	assert.ErrorIs(t, f.Err, stats.ErrInvalidDesign)

	ft := mustFrequency(t, "x r n\na 0 1\nb 1 1\n")
	_, err := Estimate(ft, Options{Logger: quiet})
	assert.ErrorIs(t, err, stats.ErrParse)
}

func TestFixedParams(t *testing.T) {
	pts := exactPoints(Logistic, 3, 1, 0, 0, 0, 1, 2, 3, 4, 5, 6)
	f := FitPoints(pts, Options{Params: []float64{3, 1}, Logger: quiet})
	require.NoError(t, f.Err)
	assert.Equal(t, 3.0, f.A)
	assert.Equal(t, 1.0, f.B)
	assert.Equal(t, 0, f.Evals)
	require.NotNil(t, f.GOF)
	assert.Equal(t, float64(f.GOF.Categories), f.GOF.DF)
	assert.True(t, f.GOF.HasP)
	assert.InDelta(t, 0, f.GOF.ChiSquare, 1e-9)
	assert.InDelta(t, 1, f.GOF.P, 1e-9)
}

func TestGoodnessOfFit(t *testing.T) {
	// Too few trials for any category.
	assert.Nil(t, goodnessOfFit([]Point{{1, 0, 2}, {2, 1, 2}}, []float64{0.2, 0.5}, 2))

	// Expected (yes, no) are (1, 9), then (1.5, 3.5) which stays open
	// until (5, 5) is added. The trailing level joins the last
	// category.
	pts := []Point{{1, 2, 10}, {2, 1, 5}, {3, 5, 10}, {4, 1, 1}}
	psi := []float64{0.1, 0.3, 0.5, 0.9}
	g := goodnessOfFit(pts, psi, 0)
	require.NotNil(t, g)
	assert.Equal(t, 2, g.Categories)
	want := sq(2-1)/1 + sq(8-9)/9 + sq(7-7.4)/7.4 + sq(9-8.6)/8.6
	assert.InDelta(t, want, g.ChiSquare, 1e-12)
	assert.True(t, g.HasP)
	assert.InDelta(t, stats.ChiSquareDist{DF: 2}.Survival(want), g.P, 1e-12)
}

func sq(x float64) float64 { return x * x }

func TestParse(t *testing.T) {
	f, err := ParseFamily("Weibull")
	require.NoError(t, err)
	assert.Equal(t, Weibull, f)
	_, err = ParseFamily("probit")
	assert.Error(t, err)

	for s, want := range map[string]Criterion{
		"chi_square":     ChiSquare,
		"LogLikelihood":  LogLikelihood,
		"squared-logit":  SquaredLogit,
		"ml":             LogLikelihood,
		"chi2":           ChiSquare,
		"squared_logit ": -1,
	} {
		c, err := ParseCriterion(s)
		if want < 0 {
			assert.Error(t, err, s)
			continue
		}
		require.NoError(t, err, s)
		assert.Equal(t, want, c, s)
	}
}

func TestReport(t *testing.T) {
	ft := mustFrequency(t, "x r n\n1 0 8\n1 1 2\n5 0 2\n5 1 8\n")
	r, err := Estimate(ft, Options{Logger: quiet})
	require.NoError(t, err)
	rep := report.New(report.PrintDefault | report.PrintDetailed)
	r.Report(rep)
	assert.Equal(t, []string{"data", "fit"}, rep.SeriesNames())
	assert.Equal(t, []string{"1 0.2", "5 0.8"}, rep.Series("data").Lines)
	assert.Len(t, rep.Series("fit").Lines, fitSteps+1)
	fit := rep.Series("fit").Lines
	assert.True(t, strings.HasPrefix(fit[0], "1 "), fit[0])
	assert.True(t, strings.HasPrefix(fit[fitSteps], "5 "), fit[fitSteps])

	var buf bytes.Buffer
	require.NoError(t, rep.WriteHTML(&buf))
	assert.Contains(t, buf.String(), "<tr><td>1 (yes)</td><td>10</td><td>0.5</td></tr>")
}
