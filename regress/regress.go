// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regress performs ordinary multiple linear regression.
//
// The first column of the data table is the criterion and the
// remaining columns are the predictors. Regression weights are
// computed from the correlation matrix of the data.
package regress

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pxlab/pxstat/report"
	"github.com/pxlab/pxstat/stats"
	"github.com/pxlab/pxstat/table"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Options configure Fit.
type Options struct {
	// Logger receives diagnostics. If nil, slog.Default() is used.
	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// A Variable summarizes one column of the data.
type Variable struct {
	Name     string
	Mean, SD float64
}

// A Predictor holds the regression results of one predictor.
type Predictor struct {
	Variable

	// Correlation is the zero-order correlation with the criterion.
	Correlation float64
	// PartialCorrelation is the correlation with the criterion with
	// all other predictors partialled out.
	PartialCorrelation float64

	// B is the raw regression weight and Beta the standardized
	// weight.
	B, Beta float64
	// StdErr is the standard error of B.
	StdErr float64

	// T and P are the t statistic and two-tailed p-value of the test
	// of B against 0.
	T, P float64
}

// A Result holds the outcome of a regression.
type Result struct {
	Criterion Variable
	N         int

	// Covariance and Correlation hold the covariance and correlation
	// matrices of all columns, criterion first.
	Covariance, Correlation *mat.SymDense

	Predictors []Predictor
	Intercept  float64

	// Det is the determinant of the predictor correlation matrix.
	Det float64

	R, R2, AdjustedR2 float64
	// StdErr is the standard error of estimate.
	StdErr float64

	RegressionSS, ResidualSS float64
	RegressionDF, ResidualDF float64

	// F and P test R² against 0. For a perfect fit, F is +Inf and P
	// is 0.
	F, P float64
}

// Fit regresses the first column of dt on the others. Rows with
// missing values are dropped.
//
// If there are no predictors or no residual degrees of freedom, or
// the predictors are collinear or constant, Fit returns the
// descriptive part of the result together with an error wrapping
// stats.ErrInsufficientData or stats.ErrSingularMatrix. A constant
// criterion yields stats.ErrDegenerateEffect.
func Fit(dt *table.DataTable, opts Options) (*Result, error) {
	log := opts.logger()
	if dt.NumColumns() == 0 {
		return nil, fmt.Errorf("regression needs a criterion column: %w", stats.ErrInsufficientData)
	}
	dt, dropped := dt.Complete()
	if dropped > 0 {
		log.Warn("rows with missing values dropped", "rows", dropped)
	}
	n, m := dt.Len(), dt.NumColumns()
	if n < 2 {
		return nil, fmt.Errorf("regression needs at least 2 complete rows, got %d: %w", n, stats.ErrInsufficientData)
	}

	x := dt.Matrix()
	res := &Result{N: n, Covariance: &mat.SymDense{}, Correlation: &mat.SymDense{}}
	stat.CovarianceMatrix(res.Covariance, x, nil)
	stat.CorrelationMatrix(res.Correlation, x, nil)
	vars := make([]Variable, m)
	constant := make([]bool, m)
	for j := range vars {
		col := mat.Col(nil, j, x)
		vars[j] = Variable{Name: dt.Names[j], Mean: stat.Mean(col, nil), SD: math.Sqrt(res.Covariance.At(j, j))}
		scale := math.Max(math.Abs(floats.Max(col)), math.Abs(floats.Min(col)))
		constant[j] = !(vars[j].SD > 1e-10*scale)
	}
	res.Criterion = vars[0]

	p := m - 1
	res.RegressionDF = float64(p)
	res.ResidualDF = float64(n - p - 1)
	if p == 0 {
		return res, fmt.Errorf("no predictors: %w", stats.ErrInsufficientData)
	}
	if res.ResidualDF <= 0 {
		return res, fmt.Errorf("%d rows for %d predictors: %w", n, p, stats.ErrInsufficientData)
	}
	// A constant column has no defined correlations.
	if constant[0] {
		return res, fmt.Errorf("criterion %s is constant: %w", vars[0].Name, stats.ErrDegenerateEffect)
	}
	for j := 1; j < m; j++ {
		if constant[j] {
			return res, fmt.Errorf("predictor %s is constant: %w", vars[j].Name, stats.ErrSingularMatrix)
		}
	}

	// Invert the predictor correlations.
	rxx := make([][]float64, p)
	rxy := make([]float64, p)
	for i := range rxx {
		rxx[i] = make([]float64, p)
		for j := range rxx[i] {
			rxx[i][j] = res.Correlation.At(i+1, j+1)
		}
		rxy[i] = res.Correlation.At(i+1, 0)
	}
	det, err := Invert(rxx)
	if err != nil {
		return res, fmt.Errorf("predictor correlations: %w", err)
	}
	res.Det = det

	res.Predictors = make([]Predictor, p)
	beta := make([]float64, p)
	for i := range beta {
		beta[i] = floats.Dot(rxx[i], rxy)
	}
	res.R2 = floats.Dot(beta, rxy)
	res.R2 = math.Min(math.Max(res.R2, 0), 1)
	res.R = math.Sqrt(res.R2)
	res.AdjustedR2 = 1 - (1-res.R2)*float64(n-1)/res.ResidualDF

	sst := float64(n-1) * res.Criterion.SD * res.Criterion.SD
	res.RegressionSS = res.R2 * sst
	res.ResidualSS = math.Max(sst-res.RegressionSS, 0)
	perfect := res.ResidualSS <= 1e-10*sst
	if perfect {
		res.ResidualSS = 0
		res.F, res.P = inf, 0
	} else {
		res.F = (res.RegressionSS / res.RegressionDF) / (res.ResidualSS / res.ResidualDF)
		res.P = stats.FTest(res.F, res.RegressionDF, res.ResidualDF)
	}
	msr := res.ResidualSS / res.ResidualDF
	res.StdErr = math.Sqrt(msr)

	partial := partialCorrelations(res.Correlation, beta)
	tdist := stats.TDist{V: res.ResidualDF}
	res.Intercept = res.Criterion.Mean
	for i := range res.Predictors {
		v := vars[i+1]
		pr := &res.Predictors[i]
		pr.Variable = v
		pr.Correlation = rxy[i]
		pr.PartialCorrelation = partial[i]
		pr.Beta = beta[i]
		if v.SD > 0 {
			pr.B = beta[i] * res.Criterion.SD / v.SD
			// rxx[i][i] is the variance inflation factor of i.
			pr.StdErr = math.Sqrt(msr * rxx[i][i] / (float64(n-1) * v.SD * v.SD))
		}
		res.Intercept -= pr.B * v.Mean

		pr.T, pr.P = partialT(pr.PartialCorrelation, res.ResidualDF, tdist)
		if perfect && pr.B != 0 {
			pr.T, pr.P = math.Copysign(inf, pr.B), 0
		}
	}
	return res, nil
}

// partialCorrelations returns the partial correlation of each
// predictor with the criterion, computed from the inverse of the full
// correlation matrix corr. If corr is singular, the criterion is an
// exact linear function of the predictors and the partial
// correlations are ±1 according to the sign of beta.
func partialCorrelations(corr *mat.SymDense, beta []float64) []float64 {
	m := corr.SymmetricDim()
	a := make([][]float64, m)
	for i := range a {
		a[i] = make([]float64, m)
		for j := range a[i] {
			a[i][j] = corr.At(i, j)
		}
	}
	out := make([]float64, m-1)
	if _, err := Invert(a); err != nil {
		for i, b := range beta {
			if b != 0 {
				out[i] = math.Copysign(1, b)
			}
		}
		return out
	}
	for i := range out {
		d := a[0][0] * a[i+1][i+1]
		if d > 1e-10 {
			out[i] = -a[0][i+1] / math.Sqrt(d)
		}
	}
	return out
}

// partialT returns the t statistic of partial correlation r with df
// degrees of freedom and its two-tailed p-value.
func partialT(r, df float64, tdist stats.TDist) (t, p float64) {
	q := 1 - r*r
	if q <= 1e-10 {
		return math.Copysign(inf, r), 0
	}
	t = r * math.Sqrt(df/q)
	return t, tdist.TwoTailed(t)
}

// Report writes r to rep according to rep's flags.
func (r *Result) Report(rep *report.Report) {
	rep.Heading(1, "Linear Regression of %s", r.Criterion.Name)
	if rep.Enabled(report.PrintDescriptive) {
		tab := report.NewTable("Variables", "Variable", "Mean", "SD")
		tab.AddRow(r.Criterion.Name, r.Criterion.Mean, r.Criterion.SD)
		for _, p := range r.Predictors {
			tab.AddRow(p.Name, p.Mean, p.SD)
		}
		rep.AddTable(tab)
		rep.Printf("N = %d", r.N)
	}
	if rep.Enabled(report.PrintRawTerms) && r.Correlation != nil {
		m := r.Correlation.SymmetricDim()
		header := []string{""}
		names := []string{r.Criterion.Name}
		for _, p := range r.Predictors {
			names = append(names, p.Name)
		}
		header = append(header, names...)
		cov := report.NewTable("Covariances", header...)
		corr := report.NewTable("Correlations", header...)
		for i := 0; i < m && i < len(names); i++ {
			crow := []any{names[i]}
			rrow := []any{names[i]}
			for j := 0; j < m && j < len(names); j++ {
				crow = append(crow, r.Covariance.At(i, j))
				rrow = append(rrow, r.Correlation.At(i, j))
			}
			cov.AddRow(crow...)
			corr.AddRow(rrow...)
		}
		rep.AddTable(cov)
		rep.AddTable(corr)
		rep.Printf("Determinant of predictor correlations: %s", report.FormatCell(r.Det))
	}
	if !rep.Enabled(report.PrintResults) || len(r.Predictors) == 0 {
		return
	}
	rep.Printf("R = %s, R² = %s, adjusted R² = %s, standard error of estimate = %s",
		report.FormatCell(r.R), report.FormatCell(r.R2), report.FormatCell(r.AdjustedR2), report.FormatCell(r.StdErr))
	anova := report.NewTable("Analysis of Variance", "Source", "SS", "df", "MS", "F", "p")
	anova.AddRow("Regression", r.RegressionSS, r.RegressionDF, r.RegressionSS/r.RegressionDF, r.F, r.P)
	anova.AddRow("Residual", r.ResidualSS, r.ResidualDF, r.ResidualSS/r.ResidualDF, "", "")
	rep.AddTable(anova)

	coef := report.NewTable("Coefficients", "Predictor", "B", "SE", "Beta", "r", "Partial r", "t", "p")
	coef.AddRow("(Intercept)", r.Intercept, "", "", "", "", "", "")
	for _, p := range r.Predictors {
		coef.AddRow(p.Name, p.B, p.StdErr, p.Beta, p.Correlation, p.PartialCorrelation, p.T, p.P)
	}
	rep.AddTable(coef)
}

var inf = math.Inf(1)
