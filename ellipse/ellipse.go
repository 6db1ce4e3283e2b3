// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ellipse estimates the ellipse that best describes a set of
// points in the plane, such as color matching or discrimination
// ellipses.
package ellipse

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pxlab/pxstat/praxis"
	"github.com/pxlab/pxstat/report"
	"github.com/pxlab/pxstat/stats"
	"github.com/pxlab/pxstat/table"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// An Ellipse has center (CX, CY), semi-major axis A, semi-minor axis
// B and the angle of its major axis to the x axis, in radians in
// [0, π).
type Ellipse struct {
	CX, CY float64
	A, B   float64
	Angle  float64
}

// Radius returns the normalized elliptical radius of (x, y), which is
// 1 on the ellipse, less than 1 inside and greater than 1 outside.
func (e Ellipse) Radius(x, y float64) float64 {
	return radius(x, y, e.CX, e.CY, e.A, e.B, e.Angle)
}

// Point returns the point of e at eccentric anomaly phi.
func (e Ellipse) Point(phi float64) (x, y float64) {
	s, c := math.Sincos(e.Angle)
	u, v := e.A*math.Cos(phi), e.B*math.Sin(phi)
	return e.CX + u*c - v*s, e.CY + u*s + v*c
}

func radius(x, y, cx, cy, a, b, angle float64) float64 {
	s, c := math.Sincos(angle)
	dx, dy := x-cx, y-cy
	u := (dx*c + dy*s) / a
	v := (-dx*s + dy*c) / b
	return math.Hypot(u, v)
}

// normalize makes A the major axis and brings Angle into [0, π).
func (e Ellipse) normalize() Ellipse {
	if e.B > e.A {
		e.A, e.B = e.B, e.A
		e.Angle += math.Pi / 2
	}
	e.Angle = math.Mod(e.Angle, math.Pi)
	if e.Angle < 0 {
		e.Angle += math.Pi
	}
	return e
}

// Options configure Estimate.
type Options struct {
	// Minimizer controls the refinement of the initial estimate. If
	// its Step is zero, the initial semi-major axis is used.
	Minimizer praxis.Praxis

	// Logger receives diagnostics. If nil, slog.Default() is used.
	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// A Result is an estimated ellipse.
type Result struct {
	Ellipse

	// Initial is the estimate from the covariance of the points.
	Initial Ellipse

	// X and Y hold the points.
	X, Y []float64

	// SS is Σ(r_i - 1)² of the normalized radii r_i of the points.
	SS float64

	Evals     int
	Converged bool
}

// minPoints is the number of ellipse parameters.
const minPoints = 5

// Estimate estimates the ellipse through the points (xs[i], ys[i]).
//
// The initial estimate takes the center from the mean and the axes
// from the eigen decomposition of the covariance matrix, assuming the
// points are spread evenly around the ellipse. It is refined by
// minimizing Σ(r_i - 1)².
func Estimate(xs, ys []float64, opts Options) (*Result, error) {
	n := len(xs)
	if n != len(ys) {
		return nil, fmt.Errorf("%d x values but %d y values: %w", n, len(ys), stats.ErrInvalidDesign)
	}
	if n < minPoints {
		return nil, fmt.Errorf("need at least %d points, got %d: %w", minPoints, n, stats.ErrInsufficientData)
	}
	res := &Result{X: xs, Y: ys}

	data := mat.NewDense(n, 2, nil)
	for i := range xs {
		data.Set(i, 0, xs[i])
		data.Set(i, 1, ys[i])
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)
	var eig mat.EigenSym
	if !eig.Factorize(&cov, true) {
		return nil, fmt.Errorf("eigen decomposition of the covariance failed: %w", stats.ErrSingularMatrix)
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	// Points spread evenly on an ellipse have variance a²/2 along
	// the major and b²/2 along the minor axis.
	scale := 2 * float64(n-1) / float64(n)
	if vals[0] <= 1e-10*vals[1] {
		return nil, fmt.Errorf("points are collinear: %w", stats.ErrSingularMatrix)
	}
	res.Initial = Ellipse{
		CX:    stat.Mean(xs, nil),
		CY:    stat.Mean(ys, nil),
		A:     math.Sqrt(scale * vals[1]),
		B:     math.Sqrt(scale * vals[0]),
		Angle: math.Atan2(vecs.At(1, 1), vecs.At(0, 1)),
	}.normalize()

	loss := func(p []float64) float64 {
		if !(p[2] > 0 && p[3] > 0) {
			return penalty
		}
		sum := 0.0
		for i := range xs {
			d := radius(xs[i], ys[i], p[0], p[1], p[2], p[3], p[4]) - 1
			sum += d * d
		}
		return sum
	}
	in := res.Initial
	p := []float64{in.CX, in.CY, in.A, in.B, in.Angle}
	pr := opts.Minimizer
	if pr.Step == 0 {
		pr.Step = in.A
	}
	if pr.Logger == nil {
		pr.Logger = opts.Logger
	}
	r := pr.Minimize(loss, p)
	res.Evals, res.Converged = r.Evals, r.Converged
	if !(p[2] > 0 && p[3] > 0) {
		return nil, fmt.Errorf("no valid ellipse: %w", stats.ErrDegenerateEffect)
	}
	res.Ellipse = Ellipse{CX: p[0], CY: p[1], A: p[2], B: p[3], Angle: p[4]}.normalize()
	res.SS = loss(p)
	if !res.Converged {
		opts.logger().Warn("ellipse refinement did not converge", "evals", res.Evals)
	}
	return res, nil
}

// EstimateTable estimates the ellipse through the points given by the
// first two columns of dt. Rows with missing values are dropped.
func EstimateTable(dt *table.DataTable, opts Options) (*Result, error) {
	if dt.NumColumns() < 2 {
		return nil, fmt.Errorf("need x and y columns, got %d columns: %w", dt.NumColumns(), stats.ErrInvalidDesign)
	}
	dt, dropped := dt.Complete()
	if dropped > 0 {
		opts.logger().Warn("rows with missing values dropped", "rows", dropped)
	}
	return Estimate(dt.Column(0), dt.Column(1), opts)
}

const penalty = 1e100

// curveSteps is the number of segments of the "ellipse" plot series.
const curveSteps = 72

// Report writes r to rep according to rep's flags. The points go to
// the plot series "points" and a closed outline of the ellipse to
// "ellipse".
func (r *Result) Report(rep *report.Report) {
	rep.Heading(1, "Ellipse Estimation")
	if rep.Enabled(report.PrintDescriptive) {
		rep.Printf("N = %d", len(r.X))
	}
	if rep.Enabled(report.PrintResults) {
		tab := report.NewTable("Ellipse", "Parameter", "Estimate")
		if rep.Enabled(report.PrintDetailed) {
			tab.Header = append(tab.Header, "Initial")
		}
		add := func(name string, v, init float64) {
			if rep.Enabled(report.PrintDetailed) {
				tab.AddRow(name, v, init)
			} else {
				tab.AddRow(name, v)
			}
		}
		deg := 180 / math.Pi
		add("Center x", r.CX, r.Initial.CX)
		add("Center y", r.CY, r.Initial.CY)
		add("Semi-major axis", r.A, r.Initial.A)
		add("Semi-minor axis", r.B, r.Initial.B)
		add("Orientation (deg)", r.Angle*deg, r.Initial.Angle*deg)
		rep.AddTable(tab)
		rep.Printf("Σ(r-1)² = %s after %d function evaluations", report.FormatCell(r.SS), r.Evals)
	}
	for i := range r.X {
		rep.Plot("points", r.X[i], r.Y[i])
	}
	for j := 0; j <= curveSteps; j++ {
		x, y := r.Point(2 * math.Pi * float64(j) / curveSteps)
		rep.Plot("ellipse", x, y)
	}
}
