// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package learning fits learning curves to performance over trials.
//
// A learning curve starts at S on trial 1 and approaches the
// asymptote A at rate r:
//
//	Exponential  y(t) = A - (A - S)·exp(-r·(t-1))
//	Power        y(t) = A + (S - A)·t^(-r)
//
// The parameters are estimated by least squares with Praxis.
package learning

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/pxlab/pxstat/praxis"
	"github.com/pxlab/pxstat/report"
	"github.com/pxlab/pxstat/stats"
	"github.com/pxlab/pxstat/table"
	"golang.org/x/sync/errgroup"
)

// A Model is a learning curve model.
type Model int

const (
	Exponential Model = iota
	Power
)

var modelNames = []string{"exponential", "power"}

func (m Model) String() string {
	if m >= 0 && int(m) < len(modelNames) {
		return modelNames[m]
	}
	return fmt.Sprintf("Model(%d)", int(m))
}

// ParseModel parses a model name, ignoring case.
func ParseModel(s string) (Model, error) {
	for i, n := range modelNames {
		if strings.EqualFold(s, n) {
			return Model(i), nil
		}
	}
	return 0, fmt.Errorf("unknown learning model %q", s)
}

// Eval returns y(t) for asymptote a, start s and rate r.
func (m Model) Eval(t, a, s, r float64) float64 {
	if m == Power {
		return a + (s-a)*math.Pow(t, -r)
	}
	return a - (a-s)*math.Exp(-r*(t-1))
}

// Options configure the fits.
type Options struct {
	Model Model

	// Trial names the factor holding the trial numbers. If empty,
	// the last factor is used.
	Trial string

	// Groups names the factors whose level combinations are fitted
	// separately. All other factors are averaged over.
	Groups []string

	// Minimizer controls the minimization.
	Minimizer praxis.Praxis

	// Concurrency limits the number of groups fitted in parallel.
	// If zero, there is no limit.
	Concurrency int

	// Logger receives diagnostics. If nil, slog.Default() is used.
	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// A Point is the mean performance on one trial.
type Point struct {
	T, Y float64
	// N is the number of values averaged into Y.
	N int
}

// A Fit is a learning curve fitted to one group.
type Fit struct {
	Group string
	Model Model

	// Points holds the data in increasing order of T.
	Points []Point

	Asymptote, Start, Rate float64

	// SSE is the residual sum of squares and R2 the proportion of
	// variance accounted for. R2 is NaN if all Y are equal.
	SSE, R2 float64

	Evals     int
	Converged bool

	Err error
}

// Predict returns the fitted performance on trial t.
func (f *Fit) Predict(t float64) float64 {
	return f.Model.Eval(t, f.Asymptote, f.Start, f.Rate)
}

// A Result holds the fits of all groups.
type Result struct {
	Model Model
	// Trial is the name of the trial factor.
	Trial string
	Fits  []*Fit
}

// Estimate fits a learning curve to the mean performance per trial of
// every group of ft. Groups are fitted concurrently; failed fits are
// recorded in their Fit and logged.
func Estimate(ft *table.Factorial, opts Options) (*Result, error) {
	log := opts.logger()
	k := ft.NumFactors()
	td := k - 1
	if opts.Trial != "" {
		d, ok := ft.FactorIndex(opts.Trial)
		if !ok {
			return nil, fmt.Errorf("no trial factor %q: %w", opts.Trial, stats.ErrInvalidDesign)
		}
		td = d
	}
	ts, err := ft.NumericLevels(td)
	if err != nil {
		return nil, fmt.Errorf("trials: %v: %w", err, stats.ErrParse)
	}
	var gdims []int
	for _, name := range opts.Groups {
		d, ok := ft.FactorIndex(name)
		if !ok || d == td {
			return nil, fmt.Errorf("no group factor %q: %w", name, stats.ErrInvalidDesign)
		}
		gdims = append(gdims, d)
	}

	type group struct {
		label string
		sums  map[int]*Point
	}
	var groups []*group
	byKey := make(map[string]*group)
	ft.Each(func(idx []int, v float64) {
		gk := table.CellKey(idx, gdims)
		g := byKey[gk]
		if g == nil {
			var parts []string
			for _, d := range gdims {
				parts = append(parts, ft.FactorName(d)+"="+ft.LevelName(d, idx[d]))
			}
			g = &group{label: strings.Join(parts, " "), sums: make(map[int]*Point)}
			byKey[gk] = g
			groups = append(groups, g)
		}
		p := g.sums[idx[td]]
		if p == nil {
			p = &Point{T: ts[idx[td]]}
			g.sums[idx[td]] = p
		}
		p.Y += v
		p.N++
	})

	res := &Result{Model: opts.Model, Trial: ft.FactorName(td), Fits: make([]*Fit, len(groups))}
	var eg errgroup.Group
	if opts.Concurrency > 0 {
		eg.SetLimit(opts.Concurrency)
	}
	for i, g := range groups {
		i, g := i, g
		points := make([]Point, 0, len(g.sums))
		for _, p := range g.sums {
			points = append(points, Point{T: p.T, Y: p.Y / float64(p.N), N: p.N})
		}
		eg.Go(func() error {
			f := FitPoints(points, opts)
			f.Group = g.label
			res.Fits[i] = f
			return nil
		})
	}
	eg.Wait()
	for _, f := range res.Fits {
		if f.Err != nil {
			log.Warn("learning curve fit failed", "group", f.Group, "err", f.Err)
		}
	}
	return res, nil
}

// FitPoints fits a learning curve to points.
func FitPoints(points []Point, opts Options) *Fit {
	f := &Fit{Model: opts.Model, Points: append([]Point(nil), points...)}
	sort.Slice(f.Points, func(i, j int) bool { return f.Points[i].T < f.Points[j].T })
	if err := f.fit(opts); err != nil {
		f.Err = err
		f.Asymptote, f.Start, f.Rate, f.SSE, f.R2 = nan, nan, nan, nan, nan
	}
	return f
}

func (f *Fit) fit(opts Options) error {
	n := len(f.Points)
	if n < 3 {
		return fmt.Errorf("need at least 3 trials, got %d: %w", n, stats.ErrInsufficientData)
	}
	first, last := f.Points[0], f.Points[n-1]
	if f.Model == Power && first.T <= 0 {
		return fmt.Errorf("power law needs positive trial numbers, got %v: %w", first.T, stats.ErrInvalidDesign)
	}

	rate := 1.0
	if f.Model == Exponential && last.T > first.T {
		rate = 3 / (last.T - first.T)
	}
	x := []float64{last.Y, first.Y, rate}
	pr := opts.Minimizer
	if pr.Step == 0 {
		pr.Step = math.Max(math.Abs(last.Y-first.Y), 1)
	}
	if pr.Logger == nil {
		pr.Logger = opts.Logger
	}
	r := pr.Minimize(func(x []float64) float64 { return f.sse(x[0], x[1], x[2]) }, x)
	f.Asymptote, f.Start, f.Rate = x[0], x[1], x[2]
	f.Evals, f.Converged = r.Evals, r.Converged
	if math.IsNaN(r.F) || math.IsInf(r.F, 0) {
		return fmt.Errorf("no finite %s fit: %w", f.Model, stats.ErrDegenerateEffect)
	}

	f.SSE = f.sse(f.Asymptote, f.Start, f.Rate)
	mean := 0.0
	for _, p := range f.Points {
		mean += p.Y
	}
	mean /= float64(n)
	sst := 0.0
	for _, p := range f.Points {
		sst += (p.Y - mean) * (p.Y - mean)
	}
	f.R2 = nan
	if sst > 0 {
		f.R2 = 1 - f.SSE/sst
	}
	return nil
}

func (f *Fit) sse(a, s, r float64) float64 {
	sum := 0.0
	for _, p := range f.Points {
		d := p.Y - f.Model.Eval(p.T, a, s, r)
		sum += d * d
	}
	if math.IsNaN(sum) {
		return math.Inf(1)
	}
	return sum
}

// Report writes r to rep according to rep's flags. Trial means and
// fitted values go to the plot series "learning" as lines of trial,
// mean and prediction, with groups separated by blank lines.
func (r *Result) Report(rep *report.Report) {
	rep.Heading(1, "Learning Curve (%s)", r.Model)
	if rep.Enabled(report.PrintResults) {
		tab := report.NewTable("Parameters", "Group", "Asymptote", "Start", "Rate", "SSE", "R²")
		for _, f := range r.Fits {
			tab.AddRow(f.Group, f.Asymptote, f.Start, f.Rate, f.SSE, f.R2)
		}
		rep.AddTable(tab)
		for _, f := range r.Fits {
			if f.Err != nil {
				rep.Printf("%s: %v", f.Group, f.Err)
			} else if !f.Converged {
				rep.Printf("%s: minimization stopped after %d function evaluations", f.Group, f.Evals)
			}
		}
	}
	for i, f := range r.Fits {
		if rep.Enabled(report.PrintDescriptive) {
			caption := "Trial Means"
			if f.Group != "" {
				caption += " of " + f.Group
			}
			tab := report.NewTable(caption, r.Trial, "N", "Mean", "Predicted")
			for _, p := range f.Points {
				tab.AddRow(p.T, p.N, p.Y, f.Predict(p.T))
			}
			rep.AddTable(tab)
		}
		if f.Err != nil {
			continue
		}
		if i > 0 {
			rep.PlotText("learning", "")
		}
		for _, p := range f.Points {
			rep.Plot("learning", p.T, p.Y, f.Predict(p.T))
		}
	}
}

var nan = math.NaN()
