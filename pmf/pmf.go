// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pmf fits psychometric functions to binary response data.
//
// The probability of a "yes" response at stimulus intensity x is
// modeled as
//
//	Ψ(x) = γ + (1 - γ - λ)·F(x)
//
// where γ is the guessing rate, λ the lapsing rate and F a member of
// a Family. Parametric families are fitted by minimizing a Criterion
// with Praxis, starting from Berkson's weighted least squares
// estimates.
package pmf

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/pxlab/pxstat/isotonic"
	"github.com/pxlab/pxstat/praxis"
	"github.com/pxlab/pxstat/stats"
	"github.com/pxlab/pxstat/table"
	"golang.org/x/sync/errgroup"
)

// Options configure the fits. The zero value fits a logistic
// function by minimum chi-square with γ = λ = 0, counting responses
// coded "1" as "yes".
type Options struct {
	Family    Family
	Criterion Criterion

	// Yes is the response code of a "yes" response. All other codes
	// count as "no". If empty, "1" is used.
	Yes string

	// Guessing and Lapsing are the fixed rates γ and λ.
	Guessing, Lapsing float64

	// Params, if it holds two values, fixes the parameters a and b
	// of a parametric family; no fit is performed.
	Params []float64

	// Minimizer controls the minimization. If its Step is zero, half
	// the range of the stimulus intensities is used.
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

func (o *Options) yes() string {
	if o.Yes == "" {
		return "1"
	}
	return o.Yes
}

// A Point holds the responses at one stimulus intensity.
type Point struct {
	X float64
	// Yes is the number of "yes" responses out of N.
	Yes, N float64
}

// P returns the proportion of "yes" responses.
func (p Point) P() float64 {
	return p.Yes / p.N
}

// A Fit is a psychometric function fitted to the points of one
// group.
type Fit struct {
	// Group names the group, like "A=a1 B=b2". It is empty if the
	// data has no grouping factors.
	Group string

	Family    Family
	Criterion Criterion
	Guessing  float64
	Lapsing   float64

	// Points holds the data in increasing order of X.
	Points []Point

	// Initial holds Berkson's estimates of a and b.
	Initial [2]float64
	// A and B are the fitted parameters. For Isotonic fits they are
	// PSE and Spread.
	A, B float64

	// PSE is the intensity at which F is 1/2, and Spread the
	// semi-interquartile range of F.
	PSE, Spread float64

	// Fitted holds Ψ at each point.
	Fitted []float64

	// Loss is the value of the criterion at the fit.
	Loss float64
	// LogLikelihood is the binomial log-likelihood of the fit, and
	// Deviance twice its distance to the saturated model.
	LogLikelihood, Deviance float64

	// GOF is the chi-square goodness of fit test. It is nil if no
	// test category could be formed.
	GOF *GOF

	// Evals is the number of criterion evaluations, and Converged
	// reports whether the minimizer converged.
	Evals     int
	Converged bool

	Err error

	iso *isotonic.Regression
}

// Psi returns the fitted probability of a "yes" response at x.
func (f *Fit) Psi(x float64) float64 {
	return f.psiAt(x, f.A, f.B)
}

// A Result holds the fits of all groups.
type Result struct {
	Family    Family
	Criterion Criterion
	Fits      []*Fit

	// Responses holds the total frequency of every response code
	// over all groups and intensities.
	Responses []ResponseCount
}

// A ResponseCount is the frequency of one response code.
type ResponseCount struct {
	Response string
	N        float64
	// Yes is set for the code counted as a "yes" response.
	Yes bool
}

// Estimate fits a psychometric function to every group of ft.
//
// The last factor of ft is the response, the one before it the
// stimulus intensity, whose levels must be numbers. The remaining
// factors form groups that are fitted independently and concurrently.
// Failed fits are recorded in their Fit and logged.
func Estimate(ft *table.Frequency, opts Options) (*Result, error) {
	log := opts.logger()
	k := ft.NumFactors()
	if k < 2 {
		return nil, fmt.Errorf("need an intensity and a response factor: %w", stats.ErrInvalidDesign)
	}
	xd, rd := k-2, k-1
	xs, err := ft.NumericLevels(xd)
	if err != nil {
		return nil, fmt.Errorf("intensity: %v: %w", err, stats.ErrParse)
	}
	yes, ok := ft.LevelIndex(rd, opts.yes())
	if !ok {
		return nil, fmt.Errorf("no response coded %q in %s: %w", opts.yes(), ft.FactorName(rd), stats.ErrInvalidDesign)
	}

	gdims := make([]int, xd)
	for d := range gdims {
		gdims[d] = d
	}
	type group struct {
		label  string
		points map[int]*Point
	}
	var groups []*group
	byKey := make(map[string]*group)
	for _, key := range ft.Keys() {
		idx := ft.Index(key)
		gk := table.CellKey(idx, gdims)
		g := byKey[gk]
		if g == nil {
			var parts []string
			for _, d := range gdims {
				parts = append(parts, ft.FactorName(d)+"="+ft.LevelName(d, idx[d]))
			}
			g = &group{label: strings.Join(parts, " "), points: make(map[int]*Point)}
			byKey[gk] = g
			groups = append(groups, g)
		}
		pt := g.points[idx[xd]]
		if pt == nil {
			pt = &Point{X: xs[idx[xd]]}
			g.points[idx[xd]] = pt
		}
		n := ft.CountOf(key)
		pt.N += n
		if idx[rd] == yes {
			pt.Yes += n
		}
	}

	res := &Result{Family: opts.Family, Criterion: opts.Criterion, Fits: make([]*Fit, len(groups))}
	m := ft.Marginal(rd)
	for l, name := range m.LevelNames(0) {
		res.Responses = append(res.Responses, ResponseCount{Response: name, N: m.Count([]int{l}), Yes: l == yes})
	}
	var eg errgroup.Group
	if opts.Concurrency > 0 {
		eg.SetLimit(opts.Concurrency)
	}
	for i, g := range groups {
		i, g := i, g
		points := make([]Point, 0, len(g.points))
		for _, p := range g.points {
			points = append(points, *p)
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
			log.Warn("psychometric function fit failed", "group", f.Group, "err", f.Err)
		}
	}
	return res, nil
}

// FitPoints fits a psychometric function to points. Points with no
// trials are ignored.
func FitPoints(points []Point, opts Options) *Fit {
	f := &Fit{
		Family:    opts.Family,
		Criterion: opts.Criterion,
		Guessing:  opts.Guessing,
		Lapsing:   opts.Lapsing,
	}
	for _, p := range points {
		if p.N > 0 {
			f.Points = append(f.Points, p)
		}
	}
	sort.Slice(f.Points, func(i, j int) bool { return f.Points[i].X < f.Points[j].X })

	if err := f.fit(opts); err != nil {
		f.Err = err
		f.A, f.B, f.PSE, f.Spread, f.Loss = nan, nan, nan, nan, nan
		f.LogLikelihood, f.Deviance = nan, nan
		return f
	}
	f.Fitted = make([]float64, len(f.Points))
	for i, p := range f.Points {
		f.Fitted[i] = f.Psi(p.X)
	}
	f.Loss = f.loss(f.A, f.B)
	f.LogLikelihood, f.Deviance = likelihood(f.Points, f.Fitted)
	npar := 2
	if len(opts.Params) == 2 && f.Family != Isotonic {
		npar = 0
	}
	f.GOF = goodnessOfFit(f.Points, f.Fitted, npar)
	return f
}

func (f *Fit) fit(opts Options) error {
	g, l := f.Guessing, f.Lapsing
	if g < 0 || l < 0 || g+l >= 1 {
		return fmt.Errorf("guessing rate %v and lapsing rate %v must be non-negative and sum to less than 1: %w", g, l, stats.ErrInvalidDesign)
	}
	if len(f.Points) == 0 {
		return fmt.Errorf("no responses: %w", stats.ErrInsufficientData)
	}
	if f.Family == Isotonic {
		return f.fitIsotonic()
	}
	if len(f.Points) < 2 {
		return fmt.Errorf("need at least 2 stimulus levels, got 1: %w", stats.ErrInsufficientData)
	}
	if f.Family == Weibull && f.Points[0].X <= 0 {
		return fmt.Errorf("weibull function needs positive intensities, got %v: %w", f.Points[0].X, stats.ErrInvalidDesign)
	}

	if len(opts.Params) == 2 {
		f.A, f.B = opts.Params[0], opts.Params[1]
		if !f.Family.valid(f.A, f.B) {
			return fmt.Errorf("invalid %s parameters %v: %w", f.Family, opts.Params, stats.ErrInvalidDesign)
		}
		f.Initial = [2]float64{f.A, f.B}
		f.Converged = true
		f.setQuantiles()
		return nil
	}

	a, b := f.berkson()
	f.Initial = [2]float64{a, b}
	pr := opts.Minimizer
	if pr.Step == 0 {
		lo, hi := f.Points[0].X, f.Points[len(f.Points)-1].X
		pr.Step = math.Max((hi-lo)/2, 1e-3)
	}
	if pr.Logger == nil {
		pr.Logger = opts.Logger
	}
	x := []float64{a, b}
	r := pr.Minimize(func(x []float64) float64 { return f.loss(x[0], x[1]) }, x)
	f.A, f.B = x[0], x[1]
	f.Evals, f.Converged = r.Evals, r.Converged
	if !f.Family.valid(f.A, f.B) || math.IsNaN(r.F) {
		return fmt.Errorf("no valid %s fit: %w", f.Family, stats.ErrDegenerateEffect)
	}
	f.setQuantiles()
	return nil
}

func (f *Fit) setQuantiles() {
	f.PSE = f.Family.quantile(0.5, f.A, f.B)
	f.Spread = (f.Family.quantile(0.75, f.A, f.B) - f.Family.quantile(0.25, f.A, f.B)) / 2
}

// penalty is the criterion value of inadmissible parameters.
const penalty = 1e100

func (f *Fit) loss(a, b float64) float64 {
	if f.Family != Isotonic && !f.Family.valid(a, b) {
		return penalty
	}
	sum := 0.0
	for _, p := range f.Points {
		sum += f.Criterion.loss(p.Yes, p.N, f.psiAt(p.X, a, b))
	}
	return sum
}

func (f *Fit) psiAt(x, a, b float64) float64 {
	if f.iso != nil {
		return f.iso.ValueOf(x)
	}
	return f.Guessing + (1-f.Guessing-f.Lapsing)*f.Family.cdf(x, a, b)
}

// berkson returns the weighted least squares estimates of a and b
// from the linearized proportions. Berkson's adjustment (k+1/2)/(n+1)
// keeps proportions of 0 and 1 finite.
func (f *Fit) berkson() (a, b float64) {
	g, l := f.Guessing, f.Lapsing
	var sw, su, sz, suu, suz float64
	for _, p := range f.Points {
		q := ((p.Yes+0.5)/(p.N+1) - g) / (1 - g - l)
		lim := 0.5 / (p.N + 1)
		q = math.Min(math.Max(q, lim), 1-lim)
		z, w := f.Family.linearize(q, p.N)
		u := f.Family.abscissa(p.X)
		sw += w
		su += w * u
		sz += w * z
		suu += w * u * u
		suz += w * u * z
	}
	den := sw*suu - su*su
	if den > 1e-10*sw*suu {
		c1 := (sw*suz - su*sz) / den
		c0 := (sz - c1*su) / sw
		if c1 > 0 {
			a, b = f.Family.params(c0, c1)
			if f.Family.valid(a, b) {
				return a, b
			}
		}
	}
	// Flat or decreasing data: start in the middle of the range.
	lo, hi := f.Points[0].X, f.Points[len(f.Points)-1].X
	if f.Family == Weibull {
		return (lo + hi) / 2, 2
	}
	return (lo + hi) / 2, math.Max((hi-lo)/4, 1e-3)
}

func (f *Fit) fitIsotonic() error {
	n := len(f.Points)
	xs, ps, ws := make([]float64, n), make([]float64, n), make([]float64, n)
	for i, p := range f.Points {
		xs[i], ps[i], ws[i] = p.X, p.P(), p.N
	}
	iso, err := isotonic.Fit(xs, ps, ws)
	if err != nil {
		return err
	}
	f.iso = iso
	g, l := f.Guessing, f.Lapsing
	at := func(q float64) float64 { return iso.ArgumentFor(g + (1-g-l)*q) }
	f.PSE = at(0.5)
	f.Spread = (at(0.75) - at(0.25)) / 2
	f.A, f.B = f.PSE, f.Spread
	f.Initial = [2]float64{f.A, f.B}
	f.Converged = true
	return nil
}

// likelihood returns the binomial log-likelihood of points under the
// model probabilities psi and the deviance from the saturated model.
func likelihood(points []Point, psi []float64) (ll, dev float64) {
	for i, p := range points {
		q := clampProb(psi[i])
		if isInt(p.Yes) && isInt(p.N) {
			ll += stats.BinomialDist{N: int(p.N), P: q}.LogPMF(p.Yes)
		} else {
			ll += p.Yes*math.Log(q) + (p.N-p.Yes)*math.Log1p(-q)
		}
		if p.Yes > 0 {
			dev += p.Yes * math.Log(p.Yes/(p.N*q))
		}
		if no := p.N - p.Yes; no > 0 {
			dev += no * math.Log(no/(p.N*(1-q)))
		}
	}
	return ll, 2 * dev
}

func isInt(x float64) bool {
	return x == math.Trunc(x) && x >= 0 && x < 1<<31
}

var nan = math.NaN()
