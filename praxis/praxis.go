// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package praxis minimizes functions of several variables without
// derivatives.
//
// Praxis is R. P. Brent's modification of Powell's conjugate
// direction method, as described in "Algorithms for Minimization
// without Derivatives" (Prentice-Hall, 1973). It performs line
// searches along a set of directions that is periodically replaced by
// the principal axes of an approximating quadratic form.
package praxis

import (
	"log/slog"
	"math"
	"math/rand"
)

// A Func is a function of len(x) variables. It must not modify x.
type Func func(x []float64) float64

// Praxis holds the control parameters of the minimizer. The zero
// value is ready to use. A Praxis may be shared by concurrent
// Minimize calls; each call uses its own working state.
type Praxis struct {
	// Tolerance is the accuracy the minimum is located with, in
	// the sense that the minimum is expected within
	// sqrt(machep)*|x| + Tolerance of the returned point. If zero,
	// 1e-5 is used.
	Tolerance float64

	// Step is the maximum step size; it should be about the
	// expected distance from the starting point to the minimum.
	// If zero, 1 is used.
	Step float64

	// Scaling is an upper bound for the factors used to rescale
	// the axes. Values above 1 enable scaling, which helps if the
	// variables are scaled very differently. Values up to 10 are
	// reasonable; 1 or 0 disables scaling.
	Scaling float64

	// IllConditioned starts the search with random steps off the
	// line search directions. It is enabled automatically once the
	// problem turns out to be ill-conditioned.
	IllConditioned bool

	// Cautiousness is the number of iterations without significant
	// improvement tolerated before giving up. Values from 1 to 4
	// are reasonable. If zero, 1 is used.
	Cautiousness int

	// MaxFun limits the number of function evaluations. Once it is
	// reached, f is not called again and the best point found so far
	// is returned. Zero means no limit.
	MaxFun int

	// Trace controls progress logging: 1 logs the result, 2 also
	// every iteration and 3 also the principal axes.
	Trace int

	// Seed seeds the random steps taken for ill-conditioned
	// problems.
	Seed int64

	// Logger receives trace output. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Result summarizes a minimization.
type Result struct {
	// F is the minimal function value found.
	F float64

	// Evals is the number of function evaluations.
	Evals int

	// LineSearches is the number of line searches.
	LineSearches int

	// Iterations is the number of passes of the main loop.
	Iterations int

	// Converged is false if the search stopped because MaxFun was
	// reached.
	Converged bool
}

const machep = 0x1p-52

func (p *Praxis) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// Minimize minimizes f starting at x. On return x holds the best
// point found.
func (p *Praxis) Minimize(f Func, x []float64) Result {
	n := len(x)
	if n == 0 {
		return Result{F: f(x), Evals: 1, Converged: true}
	}
	s := newSession(p, f, x)
	if n == 1 {
		s.minimize1()
	} else {
		s.run()
	}
	res := Result{
		F:            s.fx,
		Evals:        s.nf,
		LineSearches: s.nl,
		Iterations:   s.iter,
		Converged:    !s.exhausted,
	}
	if p.Trace > 0 {
		p.logger().Info("praxis done",
			slog.Float64("f", res.F), slog.Int("evals", res.Evals),
			slog.Int("lineSearches", res.LineSearches), slog.Bool("converged", res.Converged),
			slog.Any("x", x))
	}
	return res
}

// A session holds the working state of one Minimize call.
type session struct {
	p   *Praxis
	f   Func
	n   int
	rng *rand.Rand

	x  []float64   // current point, the caller's slice
	v  [][]float64 // search directions as columns
	d  []float64   // second differences along v
	q0 []float64   // previous two points for quadratic extrapolation
	q1 []float64
	z  []float64
	xt []float64 // scratch point for line evaluations

	fx, qf1, qd0, qd1 float64
	t, h, t2, ldt     float64
	dmin              float64
	illc              bool
	ktm, kt           int
	nf, nl, iter      int
	exhausted         bool
	scbd              float64

	small, vsmall, large, vlarge, m2, m4 float64
}

func newSession(p *Praxis, f Func, x []float64) *session {
	n := len(x)
	s := &session{
		p:    p,
		f:    f,
		n:    n,
		rng:  rand.New(rand.NewSource(p.Seed)),
		x:    x,
		d:    make([]float64, n),
		q0:   make([]float64, n),
		q1:   make([]float64, n),
		z:    make([]float64, n),
		xt:   make([]float64, n),
		illc: p.IllConditioned,
		ktm:  p.Cautiousness,
		scbd: p.Scaling,
		t:    p.Tolerance,
		h:    p.Step,
	}
	if s.t <= 0 {
		s.t = 1e-5
	}
	if s.h <= 0 {
		s.h = 1
	}
	if s.ktm <= 0 {
		s.ktm = 1
	}
	s.v = make([][]float64, n)
	for i := range s.v {
		s.v[i] = make([]float64, n)
		s.v[i][i] = 1
	}
	s.small = machep * machep
	s.vsmall = s.small * s.small
	s.large = 1 / s.small
	s.vlarge = 1 / s.vsmall
	s.m2 = math.Sqrt(machep)
	s.m4 = math.Sqrt(s.m2)
	return s
}

// eval returns f(x), or +Inf without calling f once the budget is
// used up. An infinite value is never accepted as an improvement.
func (s *session) eval(x []float64) float64 {
	if s.p.MaxFun > 0 && s.nf >= s.p.MaxFun {
		s.exhausted = true
		return math.Inf(1)
	}
	s.nf++
	return s.f(x)
}

// limitReached reports whether the function evaluation budget is
// used up.
func (s *session) limitReached() bool {
	if s.p.MaxFun > 0 && s.nf >= s.p.MaxFun {
		s.exhausted = true
		return true
	}
	return false
}

// minimize1 handles the one-dimensional case with Brent's localmin on
// an interval of radius Step around the current point, moving the
// interval while the minimum lies on its boundary.
func (s *session) minimize1() {
	g := func(u float64) float64 {
		s.xt[0] = u
		return s.eval(s.xt)
	}
	s.fx = s.eval(s.x)
	for {
		s.iter++
		x0 := s.x[0]
		xm, fm := localmin(g, x0-s.h, x0+s.h, s.t, s.m2)
		s.nl++
		if fm >= s.fx {
			return
		}
		s.x[0], s.fx = xm, fm
		if math.Abs(xm-x0) < 0.99*s.h || s.limitReached() {
			return
		}
	}
}

func (s *session) run() {
	n := s.n
	ldfac := 0.01
	if s.illc {
		ldfac = 0.1
	}
	s.fx = s.eval(s.x)
	s.qf1 = s.fx
	s.t2 = s.small + math.Abs(s.t)
	s.t = s.t2
	s.dmin = s.small
	if s.h < 100*s.t {
		s.h = 100 * s.t
	}
	s.ldt = s.h
	copy(s.q1, s.x)
	y := make([]float64, n)
	log := s.p.logger()

	for {
		s.iter++
		sf := s.d[0]
		s.d[0] = 0
		step := 0.0

		// Minimize along the first direction.
		s.lineMin(0, 2, &s.d[0], &step, s.fx, false)
		if step <= 0 {
			for i := 0; i < n; i++ {
				s.v[i][0] = -s.v[i][0]
			}
		}
		if sf <= 0.9*s.d[0] || 0.9*sf >= s.d[0] {
			for i := 1; i < n; i++ {
				s.d[i] = 0
			}
		}

		for k := 1; k < n; k++ {
			copy(y, s.x)
			sf = s.fx
			if s.kt > 0 {
				s.illc = true
			}
			var kl int
			for {
				kl = k
				df := 0.0
				if s.illc && !s.limitReached() {
					// Take a random step to get off a resolution
					// valley.
					for i := 0; i < n; i++ {
						s.z[i] = (0.1*s.ldt + s.t2*math.Pow(10, float64(s.kt))) * (s.rng.Float64() - 0.5)
						zi := s.z[i]
						for j := 0; j < n; j++ {
							s.x[j] += zi * s.v[j][i]
						}
					}
					s.fx = s.eval(s.x)
				}
				// Minimize along the non-conjugate directions.
				for k2 := k; k2 < n; k2++ {
					sl := s.fx
					step = 0
					s.lineMin(k2, 2, &s.d[k2], &step, s.fx, false)
					var gain float64
					if s.illc {
						sz := step + s.z[k2]
						gain = s.d[k2] * sz * sz
					} else {
						gain = sl - s.fx
					}
					if df < gain {
						df = gain
						kl = k2
					}
				}
				if !s.illc && df < math.Abs(100*machep*s.fx) {
					s.illc = true
					continue
				}
				break
			}

			// Minimize along the conjugate directions.
			for k2 := 0; k2 < k; k2++ {
				step = 0
				s.lineMin(k2, 2, &s.d[k2], &step, s.fx, false)
			}

			f1 := s.fx
			s.fx = sf
			lds := 0.0
			for i := 0; i < n; i++ {
				sl := s.x[i]
				s.x[i] = y[i]
				y[i] = sl - y[i]
				lds += y[i] * y[i]
			}
			lds = math.Sqrt(lds)
			if lds > s.small {
				// Discard direction kl and make the overall step
				// direction k.
				for i := kl - 1; i >= k; i-- {
					for j := 0; j < n; j++ {
						s.v[j][i+1] = s.v[j][i]
					}
					s.d[i+1] = s.d[i]
				}
				s.d[k] = 0
				for i := 0; i < n; i++ {
					s.v[i][k] = y[i] / lds
				}
				s.lineMin(k, 4, &s.d[k], &lds, f1, true)
				if lds <= 0 {
					lds = -lds
					for i := 0; i < n; i++ {
						s.v[i][k] = -s.v[i][k]
					}
				}
			}
			s.ldt *= ldfac
			if s.ldt < lds {
				s.ldt = lds
			}
			if s.p.Trace > 1 {
				log.Info("praxis iteration",
					slog.Int("iter", s.iter), slog.Int("evals", s.nf),
					slog.Float64("f", s.fx), slog.Any("x", s.x))
			}
			t2 := 0.0
			for i := 0; i < n; i++ {
				t2 += s.x[i] * s.x[i]
			}
			s.t2 = s.m2*math.Sqrt(t2) + s.t
			if s.ldt > 0.5*s.t2 {
				s.kt = 0
			} else {
				s.kt++
			}
			if s.kt > s.ktm || s.limitReached() {
				return
			}
		}

		// Try quadratic extrapolation in case we are stuck in a
		// curved valley.
		s.quad()

		dn := 0.0
		for i := 0; i < n; i++ {
			s.d[i] = 1 / math.Sqrt(s.d[i])
			if dn < s.d[i] {
				dn = s.d[i]
			}
		}
		for j := 0; j < n; j++ {
			sc := s.d[j] / dn
			for i := 0; i < n; i++ {
				s.v[i][j] *= sc
			}
		}

		if s.scbd > 1 {
			// Scale the axes to reduce the condition number.
			sm := s.vlarge
			for i := 0; i < n; i++ {
				sl := 0.0
				for j := 0; j < n; j++ {
					sl += s.v[i][j] * s.v[i][j]
				}
				s.z[i] = math.Sqrt(sl)
				if s.z[i] < s.m4 {
					s.z[i] = s.m4
				}
				if sm > s.z[i] {
					sm = s.z[i]
				}
			}
			for i := 0; i < n; i++ {
				sl := sm / s.z[i]
				s.z[i] = 1 / sl
				if s.z[i] > s.scbd {
					sl = 1 / s.scbd
					s.z[i] = s.scbd
				}
				for j := 0; j < n; j++ {
					s.v[i][j] *= sl
				}
			}
		}

		// Transpose v for minfit.
		for i := 1; i < n; i++ {
			for j := 0; j < i; j++ {
				s.v[i][j], s.v[j][i] = s.v[j][i], s.v[i][j]
			}
		}

		// Find the singular value decomposition of v. This gives
		// the principal values and principal directions of the
		// approximating quadratic form without squaring the
		// condition number.
		minfit(s.v, s.d, machep, s.vsmall)

		if s.scbd > 1 {
			// Unscale the axes.
			for i := 0; i < n; i++ {
				zi := s.z[i]
				for j := 0; j < n; j++ {
					s.v[i][j] *= zi
				}
			}
			for i := 0; i < n; i++ {
				sl := 0.0
				for j := 0; j < n; j++ {
					sl += s.v[j][i] * s.v[j][i]
				}
				sl = math.Sqrt(sl)
				s.d[i] *= sl
				sl = 1 / sl
				for j := 0; j < n; j++ {
					s.v[j][i] *= sl
				}
			}
		}

		for i := 0; i < n; i++ {
			dd := dn * s.d[i]
			switch {
			case dd > s.large:
				s.d[i] = s.vsmall
			case dd < s.small:
				s.d[i] = s.vlarge
			default:
				s.d[i] = 1 / (dd * dd)
			}
		}

		// Sort the new eigenvalues and eigenvectors.
		s.sort()
		s.dmin = s.d[n-1]
		if s.dmin < s.small {
			s.dmin = s.small
		}
		s.illc = s.m2*s.d[0] > s.dmin

		if s.p.Trace > 2 {
			log.Info("praxis principal axes",
				slog.Any("eigenvalues", s.d), slog.Any("scale", s.z))
		}
		if s.limitReached() {
			return
		}
	}
}

// sort orders d decreasingly, permuting the columns of v alike.
func (s *session) sort() {
	n := s.n
	for i := 0; i < n-1; i++ {
		k := i
		m := s.d[i]
		for j := i + 1; j < n; j++ {
			if s.d[j] > m {
				k = j
				m = s.d[j]
			}
		}
		if k > i {
			s.d[k] = s.d[i]
			s.d[i] = m
			for j := 0; j < n; j++ {
				s.v[j][i], s.v[j][k] = s.v[j][k], s.v[j][i]
			}
		}
	}
}
