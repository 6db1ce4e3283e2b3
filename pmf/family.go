// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pmf

import (
	"fmt"
	"math"
	"strings"
)

// A Family is a family of psychometric functions.
//
// The parametric families have a location parameter a and a spread
// parameter b:
//
//	Logistic  F(x) = 1 / (1 + exp(-(x-a)/b))
//	Weibull   F(x) = 1 - exp(-(x/a)^b), x > 0
//	Gumbel    F(x) = 1 - exp(-exp((x-a)/b))
//
// Isotonic fits a non-decreasing step function instead.
type Family int

const (
	Logistic Family = iota
	Weibull
	Gumbel
	Isotonic
)

var familyNames = []string{"logistic", "weibull", "gumbel", "isotonic"}

func (f Family) String() string {
	if f >= 0 && int(f) < len(familyNames) {
		return familyNames[f]
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

// ParseFamily parses a family name, ignoring case.
func ParseFamily(s string) (Family, error) {
	for i, n := range familyNames {
		if strings.EqualFold(s, n) {
			return Family(i), nil
		}
	}
	return 0, fmt.Errorf("unknown psychometric function %q", s)
}

// cdf returns F(x) for parameters a and b.
func (f Family) cdf(x, a, b float64) float64 {
	switch f {
	case Logistic:
		return 1 / (1 + math.Exp(-(x-a)/b))
	case Weibull:
		if x <= 0 {
			return 0
		}
		return -math.Expm1(-math.Pow(x/a, b))
	case Gumbel:
		return -math.Expm1(-math.Exp((x - a) / b))
	}
	panic("pmf: no distribution function for " + f.String())
}

// valid reports whether a and b are admissible parameters.
func (f Family) valid(a, b float64) bool {
	if !(b > 0) || math.IsInf(b, 0) || math.IsNaN(a) || math.IsInf(a, 0) {
		return false
	}
	return f != Weibull || a > 0
}

// quantile returns the x with F(x) = q.
func (f Family) quantile(q, a, b float64) float64 {
	switch f {
	case Weibull:
		return a * math.Pow(-math.Log1p(-q), 1/b)
	case Gumbel:
		return a + b*math.Log(-math.Log1p(-q))
	}
	return a + b*math.Log(q/(1-q))
}

// linearize returns the transform of proportion p that is linear in
// u(x) under the family, and the variance weight of a transformed
// proportion based on n trials.
//
// Logistic uses logit(p) = (x-a)/b. Weibull and Gumbel use
// log(-log(1-p)), which equals b·log(x) - b·log(a) and (x-a)/b.
func (f Family) linearize(p, n float64) (z, w float64) {
	if f == Logistic {
		return math.Log(p / (1 - p)), n * p * (1 - p)
	}
	l := math.Log1p(-p)
	return math.Log(-l), n * (1 - p) * l * l / p
}

// abscissa returns u(x), the variable the linearized proportions are
// linear in.
func (f Family) abscissa(x float64) float64 {
	if f == Weibull {
		return math.Log(x)
	}
	return x
}

// params converts the intercept c0 and slope c1 of the linearized
// model to a and b.
func (f Family) params(c0, c1 float64) (a, b float64) {
	if f == Weibull {
		return math.Exp(-c0 / c1), c1
	}
	return -c0 / c1, 1 / c1
}

// A Criterion is a loss function minimized when fitting a parametric
// family.
type Criterion int

const (
	// ChiSquare is Pearson's chi-square Σ n(p-Ψ)²/(Ψ(1-Ψ)).
	ChiSquare Criterion = iota
	// LogLikelihood is the negative binomial log-likelihood.
	LogLikelihood
	// SquaredLogit is Σ n(logit p - logit Ψ)².
	SquaredLogit
)

var criterionNames = []string{"chisquare", "loglikelihood", "squaredlogit"}

func (c Criterion) String() string {
	if c >= 0 && int(c) < len(criterionNames) {
		return criterionNames[c]
	}
	return fmt.Sprintf("Criterion(%d)", int(c))
}

// ParseCriterion parses a criterion name, ignoring case, "_" and "-".
func ParseCriterion(s string) (Criterion, error) {
	k := strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(s))
	switch k {
	case "chi2", "chisq":
		return ChiSquare, nil
	case "ml", "likelihood", "nll":
		return LogLikelihood, nil
	case "logit":
		return SquaredLogit, nil
	}
	for i, n := range criterionNames {
		if k == n {
			return Criterion(i), nil
		}
	}
	return 0, fmt.Errorf("unknown minimization criterion %q", s)
}

// minProb bounds model probabilities away from 0 and 1.
const minProb = 1e-10

func clampProb(p float64) float64 {
	return math.Min(math.Max(p, minProb), 1-minProb)
}

// loss returns the contribution of one stimulus level with k "yes"
// responses out of n to the criterion, given model probability psi.
func (c Criterion) loss(k, n, psi float64) float64 {
	psi = clampProb(psi)
	switch c {
	case LogLikelihood:
		return -(k*math.Log(psi) + (n-k)*math.Log1p(-psi))
	case SquaredLogit:
		// Berkson's adjustment keeps the logit of 0 and 1 finite.
		p := (k + 0.5) / (n + 1)
		d := math.Log(p/(1-p)) - math.Log(psi/(1-psi))
		return n * d * d
	}
	d := k/n - psi
	return n * d * d / (psi * (1 - psi))
}
