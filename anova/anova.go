// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package anova performs analyses of variance of factorial designs.
//
// A design has one sampling factor, factor 0 of the data table, whose
// levels are the subjects, and any number of fixed factors. A fixed
// factor is within subjects if every subject has data at each of its
// levels and between subjects otherwise; this is detected from the
// data. Sums of squares are computed from bracket terms by
// inclusion-exclusion, which requires a balanced design.
package anova

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/pxlab/pxstat/factorial"
	"github.com/pxlab/pxstat/stats"
	"github.com/pxlab/pxstat/table"
)

// An Analysis is an additional analysis requested with Options.
// It is one of RandomFactor, MainEffectContrast, SimpleEffect and
// LeveneMeansTest.
type Analysis interface {
	analysis()
}

// RandomFactor declares a within-subjects factor as random. Random
// factors enter the error terms of all tests.
type RandomFactor struct {
	Factor string
}

// MainEffectContrast tests a linear contrast between the levels of a
// single factor. The coefficients must sum to zero.
type MainEffectContrast struct {
	Factor       string
	Coefficients []float64
}

// SimpleEffect analyzes the data at one level of a factor, testing
// against the error terms of the full design.
type SimpleEffect struct {
	Factor string
	Level  string
}

// LeveneMeansTest tests the homogeneity of variances across the cells
// of the design by an analysis of the absolute deviations from the
// cell means.
type LeveneMeansTest struct{}

func (RandomFactor) analysis()       {}
func (MainEffectContrast) analysis() {}
func (SimpleEffect) analysis()       {}
func (LeveneMeansTest) analysis()    {}

// ParseAnalysis parses an analysis request of the given kind.
// Kinds are matched case-insensitively:
//
//	random_factor         "name"
//	main_effect_contrast  "name c1 c2 ... cn"
//	simple_effect         "name level"
//	levene_means_test     ""
func ParseAnalysis(kind, spec string) (Analysis, error) {
	fields := strings.Fields(spec)
	switch strings.ToLower(kind) {
	case "random_factor":
		if len(fields) != 1 {
			return nil, fmt.Errorf("random factor: want a factor name, got %q", spec)
		}
		return RandomFactor{fields[0]}, nil
	case "main_effect_contrast":
		if len(fields) < 3 {
			return nil, fmt.Errorf("contrast: want a factor name and at least 2 coefficients, got %q", spec)
		}
		c := make([]float64, len(fields)-1)
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("contrast: bad coefficient %q", f)
			}
			c[i] = v
		}
		return MainEffectContrast{fields[0], c}, nil
	case "simple_effect":
		if len(fields) != 2 {
			return nil, fmt.Errorf("simple effect: want a factor name and a level, got %q", spec)
		}
		return SimpleEffect{fields[0], fields[1]}, nil
	case "levene_means_test":
		return LeveneMeansTest{}, nil
	}
	return nil, fmt.Errorf("unknown analysis %q", kind)
}

// Options configure Analyze. The zero value runs the plain analysis.
type Options struct {
	// Analyses lists additional analyses.
	Analyses []Analysis

	// Concurrency limits the number of tests computed in parallel.
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

// A Test is the F test of one source of variation.
type Test struct {
	// Source is the set of factors of the effect.
	Source factorial.BitSet
	// Name names the effect, like "A×B".
	Name string

	SS, DF, MS float64

	// ErrorSource is the set of factors of the error term, whose
	// variation is nested in the between factors.
	ErrorSource factorial.BitSet
	// ErrorName names the error term, like "S×B/A".
	ErrorName string

	ErrorSS, ErrorDF, ErrorMS float64

	F, P float64

	// EtaSq and OmegaSq are the partial η² and partial ω² effect
	// sizes.
	EtaSq, OmegaSq float64

	// Err is non-nil if the test could not be computed. The other
	// statistics are then NaN.
	Err error
}

// A Contrast is the result of a MainEffectContrast.
type Contrast struct {
	Factor       string
	Coefficients []float64

	// Within reports whether the factor is within subjects.
	Within bool

	// Estimate is Σ cᵢ·meanᵢ over the level means.
	Estimate float64

	SS, DF, MS                float64
	ErrorSS, ErrorDF, ErrorMS float64
	F, P                      float64

	Err error
}

// A SimpleEffectResult holds the tests of a simple effect analysis.
type SimpleEffectResult struct {
	Factor, Level string

	// Tests holds the effects of the remaining fixed factors at the
	// given level, tested against the error terms of the full
	// design.
	Tests []Test

	Err error
}

// A Result is the outcome of an analysis of variance.
type Result struct {
	// Factors names the factors; Factors[0] is the sampling factor.
	Factors []string
	// Levels holds the number of levels per factor.
	Levels []int

	// Between holds the between-subjects factors.
	Between factorial.BitSet
	// Random holds the sampling factor and declared random factors.
	Random factorial.BitSet

	// N is the number of cells with data.
	N int
	// Subjects is the number of levels of the sampling factor.
	Subjects  int
	GrandMean float64

	// Brackets holds the bracket term of every set of factors.
	Brackets []float64

	Tests         []Test
	Contrasts     []Contrast
	SimpleEffects []SimpleEffectResult

	// Levene is the analysis of absolute deviations from the cell
	// means, if requested.
	Levene *Result
	// LeveneErr is non-nil if the Levene test failed.
	LeveneErr error

	// ft is the analyzed table, kept for reporting cell means.
	ft *table.Factorial
}

// SourceName returns the name of the set of factors s.
func (r *Result) SourceName(s factorial.BitSet) string {
	return sourceName(r.Factors, s)
}

func sourceName(names []string, s factorial.BitSet) string {
	if s.Empty() {
		return "Mean"
	}
	var parts []string
	for _, d := range s.Elements() {
		parts = append(parts, names[d])
	}
	return strings.Join(parts, "×")
}

func errorName(names []string, src, between factorial.BitSet) string {
	n := sourceName(names, src)
	if !between.Empty() {
		n += "/" + sourceName(names, between)
	}
	return n
}

// Test returns the test of the named effect, like "A×B".
func (r *Result) Test(name string) (Test, bool) {
	for _, t := range r.Tests {
		if t.Name == name {
			return t, true
		}
	}
	return Test{}, false
}

// Analyze performs an analysis of variance of ft.
//
// Conditions that make the whole design unanalyzable, such as a
// factor with fewer than two levels or an unbalanced design, are
// returned as errors wrapping stats.ErrInvalidDesign or
// stats.ErrUnbalancedFactor. Failures of single tests or additional
// analyses are recorded in the result and logged.
func Analyze(ft *table.Factorial, opts Options) (*Result, error) {
	log := opts.logger()
	if ft.NumFactors() < 2 {
		return nil, fmt.Errorf("anova needs a sampling factor and at least one fixed factor: %w", stats.ErrInvalidDesign)
	}
	e, err := newEngine(ft, log)
	if err != nil {
		return nil, err
	}
	for _, a := range opts.Analyses {
		if rf, ok := a.(RandomFactor); ok {
			if err := e.declareRandom(rf.Factor); err != nil {
				return nil, err
			}
		}
	}

	res := e.result()
	res.Tests = e.tests(e.fixedSources(), opts.Concurrency)
	for _, t := range res.Tests {
		if t.Err != nil {
			log.Warn("test skipped", "source", t.Name, "err", t.Err)
		}
	}

	for _, a := range opts.Analyses {
		switch a := a.(type) {
		case MainEffectContrast:
			c := e.contrast(res, a)
			if c.Err != nil {
				log.Warn("contrast skipped", "factor", a.Factor, "err", c.Err)
			}
			res.Contrasts = append(res.Contrasts, c)
		case SimpleEffect:
			se := e.simpleEffect(res, a, opts)
			if se.Err != nil {
				log.Warn("simple effect skipped", "factor", a.Factor, "level", a.Level, "err", se.Err)
			}
			res.SimpleEffects = append(res.SimpleEffects, se)
		case LeveneMeansTest:
			res.Levene, res.LeveneErr = e.levene(opts)
			if res.LeveneErr != nil {
				log.Warn("Levene test skipped", "err", res.LeveneErr)
			}
		}
	}
	return res, nil
}

func (e *engine) result() *Result {
	sum := 0.0
	for _, c := range e.cells {
		sum += c.v
	}
	return &Result{
		Factors:   e.names,
		Levels:    e.levels,
		Between:   e.between,
		Random:    e.random,
		N:         len(e.cells),
		Subjects:  e.levels[0],
		GrandMean: sum / float64(len(e.cells)),
		Brackets:  e.brackets,
		ft:        e.ft,
	}
}

// omegaSq returns the partial ω² of an effect with df numerator
// degrees of freedom and F ratio f in a design with n cells.
func omegaSq(df, f float64, n int) float64 {
	num := df * (f - 1)
	w := num / (num + float64(n))
	if w < 0 || math.IsNaN(w) {
		return 0
	}
	return w
}
