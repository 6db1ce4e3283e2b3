// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats

import "errors"

// Errors reported by the estimation engines. Engines wrap these with
// context using fmt.Errorf's %w verb, so callers should test for them
// with errors.Is.
var (
	// ErrInvalidDesign indicates a factorial design that cannot be
	// analyzed, such as a factor with fewer than two levels.
	ErrInvalidDesign = errors.New("invalid design")

	// ErrSingularMatrix indicates a zero pivot while inverting a
	// matrix.
	ErrSingularMatrix = errors.New("singular matrix")

	// ErrDegenerateEffect indicates a negative or vanishing sum of
	// squares or degrees of freedom for a single test. Other tests
	// of the same analysis are unaffected.
	ErrDegenerateEffect = errors.New("degenerate effect")

	// ErrUnbalancedFactor indicates that the levels of a factor do
	// not have equal numbers of observations.
	ErrUnbalancedFactor = errors.New("unbalanced factor")

	// ErrInsufficientData indicates that there is too little data
	// for a computation, such as a regression without predictors
	// or without residual degrees of freedom.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrParse indicates malformed input data.
	ErrParse = errors.New("parse error")

	// ErrIO indicates a failure to read input or write output.
	ErrIO = errors.New("i/o error")
)
