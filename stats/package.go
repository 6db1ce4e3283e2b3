// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stats provides the probability distributions and error
// values shared by the pxstat estimation engines.
//
// The continuous distributions here are thin, value-typed wrappers
// around gonum's distuv package that add the complemented CDF used
// for upper-tail p-values and clamp their arguments to the support
// the analysis code expects.
package stats // import "github.com/pxlab/pxstat/stats"

import "math"

var inf = math.Inf(1)
var nan = math.NaN()
