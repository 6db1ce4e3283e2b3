// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats

import (
	"math"
	"testing"
)

func aeq(expect, got float64) bool {
	return math.Abs(expect-got) < 0.00001
}

// testFunc checks that f(x) ≅ want for each x in want.
func testFunc(t *testing.T, name string, f func(float64) float64, want map[float64]float64) {
	t.Helper()
	for x, y := range want {
		if got := f(x); !aeq(y, got) {
			t.Errorf("%s(%v) = %v, want %v", name, x, got, y)
		}
	}
}

// testDiscreteCDF checks that the CDF of a discrete distribution is
// the running sum of its PMF.
func testDiscreteCDF(t *testing.T, name string, dist interface {
	PMF(float64) float64
	CDF(float64) float64
	Bounds() (float64, float64)
}) {
	t.Helper()
	lo, hi := dist.Bounds()
	sum := 0.0
	for k := lo - 2; k <= hi+2; k++ {
		sum += dist.PMF(k)
		if got := dist.CDF(k); !aeq(sum, got) {
			t.Errorf("%s(%v) = %v, want %v", name, k, got, sum)
		}
	}
}
