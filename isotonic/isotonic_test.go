// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package isotonic

import (
	"math/rand"
	"testing"

	"github.com/pxlab/pxstat/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitPools(t *testing.T) {
	r, err := Fit([]float64{3, 1, 2, 4, 2}, []float64{0.2, 0.1, 0.6, 0.9, 0.4}, nil)
	require.NoError(t, err)
	xs, ys := r.Knots()
	assert.Equal(t, []float64{1, 2, 3, 4}, xs)
	// x=2 pools to 0.5 (weight 2); 0.5 and 0.2 violate and pool to
	// (0.5*2+0.2)/3 = 0.4.
	want := []float64{0.1, 0.4, 0.4, 0.9}
	for i := range want {
		assert.InDelta(t, want[i], ys[i], 1e-12)
	}
	assert.Equal(t, []float64{1, 2, 1, 1}, r.Weights())
}

func TestFitWeighted(t *testing.T) {
	r, err := Fit([]float64{1, 2}, []float64{1, 0}, []float64{3, 1})
	require.NoError(t, err)
	_, ys := r.Knots()
	assert.InDelta(t, 0.75, ys[0], 1e-12)
	assert.InDelta(t, 0.75, ys[1], 1e-12)
}

func TestMonotoneAndIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	xs := make([]float64, 50)
	ys := make([]float64, 50)
	for i := range xs {
		xs[i] = float64(rng.Intn(20))
		ys[i] = rng.Float64()
	}
	r, err := Fit(xs, ys, nil)
	require.NoError(t, err)
	kx, ky := r.Knots()
	for i := 1; i < len(ky); i++ {
		assert.LessOrEqual(t, ky[i-1], ky[i])
		assert.Less(t, kx[i-1], kx[i])
	}

	// Fitting the fit changes nothing.
	r2, err := Fit(kx, ky, r.Weights())
	require.NoError(t, err)
	_, ky2 := r2.Knots()
	assert.Equal(t, ky, ky2)

	// Already monotone input is returned unchanged.
	mono := []float64{0, 0.1, 0.1, 0.5, 0.7, 1}
	r3, err := Fit([]float64{1, 2, 3, 4, 5, 6}, mono, nil)
	require.NoError(t, err)
	_, got := r3.Knots()
	assert.Equal(t, mono, got)
}

func TestValueOfArgumentFor(t *testing.T) {
	r, err := Fit([]float64{1, 2, 3, 4}, []float64{0.1, 0.3, 0.3, 0.9}, nil)
	require.NoError(t, err)

	assert.Equal(t, 0.1, r.ValueOf(0))
	assert.Equal(t, 0.1, r.ValueOf(1))
	assert.Equal(t, 0.3, r.ValueOf(1.5))
	assert.Equal(t, 0.9, r.ValueOf(3.5))
	assert.Equal(t, 0.9, r.ValueOf(10))

	assert.Equal(t, 1.0, r.ArgumentFor(0.05))
	assert.InDelta(t, 1.5, r.ArgumentFor(0.2), 1e-12)
	assert.InDelta(t, 3.5, r.ArgumentFor(0.6), 1e-12)
	assert.Equal(t, 4.0, r.ArgumentFor(0.95))

	// Round trip on knots, up to flat regions.
	for _, x := range []float64{1, 2, 4} {
		assert.InDelta(t, x, r.ArgumentFor(r.ValueOf(x)), 1e-12)
	}
	// x = 3 lies on the flat region that starts at 2.
	assert.InDelta(t, 2, r.ArgumentFor(r.ValueOf(3)), 1e-12)
}

func TestFitErrors(t *testing.T) {
	_, err := Fit(nil, nil, nil)
	assert.ErrorIs(t, err, stats.ErrInsufficientData)
	_, err = Fit([]float64{1}, []float64{1, 2}, nil)
	assert.Error(t, err)
	_, err = Fit([]float64{1}, []float64{1}, []float64{0})
	assert.ErrorIs(t, err, stats.ErrInsufficientData)
}
