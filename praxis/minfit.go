// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package praxis

import "math"

// maxQRIterations bounds the QR iterations per singular value.
const maxQRIterations = 30

// minfit computes the singular value decomposition ab = U·diag(q)·Vᵀ
// of the square matrix ab by Householder reduction to bidiagonal form
// and QR iteration. On return q holds the singular values and ab is
// overwritten by V. U is not computed. eps is the relative machine
// precision and tol the smallest representable number divided by eps.
//
// This is the Golub-Reinsch algorithm as modified by Brent for praxis.
// It reports whether the QR iteration converged for every singular
// value.
func minfit(ab [][]float64, q []float64, eps, tol float64) bool {
	n := len(q)
	if n == 1 {
		q[0] = math.Abs(ab[0][0])
		ab[0][0] = math.Copysign(1, ab[0][0])
		return true
	}
	e := make([]float64, n)

	// Householder reduction to bidiagonal form.
	var g, x float64
	for i := 0; i < n; i++ {
		e[i] = g
		l := i + 1
		s := 0.0
		for j := i; j < n; j++ {
			s += ab[j][i] * ab[j][i]
		}
		g = 0
		if s >= tol {
			f := ab[i][i]
			g = math.Sqrt(s)
			if f >= 0 {
				g = -g
			}
			h := f*g - s
			ab[i][i] = f - g
			for j := l; j < n; j++ {
				f := 0.0
				for k := i; k < n; k++ {
					f += ab[k][i] * ab[k][j]
				}
				f /= h
				for k := i; k < n; k++ {
					ab[k][j] += f * ab[k][i]
				}
			}
		}
		q[i] = g
		s = 0
		for j := l; j < n; j++ {
			s += ab[i][j] * ab[i][j]
		}
		g = 0
		if s >= tol && i < n-1 {
			f := ab[i][i+1]
			g = math.Sqrt(s)
			if f >= 0 {
				g = -g
			}
			h := f*g - s
			ab[i][i+1] = f - g
			for j := l; j < n; j++ {
				e[j] = ab[i][j] / h
			}
			for j := l; j < n; j++ {
				s := 0.0
				for k := l; k < n; k++ {
					s += ab[j][k] * ab[i][k]
				}
				for k := l; k < n; k++ {
					ab[j][k] += s * e[k]
				}
			}
		}
		if y := math.Abs(q[i]) + math.Abs(e[i]); y > x {
			x = y
		}
	}

	// Accumulation of right-hand transformations.
	ab[n-1][n-1] = 1
	g = e[n-1]
	l := n - 1
	for i := n - 2; i >= 0; i-- {
		if g != 0 {
			h := ab[i][i+1] * g
			for j := l; j < n; j++ {
				ab[j][i] = ab[i][j] / h
			}
			for j := l; j < n; j++ {
				s := 0.0
				for k := l; k < n; k++ {
					s += ab[i][k] * ab[k][j]
				}
				for k := l; k < n; k++ {
					ab[k][j] += s * ab[k][i]
				}
			}
		}
		for j := l; j < n; j++ {
			ab[i][j] = 0
			ab[j][i] = 0
		}
		ab[i][i] = 1
		g = e[i]
		l = i
	}

	// Diagonalization of the bidiagonal form.
	converged := true
	eps *= x
	for k := n - 1; k >= 0; k-- {
		for kt := 1; ; kt++ {
			if kt > maxQRIterations {
				e[k] = 0
				converged = false
			}

			// Test for splitting.
			l := k
			cancel := false
			for ; l > 0; l-- {
				if math.Abs(e[l]) <= eps {
					break
				}
				if math.Abs(q[l-1]) <= eps {
					cancel = true
					break
				}
			}

			if cancel {
				// Cancellation of e[l].
				c, s := 0.0, 1.0
				for i := l; i <= k; i++ {
					f := s * e[i]
					e[i] *= c
					if math.Abs(f) <= eps {
						break
					}
					g := q[i]
					h := math.Hypot(f, g)
					q[i] = h
					if h == 0 {
						g, h = 1, 1
					}
					c = g / h
					s = -f / h
				}
			}

			// Test for convergence.
			z := q[k]
			if l == k {
				if z < 0 {
					q[k] = -z
					for j := 0; j < n; j++ {
						ab[j][k] = -ab[j][k]
					}
				}
				break
			}

			// Shift from the bottom 2×2 minor.
			x := q[l]
			y := q[k-1]
			g := e[k-1]
			h := e[k]
			f := ((y-z)*(y+z) + (g-h)*(g+h)) / (2 * h * y)
			g = math.Sqrt(f*f + 1)
			temp := f - g
			if f >= 0 {
				temp = f + g
			}
			f = ((x-z)*(x+z) + h*(y/temp-h)) / x

			// Next QR transformation.
			c, s := 1.0, 1.0
			for i := l + 1; i <= k; i++ {
				g = e[i]
				y = q[i]
				h = s * g
				g *= c
				z = math.Hypot(f, h)
				e[i-1] = z
				if z == 0 {
					f, z = 1, 1
				}
				c = f / z
				s = h / z
				f = x*c + g*s
				g = -x*s + g*c
				h = y * s
				y *= c
				for j := 0; j < n; j++ {
					a, b := ab[j][i-1], ab[j][i]
					ab[j][i-1] = a*c + b*s
					ab[j][i] = -a*s + b*c
				}
				z = math.Hypot(f, h)
				q[i-1] = z
				if z == 0 {
					f, z = 1, 1
				}
				c = f / z
				s = h / z
				f = c*g + s*y
				x = -s*g + c*y
			}
			e[l] = 0
			e[k] = f
			q[k] = x
		}
	}
	return converged
}
