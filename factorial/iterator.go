// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package factorial enumerates cells and sources of variation of
// factorial designs.
//
// A factorial design with k factors is a grid of index vectors
// (i_0, ..., i_{k-1}) with 0 <= i_d < sizes[d]. The iterators in this
// package visit the grid, or a slice of it with some dimensions held
// fixed, in row-major order: the last dimension varies fastest.
package factorial

import (
	"errors"
	"math/bits"
)

// ErrTooManyElements is returned by NewSubsetIterator for sets larger
// than a BitSet can represent.
var ErrTooManyElements = errors.New("factorial: subset iterator supports at most 31 elements")

// A MaskedExpansionIterator enumerates the index vectors of a
// factorial grid in which some dimensions are pinned to a fixed
// value.
//
// Use it as
//
//	it := NewMaskedExpansionIterator(sizes, mask)
//	for it.Next() {
//		idx := it.Index()
//		...
//	}
type MaskedExpansionIterator struct {
	sizes []int
	free  []int // Unpinned dimensions in increasing order
	cur   []int
	state int // 0 before first, 1 running, 2 done
}

// An ExpansionIterator enumerates every index vector of a factorial
// grid. It is a MaskedExpansionIterator with no pinned dimensions.
type ExpansionIterator = MaskedExpansionIterator

// NewExpansionIterator returns an iterator over all index vectors of
// the grid with the given per-dimension sizes.
func NewExpansionIterator(sizes []int) *ExpansionIterator {
	return NewMaskedExpansionIterator(sizes, nil)
}

// NewMaskedExpansionIterator returns an iterator over the index
// vectors of the grid with the given sizes in which every dimension d
// with mask[d] >= 0 is fixed to mask[d]. Dimensions with mask[d] < 0
// vary freely. A nil mask leaves all dimensions free.
//
// The number of vectors produced is the product of sizes over the
// free dimensions, so an all-pinned mask produces exactly one vector.
func NewMaskedExpansionIterator(sizes, mask []int) *MaskedExpansionIterator {
	if mask != nil && len(mask) != len(sizes) {
		panic("factorial: mask length differs from number of dimensions")
	}
	it := &MaskedExpansionIterator{
		sizes: append([]int(nil), sizes...),
		cur:   make([]int, len(sizes)),
	}
	for d := range sizes {
		if mask != nil && mask[d] >= 0 {
			it.cur[d] = mask[d]
		} else {
			it.free = append(it.free, d)
		}
	}
	return it
}

// Next advances the iterator. It returns false once every vector has
// been produced.
func (it *MaskedExpansionIterator) Next() bool {
	switch it.state {
	case 0:
		for _, d := range it.free {
			if it.sizes[d] <= 0 {
				it.state = 2
				return false
			}
			it.cur[d] = 0
		}
		it.state = 1
		return true
	case 2:
		return false
	}
	// Increment the free dimensions as a mixed-radix counter with
	// the last free dimension least significant.
	for i := len(it.free) - 1; i >= 0; i-- {
		d := it.free[i]
		it.cur[d]++
		if it.cur[d] < it.sizes[d] {
			return true
		}
		it.cur[d] = 0
	}
	it.state = 2
	return false
}

// Index returns the current index vector. The returned slice is
// reused by subsequent calls to Next.
func (it *MaskedExpansionIterator) Index() []int {
	return it.cur
}

// Count returns the total number of vectors the iterator produces.
func (it *MaskedExpansionIterator) Count() int {
	n := 1
	for _, d := range it.free {
		n *= it.sizes[d]
	}
	return n
}

// A SubsetIterator enumerates subsets of {0, ..., n-1} as BitSets in
// increasing order of their bit pattern.
type SubsetIterator struct {
	n    int
	m    int
	next uint64
	cur  BitSet
}

// NewSubsetIterator returns an iterator over the subsets of an
// n-element set. If m >= 0, only subsets with exactly m elements are
// produced; otherwise all 2^n subsets, including the empty set, are.
func NewSubsetIterator(n, m int) (*SubsetIterator, error) {
	if n < 0 || n > MaxElements {
		return nil, ErrTooManyElements
	}
	return &SubsetIterator{n: n, m: m}, nil
}

// Next advances to the next subset.
func (it *SubsetIterator) Next() bool {
	for lim := uint64(1) << uint(it.n); it.next < lim; {
		p := it.next
		it.next++
		if it.m < 0 || bits.OnesCount64(p) == it.m {
			it.cur = BitSet(p)
			return true
		}
	}
	return false
}

// Value returns the current subset.
func (it *SubsetIterator) Value() BitSet {
	return it.cur
}
