// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package factorial

import (
	"fmt"
	"math/bits"
	"strings"
)

// MaxElements is the number of distinct elements a BitSet can hold.
// Elements are 0 through 30. The top bit of the word is unused.
const MaxElements = 31

// A BitSet is a small set of factor indexes. In an analysis of
// variance a BitSet identifies a source of variation: the empty set
// is the grand mean, a singleton is a main effect and larger sets are
// interactions.
//
// BitSet is a value type. All operations except Enter return a new
// set.
type BitSet uint32

func checkElement(i int) {
	if i < 0 || i >= MaxElements {
		panic(fmt.Sprintf("bitset element %d out of range [0,%d)", i, MaxElements))
	}
}

// Singleton returns the set {i}.
func Singleton(i int) BitSet {
	checkElement(i)
	return BitSet(1) << uint(i)
}

// Of returns the set containing the given elements.
func Of(elems ...int) BitSet {
	var s BitSet
	for _, e := range elems {
		s.Enter(e)
	}
	return s
}

// Full returns the set {0, 1, ..., n-1}.
func Full(n int) BitSet {
	if n < 0 || n > MaxElements {
		panic(fmt.Sprintf("bitset size %d out of range [0,%d]", n, MaxElements))
	}
	return BitSet(1)<<uint(n) - 1
}

// Enter adds element i to s.
func (s *BitSet) Enter(i int) {
	checkElement(i)
	*s |= BitSet(1) << uint(i)
}

// Union returns s ∪ t.
func (s BitSet) Union(t BitSet) BitSet {
	return s | t
}

// Intersection returns s ∩ t.
func (s BitSet) Intersection(t BitSet) BitSet {
	return s & t
}

// Minus returns s \ t.
func (s BitSet) Minus(t BitSet) BitSet {
	return s &^ t
}

// SubsetOf reports whether every element of s is in t.
func (s BitSet) SubsetOf(t BitSet) bool {
	return s&^t == 0
}

// Contains reports whether i is an element of s.
func (s BitSet) Contains(i int) bool {
	if i < 0 || i >= MaxElements {
		return false
	}
	return s&(BitSet(1)<<uint(i)) != 0
}

// Size returns the number of elements in s.
func (s BitSet) Size() int {
	return bits.OnesCount32(uint32(s))
}

// Empty reports whether s has no elements.
func (s BitSet) Empty() bool {
	return s == 0
}

// Elements returns the elements of s in increasing order.
func (s BitSet) Elements() []int {
	out := make([]int, 0, s.Size())
	for x := uint32(s); x != 0; x &= x - 1 {
		out = append(out, bits.TrailingZeros32(x))
	}
	return out
}

func (s BitSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range s.Elements() {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprint(&b, e)
	}
	b.WriteByte('}')
	return b.String()
}

// Subsets returns an iterator over the non-empty subsets of s.
//
// The subsets are produced in increasing order of a selector that
// counts from 1 to 2^s.Size()-1, where bit j of the selector chooses
// the j'th smallest element of s. Every non-empty subset appears
// exactly once.
func (s BitSet) Subsets() *BitSetIterator {
	return &BitSetIterator{elems: s.Elements()}
}

// A BitSetIterator enumerates the non-empty subsets of a BitSet.
type BitSetIterator struct {
	elems []int
	sel   uint64
	cur   BitSet
}

// Next advances to the next subset. It returns false when all subsets
// have been produced.
func (it *BitSetIterator) Next() bool {
	if it.sel+1 >= uint64(1)<<uint(len(it.elems)) {
		return false
	}
	it.sel++
	var b BitSet
	for j, e := range it.elems {
		if it.sel&(1<<uint(j)) != 0 {
			b |= BitSet(1) << uint(e)
		}
	}
	it.cur = b
	return true
}

// Value returns the current subset.
func (it *BitSetIterator) Value() BitSet {
	return it.cur
}
