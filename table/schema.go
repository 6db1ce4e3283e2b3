// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package table

import (
	"fmt"
	"sort"
	"strconv"
)

// A Key encodes a combination of factor levels as a single mixed-radix
// integer. The radix of factor d is the number of levels of d, and
// the last factor is the least significant digit.
type Key int

// A schema describes the factors of a factorial table.
type schema struct {
	names  []string
	levels [][]string
	stride []int
}

func newSchema(names []string, levels [][]string) schema {
	s := schema{names: names, levels: levels, stride: make([]int, len(levels))}
	m := 1
	for d := len(levels) - 1; d >= 0; d-- {
		s.stride[d] = m
		m *= len(levels[d])
	}
	return s
}

// NumFactors returns the number of factors.
func (s *schema) NumFactors() int {
	return len(s.names)
}

// FactorName returns the name of factor d.
func (s *schema) FactorName(d int) string {
	return s.names[d]
}

// FactorNames returns the names of all factors.
func (s *schema) FactorNames() []string {
	return append([]string(nil), s.names...)
}

// FactorIndex returns the index of the factor with the given name.
func (s *schema) FactorIndex(name string) (int, bool) {
	for d, n := range s.names {
		if n == name {
			return d, true
		}
	}
	return -1, false
}

// NumLevels returns the number of levels of factor d.
func (s *schema) NumLevels(d int) int {
	return len(s.levels[d])
}

// Levels returns the number of levels of every factor.
func (s *schema) Levels() []int {
	out := make([]int, len(s.levels))
	for d, l := range s.levels {
		out[d] = len(l)
	}
	return out
}

// LevelName returns the label of level l of factor d.
func (s *schema) LevelName(d, l int) string {
	return s.levels[d][l]
}

// LevelNames returns the labels of the levels of factor d in level
// order.
func (s *schema) LevelNames(d int) []string {
	return append([]string(nil), s.levels[d]...)
}

// LevelIndex returns the level of factor d labeled name.
func (s *schema) LevelIndex(d int, name string) (int, bool) {
	for l, n := range s.levels[d] {
		if n == name {
			return l, true
		}
	}
	return -1, false
}

// NumericLevels returns the levels of factor d as numbers. It fails
// if any label is not a number.
func (s *schema) NumericLevels(d int) ([]float64, error) {
	out := make([]float64, len(s.levels[d]))
	for l, name := range s.levels[d] {
		v, err := strconv.ParseFloat(name, 64)
		if err != nil {
			return nil, fmt.Errorf("level %q of factor %s is not a number", name, s.names[d])
		}
		out[l] = v
	}
	return out, nil
}

// Key returns the key of the level combination idx.
func (s *schema) Key(idx []int) Key {
	if len(idx) != len(s.stride) {
		panic("table: index vector length differs from number of factors")
	}
	k := 0
	for d, i := range idx {
		if i < 0 || i >= len(s.levels[d]) {
			panic(fmt.Sprintf("table: level %d of factor %d out of range", i, d))
		}
		k += i * s.stride[d]
	}
	return Key(k)
}

// Index returns the level combination encoded by k.
func (s *schema) Index(k Key) []int {
	idx := make([]int, len(s.stride))
	r := int(k)
	for d, st := range s.stride {
		idx[d] = r / st
		r %= st
	}
	return idx
}

// subSchema returns the schema over the factors d with keep[d].
func (s *schema) subSchema(keep []bool) schema {
	var names []string
	var levels [][]string
	for d, k := range keep {
		if k {
			names = append(names, s.names[d])
			levels = append(levels, s.levels[d])
		}
	}
	return newSchema(names, levels)
}

// matches reports whether idx agrees with mask on every pinned
// dimension.
func matches(idx, mask []int) bool {
	for d, m := range mask {
		if m >= 0 && idx[d] != m {
			return false
		}
	}
	return true
}

// distinctLevels returns the distinct labels of column j of rows,
// sorted numerically if all of them are numbers and lexicographically
// otherwise.
func distinctLevels(rows [][]string, j int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range rows {
		if !seen[row[j]] {
			seen[row[j]] = true
			out = append(out, row[j])
		}
	}
	sortLevels(out)
	return out
}

func sortLevels(labels []string) {
	nums := make([]float64, len(labels))
	numeric := true
	for i, l := range labels {
		v, err := strconv.ParseFloat(l, 64)
		if err != nil {
			numeric = false
			break
		}
		nums[i] = v
	}
	if !numeric {
		sort.Strings(labels)
		return
	}
	sort.Sort(byValue{labels, nums})
}

type byValue struct {
	labels []string
	vals   []float64
}

func (b byValue) Len() int           { return len(b.labels) }
func (b byValue) Less(i, j int) bool { return b.vals[i] < b.vals[j] }
func (b byValue) Swap(i, j int) {
	b.labels[i], b.labels[j] = b.labels[j], b.labels[i]
	b.vals[i], b.vals[j] = b.vals[j], b.vals[i]
}

// levelIndexes maps every label of levels to its position.
func levelIndexes(levels [][]string) []map[string]int {
	out := make([]map[string]int, len(levels))
	for d, ls := range levels {
		out[d] = make(map[string]int, len(ls))
		for l, name := range ls {
			out[d][name] = l
		}
	}
	return out
}
