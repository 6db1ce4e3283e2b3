// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report accumulates the output of an analysis.
//
// A Report is an append-only sequence of headings, paragraphs and
// tables plus a set of named plot-data series. Engines write to a
// Report while they run; the caller renders it once at the end as an
// HTML fragment, aligned plain text or YAML. A Report is not safe for
// concurrent use.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Flags select which parts of an analysis are reported. Flags
// combine by bitwise OR.
type Flags uint

const (
	// PrintDescriptive reports descriptive statistics of the data.
	PrintDescriptive Flags = 1 << iota
	// PrintResults reports the test results.
	PrintResults
	// PrintDetailed reports intermediate quantities such as error
	// terms and fitted values.
	PrintDetailed
	// PrintRawTerms reports raw computational terms, such as the
	// bracket terms of an ANOVA.
	PrintRawTerms

	// PrintDefault is the default selection.
	PrintDefault = PrintDescriptive | PrintResults
)

var flagNames = []struct {
	f    Flags
	name string
}{
	{PrintDescriptive, "descriptive"},
	{PrintResults, "results"},
	{PrintDetailed, "detailed"},
	{PrintRawTerms, "raw"},
}

// ParseFlags parses a comma-separated list of the names
// "descriptive", "results", "detailed", "raw" and "all".
func ParseFlags(s string) (Flags, error) {
	var f Flags
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if name == "all" {
			f |= PrintDescriptive | PrintResults | PrintDetailed | PrintRawTerms
			continue
		}
		found := false
		for _, fn := range flagNames {
			if fn.name == name {
				f |= fn.f
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown print flag %q", name)
		}
	}
	return f, nil
}

// Has reports whether all flags in g are set in f.
func (f Flags) Has(g Flags) bool {
	return f&g == g
}

func (f Flags) String() string {
	var names []string
	for _, fn := range flagNames {
		if f.Has(fn.f) {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, ",")
}

// A Report collects formatted output and plot series.
type Report struct {
	// Flags gate what engines write to the report.
	Flags Flags

	blocks []block
	series []*Series
	byName map[string]*Series
}

// New returns an empty report with the given flags.
func New(flags Flags) *Report {
	return &Report{Flags: flags, byName: make(map[string]*Series)}
}

// Enabled reports whether all flags in f are set.
func (r *Report) Enabled(f Flags) bool {
	return r.Flags.Has(f)
}

type blockKind int

const (
	headingBlock blockKind = iota
	paragraphBlock
	tableBlock
)

type block struct {
	kind  blockKind
	level int
	text  string
	table *Table
}

// Heading appends a heading. Level 1 is the top level; levels 1 to 3
// render as <h2> to <h4> in HTML.
func (r *Report) Heading(level int, format string, args ...any) {
	if level < 1 {
		level = 1
	} else if level > 3 {
		level = 3
	}
	r.blocks = append(r.blocks, block{kind: headingBlock, level: level, text: fmt.Sprintf(format, args...)})
}

// Printf appends a paragraph of text.
func (r *Report) Printf(format string, args ...any) {
	r.blocks = append(r.blocks, block{kind: paragraphBlock, text: fmt.Sprintf(format, args...)})
}

// AddTable appends t. Later changes to t are visible in the report.
func (r *Report) AddTable(t *Table) {
	r.blocks = append(r.blocks, block{kind: tableBlock, table: t})
}

// Append appends the blocks and series of sub to r. Series with the
// same name are concatenated.
func (r *Report) Append(sub *Report) {
	r.blocks = append(r.blocks, sub.blocks...)
	for _, s := range sub.series {
		dst := r.Series(s.Name)
		dst.Lines = append(dst.Lines, s.Lines...)
	}
}

// Len returns the number of blocks in r.
func (r *Report) Len() int {
	return len(r.blocks)
}

// A Table is a table of formatted cells.
type Table struct {
	Caption string
	Header  []string
	Rows    [][]string
}

// NewTable returns a table with the given column headers.
func NewTable(caption string, header ...string) *Table {
	return &Table{Caption: caption, Header: header}
}

// AddRow appends a row. Each cell is formatted with FormatCell.
func (t *Table) AddRow(cells ...any) {
	row := make([]string, len(cells))
	for i, c := range cells {
		row[i] = FormatCell(c)
	}
	t.Rows = append(t.Rows, row)
}

// FormatCell formats a table cell. Floating-point numbers use six
// significant digits; NaN is shown as "-".
func FormatCell(c any) string {
	switch v := c.(type) {
	case string:
		return v
	case float64:
		if math.IsNaN(v) {
			return "-"
		}
		return strconv.FormatFloat(v, 'g', 6, 64)
	case float32:
		return FormatCell(float64(v))
	case int:
		return strconv.Itoa(v)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(c)
}
