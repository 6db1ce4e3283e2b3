// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package descriptive computes per-cell summary statistics of a
// dependent variable grouped by factor columns.
package descriptive

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/pxlab/pxstat/report"
	"github.com/pxlab/pxstat/stats"
	"github.com/pxlab/pxstat/table"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Options configure Compute.
type Options struct {
	// Factors names the grouping columns. If nil, every column but
	// the value column is a factor.
	Factors []string

	// Value names the dependent variable. If empty, the last column
	// is used.
	Value string

	// Strict makes a malformed value an error. Otherwise it is
	// counted as missing.
	Strict bool

	// Logger receives diagnostics. If nil, slog.Default() is used.
	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// A Summary holds the statistics of one set of values.
type Summary struct {
	N int
	// SD is the sample standard deviation and SE the standard error
	// of the mean. Both are NaN if N < 2.
	Mean, SD, SE     float64
	Min, Median, Max float64

	// CILow and CIHigh bound the 95% confidence interval of the
	// mean, based on Student's t distribution.
	CILow, CIHigh float64
}

// Summarize returns the summary of xs. xs is not modified.
func Summarize(xs []float64) Summary {
	s := Summary{N: len(xs), Mean: nan, SD: nan, SE: nan, Min: nan, Median: nan, Max: nan, CILow: nan, CIHigh: nan}
	if s.N == 0 {
		return s
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	s.Min, s.Max = floats.Min(sorted), floats.Max(sorted)
	s.Mean = stat.Mean(sorted, nil)
	if s.N%2 == 1 {
		s.Median = sorted[s.N/2]
	} else {
		s.Median = (sorted[s.N/2-1] + sorted[s.N/2]) / 2
	}
	if s.N > 1 {
		s.SD = stat.StdDev(sorted, nil)
		s.SE = stat.StdErr(s.SD, float64(s.N))
		h := stats.TDist{V: float64(s.N - 1)}.InvCDF(0.975) * s.SE
		s.CILow, s.CIHigh = s.Mean-h, s.Mean+h
	}
	return s
}

// A Cell holds the values of one combination of factor levels.
type Cell struct {
	// Levels holds the level of each factor.
	Levels []string
	// Values holds the raw values in input order.
	Values []float64
	Summary
}

// A Result holds the summaries of all cells.
type Result struct {
	Factors []string
	Value   string

	// Cells holds the cells in level order of the factors, the first
	// factor varying slowest.
	Cells []*Cell
	// Total summarizes all values.
	Total Summary
	// Missing counts the rows without a valid value.
	Missing int
}

// Compute groups the rows of t by the factor columns and summarizes
// the value column of every group.
func Compute(t *table.StringTable, opts Options) (*Result, error) {
	nc := t.NumColumns()
	if nc == 0 || t.Len() == 0 {
		return nil, fmt.Errorf("no data: %w", stats.ErrInsufficientData)
	}
	vj := nc - 1
	if opts.Value != "" {
		j, ok := t.ColumnIndex(opts.Value)
		if !ok {
			return nil, fmt.Errorf("no column %q: %w", opts.Value, stats.ErrInvalidDesign)
		}
		vj = j
	}
	var fjs []int
	if opts.Factors == nil {
		for j := 0; j < nc; j++ {
			if j != vj {
				fjs = append(fjs, j)
			}
		}
	} else {
		for _, name := range opts.Factors {
			j, ok := t.ColumnIndex(name)
			if !ok || j == vj {
				return nil, fmt.Errorf("no factor column %q: %w", name, stats.ErrInvalidDesign)
			}
			fjs = append(fjs, j)
		}
	}

	res := &Result{Value: t.ColumnName(vj)}
	rank := make([]map[string]int, len(fjs))
	for i, j := range fjs {
		res.Factors = append(res.Factors, t.ColumnName(j))
		rank[i] = make(map[string]int)
		for l, name := range t.Levels(j) {
			rank[i][name] = l
		}
	}

	po := table.ParseOptions{Strict: opts.Strict, Logger: opts.Logger}
	col, err := t.Select(vj).Numeric(po)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]*Cell)
	var all []float64
	for i, row := range t.Rows {
		v := col.Rows[i][0]
		if math.IsNaN(v) {
			res.Missing++
			continue
		}
		levels := make([]string, len(fjs))
		for k, j := range fjs {
			levels[k] = row[j]
		}
		key := strings.Join(levels, "\x00")
		c := byKey[key]
		if c == nil {
			c = &Cell{Levels: levels}
			byKey[key] = c
			res.Cells = append(res.Cells, c)
		}
		c.Values = append(c.Values, v)
		all = append(all, v)
	}
	if res.Missing > 0 {
		opts.logger().Warn("rows without a valid value skipped", "column", res.Value, "rows", res.Missing)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no valid values in %s: %w", res.Value, stats.ErrInsufficientData)
	}

	sort.Slice(res.Cells, func(a, b int) bool {
		la, lb := res.Cells[a].Levels, res.Cells[b].Levels
		for k := range la {
			if ra, rb := rank[k][la[k]], rank[k][lb[k]]; ra != rb {
				return ra < rb
			}
		}
		return false
	})
	for _, c := range res.Cells {
		c.Summary = Summarize(c.Values)
	}
	res.Total = Summarize(all)
	return res, nil
}

// Report writes r to rep according to rep's flags. Cell means and
// standard errors go to the plot series "means" as lines of the cell
// index, mean and SE.
func (r *Result) Report(rep *report.Report) {
	rep.Heading(1, "Descriptive Statistics of %s", r.Value)
	header := append(append([]string(nil), r.Factors...), "N", "Mean", "SD", "SE", "95% CI", "Min", "Median", "Max")
	if rep.Enabled(report.PrintDescriptive) || rep.Enabled(report.PrintResults) {
		tab := report.NewTable("Cells", header...)
		for _, c := range r.Cells {
			tab.AddRow(summaryRow(c.Levels, c.Summary)...)
		}
		total := make([]string, len(r.Factors))
		if len(total) > 0 {
			total[0] = "Total"
		}
		tab.AddRow(summaryRow(total, r.Total)...)
		rep.AddTable(tab)
		if r.Missing > 0 {
			rep.Printf("%d rows without a valid value", r.Missing)
		}
	}
	if rep.Enabled(report.PrintDetailed) {
		tab := report.NewTable("Raw Data", append(append([]string(nil), r.Factors...), "Values")...)
		for _, c := range r.Cells {
			row := make([]any, 0, len(c.Levels)+1)
			for _, l := range c.Levels {
				row = append(row, l)
			}
			row = append(row, report.FormatValues(c.Values...))
			tab.AddRow(row...)
		}
		rep.AddTable(tab)
	}
	for i, c := range r.Cells {
		rep.Plot("means", float64(i), c.Mean, c.SE)
	}
}

func summaryRow(levels []string, s Summary) []any {
	row := make([]any, 0, len(levels)+8)
	for _, l := range levels {
		row = append(row, l)
	}
	ci := "-"
	if s.N > 1 {
		ci = "[" + report.FormatCell(s.CILow) + ", " + report.FormatCell(s.CIHigh) + "]"
	}
	return append(row, s.N, s.Mean, s.SD, s.SE, ci, s.Min, s.Median, s.Max)
}

var nan = math.NaN()
