// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package anova

import (
	"strings"

	"github.com/pxlab/pxstat/factorial"
	"github.com/pxlab/pxstat/report"
	"github.com/pxlab/pxstat/table"
)

// Report writes r to rep according to rep's flags.
//
// With report.PrintDescriptive, the cell means of every effect are
// listed and the means of each main effect are added to the plot
// series "means_<factor>". With report.PrintResults, the ANOVA table
// and the additional analyses are listed; report.PrintDetailed adds
// the error terms. report.PrintRawTerms lists the data with one row
// per subject, followed by the missing cells and the bracket terms.
func (r *Result) Report(rep *report.Report) {
	r.report(rep, 1, "Analysis of Variance")
}

func (r *Result) report(rep *report.Report, level int, title string) {
	rep.Heading(level, "%s", title)
	if rep.Enabled(report.PrintDescriptive) {
		r.reportDesign(rep)
		r.reportMeans(rep)
	}
	if rep.Enabled(report.PrintRawTerms) {
		r.reportData(rep)
		tab := report.NewTable("Bracket terms", "Source", "Bracket")
		for s, b := range r.Brackets {
			tab.AddRow("["+r.SourceName(factorial.BitSet(s))+"]", b)
		}
		rep.AddTable(tab)
	}
	if !rep.Enabled(report.PrintResults) {
		return
	}
	detailed := rep.Enabled(report.PrintDetailed)
	rep.AddTable(testTable("ANOVA", r.Tests, detailed))
	for _, t := range r.Tests {
		if t.Err != nil {
			rep.Printf("%s: %v", t.Name, t.Err)
		}
	}

	if len(r.Contrasts) > 0 {
		tab := report.NewTable("Contrasts", "Factor", "Coefficients", "Estimate", "SS", "Error SS", "Error df", "F", "p")
		for _, c := range r.Contrasts {
			tab.AddRow(c.Factor, formatCoefficients(c.Coefficients), c.Estimate, c.SS, c.ErrorSS, c.ErrorDF, c.F, c.P)
		}
		rep.AddTable(tab)
		for _, c := range r.Contrasts {
			if c.Err != nil {
				rep.Printf("Contrast of %s: %v", c.Factor, c.Err)
			}
		}
	}
	for _, se := range r.SimpleEffects {
		caption := "Simple effects at " + se.Factor + " = " + se.Level
		if se.Err != nil {
			rep.Printf("%s: %v", caption, se.Err)
			continue
		}
		rep.AddTable(testTable(caption, se.Tests, detailed))
	}
	if r.Levene != nil {
		r.Levene.report(rep, level+1, "Levene test of homogeneity of variances")
	} else if r.LeveneErr != nil {
		rep.Printf("Levene test: %v", r.LeveneErr)
	}
}

func testTable(caption string, tests []Test, detailed bool) *report.Table {
	tab := report.NewTable(caption, "Source", "SS", "df", "MS", "F", "p", "η²p", "ω²p")
	for _, t := range tests {
		tab.AddRow(t.Name, t.SS, t.DF, t.MS, t.F, t.P, t.EtaSq, t.OmegaSq)
		if detailed {
			tab.AddRow("Error "+t.ErrorName, t.ErrorSS, t.ErrorDF, t.ErrorMS, "", "", "", "")
		}
	}
	return tab
}

func (r *Result) reportDesign(rep *report.Report) {
	var between, within []string
	for d := 1; d < len(r.Factors); d++ {
		switch {
		case r.Between.Contains(d):
			between = append(between, r.Factors[d])
		case r.Random.Contains(d):
			within = append(within, r.Factors[d]+" (random)")
		default:
			within = append(within, r.Factors[d])
		}
	}
	rep.Printf("%d subjects (%s), %d cells, grand mean %s", r.Subjects, r.Factors[0], r.N, report.FormatCell(r.GrandMean))
	if len(between) > 0 {
		rep.Printf("Between-subjects factors: %s", strings.Join(between, ", "))
	}
	if len(within) > 0 {
		rep.Printf("Within-subjects factors: %s", strings.Join(within, ", "))
	}
}

// reportData lists the data with the within-subjects factors pivoted
// into columns.
func (r *Result) reportData(rep *report.Report) {
	if r.ft == nil {
		return
	}
	within := factorial.Full(len(r.Factors)).Minus(r.Between).Minus(factorial.Singleton(0))
	w := r.ft.RepeatedMeasures(within)
	header := append([]string(nil), w.RowFactors...)
	for _, c := range w.Columns {
		if c == "" {
			c = "Value"
		}
		header = append(header, c)
	}
	tab := report.NewTable("Data", header...)
	for i, labels := range w.RowLabels {
		row := make([]any, 0, len(header))
		for _, l := range labels {
			row = append(row, l)
		}
		for _, v := range w.Rows[i] {
			row = append(row, v)
		}
		tab.AddRow(row...)
	}
	rep.AddTable(tab)
	for _, idx := range w.Missing {
		parts := make([]string, len(idx))
		for d, l := range idx {
			parts[d] = r.Factors[d] + "=" + r.ft.LevelName(d, l)
		}
		rep.Printf("Missing cell %s", strings.Join(parts, " "))
	}
}

func (r *Result) reportMeans(rep *report.Report) {
	if r.ft == nil {
		return
	}
	for _, t := range r.Tests {
		dims := t.Source.Elements()
		header := make([]string, 0, len(dims)+2)
		sizes := make([]int, len(dims))
		for i, d := range dims {
			header = append(header, r.Factors[d])
			sizes[i] = r.Levels[d]
		}
		header = append(header, "Mean", "N")
		means, counts := r.ft.CellMeans(dims)
		tab := report.NewTable("Means of "+t.Name, header...)
		full := make([]int, len(r.Factors))
		it := factorial.NewExpansionIterator(sizes)
		for it.Next() {
			sub := it.Index()
			row := make([]any, 0, len(header))
			for i, d := range dims {
				full[d] = sub[i]
				row = append(row, r.ft.LevelName(d, sub[i]))
			}
			key := table.CellKey(full, dims)
			row = append(row, means[key], counts[key])
			tab.AddRow(row...)
			if len(dims) == 1 {
				rep.Plot("means_"+t.Name, float64(sub[0]), means[key])
			}
		}
		rep.AddTable(tab)
	}
}

func formatCoefficients(c []float64) string {
	return report.FormatValues(c...)
}
