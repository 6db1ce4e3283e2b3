// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pmf

import (
	"github.com/pxlab/pxstat/report"
)

// fitSteps is the number of intervals of the "fit" plot series.
const fitSteps = 50

// Report writes r to rep according to rep's flags. The data of all
// groups go to the plot series "data" and the fitted curves to "fit",
// with groups separated by blank lines.
func (r *Result) Report(rep *report.Report) {
	rep.Heading(1, "Psychometric Function (%s, %s)", r.Family, r.Criterion)
	if rep.Enabled(report.PrintDescriptive) && len(r.Responses) > 0 {
		tab := report.NewTable("Responses", "Response", "N", "Proportion")
		total := 0.0
		for _, rc := range r.Responses {
			total += rc.N
		}
		for _, rc := range r.Responses {
			name := rc.Response
			if rc.Yes {
				name += " (yes)"
			}
			tab.AddRow(name, rc.N, rc.N/total)
		}
		rep.AddTable(tab)
	}
	if rep.Enabled(report.PrintResults) {
		tab := report.NewTable("Estimates", "Group", "a", "b", "PSE", "Spread", "Loss", "Log-likelihood", "Deviance", "χ²", "df", "p")
		for _, f := range r.Fits {
			chi, df, p := any(""), any(""), any("")
			if f.GOF != nil {
				chi, df = f.GOF.ChiSquare, f.GOF.DF
				if f.GOF.HasP {
					p = f.GOF.P
				}
			}
			tab.AddRow(f.Group, f.A, f.B, f.PSE, f.Spread, f.Loss, f.LogLikelihood, f.Deviance, chi, df, p)
		}
		rep.AddTable(tab)
		for _, f := range r.Fits {
			if f.Err != nil {
				rep.Printf("%s: %v", f.Group, f.Err)
			} else if !f.Converged {
				rep.Printf("%s: minimization stopped after %d function evaluations", f.Group, f.Evals)
			}
		}
	}
	for i, f := range r.Fits {
		if rep.Enabled(report.PrintDescriptive) || rep.Enabled(report.PrintDetailed) {
			f.report(rep)
		}
		if f.Err != nil || len(f.Points) == 0 {
			continue
		}
		if i > 0 {
			rep.PlotText("data", "")
			rep.PlotText("fit", "")
		}
		for _, p := range f.Points {
			rep.Plot("data", p.X, p.P())
		}
		lo, hi := f.Points[0].X, f.Points[len(f.Points)-1].X
		for j := 0; j <= fitSteps; j++ {
			x := lo + (hi-lo)*float64(j)/fitSteps
			rep.Plot("fit", x, f.Psi(x))
		}
	}
}

func (f *Fit) report(rep *report.Report) {
	if f.Group != "" {
		rep.Heading(2, "%s", f.Group)
	}
	tab := report.NewTable("Data", "x", "N", "Yes", "p", "Ψ")
	for i, p := range f.Points {
		psi := any("")
		if i < len(f.Fitted) {
			psi = f.Fitted[i]
		}
		tab.AddRow(p.X, p.N, p.Yes, p.P(), psi)
	}
	rep.AddTable(tab)
	if rep.Enabled(report.PrintDetailed) && f.Family != Isotonic && f.Err == nil {
		rep.Printf("Initial estimates a = %s, b = %s; %d function evaluations",
			report.FormatCell(f.Initial[0]), report.FormatCell(f.Initial[1]), f.Evals)
	}
}
