// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pxlab/pxstat/stats"
)

// A Series is a named sequence of plot-data lines. Each line holds
// whitespace-separated values.
type Series struct {
	Name  string
	Lines []string
}

// Series returns the series with the given name, creating it if
// necessary. Series keep the order of their creation.
func (r *Report) Series(name string) *Series {
	if r.byName == nil {
		r.byName = make(map[string]*Series)
	}
	if s, ok := r.byName[name]; ok {
		return s
	}
	s := &Series{Name: name}
	r.series = append(r.series, s)
	r.byName[name] = s
	return s
}

// SeriesNames returns the names of all series in creation order.
func (r *Report) SeriesNames() []string {
	names := make([]string, len(r.series))
	for i, s := range r.series {
		names[i] = s.Name
	}
	return names
}

// Plot appends a line of values to the named series.
func (r *Report) Plot(name string, values ...float64) {
	s := r.Series(name)
	s.Lines = append(s.Lines, FormatValues(values...))
}

// PlotText appends a line of preformatted text to the named series.
func (r *Report) PlotText(name, line string) {
	s := r.Series(name)
	s.Lines = append(s.Lines, line)
}

// FormatValues formats values as one plot-data line.
func FormatValues(values ...float64) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}

// PlotFileName returns the name of the plot file for series name.
func PlotFileName(prefix, name, ext string) string {
	return prefix + "_" + name + ext
}

// WritePlotFiles writes every series to its own file named
// {prefix}_{name}{ext} and returns the names of the files written.
func (r *Report) WritePlotFiles(prefix, ext string) ([]string, error) {
	var files []string
	for _, s := range r.series {
		name := PlotFileName(prefix, s.Name, ext)
		if err := writeLines(name, s.Lines); err != nil {
			return files, err
		}
		files = append(files, name)
	}
	return files, nil
}

func writeLines(name string, lines []string) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("%w: %v", stats.ErrIO, err)
	}
	w := bufio.NewWriter(f)
	for _, l := range lines {
		w.WriteString(l)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("%w: writing %s: %v", stats.ErrIO, name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", stats.ErrIO, err)
	}
	return nil
}
