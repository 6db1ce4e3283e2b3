// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags("results, raw")
	require.NoError(t, err)
	assert.Equal(t, PrintResults|PrintRawTerms, f)
	assert.True(t, f.Has(PrintResults))
	assert.False(t, f.Has(PrintResults|PrintDetailed))
	assert.Equal(t, "results,raw", f.String())

	f, err = ParseFlags("all")
	require.NoError(t, err)
	assert.Equal(t, "descriptive,results,detailed,raw", f.String())

	_, err = ParseFlags("verbose")
	assert.Error(t, err)
}

func sample() *Report {
	r := New(PrintDefault)
	r.Heading(1, "Analysis of %s", "a<b")
	r.Printf("N = %d", 8)
	tab := NewTable("Results", "Source", "SS", "F")
	tab.AddRow("A", 12.5, 6.25)
	tab.AddRow("B", math.NaN(), 3)
	r.AddTable(tab)
	r.Plot("fit", 1, 0.25)
	r.Plot("fit", 2, 0.5)
	r.PlotText("data", "1 2 10")
	return r
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sample().WriteHTML(&buf))
	out := buf.String()
	assert.Contains(t, out, "<h2>Analysis of a&lt;b</h2>")
	assert.Contains(t, out, "<p>N = 8</p>")
	assert.Contains(t, out, "<caption>Results</caption>")
	assert.Contains(t, out, "<tr><th>Source</th><th>SS</th><th>F</th></tr>")
	assert.Contains(t, out, "<tr><td>A</td><td>12.5</td><td>6.25</td></tr>")
	assert.Contains(t, out, "<td>-</td>")
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sample().WriteText(&buf))
	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "Analysis of a<b", lines[0])
	assert.Equal(t, strings.Repeat("=", len("Analysis of a<b")), lines[1])
	assert.Equal(t, "N = 8", lines[2])
	assert.Equal(t, "Results", lines[3])
	// Right-aligned columns have equal width.
	assert.Equal(t, len(lines[4]), len(lines[5]))
	assert.True(t, strings.HasSuffix(strings.TrimRight(lines[5], " "), "6.25"))
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sample().WriteYAML(&buf))
	var doc yamlReport
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "descriptive,results", doc.Flags)
	require.Len(t, doc.Blocks, 3)
	assert.Equal(t, "Analysis of a<b", doc.Blocks[0].Heading)
	assert.Equal(t, []string{"A", "12.5", "6.25"}, doc.Blocks[2].Rows[0])
	assert.Equal(t, []string{"1 0.25", "2 0.5"}, doc.Series["fit"])
}

func TestPlotFiles(t *testing.T) {
	r := sample()
	assert.Equal(t, []string{"fit", "data"}, r.SeriesNames())

	dir := t.TempDir()
	prefix := filepath.Join(dir, "run")
	files, err := r.WritePlotFiles(prefix, ".dat")
	require.NoError(t, err)
	assert.Equal(t, []string{prefix + "_fit.dat", prefix + "_data.dat"}, files)
	b, err := os.ReadFile(prefix + "_fit.dat")
	require.NoError(t, err)
	assert.Equal(t, "1 0.25\n2 0.5\n", string(b))
}

func TestAppendAndFlush(t *testing.T) {
	r := New(PrintResults)
	r.Plot("fit", 0, 0)
	sub := sample()
	r.Append(sub)
	assert.Equal(t, sub.Len(), r.Len())
	assert.Equal(t, []string{"0 0", "1 0.25", "2 0.5"}, r.Series("fit").Lines)

	name := filepath.Join(t.TempDir(), "out.html")
	require.NoError(t, r.Flush(name, HTML))
	b, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Contains(t, string(b), "<table>")

	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, YAML, f)
	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}
