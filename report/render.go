// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/pxlab/pxstat/stats"
	"gopkg.in/yaml.v3"
)

// A Format is an output format for a Report.
type Format int

const (
	HTML Format = iota
	Text
	YAML
)

// ParseFormat parses "html", "text" or "yaml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "html", "":
		return HTML, nil
	case "text", "txt":
		return Text, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return 0, fmt.Errorf("unknown report format %q", s)
}

func (f Format) String() string {
	switch f {
	case HTML:
		return "html"
	case Text:
		return "text"
	case YAML:
		return "yaml"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Write renders r to w in format f.
func (r *Report) Write(w io.Writer, f Format) error {
	switch f {
	case Text:
		return r.WriteText(w)
	case YAML:
		return r.WriteYAML(w)
	}
	return r.WriteHTML(w)
}

// WriteHTML renders r as an HTML fragment.
func (r *Report) WriteHTML(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, b := range r.blocks {
		switch b.kind {
		case headingBlock:
			fmt.Fprintf(bw, "<h%d>%s</h%d>\n", b.level+1, html.EscapeString(b.text), b.level+1)
		case paragraphBlock:
			fmt.Fprintf(bw, "<p>%s</p>\n", html.EscapeString(b.text))
		case tableBlock:
			writeHTMLTable(bw, b.table)
		}
	}
	return bw.Flush()
}

func writeHTMLTable(w io.Writer, t *Table) {
	fmt.Fprintln(w, "<table>")
	if t.Caption != "" {
		fmt.Fprintf(w, "<caption>%s</caption>\n", html.EscapeString(t.Caption))
	}
	if len(t.Header) > 0 {
		fmt.Fprint(w, "<tr>")
		for _, h := range t.Header {
			fmt.Fprintf(w, "<th>%s</th>", html.EscapeString(h))
		}
		fmt.Fprintln(w, "</tr>")
	}
	for _, row := range t.Rows {
		fmt.Fprint(w, "<tr>")
		for _, c := range row {
			fmt.Fprintf(w, "<td>%s</td>", html.EscapeString(c))
		}
		fmt.Fprintln(w, "</tr>")
	}
	fmt.Fprintln(w, "</table>")
}

// WriteText renders r as plain text with aligned table columns.
func (r *Report) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, b := range r.blocks {
		switch b.kind {
		case headingBlock:
			if i > 0 {
				fmt.Fprintln(bw)
			}
			fmt.Fprintln(bw, b.text)
			under := "="
			if b.level > 1 {
				under = "-"
			}
			fmt.Fprintln(bw, strings.Repeat(under, len([]rune(b.text))))
		case paragraphBlock:
			fmt.Fprintln(bw, b.text)
		case tableBlock:
			if b.table.Caption != "" {
				fmt.Fprintln(bw, b.table.Caption)
			}
			tw := tabwriter.NewWriter(bw, 0, 8, 2, ' ', tabwriter.AlignRight)
			if len(b.table.Header) > 0 {
				fmt.Fprintln(tw, strings.Join(b.table.Header, "\t")+"\t")
			}
			for _, row := range b.table.Rows {
				fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
			}
			tw.Flush()
		}
	}
	return bw.Flush()
}

type yamlBlock struct {
	Heading string     `yaml:"heading,omitempty"`
	Level   int        `yaml:"level,omitempty"`
	Text    string     `yaml:"text,omitempty"`
	Caption string     `yaml:"caption,omitempty"`
	Header  []string   `yaml:"header,omitempty,flow"`
	Rows    [][]string `yaml:"rows,omitempty"`
}

type yamlReport struct {
	Flags  string              `yaml:"flags"`
	Blocks []yamlBlock         `yaml:"blocks"`
	Series map[string][]string `yaml:"series,omitempty"`
}

// WriteYAML renders r as a YAML document.
func (r *Report) WriteYAML(w io.Writer) error {
	doc := yamlReport{Flags: r.Flags.String()}
	for _, b := range r.blocks {
		switch b.kind {
		case headingBlock:
			doc.Blocks = append(doc.Blocks, yamlBlock{Heading: b.text, Level: b.level})
		case paragraphBlock:
			doc.Blocks = append(doc.Blocks, yamlBlock{Text: b.text})
		case tableBlock:
			doc.Blocks = append(doc.Blocks, yamlBlock{Caption: b.table.Caption, Header: b.table.Header, Rows: b.table.Rows})
		}
	}
	if len(r.series) > 0 {
		doc.Series = make(map[string][]string, len(r.series))
		for _, s := range r.series {
			doc.Series[s.Name] = s.Lines
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// Flush renders r in format f to the named file, or to standard
// output if name is empty.
func (r *Report) Flush(name string, f Format) error {
	if name == "" {
		return r.Write(os.Stdout, f)
	}
	file, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("%w: %v", stats.ErrIO, err)
	}
	if err := r.Write(file, f); err != nil {
		file.Close()
		return fmt.Errorf("%w: writing %s: %v", stats.ErrIO, name, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: %v", stats.ErrIO, err)
	}
	return nil
}
