// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package table holds the flat data tables consumed by the
// estimation engines.
//
// Data files are whitespace-delimited text with one row per line.
// Empty lines and lines starting with '#' are ignored. A token may be
// enclosed in double quotes to include blanks. A StringTable keeps
// the tokens as read; the other table types in this package are
// derived from it:
//
//   - DataTable interprets every token as a number.
//   - Factorial treats all but the last column as factors and maps
//     each combination of factor levels to the mean of its values.
//   - Frequency treats all columns, or all but a trailing frequency
//     column, as factors and counts each combination.
package table

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pxlab/pxstat/stats"
)

// A StringTable is a table of string tokens with optionally named
// columns. All rows have the same number of columns.
type StringTable struct {
	// Names holds the column names. It is nil if the source had no
	// header line.
	Names []string

	// Rows holds the data rows.
	Rows [][]string
}

// ReadOptions control ReadStringTable.
type ReadOptions struct {
	// AutoNumber prepends a column holding the 1-based line number
	// of each data row.
	AutoNumber bool

	// Header indicates that the first data line holds column
	// names.
	Header bool

	// Columns is the expected number of columns, not counting the
	// AutoNumber column. If it is 0, the first data row decides.
	Columns int
}

// ReadStringTable reads a whitespace-delimited table from r.
//
// A row whose column count differs from the table's is an error
// wrapping stats.ErrParse.
func ReadStringTable(r io.Reader, opts ReadOptions) (*StringTable, error) {
	t := new(StringTable)
	want := opts.Columns
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNo, dataNo := 0, 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		toks, err := Tokenize(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if opts.Header && t.Names == nil {
			t.Names = toks
			if want == 0 {
				want = len(toks)
			}
			continue
		}
		if want == 0 {
			want = len(toks)
		}
		if len(toks) != want {
			return nil, fmt.Errorf("line %d: got %d columns, want %d: %w", lineNo, len(toks), want, stats.ErrParse)
		}
		dataNo++
		if opts.AutoNumber {
			toks = append([]string{strconv.Itoa(dataNo)}, toks...)
		}
		t.Rows = append(t.Rows, toks)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", stats.ErrIO, err)
	}
	if opts.AutoNumber && t.Names != nil {
		t.Names = append([]string{"#"}, t.Names...)
	}
	return t, nil
}

// ReadStringTableFile reads a table from the named file.
func ReadStringTableFile(name string, opts ReadOptions) (*StringTable, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stats.ErrIO, err)
	}
	defer f.Close()
	t, err := ReadStringTable(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

// Tokenize splits line at runs of blanks. Double quotes group a token
// containing blanks; the quotes themselves are removed.
func Tokenize(line string) ([]string, error) {
	var toks []string
	var cur strings.Builder
	inTok, inQuote := false, false
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			inTok = true
		case !inQuote && (r == ' ' || r == '\t' || r == '\r' || r == '\f' || r == '\v'):
			if inTok {
				toks = append(toks, cur.String())
				cur.Reset()
				inTok = false
			}
		default:
			cur.WriteRune(r)
			inTok = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote: %w", stats.ErrParse)
	}
	if inTok {
		toks = append(toks, cur.String())
	}
	return toks, nil
}

// Len returns the number of rows in t.
func (t *StringTable) Len() int {
	return len(t.Rows)
}

// NumColumns returns the number of columns in t.
func (t *StringTable) NumColumns() int {
	if len(t.Rows) > 0 {
		return len(t.Rows[0])
	}
	return len(t.Names)
}

// ColumnName returns the name of column j. Unnamed columns are named
// by position: "S" for the sampling factor in column 0, then "A",
// "B", and so on.
func (t *StringTable) ColumnName(j int) string {
	if j < len(t.Names) && t.Names[j] != "" {
		return t.Names[j]
	}
	return defaultName(j)
}

func defaultName(j int) string {
	if j == 0 {
		return "S"
	}
	j--
	if j < 26 {
		return string(rune('A' + j))
	}
	return "F" + strconv.Itoa(j)
}

// ColumnIndex returns the index of the column named name.
func (t *StringTable) ColumnIndex(name string) (int, bool) {
	for j := 0; j < t.NumColumns(); j++ {
		if t.ColumnName(j) == name {
			return j, true
		}
	}
	return -1, false
}

// Levels returns the distinct tokens of column j, sorted like the
// levels of a factor.
func (t *StringTable) Levels(j int) []string {
	return distinctLevels(t.Rows, j)
}

// Column returns the tokens of column j.
func (t *StringTable) Column(j int) []string {
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[j]
	}
	return out
}

// Select returns a table with only the given columns of t, in the
// given order.
func (t *StringTable) Select(cols ...int) *StringTable {
	nt := &StringTable{Rows: make([][]string, len(t.Rows))}
	if t.Names != nil {
		for _, j := range cols {
			nt.Names = append(nt.Names, t.ColumnName(j))
		}
	}
	for i, row := range t.Rows {
		nrow := make([]string, len(cols))
		for k, j := range cols {
			nrow[k] = row[j]
		}
		nt.Rows[i] = nrow
	}
	return nt
}

// ParseOptions control how numeric tokens are interpreted.
type ParseOptions struct {
	// Strict makes a malformed number an error wrapping
	// stats.ErrParse. Otherwise the value is replaced by NaN and a
	// warning is logged.
	Strict bool

	// Logger receives parse warnings. If nil, slog.Default() is
	// used.
	Logger *slog.Logger
}

func (o ParseOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// parseFloat parses tok according to o. row and col are used for
// diagnostics only.
func (o ParseOptions) parseFloat(tok string, row, col int) (float64, error) {
	v, err := strconv.ParseFloat(tok, 64)
	if err == nil {
		return v, nil
	}
	if o.Strict {
		return 0, fmt.Errorf("row %d column %d: %q is not a number: %w", row+1, col+1, tok, stats.ErrParse)
	}
	o.logger().Warn("non-numeric value replaced by NaN",
		slog.Int("row", row+1), slog.Int("column", col+1), slog.String("token", tok))
	return nan, nil
}
