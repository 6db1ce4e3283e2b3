// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the configuration of the pxstat command and
// converts it into engine options.
//
// A configuration is read from YAML. Command-line flags override the
// values read from the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pxlab/pxstat/anova"
	"github.com/pxlab/pxstat/descriptive"
	"github.com/pxlab/pxstat/ellipse"
	"github.com/pxlab/pxstat/learning"
	"github.com/pxlab/pxstat/pmf"
	"github.com/pxlab/pxstat/praxis"
	"github.com/pxlab/pxstat/regress"
	"github.com/pxlab/pxstat/report"
	"github.com/pxlab/pxstat/stats"
	"github.com/pxlab/pxstat/table"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration.
type Config struct {
	Input  Input  `yaml:"input"`
	Output Output `yaml:"output"`

	// LogLevel is one of "debug", "info", "warn" or "error".
	LogLevel string `yaml:"log_level"`

	// Concurrency limits parallel tests and fits. Zero means no
	// limit.
	Concurrency int `yaml:"concurrency,omitempty"`

	Praxis   Praxis   `yaml:"praxis"`
	Anova    Anova    `yaml:"anova"`
	PMF      PMF      `yaml:"pmf"`
	Stats    Stats    `yaml:"stats"`
	Learning Learning `yaml:"learning"`
}

// Input configures how data files are read.
type Input struct {
	Header     bool `yaml:"header"`
	AutoNumber bool `yaml:"autonumber"`
	Strict     bool `yaml:"strict"`
	// Columns is the expected number of columns; 0 lets the first
	// row decide.
	Columns int `yaml:"columns,omitempty"`
}

// Output configures where and how results are written.
type Output struct {
	// File is the report file. Empty means standard output.
	File   string `yaml:"file,omitempty"`
	Format string `yaml:"format"`
	// Print is a comma-separated list of report.ParseFlags names.
	Print string `yaml:"print"`
	// PlotPrefix, if set, writes every plot series to
	// {PlotPrefix}_{series}{PlotExt}.
	PlotPrefix string `yaml:"plot_prefix,omitempty"`
	PlotExt    string `yaml:"plot_ext"`
}

// Praxis configures the minimizer.
type Praxis struct {
	Tolerance      float64 `yaml:"tolerance,omitempty"`
	Step           float64 `yaml:"step,omitempty"`
	Scaling        float64 `yaml:"scaling,omitempty"`
	IllConditioned bool    `yaml:"ill_conditioned,omitempty"`
	Cautiousness   int     `yaml:"cautiousness,omitempty"`
	MaxFun         int     `yaml:"max_fun,omitempty"`
	Trace          int     `yaml:"trace,omitempty"`
	Seed           int64   `yaml:"seed,omitempty"`
}

// An AnalysisSpec requests an additional ANOVA analysis; see
// anova.ParseAnalysis.
type AnalysisSpec struct {
	Kind string `yaml:"kind"`
	Spec string `yaml:"spec,omitempty"`
}

// Anova configures the analysis of variance.
type Anova struct {
	Analyses []AnalysisSpec `yaml:"analyses,omitempty"`
}

// PMF configures psychometric function fits.
type PMF struct {
	Family    string    `yaml:"family"`
	Criterion string    `yaml:"criterion"`
	Yes       string    `yaml:"yes"`
	Guessing  float64   `yaml:"guessing"`
	Lapsing   float64   `yaml:"lapsing"`
	Params    []float64 `yaml:"params,omitempty,flow"`
	// Weighted indicates that the last column holds frequencies.
	Weighted bool `yaml:"weighted"`
}

// Stats configures descriptive statistics.
type Stats struct {
	Factors []string `yaml:"factors,omitempty,flow"`
	Value   string   `yaml:"value,omitempty"`
}

// Learning configures learning curve fits.
type Learning struct {
	Model  string   `yaml:"model"`
	Trial  string   `yaml:"trial,omitempty"`
	Groups []string `yaml:"groups,omitempty,flow"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Input:    Input{Header: true},
		Output:   Output{Format: "html", Print: "descriptive,results", PlotExt: ".dat"},
		LogLevel: "info",
		PMF:      PMF{Family: "logistic", Criterion: "chisquare", Yes: "1"},
		Learning: Learning{Model: "exponential"},
	}
}

// Load reads the YAML file name on top of the defaults. Unknown keys
// are an error.
func Load(name string) (*Config, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stats.ErrIO, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

// Parse parses a YAML configuration on top of the defaults.
func Parse(data []byte) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", stats.ErrParse, err)
	}
	return c, nil
}

// Write writes c to w as YAML.
func (c *Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

// Level returns the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.LogLevel, stats.ErrParse)
	}
	return l, nil
}

// ReadOptions returns the options for reading data files.
func (c *Config) ReadOptions() table.ReadOptions {
	return table.ReadOptions{
		Header:     c.Input.Header,
		AutoNumber: c.Input.AutoNumber,
		Columns:    c.Input.Columns,
	}
}

// ParseOptions returns the options for parsing numbers.
func (c *Config) ParseOptions(log *slog.Logger) table.ParseOptions {
	return table.ParseOptions{Strict: c.Input.Strict, Logger: log}
}

// Flags returns the report flags.
func (c *Config) Flags() (report.Flags, error) {
	return report.ParseFlags(c.Output.Print)
}

// Format returns the report format.
func (c *Config) Format() (report.Format, error) {
	return report.ParseFormat(c.Output.Format)
}

// Minimizer returns the minimizer configuration.
func (c *Config) Minimizer(log *slog.Logger) praxis.Praxis {
	p := c.Praxis
	return praxis.Praxis{
		Tolerance:      p.Tolerance,
		Step:           p.Step,
		Scaling:        p.Scaling,
		IllConditioned: p.IllConditioned,
		Cautiousness:   p.Cautiousness,
		MaxFun:         p.MaxFun,
		Trace:          p.Trace,
		Seed:           p.Seed,
		Logger:         log,
	}
}

// AnovaOptions returns the ANOVA options.
func (c *Config) AnovaOptions(log *slog.Logger) (anova.Options, error) {
	opts := anova.Options{Concurrency: c.Concurrency, Logger: log}
	for _, a := range c.Anova.Analyses {
		an, err := anova.ParseAnalysis(a.Kind, a.Spec)
		if err != nil {
			return opts, fmt.Errorf("anova: %w", err)
		}
		opts.Analyses = append(opts.Analyses, an)
	}
	return opts, nil
}

// PMFOptions returns the psychometric function options.
func (c *Config) PMFOptions(log *slog.Logger) (pmf.Options, error) {
	opts := pmf.Options{
		Yes:         c.PMF.Yes,
		Guessing:    c.PMF.Guessing,
		Lapsing:     c.PMF.Lapsing,
		Params:      c.PMF.Params,
		Minimizer:   c.Minimizer(log),
		Concurrency: c.Concurrency,
		Logger:      log,
	}
	if len(opts.Params) != 0 && len(opts.Params) != 2 {
		return opts, fmt.Errorf("pmf: want 2 parameters, got %d: %w", len(opts.Params), stats.ErrInvalidDesign)
	}
	var err error
	if opts.Family, err = pmf.ParseFamily(c.PMF.Family); err != nil {
		return opts, fmt.Errorf("pmf: %w", err)
	}
	if opts.Criterion, err = pmf.ParseCriterion(c.PMF.Criterion); err != nil {
		return opts, fmt.Errorf("pmf: %w", err)
	}
	return opts, nil
}

// FrequencyOptions returns the options for building the frequency
// table of a psychometric function fit.
func (c *Config) FrequencyOptions(log *slog.Logger) table.FrequencyOptions {
	return table.FrequencyOptions{ParseOptions: c.ParseOptions(log), Weighted: c.PMF.Weighted}
}

// DescriptiveOptions returns the descriptive statistics options.
func (c *Config) DescriptiveOptions(log *slog.Logger) descriptive.Options {
	return descriptive.Options{
		Factors: c.Stats.Factors,
		Value:   c.Stats.Value,
		Strict:  c.Input.Strict,
		Logger:  log,
	}
}

// LearningOptions returns the learning curve options.
func (c *Config) LearningOptions(log *slog.Logger) (learning.Options, error) {
	m, err := learning.ParseModel(c.Learning.Model)
	if err != nil {
		return learning.Options{}, fmt.Errorf("learning: %w", err)
	}
	return learning.Options{
		Model:       m,
		Trial:       c.Learning.Trial,
		Groups:      c.Learning.Groups,
		Minimizer:   c.Minimizer(log),
		Concurrency: c.Concurrency,
		Logger:      log,
	}, nil
}

// RegressOptions returns the regression options.
func (c *Config) RegressOptions(log *slog.Logger) regress.Options {
	return regress.Options{Logger: log}
}

// EllipseOptions returns the ellipse estimation options.
func (c *Config) EllipseOptions(log *slog.Logger) ellipse.Options {
	return ellipse.Options{Minimizer: c.Minimizer(log), Logger: log}
}

// SplitList splits a comma-separated flag value into trimmed,
// non-empty elements.
func SplitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
