// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// pxstat analyzes psychophysics data files.
//
// Usage:
//
//	pxstat <anova|pmf|regress|stats|learn|ellipse> [flags] datafile
//	pxstat config [flags]
//
// A data file holds whitespace-separated columns, optionally preceded
// by a header line of column names. The datafile "-" reads standard
// input. Settings are taken from the YAML file given by --config and
// overridden by flags; "pxstat config" prints the effective settings.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pxlab/pxstat/internal/config"
	"github.com/pxlab/pxstat/report"
	"github.com/pxlab/pxstat/table"
	"github.com/spf13/cobra"
)

var (
	configFile string

	flagOut        string
	flagFormat     string
	flagPrint      string
	flagPlotPrefix string
	flagPlotExt    string
	flagLogLevel   string
	flagAutoNumber bool
	flagNoHeader   bool
	flagStrict     bool
	flagParallel   int

	// cfg and log are set up before any subcommand runs.
	cfg *config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pxstat",
	Short: "Statistical analysis of psychophysics data",
	Long: `pxstat runs analyses of variance, psychometric function fits,
linear regressions, descriptive statistics, learning curve fits and
ellipse estimations on tabular data files.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "YAML configuration file")
	pf.StringVarP(&flagOut, "out", "o", "", "write the report to this file instead of standard output")
	pf.StringVar(&flagFormat, "format", "html", "report format: html, text or yaml")
	pf.StringVar(&flagPrint, "print", "descriptive,results", "report parts: descriptive, results, detailed, raw or all")
	pf.StringVar(&flagPlotPrefix, "plot-prefix", "", "write plot series to {prefix}_{series}{ext}")
	pf.StringVar(&flagPlotExt, "plot-ext", ".dat", "plot file extension")
	pf.StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn or error")
	pf.BoolVar(&flagAutoNumber, "autonumber", false, "prepend a column of line numbers")
	pf.BoolVar(&flagNoHeader, "no-header", false, "the data file has no header line")
	pf.BoolVar(&flagStrict, "strict", false, "fail on malformed numbers instead of treating them as missing")
	pf.IntVar(&flagParallel, "concurrency", 0, "maximum number of parallel tests or fits, 0 for no limit")

	rootCmd.AddCommand(anovaCmd, pmfCmd, regressCmd, statsCmd, learnCmd, ellipseCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration, applies the flags that were set on
// the command line and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	c := config.Default()
	if configFile != "" {
		var err error
		if c, err = config.Load(configFile); err != nil {
			return err
		}
	}
	fs := cmd.Flags()
	if fs.Changed("out") {
		c.Output.File = flagOut
	}
	if fs.Changed("format") {
		c.Output.Format = flagFormat
	}
	if fs.Changed("print") {
		c.Output.Print = flagPrint
	}
	if fs.Changed("plot-prefix") {
		c.Output.PlotPrefix = flagPlotPrefix
	}
	if fs.Changed("plot-ext") {
		c.Output.PlotExt = flagPlotExt
	}
	if fs.Changed("log-level") {
		c.LogLevel = flagLogLevel
	}
	if fs.Changed("autonumber") {
		c.Input.AutoNumber = flagAutoNumber
	}
	if fs.Changed("no-header") {
		c.Input.Header = !flagNoHeader
	}
	if fs.Changed("strict") {
		c.Input.Strict = flagStrict
	}
	if fs.Changed("concurrency") {
		c.Concurrency = flagParallel
	}

	level, err := c.Level()
	if err != nil {
		return err
	}
	log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	cfg = c
	return nil
}

// readTable reads the data file name, or standard input if name is
// "-".
func readTable(name string) (*table.StringTable, error) {
	if name == "-" {
		return table.ReadStringTable(os.Stdin, cfg.ReadOptions())
	}
	return table.ReadStringTableFile(name, cfg.ReadOptions())
}

func newReport() (*report.Report, error) {
	flags, err := cfg.Flags()
	if err != nil {
		return nil, err
	}
	return report.New(flags), nil
}

// emit writes rep and its plot series as configured.
func emit(rep *report.Report) error {
	format, err := cfg.Format()
	if err != nil {
		return err
	}
	if err := rep.Flush(cfg.Output.File, format); err != nil {
		return err
	}
	if cfg.Output.PlotPrefix == "" {
		return nil
	}
	files, err := rep.WritePlotFiles(cfg.Output.PlotPrefix, cfg.Output.PlotExt)
	if err != nil {
		return fmt.Errorf("plot files: %w", err)
	}
	log.Info("plot files written", "files", files)
	return nil
}
