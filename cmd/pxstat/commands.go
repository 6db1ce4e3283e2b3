// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"strings"

	"github.com/pxlab/pxstat/anova"
	"github.com/pxlab/pxstat/descriptive"
	"github.com/pxlab/pxstat/ellipse"
	"github.com/pxlab/pxstat/internal/config"
	"github.com/pxlab/pxstat/learning"
	"github.com/pxlab/pxstat/pmf"
	"github.com/pxlab/pxstat/regress"
	"github.com/pxlab/pxstat/table"
	"github.com/spf13/cobra"
)

var (
	anovaRandom   []string
	anovaContrast []string
	anovaSimple   []string
	anovaLevene   bool

	pmfFamily    string
	pmfCriterion string
	pmfYes       string
	pmfGuessing  float64
	pmfLapsing   float64
	pmfParams    []float64
	pmfWeighted  bool

	statsFactors string
	statsValue   string

	learnModel  string
	learnTrial  string
	learnGroups string
)

var anovaCmd = &cobra.Command{
	Use:   "anova [flags] datafile",
	Short: "Analysis of variance of a factorial design",
	Long: `anova analyzes a factorial design. The first column is the
sampling factor, such as the subject, the last column the dependent
variable and the columns in between are factors.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnova,
}

var pmfCmd = &cobra.Command{
	Use:   "pmf [flags] datafile",
	Short: "Fit psychometric functions",
	Long: `pmf fits psychometric functions. The last column holds the
response, or the frequency if --weighted is set, in which case the
response is the column before it. The column before the response holds
the stimulus intensity and earlier columns define groups.`,
	Args: cobra.ExactArgs(1),
	RunE: runPMF,
}

var regressCmd = &cobra.Command{
	Use:   "regress [flags] datafile",
	Short: "Multiple linear regression",
	Long:  `regress regresses the first column on all other columns.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRegress,
}

var statsCmd = &cobra.Command{
	Use:   "stats [flags] datafile",
	Short: "Descriptive statistics per cell",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

var learnCmd = &cobra.Command{
	Use:   "learn [flags] datafile",
	Short: "Fit learning curves",
	Long: `learn fits learning curves to the mean performance per trial.
The last column is the performance and the trial factor defaults to the
column before it.`,
	Args: cobra.ExactArgs(1),
	RunE: runLearn,
}

var ellipseCmd = &cobra.Command{
	Use:   "ellipse [flags] datafile",
	Short: "Estimate the ellipse through a set of points",
	Long:  `ellipse estimates the ellipse through the points in the first two columns.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runEllipse,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cfg.Write(os.Stdout)
	},
}

func init() {
	f := anovaCmd.Flags()
	f.StringSliceVar(&anovaRandom, "random", nil, "declare within-subjects `factors` random")
	f.StringArrayVar(&anovaContrast, "contrast", nil, "test the main effect contrast \"factor c1 c2 ... cn\"")
	f.StringArrayVar(&anovaSimple, "simple", nil, "analyze the simple effects at \"factor level\"")
	f.BoolVar(&anovaLevene, "levene", false, "test the homogeneity of variances")

	f = pmfCmd.Flags()
	f.StringVar(&pmfFamily, "family", "logistic", "psychometric function: logistic, weibull, gumbel or isotonic")
	f.StringVar(&pmfCriterion, "criterion", "chisquare", "minimization criterion: chisquare, loglikelihood or squaredlogit")
	f.StringVar(&pmfYes, "yes", "1", "response code of a \"yes\" response")
	f.Float64Var(&pmfGuessing, "guessing", 0, "guessing rate")
	f.Float64Var(&pmfLapsing, "lapsing", 0, "lapsing rate")
	f.Float64SliceVar(&pmfParams, "params", nil, "fix the parameters `a,b` instead of fitting")
	f.BoolVar(&pmfWeighted, "weighted", false, "the last column holds response frequencies")

	f = statsCmd.Flags()
	f.StringVar(&statsFactors, "factors", "", "comma-separated grouping columns (default all but the value)")
	f.StringVar(&statsValue, "value", "", "dependent variable column (default the last)")

	f = learnCmd.Flags()
	f.StringVar(&learnModel, "model", "exponential", "learning model: exponential or power")
	f.StringVar(&learnTrial, "trial", "", "trial factor (default the next to last column)")
	f.StringVar(&learnGroups, "groups", "", "comma-separated factors fitted separately")
}

func runAnova(cmd *cobra.Command, args []string) error {
	for _, r := range anovaRandom {
		cfg.Anova.Analyses = append(cfg.Anova.Analyses, config.AnalysisSpec{Kind: "random_factor", Spec: r})
	}
	for _, c := range anovaContrast {
		cfg.Anova.Analyses = append(cfg.Anova.Analyses, config.AnalysisSpec{Kind: "main_effect_contrast", Spec: specList(c)})
	}
	for _, s := range anovaSimple {
		cfg.Anova.Analyses = append(cfg.Anova.Analyses, config.AnalysisSpec{Kind: "simple_effect", Spec: specList(s)})
	}
	if anovaLevene {
		cfg.Anova.Analyses = append(cfg.Anova.Analyses, config.AnalysisSpec{Kind: "levene_means_test"})
	}
	opts, err := cfg.AnovaOptions(log)
	if err != nil {
		return err
	}
	st, err := readTable(args[0])
	if err != nil {
		return err
	}
	ft, err := table.NewFactorial(st, cfg.ParseOptions(log))
	if err != nil {
		return err
	}
	res, err := anova.Analyze(ft, opts)
	if err != nil {
		return err
	}
	rep, err := newReport()
	if err != nil {
		return err
	}
	res.Report(rep)
	return emit(rep)
}

func runPMF(cmd *cobra.Command, args []string) error {
	fs := cmd.Flags()
	p := &cfg.PMF
	if fs.Changed("family") {
		p.Family = pmfFamily
	}
	if fs.Changed("criterion") {
		p.Criterion = pmfCriterion
	}
	if fs.Changed("yes") {
		p.Yes = pmfYes
	}
	if fs.Changed("guessing") {
		p.Guessing = pmfGuessing
	}
	if fs.Changed("lapsing") {
		p.Lapsing = pmfLapsing
	}
	if fs.Changed("params") {
		p.Params = pmfParams
	}
	if fs.Changed("weighted") {
		p.Weighted = pmfWeighted
	}
	opts, err := cfg.PMFOptions(log)
	if err != nil {
		return err
	}
	st, err := readTable(args[0])
	if err != nil {
		return err
	}
	ft, err := table.NewFrequency(st, cfg.FrequencyOptions(log))
	if err != nil {
		return err
	}
	res, err := pmf.Estimate(ft, opts)
	if err != nil {
		return err
	}
	rep, err := newReport()
	if err != nil {
		return err
	}
	res.Report(rep)
	return emit(rep)
}

func runRegress(cmd *cobra.Command, args []string) error {
	st, err := readTable(args[0])
	if err != nil {
		return err
	}
	dt, err := st.Numeric(cfg.ParseOptions(log))
	if err != nil {
		return err
	}
	res, err := regress.Fit(dt, cfg.RegressOptions(log))
	if res == nil {
		return err
	}
	if err != nil {
		log.Warn("regression incomplete", "err", err)
	}
	rep, err := newReport()
	if err != nil {
		return err
	}
	res.Report(rep)
	return emit(rep)
}

func runStats(cmd *cobra.Command, args []string) error {
	fs := cmd.Flags()
	if fs.Changed("factors") {
		cfg.Stats.Factors = config.SplitList(statsFactors)
	}
	if fs.Changed("value") {
		cfg.Stats.Value = statsValue
	}
	st, err := readTable(args[0])
	if err != nil {
		return err
	}
	res, err := descriptive.Compute(st, cfg.DescriptiveOptions(log))
	if err != nil {
		return err
	}
	rep, err := newReport()
	if err != nil {
		return err
	}
	res.Report(rep)
	return emit(rep)
}

func runLearn(cmd *cobra.Command, args []string) error {
	fs := cmd.Flags()
	if fs.Changed("model") {
		cfg.Learning.Model = learnModel
	}
	if fs.Changed("trial") {
		cfg.Learning.Trial = learnTrial
	}
	if fs.Changed("groups") {
		cfg.Learning.Groups = config.SplitList(learnGroups)
	}
	opts, err := cfg.LearningOptions(log)
	if err != nil {
		return err
	}
	st, err := readTable(args[0])
	if err != nil {
		return err
	}
	ft, err := table.NewFactorial(st, cfg.ParseOptions(log))
	if err != nil {
		return err
	}
	res, err := learning.Estimate(ft, opts)
	if err != nil {
		return err
	}
	rep, err := newReport()
	if err != nil {
		return err
	}
	res.Report(rep)
	return emit(rep)
}

func runEllipse(cmd *cobra.Command, args []string) error {
	st, err := readTable(args[0])
	if err != nil {
		return err
	}
	dt, err := st.Numeric(cfg.ParseOptions(log))
	if err != nil {
		return err
	}
	res, err := ellipse.EstimateTable(dt, cfg.EllipseOptions(log))
	if err != nil {
		return err
	}
	rep, err := newReport()
	if err != nil {
		return err
	}
	res.Report(rep)
	return emit(rep)
}

// specList joins the elements of a --contrast or --simple flag given
// with commas instead of spaces.
func specList(s string) string {
	return strings.ReplaceAll(s, ",", " ")
}
