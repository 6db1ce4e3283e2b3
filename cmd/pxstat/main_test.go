// Copyright 2026 The pxstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes pxstat with args and returns the text report.
func run(t *testing.T, args ...string) string {
	t.Helper()
	dir := t.TempDir()
	out := filepath.Join(dir, "report.txt")
	rootCmd.SetArgs(append([]string{"--config", "", "--plot-prefix", "", "--format", "text", "--log-level", "error", "--out", out}, args...))
	require.NoError(t, rootCmd.Execute())
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	return string(data)
}

func writeData(t *testing.T, content string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
	return name
}

func TestAnovaCommand(t *testing.T) {
	data := writeData(t, `S A y
s1 a1 1
s2 a1 2
s3 a1 3
s4 a2 5
s5 a2 6
s6 a2 7
`)
	out := run(t, "anova", data)
	assert.Contains(t, out, "ANOVA")
	assert.Contains(t, out, "Between-subjects factors: A")
}

func TestPMFCommand(t *testing.T) {
	data := writeData(t, `x r n
1 0 8
1 1 2
5 0 2
5 1 8
`)
	prefix := filepath.Join(t.TempDir(), "plot")
	out := run(t, "--plot-prefix", prefix, "pmf", "--weighted", data)
	assert.Contains(t, out, "Psychometric Function (logistic, chisquare)")
	_, err := os.Stat(prefix + "_fit.dat")
	assert.NoError(t, err)
}

func TestConfigFile(t *testing.T) {
	conf := writeData(t, "stats:\n  factors: [cond]\n")
	data := writeData(t, "S cond y\ns1 a 1\ns2 a 3\ns3 b 5\n")
	out := run(t, "--config", conf, "stats", data)
	assert.Contains(t, out, "Descriptive Statistics of y")
	assert.NotContains(t, out, "s1")

	rootCmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "stats", data})
	assert.Error(t, rootCmd.Execute())
}
