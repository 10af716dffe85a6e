// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/qgd/decomposition"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()

	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.Equal(t, "qgd dev\n", out)
}

func TestDecompose_StateWithConfigAndSave(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "qgd.yaml")
	logPath := filepath.Join(dir, "logs", "qgd.log")
	doc := "tolerance: 1e-6\nmax_randomizations: 10\ncompression_rounds: 2\nlog:\n  level: debug\n  file: " + logPath + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(doc), 0o600))
	save := filepath.Join(dir, "structure.qgds")

	out, err := execute(t, "decompose", "-n", "2", "--seed", "3", "--state",
		"--config", cfgPath, "--save", save, "--metrics")
	require.NoError(t, err)
	require.Contains(t, out, "converged=true")
	require.Contains(t, out, "qgd_optimizer_iterations_total ")
	require.Contains(t, out, `qgd_optimizer_runs_total{state="CONVERGED"}`)

	logs, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Contains(t, string(logs), "decomposition finished")

	fh, err := os.Open(save)
	require.NoError(t, err)
	defer fh.Close()
	U, err := target(2, 3, true)
	require.NoError(t, err)
	d, err := decomposition.New(U)
	require.NoError(t, err)
	require.NoError(t, d.ImportStructure(fh))
	f, err := d.Optimize(nil)
	require.NoError(t, err)
	require.Less(t, f, 1e-6)
}

func TestDecompose_RejectsBadInput(t *testing.T) {
	_, err := execute(t, "decompose", "--qubits", "0")
	require.Error(t, err)

	_, err = execute(t, "decompose", "--optimizer", "simplex")
	require.Error(t, err)

	_, err = execute(t, "decompose", "--config", filepath.Join(t.TempDir(), "none.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestPrintMetrics_TextExposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "qgd_test_runs_total", Help: "Runs."}, []string{"state"})
	reg.MustRegister(c)
	c.WithLabelValues("CONVERGED").Add(2)

	var out bytes.Buffer
	require.NoError(t, printMetrics(&out, reg))
	require.Contains(t, out.String(), "# HELP qgd_test_runs_total Runs.\n")
	require.Contains(t, out.String(), "# TYPE qgd_test_runs_total counter\n")
	require.Contains(t, out.String(), `qgd_test_runs_total{state="CONVERGED"} 2`)
}
