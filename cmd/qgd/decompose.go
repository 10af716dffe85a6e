// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/qgd/config"
	"github.com/katalvlaran/qgd/decomposition"
	"github.com/katalvlaran/qgd/matrix"
	"github.com/katalvlaran/qgd/matrix/ops"
	"github.com/katalvlaran/qgd/optimizer"
)

const maxQubits = 10

type decomposeFlags struct {
	qubits     int
	seed       int64
	configPath string
	optimizer  string
	state      bool
	save       string
	metrics    bool
}

func newDecomposeCmd() *cobra.Command {
	var f decomposeFlags
	cmd := &cobra.Command{
		Use:   "decompose",
		Short: "Decompose a seeded random unitary or state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecompose(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.IntVarP(&f.qubits, "qubits", "n", 2, "register size")
	fl.Int64Var(&f.seed, "seed", 0, "seed of the target and of the search (overrides the config)")
	fl.StringVarP(&f.configPath, "config", "c", "", "YAML configuration file")
	fl.StringVar(&f.optimizer, "optimizer", "", "BFGS, BFGS2, ADAM or ADAM_BATCHED (overrides the config)")
	fl.BoolVar(&f.state, "state", false, "prepare the first column only")
	fl.StringVar(&f.save, "save", "", "write the final gate structure to this file")
	fl.BoolVar(&f.metrics, "metrics", false, "print optimizer metrics after the run")

	return cmd
}

func runDecompose(cmd *cobra.Command, f decomposeFlags) error {
	if f.qubits < 1 || f.qubits > maxQubits {
		return errors.Errorf("--qubits %d: want 1..%d", f.qubits, maxQubits)
	}
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.LoadFile(f.configPath)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = f.seed
	}
	if f.optimizer != "" {
		cfg.Optimizer = f.optimizer
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	logger, closer, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer closer.Close()
	defer logger.Sync() //nolint:errcheck

	reg := prometheus.NewRegistry()
	opts = append(opts,
		decomposition.WithLogger(logger),
		decomposition.WithMetrics(optimizer.NewMetrics(reg)),
	)

	U, err := target(f.qubits, cfg.Seed, f.state)
	if err != nil {
		return err
	}
	d, err := decomposition.New(U, opts...)
	if err != nil {
		return err
	}
	res, err := d.Start()
	if err != nil {
		return err
	}
	lines, err := decomposition.ExportWith[[]string](d, &decomposition.TextExporter{})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, l := range lines {
		fmt.Fprintln(out, l)
	}
	fmt.Fprintf(out, "cost=%.3e error=%.3e converged=%t layers=%d gates=[%v] iterations=%d elapsed=%s\n",
		res.Cost, res.Error, res.Converged, res.Layers, res.Counts, res.Iterations, res.Elapsed)
	if !res.Converged {
		logger.Warn("tolerance not reached", zap.Float64("cost", res.Cost))
	}

	if f.save != "" {
		if err = saveStructure(d, f.save); err != nil {
			return err
		}
	}
	if f.metrics {
		return printMetrics(out, reg)
	}

	return nil
}

// target draws the seeded Haar-random unitary, or its first column.
func target(qubits int, seed int64, state bool) (*matrix.Dense, error) {
	rng := optimizer.NewRand(seed)
	if state {
		return ops.RandomState(1<<qubits, rng)
	}

	return ops.RandomUnitary(1<<qubits, rng)
}

func saveStructure(d *decomposition.Decomposition, path string) error {
	fh, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "save")
	}
	if err = d.SaveStructure(fh); err != nil {
		fh.Close()
		return err
	}

	return errors.Wrap(fh.Close(), "save")
}

// printMetrics writes every gathered family in the Prometheus text format.
func printMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return errors.Wrap(err, "metrics")
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err = enc.Encode(mf); err != nil {
			return errors.Wrapf(err, "metrics: %s", mf.GetName())
		}
	}

	return nil
}
