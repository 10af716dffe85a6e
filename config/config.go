// SPDX-License-Identifier: MIT

// Package config loads decomposition settings from YAML.
//
// Keys absent from the document keep the defaults of Default, so a file
// only lists what it overrides. Unknown keys are rejected.
//
//	optimizer: ADAM_BATCHED
//	batch_size: 32
//	cost_variant: HILBERT_SCHMIDT
//	tolerance: 1e-8
//	topology: [[0, 1], [1, 2]]
//	log:
//	  level: debug
//	  file: logs/qgd.log
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/qgd/cost"
	"github.com/katalvlaran/qgd/decomposition"
	"github.com/katalvlaran/qgd/optimizer"
)

// ErrInvalidConfig marks a document that parsed but holds unusable values.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config mirrors decomposition.Options with YAML-friendly types.
type Config struct {
	Optimizer              string   `yaml:"optimizer"`
	CostVariant            string   `yaml:"cost_variant"`
	TraceOffset            int      `yaml:"trace_offset"`
	Tolerance              float64  `yaml:"tolerance"`
	MaxIterations          int      `yaml:"max_iterations"`
	RandomizationThreshold int      `yaml:"randomization_threshold"`
	MaxRandomizations      int      `yaml:"max_randomizations"`
	Radius                 float64  `yaml:"radius"`
	LearningRate           float64  `yaml:"learning_rate"`
	BatchSize              int      `yaml:"batch_size"`
	OptimizationBlocks     int      `yaml:"optimization_blocks"`
	IterationLoops         int      `yaml:"iteration_loops"`
	LevelLimitMin          int      `yaml:"level_limit_min"`
	LevelLimitMax          int      `yaml:"level_limit_max"`
	CompressionRounds      int      `yaml:"compression_rounds"`
	Topology               [][2]int `yaml:"topology,omitempty"`
	Accelerators           int      `yaml:"accelerators"`
	Workers                int      `yaml:"workers"`
	Seed                   int64    `yaml:"seed"`
	Log                    Log      `yaml:"log"`
}

// Default returns the configuration matching decomposition.DefaultOptions.
// The optimizer is left empty so the driver picks it from the register size.
func Default() Config {
	o := decomposition.DefaultOptions()

	return Config{
		CostVariant:            o.CostVariant.String(),
		TraceOffset:            o.TraceOffset,
		Tolerance:              o.Tolerance,
		MaxIterations:          o.MaxIterations,
		RandomizationThreshold: o.RandomizationThreshold,
		MaxRandomizations:      o.MaxRandomizations,
		Radius:                 o.Radius,
		LearningRate:           o.LearningRate,
		BatchSize:              o.BatchSize,
		OptimizationBlocks:     o.OptimizationBlocks,
		IterationLoops:         o.IterationLoops,
		LevelLimitMin:          o.LevelLimitMin,
		LevelLimitMax:          o.LevelLimitMax,
		CompressionRounds:      o.CompressionRounds,
		Workers:                o.Workers,
		Log:                    DefaultLog(),
	}
}

// Load decodes one YAML document over Default and validates it.
// An empty document yields Default.
func Load(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "config: decode")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// LoadFile reads and decodes the file at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config: read")
	}
	c, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "config: %s", path)
	}

	return c, nil
}

// Validate checks names and ranges without building a driver.
func (c *Config) Validate() error {
	if _, err := c.Options(); err != nil {
		return err
	}
	if err := c.Log.validate(); err != nil {
		return errors.WithMessage(ErrInvalidConfig, err.Error())
	}

	return nil
}

// Options converts c into driver options. The logger and metrics are not
// part of the file; callers append WithLogger and WithMetrics themselves.
func (c *Config) Options() ([]decomposition.Option, error) {
	variant, err := cost.ParseVariant(c.CostVariant)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}
	opts := []decomposition.Option{
		decomposition.WithCostVariant(variant),
		decomposition.WithTraceOffset(c.TraceOffset),
		decomposition.WithTolerance(c.Tolerance),
		decomposition.WithMaxIterations(c.MaxIterations),
		decomposition.WithRandomizationThreshold(c.RandomizationThreshold),
		decomposition.WithMaxRandomizations(c.MaxRandomizations),
		decomposition.WithRandomizedRadius(c.Radius),
		decomposition.WithLearningRate(c.LearningRate),
		decomposition.WithBatchSize(c.BatchSize),
		decomposition.WithOptimizationBlocks(c.OptimizationBlocks),
		decomposition.WithIterationLoops(c.IterationLoops),
		decomposition.WithLevelLimits(c.LevelLimitMin, c.LevelLimitMax),
		decomposition.WithCompressionRounds(c.CompressionRounds),
		decomposition.WithAcceleratorNum(c.Accelerators),
		decomposition.WithWorkers(c.Workers),
		decomposition.WithSeed(c.Seed),
	}
	if c.Optimizer != "" {
		kind, err := optimizer.ParseKind(c.Optimizer)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidConfig, err.Error())
		}
		opts = append(opts, decomposition.WithOptimizer(kind))
	}
	if c.Topology != nil {
		opts = append(opts, decomposition.WithTopology(c.Topology))
	}
	if _, err = decomposition.Apply(opts...); err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}

	return opts, nil
}

// Logger builds the logger described by c.Log, tagged with the seed.
func (c *Config) Logger() (*zap.Logger, io.Closer, error) {
	l, closer, err := c.Log.Build()
	if err != nil {
		return nil, nil, err
	}

	return l.With(zap.Int64("seed", c.Seed)), closer, nil
}
