// SPDX-License-Identifier: MIT
// Package decomposition: adaptive search.
//
// Stages:
//   - Levels: a level-L structure holds L adaptive sweeps followed by a
//     finalizing U3 layer. Each level is optimized from a random and a
//     close-to-zero guess in parallel; the first converged level wins.
//   - Compression: remove one top-level layer at a time, re-optimize, keep
//     the removal with the fewest entangling gates that still converges.
//   - Native replacement: every adaptive gate becomes native gates.
//   - Final optimization at the user tolerance.

package decomposition

import (
	"math"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/qgd/gate"
	"github.com/katalvlaran/qgd/optimizer"
)

const (
	// compressionPatience ends compression after this many rounds in a row
	// without a removal.
	compressionPatience = 3

	// compressionRandomizations caps perturbations of a removal attempt.
	compressionRandomizations = 5
)

// candidate is a solved structure.
type candidate struct {
	structure *gate.Block
	sol       solution
}

func (d *Decomposition) runAdaptive() error {
	var (
		best *candidate
		err  error
	)
	if d.structure != nil {
		best, err = d.optimizeImported()
	} else {
		best, err = d.determineInitialStructure()
	}
	if err != nil {
		return err
	}
	d.accept(best.structure, best.sol)

	if best, err = d.compress(best); err != nil {
		return err
	}

	d.tolerance = d.opts.Tolerance
	native, params, err := replaceAdaptive(best.structure, best.sol.params)
	if err != nil {
		return err
	}
	d.log.Info("final tuning",
		zap.Int("layers", native.Len()),
		zap.Stringer("gates", native.Counts()),
	)
	sol, err := d.solve(native, params, d.tolerance, d.nextSeed())
	if err != nil {
		return err
	}
	d.accept(native, sol)

	return nil
}

// optimizeImported optimizes an imported or hand-built structure from the
// stored parameters or a random guess.
func (d *Decomposition) optimizeImported() (*candidate, error) {
	s := d.structure
	x0 := d.params
	if len(x0) != s.ParameterNum() {
		x0 = randomGuess(optimizer.NewRand(d.nextSeed()), s.ParameterNum())
	}
	sol, err := d.solve(s, x0, d.tolerance, d.nextSeed())
	if err != nil {
		return nil, err
	}
	if sol.cost >= d.tolerance {
		d.relaxTolerance(sol.cost)
	}

	return &candidate{structure: s, sol: sol}, nil
}

// determineInitialStructure tries levels from LevelLimitMin to LevelLimitMax
// and returns the first converged one, or the best if none converges.
func (d *Decomposition) determineInitialStructure() (*candidate, error) {
	var best *candidate
	for level := d.opts.LevelLimitMin; level <= d.opts.LevelLimitMax; level++ {
		s, err := d.buildLevel(level)
		if err != nil {
			return nil, err
		}
		c, err := d.optimizeLevel(s)
		if err != nil {
			return nil, err
		}
		d.iterations += c.sol.iterations
		d.randomizations += c.sol.randomizations
		converged := c.sol.cost < d.tolerance
		d.log.Info("level optimized",
			zap.Int("level", level),
			zap.Int("layers", s.Len()),
			zap.Float64("cost", c.sol.cost),
			zap.Bool("converged", converged),
		)
		if best == nil || c.sol.cost < best.sol.cost {
			best = c
		}
		if converged {
			break
		}
	}
	if best.sol.cost >= d.tolerance {
		d.relaxTolerance(best.sol.cost)
	}
	// accept adds the winner's counters again.
	best.sol.iterations, best.sol.randomizations = 0, 0

	return best, nil
}

func (d *Decomposition) buildLevel(level int) (*gate.Block, error) {
	s, err := gate.NewBlock(d.qubitNum)
	if err != nil {
		return nil, err
	}
	for i := 0; i < level; i++ {
		if err = d.appendAdaptiveSweep(s); err != nil {
			return nil, err
		}
	}
	if err = d.appendFinalizingLayer(s); err != nil {
		return nil, err
	}

	return s, nil
}

// appendAdaptiveSweep appends one layer {U3(t), U3(c), Adaptive(t,c)} per
// allowed pair, for c from n-1 down to 1 and t from 0 to c-1.
func (d *Decomposition) appendAdaptiveSweep(s *gate.Block) error {
	n := d.qubitNum
	for c := n - 1; c >= 1; c-- {
		for t := 0; t < c; t++ {
			if !d.top.Allowed(t, c) {
				continue
			}
			layer, err := gate.NewBlock(n)
			if err != nil {
				return err
			}
			if err = layer.AddU3(t, true, true, true); err != nil {
				return err
			}
			if err = layer.AddU3(c, true, true, true); err != nil {
				return err
			}
			if err = layer.AddAdaptive(t, c); err != nil {
				return err
			}
			if err = s.AddBlock(layer); err != nil {
				return err
			}
		}
	}

	return nil
}

// appendFinalizingLayer appends a U3 rotation on every qubit as one layer.
func (d *Decomposition) appendFinalizingLayer(s *gate.Block) error {
	layer, err := gate.NewBlock(d.qubitNum)
	if err != nil {
		return err
	}
	for q := 0; q < d.qubitNum; q++ {
		if err = layer.AddU3(q, true, true, true); err != nil {
			return err
		}
	}

	return s.AddBlock(layer)
}

// optimizeLevel runs the random and close-to-zero initial guesses
// concurrently and keeps the better outcome. When both converge the one
// with fewer entangling gates wins, the random guess on a tie.
func (d *Decomposition) optimizeLevel(s *gate.Block) (*candidate, error) {
	n := s.ParameterNum()
	seeds := [2]int64{d.nextSeed(), d.nextSeed()}
	guesses := [2][]float64{
		randomGuess(optimizer.NewRand(seeds[0]), n),
		closeToZeroGuess(optimizer.NewRand(seeds[1]), n),
	}
	var sols [2]solution

	g := new(errgroup.Group)
	g.SetLimit(d.opts.Workers)
	for i := range sols {
		i := i
		g.Go(func() error {
			sol, err := d.solve(s, guesses[i], d.tolerance, seeds[i])
			sols[i] = sol
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pick := 0
	randomOK, zeroOK := sols[0].cost < d.tolerance, sols[1].cost < d.tolerance
	switch {
	case randomOK && zeroOK:
		if penalty(s, sols[1].params) < penalty(s, sols[0].params) {
			pick = 1
		}
	case zeroOK:
		pick = 1
	case !randomOK && sols[1].cost < sols[0].cost:
		pick = 1
	}
	out := &candidate{structure: s, sol: sols[pick]}
	out.sol.iterations = sols[0].iterations + sols[1].iterations
	out.sol.randomizations = sols[0].randomizations + sols[1].randomizations

	return out, nil
}

// compress repeatedly tries to drop top-level layers of c. The last layer
// (the finalizing rotations) is never removed.
func (d *Decomposition) compress(c *candidate) (*candidate, error) {
	stale := 0
	for round := 0; round < d.opts.CompressionRounds && stale < compressionPatience; round++ {
		next, err := d.compressOnce(c)
		if err != nil {
			return nil, err
		}
		if next == nil {
			stale++
			continue
		}
		stale = 0
		d.iterations += next.sol.iterations
		d.randomizations += next.sol.randomizations
		d.log.Debug("gate structure compressed",
			zap.Int("round", round),
			zap.Int("from", c.structure.Len()),
			zap.Int("to", next.structure.Len()),
			zap.Float64("cost", next.sol.cost),
		)
		c = next
	}
	if c.structure != d.structure {
		d.structure, d.params, d.current = c.structure, c.sol.params, c.sol.cost
	}

	return c, nil
}

// compressOnce tries removing each of a bounded random subset of layers in
// parallel and returns the best converged reduction, or nil.
func (d *Decomposition) compressOnce(c *candidate) (*candidate, error) {
	removable := c.structure.Len() - 1
	if removable < 1 {
		return nil, nil
	}
	limit := 10
	switch {
	case removable >= 60:
		limit = 2
	case removable >= 50:
		limit = 4
	}
	idx := make([]int, removable)
	for i := range idx {
		idx[i] = i
	}
	rng := optimizer.NewRand(d.nextSeed())
	rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	if len(idx) > limit {
		idx = idx[:limit]
	}
	sort.Ints(idx)

	seeds := make([]int64, len(idx))
	for i := range seeds {
		seeds[i] = d.nextSeed()
	}
	results := make([]*candidate, len(idx))

	g := new(errgroup.Group)
	g.SetLimit(d.opts.Workers)
	for i, layer := range idx {
		i, layer := i, layer
		g.Go(func() error {
			reduced := c.structure.Clone()
			if err := reduced.RemoveNode(layer); err != nil {
				return err
			}
			lo, _ := c.structure.ParameterOffset(layer)
			hi, _ := c.structure.ParameterOffset(layer + 1)
			x0 := append(append([]float64(nil), c.sol.params[:lo]...), c.sol.params[hi:]...)
			sol, err := d.solve(reduced, x0, d.tolerance, seeds[i],
				optimizer.WithMaxRandomizations(min(d.opts.MaxRandomizations, compressionRandomizations)))
			if err != nil {
				return err
			}
			if sol.cost < d.tolerance {
				results[i] = &candidate{structure: reduced, sol: sol}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var best *candidate
	bestPenalty := math.MaxInt
	for _, r := range results {
		if r == nil {
			continue
		}
		p := penalty(r.structure, r.sol.params)
		if p < bestPenalty || (p == bestPenalty && r.sol.cost < best.sol.cost) {
			best, bestPenalty = r, p
		}
	}

	return best, nil
}

// adaptiveClass is the native form an adaptive gate reduces to.
type adaptiveClass uint8

const (
	adaptiveIdentity adaptiveClass = iota // cos(θ/2) ≈ 1
	adaptivePhase                         // cos(θ/2) ≈ -1: Z on the control
	adaptiveCZ                            // sin(θ/2) ≈ ±1: one CZ
	adaptiveGeneral                       // two CNOTs
)

// trivialAngleTol is the distance from ±1 below which a trigonometric value
// of the half angle counts as exact.
const trivialAngleTol = 1e-6

func classifyAdaptive(theta float64) adaptiveClass {
	c, s := math.Cos(theta/2), math.Sin(theta/2)
	switch {
	case 1-c < trivialAngleTol:
		return adaptiveIdentity
	case 1+c < trivialAngleTol:
		return adaptivePhase
	case 1-math.Abs(s) < trivialAngleTol:
		return adaptiveCZ
	}

	return adaptiveGeneral
}

// penalty counts the entangling gates of s after native replacement.
func penalty(s *gate.Block, params []float64) int {
	p := 0
	for _, e := range s.Flatten() {
		switch {
		case e.Gate.Kind() == gate.Adaptive:
			switch classifyAdaptive(params[e.Offset]) {
			case adaptiveCZ:
				p++
			case adaptiveGeneral:
				p += 2
			}
		case e.Gate.Kind().TwoQubit():
			p++
		}
	}

	return p
}

// replaceAdaptive rebuilds s with every adaptive gate expressed in native
// gates and returns the matching parameter vector. The circuit is unchanged
// up to global phase (exactly, apart from the trivial-angle tolerance).
func replaceAdaptive(s *gate.Block, params []float64) (*gate.Block, []float64, error) {
	out, err := gate.NewBlock(s.QubitNum())
	if err != nil {
		return nil, nil, err
	}
	var outParams []float64
	off := 0
	for _, nd := range s.Nodes() {
		k := nd.ParameterNum()
		p := params[off : off+k]
		off += k
		switch v := nd.(type) {
		case *gate.Block:
			child, cp, err := replaceAdaptive(v, p)
			if err != nil {
				return nil, nil, err
			}
			if child.Len() == 0 {
				continue
			}
			if err = out.AddBlock(child); err != nil {
				return nil, nil, err
			}
			outParams = append(outParams, cp...)
		case *gate.Gate:
			if v.Kind() != gate.Adaptive {
				if err = out.AddGate(v.Clone()); err != nil {
					return nil, nil, err
				}
				outParams = append(outParams, p...)
				continue
			}
			gp, err := appendNativeAdaptive(out, v, p[0])
			if err != nil {
				return nil, nil, err
			}
			outParams = append(outParams, gp...)
		}
	}

	return out, outParams, nil
}

// appendNativeAdaptive appends the native equivalent of the adaptive gate g
// at angle theta to b and returns the parameters of the appended gates.
//
//	identity: nothing
//	phase:    RZ_c(π)
//	CZ:       RX_t(-π/2) · CZ · RX_t(π/2) · RZ_c(±π/2)
//	general:  RY_t(θ/2) · CNOT · RY_t(-θ/2) · CNOT
func appendNativeAdaptive(b *gate.Block, g *gate.Gate, theta float64) ([]float64, error) {
	t, c := g.Target(), g.Control()
	type step struct {
		kind            gate.Kind
		target, control int
		param           []float64
	}
	var steps []step
	switch classifyAdaptive(theta) {
	case adaptiveIdentity:
		return nil, nil
	case adaptivePhase:
		steps = []step{{gate.RZ, c, gate.NoQubit, []float64{math.Pi}}}
	case adaptiveCZ:
		sign := math.Copysign(1, math.Sin(theta/2))
		steps = []step{
			{gate.RX, t, gate.NoQubit, []float64{-math.Pi / 2}},
			{gate.CZ, t, c, nil},
			{gate.RX, t, gate.NoQubit, []float64{math.Pi / 2}},
			{gate.RZ, c, gate.NoQubit, []float64{sign * math.Pi / 2}},
		}
	default:
		steps = []step{
			{gate.RY, t, gate.NoQubit, []float64{theta / 2}},
			{gate.CNOT, t, c, nil},
			{gate.RY, t, gate.NoQubit, []float64{-theta / 2}},
			{gate.CNOT, t, c, nil},
		}
	}

	var params []float64
	for _, st := range steps {
		ng, err := gate.New(st.kind, b.QubitNum(), st.target, st.control)
		if err != nil {
			return nil, err
		}
		if err = b.AddGate(ng); err != nil {
			return nil, err
		}
		params = append(params, st.param...)
	}

	return params, nil
}
