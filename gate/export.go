// SPDX-License-Identifier: MIT

package gate

import (
	"fmt"
	"strings"
)

// Record is one gate of a flattened structure with its angles bound.
// Control is NoQubit for single-qubit kinds. Params holds the full angle list
// of the kind: (θ, φ, λ) for U3, one angle for rotations, none otherwise.
type Record struct {
	Kind    Kind
	Target  int
	Control int
	Params  []float64
}

// String renders the record as e.g. "CNOT(t=0,c=1)" or "RY(t=2)[0.5]".
func (r Record) String() string {
	var sb strings.Builder
	sb.WriteString(r.Kind.String())
	if r.Control == NoQubit {
		fmt.Fprintf(&sb, "(t=%d)", r.Target)
	} else {
		fmt.Fprintf(&sb, "(t=%d,c=%d)", r.Target, r.Control)
	}
	if len(r.Params) > 0 {
		sb.WriteByte('[')
		for i, p := range r.Params {
			if i > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "%.6g", p)
		}
		sb.WriteByte(']')
	}

	return sb.String()
}

// Records binds params to the flattened structure and returns the gates in
// application order.
func (b *Block) Records(params []float64) ([]Record, error) {
	if len(params) != b.ParameterNum() {
		return nil, fmt.Errorf("Block.Records: got %d want %d: %w", len(params), b.ParameterNum(), ErrParameterCount)
	}
	elems := b.Flatten()
	out := make([]Record, 0, len(elems))
	for _, e := range elems {
		angles, err := e.Gate.Angles(e.Params(params))
		if err != nil {
			return nil, err
		}
		out = append(out, Record{
			Kind:    e.Gate.kind,
			Target:  e.Gate.target,
			Control: e.Gate.control,
			Params:  angles,
		})
	}

	return out, nil
}

// FromRecords rebuilds a structure from records. Every angle becomes a free
// parameter, so the returned vector reproduces the records exactly.
func FromRecords(qubitNum int, records []Record) (*Block, []float64, error) {
	b, err := NewBlock(qubitNum)
	if err != nil {
		return nil, nil, err
	}
	var params []float64
	for i, r := range records {
		g, err := New(r.Kind, qubitNum, r.Target, r.Control)
		if err != nil {
			return nil, nil, fmt.Errorf("FromRecords[%d]: %w", i, err)
		}
		if len(r.Params) != g.ParameterNum() {
			return nil, nil, fmt.Errorf("FromRecords[%d] %v: got %d angles want %d: %w",
				i, r.Kind, len(r.Params), g.ParameterNum(), ErrParameterCount)
		}
		b.nodes = append(b.nodes, g)
		params = append(params, r.Params...)
	}

	return b, params, nil
}
