// SPDX-License-Identifier: MIT
// Package gate: binary codec for gate structures.
//
// Layout (little-endian):
//
//	"QGDS" | version u8 | snappy stream {
//	    qubitNum u16
//	    block   := count u32, count × node
//	    node    := tag u8 (0 gate, 1 block), gate | block
//	    gate    := kind u8, target i16, control i16, free-mask u8
//	    params  := count u32, count × f64
//	}
//
// The params section may be empty (count 0) when only the structure is stored.

package gate

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/golang/snappy"
)

const (
	codecVersion  uint8 = 1
	tagGate       uint8 = 0
	tagBlock      uint8 = 1
	maxCodecNodes       = 1 << 20
	maxCodecDepth       = 64
)

var codecMagic = [4]byte{'Q', 'G', 'D', 'S'}

// EncodeBlock writes b and, when non-nil, its parameter vector to w.
func EncodeBlock(w io.Writer, b *Block, params []float64) error {
	if b == nil {
		return fmt.Errorf("EncodeBlock: nil block: %w", ErrCorruptStructure)
	}
	if params != nil && len(params) != b.ParameterNum() {
		return fmt.Errorf("EncodeBlock: got %d want %d: %w", len(params), b.ParameterNum(), ErrParameterCount)
	}
	if _, err := w.Write(append(codecMagic[:], codecVersion)); err != nil {
		return fmt.Errorf("EncodeBlock: %w", err)
	}

	sw := snappy.NewBufferedWriter(w)
	var buf bytes.Buffer
	le := binary.LittleEndian
	_ = binary.Write(&buf, le, uint16(b.qubitNum))
	encodeNodes(&buf, b)
	_ = binary.Write(&buf, le, uint32(len(params)))
	for _, p := range params {
		_ = binary.Write(&buf, le, p)
	}
	if _, err := sw.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("EncodeBlock: %w", err)
	}
	if err := sw.Close(); err != nil {
		return fmt.Errorf("EncodeBlock: %w", err)
	}

	return nil
}

// encodeNodes writes into a bytes.Buffer, whose writes never fail.
func encodeNodes(buf *bytes.Buffer, b *Block) {
	le := binary.LittleEndian
	_ = binary.Write(buf, le, uint32(len(b.nodes)))
	for _, nd := range b.nodes {
		switch n := nd.(type) {
		case *Gate:
			var mask uint8
			for i, f := range n.free {
				if f {
					mask |= 1 << i
				}
			}
			buf.WriteByte(tagGate)
			_ = binary.Write(buf, le, struct {
				Kind    uint8
				Target  int16
				Control int16
				Free    uint8
			}{uint8(n.kind), int16(n.target), int16(n.control), mask})
		case *Block:
			buf.WriteByte(tagBlock)
			encodeNodes(buf, n)
		}
	}
}

// DecodeBlock reads a structure written by EncodeBlock. params is nil when
// the stream carries no parameter vector.
func DecodeBlock(r io.Reader) (*Block, []float64, error) {
	var hdr [5]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, nil, fmt.Errorf("DecodeBlock: header: %w", err)
	}
	if !bytes.Equal(hdr[:4], codecMagic[:]) || hdr[4] != codecVersion {
		return nil, nil, fmt.Errorf("DecodeBlock: bad header %q: %w", hdr[:], ErrCorruptStructure)
	}

	d := &decoder{r: snappy.NewReader(r)}
	var qn uint16
	d.read(&qn)
	if d.err != nil {
		return nil, nil, d.fail()
	}
	b, err := NewBlock(int(qn))
	if err != nil {
		return nil, nil, fmt.Errorf("DecodeBlock: %w", ErrCorruptStructure)
	}
	d.decodeNodes(b, 0)
	if d.err != nil {
		return nil, nil, d.fail()
	}

	var count uint32
	d.read(&count)
	if d.err != nil {
		return nil, nil, d.fail()
	}
	if count == 0 {
		return b, nil, nil
	}
	if int(count) != b.ParameterNum() {
		return nil, nil, fmt.Errorf("DecodeBlock: %d params for %d slots: %w", count, b.ParameterNum(), ErrCorruptStructure)
	}
	params := make([]float64, count)
	d.read(params)
	if d.err != nil {
		return nil, nil, d.fail()
	}

	return b, params, nil
}

type decoder struct {
	r     io.Reader
	nodes int
	err   error
}

func (d *decoder) read(v any) {
	if d.err == nil {
		d.err = binary.Read(d.r, binary.LittleEndian, v)
	}
}

func (d *decoder) fail() error {
	return fmt.Errorf("DecodeBlock: %w: %w", ErrCorruptStructure, d.err)
}

func (d *decoder) decodeNodes(b *Block, depth int) {
	if depth > maxCodecDepth {
		d.err = fmt.Errorf("nesting deeper than %d", maxCodecDepth)
		return
	}
	var count uint32
	d.read(&count)
	for i := uint32(0); i < count && d.err == nil; i++ {
		if d.nodes++; d.nodes > maxCodecNodes {
			d.err = fmt.Errorf("more than %d nodes", maxCodecNodes)
			return
		}
		var tag uint8
		d.read(&tag)
		if d.err != nil {
			return
		}
		switch tag {
		case tagGate:
			var rec struct {
				Kind    uint8
				Target  int16
				Control int16
				Free    uint8
			}
			d.read(&rec)
			if d.err != nil {
				return
			}
			g, err := New(Kind(rec.Kind), b.qubitNum, int(rec.Target), int(rec.Control))
			if err != nil {
				d.err = err
				return
			}
			if g.kind == U3 {
				g.free = [3]bool{rec.Free&1 != 0, rec.Free&2 != 0, rec.Free&4 != 0}
			}
			b.nodes = append(b.nodes, g)
		case tagBlock:
			child := &Block{qubitNum: b.qubitNum}
			d.decodeNodes(child, depth+1)
			b.nodes = append(b.nodes, child)
		default:
			d.err = fmt.Errorf("unknown node tag %d", tag)
		}
	}
}
