// SPDX-License-Identifier: MIT

package decomposition

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/katalvlaran/qgd/gate"
)

// Exporter receives the gates of a decomposition one by one, in application
// order, and produces a circuit representation C. Add returns an error
// wrapping ErrUnsupportedGateExport for gates it cannot express.
type Exporter[C any] interface {
	Add(r gate.Record) error
	Circuit() C
}

// PrepareGatesToExport binds the current parameters to the structure and
// caches the flattened gate list returned by Export.
func (d *Decomposition) PrepareGatesToExport() ([]gate.Record, error) {
	if d.structure == nil {
		return nil, errors.Wrap(ErrNoStructure, "PrepareGatesToExport")
	}
	recs, err := d.structure.Records(d.params)
	if err != nil {
		return nil, errors.Wrap(err, "PrepareGatesToExport")
	}
	d.exported = recs

	return cloneRecords(recs), nil
}

// Export returns the gate list prepared by the last run, or nil.
func (d *Decomposition) Export() []gate.Record {
	return cloneRecords(d.exported)
}

// ExportWith feeds the prepared gate list to x. If any gate is unsupported
// the zero circuit is returned with an error listing how many were rejected;
// each rejected gate is logged.
func ExportWith[C any](d *Decomposition, x Exporter[C]) (C, error) {
	var zero C
	recs := d.exported
	if recs == nil {
		var err error
		if recs, err = d.PrepareGatesToExport(); err != nil {
			return zero, err
		}
	}
	rejected := 0
	for i, r := range recs {
		if err := x.Add(r); err != nil {
			if !errors.Is(err, ErrUnsupportedGateExport) {
				return zero, errors.Wrapf(err, "ExportWith: gate %d", i)
			}
			rejected++
			d.log.Warn("gate not exportable",
				zap.Int("index", i),
				zap.Stringer("gate", r),
			)
		}
	}
	if rejected > 0 {
		return zero, errors.Wrapf(ErrUnsupportedGateExport, "ExportWith: %d of %d gates", rejected, len(recs))
	}

	return x.Circuit(), nil
}

// TextExporter renders gates as lines such as "CNOT(t=1,c=0)". A nil
// Supported set accepts every kind.
type TextExporter struct {
	Supported map[gate.Kind]bool
	lines     []string
}

// Add implements Exporter.
func (t *TextExporter) Add(r gate.Record) error {
	if t.Supported != nil && !t.Supported[r.Kind] {
		return errors.Wrapf(ErrUnsupportedGateExport, "%v", r.Kind)
	}
	t.lines = append(t.lines, r.String())

	return nil
}

// Circuit implements Exporter.
func (t *TextExporter) Circuit() []string {
	return append([]string(nil), t.lines...)
}

func cloneRecords(in []gate.Record) []gate.Record {
	if in == nil {
		return nil
	}
	out := make([]gate.Record, len(in))
	for i, r := range in {
		r.Params = append([]float64(nil), r.Params...)
		out[i] = r
	}

	return out
}
