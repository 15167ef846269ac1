package causal

import (
	"bytes"
	"log"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Inferencer is a struct that holds the state for a *Net and a VM. By using
// an Inferencer, there is no longer a need to create a VM every time an
// inference needs to be done.
type Inferencer struct {
	d *Net
	m G.VM

	input *tensor.Dense
	buf   *bytes.Buffer
}

// Infer takes a *Net and creates an inference data structure at the given
// batch size. The weights are copied, so the source net can be mutated or
// thrown away afterwards.
func Infer(d *Net, batchSize int, toLog bool) (*Inferencer, error) {
	conf := d.Config
	conf.BatchSize = batchSize
	retVal := &Inferencer{
		d:     New(conf),
		input: tensor.New(tensor.WithShape(conf.inputShape()...), tensor.Of(Float)),
	}
	if err := retVal.d.Init(); err != nil {
		return nil, err
	}

	infModel := retVal.d.Model()
	for i, n := range d.Model() {
		original := n.Value().Data().([]float32)
		cloned := infModel[i].Value().Data().([]float32)
		copy(cloned, original)
	}
	if err := retVal.d.Remask(); err != nil {
		return nil, err
	}

	retVal.buf = new(bytes.Buffer)
	if toLog {
		logger := log.New(retVal.buf, "", 0)
		retVal.m = G.NewTapeMachine(retVal.d.g,
			G.WithLogger(logger),
			G.WithWatchlist(),
			G.TraceExec(),
			G.WithValueFmt("%+1.1v"),
			G.WithNaNWatch(),
		)
	} else {
		retVal.m = G.NewTapeMachine(retVal.d.g)
	}
	return retVal, nil
}

// Net returns the underlying network.
func (m *Inferencer) Net() *Net { return m.d }

// Infer takes a window, in form of a []float32, runs inference, and returns
// the predicted frame as a fresh []float32 of batch * channels * height *
// width values. The returned slice does not alias the VM's buffers, so it
// stays valid across subsequent calls.
func (m *Inferencer) Infer(window []float32) ([]float32, error) {
	if len(window) != m.input.Shape().TotalSize() {
		return nil, errors.Errorf("bad window: got %d values, want %d for shape %v", len(window), m.input.Shape().TotalSize(), m.input.Shape())
	}
	m.buf.Reset()
	// the mask is re-applied before the weights are used, whatever happened
	// to them since the last run
	if err := m.d.Remask(); err != nil {
		return nil, err
	}
	for _, op := range m.d.ops {
		op.Reset()
	}

	// copy the window to the preallocated input tensor
	m.input.Zero()
	data := m.input.Data().([]float32)
	copy(data, window)

	m.m.Reset()
	G.Let(m.d.window, m.input)
	if err := m.m.RunAll(); err != nil {
		return nil, err
	}

	frame := m.d.frame.Data().([]float32)
	retVal := make([]float32, len(frame))
	copy(retVal, frame)
	return retVal, nil
}

// ExecLog returns the execution log. If Infer was called with toLog = false, then it will return an empty string
func (m *Inferencer) ExecLog() string { return m.buf.String() }

// Close implements a closer, because well, a gorgonia VM is a resource.
func (m *Inferencer) Close() error { return m.m.Close() }
