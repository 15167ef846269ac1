package causal

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
)

var Float = G.Float32

// Net is the causal video network: a U-shaped encoder/decoder over a window
// of frames, where every volumetric convolution is masked so no output ever
// reads a future frame, and the prediction is a squashed residual on top of
// the window's per-pixel maximum.
type Net struct {
	Config
	ops   []batchNormOp
	convs []*causalConv

	g      *G.ExprGraph
	window *G.Node // [batch, channels, time, height, width] input
	out    *G.Node // [batch, channels, height, width] prediction

	frame G.Value // the predicted frame
}

// New returns a new, uninitialized *Net.
func New(conf Config) *Net {
	retVal := &Net{
		Config: conf,
	}
	return retVal
}

func (d *Net) Init() error {
	if err := d.Config.check(); err != nil {
		return err
	}
	d.reset()
	d.g = G.NewGraph()
	if err := d.fwd(); err != nil {
		return err
	}
	return d.Remask()
}

func (d *Net) fwd() error {
	d.window = G.NewTensor(d.g, Float, 5, G.WithShape(d.inputShape()...), G.WithName("Window"))

	b := newBuilder(d.g, d.Config)

	// the baseline the decoder writes its residual onto: per-pixel max over
	// the raw window
	baseline := b.inputMax(d.window)

	// encoder: everything happens on the time-major folded volume
	x := b.foldInput(d.window)
	steps := d.Window
	skips := make([]*G.Node, 0, b.pools())
	for i, k := range d.Widths {
		name := fmt.Sprintf("Enc%d", i)
		x = b.causalBlock(x, steps, k, name+"a")
		x = b.causalBlock(x, steps, k, name+"b")
		if i == len(d.Widths)-1 {
			break
		}
		skips = append(skips, b.timeMax(x, steps))
		x = b.pool2(x)
		x = b.halveTime(x, steps)
		steps /= 2
	}

	// bridge: the deepest stage must sit at exactly one time step, at which
	// point the folded volume is already the 2D bridge feature
	if b.err == nil && steps != 1 {
		return errors.Errorf("deepest stage sits at %d time steps, want exactly 1: a window of %d frames does not fit the pooling schedule", steps, d.Window)
	}

	// decoder: upsample, halve the filters, fuse with the skip feature
	for i := len(d.Widths) - 2; i >= 0; i-- {
		k := d.Widths[i]
		name := fmt.Sprintf("Dec%d", i)
		x = b.up2(x)
		x = b.convBlock(x, k, name+"up")
		x = b.cat(x, skips[i])
		x = b.convBlock(x, k, name+"fuse1")
		x = b.convBlock(x, k, name+"fuse2")
	}

	// plain 1x1 projection back to frame channels, then the residual squash
	out := b.conv(x, d.InChannels, 1, "Frame")
	out = b.add(out, baseline)
	out = b.sigmoid(out)
	if b.err != nil {
		return b.err
	}

	d.out = out
	G.Read(d.out, &d.frame)
	d.ops = b.ops
	d.convs = b.convs
	return nil
}

func (d *Net) Model() G.Nodes {
	retVal := make(G.Nodes, 0, d.g.Nodes().Len())
	for _, n := range d.g.AllNodes() {
		if n.IsVar() && n != d.window {
			retVal = append(retVal, n)
		}
	}
	return retVal
}

// SetTesting switches the batch norm ops to their running statistics. Fresh
// nets have no accumulated statistics, so this is only useful after loading
// trained weights; generation defaults to batch statistics.
func (d *Net) SetTesting() {
	for _, op := range d.ops {
		op.SetTesting()
	}
}

// Clone makes an independent copy: same configuration, fresh graph, copied
// weight storage.
func (d *Net) Clone() (*Net, error) {
	d2 := New(d.Config)
	if err := d2.Init(); err != nil {
		return nil, err
	}

	model := d.Model()
	model2 := d2.Model()
	for i, n := range model {
		original := n.Value().Data().([]float32)
		cloned := model2[i].Value().Data().([]float32)
		copy(cloned, original)
	}

	return d2, nil
}

func (d *Net) reset() {
	d.ops = nil
	d.convs = nil
	d.g = nil

	d.window = nil
	d.out = nil
}

func (d *Net) GobEncode() (retVal []byte, err error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	for _, n := range d.Model() {
		v := n.Value()
		if err = enc.Encode(&v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (d *Net) GobDecode(p []byte) error {
	d.reset()
	if err := d.Init(); err != nil {
		return err
	}

	buf := bytes.NewBuffer(p)
	dec := gob.NewDecoder(buf)
	for _, n := range d.Model() {
		var v G.Value
		if err := dec.Decode(&v); err != nil {
			return err
		}
		if err := G.Let(n, v); err != nil {
			return err
		}
	}
	// whatever was decoded, the mask holds
	return d.Remask()
}
