package causal

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// causalConv is one volumetric convolution, factored into per-time-tap 2D
// kernels. Tap k reads time offset k-(kt-2), so the receptive field runs
// from -(kt-2) to +1 and only the trailing tap looks at the future. That
// future tap is the mask target: zero at construction, re-zeroed by remask,
// and never wired into the forward graph, so a corrupted value cannot leak
// into a prediction either way.
type causalConv struct {
	taps    []*G.Node // TimeKernel nodes of [out, in, kh, kw]
	offsets []int     // temporal offset per tap; offsets[len-1] == +1
}

// future returns the masked future tap.
func (c *causalConv) future() *G.Node { return c.taps[len(c.taps)-1] }

// remask zeroes the future tap's backing array in place.
func (c *causalConv) remask() error {
	v, ok := c.future().Value().(*tensor.Dense)
	if !ok {
		return errors.Errorf("cannot mask %q: backing value is %T, want *tensor.Dense", c.future().Name(), c.future().Value())
	}
	v.Zero()
	return nil
}

// masked reports whether the future tap is all zero.
func (c *causalConv) masked() bool {
	data, ok := c.future().Value().Data().([]float32)
	if !ok {
		return false
	}
	for _, v := range data {
		if v != 0 {
			return false
		}
	}
	return true
}

// Remask re-applies the causal mask to every convolution in the network. It
// runs at construction, after any weight mutation (gob decode, hand edits)
// and before every inference run.
func (d *Net) Remask() error {
	for _, c := range d.convs {
		if err := c.remask(); err != nil {
			return err
		}
	}
	return nil
}
