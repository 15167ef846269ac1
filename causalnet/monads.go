package causal

import (
	"fmt"

	rng "github.com/leesper/go_rng"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/gorgonia/ops/nn"
	"gorgonia.org/tensor"
)

type maebe struct {
	err error
}

type batchNormOp interface {
	SetTraining()
	SetTesting()
	Reset() error
}

// generic monad... may be useful
func (m *maebe) do(f func() (*G.Node, error)) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	if retVal, m.err = f(); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

func (m *maebe) rectify(input *G.Node) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	if retVal, m.err = nnops.Rectify(input); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

func (m *maebe) reshape(input *G.Node, to tensor.Shape) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	if retVal, m.err = G.Reshape(input, to); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

// builder assembles the network graph. It grows the error monad with the
// build context: the configuration, the seeded init stream, and the batch
// norm ops and causal convolutions collected along the way.
//
// Everything convolutional runs on the time-major folded layout: a window of
// T steps at batch size B is a single [T*B, C, H, W] tensor whose row t*B+b
// is step t of batch member b. Batch norm over the folded tensor is exactly
// volumetric batch norm, and a temporal shift is a row shift.
type builder struct {
	maebe
	Config

	g     *G.ExprGraph
	rnd   *rng.UniformGenerator
	ops   []batchNormOp
	convs []*causalConv
}

func newBuilder(g *G.ExprGraph, conf Config) *builder {
	return &builder{
		Config: conf,
		g:      g,
		rnd:    rng.NewUniformGenerator(conf.Seed),
	}
}

// weight makes a learnable kernel node with seeded Glorot values, or all
// zeroes for a masked future tap.
func (b *builder) weight(shape tensor.Shape, fanIn, fanOut int, zero bool, name string) *G.Node {
	if b.err != nil {
		return nil
	}
	backing := make([]float32, shape.TotalSize())
	if !zero {
		glorotU32(b.rnd, backing, fanIn, fanOut)
	}
	w := tensor.New(tensor.Of(Float), tensor.WithShape(shape...), tensor.WithBacking(backing))
	return G.NewTensor(b.g, Float, shape.Dims(), G.WithShape(shape...), G.WithName(name), G.WithValue(w))
}

// causal builds one causal volumetric convolution over a folded volume. Tap
// k reads time offset k-(kt-2); the trailing (future) tap is created, zeroed
// and registered for remasking, but never wired into the sum, and taps whose
// offset reaches past the start of the window contribute nothing because the
// zero padding is all they would see.
func (b *builder) causal(x *G.Node, steps, filters int, name string) *G.Node {
	if b.err != nil {
		return nil
	}
	features := x.Shape()[1]
	kt, ks := b.TimeKernel, b.SpaceKernel
	shape := tensor.Shape{filters, features, ks, ks}
	fanIn := features * kt * ks * ks
	fanOut := filters * kt * ks * ks

	layer := &causalConv{
		taps:    make([]*G.Node, kt),
		offsets: make([]int, kt),
	}
	for k := 0; k < kt; k++ {
		layer.offsets[k] = k - (kt - 2)
		future := k == kt-1
		layer.taps[k] = b.weight(shape, fanIn, fanOut, future, fmt.Sprintf("%s_t%d", name, k))
	}
	b.convs = append(b.convs, layer)

	padding := findPadding(x.Shape()[2], x.Shape()[3], ks, ks)
	var sum *G.Node
	for k := 0; k < kt-1; k++ {
		off := layer.offsets[k]
		if off <= -steps {
			continue
		}
		shifted := b.shift(x, off, fmt.Sprintf("%s_t%d", name, k))
		y := b.conv2d(shifted, layer.taps[k], ks, padding)
		if sum == nil {
			sum = y
		} else {
			sum = b.add(sum, y)
		}
	}
	return sum
}

// shift slides a folded volume towards the future: row (t,b) of the result
// reads step t+offset, and steps before the window start read zero.
func (b *builder) shift(x *G.Node, offset int, name string) *G.Node {
	if b.err != nil {
		return nil
	}
	if offset == 0 {
		return x
	}
	shp := x.Shape()
	pad := -offset * b.BatchSize
	zeroes := G.NewConstant(
		tensor.New(tensor.Of(Float), tensor.WithShape(pad, shp[1], shp[2], shp[3])),
		G.WithName(name+"_pad"),
	)
	kept := b.rowRange(x, 0, shp[0]-pad)
	return b.do(func() (*G.Node, error) { return G.Concat(0, zeroes, kept) })
}

func (b *builder) conv2d(x, w *G.Node, size int, padding []int) (retVal *G.Node) {
	if b.err != nil {
		return nil
	}
	if retVal, b.err = nnops.Conv2d(x, w, []int{size, size}, padding, []int{1, 1}, []int{1, 1}); b.err != nil {
		b.err = errors.WithStack(b.err)
	}
	return
}

// conv is a plain 2D convolution with its own seeded kernel.
func (b *builder) conv(x *G.Node, filters, size int, name string) *G.Node {
	if b.err != nil {
		return nil
	}
	features := x.Shape()[1]
	padding := findPadding(x.Shape()[2], x.Shape()[3], size, size)
	shape := tensor.Shape{filters, features, size, size}
	filter := b.weight(shape, features*size*size, filters*size*size, false, "Filter"+name)
	return b.conv2d(x, filter, size, padding)
}

func (b *builder) batchnorm(input *G.Node) (retVal *G.Node) {
	if b.err != nil {
		return nil
	}
	var scale, bias *G.Node
	var retOp batchNormOp
	// note: the scale and biases will still be created
	if retVal, scale, bias, retOp, b.err = nnops.BatchNorm(input, nil, nil, 0.997, 1e-5); b.err != nil {
		b.err = errors.WithStack(b.err)
		return
	}
	// the auto-created affine comes with randomized values; pin it to the
	// identity so construction is reproducible from the seed alone
	if scale != nil {
		b.lett(scale, tensor.Ones(Float, scale.Shape()...))
	}
	if bias != nil {
		b.lett(bias, tensor.New(tensor.Of(Float), tensor.WithShape(bias.Shape()...)))
	}
	b.ops = append(b.ops, retOp)
	return
}

func (b *builder) lett(n *G.Node, v tensor.Tensor) {
	if b.err != nil {
		return
	}
	if err := G.Let(n, v); err != nil {
		b.err = errors.WithStack(err)
	}
}

// causalBlock is one causal conv -> batch norm -> ReLU unit.
func (b *builder) causalBlock(x *G.Node, steps, filters int, name string) *G.Node {
	convolved := b.causal(x, steps, filters, name)
	normalized := b.batchnorm(convolved)
	return b.rectify(normalized)
}

// convBlock is one 2D conv -> batch norm -> ReLU unit.
func (b *builder) convBlock(x *G.Node, filters int, name string) *G.Node {
	convolved := b.conv(x, filters, b.SpaceKernel, name)
	normalized := b.batchnorm(convolved)
	return b.rectify(normalized)
}

// timeStep slices frame t out of a [batch, C, T, H, W] window.
func (b *builder) timeStep(x *G.Node, t int) *G.Node {
	return b.do(func() (*G.Node, error) { return G.Slice(x, nil, nil, G.S(t)) })
}

// foldInput rearranges the window into the time-major folded layout.
func (b *builder) foldInput(x *G.Node) *G.Node {
	steps := make([]*G.Node, b.Window)
	for t := range steps {
		steps[t] = b.timeStep(x, t)
	}
	return b.concat0(steps)
}

// inputMax is the per-pixel maximum across the raw window.
func (b *builder) inputMax(x *G.Node) *G.Node {
	retVal := b.timeStep(x, 0)
	for t := 1; t < b.Window; t++ {
		retVal = b.pairMax(retVal, b.timeStep(x, t))
	}
	return retVal
}

// pairMax is elementwise max(a, c), composed as a + ReLU(c-a) so that it
// stays within ops the tape machine executes everywhere.
func (b *builder) pairMax(a, c *G.Node) *G.Node {
	diff := b.do(func() (*G.Node, error) { return G.Sub(c, a) })
	diff = b.rectify(diff)
	return b.add(a, diff)
}

// timeMax is the per-pixel maximum across a folded volume's time steps.
func (b *builder) timeMax(x *G.Node, steps int) *G.Node {
	retVal := b.blockAt(x, 0)
	for t := 1; t < steps; t++ {
		retVal = b.pairMax(retVal, b.blockAt(x, t))
	}
	return retVal
}

// halveTime max-pools adjacent time steps pairwise.
func (b *builder) halveTime(x *G.Node, steps int) *G.Node {
	if b.err != nil {
		return nil
	}
	if steps == 1 {
		return x
	}
	halved := make([]*G.Node, steps/2)
	for i := range halved {
		halved[i] = b.pairMax(b.blockAt(x, 2*i), b.blockAt(x, 2*i+1))
	}
	return b.concat0(halved)
}

// blockAt slices time step t out of a folded volume, rank preserved.
func (b *builder) blockAt(x *G.Node, t int) *G.Node {
	return b.rowRange(x, t*b.BatchSize, (t+1)*b.BatchSize)
}

// rowRange slices rows [from, to) off axis 0. A width-1 range would get its
// axis dropped by the slicing op, so that case goes through a reshape.
func (b *builder) rowRange(x *G.Node, from, to int) *G.Node {
	if b.err != nil {
		return nil
	}
	shp := x.Shape()
	if to-from == 1 {
		row := b.do(func() (*G.Node, error) { return G.Slice(x, G.S(from)) })
		return b.reshape(row, tensor.Shape{1, shp[1], shp[2], shp[3]})
	}
	return b.do(func() (*G.Node, error) { return G.Slice(x, G.S(from, to)) })
}

func (b *builder) concat0(xs []*G.Node) (retVal *G.Node) {
	if b.err != nil {
		return nil
	}
	if len(xs) == 1 {
		return xs[0]
	}
	if retVal, b.err = G.Concat(0, xs...); b.err != nil {
		b.err = errors.WithStack(b.err)
	}
	return
}

// cat concatenates along the channel axis.
func (b *builder) cat(a, c *G.Node) (retVal *G.Node) {
	if b.err != nil {
		return nil
	}
	if retVal, b.err = G.Concat(1, a, c); b.err != nil {
		b.err = errors.WithStack(b.err)
	}
	return
}

func (b *builder) pool2(x *G.Node) (retVal *G.Node) {
	if b.err != nil {
		return nil
	}
	if retVal, b.err = nnops.MaxPool2D(x, tensor.Shape{2, 2}, []int{0, 0}, []int{2, 2}); b.err != nil {
		b.err = errors.WithStack(b.err)
	}
	return
}

func (b *builder) up2(x *G.Node) (retVal *G.Node) {
	if b.err != nil {
		return nil
	}
	if retVal, b.err = G.Upsample2D(x, 2); b.err != nil {
		b.err = errors.WithStack(b.err)
	}
	return
}

func (b *builder) add(a, c *G.Node) (retVal *G.Node) {
	if b.err != nil {
		return nil
	}
	if retVal, b.err = G.Add(a, c); b.err != nil {
		b.err = errors.WithStack(b.err)
	}
	return
}

func (b *builder) sigmoid(x *G.Node) (retVal *G.Node) {
	if b.err != nil {
		return nil
	}
	if retVal, b.err = G.Sigmoid(x); b.err != nil {
		b.err = errors.WithStack(b.err)
	}
	return
}
