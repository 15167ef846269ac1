package causal

import (
	"bytes"
	"encoding/gob"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	G "gorgonia.org/gorgonia"
)

// testConf is the end-to-end scenario configuration: 3 channels, 8 frames of
// 8x8, with small widths to keep the graphs cheap.
func testConf() Config {
	conf := DefaultConf(3, 8)
	conf.Widths = []int{4, 8, 16, 32}
	return conf
}

func TestSanity(t *testing.T) {
	conf := testConf()
	d := New(conf)
	if err := d.Init(); err != nil {
		t.Fatalf("%+v", err)
	}
	t.Logf("Number of nodes: %d", d.g.Nodes().Len())
	prog, _, err := G.Compile(d.g)
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("Requires %d bytes", prog.CPUMemReq())
	runtime.GC()
}

func TestMaskedAtConstruction(t *testing.T) {
	d := New(testConf())
	if err := d.Init(); err != nil {
		t.Fatalf("%+v", err)
	}
	if len(d.convs) == 0 {
		t.Fatal("no causal convolutions were built")
	}
	for i, c := range d.convs {
		if got := c.offsets[len(c.offsets)-1]; got != 1 {
			t.Errorf("conv %d: trailing tap offset %d, want +1", i, got)
		}
		if !c.masked() {
			t.Errorf("conv %d: future tap %q is not zero after construction", i, c.future().Name())
		}
	}
}

func TestMaskSurvivesMutation(t *testing.T) {
	d := New(testConf())
	if err := d.Init(); err != nil {
		t.Fatalf("%+v", err)
	}

	scribble := func(d *Net) {
		for _, c := range d.convs {
			data := c.future().Value().Data().([]float32)
			for i := range data {
				data[i] = 1
			}
		}
	}

	// direct mutation, then Remask
	scribble(d)
	for _, c := range d.convs {
		if c.masked() {
			t.Fatal("scribbling did not take; the test is not testing anything")
		}
	}
	if err := d.Remask(); err != nil {
		t.Fatalf("%+v", err)
	}
	for i, c := range d.convs {
		if !c.masked() {
			t.Errorf("conv %d: future tap is not zero after Remask", i)
		}
	}

	// mutation between inference runs; Infer re-applies the mask itself
	inferer, err := Infer(d, 1, false)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer inferer.Close()

	window := make([]float32, d.Config.inputShape().TotalSize())
	if _, err := inferer.Infer(window); err != nil {
		t.Fatalf("%+v", err)
	}
	scribble(inferer.Net())
	if _, err := inferer.Infer(window); err != nil {
		t.Fatalf("%+v", err)
	}
	for i, c := range inferer.Net().convs {
		if !c.masked() {
			t.Errorf("conv %d: future tap is not zero after a run", i)
		}
	}
	runtime.GC()
}

func TestInferenceSanity(t *testing.T) {
	conf := testConf()
	d := New(conf)
	if err := d.Init(); err != nil {
		t.Fatalf("%+v", err)
	}
	inferer, err := Infer(d, 1, false)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer inferer.Close()

	window := make([]float32, conf.inputShape().TotalSize())
	frame, err := inferer.Infer(window)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	assert.Equal(t, conf.outputShape().TotalSize(), len(frame))
	for i, v := range frame {
		if !(v > 0 && v < 1) {
			t.Fatalf("frame[%d] = %v, want strictly within (0, 1)", i, v)
		}
	}
	runtime.GC()
}

func TestOutputRange(t *testing.T) {
	conf := testConf()
	d := New(conf)
	if err := d.Init(); err != nil {
		t.Fatalf("%+v", err)
	}
	inferer, err := Infer(d, 1, false)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer inferer.Close()

	// wildly out-of-range inputs; the squash must still pin the output
	window := make([]float32, conf.inputShape().TotalSize())
	for i := range window {
		window[i] = float32(i%7-3) * 1e3
	}
	frame, err := inferer.Infer(window)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	for i, v := range frame {
		if !(v > 0 && v < 1) {
			t.Fatalf("frame[%d] = %v, want strictly within (0, 1)", i, v)
		}
	}
	runtime.GC()
}

func TestDeterminism(t *testing.T) {
	conf := testConf()
	window := make([]float32, conf.inputShape().TotalSize())
	for i := range window {
		window[i] = float32(i%11) / 11
	}

	run := func() []float32 {
		d := New(conf)
		if err := d.Init(); err != nil {
			t.Fatalf("%+v", err)
		}
		inferer, err := Infer(d, 1, false)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		defer inferer.Close()
		frame, err := inferer.Infer(window)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		return frame
	}

	fst := run()
	snd := run()
	assert.Equal(t, fst, snd, "two nets built from the same seed should predict bit-identical frames")
	runtime.GC()
}

func TestEncodeDecode(t *testing.T) {
	assert := assert.New(t)
	conf := testConf()
	d := New(conf)
	if err := d.Init(); err != nil {
		t.Fatalf("%+v", err)
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(d); err != nil {
		t.Fatalf("Encoding Failure %v", err)
	}

	// a different seed, so the decoded weights cannot masquerade as freshly
	// initialized ones
	conf2 := conf
	conf2.Seed = 42

	dec := gob.NewDecoder(&buf)
	d2 := New(conf2)
	if err := dec.Decode(d2); err != nil {
		t.Fatalf("Decoding Failure %v", err)
	}

	dmodel := d.Model()
	d2model := d2.Model()
	for i, n := range dmodel {
		fstVal := n.Value()
		sndVal := d2model[i].Value()
		assert.Equal(fstVal.Data(), sndVal.Data(), "%d - %v vs %v should have the same data", i, dmodel[i], d2model[i])
	}
	for i, c := range d2.convs {
		if !c.masked() {
			t.Errorf("conv %d: future tap is not zero after decoding", i)
		}
	}
}

func TestClone(t *testing.T) {
	d := New(testConf())
	if err := d.Init(); err != nil {
		t.Fatalf("%+v", err)
	}
	d2, err := d.Clone()
	if err != nil {
		t.Fatalf("%+v", err)
	}

	model := d.Model()
	model2 := d2.Model()
	assert.Equal(t, model[0].Value().Data(), model2[0].Value().Data())

	// a clone shares no storage with its original
	data := model[0].Value().Data().([]float32)
	data[0] += 42
	cloned := model2[0].Value().Data().([]float32)
	assert.NotEqual(t, data[0], cloned[0], "mutating the original should not touch the clone")
}
