package hypnagogo

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWindowSlide(t *testing.T) {
	const c, W, h, w = 3, 8, 4, 4
	win, err := NewWindow(UniformSeeder(1), c, W, h, w)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if win.Len() != W {
		t.Fatalf("seeded window holds %d frames, want %d", win.Len(), W)
	}

	before := make([][]float32, W)
	for i := range before {
		before[i] = win.Frame(i)
	}

	frame := make([]float32, c*h*w)
	for i := range frame {
		frame[i] = float32(i)
	}
	if err := win.Slide(frame); err != nil {
		t.Fatalf("%+v", err)
	}

	if win.Len() != W {
		t.Errorf("window holds %d frames after Slide, want %d", win.Len(), W)
	}
	for i := 0; i < W-1; i++ {
		if diff := cmp.Diff(before[i+1], win.Frame(i)); diff != "" {
			t.Errorf("frame %d after Slide (-want +got):\n%s", i, diff)
		}
	}
	if diff := cmp.Diff(frame, win.Newest()); diff != "" {
		t.Errorf("newest frame (-want +got):\n%s", diff)
	}

	if err := win.Slide(make([]float32, 3)); err == nil {
		t.Error("expected an error for a malformed frame")
	}
}

func TestWindowPack(t *testing.T) {
	// 2 channels, 2 frames of 1x2: packing groups each channel's planes in
	// frame order
	seed := func(c, t, h, w int) ([][]float32, error) {
		return [][]float32{
			{1, 2, 3, 4}, // frame 0: channel 0 = [1 2], channel 1 = [3 4]
			{5, 6, 7, 8}, // frame 1
		}, nil
	}
	win, err := NewWindow(seed, 2, 2, 1, 2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	want := []float32{1, 2, 5, 6, 3, 4, 7, 8}
	if diff := cmp.Diff(want, win.Pack()); diff != "" {
		t.Errorf("packed window (-want +got):\n%s", diff)
	}
}

func TestNewWindowValidation(t *testing.T) {
	tooFew := func(c, t, h, w int) ([][]float32, error) {
		return make([][]float32, t-1), nil
	}
	if _, err := NewWindow(tooFew, 3, 8, 4, 4); err == nil {
		t.Error("expected an error for a short seed")
	}

	misshapen := func(c, t, h, w int) ([][]float32, error) {
		frames := make([][]float32, t)
		for i := range frames {
			frames[i] = make([]float32, 3)
		}
		return frames, nil
	}
	if _, err := NewWindow(misshapen, 3, 8, 4, 4); err == nil {
		t.Error("expected an error for misshapen seed frames")
	}
}

func TestSeederDeterminism(t *testing.T) {
	fst, err := UniformSeeder(99)(3, 8, 4, 4)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	snd, err := UniformSeeder(99)(3, 8, 4, 4)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if diff := cmp.Diff(fst, snd); diff != "" {
		t.Errorf("same seed, different windows (-fst +snd):\n%s", diff)
	}

	for _, f := range fst {
		for i, v := range f {
			if v < 0 || v >= 1 {
				t.Fatalf("seed value %d = %v, want within [0, 1)", i, v)
			}
		}
	}

	gauss, err := GaussianSeeder(99, 0.25)(3, 8, 4, 4)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	for _, f := range gauss {
		for i, v := range f {
			if v < 0 || v > 1 {
				t.Fatalf("gaussian seed value %d = %v, want within [0, 1]", i, v)
			}
		}
	}
}
