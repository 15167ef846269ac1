package hypnagogo

import (
	"github.com/pkg/errors"
)

// Window is the temporal window: exactly t frames, oldest at index 0. It is
// owned by the generation loop and mutated in place between ticks; nothing
// else reads or writes it while the loop runs.
type Window struct {
	frames [][]float32 // t frames of c*h*w floats, CHW layout
	c      int
	t      int
	h, w   int

	packed []float32 // scratch for Pack
}

// NewWindow seeds a window of exactly t frames.
func NewWindow(seed Seeder, c, t, h, w int) (*Window, error) {
	frames, err := seed(c, t, h, w)
	if err != nil {
		return nil, errors.Wrap(err, "seeding window")
	}
	if len(frames) != t {
		return nil, errors.Errorf("seeder supplied %d frames, want exactly %d", len(frames), t)
	}
	for i, f := range frames {
		if len(f) != c*h*w {
			return nil, errors.Errorf("seed frame %d has %d values, want %d (%d channels of %dx%d)", i, len(f), c*h*w, c, h, w)
		}
	}
	return &Window{
		frames: frames,
		c:      c,
		t:      t,
		h:      h,
		w:      w,
		packed: make([]float32, c*t*h*w),
	}, nil
}

func (w *Window) Len() int { return len(w.frames) }

// Frame returns the i-th oldest frame. The returned slice is the window's
// own storage and must not be modified.
func (w *Window) Frame(i int) []float32 { return w.frames[i] }

// Newest returns the most recent frame.
func (w *Window) Newest() []float32 { return w.frames[len(w.frames)-1] }

// Slide drops the oldest frame and appends frame as the newest. The window
// takes ownership of the slice. Length is preserved.
func (w *Window) Slide(frame []float32) error {
	if len(frame) != w.c*w.h*w.w {
		return errors.Errorf("bad frame: got %d values, want %d", len(frame), w.c*w.h*w.w)
	}
	copy(w.frames, w.frames[1:])
	w.frames[len(w.frames)-1] = frame
	return nil
}

// Pack lays the window out as a [1, c, t, h, w] input: for each channel, the
// t per-frame planes in order. The returned slice is reused across calls.
func (w *Window) Pack() []float32 {
	hw := w.h * w.w
	for c := 0; c < w.c; c++ {
		for t, f := range w.frames {
			copy(w.packed[(c*w.t+t)*hw:(c*w.t+t+1)*hw], f[c*hw:(c+1)*hw])
		}
	}
	return w.packed
}
