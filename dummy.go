package hypnagogo

import "github.com/pkg/errors"

// dummyInferer is a deterministic stand-in for the network: it predicts the
// newest frame of the window, unchanged. Useful for hermetic loop tests and
// for demoing the loop without paying for inference.
type dummyInferer struct {
	channels, window, height, width int
}

func (d dummyInferer) Infer(a []float32) ([]float32, error) {
	hw := d.height * d.width
	if len(a) != d.channels*d.window*hw {
		return nil, errors.Errorf("bad window: got %d values, want %d", len(a), d.channels*d.window*hw)
	}
	frame := make([]float32, d.channels*hw)
	for c := 0; c < d.channels; c++ {
		newest := a[(c*d.window+d.window-1)*hw : (c*d.window+d.window)*hw]
		copy(frame[c*hw:(c+1)*hw], newest)
	}
	return frame, nil
}

func (d dummyInferer) Close() error { return nil }
