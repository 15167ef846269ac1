package causal

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Config configures the causal video network.
type Config struct {
	InChannels    int   // color channels per frame
	Window        int   // frames per temporal window
	Height, Width int   // frame size
	Widths        []int // filter counts per resolution, shallowest first

	TimeKernel  int // temporal kernel taps, trailing tap is the masked future tap
	SpaceKernel int // spatial kernel size

	BatchSize int
	Seed      int64 // seed for the weight init stream
	Dtype     tensor.Dtype
}

func DefaultConf(channels, size int) Config {
	return Config{
		InChannels:  channels,
		Window:      8,
		Height:      size,
		Width:       size,
		Widths:      []int{64, 128, 256, 512},
		TimeKernel:  3,
		SpaceKernel: 3,
		BatchSize:   1,
		Seed:        1337,
		Dtype:       Float,
	}
}

func (conf Config) IsValid() bool { return conf.check() == nil }

// pools is the number of downsampling stages between resolutions.
func (conf Config) pools() int { return len(conf.Widths) - 1 }

// check validates that the window reduces to exactly one time step over the
// pooling schedule and that no dimension would be silently truncated.
func (conf Config) check() error {
	if conf.InChannels < 1 {
		return errors.Errorf("%d input channels, want at least 1", conf.InChannels)
	}
	if len(conf.Widths) < 2 {
		return errors.Errorf("%d resolutions, want at least 2 (one encoder stage and a bridge)", len(conf.Widths))
	}
	for i, k := range conf.Widths {
		if k < 1 {
			return errors.Errorf("resolution %d has %d filters, want at least 1", i, k)
		}
	}
	pools := conf.pools()
	if conf.Window != 1<<uint(pools) {
		return errors.Errorf("a window of %d frames does not reduce to a single time step over %d temporal poolings; want exactly %d frames", conf.Window, pools, 1<<uint(pools))
	}
	if conf.Height < 1<<uint(pools) || conf.Height%(1<<uint(pools)) != 0 {
		return errors.Errorf("height %d is not divisible by %d, spatial pooling would truncate", conf.Height, 1<<uint(pools))
	}
	if conf.Width < 1<<uint(pools) || conf.Width%(1<<uint(pools)) != 0 {
		return errors.Errorf("width %d is not divisible by %d, spatial pooling would truncate", conf.Width, 1<<uint(pools))
	}
	if conf.TimeKernel < 2 {
		return errors.Errorf("a %d-tap temporal kernel has no usable taps once the future tap is masked; want at least 2", conf.TimeKernel)
	}
	if conf.SpaceKernel < 1 || conf.SpaceKernel%2 == 0 {
		return errors.Errorf("spatial kernel of %d is not odd, the frame size would not be preserved", conf.SpaceKernel)
	}
	if conf.BatchSize < 1 {
		return errors.Errorf("batch size %d, want at least 1", conf.BatchSize)
	}
	if conf.Dtype != tensor.Float32 {
		return errors.Errorf("unsupported dtype %v, the network is float32 only", conf.Dtype)
	}
	return nil
}

// inputShape is the shape of the window tensor the network consumes.
func (conf Config) inputShape() tensor.Shape {
	return tensor.Shape{conf.BatchSize, conf.InChannels, conf.Window, conf.Height, conf.Width}
}

// outputShape is the shape of the predicted frame.
func (conf Config) outputShape() tensor.Shape {
	return tensor.Shape{conf.BatchSize, conf.InChannels, conf.Height, conf.Width}
}
