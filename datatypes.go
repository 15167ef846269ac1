package hypnagogo

import (
	"image"
	"io"

	causal "github.com/gorgonia/hypnagogo/causalnet"
)

// State is the state of the generation loop.
type State byte

const (
	Running State = iota
	Stopped
)

type Config struct {
	Name   string
	NNConf causal.Config

	// collaborators
	Seeder  Seeder
	Display Display
}

// Seeder supplies the initial window: t frames of c*h*w floats each, oldest
// first.
type Seeder func(c, t, h, w int) ([][]float32, error)

// Display consumes one displayable frame per tick and supplies the stop
// signal. Implementations own their rendering resources; Flush is called
// exactly once, when the loop leaves Running.
//
// An example Display is the mjpeg Encoder. Another example would be a logger.
type Display interface {
	Render(fs FrameState) error
	ShouldStop() bool
	Flush() error
}

// FrameState is the loop's view of the current frame, handed to a Display
// each tick.
type FrameState interface {
	Image() *image.RGBA
	Tick() int
	Name() string
	FPS() float64
}

// Inferer is anything that can predict the next frame given a packed window.
type Inferer interface {
	Infer(window []float32) (frame []float32, err error)
	io.Closer
}

// ExecLogger is anything that can return the execution log.
type ExecLogger interface {
	ExecLog() string
}

// Displays fans a tick out to several displays. Rendering stops at the first
// error; the loop stops as soon as any one display asks to.
type Displays []Display

func (ds Displays) Render(fs FrameState) error {
	for _, d := range ds {
		if err := d.Render(fs); err != nil {
			return err
		}
	}
	return nil
}

func (ds Displays) ShouldStop() bool {
	for _, d := range ds {
		if d.ShouldStop() {
			return true
		}
	}
	return false
}

func (ds Displays) Flush() error {
	var allErrs manyErr
	for _, d := range ds {
		if err := d.Flush(); err != nil {
			allErrs = append(allErrs, err)
		}
	}
	if len(allErrs) > 0 {
		return allErrs
	}
	return nil
}
