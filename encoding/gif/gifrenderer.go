package gif

import (
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"

	"github.com/gorgonia/hypnagogo"
)

// delay between frames, in hundredths of a second
const frameDelay = 4

// Encoder captures the generated frames into an animated GIF written on
// Flush. It implements the hypnagogo.Display interface; when MaxFrames is
// set, hitting the budget raises the stop signal, so the encoder doubles as
// a run-length limiter for the loop.
type Encoder struct {
	H, W int

	out *gif.GIF
	io.Writer

	MaxFrames int
	scale     int
	count     int
}

// NewGifEncoder with an upscaling factor and a frame budget. A budget of 0
// means no limit, in which case something else has to stop the loop.
func NewGifEncoder(scale, maxFrames int) *Encoder {
	if scale < 1 {
		scale = 1
	}
	return &Encoder{
		H:         -1,
		W:         -1,
		scale:     scale,
		MaxFrames: maxFrames,
		out:       &gif.GIF{LoopCount: -1},
	}
}

// Render a frame
func (enc *Encoder) Render(fs hypnagogo.FrameState) error {
	frame := hypnagogo.Upscale(fs.Image(), enc.scale)
	b := frame.Bounds()
	if enc.H == -1 {
		enc.H = b.Dy()
		enc.W = b.Dx()
	}

	im := image.NewPaletted(b, palette.Plan9)
	draw.FloydSteinberg.Draw(im, b, frame, image.ZP)
	enc.out.Image = append(enc.out.Image, im)
	enc.out.Delay = append(enc.out.Delay, frameDelay)
	enc.count++
	return nil
}

// ShouldStop reports whether the frame budget has been used up.
func (enc *Encoder) ShouldStop() bool { return enc.MaxFrames > 0 && enc.count >= enc.MaxFrames }

// Flush writes the gif into the writer
func (enc *Encoder) Flush() error {
	if len(enc.out.Image) == 0 {
		return nil
	}
	return gif.EncodeAll(enc.Writer, enc.out)
}
