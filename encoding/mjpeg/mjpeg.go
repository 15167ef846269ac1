package mjpeg

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"log"
	"math"
	"net/http"
	"sync/atomic"

	"github.com/golang/freetype/truetype"
	"github.com/gorgonia/hypnagogo"
	"github.com/mattn/go-mjpeg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
)

var regular *truetype.Font

const (
	dpi             = 144.0
	fontsize        = 12.0
	lineheight      = 1.2
	dummyLongString = `Tick 1000000, 100.0 fps`
)

func init() {
	var err error
	if regular, err = truetype.Parse(gomono.TTF); err != nil {
		panic(err)
	}
}

// Encoder streams the generated frames as MJPEG over HTTP, each frame
// upscaled and captioned with the run name, tick and frame rate. It
// implements the hypnagogo.Display interface; the stop signal is raised by
// Stop, typically wired to an HTTP endpoint or a process signal.
type Encoder struct {
	H, W int
	font.Drawer

	stream *mjpeg.Stream
	face   font.Face

	scale      int // upscaling factor for the frame
	padH, padW int // padding so everything don't start at the topleft

	stop        int32
	initialized bool
}

// NewEncoder with an upscaling factor for the rendered frames.
func NewEncoder(scale int) *Encoder {
	if scale < 1 {
		scale = 1
	}
	return &Encoder{
		H:     -1,
		W:     -1,
		scale: scale,
		padH:  10,
		padW:  10,

		stream: mjpeg.NewStream(),
		Drawer: font.Drawer{
			Src: image.Black,
		},
	}
}

func (enc *Encoder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	enc.stream.ServeHTTP(w, r)
}

// StopHandler returns a handler that raises the stop signal.
func (enc *Encoder) StopHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enc.Stop()
		fmt.Fprintln(w, "stopping")
	})
}

// Stop raises the stop signal. Safe to call from any goroutine.
func (enc *Encoder) Stop() { atomic.StoreInt32(&enc.stop, 1) }

// ShouldStop reports whether the stop signal has been raised.
func (enc *Encoder) ShouldStop() bool { return atomic.LoadInt32(&enc.stop) != 0 }

// Render a frame
func (enc *Encoder) Render(fs hypnagogo.FrameState) error {
	frame := hypnagogo.Upscale(fs.Image(), enc.scale)
	fb := frame.Bounds()

	if !enc.initialized {
		// lazy init of specifications
		enc.face = truetype.NewFace(regular, &truetype.Options{
			Size:    fontsize,
			DPI:     dpi,
			Hinting: font.HintingFull,
		})
		enc.Drawer.Src = image.Black
		enc.Drawer.Face = enc.face

		// the caption band is two lines: name, then tick and fps
		maxW := maxInt(fb.Dx(), font.MeasureString(enc.Face, dummyLongString).Ceil())
		maxW = maxInt(maxW, font.MeasureString(enc.Face, fs.Name()).Ceil())
		dy := int(math.Ceil(fontsize * lineheight * dpi / 72))
		enc.W = maxW + 2*enc.padW
		enc.H = fb.Dy() + 2*dy + 2*enc.padH
		enc.initialized = true
	}

	im := image.NewRGBA(image.Rect(0, 0, enc.W, enc.H))
	draw.Draw(im, im.Bounds(), image.White, image.ZP, draw.Src)
	draw.Draw(im, fb.Add(image.Pt(enc.padW, enc.padH)), frame, image.ZP, draw.Src)

	dy := int(math.Ceil(fontsize * lineheight * dpi / 72))
	y := fb.Dy() + enc.padH + dy
	enc.Dst = im
	enc.Dot = fixed.P(enc.padW, y)
	enc.DrawString(fs.Name())
	y += dy
	enc.Dot = fixed.P(enc.padW, y)
	enc.DrawString(fmt.Sprintf("Tick %d, %.1f fps", fs.Tick(), fs.FPS()))

	var b bytes.Buffer
	if err := jpeg.Encode(&b, im, nil); err != nil {
		log.Println(err)
		return err
	}
	if err := enc.stream.Update(b.Bytes()); err != nil {
		log.Println(err)
		return err
	}
	return nil
}

// Flush closes the stream.
func (enc *Encoder) Flush() error { return enc.stream.Close() }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
