package mjpeg

import (
	"image"
	"net/http/httptest"
	"testing"

	"github.com/gorgonia/hypnagogo"
)

type fakeFrame struct {
	im   *image.RGBA
	tick int
}

func (f fakeFrame) Image() *image.RGBA { return f.im }
func (f fakeFrame) Tick() int          { return f.tick }
func (f fakeFrame) Name() string       { return "test" }
func (f fakeFrame) FPS() float64       { return 12.5 }

var _ hypnagogo.Display = &Encoder{}

func TestStopSignal(t *testing.T) {
	enc := NewEncoder(1)
	if enc.ShouldStop() {
		t.Fatal("fresh encoder should not stop")
	}
	enc.Stop()
	if !enc.ShouldStop() {
		t.Error("Stop should raise the stop signal")
	}

	enc = NewEncoder(1)
	w := httptest.NewRecorder()
	enc.StopHandler().ServeHTTP(w, httptest.NewRequest("GET", "/stop", nil))
	if !enc.ShouldStop() {
		t.Error("the stop endpoint should raise the stop signal")
	}
}

func TestRender(t *testing.T) {
	enc := NewEncoder(2)
	defer enc.Flush()

	im := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 3; i < len(im.Pix); i += 4 {
		im.Pix[i] = 0xff
	}
	if err := enc.Render(fakeFrame{im: im, tick: 7}); err != nil {
		t.Fatalf("%+v", err)
	}
	if enc.W <= 8 || enc.H <= 8 {
		t.Errorf("canvas %dx%d should be larger than the upscaled 8x8 frame to fit the caption", enc.W, enc.H)
	}
}
