package hypnagogo

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestFrameImage(t *testing.T) {
	// 3 channels, 1x2: channel planes are [R...][G...][B...]
	frame := []float32{
		0, 1, // R
		0.5, 0.25, // G
		1, 0, // B
	}
	im := FrameImage(frame, 3, 1, 2)

	want := []uint8{
		0, 127, 255, 255, // pixel (0,0)
		255, 63, 0, 255, // pixel (1,0)
	}
	assert.Equal(t, want, im.Pix)
}

func TestFrameImageGrey(t *testing.T) {
	// a single channel replicates into all three
	im := FrameImage([]float32{0, 1}, 1, 1, 2)
	want := []uint8{
		0, 0, 0, 255,
		255, 255, 255, 255,
	}
	assert.Equal(t, want, im.Pix)
}

func TestUpscale(t *testing.T) {
	im := FrameImage([]float32{0, 1, 1, 0}, 1, 2, 2)
	up := Upscale(im, 3)
	b := up.Bounds()
	assert.Equal(t, 6, b.Dx())
	assert.Equal(t, 6, b.Dy())

	// nearest neighbour keeps the hard edges
	assert.Equal(t, uint8(0), up.Pix[0])
	assert.Equal(t, uint8(255), up.Pix[5*4])
}

func TestValidFrame(t *testing.T) {
	assert.True(t, validFrame([]float32{0, 0.5, 1}))
	assert.False(t, validFrame([]float32{0, math32.NaN(), 1}))
	assert.False(t, validFrame([]float32{0, math32.Inf(1), 1}))
	assert.False(t, validFrame([]float32{math32.Inf(-1)}))
}
