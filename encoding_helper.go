package hypnagogo

import (
	"image"

	"github.com/chewxy/math32"
	"golang.org/x/image/draw"
	"gorgonia.org/vecf32"
)

// FrameImage converts one CHW frame with values in (0,1) into an RGBA image.
// A single-channel frame renders as grey; channels past the third are
// ignored. The frame is copied, not aliased.
func FrameImage(frame []float32, channels, h, w int) *image.RGBA {
	scaled := make([]float32, len(frame))
	copy(scaled, frame)
	vecf32.Scale(scaled, 255)

	im := image.NewRGBA(image.Rect(0, 0, w, h))
	for c := 0; c < 3; c++ {
		src := c
		if src >= channels {
			src = 0
		}
		plane := scaled[src*h*w : (src+1)*h*w]
		it := MakeIterator(plane, h, w)
		for y := 0; y < h; y++ {
			row := it[y]
			for x := 0; x < w; x++ {
				im.Pix[y*im.Stride+x*4+c] = clampU8(row[x])
			}
		}
		ReturnIterator(h, w, it)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			im.Pix[y*im.Stride+x*4+3] = 0xff
		}
	}
	return im
}

// Upscale blows an image up by an integer factor with nearest-neighbour
// sampling, keeping the hard pixel edges.
func Upscale(im *image.RGBA, scale int) *image.RGBA {
	if scale <= 1 {
		return im
	}
	b := im.Bounds()
	retVal := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(retVal, retVal.Bounds(), im, b, draw.Src, nil)
	return retVal
}

func clampU8(v float32) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}

// validFrame reports whether a predicted frame is free of NaNs and Infs.
func validFrame(frame []float32) bool {
	for _, v := range frame {
		if math32.IsInf(v, 0) {
			return false
		}
		if math32.IsNaN(v) {
			return false
		}
	}
	return true
}
