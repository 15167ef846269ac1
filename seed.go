package hypnagogo

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"

	rng "github.com/leesper/go_rng"
	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
)

// UniformSeeder seeds the window with uniform noise in [0, 1). The same seed
// always yields the same window.
func UniformSeeder(seed int64) Seeder {
	return func(c, t, h, w int) ([][]float32, error) {
		rnd := rng.NewUniformGenerator(seed)
		frames := make([][]float32, t)
		for i := range frames {
			f := make([]float32, c*h*w)
			for j := range f {
				f[j] = rnd.Float32()
			}
			frames[i] = f
		}
		return frames, nil
	}
}

// GaussianSeeder seeds the window with Gaussian noise around mid grey,
// clamped to [0, 1].
func GaussianSeeder(seed int64, stddev float64) Seeder {
	return func(c, t, h, w int) ([][]float32, error) {
		rnd := rng.NewGaussianGenerator(seed)
		frames := make([][]float32, t)
		for i := range frames {
			f := make([]float32, c*h*w)
			for j := range f {
				v := float32(rnd.Gaussian(0.5, stddev))
				switch {
				case v < 0:
					v = 0
				case v > 1:
					v = 1
				}
				f[j] = v
			}
			frames[i] = f
		}
		return frames, nil
	}
}

// ClipSeeder seeds the window from a directory of images, in name order,
// rescaled to the frame size. If the directory holds fewer images than the
// window needs, the earliest frames repeat the first image.
func ClipSeeder(dir string) Seeder {
	return func(c, t, h, w int) ([][]float32, error) {
		names, err := clipNames(dir)
		if err != nil {
			return nil, err
		}
		if len(names) > t {
			names = names[len(names)-t:]
		}
		frames := make([][]float32, 0, t)
		for _, name := range names {
			f, err := frameFromFile(name, c, h, w)
			if err != nil {
				return nil, err
			}
			frames = append(frames, f)
		}
		for len(frames) < t {
			frames = append([][]float32{frames[0]}, frames...)
		}
		return frames, nil
	}
}

func clipNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading clip dir %q", dir)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".png", ".jpg", ".jpeg":
			names = append(names, filepath.Join(dir, e.Name()))
		}
	}
	if len(names) == 0 {
		return nil, errors.Errorf("no seed images in %q", dir)
	}
	sort.Strings(names)
	return names, nil
}

func frameFromFile(name string, c, h, w int) ([]float32, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %q", name)
	}

	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(scaled, scaled.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	retVal := make([]float32, c*h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix := scaled.Pix[y*scaled.Stride+x*4:]
			for ch := 0; ch < c && ch < 3; ch++ {
				retVal[ch*h*w+y*w+x] = float32(pix[ch]) / 255
			}
		}
	}
	return retVal, nil
}
