package heightfield

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png" // register PNG
	"io"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
)

// Options controls how an image is turned into a height field.
type Options struct {
	// Scale multiplies the normalised [0, 1] intensity of each texel.
	Scale float64
	// Bias is added after scaling.
	Bias float64
	// Resolution, when positive, resamples the image to a square field of
	// this size before conversion.
	Resolution int
}

// DefaultOptions maps intensities to heights in [0, 1] at native size.
func DefaultOptions() Options {
	return Options{Scale: 1}
}

// Load reads a height field from an image file. PNG, BMP, TIFF and TGA are
// recognised.
func Load(path string, opts Options) (*Field, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := Decode(file, opts)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return f, nil
}

// Decode reads a height field from an encoded image.
func Decode(r io.Reader, opts Options) (*Field, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return FromImage(img, opts)
}

// FromImage converts the luminance of img into a height field.
func FromImage(img image.Image, opts Options) (*Field, error) {
	if opts.Resolution > 0 {
		img = resample(img, opts.Resolution)
	}

	b := img.Bounds()
	f, err := New(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	for y := range f.Height {
		for x := range f.Width {
			lum := intensity(img.At(b.Min.X+x, b.Min.Y+y))
			f.Data[y*f.Width+x] = float32(opts.Bias + opts.Scale*lum)
		}
	}
	return f, nil
}

// intensity returns the luminance of c in [0, 1] at 16-bit precision.
func intensity(c color.Color) float64 {
	switch g := c.(type) {
	case color.Gray16:
		return float64(g.Y) / 0xffff
	case color.Gray:
		return float64(g.Y) / 0xff
	}
	g := color.Gray16Model.Convert(c).(color.Gray16)
	return float64(g.Y) / 0xffff
}

// resample scales img to size x size with bilinear filtering, keeping
// 16 bits of intensity.
func resample(img image.Image, size int) image.Image {
	b := img.Bounds()
	if b.Dx() == size && b.Dy() == size {
		return img
	}
	dst := image.NewGray16(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
