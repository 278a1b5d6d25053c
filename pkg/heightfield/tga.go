package heightfield

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

// TGA image types read by this package.
const (
	tgaTrueColor    = 2
	tgaGray         = 3
	tgaTrueColorRLE = 10
	tgaGrayRLE      = 11
)

const tgaHeaderSize = 18

var (
	ErrTGATruncated   = errors.New("truncated TGA data")
	ErrTGAUnsupported = errors.New("unsupported TGA image")
)

func init() {
	// TGA has no magic number; match on the colour-map and image-type bytes.
	for _, typ := range []byte{tgaTrueColor, tgaGray, tgaTrueColorRLE, tgaGrayRLE} {
		image.RegisterFormat("tga", "?\x00"+string([]byte{typ}), DecodeTGA, DecodeTGAConfig)
	}
}

type tgaHeader struct {
	idLength    int
	imageType   byte
	width       int
	height      int
	bpp         int
	topToBottom bool
}

func readTGAHeader(r io.Reader) (tgaHeader, error) {
	var raw [tgaHeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return tgaHeader{}, fmt.Errorf("%w: header: %v", ErrTGATruncated, err)
	}

	h := tgaHeader{
		idLength:    int(raw[0]),
		imageType:   raw[2],
		width:       int(raw[12]) | int(raw[13])<<8,
		height:      int(raw[14]) | int(raw[15])<<8,
		bpp:         int(raw[16]),
		topToBottom: raw[17]&0x20 != 0,
	}

	if raw[1] != 0 {
		return h, fmt.Errorf("%w: colour-mapped", ErrTGAUnsupported)
	}
	switch h.imageType {
	case tgaGray, tgaGrayRLE:
		if h.bpp != 8 {
			return h, fmt.Errorf("%w: %d-bit grayscale", ErrTGAUnsupported, h.bpp)
		}
	case tgaTrueColor, tgaTrueColorRLE:
		if h.bpp != 24 && h.bpp != 32 {
			return h, fmt.Errorf("%w: %d-bit true-color", ErrTGAUnsupported, h.bpp)
		}
	default:
		return h, fmt.Errorf("%w: type %d", ErrTGAUnsupported, h.imageType)
	}
	if h.width == 0 || h.height == 0 {
		return h, fmt.Errorf("%w: empty %dx%d image", ErrTGAUnsupported, h.width, h.height)
	}
	return h, nil
}

// DecodeTGAConfig returns the colour model and size of a TGA image.
func DecodeTGAConfig(r io.Reader) (image.Config, error) {
	h, err := readTGAHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	model := color.RGBAModel
	if h.imageType == tgaGray || h.imageType == tgaGrayRLE {
		model = color.GrayModel
	}
	return image.Config{ColorModel: model, Width: h.width, Height: h.height}, nil
}

// DecodeTGA decodes an uncompressed or RLE-compressed TGA image. Grayscale
// images decode to *image.Gray, true-color images to *image.RGBA.
func DecodeTGA(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	h, err := readTGAHeader(br)
	if err != nil {
		return nil, err
	}
	if _, err := br.Discard(h.idLength); err != nil {
		return nil, fmt.Errorf("%w: image id: %v", ErrTGATruncated, err)
	}

	pixelSize := h.bpp / 8
	pixels := make([]byte, h.width*h.height*pixelSize)
	if h.imageType == tgaTrueColorRLE || h.imageType == tgaGrayRLE {
		err = readTGARLE(br, pixels, pixelSize)
	} else {
		_, err = io.ReadFull(br, pixels)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: pixel data: %v", ErrTGATruncated, err)
	}

	bounds := image.Rect(0, 0, h.width, h.height)
	row := func(y int) int {
		if h.topToBottom {
			return y
		}
		return h.height - 1 - y
	}

	if pixelSize == 1 {
		img := image.NewGray(bounds)
		for y := range h.height {
			copy(img.Pix[row(y)*img.Stride:], pixels[y*h.width:(y+1)*h.width])
		}
		return img, nil
	}

	img := image.NewRGBA(bounds)
	for i := 0; i < h.width*h.height; i++ {
		p := pixels[i*pixelSize:]
		a := uint8(255)
		if pixelSize == 4 {
			a = p[3]
		}
		img.SetRGBA(i%h.width, row(i/h.width), color.RGBA{R: p[2], G: p[1], B: p[0], A: a})
	}
	return img, nil
}

// readTGARLE expands run-length packets into dst.
func readTGARLE(r io.ByteReader, dst []byte, pixelSize int) error {
	pixel := make([]byte, pixelSize)
	readPixel := func() error {
		for i := range pixel {
			b, err := r.ReadByte()
			if err != nil {
				return err
			}
			pixel[i] = b
		}
		return nil
	}

	for off := 0; off < len(dst); {
		packet, err := r.ReadByte()
		if err != nil {
			return err
		}
		count := int(packet&0x7F) + 1
		repeat := packet&0x80 != 0

		for i := 0; i < count && off < len(dst); i++ {
			if i == 0 || !repeat {
				if err := readPixel(); err != nil {
					return err
				}
			}
			off += copy(dst[off:], pixel)
		}
	}
	return nil
}
