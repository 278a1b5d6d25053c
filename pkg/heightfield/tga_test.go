package heightfield

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

// tgaFile builds a TGA file with an empty image ID and no colour map.
func tgaFile(imageType byte, bpp, width, height int, descriptor byte, pixels []byte) []byte {
	header := make([]byte, tgaHeaderSize)
	header[2] = imageType
	header[12] = byte(width)
	header[13] = byte(width >> 8)
	header[14] = byte(height)
	header[15] = byte(height >> 8)
	header[16] = byte(bpp)
	header[17] = descriptor
	return append(header, pixels...)
}

func TestDecodeTGA_GrayBottomUp(t *testing.T) {
	data := tgaFile(tgaGray, 8, 2, 2, 0, []byte{10, 20, 30, 40})

	img, err := DecodeTGA(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeTGA failed: %v", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("decoded %T, want *image.Gray", img)
	}

	// First stored row is the bottom of the image.
	want := map[image.Point]uint8{
		{0, 1}: 10, {1, 1}: 20,
		{0, 0}: 30, {1, 0}: 40,
	}
	for p, y := range want {
		if got := gray.GrayAt(p.X, p.Y).Y; got != y {
			t.Errorf("pixel %v = %d, want %d", p, got, y)
		}
	}
}

func TestDecodeTGA_TrueColorRLE(t *testing.T) {
	pixels := []byte{
		0x81, 1, 2, 3, // run of two
		0x00, 4, 5, 6, // one raw pixel
	}
	data := tgaFile(tgaTrueColorRLE, 24, 3, 1, 0x20, pixels)

	img, err := DecodeTGA(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeTGA failed: %v", err)
	}
	rgba, ok := img.(*image.RGBA)
	if !ok {
		t.Fatalf("decoded %T, want *image.RGBA", img)
	}

	want := []color.RGBA{
		{R: 3, G: 2, B: 1, A: 255},
		{R: 3, G: 2, B: 1, A: 255},
		{R: 6, G: 5, B: 4, A: 255},
	}
	for x, c := range want {
		if got := rgba.RGBAAt(x, 0); got != c {
			t.Errorf("pixel %d = %v, want %v", x, got, c)
		}
	}
}

func TestDecodeTGA_GrayRLEWithImageID(t *testing.T) {
	data := tgaFile(tgaGrayRLE, 8, 4, 1, 0x20, []byte{0x83, 77})
	data[0] = 3
	data = append(data[:tgaHeaderSize], append([]byte("abc"), data[tgaHeaderSize:]...)...)

	img, err := DecodeTGA(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeTGA failed: %v", err)
	}
	for x := range 4 {
		if got := img.(*image.Gray).GrayAt(x, 0).Y; got != 77 {
			t.Errorf("pixel %d = %d, want 77", x, got)
		}
	}
}

func TestDecodeTGA_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short header", []byte{0, 0, 2}, ErrTGATruncated},
		{"short pixels", tgaFile(tgaGray, 8, 2, 2, 0, []byte{1}), ErrTGATruncated},
		{"colour mapped", func() []byte {
			d := tgaFile(tgaTrueColor, 24, 1, 1, 0, []byte{0, 0, 0})
			d[1] = 1
			return d
		}(), ErrTGAUnsupported},
		{"16-bit gray", tgaFile(tgaGray, 16, 1, 1, 0, []byte{0, 0}), ErrTGAUnsupported},
		{"empty", tgaFile(tgaGray, 8, 0, 1, 0, nil), ErrTGAUnsupported},
		{"unknown type", tgaFile(1, 8, 1, 1, 0, []byte{0}), ErrTGAUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTGA(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeTGA_Registered(t *testing.T) {
	data := tgaFile(tgaTrueColor, 32, 1, 1, 0, []byte{1, 2, 3, 4})

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig failed: %v", err)
	}
	if format != "tga" {
		t.Errorf("format = %q, want tga", format)
	}
	if cfg.Width != 1 || cfg.Height != 1 {
		t.Errorf("size = %dx%d, want 1x1", cfg.Width, cfg.Height)
	}
}
