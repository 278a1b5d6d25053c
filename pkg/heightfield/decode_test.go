package heightfield

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	gomath "math"
	"os"
	"path/filepath"
	"testing"
)

func near(a, b, tol float64) bool {
	return gomath.Abs(a-b) <= tol
}

func TestFromImage_Gray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.SetGray(0, 0, color.Gray{Y: 0})
	img.SetGray(1, 0, color.Gray{Y: 255})

	f, err := FromImage(img, Options{Scale: 2, Bias: -1})
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if f.Width != 2 || f.Height != 1 {
		t.Fatalf("size = %dx%d, want 2x1", f.Width, f.Height)
	}
	if f.At(0, 0) != -1 || f.At(1, 0) != 1 {
		t.Errorf("heights = %v, want [-1 1]", f.Data)
	}
}

func TestFromImage_SubImageBounds(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 4, 4))
	img.SetGray16(2, 3, color.Gray16{Y: 0xffff})
	sub := img.SubImage(image.Rect(2, 2, 4, 4))

	f, err := FromImage(sub, DefaultOptions())
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if f.Width != 2 || f.Height != 2 {
		t.Fatalf("size = %dx%d, want 2x2", f.Width, f.Height)
	}
	if f.At(0, 1) != 1 {
		t.Errorf("At(0, 1) = %v, want 1", f.At(0, 1))
	}
}

func TestFromImage_Resample(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 128
	}

	f, err := FromImage(img, Options{Scale: 1, Resolution: 3})
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if f.Width != 3 || f.Height != 3 {
		t.Fatalf("size = %dx%d, want 3x3", f.Width, f.Height)
	}
	for i, h := range f.Data {
		if !near(float64(h), 128.0/255, 1e-3) {
			t.Errorf("Data[%d] = %v, want %v", i, h, 128.0/255)
		}
	}
}

func TestDecode_PNG(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 3, 2))
	img.SetGray16(1, 1, color.Gray16{Y: 0x8000})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}

	f, err := Decode(&buf, DefaultOptions())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !near(float64(f.At(1, 1)), float64(0x8000)/0xffff, 1e-6) {
		t.Errorf("At(1, 1) = %v, want ~0.5", f.At(1, 1))
	}
}

func TestLoad_TGAFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "height.tga")
	data := tgaFile(tgaGray, 8, 2, 1, 0x20, []byte{0, 255})
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	f, err := Load(path, Options{Scale: 10})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if f.At(0, 0) != 0 || f.At(1, 0) != 10 {
		t.Errorf("heights = %v, want [0 10]", f.Data)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"), DefaultOptions())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load missing file: got %v, want ErrNotExist", err)
	}
}
