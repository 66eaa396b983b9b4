package upload

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func encoded(t *testing.T, format string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, nil)
	}
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestImageConfig(t *testing.T) {
	for _, format := range []string{"png", "jpeg", "gif", "bmp", "tiff"} {
		t.Run(format, func(t *testing.T) {
			got, cfg, err := ImageConfig(encoded(t, format))
			if err != nil {
				t.Fatal(err)
			}
			if got != format {
				t.Errorf("format = %q, want %q", got, format)
			}
			if cfg.Width != 3 || cfg.Height != 2 {
				t.Errorf("size = %dx%d, want 3x2", cfg.Width, cfg.Height)
			}
		})
	}
}

func TestImageConfig_NotImage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"text", []byte("definitely not an image")},
		{"truncated png", encodedPrefix(t, "png", 12)},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ImageConfig(tt.data); !errors.Is(err, ErrNotImage) {
				t.Errorf("expected ErrNotImage, got %v", err)
			}
		})
	}
}

func encodedPrefix(t *testing.T, format string, n int) []byte {
	t.Helper()
	return encoded(t, format)[:n]
}
