package barcode

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// onWhite copies a matrix into an RGBA image with a quiet zone around it.
func onWhite(src image.Image, margin int) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()+2*margin, b.Dy()+2*margin))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, b.Add(image.Pt(margin, margin)), src, b.Min, draw.Src)
	return dst
}

func TestReadQRCode(t *testing.T) {
	matrix, err := qrcode.NewQRCodeWriter().Encode("https://example.com/sniper", gozxing.BarcodeFormat_QR_CODE, 200, 200, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Read(onWhite(matrix, 20))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "https://example.com/sniper" {
		t.Errorf("payload = %q", got)
	}
}

func TestReadCode128(t *testing.T) {
	matrix, err := oned.NewCode128Writer().Encode("SNIPER-128", gozxing.BarcodeFormat_CODE_128, 300, 80, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Read(onWhite(matrix, 20))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "SNIPER-128" {
		t.Errorf("payload = %q", got)
	}
}

func TestReadBlankImage(t *testing.T) {
	blank := image.NewRGBA(image.Rect(0, 0, 120, 120))
	draw.Draw(blank, blank.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	if _, err := Read(blank); !errors.Is(err, ErrNoPayload) {
		t.Fatalf("expected ErrNoPayload, got %v", err)
	}
	if _, err := Read(nil); !errors.Is(err, ErrNoPayload) {
		t.Fatalf("nil image: expected ErrNoPayload, got %v", err)
	}
}
