// Package barcode decodes QR, Aztec, DataMatrix and 1D codes from captured images.
package barcode

import (
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/aztec"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ErrNoPayload is returned when none of the readers find a code in the image.
var ErrNoPayload = errors.New("no barcode found")

type reader struct {
	name string
	gozxing.Reader
}

func readers() []reader {
	return []reader{
		{"qr", qrcode.NewQRCodeReader()},
		{"aztec", aztec.NewAztecReader()},
		{"datamatrix", datamatrix.NewDataMatrixReader()},
		{"code128", oned.NewCode128Reader()},
		{"ean13", oned.NewEAN13Reader()},
	}
}

// Read returns the payload of the first code any reader recognizes.
func Read(img image.Image) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", ErrNoPayload
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("binarize image: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	for _, r := range readers() {
		result, err := r.Decode(bmp, hints)
		if err != nil {
			continue
		}
		if text := result.GetText(); text != "" {
			log.Printf("barcode: decoded %s payload (%d bytes)", r.name, len(text))
			return text, nil
		}
	}
	return "", ErrNoPayload
}
