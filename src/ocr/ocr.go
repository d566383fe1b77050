// Package ocr turns captured images into text through a remote recognizer.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"time"

	"screen-sniper/src/screenshot"

	"golang.org/x/image/draw"
)

var (
	// ErrInvalidResponse covers non-200 HTTP replies, undecodable bodies and empty results.
	ErrInvalidResponse = errors.New("recognizer returned an unreadable result")
	// ErrAPIFailure is a well-formed reply whose code is not 200.
	ErrAPIFailure = errors.New("recognizer reported a failure")
)

// Recognizer extracts text from PNG bytes.
type Recognizer interface {
	Recognize(ctx context.Context, png []byte) (string, error)
}

// RecognizeImage downscales img so neither side exceeds maxSide, encodes it and
// runs rec on it. maxSide <= 0 disables downscaling.
func RecognizeImage(ctx context.Context, rec Recognizer, img image.Image, maxSide int) (string, error) {
	img = Downscale(img, maxSide)
	data, err := screenshot.EncodePNG(img)
	if err != nil {
		return "", err
	}

	if os.Getenv("OCR_DEBUG_SAVE_IMAGES") == "true" {
		b := img.Bounds()
		name := fmt.Sprintf("debug_captured_region_%dx%d.png", b.Dx(), b.Dy())
		if err := os.WriteFile(name, data, 0600); err != nil {
			log.Printf("ocr: could not save debug image: %v", err)
		} else {
			log.Printf("ocr: saved captured region to %s (%d bytes)", name, len(data))
		}
	}

	start := time.Now()
	text, err := rec.Recognize(ctx, data)
	log.Printf("ocr: recognized %d bytes of PNG in %v (err=%v)", len(data), time.Since(start), err)
	return text, err
}

// Downscale fits img inside a maxSide square, keeping its aspect ratio.
func Downscale(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img
	}

	nw, nh := maxSide, maxSide
	if w >= h {
		nh = max(1, h*maxSide/w)
	} else {
		nw = max(1, w*maxSide/h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
