package screenshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"

	"github.com/kbinani/screenshot"
)

// ErrCaptureUnavailable means the compositor returned nothing: screen recording
// permission denied, a zero-area rect after rounding, or no active display.
var ErrCaptureUnavailable = errors.New("screen capture unavailable")

// Display describes one monitor. Bounds are physical pixels in the virtual
// desktop (top-left origin); Scale is backing pixels per logical point.
type Display struct {
	Index  int
	Bounds image.Rectangle
	Scale  float64
}

// Capturer rasterizes a rectangle given in the display's own pixel space
// (origin at the display's top-left corner).
type Capturer interface {
	Capture(ctx context.Context, display Display, rect image.Rectangle) (*image.RGBA, error)
}

// PrimaryDisplay returns the display capture sessions are bound to.
func PrimaryDisplay() (Display, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return Display{}, fmt.Errorf("%w: no active displays found", ErrCaptureUnavailable)
	}
	return Display{Index: 0, Bounds: screenshot.GetDisplayBounds(0), Scale: 1}, nil
}

// Displays lists all active displays.
func Displays() []Display {
	n := screenshot.NumActiveDisplays()
	out := make([]Display, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Display{Index: i, Bounds: screenshot.GetDisplayBounds(i), Scale: 1})
	}
	return out
}

type compositorCapturer struct{}

// NewCapturer returns the kbinani/screenshot backed capturer.
func NewCapturer() Capturer { return compositorCapturer{} }

func (compositorCapturer) Capture(ctx context.Context, display Display, rect image.Rectangle) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bounds, err := ToVirtual(display, rect)
	if err != nil {
		return nil, err
	}
	return captureRect(bounds)
}

// ToVirtual offsets a display-local pixel rectangle into virtual-desktop
// coordinates, clipped to the display.
func ToVirtual(display Display, rect image.Rectangle) (image.Rectangle, error) {
	abs := rect.Add(display.Bounds.Min).Intersect(display.Bounds)
	if abs.Empty() {
		return image.Rectangle{}, fmt.Errorf("%w: region %v outside display %v", ErrCaptureUnavailable, rect, display.Bounds)
	}
	return abs, nil
}

// CaptureDisplay grabs a whole display, used as the frozen overlay background.
func CaptureDisplay(display Display) (*image.RGBA, error) {
	return captureRect(display.Bounds)
}

func captureRect(bounds image.Rectangle) (img *image.RGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("screenshot: compositor panic: %v", r)
			img, err = nil, fmt.Errorf("%w: %v", ErrCaptureUnavailable, r)
		}
	}()

	img, err = screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image for %v", ErrCaptureUnavailable, bounds)
	}
	return img, nil
}

// EncodePNG converts an image to PNG bytes for recognizers.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return buf.Bytes(), nil
}
