// Package geometry converts a drag gesture into the rectangle handed to the
// screen capturer.
//
// Overlay views report points with a bottom-left origin. Capture APIs expect a
// top-left origin measured in physical pixels, so a selection travels
// view → window → screen → backing pixels before it reaches the compositor.
package geometry

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// MinSelectionSpan is the smallest width/height accepted as a selection.
const MinSelectionSpan = 5

// ErrSelectionTooSmall is returned for rectangles narrower or shorter than
// MinSelectionSpan. Callers treat it exactly like a user cancel.
var ErrSelectionTooSmall = errors.New("selection too small")

type Point struct {
	X float64
	Y float64
}

// Rect is an axis-aligned rectangle. Width and height are never negative once
// produced by this package.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

func (r Rect) MaxX() float64 { return r.X + r.W }
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Contains reports whether p lies inside r (max edges exclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.MaxX() && p.Y >= r.Y && p.Y < r.MaxY()
}

// Intersect returns the overlap of r and o, or the zero Rect when they do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x0 := math.Max(r.X, o.X)
	y0 := math.Max(r.Y, o.Y)
	x1 := math.Min(r.MaxX(), o.MaxX())
	y1 := math.Min(r.MaxY(), o.MaxY())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.1f,%.1f %.1fx%.1f)", r.X, r.Y, r.W, r.H)
}

// SelectionRect returns the rectangle spanned by the two drag points. It reports
// false when either point is missing.
func SelectionRect(start, current *Point) (Rect, bool) {
	if start == nil || current == nil {
		return Rect{}, false
	}
	return Rect{
		X: math.Min(start.X, current.X),
		Y: math.Min(start.Y, current.Y),
		W: math.Abs(start.X - current.X),
		H: math.Abs(start.Y - current.Y),
	}, true
}

// CheckSelection rejects rectangles below the minimum span in either dimension.
func CheckSelection(r Rect) error {
	if r.W < MinSelectionSpan || r.H < MinSelectionSpan {
		return fmt.Errorf("%w: %.1fx%.1f", ErrSelectionTooSmall, r.W, r.H)
	}
	return nil
}

// WindowToScreen translates a window-local rectangle into screen space.
func WindowToScreen(r Rect, windowOrigin Point) Rect {
	return Rect{X: r.X + windowOrigin.X, Y: r.Y + windowOrigin.Y, W: r.W, H: r.H}
}

// ToScreenPixelSpace converts a window-local, bottom-left-origin rectangle into
// the top-left-origin space of the screen described by screenFrame.
// Skipping the flip captures a vertically mirrored region.
func ToScreenPixelSpace(r Rect, windowOrigin Point, screenFrame Rect) (Rect, error) {
	if err := CheckSelection(r); err != nil {
		return Rect{}, err
	}
	s := WindowToScreen(r, windowOrigin)
	return Rect{
		X: s.X - screenFrame.X,
		Y: screenFrame.MaxY() - s.MaxY(),
		W: s.W,
		H: s.H,
	}, nil
}

// ToBackingPixels scales a logical rectangle by the display backing scale and
// rounds outward so no selected pixel is lost.
func ToBackingPixels(r Rect, scale float64) image.Rectangle {
	if scale <= 0 {
		scale = 1
	}
	return image.Rect(
		int(math.Floor(r.X*scale)),
		int(math.Floor(r.Y*scale)),
		int(math.Ceil(r.MaxX()*scale)),
		int(math.Ceil(r.MaxY()*scale)),
	)
}

// FlipY converts a point between top-left and bottom-left origin within a
// surface of the given height. The conversion is its own inverse.
func FlipY(p Point, height float64) Point {
	return Point{X: p.X, Y: height - p.Y}
}

// FlipRectY is the rectangle form of FlipY.
func FlipRectY(r Rect, height float64) Rect {
	return Rect{X: r.X, Y: height - r.MaxY(), W: r.W, H: r.H}
}
