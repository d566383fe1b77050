package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"screen-sniper/src/geometry"
	"screen-sniper/src/selection"
)

// DimAlpha is the opacity of the black wash painted outside the selection.
const DimAlpha = 0.35

// DimColor is DimAlpha black as a non-premultiplied color.
var DimColor = color.NRGBA{A: uint8(math.Round(DimAlpha * 255))}

// BorderColor strokes the live selection.
var BorderColor = color.NRGBA{R: 255, G: 255, B: 255, A: 230}

// Dim returns a copy of src with the dim wash composited over it.
func Dim(src *image.RGBA) *image.RGBA {
	out := image.NewRGBA(src.Bounds())
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	draw.Draw(out, out.Bounds(), image.NewUniform(DimColor), image.Point{}, draw.Over)
	return out
}

// PixelRect converts a view-local rect (bottom-left origin, points) into a
// top-left pixel rectangle on a surface of the given height.
func PixelRect(r geometry.Rect, viewHeight, scale float64) image.Rectangle {
	return geometry.ToBackingPixels(geometry.FlipRectY(r, viewHeight), scale)
}

// ViewPoint converts a top-left client pixel position into a view-local point.
func ViewPoint(x, y int, viewHeight, scale float64) geometry.Point {
	if scale <= 0 {
		scale = 1
	}
	return geometry.FlipY(geometry.Point{X: float64(x) / scale, Y: float64(y) / scale}, viewHeight)
}

// Compose paints a frame onto dst using the frozen background and its dimmed copy.
// Both sources must have dst's bounds.
// CoversDisplay reports whether a view of w by h points has the same shape as
// the display's pixel bounds, within 1%. A mismatch means the window landed on
// a different monitor than the one the background came from.
func CoversDisplay(w, h float64, px image.Rectangle) bool {
	if w <= 0 || h <= 0 || px.Dx() <= 0 || px.Dy() <= 0 {
		return false
	}
	view := w / h
	display := float64(px.Dx()) / float64(px.Dy())
	return math.Abs(view-display) <= 0.01*display
}

func Compose(dst draw.Image, background, dimmed *image.RGBA, frame selection.Frame, scale float64) {
	b := dst.Bounds()
	draw.Draw(dst, b, background, background.Bounds().Min, draw.Src)
	for _, r := range frame.Dim {
		pr := PixelRect(r, frame.Bounds.H, scale).Add(b.Min).Intersect(b)
		draw.Draw(dst, pr, dimmed, pr.Min.Sub(b.Min).Add(dimmed.Bounds().Min), draw.Src)
	}
	if frame.Selection != nil {
		strokeRect(dst, PixelRect(*frame.Selection, frame.Bounds.H, scale).Add(b.Min).Intersect(b), BorderColor)
	}
}

func strokeRect(dst draw.Image, r image.Rectangle, c color.Color) {
	if r.Empty() {
		return
	}
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
		image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e, src, image.Point{}, draw.Over)
	}
}
