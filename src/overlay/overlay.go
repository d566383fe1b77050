package overlay

import (
	"screen-sniper/src/geometry"
	"screen-sniper/src/screenshot"
	"screen-sniper/src/selection"
)

// Input receives gesture events in the surface's view-local space, bottom-left
// origin. Surfaces call it from their own thread; the receiver is responsible
// for marshalling onto the UI loop.
type Input interface {
	MouseDown(p geometry.Point)
	MouseDragged(p geometry.Point)
	MouseUp(p geometry.Point)
	Escape()
}

// Surface is a topmost, borderless window covering one display. Only the
// surface itself takes pointer and keyboard input while it is visible.
type Surface interface {
	selection.Renderer

	// Show makes the surface visible and claims keyboard focus once.
	Show(input Input) error
	// Hide orders the surface out so a following capture does not include it.
	Hide()
	// Close destroys the surface. Safe to call more than once.
	Close()

	// Bounds is the view rectangle in logical points, origin (0,0).
	Bounds() geometry.Rect
	// WindowOrigin is the window's origin in screen space (bottom-left origin).
	WindowOrigin() geometry.Point
	// ScreenFrame is the hosting screen's frame in the same space.
	ScreenFrame() geometry.Rect
	// Scale is backing pixels per logical point.
	Scale() float64
}

// Factory builds a surface bound to one display.
type Factory func(display screenshot.Display) (Surface, error)
