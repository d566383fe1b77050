// Package selection holds the state machine for one capture gesture.
//
// A Session is driven from the UI loop only; it is not safe for concurrent use.
package selection

import (
	"log"

	"screen-sniper/src/geometry"
)

// State is the lifecycle position of a Session.
type State int

const (
	Idle State = iota
	Dragging
	Completed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool { return s == Completed || s == Cancelled }

// Outcome is delivered once when the session terminates. Rect is only
// meaningful when Completed is true.
type Outcome struct {
	Rect      geometry.Rect
	Completed bool
}

// Frame is everything a surface needs to paint the overlay.
type Frame struct {
	Bounds    geometry.Rect
	Selection *geometry.Rect
	Dim       []geometry.Rect
}

// Renderer paints frames. Implementations marshal onto their own thread.
type Renderer interface {
	Render(Frame)
}

type Session struct {
	bounds   geometry.Rect
	renderer Renderer
	onDone   func(Outcome)

	state   State
	start   *geometry.Point
	current *geometry.Point
}

// New creates an idle session covering bounds (view-local coordinates).
// onDone is called exactly once, on termination.
func New(bounds geometry.Rect, renderer Renderer, onDone func(Outcome)) *Session {
	return &Session{bounds: bounds, renderer: renderer, onDone: onDone}
}

func (s *Session) State() State { return s.state }

// Selection returns the live rectangle while dragging.
func (s *Session) Selection() (geometry.Rect, bool) {
	return geometry.SelectionRect(s.start, s.current)
}

// Frame returns the current paint state: the whole surface dimmed with the live
// selection cut out.
func (s *Session) Frame() Frame {
	f := Frame{Bounds: s.bounds}
	if sel, ok := s.Selection(); ok {
		f.Selection = &sel
		f.Dim = geometry.DimRegions(s.bounds, sel)
	} else {
		f.Dim = geometry.DimRegions(s.bounds, geometry.Rect{})
	}
	return f
}

func (s *Session) MouseDown(p geometry.Point) {
	if s.state != Idle {
		return
	}
	s.start = &p
	cur := p
	s.current = &cur
	s.state = Dragging
	s.redraw()
}

func (s *Session) MouseDragged(p geometry.Point) {
	if s.state != Dragging {
		return
	}
	s.current = &p
	s.redraw()
}

func (s *Session) MouseUp(p geometry.Point) {
	if s.state != Dragging {
		return
	}
	s.current = &p
	sel, ok := s.Selection()
	s.start, s.current = nil, nil

	if !ok {
		s.finish(Cancelled, geometry.Rect{})
		return
	}
	if err := geometry.CheckSelection(sel); err != nil {
		log.Printf("selection: %v, treating as cancel", err)
		s.finish(Cancelled, geometry.Rect{})
		return
	}
	s.finish(Completed, sel)
}

// Escape aborts the session regardless of drag state.
func (s *Session) Escape() {
	if s.state.Terminal() {
		return
	}
	s.start, s.current = nil, nil
	s.finish(Cancelled, geometry.Rect{})
}

func (s *Session) finish(state State, rect geometry.Rect) {
	s.state = state
	log.Printf("selection: %s %v", state, rect)
	if s.onDone != nil {
		done := s.onDone
		s.onDone = nil
		done(Outcome{Rect: rect, Completed: state == Completed})
	}
}

func (s *Session) redraw() {
	if s.renderer != nil {
		s.renderer.Render(s.Frame())
	}
}
