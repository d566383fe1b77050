//go:build !windows

package overlay

import (
	"fmt"
	"image"
	"log"
	"sync"

	"screen-sniper/src/geometry"
	"screen-sniper/src/screenshot"
	"screen-sniper/src/selection"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// NewFactory returns surfaces drawn as borderless full-screen fyne windows.
// The fyne app must already be running; window work is marshalled with fyne.Do.
func NewFactory(app fyne.App) Factory {
	return func(display screenshot.Display) (Surface, error) {
		background, err := screenshot.CaptureDisplay(display)
		if err != nil {
			return nil, fmt.Errorf("failed to capture overlay background: %w", err)
		}
		px := background.Bounds()
		return &fyneSurface{
			app:        app,
			background: background,
			dimmed:     Dim(background),
			canvas:     image.NewRGBA(image.Rect(0, 0, px.Dx(), px.Dy())),
			bounds:     geometry.Rect{W: float64(px.Dx()), H: float64(px.Dy())},
			scale:      1,
		}, nil
	}
}

type fyneSurface struct {
	app        fyne.App
	background *image.RGBA
	dimmed     *image.RGBA

	mu     sync.Mutex
	canvas *image.RGBA
	bounds geometry.Rect
	scale  float64

	window fyne.Window
	view   *selectionView
	once   sync.Once
}

func (s *fyneSurface) Bounds() geometry.Rect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bounds
}

func (s *fyneSurface) WindowOrigin() geometry.Point { return geometry.Point{} }
func (s *fyneSurface) ScreenFrame() geometry.Rect   { return s.Bounds() }

func (s *fyneSurface) Scale() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scale
}

// Show creates and shows the window on the fyne thread and waits for it, so
// Bounds and Scale reflect the laid out canvas afterwards.
func (s *fyneSurface) Show(input Input) error {
	fyne.DoAndWait(func() {
		var w fyne.Window
		if drv, ok := s.app.Driver().(desktop.Driver); ok {
			w = drv.CreateSplashWindow()
		} else {
			w = s.app.NewWindow("Select a region")
		}
		w.SetPadded(false)

		img := canvas.NewImageFromImage(s.canvas)
		img.FillMode = canvas.ImageFillStretch
		img.ScaleMode = canvas.ImageScalePixels
		view := newSelectionView(img, input)

		w.SetContent(view)
		w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
			if ev.Name == fyne.KeyEscape {
				input.Escape()
			}
		})
		w.SetFullScreen(true)
		w.Show()
		w.RequestFocus()

		size := w.Canvas().Size()
		if px := s.canvas.Bounds(); size.Width > 0 && !CoversDisplay(float64(size.Width), float64(size.Height), px) {
			log.Printf("overlay: window canvas %.0fx%.0f does not match display %dx%d; it may be on another monitor",
				size.Width, size.Height, px.Dx(), px.Dy())
		}
		s.mu.Lock()
		if size.Width > 0 && size.Height > 0 {
			s.bounds = geometry.Rect{W: float64(size.Width), H: float64(size.Height)}
			s.scale = float64(s.canvas.Bounds().Dx()) / float64(size.Width)
		}
		s.window = w
		s.view = view
		s.mu.Unlock()
	})
	return nil
}

func (s *fyneSurface) Render(frame selection.Frame) {
	s.mu.Lock()
	Compose(s.canvas, s.background, s.dimmed, frame, s.scale)
	view := s.view
	s.mu.Unlock()
	if view != nil {
		fyne.Do(view.image.Refresh)
	}
}

// Hide returns once the window is ordered out.
func (s *fyneSurface) Hide() {
	s.mu.Lock()
	w := s.window
	s.mu.Unlock()
	if w != nil {
		fyne.DoAndWait(w.Hide)
	}
}

func (s *fyneSurface) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		w := s.window
		s.mu.Unlock()
		if w != nil {
			fyne.Do(w.Close)
		}
	})
}

// selectionView turns fyne pointer events into view-local gesture events.
type selectionView struct {
	widget.BaseWidget

	image    *canvas.Image
	input    Input
	dragging bool
	last     fyne.Position
}

var (
	_ desktop.Mouseable = (*selectionView)(nil)
	_ fyne.Draggable    = (*selectionView)(nil)
)

func newSelectionView(img *canvas.Image, input Input) *selectionView {
	v := &selectionView{image: img, input: input}
	v.ExtendBaseWidget(v)
	return v
}

func (v *selectionView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.image)
}

func (v *selectionView) point(pos fyne.Position) geometry.Point {
	return geometry.FlipY(geometry.Point{X: float64(pos.X), Y: float64(pos.Y)}, float64(v.Size().Height))
}

func (v *selectionView) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	v.dragging = true
	v.last = ev.Position
	v.input.MouseDown(v.point(ev.Position))
}

func (v *selectionView) Dragged(ev *fyne.DragEvent) {
	if !v.dragging {
		return
	}
	v.last = ev.Position
	v.input.MouseDragged(v.point(ev.Position))
}

// DragEnd fires instead of MouseUp when the pointer moved while pressed.
func (v *selectionView) DragEnd() {
	v.release(v.last)
}

func (v *selectionView) MouseUp(ev *desktop.MouseEvent) {
	v.release(ev.Position)
}

func (v *selectionView) release(pos fyne.Position) {
	if !v.dragging {
		return
	}
	v.dragging = false
	v.input.MouseUp(v.point(pos))
}
