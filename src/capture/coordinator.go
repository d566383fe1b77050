// Package capture runs one capture request end to end: overlay, gesture,
// coordinate conversion, compositor capture, completion.
package capture

import (
	"context"
	"image"
	"log"
	"time"

	"screen-sniper/src/geometry"
	"screen-sniper/src/overlay"
	"screen-sniper/src/screenshot"
	"screen-sniper/src/selection"
	"screen-sniper/src/worker"
)

// Dispatcher marshals a function onto the UI loop.
type Dispatcher interface {
	Post(fn func())
}

// Submitter runs blocking work off the UI loop. *worker.Pool satisfies it.
type Submitter interface {
	Submit(ctx context.Context, name string, run worker.Job, cb worker.ResultCallback) bool
}

type Options struct {
	Dispatcher Dispatcher
	Surfaces   overlay.Factory
	Capturer   screenshot.Capturer
	Workers    Submitter

	// Display picks the screen a gesture is bound to. Defaults to the primary display.
	Display func() (screenshot.Display, error)
	// Activate brings the process to the foreground before the overlay shows.
	Activate func()
	// HideSettle is how long to wait after ordering the overlay out before
	// asking the compositor for pixels.
	HideSettle time.Duration
}

// Coordinator allows at most one capture at a time. All methods must be
// called on the UI loop.
type Coordinator struct {
	opts   Options
	active *attempt
}

type attempt struct {
	surface    overlay.Surface
	display    screenshot.Display
	onComplete func(image.Image)
	completed  bool
}

func New(opts Options) *Coordinator {
	if opts.Display == nil {
		opts.Display = screenshot.PrimaryDisplay
	}
	if opts.HideSettle <= 0 {
		opts.HideSettle = 60 * time.Millisecond
	}
	return &Coordinator{opts: opts}
}

// InProgress reports whether a capture attempt currently owns the overlay.
func (c *Coordinator) InProgress() bool { return c.active != nil }

// BeginCapture starts a capture unless one is already running, in which case
// the call is ignored and onComplete is never invoked.
func (c *Coordinator) BeginCapture(onComplete func(image.Image)) {
	if c.active != nil {
		log.Printf("capture: already in progress, ignoring request")
		return
	}

	display, err := c.opts.Display()
	if err != nil {
		log.Printf("capture: no target display: %v", err)
		deliver(onComplete, nil)
		return
	}

	surface, err := c.opts.Surfaces(display)
	if err != nil {
		log.Printf("capture: failed to create overlay: %v", err)
		deliver(onComplete, nil)
		return
	}

	a := &attempt{surface: surface, display: display, onComplete: onComplete}
	c.active = a

	if c.opts.Activate != nil {
		c.opts.Activate()
	}
	// Surface events are posted to the loop, so none reach the input before
	// the session below is attached.
	in := &loopInput{dispatcher: c.opts.Dispatcher}
	if err := surface.Show(in); err != nil {
		log.Printf("capture: failed to show overlay: %v", err)
		surface.Close()
		c.complete(a, nil)
		return
	}
	in.session = selection.New(surface.Bounds(), surface, func(out selection.Outcome) {
		c.finish(a, out)
	})
	surface.Render(in.session.Frame())
	log.Printf("capture: overlay shown on display %d %v", display.Index, display.Bounds)
}

func (c *Coordinator) finish(a *attempt, out selection.Outcome) {
	if !out.Completed {
		log.Printf("capture: selection cancelled")
		a.surface.Close()
		c.complete(a, nil)
		return
	}

	a.surface.Hide()
	local, err := geometry.ToScreenPixelSpace(out.Rect, a.surface.WindowOrigin(), a.surface.ScreenFrame())
	if err != nil {
		log.Printf("capture: %v", err)
		a.surface.Close()
		c.complete(a, nil)
		return
	}
	pixels := geometry.ToBackingPixels(local, a.surface.Scale())
	log.Printf("capture: selection %v -> screen %v -> pixels %v", out.Rect, local, pixels)

	settle := c.opts.HideSettle
	capturer := c.opts.Capturer
	display := a.display
	submitted := c.opts.Workers.Submit(context.Background(), "screen capture", func(ctx context.Context) (any, error) {
		time.Sleep(settle)
		return capturer.Capture(ctx, display, pixels)
	}, func(result any, err error) {
		c.opts.Dispatcher.Post(func() {
			a.surface.Close()
			if err != nil {
				log.Printf("capture: compositor failed: %v", err)
				c.complete(a, nil)
				return
			}
			img, _ := result.(*image.RGBA)
			if img == nil {
				c.complete(a, nil)
				return
			}
			c.complete(a, img)
		})
	})
	if !submitted {
		log.Printf("capture: worker pool busy, dropping capture")
		a.surface.Close()
		c.complete(a, nil)
	}
}

// complete clears the in-progress flag and fires the callback exactly once.
func (c *Coordinator) complete(a *attempt, img image.Image) {
	if a.completed {
		return
	}
	a.completed = true
	if c.active == a {
		c.active = nil
	}
	deliver(a.onComplete, img)
}

func deliver(onComplete func(image.Image), img image.Image) {
	if onComplete == nil {
		return
	}
	onComplete(img)
}

// loopInput forwards surface events onto the UI loop before they touch the session.
type loopInput struct {
	dispatcher Dispatcher
	session    *selection.Session
}

func (in *loopInput) MouseDown(p geometry.Point) {
	in.dispatcher.Post(func() { in.session.MouseDown(p) })
}

func (in *loopInput) MouseDragged(p geometry.Point) {
	in.dispatcher.Post(func() { in.session.MouseDragged(p) })
}

func (in *loopInput) MouseUp(p geometry.Point) {
	in.dispatcher.Post(func() { in.session.MouseUp(p) })
}

func (in *loopInput) Escape() {
	in.dispatcher.Post(func() { in.session.Escape() })
}
