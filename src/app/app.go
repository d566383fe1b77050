// Package app ties captures to recognition, the clipboard, notifications and
// speech. Everything except State is confined to the UI loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"regexp"
	"time"

	"screen-sniper/src/capture"
	"screen-sniper/src/clipboard"
	"screen-sniper/src/logutil"
	"screen-sniper/src/notification"
	"screen-sniper/src/ocr"
	"screen-sniper/src/singleinstance"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	// ErrCancelled is reported when the user dismisses the overlay or the
	// selection was too small to capture.
	ErrCancelled = errors.New("capture cancelled")
	ErrBusy      = errors.New("busy, please retry")
)

// Capturer starts interactive captures. *capture.Coordinator satisfies it.
type Capturer interface {
	BeginCapture(onComplete func(image.Image))
	InProgress() bool
}

// Speaker is the text to speech engine. *speech.Speaker satisfies it.
type Speaker interface {
	Speak(text string, wpm float64) error
	Stop()
	Speaking() bool
}

type Options struct {
	State      *State
	Capture    Capturer
	Dispatcher capture.Dispatcher
	Workers    capture.Submitter

	Recognizer ocr.Recognizer
	// DecodeCode reads a barcode payload; barcode.Read in production.
	DecodeCode func(image.Image) (string, error)
	Clipboard  clipboard.Writer
	Notifier   notification.Notifier
	Speaker    Speaker

	// OCRTimeout bounds one recognition round trip.
	OCRTimeout time.Duration
	// MaxSide caps the longer edge of images sent to the recognizer.
	MaxSide int
}

type App struct {
	opts Options
	// pending counts captures whose result has not been delivered yet.
	pending int
}

func New(opts Options) *App {
	if opts.State == nil {
		opts.State = NewState(DefaultSettings())
	}
	if opts.Notifier == nil {
		opts.Notifier = notification.Log{}
	}
	if opts.OCRTimeout <= 0 {
		opts.OCRTimeout = 20 * time.Second
	}
	return &App{opts: opts}
}

func (a *App) State() *State { return a.opts.State }

// Busy reports whether a capture or its recognition is still running.
func (a *App) Busy() bool {
	return a.pending > 0 || (a.opts.Capture != nil && a.opts.Capture.InProgress())
}

// Perform runs a named action. Must be called on the UI loop.
func (a *App) Perform(action string) error {
	log.Printf("app: action %s", action)
	st := a.opts.State
	switch action {
	case ActionCaptureText:
		a.captureText(st.Settings().KeepLineBreaks)
	case ActionCaptureTextStripBreaks:
		a.captureText(false)
	case ActionCaptureTextKeepBreaks:
		a.captureText(true)
	case ActionCaptureAndSpeak:
		st.SetTextToSpeech(true)
		a.captureText(st.Settings().KeepLineBreaks)
	case ActionReadCode:
		a.captureCode()
	case ActionStopSpeaking:
		if a.opts.Speaker != nil {
			a.opts.Speaker.Stop()
		}
	case ActionToggleAdditive:
		st.ToggleAdditiveClipboard()
	case ActionClearHistory:
		st.ClearHistory()
	case ActionKeepLineBreaks:
		st.SetKeepLineBreaks(true)
	case ActionToggleTextToSpeech:
		st.ToggleTextToSpeech()
	case ActionCaptureLastRegion:
		a.notify("Capture Last Region", "This action will be available in a future version.")
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return nil
}

var lineBreaks = regexp.MustCompile(`\s*\n\s*`)

// ProcessText collapses every line break and the whitespace around it into a
// single space unless line breaks are kept.
func ProcessText(text string, keepLineBreaks bool) string {
	if keepLineBreaks {
		return text
	}
	return lineBreaks.ReplaceAllString(text, " ")
}

func (a *App) captureText(keepLineBreaks bool) {
	a.run("ocr", a.recognize, func(text string, err error) {
		if err != nil {
			a.reportFailure("Recognition Failed", err)
			return
		}
		a.deliverText(ProcessText(text, keepLineBreaks))
	})
}

func (a *App) captureCode() {
	a.run("barcode", a.decode, func(payload string, err error) {
		if err != nil {
			a.reportFailure("Unable to read code", err)
			return
		}
		if err := a.copy(payload); err != nil {
			a.reportFailure("Clipboard", err)
			return
		}
		a.notify("Code Copied", payload)
		a.maybeSpeak(payload)
	})
}

// deliverText copies recognized text, respecting the additive clipboard, and
// speaks it when text to speech is on.
func (a *App) deliverText(text string) {
	out := text
	if a.opts.State.Settings().AdditiveClipboard {
		out = a.opts.State.AppendHistory(text)
	}
	if err := a.copy(out); err != nil {
		a.reportFailure("Clipboard", err)
		return
	}
	log.Printf("app: copied %d chars: %q", len(out), logutil.Sanitize(out))
	a.notify("Text Copied", "Recognized text is on the clipboard")
	a.maybeSpeak(text)
}

func (a *App) maybeSpeak(text string) {
	st := a.opts.State.Settings()
	if !st.TextToSpeech || a.opts.Speaker == nil {
		return
	}
	if err := a.opts.Speaker.Speak(text, st.TTSRate); err != nil {
		log.Printf("app: speech failed: %v", err)
	}
}

func (a *App) copy(text string) error {
	if a.opts.Clipboard == nil {
		return errors.New("no clipboard")
	}
	return a.opts.Clipboard.Write(text)
}

func (a *App) notify(title, text string) {
	if a.opts.State.Settings().DisableNotifications {
		return
	}
	a.opts.Notifier.Notify(title, text)
}

func (a *App) reportFailure(title string, err error) {
	if errors.Is(err, ErrCancelled) {
		log.Printf("app: %v", err)
		return
	}
	log.Printf("app: %s: %v", title, err)
	a.notify(title, err.Error())
}

func (a *App) recognize(ctx context.Context, img image.Image) (string, error) {
	if a.opts.Recognizer == nil {
		return "", errors.New("no text recognizer configured")
	}
	return ocr.RecognizeImage(ctx, a.opts.Recognizer, img, a.opts.MaxSide)
}

func (a *App) decode(_ context.Context, img image.Image) (string, error) {
	if a.opts.DecodeCode == nil {
		return "", errors.New("no barcode reader configured")
	}
	return a.opts.DecodeCode(img)
}

// run captures a region, processes it on the worker pool and hands the result
// to done on the UI loop. done is not called if a capture is already running.
func (a *App) run(name string, process func(context.Context, image.Image) (string, error), done func(string, error)) {
	if a.opts.Capture == nil {
		done("", errors.New("capture unavailable"))
		return
	}
	a.opts.Capture.BeginCapture(func(img image.Image) {
		if img == nil {
			done("", ErrCancelled)
			return
		}
		a.pending++
		ctx, cancel := context.WithTimeout(context.Background(), a.opts.OCRTimeout)
		submitted := a.opts.Workers.Submit(ctx, name, func(ctx context.Context) (any, error) {
			return process(ctx, img)
		}, func(result any, err error) {
			cancel()
			text, _ := result.(string)
			a.opts.Dispatcher.Post(func() {
				a.pending--
				done(text, err)
			})
		})
		if !submitted {
			cancel()
			a.pending--
			done("", ErrBusy)
		}
	})
}

// HandleRequest serves a capture delegated by another process and owns conn.
func (a *App) HandleRequest(conn singleinstance.Conn) {
	req := conn.Request()
	process, name := a.recognize, "ocr"
	if req.Mode == singleinstance.ModeCode {
		process, name = a.decode, "barcode"
	}
	log.Printf("app: delegated %s request (stdout=%v)", req.Mode, req.OutputToStdout)

	// BeginCapture would ignore the request and leave conn unanswered.
	if a.Busy() {
		_ = conn.RespondError(ErrBusy.Error())
		_ = conn.Close()
		return
	}

	a.run(name, process, func(text string, err error) {
		defer conn.Close()
		if err != nil {
			log.Printf("app: delegated %s failed: %v", req.Mode, err)
			_ = conn.RespondError(err.Error())
			return
		}
		if req.Mode == singleinstance.ModeText {
			text = ProcessText(text, a.opts.State.Settings().KeepLineBreaks)
		}
		if req.OutputToStdout {
			_ = conn.RespondSuccess(text)
			return
		}
		if err := a.copy(text); err != nil {
			_ = conn.RespondError(err.Error())
			return
		}
		_ = conn.RespondSuccess("")
	})
}
