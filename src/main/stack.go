package main

import (
	"context"
	"log"
	"sync"
	"time"

	"screen-sniper/src/app"
	"screen-sniper/src/barcode"
	"screen-sniper/src/capture"
	"screen-sniper/src/clipboard"
	"screen-sniper/src/config"
	"screen-sniper/src/eventloop"
	"screen-sniper/src/hotkey"
	"screen-sniper/src/logutil"
	"screen-sniper/src/ocr"
	"screen-sniper/src/screenshot"
	"screen-sniper/src/singleinstance"
	"screen-sniper/src/speech"
	"screen-sniper/src/worker"
)

// stack is every long-lived component, wired together.
type stack struct {
	cfg      *config.Config
	state    *app.State
	loop     *eventloop.Loop
	pool     *worker.Pool
	coord    *capture.Coordinator
	app      *app.App
	speaker  *speech.Speaker
	registry *hotkey.Registry
	watcher  *config.ShortcutWatcher

	closeOnce sync.Once
}

func newRecognizer(cfg *config.Config) (ocr.Recognizer, error) {
	rec, err := ocr.New(cfg.OCRSettings())
	if err != nil {
		return nil, err
	}
	if cfg.OCRProvider == config.ProviderOpenRouter {
		log.Printf("Using model %s with key %s", cfg.Model, logutil.RedactKey(cfg.APIKey))
	} else {
		log.Printf("Using OCR endpoint %s", cfg.OCREndpoint)
	}
	return rec, nil
}

func settingsFrom(cfg *config.Config) app.Settings {
	return app.Settings{
		KeepLineBreaks:       cfg.KeepLineBreaks,
		AdditiveClipboard:    cfg.AdditiveClipboard,
		TextToSpeech:         cfg.TextToSpeech,
		TTSRate:              cfg.TTSRate,
		DisableNotifications: cfg.DisableNotifications,
	}
}

// newStack builds the app around the platform's overlay and notifier. server
// may be nil for a one-shot capture.
func newStack(cfg *config.Config, p *platform, server singleinstance.Server) (*stack, error) {
	rec, err := newRecognizer(cfg)
	if err != nil {
		return nil, err
	}

	s := &stack{
		cfg:   cfg,
		state: app.NewState(settingsFrom(cfg)),
		pool:  worker.New(2),
	}
	s.loop = eventloop.New(eventloop.Options{
		Server:    server,
		Busy:      func() bool { return s.app.Busy() },
		OnRequest: func(conn singleinstance.Conn) { s.app.HandleRequest(conn) },
	})
	s.coord = capture.New(capture.Options{
		Dispatcher: s.loop,
		Surfaces:   p.surfaces(),
		Capturer:   screenshot.NewCapturer(),
		Workers:    s.pool,
		Activate:   p.activator(),
	})
	s.speaker = speech.NewSpeaker()
	s.speaker.OnChange(func(speaking bool) {
		s.loop.Post(func() { s.state.SetSpeaking(speaking) })
	})
	s.app = app.New(app.Options{
		State:      s.state,
		Capture:    s.coord,
		Dispatcher: s.loop,
		Workers:    s.pool,
		Recognizer: rec,
		DecodeCode: barcode.Read,
		Clipboard:  clipboard.System{},
		Notifier:   p.notifier(),
		Speaker:    s.speaker,
		OCRTimeout: time.Duration(cfg.OCRDeadlineSec) * time.Second,
		MaxSide:    cfg.OCRMaxSide,
	})
	return s, nil
}

func newBackend(name string) hotkey.Backend {
	if name == config.BackendNative {
		return hotkey.NewNativeBackend()
	}
	return hotkey.NewHookBackend()
}

// start binds global shortcuts and follows the shortcut file. Called once the
// loop is about to run.
func (s *stack) start(ctx context.Context) {
	s.registry = hotkey.New(newBackend(s.cfg.HotkeyBackend))
	s.loop.Post(func() {
		if err := s.app.BindShortcuts(s.registry, s.cfg.Shortcuts); err != nil {
			log.Printf("hotkeys: some shortcuts are unavailable: %v", err)
		}
	})

	if s.cfg.ShortcutsFile == "" {
		return
	}
	w, err := config.WatchShortcuts(s.cfg.ShortcutsFile, func(fromFile map[string]hotkey.Shortcut) {
		next := s.cfg.WithShortcutFile(fromFile)
		s.loop.Post(func() {
			if err := s.app.Rebind(s.registry, next); err != nil {
				log.Printf("hotkeys: rebind: %v", err)
			}
		})
	})
	if err != nil {
		log.Printf("config: not watching %s: %v", s.cfg.ShortcutsFile, err)
		return
	}
	s.watcher = w
	go func() { _ = w.Run(ctx) }()
}

func (s *stack) close() {
	s.closeOnce.Do(func() {
		if s.watcher != nil {
			_ = s.watcher.Close()
		}
		if s.registry != nil {
			if err := s.registry.Close(); err != nil {
				log.Printf("hotkeys: close: %v", err)
			}
		}
		s.speaker.Stop()
		s.pool.Close()
	})
}
