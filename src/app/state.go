package app

import (
	"sync"

	"screen-sniper/src/clipboard"
	"screen-sniper/src/speech"
)

// Change names the piece of State that was mutated.
type Change int

const (
	KeepLineBreaksChanged Change = iota + 1
	AdditiveClipboardChanged
	TextToSpeechChanged
	HistoryChanged
	SpeakingChanged
)

func (c Change) String() string {
	switch c {
	case KeepLineBreaksChanged:
		return "keep-line-breaks"
	case AdditiveClipboardChanged:
		return "additive-clipboard"
	case TextToSpeechChanged:
		return "text-to-speech"
	case HistoryChanged:
		return "history"
	case SpeakingChanged:
		return "speaking"
	default:
		return "unknown"
	}
}

// Observer is told about every State mutation, after the lock is released.
type Observer interface {
	StateChanged(c Change)
}

type ObserverFunc func(Change)

func (f ObserverFunc) StateChanged(c Change) { f(c) }

// Settings are the user-facing switches, loaded from configuration at startup.
type Settings struct {
	KeepLineBreaks       bool
	AdditiveClipboard    bool
	TextToSpeech         bool
	TTSRate              float64
	DisableNotifications bool
}

func DefaultSettings() Settings {
	return Settings{KeepLineBreaks: true, TTSRate: speech.DefaultRate}
}

// State is shared between the UI loop, which mutates it, and the tray, which
// reads it to refresh check marks.
type State struct {
	mu        sync.Mutex
	settings  Settings
	speaking  bool
	observers []Observer

	history clipboard.History
}

func NewState(s Settings) *State {
	if s.TTSRate <= 0 {
		s.TTSRate = speech.DefaultRate
	}
	return &State{settings: s}
}

func (s *State) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *State) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *State) SetKeepLineBreaks(v bool) {
	s.update(KeepLineBreaksChanged, func(st *Settings) bool {
		changed := st.KeepLineBreaks != v
		st.KeepLineBreaks = v
		return changed
	})
}

func (s *State) ToggleKeepLineBreaks() {
	s.update(KeepLineBreaksChanged, func(st *Settings) bool {
		st.KeepLineBreaks = !st.KeepLineBreaks
		return true
	})
}

func (s *State) SetAdditiveClipboard(v bool) {
	s.update(AdditiveClipboardChanged, func(st *Settings) bool {
		changed := st.AdditiveClipboard != v
		st.AdditiveClipboard = v
		return changed
	})
}

func (s *State) ToggleAdditiveClipboard() {
	s.update(AdditiveClipboardChanged, func(st *Settings) bool {
		st.AdditiveClipboard = !st.AdditiveClipboard
		return true
	})
}

func (s *State) SetTextToSpeech(v bool) {
	s.update(TextToSpeechChanged, func(st *Settings) bool {
		changed := st.TextToSpeech != v
		st.TextToSpeech = v
		return changed
	})
}

func (s *State) ToggleTextToSpeech() {
	s.update(TextToSpeechChanged, func(st *Settings) bool {
		st.TextToSpeech = !st.TextToSpeech
		return true
	})
}

func (s *State) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

func (s *State) SetSpeaking(v bool) {
	s.mu.Lock()
	changed := s.speaking != v
	s.speaking = v
	s.mu.Unlock()
	if changed {
		s.publish(SpeakingChanged)
	}
}

// AppendHistory records text and returns the whole history joined by newlines.
func (s *State) AppendHistory(text string) string {
	joined := s.history.Append(text)
	s.publish(HistoryChanged)
	return joined
}

func (s *State) ClearHistory() {
	if s.history.Len() == 0 {
		return
	}
	s.history.Clear()
	s.publish(HistoryChanged)
}

func (s *State) HistoryLen() int { return s.history.Len() }

func (s *State) update(c Change, fn func(*Settings) bool) {
	s.mu.Lock()
	changed := fn(&s.settings)
	s.mu.Unlock()
	if changed {
		s.publish(c)
	}
}

func (s *State) publish(c Change) {
	s.mu.Lock()
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()
	for _, o := range observers {
		o.StateChanged(c)
	}
}
