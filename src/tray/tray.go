// Package tray puts the status menu in the system notification area.
package tray

import (
	"log"

	"screen-sniper/src/app"
)

const (
	Title          = "Screen Sniper"
	DefaultTooltip = "Screen Sniper - select a region to copy its text"
)

type Options struct {
	State *app.State
	// Post runs fn on the UI loop; menu callbacks never touch state directly.
	Post    func(fn func())
	Perform func(action string) error
	// Quit is called once the user picks Quit.
	Quit    func()
	Tooltip string
}

// entry is one menu row, shared by every tray front end.
type entry struct {
	title   string
	tooltip string
	// separator rows ignore every other field.
	separator bool
	run       func(o Options)
	checked   func(app.Settings) bool
	// enabled is nil for rows that are always clickable.
	enabled func(st *app.State) bool
	quit    bool
}

func (e entry) isCheckbox() bool { return e.checked != nil }

func perform(action string) func(o Options) {
	return func(o Options) {
		if err := o.Perform(action); err != nil {
			log.Printf("tray: %v", err)
		}
	}
}

func entries() []entry {
	return []entry{
		{title: "Capture Text", tooltip: "Select a region and copy its text", run: perform(app.ActionCaptureText)},
		{title: "Read QR/Bar Code", tooltip: "Select a code and copy its payload", run: perform(app.ActionReadCode)},
		{separator: true},
		{
			title:   "Keep Line Breaks",
			run:     func(o Options) { o.State.ToggleKeepLineBreaks() },
			checked: func(s app.Settings) bool { return s.KeepLineBreaks },
		},
		{
			title:   "Additive Clipboard",
			run:     perform(app.ActionToggleAdditive),
			checked: func(s app.Settings) bool { return s.AdditiveClipboard },
		},
		{
			title:   "Clear Clipboard History",
			run:     perform(app.ActionClearHistory),
			enabled: func(st *app.State) bool { return st.HistoryLen() > 0 },
		},
		{separator: true},
		{
			title:   "Text to Speech",
			run:     perform(app.ActionToggleTextToSpeech),
			checked: func(s app.Settings) bool { return s.TextToSpeech },
		},
		{
			title:   "Stop Speaking",
			run:     perform(app.ActionStopSpeaking),
			enabled: func(st *app.State) bool { return st.Speaking() },
		},
		{separator: true},
		{title: "Quit", tooltip: "Quit the application", quit: true},
	}
}

// activate handles a click on e from any goroutine.
func activate(o Options, e entry) {
	if e.quit {
		if o.Quit != nil {
			o.Quit()
		}
		return
	}
	if e.run == nil {
		return
	}
	o.Post(func() { e.run(o) })
}

// rowState is what a front end needs to draw one row.
type rowState struct {
	checked bool
	enabled bool
}

func stateOf(o Options, e entry) rowState {
	rs := rowState{enabled: true}
	if e.checked != nil {
		rs.checked = e.checked(o.State.Settings())
	}
	if e.enabled != nil {
		rs.enabled = e.enabled(o.State)
	}
	return rs
}
