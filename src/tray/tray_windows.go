//go:build windows

package tray

import (
	"log"
	"sync"

	"github.com/getlantern/systray"

	"screen-sniper/src/app"
)

// Tray owns the notification-area icon. Run blocks on the thread that calls it,
// so main gives it the locked main goroutine.
type Tray struct {
	opts  Options
	mu    sync.Mutex
	items []*systray.MenuItem
	rows  []entry
}

func New(opts Options) *Tray {
	if opts.Tooltip == "" {
		opts.Tooltip = DefaultTooltip
	}
	return &Tray{opts: opts}
}

// Run shows the icon and blocks until Quit. onReady runs once the menu exists.
func (t *Tray) Run(onReady func()) {
	systray.Run(func() {
		systray.SetIcon(IconICO())
		systray.SetTitle(Title)
		systray.SetTooltip(t.opts.Tooltip)
		t.build()
		t.opts.State.Subscribe(app.ObserverFunc(func(app.Change) { t.refresh() }))
		if onReady != nil {
			onReady()
		}
	}, func() {
		log.Printf("tray: exited")
	})
}

// Quit removes the icon and makes Run return.
func (t *Tray) Quit() { systray.Quit() }

func (t *Tray) SetTooltip(text string) { systray.SetTooltip(text) }

func (t *Tray) build() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range entries() {
		if e.separator {
			systray.AddSeparator()
			continue
		}
		var item *systray.MenuItem
		if e.isCheckbox() {
			item = systray.AddMenuItemCheckbox(e.title, e.tooltip, false)
		} else {
			item = systray.AddMenuItem(e.title, e.tooltip)
		}
		t.items = append(t.items, item)
		t.rows = append(t.rows, e)

		go func(e entry, item *systray.MenuItem) {
			for range item.ClickedCh {
				activate(t.opts, e)
			}
		}(e, item)
	}
	t.refreshLocked()
}

func (t *Tray) refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refreshLocked()
}

func (t *Tray) refreshLocked() {
	for i, e := range t.rows {
		rs := stateOf(t.opts, e)
		item := t.items[i]
		if e.isCheckbox() {
			if rs.checked {
				item.Check()
			} else {
				item.Uncheck()
			}
		}
		if rs.enabled {
			item.Enable()
		} else {
			item.Disable()
		}
	}
}
