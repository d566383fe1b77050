//go:build !windows

package tray

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"screen-sniper/src/app"
)

// Tray drives the fyne system tray. The fyne app owns the main thread, so Run
// only installs the menu and returns.
type Tray struct {
	opts  Options
	fapp  fyne.App
	menu  *fyne.Menu
	items []*fyne.MenuItem
	rows  []entry
}

func New(a fyne.App, opts Options) *Tray {
	if opts.Tooltip == "" {
		opts.Tooltip = DefaultTooltip
	}
	return &Tray{opts: opts, fapp: a}
}

// Run installs the tray menu. Must be called on the fyne goroutine.
func (t *Tray) Run(onReady func()) {
	desk, ok := t.fapp.(desktop.App)
	if !ok {
		log.Printf("tray: driver has no system tray, running without one")
		if onReady != nil {
			onReady()
		}
		return
	}

	for _, e := range entries() {
		if e.separator {
			t.items = append(t.items, fyne.NewMenuItemSeparator())
			t.rows = append(t.rows, e)
			continue
		}
		item := fyne.NewMenuItem(e.title, func() { activate(t.opts, e) })
		item.IsQuit = e.quit
		t.items = append(t.items, item)
		t.rows = append(t.rows, e)
	}
	t.menu = fyne.NewMenu(Title, t.items...)
	t.apply()
	desk.SetSystemTrayMenu(t.menu)
	desk.SetSystemTrayIcon(fyne.NewStaticResource("screen-sniper.svg", []byte(SVGContent)))

	t.opts.State.Subscribe(app.ObserverFunc(func(app.Change) {
		fyne.Do(func() {
			t.apply()
			t.menu.Refresh()
		})
	}))
	if onReady != nil {
		onReady()
	}
}

func (t *Tray) Quit() { fyne.Do(t.fapp.Quit) }

// SetTooltip is a no-op; fyne trays have no tooltip.
func (t *Tray) SetTooltip(string) {}

func (t *Tray) apply() {
	for i, e := range t.rows {
		if e.separator {
			continue
		}
		rs := stateOf(t.opts, e)
		t.items[i].Checked = e.isCheckbox() && rs.checked
		t.items[i].Disabled = !rs.enabled
	}
}
