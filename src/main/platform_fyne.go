//go:build !windows

package main

import (
	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"screen-sniper/src/notification"
	"screen-sniper/src/overlay"
	"screen-sniper/src/tray"
)

const appID = "io.github.screen-sniper"

// platform wraps the fyne driver, which must own the main goroutine.
type platform struct {
	fapp fyne.App
}

func newPlatform() *platform {
	return &platform{fapp: fyneapp.NewWithID(appID)}
}

func (p *platform) surfaces() overlay.Factory { return overlay.NewFactory(p.fapp) }

// fyne has no process activation; the overlay window requests focus itself.
func (p *platform) activator() func() { return nil }

func (p *platform) notifier() notification.Notifier { return notification.New(p.fapp) }

func (p *platform) runResident(opts tray.Options, body func()) {
	tray.New(p.fapp, opts).Run(func() { go body() })
	p.fapp.Run()
}

func (p *platform) runOnce(body func()) {
	go body()
	p.fapp.Run()
}

func (p *platform) quit() { fyne.Do(p.fapp.Quit) }

func enableDPIAwareness() {}
