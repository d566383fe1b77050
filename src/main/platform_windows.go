//go:build windows

package main

import (
	"log"
	"sync"
	"syscall"

	"github.com/lxn/win"

	"screen-sniper/src/notification"
	"screen-sniper/src/overlay"
	"screen-sniper/src/tray"
)

// platform owns the Windows message-loop side of the process: the systray
// icon and the window classes behind overlays and toasts.
type platform struct {
	tray *tray.Tray
	done chan struct{}
	once sync.Once
}

func newPlatform() *platform {
	logMonitorConfiguration()
	return &platform{done: make(chan struct{})}
}

func (p *platform) surfaces() overlay.Factory { return overlay.NewFactory() }

func (p *platform) activator() func() { return overlay.Activate }

func (p *platform) notifier() notification.Notifier { return notification.New() }

// runResident blocks in the systray loop; body runs once the icon is up.
func (p *platform) runResident(opts tray.Options, body func()) {
	p.tray = tray.New(opts)
	p.tray.Run(func() { go body() })
}

// runOnce has no tray; overlays pump their own messages.
func (p *platform) runOnce(body func()) {
	go body()
	<-p.done
}

func (p *platform) quit() {
	p.once.Do(func() {
		if p.tray != nil {
			p.tray.Quit()
		}
		close(p.done)
	})
}

// enableDPIAwareness asks for per-monitor awareness so overlay pixels match
// captured pixels, falling back to system awareness on older Windows.
func enableDPIAwareness() {
	const perMonitorAware = 2
	setAwareness := syscall.NewLazyDLL("Shcore.dll").NewProc("SetProcessDpiAwareness")
	if setAwareness.Find() == nil {
		if ret, _, _ := setAwareness.Call(perMonitorAware); ret != 0 {
			log.Printf("DPI: SetProcessDpiAwareness failed: 0x%x", ret)
		}
		return
	}
	setAware := syscall.NewLazyDLL("user32.dll").NewProc("SetProcessDPIAware")
	if setAware.Find() != nil {
		log.Printf("DPI: no DPI awareness API available")
		return
	}
	if ret, _, _ := setAware.Call(); ret == 0 {
		log.Printf("DPI: SetProcessDPIAware failed")
	}
}

func logMonitorConfiguration() {
	log.Printf("MONITOR: primary %dx%d, virtual screen x:%d y:%d w:%d h:%d",
		win.GetSystemMetrics(win.SM_CXSCREEN),
		win.GetSystemMetrics(win.SM_CYSCREEN),
		win.GetSystemMetrics(win.SM_XVIRTUALSCREEN),
		win.GetSystemMetrics(win.SM_YVIRTUALSCREEN),
		win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN),
		win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN))
}
