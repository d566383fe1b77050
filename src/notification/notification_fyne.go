//go:build !windows

package notification

import (
	"log"

	"fyne.io/fyne/v2"
)

type fyneNotifier struct {
	app fyne.App
}

// New returns a notifier that posts desktop notifications through the fyne app.
func New(app fyne.App) Notifier {
	return fyneNotifier{app: app}
}

func (n fyneNotifier) Notify(title, text string) {
	text = Truncate(text, MaxTextLen)
	fyne.Do(func() {
		n.app.SendNotification(fyne.NewNotification(title, text))
	})
}

// ShowBlockingError logs a blocking error message on platforms without a modal helper.
func ShowBlockingError(title, message string) {
	log.Printf("%s: %s", title, message)
}
