package notification

import "log"

// MaxTextLen caps the text shown in a toast.
const MaxTextLen = 200

// Notifier shows short, non-blocking messages to the user.
type Notifier interface {
	Notify(title, text string)
}

// Truncate shortens text for display, marking the cut with "...".
func Truncate(text string, limit int) string {
	r := []rune(text)
	if limit <= 0 || len(r) <= limit {
		return text
	}
	return string(r[:limit]) + "..."
}

// Log is a Notifier that only writes to the log. Used by headless commands.
type Log struct{}

func (Log) Notify(title, text string) {
	log.Printf("notification: %s: %s", title, Truncate(text, MaxTextLen))
}
