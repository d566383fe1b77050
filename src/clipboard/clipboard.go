package clipboard

import (
	"fmt"
	"strings"
	"sync"

	"golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
	writeMu  sync.Mutex
)

// Init prepares the system clipboard. Safe to call more than once.
func Init() error {
	initOnce.Do(func() {
		initErr = clipboard.Init()
	})
	return initErr
}

// Write performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func Write(text string) error {
	if err := Init(); err != nil {
		return fmt.Errorf("clipboard unavailable: %w", err)
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// Writer puts text on the clipboard.
type Writer interface {
	Write(text string) error
}

// System is the Writer backed by the OS clipboard.
type System struct{}

func (System) Write(text string) error { return Write(text) }

// History accumulates captures for additive copying. It is safe for concurrent use.
type History struct {
	mu      sync.Mutex
	entries []string
}

// Append adds text and returns every entry joined by newlines.
func (h *History) Append(text string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, text)
	return strings.Join(h.entries, "\n")
}

func (h *History) Joined() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return strings.Join(h.entries, "\n")
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
