package config

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"screen-sniper/src/hotkey"
)

const shortcutWatchDebounce = 200 * time.Millisecond

// ShortcutWatcher reloads the shortcut file whenever it changes on disk. The
// parent directory is watched so editors that replace the file are noticed.
// Deleting the file reports an empty table.
type ShortcutWatcher struct {
	watcher *fsnotify.Watcher
	path    string

	onChange func(map[string]hotkey.Shortcut)
	debounce time.Duration

	mu        sync.Mutex
	timer     *time.Timer
	closed    bool
	closeOnce sync.Once
}

func WatchShortcuts(path string, onChange func(map[string]hotkey.Shortcut)) (*ShortcutWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	sw := &ShortcutWatcher{
		watcher:  watcher,
		path:     filepath.Clean(path),
		onChange: onChange,
		debounce: shortcutWatchDebounce,
	}
	if err := watcher.Add(filepath.Dir(sw.path)); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return sw, nil
}

func (sw *ShortcutWatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != sw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				sw.schedule()
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("config: shortcut watcher: %v", err)
		}
	}
}

func (sw *ShortcutWatcher) Close() error {
	var err error
	sw.closeOnce.Do(func() {
		sw.mu.Lock()
		sw.closed = true
		if sw.timer != nil {
			sw.timer.Stop()
			sw.timer = nil
		}
		sw.mu.Unlock()
		err = sw.watcher.Close()
	})
	return err
}

func (sw *ShortcutWatcher) schedule() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.closed {
		return
	}
	if sw.timer == nil {
		sw.timer = time.AfterFunc(sw.debounce, sw.fire)
	} else {
		sw.timer.Reset(sw.debounce)
	}
}

func (sw *ShortcutWatcher) fire() {
	sw.mu.Lock()
	if sw.closed {
		sw.mu.Unlock()
		return
	}
	sw.timer = nil
	sw.mu.Unlock()

	shortcuts, err := LoadShortcutFile(sw.path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: %s removed, falling back to environment shortcuts", sw.path)
		shortcuts, err = nil, nil
	}
	if err != nil {
		// Half-written files are common mid-save; the next event retries.
		log.Printf("config: keeping current shortcuts, reload failed: %v", err)
		return
	}
	log.Printf("config: reloaded %d shortcuts from %s", len(shortcuts), sw.path)
	if sw.onChange != nil {
		sw.onChange(shortcuts)
	}
}
