//go:build darwin || linux || windows

package hotkey

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.design/x/hotkey"
)

// nativeBackend claims each shortcut with the OS (RegisterHotKey, Carbon,
// XGrabKey) through golang.design/x/hotkey. Unlike the hook backend, a shortcut
// owned by another process fails at Bind time.
type nativeBackend struct {
	mu       sync.Mutex
	dispatch func(id uint32)
}

type nativeHandle struct {
	id   uint32
	hk   *hotkey.Hotkey
	stop chan struct{}
	done chan struct{}
}

// NewNativeBackend returns a backend built on golang.design/x/hotkey. On macOS
// the main thread must be running an event loop.
func NewNativeBackend() Backend {
	return &nativeBackend{}
}

func (b *nativeBackend) Install(dispatch func(id uint32)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dispatch = dispatch
	return nil
}

func (b *nativeBackend) Bind(id uint32, shortcut Shortcut) (Handle, error) {
	b.mu.Lock()
	dispatch := b.dispatch
	b.mu.Unlock()
	if dispatch == nil {
		return nil, errors.New("hook not installed")
	}

	hk := hotkey.New(nativeModifiers(shortcut.Modifiers), hotkey.Key(shortcut.KeyCode))
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("register %s: %w", shortcut, err)
	}

	h := &nativeHandle{id: id, hk: hk, stop: make(chan struct{}), done: make(chan struct{})}
	keydown := hk.Keydown()
	go func() {
		defer close(h.done)
		for {
			select {
			case <-h.stop:
				return
			case _, ok := <-keydown:
				if !ok {
					return
				}
				dispatch(id)
			}
		}
	}()
	return h, nil
}

func (b *nativeBackend) Release(h Handle) error {
	nh, ok := h.(*nativeHandle)
	if !ok {
		return errors.New("foreign handle")
	}
	// Keep draining keydown until the OS claim is gone.
	err := nh.hk.Unregister()
	close(nh.stop)
	<-nh.done
	if err != nil {
		return fmt.Errorf("unregister id %d: %w", nh.id, err)
	}
	return nil
}

func (b *nativeBackend) Uninstall() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dispatch = nil
	log.Printf("hotkey: native backend uninstalled")
	return nil
}

func nativeModifiers(m Modifiers) []hotkey.Modifier {
	var mods []hotkey.Modifier
	for _, o := range modifierOrder {
		if m.Has(o.mod) {
			mods = append(mods, modifierMap[o.mod])
		}
	}
	return mods
}
