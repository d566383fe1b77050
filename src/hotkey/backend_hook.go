package hotkey

import (
	"errors"
	"log"
	"sync"

	gohook "github.com/robotn/gohook"
)

// hookBackend watches every key event through one gohook channel and matches
// rawcodes against the bound shortcuts itself.
type hookBackend struct {
	mu      sync.Mutex
	matcher *matcher
	running bool
}

type hookHandle uint32

// NewHookBackend returns a backend built on robotn/gohook.
func NewHookBackend() Backend {
	return &hookBackend{}
}

func (b *hookBackend) Install(dispatch func(id uint32)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return errors.New("hook already installed")
	}

	evChan := gohook.Start()
	if evChan == nil {
		return errors.New("gohook.Start() returned nil channel")
	}
	b.matcher = newMatcher(modifierRawcodes, baseRawcode)
	b.running = true
	m := b.matcher

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("hotkey: PANIC in hook goroutine: %v", r)
			}
		}()
		for ev := range evChan {
			switch ev.Kind {
			case gohook.KeyDown, gohook.KeyHold:
				for _, id := range m.press(ev.Keycode, ev.Rawcode) {
					dispatch(id)
				}
			case gohook.KeyUp:
				m.release(ev.Keycode, ev.Rawcode)
			}
		}
		log.Printf("hotkey: event channel closed")
	}()
	return nil
}

func (b *hookBackend) Bind(id uint32, shortcut Shortcut) (Handle, error) {
	b.mu.Lock()
	m := b.matcher
	b.mu.Unlock()
	if m == nil {
		return nil, errors.New("hook not installed")
	}
	m.bind(id, shortcut)
	return hookHandle(id), nil
}

func (b *hookBackend) Release(h Handle) error {
	id, ok := h.(hookHandle)
	if !ok {
		return errors.New("foreign handle")
	}
	b.mu.Lock()
	m := b.matcher
	b.mu.Unlock()
	if m != nil {
		m.unbind(uint32(id))
	}
	return nil
}

func (b *hookBackend) Uninstall() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return nil
	}
	gohook.End()
	b.running = false
	b.matcher = nil
	return nil
}

// matcher tracks held keys and reports which bound shortcuts a key-down
// completes. A shortcut fires once per press; auto-repeat is ignored.
//
// Held keys are keyed by scancode. The rawcode can change between press and
// release (X11 reports the shifted keysym), so it is only used, after
// normalize, to decide what the key means.
type matcher struct {
	mu        sync.Mutex
	modifiers map[uint16]Modifiers
	normalize func(uint16) uint16
	pressed   map[uint32]uint16
	bound     map[uint32]Shortcut
}

func newMatcher(rawcodes map[Modifiers][]uint16, normalize func(uint16) uint16) *matcher {
	if normalize == nil {
		normalize = func(c uint16) uint16 { return c }
	}
	m := &matcher{
		modifiers: make(map[uint16]Modifiers),
		normalize: normalize,
		pressed:   make(map[uint32]uint16),
		bound:     make(map[uint32]Shortcut),
	}
	for mod, codes := range rawcodes {
		for _, c := range codes {
			m.modifiers[c] = mod
		}
	}
	return m
}

func (m *matcher) bind(id uint32, sc Shortcut) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bound[id] = sc
}

func (m *matcher) unbind(id uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bound, id)
}

// keyOf identifies a physical key. Scancode 0 means the hook could not map
// the key, so the normalized rawcode stands in for it.
func keyOf(keycode, base uint16) uint32 {
	if keycode != 0 {
		return uint32(keycode)
	}
	return 1<<16 | uint32(base)
}

func (m *matcher) held() Modifiers {
	var mods Modifiers
	for _, code := range m.pressed {
		mods |= m.modifiers[code]
	}
	return mods
}

// press returns the IDs whose shortcut is exactly the held modifiers plus the key.
func (m *matcher) press(keycode, rawcode uint16) []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	base := m.normalize(rawcode)
	key := keyOf(keycode, base)
	if _, repeat := m.pressed[key]; repeat {
		return nil
	}
	m.pressed[key] = base
	if _, isMod := m.modifiers[base]; isMod {
		return nil
	}

	held := m.held()
	var ids []uint32
	for id, sc := range m.bound {
		if sc.KeyCode == base && sc.Modifiers == held {
			ids = append(ids, id)
		}
	}
	return ids
}

func (m *matcher) release(keycode, rawcode uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	base := m.normalize(rawcode)
	delete(m.pressed, keyOf(keycode, base))
	for key, code := range m.pressed {
		if code == base {
			delete(m.pressed, key)
		}
	}
}
