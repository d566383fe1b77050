package hotkey

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoModifiers rejects shortcuts that would fire during normal typing.
var ErrNoModifiers = errors.New("shortcut needs at least one modifier")

// ErrUnknownModifiers rejects modifier bits no backend can register.
var ErrUnknownModifiers = errors.New("shortcut has unknown modifier bits")

// Modifiers is a set of independent modifier bits.
type Modifiers uint8

const (
	ModCmd Modifiers = 1 << iota // Command on macOS, Win/Super elsewhere
	ModShift
	ModOption // Option on macOS, Alt elsewhere
	ModControl

	allModifiers = ModCmd | ModShift | ModOption | ModControl
)

var modifierOrder = []struct {
	mod  Modifiers
	name string
}{
	{ModControl, "Ctrl"},
	{ModOption, "Alt"},
	{ModShift, "Shift"},
	{ModCmd, "Cmd"},
}

func (m Modifiers) Has(other Modifiers) bool { return m&other == other }

func (m Modifiers) String() string {
	var parts []string
	for _, o := range modifierOrder {
		if m.Has(o.mod) {
			parts = append(parts, o.name)
		}
	}
	return strings.Join(parts, "+")
}

// Shortcut is a platform virtual key code plus modifiers. KeyCode is what the
// OS hook reports as the raw key: a VK code on Windows, a kVK code on macOS and
// an X11 keysym on Linux.
type Shortcut struct {
	KeyCode   uint16    `json:"keyCode" yaml:"keyCode"`
	Modifiers Modifiers `json:"modifiers" yaml:"modifiers"`
}

func (s Shortcut) Validate() error {
	if extra := s.Modifiers &^ allModifiers; extra != 0 {
		return fmt.Errorf("%w: %#x in %s", ErrUnknownModifiers, uint8(extra), s)
	}
	if s.Modifiers == 0 {
		return fmt.Errorf("%w: %s", ErrNoModifiers, s)
	}
	return nil
}

func (s Shortcut) String() string {
	key := keyName(s.KeyCode)
	if s.Modifiers == 0 {
		return key
	}
	return s.Modifiers.String() + "+" + key
}

// ParseShortcut converts strings like "Ctrl+Shift+2" or "Cmd+Alt+F13". Keys
// without a name may be given as a number ("Ctrl+0x13").
func ParseShortcut(text string) (Shortcut, error) {
	var sc Shortcut
	haveKey := false
	for _, part := range strings.Split(text, "+") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			return Shortcut{}, fmt.Errorf("invalid shortcut %q: empty key", text)
		}
		if mod, ok := parseModifier(name); ok {
			sc.Modifiers |= mod
			continue
		}
		if haveKey {
			return Shortcut{}, fmt.Errorf("invalid shortcut %q: more than one key", text)
		}
		code, ok := keyCode(name)
		if !ok {
			return Shortcut{}, fmt.Errorf("invalid shortcut %q: unknown key %q", text, part)
		}
		sc.KeyCode = code
		haveKey = true
	}
	if !haveKey {
		return Shortcut{}, fmt.Errorf("invalid shortcut %q: no key", text)
	}
	if err := sc.Validate(); err != nil {
		return Shortcut{}, err
	}
	return sc, nil
}

func parseModifier(name string) (Modifiers, bool) {
	switch name {
	case "ctrl", "control":
		return ModControl, true
	case "alt", "option", "opt":
		return ModOption, true
	case "shift":
		return ModShift, true
	case "cmd", "command", "win", "super", "meta":
		return ModCmd, true
	}
	return 0, false
}

var keyAliases = map[string]string{
	"return": "enter",
	"escape": "esc",
	"del":    "delete",
	"ins":    "insert",
	"pgup":   "pageup",
	"pgdn":   "pagedown",
}

func keyCode(name string) (uint16, bool) {
	if alias, ok := keyAliases[name]; ok {
		name = alias
	}
	if code, ok := keyCodes[name]; ok {
		return code, true
	}
	n, err := strconv.ParseUint(name, 0, 16)
	if err != nil || len(name) < 2 {
		return 0, false
	}
	return uint16(n), true
}

func keyName(code uint16) string {
	for name, c := range keyCodes {
		if c == code {
			return strings.ToUpper(name)
		}
	}
	return fmt.Sprintf("0x%X", code)
}
