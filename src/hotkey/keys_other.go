//go:build !windows && !darwin

package hotkey

import "fmt"

// X11 keysyms.
var keyCodes = map[string]uint16{
	"space":     0x0020,
	"enter":     0xff0d,
	"esc":       0xff1b,
	"tab":       0xff09,
	"backspace": 0xff08,
	"delete":    0xffff,
	"insert":    0xff63,
	"home":      0xff50,
	"end":       0xff57,
	"pageup":    0xff55,
	"pagedown":  0xff56,
	"left":      0xff51,
	"up":        0xff52,
	"right":     0xff53,
	"down":      0xff54,
}

var modifierRawcodes = map[Modifiers][]uint16{
	ModShift:   {0xffe1, 0xffe2},
	ModControl: {0xffe3, 0xffe4},
	ModOption:  {0xffe9, 0xffea},
	ModCmd:     {0xffeb, 0xffec},
}

func init() {
	for c := 'a'; c <= 'z'; c++ {
		keyCodes[string(c)] = uint16(c)
	}
	for c := '0'; c <= '9'; c++ {
		keyCodes[string(c)] = uint16(c)
	}
	for i := 1; i <= 24; i++ {
		keyCodes[fmt.Sprintf("f%d", i)] = uint16(0xffbd + i) // XK_F1 = 0xffbe
	}
}

// baseRawcode undoes the Shift level X11 bakes into the reported keysym.
func baseRawcode(code uint16) uint16 {
	return unshiftKeysym(code)
}
