//go:build windows

package hotkey

import "fmt"

// Windows virtual key codes, as reported by the hook rawcode.
var keyCodes = map[string]uint16{
	"space":     32, // VK_SPACE
	"enter":     13, // VK_RETURN
	"esc":       27, // VK_ESCAPE
	"tab":       9,  // VK_TAB
	"backspace": 8,  // VK_BACK
	"delete":    46, // VK_DELETE
	"insert":    45, // VK_INSERT
	"home":      36, // VK_HOME
	"end":       35, // VK_END
	"pageup":    33, // VK_PRIOR
	"pagedown":  34, // VK_NEXT
	"left":      37, // VK_LEFT
	"up":        38, // VK_UP
	"right":     39, // VK_RIGHT
	"down":      40, // VK_DOWN
}

// Left and right variants of each modifier.
var modifierRawcodes = map[Modifiers][]uint16{
	ModControl: {162, 163}, // VK_LCONTROL, VK_RCONTROL
	ModOption:  {164, 165}, // VK_LMENU, VK_RMENU
	ModShift:   {160, 161}, // VK_LSHIFT, VK_RSHIFT
	ModCmd:     {91, 92},   // VK_LWIN, VK_RWIN
}

func init() {
	for c := 'a'; c <= 'z'; c++ {
		keyCodes[string(c)] = uint16(c - 'a' + 'A')
	}
	for c := '0'; c <= '9'; c++ {
		keyCodes[string(c)] = uint16(c)
	}
	for i := 1; i <= 24; i++ {
		keyCodes[fmt.Sprintf("f%d", i)] = uint16(111 + i) // VK_F1 = 112
	}
}

// Virtual key codes do not change with Shift.
func baseRawcode(code uint16) uint16 { return code }
