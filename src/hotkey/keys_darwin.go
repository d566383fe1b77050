//go:build darwin

package hotkey

// macOS kVK codes (HIToolbox Events.h). They follow the ANSI layout, not the alphabet.
var keyCodes = map[string]uint16{
	"a": 0x00, "s": 0x01, "d": 0x02, "f": 0x03, "h": 0x04, "g": 0x05, "z": 0x06,
	"x": 0x07, "c": 0x08, "v": 0x09, "b": 0x0B, "q": 0x0C, "w": 0x0D, "e": 0x0E,
	"r": 0x0F, "y": 0x10, "t": 0x11, "o": 0x1F, "u": 0x20, "i": 0x22, "p": 0x23,
	"l": 0x25, "j": 0x26, "k": 0x28, "n": 0x2D, "m": 0x2E,

	"1": 0x12, "2": 0x13, "3": 0x14, "4": 0x15, "6": 0x16,
	"5": 0x17, "9": 0x19, "7": 0x1A, "8": 0x1C, "0": 0x1D,

	"f1": 0x7A, "f2": 0x78, "f3": 0x63, "f4": 0x76, "f5": 0x60,
	"f6": 0x61, "f7": 0x62, "f8": 0x64, "f9": 0x65, "f10": 0x6D,
	"f11": 0x67, "f12": 0x6F, "f13": 0x69, "f14": 0x6B, "f15": 0x71,
	"f16": 0x6A, "f17": 0x40, "f18": 0x4F, "f19": 0x50, "f20": 0x5A,

	"enter":     0x24,
	"tab":       0x30,
	"space":     0x31,
	"backspace": 0x33,
	"esc":       0x35,
	"home":      0x73,
	"pageup":    0x74,
	"delete":    0x75,
	"end":       0x77,
	"pagedown":  0x79,
	"left":      0x7B,
	"right":     0x7C,
	"down":      0x7D,
	"up":        0x7E,
}

var modifierRawcodes = map[Modifiers][]uint16{
	ModCmd:     {0x37, 0x36},
	ModShift:   {0x38, 0x3C},
	ModOption:  {0x3A, 0x3D},
	ModControl: {0x3B, 0x3E},
}

func baseRawcode(code uint16) uint16 { return code }
