package hotkey

// shiftedDigits maps the US-layout Shift level of the number row back to the digit.
var shiftedDigits = map[uint16]uint16{
	'!': '1', '@': '2', '#': '3', '$': '4', '%': '5',
	'^': '6', '&': '7', '*': '8', '(': '9', ')': '0',
}

const (
	xkISOLeftTab = 0xfe20
	xkTab        = 0xff09
)

// unshiftKeysym returns the base-level keysym for an X11 keysym reported with
// Shift applied, so Ctrl+Shift+2 matches whether the server says '2' or '@'.
func unshiftKeysym(sym uint16) uint16 {
	switch {
	case sym >= 'A' && sym <= 'Z':
		return sym - 'A' + 'a'
	case sym == xkISOLeftTab:
		return xkTab
	}
	if d, ok := shiftedDigits[sym]; ok {
		return d
	}
	return sym
}
