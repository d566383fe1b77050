//go:build windows

package hotkey

import "testing"

func TestWindowsVirtualKeys(t *testing.T) {
	tests := []struct {
		keyName  string
		expected uint16
	}{
		{"q", 81},
		{"e", 69},
		{"0", 48},
		{"9", 57},
		{"f1", 112},
		{"f12", 123},
		{"f13", 124},
		{"f24", 135},
		{"space", 32},
		{"enter", 13},
		{"esc", 27},
	}

	for _, tt := range tests {
		t.Run(tt.keyName, func(t *testing.T) {
			code, ok := keyCode(tt.keyName)
			if !ok || code != tt.expected {
				t.Errorf("keyCode(%q) = %d, %v, expected %d", tt.keyName, code, ok, tt.expected)
			}
		})
	}
}

func TestWindowsModifierRawcodes(t *testing.T) {
	want := map[Modifiers][]uint16{
		ModControl: {162, 163},
		ModOption:  {164, 165},
		ModShift:   {160, 161},
		ModCmd:     {91, 92},
	}
	for mod, codes := range want {
		got := modifierRawcodes[mod]
		if len(got) != len(codes) || got[0] != codes[0] || got[1] != codes[1] {
			t.Errorf("modifierRawcodes[%v] = %v, expected %v", mod, got, codes)
		}
	}
}
