//go:build linux

package hotkey

import "golang.design/x/hotkey"

var modifierMap = map[Modifiers]hotkey.Modifier{
	ModControl: hotkey.ModCtrl,
	ModShift:   hotkey.ModShift,
	ModOption:  hotkey.Mod1, // Alt
	ModCmd:     hotkey.Mod4, // Super
}
