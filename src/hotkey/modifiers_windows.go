//go:build windows

package hotkey

import "golang.design/x/hotkey"

var modifierMap = map[Modifiers]hotkey.Modifier{
	ModControl: hotkey.ModCtrl,
	ModShift:   hotkey.ModShift,
	ModOption:  hotkey.ModAlt,
	ModCmd:     hotkey.ModWin,
}
