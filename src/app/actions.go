package app

// Action identifiers are stable: they key the shortcut file, the HOTKEY_*
// variables and the hotkey registry.
const (
	ActionCaptureText            = "capture-text"
	ActionCaptureTextStripBreaks = "capture-text-strip-breaks"
	ActionCaptureTextKeepBreaks  = "capture-text-keep-breaks"
	ActionCaptureAndSpeak        = "capture-and-speak"
	ActionReadCode               = "read-code"
	ActionStopSpeaking           = "stop-speaking"
	ActionToggleAdditive         = "toggle-additive-clipboard"
	ActionClearHistory           = "clear-additive-history"
	ActionKeepLineBreaks         = "keep-line-breaks"
	ActionToggleTextToSpeech     = "toggle-text-to-speech"
	ActionCaptureLastRegion      = "capture-last-region"
)

// Actions lists every identifier Perform accepts, in menu order.
func Actions() []string {
	return []string{
		ActionCaptureText,
		ActionCaptureLastRegion,
		ActionCaptureTextStripBreaks,
		ActionCaptureTextKeepBreaks,
		ActionCaptureAndSpeak,
		ActionReadCode,
		ActionStopSpeaking,
		ActionToggleAdditive,
		ActionClearHistory,
		ActionKeepLineBreaks,
		ActionToggleTextToSpeech,
	}
}

func KnownAction(name string) bool {
	for _, a := range Actions() {
		if a == name {
			return true
		}
	}
	return false
}
