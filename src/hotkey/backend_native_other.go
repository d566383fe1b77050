//go:build !darwin && !linux && !windows

package hotkey

// NewNativeBackend falls back to the hook backend where the OS has no
// hotkey registration API wired up.
func NewNativeBackend() Backend {
	return NewHookBackend()
}
