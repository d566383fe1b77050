package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"screen-sniper/src/app"
	"screen-sniper/src/hotkey"
)

func loadForTest(t *testing.T) *Config {
	t.Helper()
	cfg, err := LoadWithOptions(LoadOptions{
		APIKeyPathOverride: filepath.Join(t.TempDir(), "missing-key"),
		EnvPathOverride:    filepath.Join(t.TempDir(), "missing.env"),
	})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

func TestLoad(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test_api_key")
	t.Setenv("MODEL", "test_model")
	t.Setenv("ENABLE_FILE_LOGGING", "true")
	t.Setenv("OCR_PROVIDER", "OpenRouter")
	t.Setenv("PROVIDERS", " a, ,b ")
	t.Setenv("HOTKEY_READ_CODE", "Ctrl+Alt+Q")
	t.Setenv("KEEP_LINE_BREAKS", "false")
	t.Setenv("TTS_RATE", "240")

	cfg := loadForTest(t)

	if cfg.APIKey != "test_api_key" {
		t.Errorf("Expected APIKey to be 'test_api_key', got '%s'", cfg.APIKey)
	}
	if cfg.Model != "test_model" {
		t.Errorf("Expected Model to be 'test_model', got '%s'", cfg.Model)
	}
	if !cfg.EnableFileLogging {
		t.Errorf("Expected EnableFileLogging to be true, got %v", cfg.EnableFileLogging)
	}
	if cfg.OCRProvider != ProviderOpenRouter {
		t.Errorf("OCRProvider = %q", cfg.OCRProvider)
	}
	if len(cfg.Providers) != 2 || cfg.Providers[0] != "a" || cfg.Providers[1] != "b" {
		t.Errorf("Providers = %q", cfg.Providers)
	}
	if cfg.KeepLineBreaks || cfg.TTSRate != 240 {
		t.Errorf("KeepLineBreaks = %v TTSRate = %v", cfg.KeepLineBreaks, cfg.TTSRate)
	}
	if got := cfg.Shortcuts[app.ActionReadCode]; got.Modifiers != hotkey.ModControl|hotkey.ModOption {
		t.Errorf("read-code shortcut = %v", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	t.Setenv("OCR_DEADLINE_SEC", "-3")
	cfg := loadForTest(t)

	if cfg.OCRProvider != ProviderHTTP || cfg.HotkeyBackend != BackendHook {
		t.Errorf("provider %q backend %q", cfg.OCRProvider, cfg.HotkeyBackend)
	}
	if cfg.OCRDeadlineSec != 20 || cfg.OCRMaxSide != 4096 {
		t.Errorf("deadline %d max side %d", cfg.OCRDeadlineSec, cfg.OCRMaxSide)
	}
	if !cfg.KeepLineBreaks || cfg.AdditiveClipboard || cfg.TextToSpeech || cfg.TTSRate != 180 {
		t.Errorf("unexpected toggles: %+v", cfg)
	}
	sc, ok := cfg.Shortcuts[app.ActionCaptureText]
	if !ok || len(cfg.Shortcuts) != 1 {
		t.Fatalf("Shortcuts = %v", cfg.Shortcuts)
	}
	if !sc.Modifiers.Has(hotkey.ModShift) {
		t.Errorf("default capture shortcut %v lacks Shift", sc)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("http provider without endpoint should not validate")
	}
}

func TestBadEnvShortcutIsSkipped(t *testing.T) {
	t.Setenv("HOTKEY_STOP_SPEAKING", "Q")
	cfg := loadForTest(t)
	if _, ok := cfg.Shortcuts[app.ActionStopSpeaking]; ok {
		t.Fatal("shortcut without modifiers was accepted")
	}
}

func TestUnknownProviderRejected(t *testing.T) {
	t.Setenv("OCR_PROVIDER", "carrier-pigeon")
	_, err := LoadWithOptions(LoadOptions{EnvPathOverride: filepath.Join(t.TempDir(), "none")})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestDotenvFile(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	if err := os.WriteFile(env, []byte("OCR_ENDPOINT=http://localhost:9000/ocr\nOCR_MAX_SIDE=1024\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv.Load never overrides variables already present.
	t.Setenv("OCR_ENDPOINT", "")
	os.Unsetenv("OCR_ENDPOINT")
	t.Setenv("OCR_MAX_SIDE", "")
	os.Unsetenv("OCR_MAX_SIDE")

	cfg, err := LoadWithOptions(LoadOptions{EnvPathOverride: env, APIKeyPathOverride: filepath.Join(dir, "none")})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OCREndpoint != "http://localhost:9000/ocr" || cfg.OCRMaxSide != 1024 {
		t.Errorf("endpoint %q max side %d", cfg.OCREndpoint, cfg.OCRMaxSide)
	}
}

func TestAPIKeyFileWins(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "key")
	if err := os.WriteFile(keyPath, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPENROUTER_API_KEY", "from-env")
	cfg, err := LoadWithOptions(LoadOptions{APIKeyPathOverride: keyPath, EnvPathOverride: filepath.Join(dir, "none")})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "from-file" || cfg.APIKeyPath != keyPath {
		t.Errorf("APIKey %q from %q", cfg.APIKey, cfg.APIKeyPath)
	}
}

func TestShortcutEnvVar(t *testing.T) {
	if got := ShortcutEnvVar(app.ActionClearHistory); got != "HOTKEY_CLEAR_ADDITIVE_HISTORY" {
		t.Errorf("ShortcutEnvVar = %q", got)
	}
	if DefaultCaptureShortcut("darwin") != "Cmd+Shift+2" || DefaultCaptureShortcut("windows") != "Ctrl+Shift+2" {
		t.Error("unexpected default capture shortcuts")
	}
}

func TestParseShortcuts(t *testing.T) {
	got, err := ParseShortcuts([]byte(`
shortcuts:
  capture-text: {keyCode: 19, modifiers: 3}
  read-code: "Ctrl+Shift+2"
`))
	if err != nil {
		t.Fatal(err)
	}
	if sc := got[app.ActionCaptureText]; sc.KeyCode != 19 || sc.Modifiers != hotkey.ModCmd|hotkey.ModShift {
		t.Errorf("capture-text = %+v", sc)
	}
	if sc := got[app.ActionReadCode]; !sc.Modifiers.Has(hotkey.ModControl | hotkey.ModShift) {
		t.Errorf("read-code = %+v", sc)
	}

	if _, err := ParseShortcuts([]byte("shortcuts:\n  launch-rockets: Ctrl+R\n")); !errors.Is(err, app.ErrUnknownAction) {
		t.Errorf("unknown action: got %v", err)
	}
	if _, err := ParseShortcuts([]byte("shortcuts:\n  read-code: {keyCode: 19, modifiers: 0}\n")); !errors.Is(err, hotkey.ErrNoModifiers) {
		t.Errorf("no modifiers: got %v", err)
	}
	if _, err := ParseShortcuts([]byte("shortcuts:\n  read-code: {keyCode: 97, modifiers: 16}\n")); !errors.Is(err, hotkey.ErrUnknownModifiers) {
		t.Errorf("unknown modifier bits: got %v", err)
	}
}

func TestSaveShortcutFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shortcuts.yaml")
	in := map[string]hotkey.Shortcut{
		app.ActionCaptureText: {KeyCode: 19, Modifiers: hotkey.ModCmd | hotkey.ModShift},
	}
	if err := SaveShortcutFile(path, in); err != nil {
		t.Fatal(err)
	}
	out, err := LoadShortcutFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if out[app.ActionCaptureText] != in[app.ActionCaptureText] {
		t.Errorf("round trip = %v", out)
	}
}

func TestShortcutFileOverridesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shortcuts.yaml")
	if err := os.WriteFile(path, []byte("shortcuts:\n  capture-text: {keyCode: 20, modifiers: 8}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SHORTCUTS_FILE", path)
	cfg := loadForTest(t)
	if sc := cfg.Shortcuts[app.ActionCaptureText]; sc.KeyCode != 20 || sc.Modifiers != hotkey.ModControl {
		t.Errorf("capture-text = %+v", sc)
	}
}

func TestWatchShortcutsReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shortcuts.yaml")
	if err := os.WriteFile(path, []byte("shortcuts: {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got := make(chan map[string]hotkey.Shortcut, 4)
	sw, err := WatchShortcuts(path, func(m map[string]hotkey.Shortcut) { got <- m })
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	sw.debounce = 20 * time.Millisecond
	defer sw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sw.Run(ctx)

	// Unrelated files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("shortcuts:\n  read-code: Ctrl+Shift+Q\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case m := <-got:
		if _, ok := m[app.ActionReadCode]; !ok {
			t.Fatalf("reloaded %v", m)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after write")
	}
}

func TestWatchShortcutsReportsRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shortcuts.yaml")
	if err := os.WriteFile(path, []byte("shortcuts:\n  read-code: Ctrl+Shift+Q\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got := make(chan map[string]hotkey.Shortcut, 4)
	sw, err := WatchShortcuts(path, func(m map[string]hotkey.Shortcut) { got <- m })
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	sw.debounce = 20 * time.Millisecond
	defer sw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sw.Run(ctx)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	select {
	case m := <-got:
		if len(m) != 0 {
			t.Fatalf("after removal got %v, want no file shortcuts", m)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after removal")
	}

	cfg := &Config{EnvShortcuts: map[string]hotkey.Shortcut{
		app.ActionCaptureText: {KeyCode: 19, Modifiers: hotkey.ModControl},
	}}
	if merged := cfg.WithShortcutFile(nil); len(merged) != 1 {
		t.Fatalf("environment bindings not restored: %v", merged)
	}
}
