package runtimeinit

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"screen-sniper/src/config"
)

func writeEnv(t *testing.T, body string) config.LoadOptions {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return config.LoadOptions{
		EnvPathOverride:    path,
		APIKeyPathOverride: filepath.Join(t.TempDir(), "missing-key"),
	}
}

// unset clears keys for the test; t.Setenv restores them afterwards, and a
// present-but-empty variable would stop the .env file from setting it.
func unset(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func TestBootstrapRunsSteps(t *testing.T) {
	unset(t, "OCR_PROVIDER", "OCR_ENDPOINT", "ENABLE_FILE_LOGGING")
	load := writeEnv(t, "OCR_PROVIDER=http\nOCR_ENDPOINT=http://localhost:9000/ocr\nENABLE_FILE_LOGGING=true\n")

	var logging, clip bool
	cfg, err := Bootstrap(Options{
		LoadOptions:   load,
		SetupLogging:  func(enabled bool) { logging = enabled },
		InitClipboard: func() error { clip = true; return nil },
	})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if cfg.OCREndpoint != "http://localhost:9000/ocr" {
		t.Fatalf("endpoint = %q", cfg.OCREndpoint)
	}
	if !logging || !clip {
		t.Fatalf("logging=%v clipboard=%v", logging, clip)
	}
}

func TestBootstrapRejectsInvalidConfig(t *testing.T) {
	unset(t, "OCR_PROVIDER", "OCR_ENDPOINT", "OPENROUTER_API_KEY", "MODEL")
	load := writeEnv(t, "OCR_PROVIDER=openrouter\n")

	clip := false
	_, err := Bootstrap(Options{
		LoadOptions:   load,
		InitClipboard: func() error { clip = true; return nil },
	})
	if err == nil || !strings.Contains(err.Error(), "startup check failed") {
		t.Fatalf("expected startup check failure, got %v", err)
	}
	if clip {
		t.Fatal("clipboard initialized for an invalid config")
	}
}

func TestBootstrapClipboardFailure(t *testing.T) {
	unset(t, "OCR_PROVIDER", "OCR_ENDPOINT")
	load := writeEnv(t, "OCR_ENDPOINT=http://localhost:9000/ocr\n")

	boom := errors.New("no display")
	_, err := Bootstrap(Options{LoadOptions: load, InitClipboard: func() error { return boom }})
	if !errors.Is(err, boom) {
		t.Fatalf("expected clipboard error, got %v", err)
	}
}
