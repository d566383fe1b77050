package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"screen-sniper/src/app"
	"screen-sniper/src/hotkey"
	"screen-sniper/src/ocr"
)

const (
	DefaultAPIKeyPath = "/run/secrets/api_keys/openrouter"
	APIKeyPathEnvVar  = "OPENROUTER_API_KEY_FILE"
	// ConfigPathEnvVar points at a .env file used when none sits next to the executable.
	ConfigPathEnvVar = "SCREEN_SNIPER"

	ProviderHTTP       = ocr.ProviderHTTP
	ProviderOpenRouter = ocr.ProviderOpenRouter

	BackendHook   = "hook"
	BackendNative = "native"
)

type LoadOptions struct {
	APIKeyPathOverride string
	// EnvPathOverride skips the executable-directory lookup.
	EnvPathOverride string
}

type Config struct {
	OCRProvider    string
	OCREndpoint    string
	OCRDeadlineSec int
	OCRMaxSide     int

	APIKey     string
	APIKeyPath string
	Model      string
	Providers  []string

	HotkeyBackend string
	// Shortcuts maps action identifiers to their bindings after the
	// shortcut file, if any, has been applied on top of EnvShortcuts.
	Shortcuts     map[string]hotkey.Shortcut
	EnvShortcuts  map[string]hotkey.Shortcut
	ShortcutsFile string

	KeepLineBreaks       bool
	AdditiveClipboard    bool
	TextToSpeech         bool
	TTSRate              float64
	DisableNotifications bool
	EnableFileLogging    bool
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use SCREEN_SNIPER env var as a path to a config file
	envPath := opts.EnvPathOverride
	if envPath == "" {
		envPath = resolveEnvPath()
	}
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	// Parse providers from comma-separated string
	var providers []string
	if providersStr := os.Getenv("PROVIDERS"); providersStr != "" {
		for _, provider := range strings.Split(providersStr, ",") {
			if trimmed := strings.TrimSpace(provider); trimmed != "" {
				providers = append(providers, trimmed)
			}
		}
	}

	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)

	cfg := &Config{
		OCRProvider:    strings.ToLower(getEnvWithDefault("OCR_PROVIDER", ProviderHTTP)),
		OCREndpoint:    os.Getenv("OCR_ENDPOINT"),
		OCRDeadlineSec: positiveInt("OCR_DEADLINE_SEC", 20),
		OCRMaxSide:     positiveInt("OCR_MAX_SIDE", 4096),

		APIKey:     resolveAPIKey(apiKeyPath),
		APIKeyPath: apiKeyPath,
		Model:      os.Getenv("MODEL"),
		Providers:  providers,

		HotkeyBackend: strings.ToLower(getEnvWithDefault("HOTKEY_BACKEND", BackendHook)),
		ShortcutsFile: os.Getenv("SHORTCUTS_FILE"),

		KeepLineBreaks:       boolEnv("KEEP_LINE_BREAKS", true),
		AdditiveClipboard:    boolEnv("ADDITIVE_CLIPBOARD", false),
		TextToSpeech:         boolEnv("TEXT_TO_SPEECH", false),
		TTSRate:              float64(positiveInt("TTS_RATE", 180)),
		DisableNotifications: boolEnv("DISABLE_NOTIFICATIONS", false),
		EnableFileLogging:    boolEnv("ENABLE_FILE_LOGGING", false),
	}

	switch cfg.OCRProvider {
	case ProviderHTTP, ProviderOpenRouter:
	default:
		return nil, fmt.Errorf("unknown OCR_PROVIDER %q (want %s or %s)", cfg.OCRProvider, ProviderHTTP, ProviderOpenRouter)
	}
	switch cfg.HotkeyBackend {
	case BackendHook, BackendNative:
	default:
		return nil, fmt.Errorf("unknown HOTKEY_BACKEND %q (want %s or %s)", cfg.HotkeyBackend, BackendHook, BackendNative)
	}

	cfg.EnvShortcuts = shortcutsFromEnv(runtime.GOOS)
	cfg.Shortcuts = cfg.WithShortcutFile(nil)
	if cfg.ShortcutsFile != "" {
		fromFile, err := LoadShortcutFile(cfg.ShortcutsFile)
		switch {
		case err == nil:
			cfg.Shortcuts = cfg.WithShortcutFile(fromFile)
		case os.IsNotExist(err):
			log.Printf("config: shortcut file %s not found, using environment", cfg.ShortcutsFile)
		default:
			return nil, err
		}
	}

	return cfg, nil
}

// WithShortcutFile layers shortcuts read from the shortcut file over the
// environment bindings and returns the merged table.
func (c *Config) WithShortcutFile(fromFile map[string]hotkey.Shortcut) map[string]hotkey.Shortcut {
	out := make(map[string]hotkey.Shortcut, len(c.EnvShortcuts)+len(fromFile))
	for action, sc := range c.EnvShortcuts {
		out[action] = sc
	}
	for action, sc := range fromFile {
		out[action] = sc
	}
	return out
}

// Validate checks the settings the chosen OCR provider needs.
func (c *Config) Validate() error {
	switch c.OCRProvider {
	case ProviderOpenRouter:
		if c.APIKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required. Checked key file %s and OPENROUTER_API_KEY env var", c.APIKeyPath)
		}
		if c.Model == "" {
			return fmt.Errorf("MODEL is required. Please set it in your .env file")
		}
	default:
		if c.OCREndpoint == "" {
			return fmt.Errorf("OCR_ENDPOINT is required for the http provider")
		}
	}
	return nil
}

// OCRSettings is the recognizer part of the configuration.
func (c *Config) OCRSettings() ocr.Settings {
	return ocr.Settings{
		Provider:  c.OCRProvider,
		Endpoint:  c.OCREndpoint,
		Timeout:   time.Duration(c.OCRDeadlineSec) * time.Second,
		APIKey:    c.APIKey,
		Model:     c.Model,
		Providers: c.Providers,
	}
}

// DefaultCaptureShortcut is Cmd+Shift+2 on macOS and Ctrl+Shift+2 elsewhere.
func DefaultCaptureShortcut(goos string) string {
	if goos == "darwin" {
		return "Cmd+Shift+2"
	}
	return "Ctrl+Shift+2"
}

// ShortcutEnvVar names the variable that binds action, e.g. HOTKEY_READ_CODE.
func ShortcutEnvVar(action string) string {
	return "HOTKEY_" + strings.ToUpper(strings.ReplaceAll(action, "-", "_"))
}

// shortcutsFromEnv reads HOTKEY_* for every action. Unparseable values are
// logged and skipped so one typo does not cost the other bindings.
func shortcutsFromEnv(goos string) map[string]hotkey.Shortcut {
	out := make(map[string]hotkey.Shortcut)
	for _, action := range app.Actions() {
		text := os.Getenv(ShortcutEnvVar(action))
		if text == "" && action == app.ActionCaptureText {
			text = DefaultCaptureShortcut(goos)
		}
		if text == "" {
			continue
		}
		sc, err := hotkey.ParseShortcut(text)
		if err != nil {
			log.Printf("config: ignoring %s=%q: %v", ShortcutEnvVar(action), text, err)
			continue
		}
		out[action] = sc
	}
	return out
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	execDir := filepath.Dir(execPath)
	exeEnv := filepath.Join(execDir, ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(ConfigPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := DefaultAPIKeyPath

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

func resolveAPIKey(keyPath string) string {
	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey
		}
	}

	return os.Getenv("OPENROUTER_API_KEY")
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func positiveInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func boolEnv(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
