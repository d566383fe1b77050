// Package runtimeinit brings up the process-wide pieces every entry point
// needs before the first capture: configuration, logging and the clipboard.
package runtimeinit

import (
	"fmt"

	"screen-sniper/src/clipboard"
	"screen-sniper/src/config"
	"screen-sniper/src/notification"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
	// ShowBlockingError reports a bad configuration in a modal before returning.
	ShowBlockingError bool
	// InitClipboard is nil for callers that never touch the clipboard.
	InitClipboard func() error
}

func Bootstrap(opts Options) (*config.Config, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}

	if err := cfg.Validate(); err != nil {
		if opts.ShowBlockingError {
			notification.ShowBlockingError("Screen Sniper", fmt.Sprintf("Startup check failed: %v\n\nPlease check your .env file.", err))
		}
		return nil, fmt.Errorf("startup check failed: %w", err)
	}

	if opts.InitClipboard != nil {
		if err := opts.InitClipboard(); err != nil {
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
	}
	return cfg, nil
}

// Defaults is what the desktop entry points use.
func Defaults(load config.LoadOptions, setupLogging func(bool)) Options {
	return Options{
		LoadOptions:   load,
		SetupLogging:  setupLogging,
		InitClipboard: clipboard.Init,
	}
}
