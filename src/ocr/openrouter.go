package ocr

import (
	"context"
	"fmt"
	"time"

	"screen-sniper/src/llm"
)

const (
	ProviderHTTP       = "http"
	ProviderOpenRouter = "openrouter"
)

// LLMRecognizer runs OCR through an OpenRouter vision model.
type LLMRecognizer struct {
	Client *llm.Client
}

func (r LLMRecognizer) Recognize(ctx context.Context, png []byte) (string, error) {
	return r.Client.QueryVision(ctx, png)
}

// Settings selects and configures a recognizer.
type Settings struct {
	Provider string
	Endpoint string
	Timeout  time.Duration

	APIKey    string
	Model     string
	Providers []string
}

// New builds the recognizer named by s.Provider.
func New(s Settings) (Recognizer, error) {
	switch s.Provider {
	case ProviderOpenRouter:
		client := llm.New(llm.Config{APIKey: s.APIKey, Model: s.Model, Providers: s.Providers})
		if err := client.Validate(); err != nil {
			return nil, err
		}
		return LLMRecognizer{Client: client}, nil
	case ProviderHTTP:
		if s.Endpoint == "" {
			return nil, fmt.Errorf("OCR endpoint is required")
		}
		return NewHTTPRecognizer(s.Endpoint, s.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown OCR provider %q", s.Provider)
	}
}
