// Package llm is a small OpenRouter client for vision-model OCR.
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNoText is returned when the model reports nothing readable in the image.
	ErrNoText = errors.New("no text detected in image")
	// ErrRejected is a 4xx reply that a retry cannot fix (bad key, bad model).
	ErrRejected = errors.New("request rejected by API")
)

type Config struct {
	APIKey    string
	Model     string
	Providers []string
	// BaseURL overrides the OpenRouter chat completions endpoint.
	BaseURL string
}

const (
	openRouterURL = "https://openrouter.ai/api/v1/chat/completions"
	maxAttempts   = 3
	initialDelay  = 1 * time.Second
	noTextMarker  = "NO_TEXT_FOUND"
)

const ocrPrompt = "Perform OCR on this image. Return ONLY the raw extracted text with:\n" +
	"- No formatting\n" +
	"- No XML/HTML tags\n" +
	"- No markdown\n" +
	"- No explanations\n" +
	"- Preserve line breaks accurately from the visual layout.\n" +
	"If no text found, return '" + noTextMarker + "'"

// Client talks to an OpenRouter vision model.
type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = openRouterURL
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: 45 * time.Second}}
}

// Validate reports missing credentials before any request is made.
func (c *Client) Validate() error {
	switch {
	case c == nil:
		return errors.New("LLM client not initialized")
	case c.cfg.APIKey == "":
		return errors.New("API key is required")
	case c.cfg.Model == "":
		return errors.New("model is required")
	}
	return nil
}

// QueryVision sends a PNG to the vision model and returns the extracted text.
// Transport errors and 5xx/429 replies are retried with a growing delay.
func (c *Client) QueryVision(ctx context.Context, png []byte) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	body, err := json.Marshal(c.visionRequest(png))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff(attempt)):
			}
		}

		text, err := c.post(ctx, body)
		switch {
		case err == nil:
			return text, nil
		case ctx.Err() != nil:
			return "", ctx.Err()
		case errors.Is(err, ErrNoText), errors.Is(err, ErrRejected):
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}

func backoff(attempt int) time.Duration {
	return time.Duration(float64(initialDelay) * 1.5 * float64(attempt))
}

func (c *Client) visionRequest(png []byte) chatRequest {
	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []message{{
			Role: "user",
			Content: []part{
				{Type: "text", Text: ocrPrompt},
				{Type: "image_url", ImageURL: &imageRef{URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)}},
			},
		}},
		Temperature: 0.1,
		MaxTokens:   2000,
	}
	if len(c.cfg.Providers) > 0 {
		allowFallbacks := false
		req.Provider = &providerPrefs{Order: c.cfg.Providers, AllowFallbacks: &allowFallbacks}
	}
	return req
}

func (c *Client) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("X-Title", "Screen Sniper")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	var out chatResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode != http.StatusOK {
		detail := fmt.Sprintf("status %d", resp.StatusCode)
		if decodeErr == nil && out.Error != nil {
			detail = out.Error.String()
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %s", ErrRejected, detail)
		}
		return "", fmt.Errorf("API error: %s", detail)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if out.Error != nil {
		return "", fmt.Errorf("API error: %s", out.Error)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("no choices in API response")
	}

	text := cleanExtractedText(out.Choices[0].Message.Content)
	if text == "" || text == noTextMarker {
		return "", ErrNoText
	}
	return text, nil
}

func cleanExtractedText(text string) string {
	text = strings.TrimSuffix(text, "</image>")
	return strings.TrimSpace(text)
}
