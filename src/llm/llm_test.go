package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	var nilClient *Client
	if err := nilClient.Validate(); err == nil {
		t.Error("Expected error when not initialized")
	}
	if err := New(Config{Model: "m"}).Validate(); err == nil {
		t.Error("Expected error with missing API key")
	}
	if err := New(Config{APIKey: "k"}).Validate(); err == nil {
		t.Error("Expected error with missing model")
	}
	if err := New(Config{APIKey: "k", Model: "m"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestQueryVision(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test_key" {
			t.Errorf("missing bearer token: %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello\nworld</image>"}}]}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "test_key", Model: "test_model", Providers: []string{"a"}, BaseURL: srv.URL})
	text, err := c.QueryVision(context.Background(), []byte{0xFF, 0xFF})
	if err != nil {
		t.Fatalf("QueryVision: %v", err)
	}
	if text != "hello\nworld" {
		t.Errorf("text = %q", text)
	}
	if got.Model != "test_model" || len(got.Messages) != 1 || len(got.Messages[0].Content) != 2 {
		t.Fatalf("unexpected request %+v", got)
	}
	if url := got.Messages[0].Content[1].ImageURL.URL; !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("image url = %q", url)
	}
	if got.Provider == nil || got.Provider.Order[0] != "a" {
		t.Errorf("provider preferences not sent: %+v", got.Provider)
	}
}

func TestQueryVisionNoText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"NO_TEXT_FOUND"}}]}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "k", Model: "m", BaseURL: srv.URL})
	if _, err := c.QueryVision(context.Background(), []byte{1}); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestQueryVisionRejectedIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"auth","code":401}}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "k", Model: "m", BaseURL: srv.URL})
	_, err := c.QueryVision(context.Background(), []byte{1})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if !strings.Contains(err.Error(), "bad key") {
		t.Errorf("API message lost: %v", err)
	}
	if calls != 1 {
		t.Errorf("rejected request sent %d times", calls)
	}
}

func TestQueryVisionServerErrorStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := New(Config{APIKey: "k", Model: "m", BaseURL: srv.URL})
	c.http.Transport = cancelAfterFirst{cancel: cancel, next: http.DefaultTransport}
	_, err := c.QueryVision(ctx, []byte{1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBackoffGrows(t *testing.T) {
	if backoff(1) >= backoff(2) {
		t.Fatalf("backoff(1)=%v backoff(2)=%v", backoff(1), backoff(2))
	}
}

// cancelAfterFirst cancels the caller's context once the first response is back,
// so the retry backoff observes cancellation instead of sleeping.
type cancelAfterFirst struct {
	cancel context.CancelFunc
	next   http.RoundTripper
}

func (c cancelAfterFirst) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := c.next.RoundTrip(r)
	c.cancel()
	return resp, err
}
