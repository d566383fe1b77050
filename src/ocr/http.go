package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HTTPRecognizer posts captures to an OCR service as multipart/form-data.
type HTTPRecognizer struct {
	endpoint string
	client   *http.Client
}

func NewHTTPRecognizer(endpoint string, timeout time.Duration) *HTTPRecognizer {
	return &HTTPRecognizer{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

type apiResponse struct {
	Code int `json:"code"`
	Data []struct {
		Page int      `json:"page"`
		Text []string `json:"text"`
	} `json:"data"`
	Msg string `json:"msg"`
}

func (r *HTTPRecognizer) Recognize(ctx context.Context, png []byte) (string, error) {
	boundary := "Boundary-" + strings.ToUpper(uuid.NewString())
	body := multipartBody(boundary, png)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)

	log.Printf("ocr: sending %d bytes to %s", len(png), r.endpoint)
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d", ErrInvalidResponse, resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return parseResponse(raw)
}

func multipartBody(boundary string, png []byte) []byte {
	var b bytes.Buffer
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Disposition: form-data; name=\"ofile\"; filename=\"capture.png\"\r\n")
	b.WriteString("Content-Type: image/png\r\n\r\n")
	b.Write(png)
	b.WriteString("\r\n--" + boundary + "--\r\n")
	return b.Bytes()
}

func parseResponse(raw []byte) (string, error) {
	var decoded apiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if decoded.Code != 200 || decoded.Data == nil {
		msg := decoded.Msg
		if msg == "" {
			msg = fmt.Sprintf("recognition failed with code %d", decoded.Code)
		}
		return "", fmt.Errorf("%w: %s", ErrAPIFailure, msg)
	}

	var texts []string
	for _, page := range decoded.Data {
		for _, t := range page.Text {
			if t != "" {
				texts = append(texts, t)
			}
		}
	}
	if len(texts) == 0 {
		return "", fmt.Errorf("%w: no text in payload", ErrInvalidResponse)
	}
	return strings.Join(texts, "\n"), nil
}
