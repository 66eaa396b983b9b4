package embedding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxResponseBytes bounds how much of an inference response is read.
const maxResponseBytes = 64 << 20

// HTTPEmbedder posts the raw image to a remote inference service and parses
// the same {"embedding"} / {"error"} payload the command backend prints.
type HTTPEmbedder struct {
	url        string
	client     *http.Client
	dimensions int
}

// NewHTTPEmbedder creates an embedder calling url. A nil client uses
// http.DefaultClient; timeouts come from the request context.
func NewHTTPEmbedder(url string, client *http.Client, dimensions int) (*HTTPEmbedder, error) {
	if url == "" {
		return nil, errors.New("embedding url is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPEmbedder{url: url, client: client, dimensions: dimensions}, nil
}

// Embed sends image to the inference service.
func (e *HTTPEmbedder) Embed(ctx context.Context, image []byte) ([]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(image))
	if err != nil {
		return nil, Unavailable(e.Name(), "build request", err)
	}
	req.Header.Set("Content-Type", http.DetectContentType(image))
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, AsUnavailable(e.Name(), err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, AsUnavailable(e.Name(), err)
	}

	vec, parseErr := ParseOutput(body)
	if resp.StatusCode != http.StatusOK {
		reason := fmt.Sprintf("inference service returned %d", resp.StatusCode)
		var reported *ReportedError
		if errors.As(parseErr, &reported) {
			return nil, Unavailable(e.Name(), reason, reported)
		}
		return nil, Unavailable(e.Name(), reason, nil)
	}
	if parseErr != nil {
		return nil, Unavailable(e.Name(), "malformed inference response", parseErr)
	}
	return vec, nil
}

// Dimensions returns the configured embedding length (0 when unknown).
func (e *HTTPEmbedder) Dimensions() int { return e.dimensions }

// Name returns "http".
func (e *HTTPEmbedder) Name() string { return "http" }

// Close releases idle connections.
func (e *HTTPEmbedder) Close() error {
	e.client.CloseIdleConnections()
	return nil
}
