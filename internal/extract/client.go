// Package extract wraps the external face-embedding service behind an
// ordered fallback chain of detector configurations.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultServiceURL = "http://localhost:8000"
	defaultModel      = "vggface"

	requestTimeout = 30 * time.Second
)

// Config selects how a single extraction attempt runs: which face detector
// backend to use and whether a confirmed detection is required.
type Config struct {
	Detector         string
	EnforceDetection bool
}

// Client talks to the embedding service.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewClient creates an embedding service client.
func NewClient(baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = defaultServiceURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// Model returns the embedding model name being used.
func (c *Client) Model() string {
	return c.model
}

// representResponse is the embedding service's reply.
type representResponse struct {
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model"`
	Detector  string    `json:"detector"`
}

// Represent runs one extraction attempt against the service with the given
// detector configuration.
func (c *Client) Represent(ctx context.Context, imageData []byte, cfg Config) ([]float32, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("image", "capture.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	fields := map[string]string{
		"model":             c.model,
		"detector":          cfg.Detector,
		"enforce_detection": strconv.FormatBool(cfg.EnforceDetection),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/represent", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service error (status %d): %s", resp.StatusCode, string(body))
	}

	var repResp representResponse
	if err := json.Unmarshal(body, &repResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(repResp.Embedding) == 0 {
		return nil, errors.New("empty embedding returned")
	}
	return repResp.Embedding, nil
}
