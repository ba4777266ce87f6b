// Package agent implements the classroom camera agent: a small process on
// the camera device that polls the attendance server for an open session and
// submits spooled frames while one is running.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/Nenorae/PIFACE/internal/constants"
)

// SessionStatus is the server's answer to a status poll.
type SessionStatus struct {
	Active           bool
	SessionID        string
	EmbeddingsLoaded int
}

// statusWire is the status_sesi response body.
type statusWire struct {
	Status           string `json:"status"`
	SesiID           string `json:"sesi_id"`
	EmbeddingsLoaded int    `json:"embeddings_loaded"`
}

// SubmitResult is the server's verdict on one submitted frame. Rejected is
// set instead of the other fields when the server refused the frame before
// recognition ran.
type SubmitResult struct {
	Message    string  `json:"message"`
	Recognized bool    `json:"recognized"`
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
	SavedToDB  bool    `json:"saved_to_db"`

	Rejected string `json:"-"`
}

// Client talks to the attendance server API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates an API client for the given server base URL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: constants.AgentRequestTimeoutSec * time.Second,
		},
	}
}

// SessionStatus polls the server for the current session state.
func (c *Client) SessionStatus(ctx context.Context) (*SessionStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/status_sesi", nil)
	if err != nil {
		return nil, fmt.Errorf("create status request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll session status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll session status: unexpected status %d", resp.StatusCode)
	}

	var wire statusWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	return &SessionStatus{
		Active:           wire.Status == "aktif",
		SessionID:        wire.SesiID,
		EmbeddingsLoaded: wire.EmbeddingsLoaded,
	}, nil
}

// SubmitFrame uploads one camera frame for recognition. A frame the server
// rejects (no face, bad quality, nobody recognized above threshold) is not
// an error at this level; the verdict carries the reason.
func (c *Client) SubmitFrame(ctx context.Context, frame []byte) (*SubmitResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(frame); err != nil {
		return nil, fmt.Errorf("write frame: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/recognize_and_attend", body)
	if err != nil {
		return nil, fmt.Errorf("create submit request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit frame: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var result SubmitResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, fmt.Errorf("decode submit response: %w", err)
		}
		return &result, nil
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		// Rejected frame: report why, move on to the next frame.
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
			apiErr.Error = "frame rejected"
		}
		return &SubmitResult{Rejected: apiErr.Error}, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("submit frame: unexpected status %d: %s", resp.StatusCode, body)
	}
}
