package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"SocialFactory/internal/ports"
)

// Render defaults passed to the service with every request.
const (
	defaultNumFrames = 16
	defaultHeight    = 256
	defaultWidth     = 256
)

// Client talks to the external video-rendering service. The service is a
// black box: prompt in, URL of the rendered clip out.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.VideoGenerator = (*Client)(nil)

// NewClient creates a reusable HTTP client. Rendering is slow, so the
// timeout is generous.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 3 * time.Minute},
	}
}

// GenerateVideo submits a prompt for rendering and returns the clip URL.
func (c *Client) GenerateVideo(ctx context.Context, prompt string) (ports.Video, error) {
	if c.endpoint == "" {
		return ports.Video{}, fmt.Errorf("video client misconfigured")
	}

	payload := map[string]any{
		"prompt":     prompt,
		"num_frames": defaultNumFrames,
		"height":     defaultHeight,
		"width":      defaultWidth,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return ports.Video{}, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/generate", bytes.NewReader(body))
	if err != nil {
		return ports.Video{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return ports.Video{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.Video{}, fmt.Errorf("video service returned %s", resp.Status)
	}

	var out struct {
		VideoURL string `json:"video_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ports.Video{}, fmt.Errorf("decode response: %w", err)
	}
	if out.VideoURL == "" {
		return ports.Video{}, fmt.Errorf("video service returned no url")
	}

	return ports.Video{URL: out.VideoURL}, nil
}
