package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"SocialFactory/internal/config"
	"SocialFactory/internal/ports"
)

const apiBase = "https://api.linkedin.com/v2"

// Publisher creates posts through the LinkedIn UGC API on behalf of a person
// URN. Video is attached as an article link; native media upload is separate
// API surface this integration does not use.
type Publisher struct {
	accessToken string
	personURN   string
	baseURL     string
	client      *http.Client
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher builds the adapter from configuration.
func NewPublisher(cfg config.LinkedInConfig) *Publisher {
	return &Publisher{
		accessToken: cfg.AccessToken,
		personURN:   cfg.PersonURN,
		baseURL:     apiBase,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Name identifies the integration inside the registry.
func (p *Publisher) Name() string {
	return "linkedin"
}

// Publish creates a UGC post with the caption text, linking the video when
// one is present.
func (p *Publisher) Publish(ctx context.Context, req ports.PublishRequest) (ports.PostRef, error) {
	if p.accessToken == "" || p.personURN == "" {
		return ports.PostRef{}, fmt.Errorf("linkedin publisher misconfigured")
	}

	text := req.Text
	if req.MediaURL != "" {
		text += "\n\nWatch: " + req.MediaURL
	}

	payload := map[string]any{
		"author":         p.personURN,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary":    map[string]string{"text": text},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return ports.PostRef{}, fmt.Errorf("marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/ugcPosts", bytes.NewReader(body))
	if err != nil {
		return ports.PostRef{}, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.accessToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return ports.PostRef{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return ports.PostRef{}, fmt.Errorf("linkedin returned %s", resp.Status)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ports.PostRef{}, fmt.Errorf("decode response: %w", err)
	}

	return ports.PostRef{
		PostID:  out.ID,
		PostURL: "https://www.linkedin.com/feed/update/" + out.ID,
	}, nil
}
