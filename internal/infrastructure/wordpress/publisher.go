package wordpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"SocialFactory/internal/config"
	"SocialFactory/internal/ports"
)

// Publisher posts content through the WordPress REST API. It doubles as the
// draft-fallback integration for platforms without a direct publisher.
type Publisher struct {
	siteURL    string
	authHeader string
	client     *http.Client
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher builds the adapter with application-password basic auth.
func NewPublisher(cfg config.WordPressConfig) *Publisher {
	credentials := cfg.Username + ":" + cfg.AppPassword
	return &Publisher{
		siteURL:    strings.TrimSuffix(cfg.SiteURL, "/"),
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials)),
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Name identifies the integration inside the registry.
func (p *Publisher) Name() string {
	return "wordpress"
}

// Publish creates a post (or a draft when req.Draft is set) with the caption
// and an embedded video player when a media URL is present.
func (p *Publisher) Publish(ctx context.Context, req ports.PublishRequest) (ports.PostRef, error) {
	if p.siteURL == "" {
		return ports.PostRef{}, fmt.Errorf("wordpress publisher misconfigured")
	}

	status := "publish"
	if req.Draft {
		status = "draft"
	}

	payload := map[string]any{
		"title":   req.Title,
		"content": buildContent(req),
		"status":  status,
		"tags":    req.Tags,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return ports.PostRef{}, fmt.Errorf("marshal payload: %w", err)
	}

	endpoint := p.siteURL + "/wp-json/wp/v2/posts"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return ports.PostRef{}, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Authorization", p.authHeader)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return ports.PostRef{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return ports.PostRef{}, fmt.Errorf("wordpress returned %s", resp.Status)
	}

	var out struct {
		ID   int    `json:"id"`
		Link string `json:"link"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ports.PostRef{}, fmt.Errorf("decode response: %w", err)
	}

	return ports.PostRef{
		PostID:  fmt.Sprintf("%d", out.ID),
		PostURL: out.Link,
	}, nil
}

func buildContent(req ports.PublishRequest) string {
	var sb strings.Builder
	if req.Text != "" {
		sb.WriteString("<p>" + req.Text + "</p>\n")
	}
	if req.MediaURL != "" {
		sb.WriteString(`<video controls width="100%"><source src="` + req.MediaURL + `" type="video/mp4"></video>`)
	}
	return sb.String()
}
