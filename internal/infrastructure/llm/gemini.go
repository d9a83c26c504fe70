package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"SocialFactory/internal/config"
	"SocialFactory/internal/ports"
)

var platformGuidelines = map[string]string{
	"instagram": "Engaging, visual-focused, 2-3 lines, 5-10 hashtags",
	"youtube":   "Detailed, SEO-optimized, clear description, 3-5 hashtags",
	"tiktok":    "Short, trendy, relatable, 3-5 trending hashtags",
	"linkedin":  "Professional, value-driven, thought leadership, 2-3 hashtags",
	"twitter":   "Concise, punchy, under 280 chars, 1-2 hashtags",
	"wordpress": "Blog-style, SEO-friendly, detailed, 3-8 relevant hashtags",
}

// GeminiClient implements the script, caption, and trend generators backed by
// a Gemini-compatible structured-output API.
type GeminiClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.ScriptGenerator = (*GeminiClient)(nil)
var _ ports.CaptionGenerator = (*GeminiClient)(nil)
var _ ports.TrendAnalyzer = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(cfg config.LLMConfig) *GeminiClient {
	return &GeminiClient{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// GenerateScripts asks for the requested number of script variants as JSON.
func (c *GeminiClient) GenerateScripts(ctx context.Context, req ports.ScriptRequest) ([]ports.ScriptVariant, error) {
	prompt := fmt.Sprintf(`Generate %d engaging video script variants for social media.

Topic: %s
Platform: %s
Target Duration: %d seconds

Requirements:
- Each script has a hook, main content, and call to action
- Use platform-appropriate tone for %s
- Assign variant ids as single letters: A, B, C
- Keep scripts under 500 words and estimate the duration of each
- Use different styles: educational, conversational, motivational

Respond with JSON: {"variants":[{"variant_id":"A","script":"...","style":"...","duration_estimate":10}]}`,
		req.VariantCount, req.Topic, req.Platform, req.TargetDurationSec, req.Platform)

	if req.TrendContext != "" {
		prompt += "\n\nTrend context:\n" + req.TrendContext
	}

	var out struct {
		Variants []struct {
			VariantID        string `json:"variant_id"`
			Script           string `json:"script"`
			Style            string `json:"style"`
			DurationEstimate int    `json:"duration_estimate"`
		} `json:"variants"`
	}
	if err := c.generate(ctx, prompt, &out); err != nil {
		return nil, fmt.Errorf("generate scripts: %w", err)
	}
	if len(out.Variants) == 0 {
		return nil, fmt.Errorf("generate scripts: response contained no variants")
	}

	variants := make([]ports.ScriptVariant, 0, len(out.Variants))
	for i, v := range out.Variants {
		id := strings.ToUpper(strings.TrimSpace(v.VariantID))
		if len(id) != 1 {
			// Malformed ids come back from the model occasionally.
			id = string(rune('A' + i))
		}
		variants = append(variants, ports.ScriptVariant{
			ID:                  id,
			Text:                v.Script,
			Style:               v.Style,
			DurationEstimateSec: v.DurationEstimate,
		})
	}
	return variants, nil
}

// GenerateCaption asks for a platform caption with optional hashtags.
func (c *GeminiClient) GenerateCaption(ctx context.Context, req ports.CaptionRequest) (ports.Caption, error) {
	guideline, ok := platformGuidelines[strings.ToLower(req.Platform)]
	if !ok {
		guideline = "General engaging caption"
	}

	prompt := fmt.Sprintf(`Create an engaging caption for %s.

Video Script: %s
Style Guidelines: %s
Include Hashtags: %t

Respond with JSON: {"caption":"...","hashtags":["..."]}`,
		req.Platform, req.Script, guideline, req.IncludeHashtags)

	var out struct {
		Caption  string   `json:"caption"`
		Hashtags []string `json:"hashtags"`
	}
	if err := c.generate(ctx, prompt, &out); err != nil {
		return ports.Caption{}, fmt.Errorf("generate caption: %w", err)
	}

	caption := ports.Caption{Text: out.Caption}
	if req.IncludeHashtags {
		caption.Hashtags = out.Hashtags
	}
	return caption, nil
}

// AnalyzeTrend gathers topical angles and hashtag suggestions.
func (c *GeminiClient) AnalyzeTrend(ctx context.Context, topic string) (ports.TrendInsight, error) {
	prompt := fmt.Sprintf(`Analyze the following topic for engaging social media content:

Topic: %s

Provide current trends, key angles to explore, and hashtag suggestions.
Respond with JSON: {"summary":"...","angles":["..."],"hashtags":["..."]}`, topic)

	var out struct {
		Summary  string   `json:"summary"`
		Angles   []string `json:"angles"`
		Hashtags []string `json:"hashtags"`
	}
	if err := c.generate(ctx, prompt, &out); err != nil {
		return ports.TrendInsight{}, fmt.Errorf("analyze trend: %w", err)
	}

	return ports.TrendInsight{
		Summary:  out.Summary,
		Angles:   out.Angles,
		Hashtags: out.Hashtags,
	}, nil
}

// generate posts a prompt requesting a JSON response and decodes the model's
// text payload into v.
func (c *GeminiClient) generate(ctx context.Context, prompt string, v any) error {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return fmt.Errorf("llm client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"responseMimeType": "application/json",
		},
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("llm error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var envelope struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Candidates) == 0 || len(envelope.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("empty llm response")
	}

	text := cleanJSONResponse(envelope.Candidates[0].Content.Parts[0].Text)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("parse llm payload: %w", err)
	}
	return nil
}

// cleanJSONResponse strips markdown code fences models wrap JSON payloads in.
func cleanJSONResponse(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
