package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"SocialFactory/internal/config"
	"SocialFactory/internal/ports"
)

var levelPrefixes = map[ports.Level]string{
	ports.LevelInfo:    "[info]",
	ports.LevelSuccess: "[ok]",
	ports.LevelWarning: "[warn]",
	ports.LevelError:   "[error]",
}

// Notifier posts messages to a Slack channel via incoming webhook.
type Notifier struct {
	webhookURL string
	channel    string
	client     *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers the webhook URL and target channel.
func NewNotifier(cfg config.SlackConfig) *Notifier {
	return &Notifier{
		webhookURL: cfg.WebhookURL,
		channel:    cfg.Channel,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// Notify posts a plain status message with a severity prefix.
func (n *Notifier) Notify(ctx context.Context, message string, level ports.Level) error {
	prefix, ok := levelPrefixes[level]
	if !ok {
		prefix = levelPrefixes[ports.LevelInfo]
	}
	return n.post(ctx, prefix+" "+message)
}

// RequestApproval posts the single approval-request message. The approval URL
// carries the workflow token; whoever holds the link can resolve the run.
func (n *Notifier) RequestApproval(ctx context.Context, notice ports.ApprovalNotice) error {
	var sb strings.Builder
	sb.WriteString("*New Content Ready for Approval*\n\n")
	fmt.Fprintf(&sb, "*Topic:* %s\n", notice.Topic)
	fmt.Fprintf(&sb, "*Platform:* %s\n", strings.ToUpper(notice.Platform))
	fmt.Fprintf(&sb, "*Content ID (Row):* %d\n", notice.ContentID)
	fmt.Fprintf(&sb, "*Workflow ID:* `%s`\n\n", notice.WorkflowID)
	fmt.Fprintf(&sb, "*Caption:*\n%s\n\n", notice.CaptionPreview)
	if notice.ScriptPreview != "" {
		fmt.Fprintf(&sb, "*Script:*\n%s\n\n", notice.ScriptPreview)
	}
	if notice.VideoURL != "" {
		fmt.Fprintf(&sb, "*Video:* %s\n\n", notice.VideoURL)
	}
	if notice.ApprovalURL != "" {
		fmt.Fprintf(&sb, "*Approve or reject:* %s\n", notice.ApprovalURL)
	}

	return n.post(ctx, sb.String())
}

func (n *Notifier) post(ctx context.Context, text string) error {
	if n.webhookURL == "" {
		return fmt.Errorf("slack notifier misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"channel": n.channel,
		"text":    text,
		"mrkdwn":  true,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack error: %s", resp.Status)
	}

	return nil
}
