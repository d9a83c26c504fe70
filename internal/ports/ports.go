package ports

import (
	"context"
	"time"

	"SocialFactory/internal/domain"
)

// ScriptRequest describes one script-generation call. TrendContext is
// optional background from the trend-analysis step.
type ScriptRequest struct {
	Topic             string
	Platform          string
	VariantCount      int
	TargetDurationSec int
	TrendContext      string
}

// ScriptVariant is one generated script candidate.
type ScriptVariant struct {
	ID                  string
	Text                string
	Style               string
	DurationEstimateSec int
}

// CaptionRequest describes one caption-generation call.
type CaptionRequest struct {
	Script          string
	Platform        string
	IncludeHashtags bool
}

// Caption is a platform-ready caption with optional hashtags.
type Caption struct {
	Text     string
	Hashtags []string
}

// Video is the rendered artifact reference returned by the video pipeline.
type Video struct {
	URL string
}

// TrendInsight is the best-effort context gathered before script generation.
type TrendInsight struct {
	Summary  string
	Angles   []string
	Hashtags []string
}

// PublishRequest carries everything a platform integration needs for one post.
type PublishRequest struct {
	Title    string
	Text     string
	MediaURL string
	Tags     []string
	Draft    bool
}

// PostRef identifies a created post on the target platform.
type PostRef struct {
	PostID  string
	PostURL string
}

// ApprovalNotice is the single approval-request message sent to reviewers.
type ApprovalNotice struct {
	Topic          string
	Platform       string
	ContentID      int
	WorkflowID     string
	CaptionPreview string
	ScriptPreview  string
	VideoURL       string
	ApprovalURL    string
}

// Level grades notification severity.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// ContentStore reads and writes content rows in the external ledger.
type ContentStore interface {
	ListPending(ctx context.Context) ([]domain.ContentItem, error)
	UpdateStatus(ctx context.Context, id int, status domain.Status, fields domain.StatusFields) error
	GetReview(ctx context.Context, id int) (domain.ReviewPayload, error)
	LogError(ctx context.Context, id int, message string) error
}

// ScriptGenerator turns a topic into script variants.
type ScriptGenerator interface {
	GenerateScripts(ctx context.Context, req ScriptRequest) ([]ScriptVariant, error)
}

// CaptionGenerator turns a script into a platform caption.
type CaptionGenerator interface {
	GenerateCaption(ctx context.Context, req CaptionRequest) (Caption, error)
}

// VideoGenerator renders a video from a prompt and returns its URL.
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, prompt string) (Video, error)
}

// TrendAnalyzer gathers topical context; its failures never abort a pipeline.
type TrendAnalyzer interface {
	AnalyzeTrend(ctx context.Context, topic string) (TrendInsight, error)
}

// Publisher pushes finished content to one target platform.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, req PublishRequest) (PostRef, error)
}

// Notifier delivers human-readable status messages and approval requests.
type Notifier interface {
	Notify(ctx context.Context, message string, level Level) error
	RequestApproval(ctx context.Context, notice ApprovalNotice) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
