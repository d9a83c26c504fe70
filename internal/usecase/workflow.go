package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"SocialFactory/internal/domain"
	"SocialFactory/internal/ports"
	"SocialFactory/internal/publish"
)

const (
	scriptVariantCount   = 3
	scriptTargetDuration = 10
)

// WorkflowDeps wires all driven adapters into the orchestration core.
type WorkflowDeps struct {
	Store           ports.ContentStore
	Trends          ports.TrendAnalyzer
	Scripts         ports.ScriptGenerator
	Videos          ports.VideoGenerator
	Captions        ports.CaptionGenerator
	Publishers      *publish.Registry
	Notifier        ports.Notifier
	ApprovalBaseURL string
	Logger          *slog.Logger
}

// Workflow drives one content item through the generation-and-publish
// pipeline. Domain failures never escape ProcessContentItem; they are folded
// into the returned record.
type Workflow struct {
	store           ports.ContentStore
	trends          ports.TrendAnalyzer
	scripts         ports.ScriptGenerator
	videos          ports.VideoGenerator
	captions        ports.CaptionGenerator
	publishers      *publish.Registry
	notifier        ports.Notifier
	approvalBaseURL string
	logger          *slog.Logger

	mu      sync.RWMutex
	records map[string]*domain.WorkflowRecord
}

// NewWorkflow constructs the orchestration component.
func NewWorkflow(deps WorkflowDeps) *Workflow {
	return &Workflow{
		store:           deps.Store,
		trends:          deps.Trends,
		scripts:         deps.Scripts,
		videos:          deps.Videos,
		captions:        deps.Captions,
		publishers:      deps.Publishers,
		notifier:        deps.Notifier,
		approvalBaseURL: deps.ApprovalBaseURL,
		logger:          deps.Logger,
		records:         map[string]*domain.WorkflowRecord{},
	}
}

// ProcessContentItem runs the full pipeline for one content item.
//
// Steps 2-4 (script, video, caption) are required: the first failure
// terminates the run with status failed. Trend analysis, persistence, the
// approval request, and publishing are best-effort; their failures are logged
// or recorded as warnings but never abort the run.
func (w *Workflow) ProcessContentItem(ctx context.Context, item domain.ContentItem, skipApproval, autoPublish bool) domain.WorkflowRecord {
	record := &domain.WorkflowRecord{
		WorkflowID:     fmt.Sprintf("wf_%d_%s", item.ID, uuid.NewString()),
		ContentID:      item.ID,
		Status:         domain.WorkflowRunning,
		StepsCompleted: []string{},
		CurrentStep:    "initialized",
		Errors:         []domain.StepError{},
		StartedAt:      time.Now(),
	}
	w.track(record)

	log := w.logger.With("workflow_id", record.WorkflowID, "content_id", item.ID)
	log.Info("workflow started", "topic", item.Topic, "platform", item.Platform)

	// Step 1: trend analysis (best-effort).
	w.setStep(record, domain.StepTrendAnalysis)
	var insight ports.TrendInsight
	if w.trends != nil {
		got, err := w.trends.AnalyzeTrend(ctx, item.Topic)
		if err != nil {
			log.Warn("trend analysis failed, continuing", "error", err)
		} else {
			insight = got
			w.complete(record, domain.StepTrendAnalysis)
		}
	}

	// Step 2: script generation (required).
	w.setStep(record, domain.StepScriptGeneration)
	variants, err := w.scripts.GenerateScripts(ctx, ports.ScriptRequest{
		Topic:             item.Topic,
		Platform:          item.Platform,
		VariantCount:      scriptVariantCount,
		TargetDurationSec: scriptTargetDuration,
		TrendContext:      insight.Summary,
	})
	if err != nil {
		return w.fail(ctx, record, item, err)
	}
	if len(variants) == 0 {
		return w.fail(ctx, record, item, fmt.Errorf("script generator returned no variants"))
	}
	w.complete(record, domain.StepScriptGeneration)
	script := variants[0].Text

	// Step 3: video generation (required). The explicit prompt wins when the
	// row provides one; otherwise the first script variant drives the render.
	w.setStep(record, domain.StepVideoGeneration)
	prompt := item.VideoPrompt
	if prompt == "" {
		prompt = script
	}
	video, err := w.videos.GenerateVideo(ctx, prompt)
	if err != nil {
		return w.fail(ctx, record, item, err)
	}
	w.complete(record, domain.StepVideoGeneration)

	// Step 4: caption generation (required).
	w.setStep(record, domain.StepCaptionGeneration)
	caption, err := w.captions.GenerateCaption(ctx, ports.CaptionRequest{
		Script:          script,
		Platform:        item.Platform,
		IncludeHashtags: true,
	})
	if err != nil {
		return w.fail(ctx, record, item, err)
	}
	w.complete(record, domain.StepCaptionGeneration)
	captionText := formatCaption(caption)

	// Persist the review payload. Losing this write is preferable to losing
	// the generated artifacts, so failure only warns.
	if w.store != nil {
		err := w.store.UpdateStatus(ctx, item.ID, domain.StatusReview, domain.StatusFields{
			VideoURL:   video.URL,
			Caption:    captionText,
			Script:     script,
			WorkflowID: record.WorkflowID,
		})
		if err != nil {
			log.Warn("persisting review payload failed, artifacts kept in flight", "error", err)
		}
	}

	// Step 5: approval request. The item stays parked in Review on failure.
	if !skipApproval {
		w.setStep(record, domain.StepApprovalRequest)
		if w.notifier != nil {
			notice := ports.ApprovalNotice{
				Topic:          item.Topic,
				Platform:       item.Platform,
				ContentID:      item.ID,
				WorkflowID:     record.WorkflowID,
				CaptionPreview: preview(captionText, 150),
				ScriptPreview:  preview(script, 200),
				VideoURL:       video.URL,
				ApprovalURL:    w.approvalURL(record.WorkflowID, item.ID, item.Platform),
			}
			if err := w.notifier.RequestApproval(ctx, notice); err != nil {
				log.Warn("approval request failed, item parked in review", "error", err)
			} else {
				w.complete(record, domain.StepApprovalRequest)
			}
		}
	}

	// Step 6: publishing. Failures here are warnings: the artifacts exist and
	// remain reusable through the approval path.
	if autoPublish || skipApproval {
		w.publishNow(ctx, record, item, captionText, caption.Hashtags, video.URL, log)
	}

	return w.finish(record, skipApproval, autoPublish)
}

// GetWorkflowStatus returns the in-memory record for a workflow id. The table
// does not survive restarts; the ledger's status column is the durable truth.
func (w *Workflow) GetWorkflowStatus(workflowID string) (domain.WorkflowRecord, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.records[workflowID]
	if !ok {
		return domain.WorkflowRecord{}, false
	}
	return *record, true
}

func (w *Workflow) publishNow(ctx context.Context, record *domain.WorkflowRecord, item domain.ContentItem, captionText string, hashtags []string, videoURL string, log *slog.Logger) {
	platform := strings.ToLower(strings.TrimSpace(item.Platform))
	w.setStep(record, "publishing_"+platform)

	if w.publishers == nil {
		w.addError(record, "publishing_"+platform, "no publishers configured")
		return
	}

	publisher, direct := w.publishers.Resolve(item.Platform)
	if publisher == nil {
		w.addError(record, "publishing_"+platform, fmt.Sprintf("no publisher available for platform %q", item.Platform))
		return
	}

	req := ports.PublishRequest{
		Title:    item.Topic,
		Text:     captionText,
		MediaURL: videoURL,
		Tags:     hashtags,
	}
	step := "publishing_" + platform
	if !direct {
		// Unsupported platform: degrade to a draft for manual posting.
		req.Title = fmt.Sprintf("%s [%s]", item.Topic, strings.ToUpper(platform))
		req.Draft = true
		step = "draft_created_" + platform
		log.Warn("platform not directly supported, creating draft", "platform", platform, "via", publisher.Name())
	}

	ref, err := publisher.Publish(ctx, req)
	if err != nil {
		log.Error("publishing failed", "platform", platform, "error", err)
		w.addError(record, step, err.Error())
		return
	}
	w.complete(record, step)
	log.Info("published", "platform", platform, "post_url", ref.PostURL)

	if w.store != nil {
		err := w.store.UpdateStatus(ctx, item.ID, domain.StatusPublished, domain.StatusFields{
			VideoURL: videoURL,
			PostID:   ref.PostID,
		})
		if err != nil {
			log.Warn("recording published status failed", "error", err)
		}
	}
}

func (w *Workflow) finish(record *domain.WorkflowRecord, skipApproval, autoPublish bool) domain.WorkflowRecord {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case !skipApproval && !autoPublish:
		record.Status = domain.WorkflowPendingApproval
	case len(record.Errors) == 0:
		record.Status = domain.WorkflowCompleted
	default:
		record.Status = domain.WorkflowCompletedWithWarnings
	}
	now := time.Now()
	record.CompletedAt = &now
	return *record
}

// fail terminates the run at the current step and best-effort marks the row
// Failed; marking failures are swallowed so they cannot mask the original one.
func (w *Workflow) fail(ctx context.Context, record *domain.WorkflowRecord, item domain.ContentItem, cause error) domain.WorkflowRecord {
	w.logger.Error("workflow failed",
		"workflow_id", record.WorkflowID,
		"content_id", item.ID,
		"step", record.CurrentStep,
		"error", cause)

	w.mu.Lock()
	record.Errors = append(record.Errors, domain.StepError{
		Step:    record.CurrentStep,
		Message: cause.Error(),
	})
	record.Status = domain.WorkflowFailed
	now := time.Now()
	record.CompletedAt = &now
	result := *record
	w.mu.Unlock()

	if w.store != nil {
		if err := w.store.UpdateStatus(ctx, item.ID, domain.StatusFailed, domain.StatusFields{}); err != nil {
			w.logger.Warn("marking row failed did not stick", "content_id", item.ID, "error", err)
		}
		if err := w.store.LogError(ctx, item.ID, cause.Error()); err != nil {
			w.logger.Warn("logging row error did not stick", "content_id", item.ID, "error", err)
		}
	}

	return result
}

func (w *Workflow) complete(record *domain.WorkflowRecord, step string) {
	w.mu.Lock()
	record.StepsCompleted = append(record.StepsCompleted, step)
	w.mu.Unlock()
}

// setStep and addError take the record mutex: tracked records are visible to
// concurrent GetWorkflowStatus callers, so every mutation happens under w.mu.
func (w *Workflow) setStep(record *domain.WorkflowRecord, step string) {
	w.mu.Lock()
	record.CurrentStep = step
	w.mu.Unlock()
}

func (w *Workflow) addError(record *domain.WorkflowRecord, step, message string) {
	w.mu.Lock()
	record.Errors = append(record.Errors, domain.StepError{Step: step, Message: message})
	w.mu.Unlock()
}

func (w *Workflow) track(record *domain.WorkflowRecord) {
	w.mu.Lock()
	w.records[record.WorkflowID] = record
	w.mu.Unlock()
}

func (w *Workflow) approvalURL(workflowID string, contentID int, platform string) string {
	if w.approvalBaseURL == "" {
		return ""
	}
	params := url.Values{}
	params.Set("workflow_id", workflowID)
	params.Set("content_id", strconv.Itoa(contentID))
	params.Set("platform", platform)
	return w.approvalBaseURL + "?" + params.Encode()
}

func formatCaption(caption ports.Caption) string {
	if len(caption.Hashtags) == 0 {
		return caption.Text
	}
	tags := make([]string, 0, len(caption.Hashtags))
	for _, tag := range caption.Hashtags {
		tags = append(tags, "#"+strings.TrimPrefix(tag, "#"))
	}
	return caption.Text + "\n\n" + strings.Join(tags, " ")
}

// preview truncates on runes so a multi-byte character is never split.
func preview(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
