package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"SocialFactory/internal/domain"
	"SocialFactory/internal/ports"
	"SocialFactory/internal/publish"
)

// ErrAlreadyResolved is returned when an approval token is presented twice.
// The guard closes the double-publish window left open by duplicate callbacks.
var ErrAlreadyResolved = errors.New("approval already resolved for this workflow")

// ErrTopicMissing is returned when the review row lacks the topic column.
var ErrTopicMissing = errors.New("topic is missing from the content row")

// ApprovalRequest is the external decision arriving through the callback.
type ApprovalRequest struct {
	WorkflowID string
	ContentID  int
	Platform   string
	Approved   bool
	Actor      string
	Comment    string
}

// ApprovalDeps wires the resolver's collaborators.
type ApprovalDeps struct {
	Store      ports.ContentStore
	Publishers *publish.Registry
	Notifier   ports.Notifier
	Logger     *slog.Logger
}

// ApprovalResolver performs the terminal publish-or-cancel transition for a
// workflow. It runs in whatever process receives the callback, so it reads
// the review payload back from the store instead of trusting process memory.
type ApprovalResolver struct {
	store      ports.ContentStore
	publishers *publish.Registry
	notifier   ports.Notifier
	logger     *slog.Logger

	mu       sync.Mutex
	consumed map[string]struct{}
}

// NewApprovalResolver constructs the resolver.
func NewApprovalResolver(deps ApprovalDeps) *ApprovalResolver {
	return &ApprovalResolver{
		store:      deps.Store,
		publishers: deps.Publishers,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
		consumed:   map[string]struct{}{},
	}
}

// ResolveApproval applies an approve/reject decision keyed by workflow token.
//
// Rejection always succeeds. Approval re-reads the review payload, publishes
// to the requested platform, and propagates publish failures to the caller;
// this entry point is a synchronous request/response operation, not a
// background pipeline boundary.
func (r *ApprovalResolver) ResolveApproval(ctx context.Context, req ApprovalRequest) (domain.ApprovalOutcome, error) {
	log := r.logger.With("workflow_id", req.WorkflowID, "content_id", req.ContentID)
	log.Info("resolving approval", "approved", req.Approved, "platform", req.Platform, "actor", req.Actor)

	if !req.Approved {
		return r.reject(ctx, req, log), nil
	}

	if err := r.consume(req.WorkflowID); err != nil {
		return domain.ApprovalOutcome{}, err
	}

	payload, err := r.store.GetReview(ctx, req.ContentID)
	if err != nil {
		r.release(req.WorkflowID)
		return domain.ApprovalOutcome{}, fmt.Errorf("load review for content %d: %w", req.ContentID, err)
	}
	if payload.Topic == "" {
		r.release(req.WorkflowID)
		return domain.ApprovalOutcome{}, ErrTopicMissing
	}

	caption := payload.Caption
	if caption == "" {
		// Partially populated rows still publish with a minimal caption.
		log.Warn("caption missing from review row, synthesizing from topic")
		caption = fmt.Sprintf("Check out this content about %s! #AI #Innovation", payload.Topic)
	}

	platform := req.Platform
	if platform == "" {
		platform = payload.Platform
	}

	publisher, direct := r.publishers.Resolve(platform)
	if publisher == nil {
		r.release(req.WorkflowID)
		return domain.ApprovalOutcome{}, fmt.Errorf("no publisher available for platform %q", platform)
	}

	pubReq := ports.PublishRequest{
		Title:    payload.Topic,
		Text:     caption,
		MediaURL: payload.VideoURL,
		Draft:    !direct,
	}
	ref, err := publisher.Publish(ctx, pubReq)
	if err != nil {
		// The token stays consumed: a failed publish attempt may still have
		// landed on the platform side, and a retry belongs to a human.
		log.Error("approved publish failed", "platform", platform, "error", err)
		return domain.ApprovalOutcome{}, fmt.Errorf("publish to %s: %w", platform, err)
	}

	if err := r.store.UpdateStatus(ctx, req.ContentID, domain.StatusPublished, domain.StatusFields{
		PostID:     ref.PostID,
		ApprovedBy: req.Actor,
	}); err != nil {
		log.Warn("recording published status failed", "error", err)
	}

	r.notify(ctx, fmt.Sprintf(
		"Content approved by %s and published to %s\nPost URL: %s\nTopic: %s\nWorkflow ID: %s",
		req.Actor, platform, ref.PostURL, payload.Topic, req.WorkflowID), ports.LevelSuccess)

	return domain.ApprovalOutcome{
		Status:     "approved",
		WorkflowID: req.WorkflowID,
		ContentID:  req.ContentID,
		Platform:   strings.ToLower(platform),
		PostID:     ref.PostID,
		PostURL:    ref.PostURL,
		Published:  true,
		Message:    fmt.Sprintf("Content %q approved and published to %s", payload.Topic, platform),
	}, nil
}

func (r *ApprovalResolver) reject(ctx context.Context, req ApprovalRequest, log *slog.Logger) domain.ApprovalOutcome {
	comment := req.Comment
	if comment == "" {
		comment = "No comment provided"
	}
	r.notify(ctx, fmt.Sprintf(
		"Content rejected by %s\nPlatform: %s\nWorkflow ID: %s\nComment: %s",
		req.Actor, req.Platform, req.WorkflowID, comment), ports.LevelError)

	if req.ContentID > 0 {
		if err := r.store.UpdateStatus(ctx, req.ContentID, domain.StatusRejected, domain.StatusFields{}); err != nil {
			log.Warn("recording rejected status failed", "error", err)
		}
	}

	return domain.ApprovalOutcome{
		Status:     "rejected",
		WorkflowID: req.WorkflowID,
		ContentID:  req.ContentID,
		Platform:   strings.ToLower(req.Platform),
		Published:  false,
		Message:    "Content rejected",
	}
}

// consume marks a token used; the check-and-set is atomic under the mutex.
func (r *ApprovalResolver) consume(workflowID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, done := r.consumed[workflowID]; done {
		return ErrAlreadyResolved
	}
	r.consumed[workflowID] = struct{}{}
	return nil
}

// release frees a token again after a failure that provably published nothing.
func (r *ApprovalResolver) release(workflowID string) {
	r.mu.Lock()
	delete(r.consumed, workflowID)
	r.mu.Unlock()
}

func (r *ApprovalResolver) notify(ctx context.Context, message string, level ports.Level) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(ctx, message, level); err != nil {
		r.logger.Warn("notification failed", "error", err)
	}
}
