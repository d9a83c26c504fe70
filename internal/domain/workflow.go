package domain

import "time"

// WorkflowStatus enumerates terminal and in-flight states of one pipeline run.
type WorkflowStatus string

const (
	WorkflowRunning               WorkflowStatus = "running"
	WorkflowCompleted             WorkflowStatus = "completed"
	WorkflowCompletedWithWarnings WorkflowStatus = "completed_with_warnings"
	WorkflowFailed                WorkflowStatus = "failed"
	WorkflowPendingApproval       WorkflowStatus = "pending_approval"
)

// Pipeline step names as they appear in WorkflowRecord.StepsCompleted.
const (
	StepTrendAnalysis     = "trend_analysis"
	StepScriptGeneration  = "script_generation"
	StepVideoGeneration   = "video_generation"
	StepCaptionGeneration = "caption_generation"
	StepApprovalRequest   = "approval_request"
)

// StepError records one failure attributed to a named step.
type StepError struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// WorkflowRecord is one execution attempt of the pipeline against a content
// item. It lives in process memory only; the ledger's status column is the
// durable source of truth after a restart.
type WorkflowRecord struct {
	WorkflowID     string         `json:"workflow_id"`
	ContentID      int            `json:"content_id"`
	Status         WorkflowStatus `json:"status"`
	StepsCompleted []string       `json:"steps_completed"`
	CurrentStep    string         `json:"current_step"`
	Errors         []StepError    `json:"errors"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}

// ApprovalOutcome is the result of resolving an approval token.
type ApprovalOutcome struct {
	Status     string `json:"status"` // approved | rejected
	WorkflowID string `json:"workflow_id"`
	ContentID  int    `json:"content_id"`
	Platform   string `json:"platform"`
	PostID     string `json:"post_id,omitempty"`
	PostURL    string `json:"post_url,omitempty"`
	Published  bool   `json:"published"`
	Message    string `json:"message"`
}
