package domain

import "time"

// Status is the lifecycle column of a content row in the ledger.
// The literal strings are part of the store contract and must not change.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusGenerating Status = "Generating"
	StatusReview     Status = "Review"
	StatusApproved   Status = "Approved"
	StatusPublished  Status = "Published"
	StatusFailed     Status = "Failed"
	StatusRejected   Status = "Rejected"
)

// ContentItem is one planned unit of content tracked through the ledger.
// The ID is the row identity assigned by the external store.
type ContentItem struct {
	ID          int
	Date        time.Time
	Topic       string
	VideoPrompt string
	Platform    string
	Status      Status
}

// StatusFields carries the optional columns written alongside a status
// transition. Empty strings are skipped by store adapters.
type StatusFields struct {
	VideoURL   string
	Caption    string
	Script     string
	WorkflowID string
	PostID     string
	ApprovedBy string
}

// ReviewPayload is the durable handoff between generation and approval:
// everything the resolver needs to publish later, possibly in another process.
type ReviewPayload struct {
	ContentID  int
	Topic      string
	Platform   string
	VideoURL   string
	Caption    string
	Script     string
	WorkflowID string
}
