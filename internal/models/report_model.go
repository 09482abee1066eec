package models

import "time"

// ReconciliationReport is the outcome of one reconciliation pass.
type ReconciliationReport struct {
	RunID    string        `json:"run_id"`
	Scanned  int           `json:"scanned"`
	Created  int           `json:"created"`
	Updated  int           `json:"updated"`
	Cleaned  int           `json:"cleaned"`
	Errors   []string      `json:"errors"`
	Duration time.Duration `json:"duration"`
}

// ScheduledItem records one successful remote booking inside a batch.
type ScheduledItem struct {
	RecordID     int64     `json:"record_id"`
	RemotePostID string    `json:"remote_post_id"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// ApprovalResult is the aggregate outcome of a batch approve call. Batch
// operations always report counts plus per-item errors, never a bare flag.
type ApprovalResult struct {
	ApprovedCount int             `json:"approved_count"`
	Scheduled     []ScheduledItem `json:"scheduled"`
	Errors        []string        `json:"errors"`
}
