package models

import (
	"strings"
	"time"
)

// ContentRecord is one piece of discovered or authored content that may
// become a social post. The remote_* columns mirror whatever the remote
// scheduler last reported and are only ever written by the scheduling and
// reconciliation paths.
type ContentRecord struct {
	ID                 int64      `db:"id" json:"id"`
	RemotePostID       *string    `db:"remote_post_id" json:"remote_post_id"`
	IsDraft            bool       `db:"is_draft" json:"is_draft"`
	ApprovalStatus     string     `db:"approval_status" json:"approval_status"` // pending, approved, rejected
	ApprovedAt         *time.Time `db:"approved_at" json:"approved_at"`
	ApprovedBy         *string    `db:"approved_by" json:"approved_by"`
	RejectionReason    *string    `db:"rejection_reason" json:"rejection_reason"`
	RemoteStatus       *string    `db:"remote_status" json:"remote_status"`
	RemoteScheduledFor *time.Time `db:"remote_scheduled_for" json:"remote_scheduled_for"`
	RemotePublishedAt  *time.Time `db:"remote_published_at" json:"remote_published_at"`
	RemotePlatforms    []string   `db:"remote_platforms" json:"remote_platforms"`
	Caption            string     `db:"caption" json:"caption"`
	Hashtags           []string   `db:"hashtags" json:"hashtags"`
	ImageURL           string     `db:"image_url" json:"image_url"`
	ExtraImageURLs     []string   `db:"extra_image_urls" json:"extra_image_urls"`
	Source             string     `db:"source" json:"source"`
	SourceMetadata     string     `db:"source_metadata" json:"source_metadata"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

const (
	SourceLocal        = "local"
	SourceRemoteImport = "remote-import"
)

// State is the explicit lifecycle state derived from the record's columns.
// Publication wins over everything else, rejection over the rest, so column
// combinations that would otherwise be ambiguous collapse to one state.
type State string

const (
	StateDraft           State = "draft"
	StatePending         State = "pending"
	StateApproved        State = "approved"
	StateScheduledRemote State = "scheduled"
	StateScheduledLocal  State = "scheduled-local"
	StatePublished       State = "published"
	StateRejected        State = "rejected"
)

func (r *ContentRecord) State() State {
	switch {
	case r.RemotePublishedAt != nil:
		return StatePublished
	case r.ApprovalStatus == ApprovalRejected:
		return StateRejected
	case r.IsDraft:
		return StateDraft
	case r.RemotePostID != nil && *r.RemotePostID != "":
		return StateScheduledRemote
	case r.ApprovalStatus == ApprovalApproved && r.RemoteScheduledFor != nil:
		return StateScheduledLocal
	case r.ApprovalStatus == ApprovalApproved:
		return StateApproved
	default:
		return StatePending
	}
}

// HasRemotePost reports whether the record is linked to a post in the remote
// scheduler. An empty or sentinel id does not count; those are repaired by
// the reconciliation orphan sweep.
func (r *ContentRecord) HasRemotePost() bool {
	return r.RemotePostID != nil && ValidRemoteID(*r.RemotePostID)
}

// ValidRemoteID rejects structurally broken remote post ids that earlier
// buggy writes left behind ("", "undefined", "null").
func ValidRemoteID(id string) bool {
	return id != "" && id != "undefined" && id != "null"
}

// RemoteStatusKind is the closed set of statuses the remote scheduler is
// known to report. Anything else is carried through as Unknown with the raw
// string preserved.
type RemoteStatusKind string

const (
	RemoteStatusDraft     RemoteStatusKind = "draft"
	RemoteStatusQueued    RemoteStatusKind = "queued"
	RemoteStatusScheduled RemoteStatusKind = "scheduled"
	RemoteStatusPublished RemoteStatusKind = "published"
	RemoteStatusFailed    RemoteStatusKind = "failed"
	RemoteStatusUnknown   RemoteStatusKind = "unknown"
)

type RemoteStatus struct {
	Kind RemoteStatusKind
	Raw  string
}

// ParseRemoteStatus normalizes whatever string the remote scheduler reports
// into the closed status set. Unrecognized values map to Unknown with the
// raw string preserved.
func ParseRemoteStatus(raw string) RemoteStatus {
	kind := RemoteStatusKind(strings.ToLower(strings.TrimSpace(raw)))
	switch kind {
	case RemoteStatusDraft, RemoteStatusQueued, RemoteStatusScheduled, RemoteStatusPublished, RemoteStatusFailed:
		return RemoteStatus{Kind: kind, Raw: raw}
	default:
		return RemoteStatus{Kind: RemoteStatusUnknown, Raw: raw}
	}
}

// String is the value stored in the mirror: the canonical enum string for
// recognized statuses, the raw remote string for unknown ones.
func (s RemoteStatus) String() string {
	if s.Kind == RemoteStatusUnknown {
		return s.Raw
	}
	return string(s.Kind)
}

// Equal treats two statuses as the same when they canonicalize to the same
// kind; unknown statuses only match on the exact raw string.
func (s RemoteStatus) Equal(o RemoteStatus) bool {
	if s.Kind != o.Kind {
		return false
	}
	return s.Kind != RemoteStatusUnknown || s.Raw == o.Raw
}

// RemoteMirror is the full set of remote-mirror columns written after a
// successful remote post creation or a reconciliation repair.
type RemoteMirror struct {
	PostID       string
	Status       string
	ScheduledFor *time.Time
	PublishedAt  *time.Time
	Platforms    []string
}

// RemoteMirrorPatch carries only the mirror columns that actually changed.
// The time fields can go back to null on the remote side, so each carries
// its own set flag; Status never comes back null, a nil pointer just means
// unchanged.
type RemoteMirrorPatch struct {
	Status          *string
	SetScheduledFor bool
	ScheduledFor    *time.Time
	SetPublishedAt  bool
	PublishedAt     *time.Time
}

func (p *RemoteMirrorPatch) Empty() bool {
	return p.Status == nil && !p.SetScheduledFor && !p.SetPublishedAt
}

// ContentPatch is a partial update of the authored payload.
type ContentPatch struct {
	Caption        *string
	Hashtags       []string
	ImageURL       *string
	ExtraImageURLs []string
	SourceMetadata *string
}

// RecordFilter narrows List calls.
type RecordFilter struct {
	ApprovalStatus string
	IsDraft        *bool
	Source         string
}
