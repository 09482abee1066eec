package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jsandell/postline/internal/models"
	"github.com/jsandell/postline/internal/repository"
	"github.com/jsandell/postline/internal/scheduler"
)

// LifecycleService implements the legal transitions a content record can
// take between creation and publication. Publication itself is never
// initiated here; it is only observed by reconciliation.
type LifecycleService interface {
	SubmitDraft(ctx context.Context, id int64) error
	Approve(ctx context.Context, id int64, approver string) ([]string, error)
	SendToPending(ctx context.Context, id int64) error
	Unschedule(ctx context.Context, id int64) error
	Reject(ctx context.Context, id int64, reason *string) error
	RestoreDraft(ctx context.Context, id int64) error
}

type lifecycleService struct {
	records repository.RecordRepository
	remote  scheduler.Client
}

func NewLifecycleService(records repository.RecordRepository, remote scheduler.Client) LifecycleService {
	return &lifecycleService{
		records: records,
		remote:  remote,
	}
}

func (s *lifecycleService) load(ctx context.Context, id int64) (*models.ContentRecord, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	if rec == nil {
		return nil, &NotFoundError{RecordID: id}
	}
	if rec.State() == models.StatePublished {
		return nil, &ImmutableRecordError{RecordID: id}
	}
	return rec, nil
}

// SubmitDraft moves draft → pending and clears any stale rejection reason.
func (s *lifecycleService) SubmitDraft(ctx context.Context, id int64) error {
	rec, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if rec.State() != models.StateDraft {
		return &NoOpError{RecordID: id, Reason: "record is not a draft"}
	}
	return s.records.MarkPending(ctx, id)
}

// Approve moves pending → approved. A blank caption blocks the transition;
// a missing image or empty hashtag list is only surfaced as a warning.
func (s *lifecycleService) Approve(ctx context.Context, id int64, approver string) ([]string, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.State() != models.StatePending {
		return nil, &NoOpError{RecordID: id, Reason: "record is not pending approval"}
	}
	if strings.TrimSpace(rec.Caption) == "" {
		return nil, &ValidationError{RecordID: id, Reason: "caption is required for approval"}
	}

	var warnings []string
	if rec.ImageURL == "" {
		warnings = append(warnings, "record has no image")
	}
	if len(rec.Hashtags) == 0 {
		warnings = append(warnings, "record has no hashtags")
	}

	approved, err := s.records.MarkApproved(ctx, []int64{id}, approver)
	if err != nil {
		return nil, fmt.Errorf("approve record %d: %w", id, err)
	}
	if len(approved) == 0 {
		return nil, &NoOpError{RecordID: id, Reason: "record is not pending approval"}
	}
	return warnings, nil
}

// SendToPending reverses an approval without touching remote state. It
// refuses to run while a remote post exists; the operator must unschedule
// first so local and remote never silently diverge.
func (s *lifecycleService) SendToPending(ctx context.Context, id int64) error {
	rec, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if rec.HasRemotePost() {
		return &ValidationError{RecordID: id, Reason: "a remote post exists; unschedule before sending back to pending"}
	}
	if rec.State() != models.StateApproved && rec.State() != models.StateScheduledLocal {
		return &NoOpError{RecordID: id, Reason: "record is not approved"}
	}
	return s.records.MarkUnapproved(ctx, id)
}

// Unschedule moves a scheduled record back to approved, deleting the remote
// post when one exists. A record that only exists because reconciliation
// imported it has nothing to roll back to, so it is deleted outright.
func (s *lifecycleService) Unschedule(ctx context.Context, id int64) error {
	rec, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !rec.HasRemotePost() && rec.RemoteScheduledFor == nil {
		return &NoOpError{RecordID: id, Reason: "record is not scheduled"}
	}

	if rec.HasRemotePost() {
		if err := s.remote.DeletePost(ctx, *rec.RemotePostID); err != nil {
			return &RemoteUnavailableError{Op: "unschedule", Err: err}
		}
	}

	if rec.Source == models.SourceRemoteImport {
		slog.Info("deleting remote-import record on unschedule", "record_id", id)
		return s.records.Remove(ctx, id)
	}
	return s.records.ClearRemoteMirror(ctx, id)
}

// Reject moves a draft, pending or approved record to rejected. Rejecting a
// draft promotes it out of draft as part of the same write. A record with a
// live remote post must be unscheduled first.
func (s *lifecycleService) Reject(ctx context.Context, id int64, reason *string) error {
	rec, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if rec.HasRemotePost() {
		return &ValidationError{RecordID: id, Reason: "a remote post exists; unschedule before rejecting"}
	}
	if rec.State() == models.StateRejected {
		return &NoOpError{RecordID: id, Reason: "record is already rejected"}
	}
	return s.records.MarkRejected(ctx, id, reason)
}

// RestoreDraft moves rejected → draft, clearing rejection metadata so the
// record re-enters the pipeline from the top.
func (s *lifecycleService) RestoreDraft(ctx context.Context, id int64) error {
	rec, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if rec.State() != models.StateRejected {
		return &NoOpError{RecordID: id, Reason: "record is not rejected"}
	}
	return s.records.MarkDraft(ctx, id)
}
