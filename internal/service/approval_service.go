package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jsandell/postline/internal/models"
	"github.com/jsandell/postline/internal/repository"
	"github.com/jsandell/postline/internal/scheduler"
)

// ApprovalService turns a batch "approve these records" request into remote
// post creations against queue slots. Approval and scheduling are decoupled:
// a scheduling precondition failure never reverts an approval.
type ApprovalService interface {
	ApproveAndSchedule(ctx context.Context, ids []int64, approver string, autoSchedule bool) (*models.ApprovalResult, error)
	ScheduleAt(ctx context.Context, id int64, at time.Time, timezone string) (*models.ScheduledItem, error)
}

type approvalService struct {
	records   repository.RecordRepository
	remote    scheduler.Client
	locks     *ProfileLocks
	profileID string
}

func NewApprovalService(records repository.RecordRepository, remote scheduler.Client, locks *ProfileLocks, profileID string) ApprovalService {
	return &approvalService{
		records:   records,
		remote:    remote,
		locks:     locks,
		profileID: profileID,
	}
}

func (s *approvalService) ApproveAndSchedule(ctx context.Context, ids []int64, approver string, autoSchedule bool) (*models.ApprovalResult, error) {
	result := &models.ApprovalResult{Scheduled: []models.ScheduledItem{}, Errors: []string{}}
	if len(ids) == 0 {
		return result, nil
	}

	recs, err := s.records.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	// Records not currently pending are silently excluded: re-approving an
	// already-approved record is a no-op, not an error. A pending record
	// without a caption can never become approved, though.
	var eligible []int64
	for _, rec := range recs {
		if rec.State() != models.StatePending {
			continue
		}
		if strings.TrimSpace(rec.Caption) == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("record %d: caption is required for approval", rec.ID))
			continue
		}
		eligible = append(eligible, rec.ID)
	}

	if len(eligible) > 0 {
		approved, err := s.records.MarkApproved(ctx, eligible, approver)
		if err != nil {
			return nil, fmt.Errorf("approve records: %w", err)
		}
		result.ApprovedCount = len(approved)
		eligible = approved
	}

	if !autoSchedule {
		return result, nil
	}

	// Slot consumption must be strictly ordered, so the whole scheduling
	// phase holds the profile lock and books slots sequentially.
	s.locks.Lock(s.profileID)
	defer s.locks.Unlock(s.profileID)

	accounts, err := s.remote.ListAccounts(ctx, s.profileID)
	if err != nil {
		return result, &RemoteUnavailableError{Op: "list accounts", Err: err}
	}
	var active []scheduler.Account
	for _, acc := range accounts {
		if acc.IsActive {
			active = append(active, acc)
		}
	}
	if len(active) == 0 {
		result.Errors = append(result.Errors, "No connected accounts found; records were approved but not scheduled")
		return result, nil
	}

	schedule, err := s.remote.GetQueueSchedule(ctx, s.profileID)
	if err != nil {
		return result, &RemoteUnavailableError{Op: "get queue schedule", Err: err}
	}
	if !schedule.Exists || !schedule.Active || len(schedule.Slots) == 0 {
		result.Errors = append(result.Errors, "Queue schedule is not configured or inactive; records were approved but not scheduled")
		return result, nil
	}

	platforms := make([]scheduler.Platform, 0, len(active))
	for _, acc := range active {
		platforms = append(platforms, scheduler.Platform{Platform: acc.Platform, AccountID: acc.AccountID})
	}

	for _, id := range eligible {
		if err := s.scheduleOne(ctx, id, platforms, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("record %d: %v", id, err))
		}
	}

	return result, nil
}

func (s *approvalService) scheduleOne(ctx context.Context, id int64, platforms []scheduler.Platform, result *models.ApprovalResult) error {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get record: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("record vanished before scheduling")
	}

	slot, err := s.remote.NextQueueSlot(ctx, s.profileID)
	if err != nil {
		return fmt.Errorf("next queue slot: %w", err)
	}

	req := &scheduler.CreatePostRequest{
		Content:           BuildPostContent(rec.Caption, rec.Hashtags),
		Platforms:         platforms,
		ScheduledFor:      slot.ScheduledFor,
		Timezone:          slot.Timezone,
		QueuedFromProfile: s.profileID,
	}
	if media, ok := usableMediaURL(rec.ImageURL); ok {
		req.MediaItems = []scheduler.MediaItem{{URL: media, Type: "image"}}
	} else if rec.ImageURL != "" {
		slog.Warn("dropping non-http media url", "record_id", id)
	}

	post, err := s.remote.CreatePost(ctx, req)
	if err != nil {
		return fmt.Errorf("create remote post: %w", err)
	}

	mirror := &models.RemoteMirror{
		PostID:       post.ID,
		Status:       models.ParseRemoteStatus(post.Status).String(),
		ScheduledFor: &slot.ScheduledFor,
		Platforms:    platformNames(platforms),
	}
	if mirror.Status == "" {
		mirror.Status = string(models.RemoteStatusScheduled)
	}
	if err := s.records.SetRemoteMirror(ctx, id, mirror); err != nil {
		return fmt.Errorf("write remote mirror: %w", err)
	}

	result.Scheduled = append(result.Scheduled, models.ScheduledItem{
		RecordID:     id,
		RemotePostID: post.ID,
		ScheduledFor: slot.ScheduledFor,
	})
	return nil
}

// ScheduleAt books a remote post at a caller-supplied time instead of a
// queue slot. The record must already be approved; only connected accounts
// are required, not an active queue schedule.
func (s *approvalService) ScheduleAt(ctx context.Context, id int64, at time.Time, timezone string) (*models.ScheduledItem, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	if rec == nil {
		return nil, &NotFoundError{RecordID: id}
	}
	if rec.State() == models.StatePublished {
		return nil, &ImmutableRecordError{RecordID: id}
	}
	if rec.HasRemotePost() {
		return nil, &ValidationError{RecordID: id, Reason: "a remote post already exists; unschedule first"}
	}
	if rec.State() != models.StateApproved && rec.State() != models.StateScheduledLocal {
		return nil, &ValidationError{RecordID: id, Reason: "record must be approved before scheduling"}
	}
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, &ValidationError{RecordID: id, Reason: fmt.Sprintf("unknown timezone %q", timezone)}
	}

	s.locks.Lock(s.profileID)
	defer s.locks.Unlock(s.profileID)

	accounts, err := s.remote.ListAccounts(ctx, s.profileID)
	if err != nil {
		return nil, &RemoteUnavailableError{Op: "list accounts", Err: err}
	}
	var platforms []scheduler.Platform
	for _, acc := range accounts {
		if acc.IsActive {
			platforms = append(platforms, scheduler.Platform{Platform: acc.Platform, AccountID: acc.AccountID})
		}
	}
	if len(platforms) == 0 {
		return nil, &ValidationError{RecordID: id, Reason: "no connected accounts"}
	}

	req := &scheduler.CreatePostRequest{
		Content:      BuildPostContent(rec.Caption, rec.Hashtags),
		Platforms:    platforms,
		ScheduledFor: at,
		Timezone:     timezone,
	}
	if media, ok := usableMediaURL(rec.ImageURL); ok {
		req.MediaItems = []scheduler.MediaItem{{URL: media, Type: "image"}}
	} else if rec.ImageURL != "" {
		slog.Warn("dropping non-http media url", "record_id", id)
	}

	post, err := s.remote.CreatePost(ctx, req)
	if err != nil {
		return nil, &RemoteUnavailableError{Op: "create post", Err: err}
	}

	mirror := &models.RemoteMirror{
		PostID:       post.ID,
		Status:       models.ParseRemoteStatus(post.Status).String(),
		ScheduledFor: &at,
		Platforms:    platformNames(platforms),
	}
	if mirror.Status == "" {
		mirror.Status = string(models.RemoteStatusScheduled)
	}
	if err := s.records.SetRemoteMirror(ctx, id, mirror); err != nil {
		return nil, fmt.Errorf("write remote mirror: %w", err)
	}

	return &models.ScheduledItem{
		RecordID:     id,
		RemotePostID: post.ID,
		ScheduledFor: at,
	}, nil
}

// BuildPostContent appends hashtags to the caption, skipping tags the
// caption already contains so the published text never repeats them.
func BuildPostContent(caption string, hashtags []string) string {
	lower := strings.ToLower(caption)
	var missing []string
	for _, tag := range hashtags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		if strings.Contains(lower, strings.ToLower(tag)) {
			continue
		}
		missing = append(missing, tag)
	}
	if len(missing) == 0 {
		return caption
	}
	if strings.TrimSpace(caption) == "" {
		return strings.Join(missing, " ")
	}
	return caption + "\n\n" + strings.Join(missing, " ")
}

// usableMediaURL accepts only absolute http(s) URLs. Opaque payloads such as
// base64 data URIs are dropped rather than sent to the remote scheduler.
func usableMediaURL(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host == "" {
		return "", false
	}
	return raw, true
}
