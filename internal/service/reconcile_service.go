package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsandell/postline/internal/models"
	"github.com/jsandell/postline/internal/repository"
	"github.com/jsandell/postline/internal/scheduler"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ReconcileService repairs drift between local content records and the
// remote scheduler's authoritative post list. Posts can be created,
// rescheduled or deleted directly in the remote system; every pass
// re-fetches the full remote truth and converges the local mirror onto it.
type ReconcileService interface {
	Reconcile(ctx context.Context) (*models.ReconciliationReport, error)
}

type reconcileService struct {
	records   repository.RecordRepository
	remote    scheduler.Client
	locks     *ProfileLocks
	profileID string
}

func NewReconcileService(records repository.RecordRepository, remote scheduler.Client, locks *ProfileLocks, profileID string) ReconcileService {
	return &reconcileService{
		records:   records,
		remote:    remote,
		locks:     locks,
		profileID: profileID,
	}
}

// Reconcile runs one full pass: orphan sweep, remote fetch, per-post
// matching, deletion sweep. A second pass against unchanged remote state
// reports zero creates, updates and cleans. One post failing never aborts
// the rest; only an unreachable remote does.
func (s *reconcileService) Reconcile(ctx context.Context) (*models.ReconciliationReport, error) {
	if !s.locks.TryLock(s.profileID) {
		return nil, &ConcurrentRunError{ProfileID: s.profileID}
	}
	defer s.locks.Unlock(s.profileID)

	startTime := time.Now()
	runID, _ := gonanoid.New()
	report := &models.ReconciliationReport{RunID: runID, Errors: []string{}}

	slog.Info("starting reconciliation", "run_id", runID, "profile_id", s.profileID)

	linked, err := s.records.ListRemoteLinked(ctx)
	if err != nil {
		return nil, fmt.Errorf("list remote-linked records: %w", err)
	}

	// Orphan sweep: remote ids that are structurally broken ("", sentinel
	// strings) never referred to a real remote post; clear the mirror so the
	// record falls back to its pre-schedule state.
	byRemoteID := make(map[string]*models.ContentRecord, len(linked))
	for _, rec := range linked {
		if !models.ValidRemoteID(*rec.RemotePostID) {
			if err := s.records.ClearRemoteMirror(ctx, rec.ID); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("record %d: clear orphan mirror: %v", rec.ID, err))
				continue
			}
			report.Cleaned++
			continue
		}
		if prev, ok := byRemoteID[*rec.RemotePostID]; ok {
			// Two records claiming one remote post violates the uniqueness
			// invariant; the older record keeps the link.
			dup := rec
			if rec.ID < prev.ID {
				byRemoteID[*rec.RemotePostID] = rec
				dup = prev
			}
			if err := s.records.ClearRemoteMirror(ctx, dup.ID); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("record %d: clear duplicate mirror: %v", dup.ID, err))
				continue
			}
			report.Cleaned++
			continue
		}
		byRemoteID[*rec.RemotePostID] = rec
	}

	remotePosts, err := s.remote.ListPosts(ctx, scheduler.ListPostsOptions{})
	if err != nil {
		return nil, &RemoteUnavailableError{Op: "list posts", Err: err}
	}
	report.Scanned = len(remotePosts)

	seen := make(map[string]bool, len(remotePosts))
	for i := range remotePosts {
		post := &remotePosts[i]
		if !models.ValidRemoteID(post.ID) {
			continue
		}
		seen[post.ID] = true

		local, ok := byRemoteID[post.ID]
		if !ok {
			if err := s.importRemotePost(ctx, post); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("remote post %s: import: %v", post.ID, err))
				continue
			}
			report.Created++
			continue
		}

		patch := diffMirror(local, post)
		if patch.Empty() {
			continue
		}
		if err := s.records.UpdateRemoteMirror(ctx, local.ID, patch); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("record %d: update mirror: %v", local.ID, err))
			continue
		}
		report.Updated++
	}

	// Deletion sweep: a linked record whose remote post vanished was deleted
	// on the remote side. Clear the mirror, keep the record.
	for remoteID, rec := range byRemoteID {
		if seen[remoteID] {
			continue
		}
		if err := s.records.ClearRemoteMirror(ctx, rec.ID); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("record %d: clear deleted mirror: %v", rec.ID, err))
			continue
		}
		report.Cleaned++
	}

	report.Duration = time.Since(startTime)

	slog.Info("reconciliation completed",
		"run_id", runID,
		"scanned", report.Scanned,
		"created", report.Created,
		"updated", report.Updated,
		"cleaned", report.Cleaned,
		"errors", len(report.Errors),
		"duration", report.Duration,
	)

	return report, nil
}

// importRemotePost synthesizes a local record for a post that only exists
// remotely. It arrives pre-approved with remote-import provenance so the UI
// can tell discovered posts from locally authored ones.
func (s *reconcileService) importRemotePost(ctx context.Context, post *scheduler.Post) error {
	now := time.Now()
	approver := "reconciliation"
	status := models.ParseRemoteStatus(post.Status).String()

	rec := models.ContentRecord{
		RemotePostID:       &post.ID,
		ApprovalStatus:     models.ApprovalApproved,
		ApprovedAt:         &now,
		ApprovedBy:         &approver,
		RemoteStatus:       &status,
		RemoteScheduledFor: post.ScheduledFor,
		RemotePublishedAt:  post.PublishedAt,
		RemotePlatforms:    platformNames(post.Platforms),
		Caption:            post.Content,
		Source:             models.SourceRemoteImport,
	}
	if len(post.MediaItems) > 0 {
		rec.ImageURL = post.MediaItems[0].URL
		for _, m := range post.MediaItems[1:] {
			rec.ExtraImageURLs = append(rec.ExtraImageURLs, m.URL)
		}
	}

	_, err := s.records.Create(ctx, nil, &rec)
	return err
}

// diffMirror returns the minimal patch that brings the local mirror in line
// with the remote post. An empty patch means no write at all; redundant
// updates would fabricate edit history. A time the remote cleared is as
// much drift as a time it set, so nil remote values propagate too.
func diffMirror(local *models.ContentRecord, post *scheduler.Post) *models.RemoteMirrorPatch {
	patch := &models.RemoteMirrorPatch{}

	remoteStatus := models.ParseRemoteStatus(post.Status)
	if local.RemoteStatus == nil || !models.ParseRemoteStatus(*local.RemoteStatus).Equal(remoteStatus) {
		status := remoteStatus.String()
		patch.Status = &status
	}
	if !timePtrEqual(local.RemoteScheduledFor, post.ScheduledFor) {
		patch.SetScheduledFor = true
		patch.ScheduledFor = post.ScheduledFor
	}
	if !timePtrEqual(local.RemotePublishedAt, post.PublishedAt) {
		patch.SetPublishedAt = true
		patch.PublishedAt = post.PublishedAt
	}
	return patch
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func platformNames(platforms []scheduler.Platform) []string {
	var names []string
	for _, p := range platforms {
		names = append(names, p.Platform)
	}
	return names
}
