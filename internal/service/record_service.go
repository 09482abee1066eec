package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jsandell/postline/internal/models"
	"github.com/jsandell/postline/internal/repository"
	"github.com/jsandell/postline/internal/scheduler"
	"github.com/jsandell/postline/internal/transfer"
)

type RecordService interface {
	Create(ctx context.Context, rc *transfer.RecordCreation) (int64, error)
	List(ctx context.Context, f *models.RecordFilter) ([]*models.ContentRecord, error)
	Info(ctx context.Context, id int64) (*models.ContentRecord, error)
	UpdateContent(ctx context.Context, id int64, p *models.ContentPatch) error
	Remove(ctx context.Context, id int64) error
}

type recordService struct {
	records repository.RecordRepository
	remote  scheduler.Client
}

func NewRecordService(records repository.RecordRepository, remote scheduler.Client) RecordService {
	return &recordService{
		records: records,
		remote:  remote,
	}
}

func (s *recordService) Create(ctx context.Context, rc *transfer.RecordCreation) (int64, error) {
	if rc == nil {
		err := errors.New("record creation data is nil")
		slog.Error(err.Error())
		return 0, err
	}
	if !rc.IsDraft && strings.TrimSpace(rc.Caption) == "" {
		return 0, &ValidationError{Reason: "caption is required for a pending record"}
	}

	rec := models.ContentRecord{
		IsDraft:        rc.IsDraft,
		ApprovalStatus: models.ApprovalPending,
		Caption:        rc.Caption,
		Hashtags:       rc.Hashtags,
		ImageURL:       rc.ImageURL,
		ExtraImageURLs: rc.ExtraImageURLs,
		Source:         models.SourceLocal,
		SourceMetadata: rc.SourceMetadata,
	}

	id, err := s.records.Create(ctx, nil, &rec)
	if err != nil {
		return 0, fmt.Errorf("error creating record: %w", err)
	}
	return id, nil
}

func (s *recordService) List(ctx context.Context, f *models.RecordFilter) ([]*models.ContentRecord, error) {
	recs, err := s.records.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("error listing records: %w", err)
	}
	return recs, nil
}

func (s *recordService) Info(ctx context.Context, id int64) (*models.ContentRecord, error) {
	if id == 0 {
		err := errors.New("record id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting record info: %w", err)
	}
	if rec == nil {
		return nil, &NotFoundError{RecordID: id}
	}
	return rec, nil
}

func (s *recordService) UpdateContent(ctx context.Context, id int64, p *models.ContentPatch) error {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("error getting record: %w", err)
	}
	if rec == nil {
		return &NotFoundError{RecordID: id}
	}
	if rec.State() == models.StatePublished {
		return &ImmutableRecordError{RecordID: id}
	}
	if p.Caption != nil && strings.TrimSpace(*p.Caption) == "" && rec.ApprovalStatus != models.ApprovalPending {
		return &ValidationError{RecordID: id, Reason: "caption cannot be cleared on a reviewed record"}
	}
	return s.records.UpdateContent(ctx, id, p)
}

// Remove deletes a record and best-effort deletes its remote post. A remote
// delete failure is logged, not returned; if the remote copy survives, the
// next reconciliation pass re-imports it, since the remote set is truth.
func (s *recordService) Remove(ctx context.Context, id int64) error {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("error getting record: %w", err)
	}
	if rec == nil {
		return &NotFoundError{RecordID: id}
	}

	if rec.HasRemotePost() {
		if err := s.remote.DeletePost(ctx, *rec.RemotePostID); err != nil {
			slog.Warn("failed to delete remote post", "record_id", id, "remote_post_id", *rec.RemotePostID, "error", err)
		}
	}

	if err := s.records.Remove(ctx, id); err != nil {
		return fmt.Errorf("error removing record: %w", err)
	}
	return nil
}
