package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jsandell/postline/internal/models"
	"github.com/lib/pq"
)

type RecordRepository interface {
	Create(ctx context.Context, tx *sql.Tx, rec *models.ContentRecord) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ContentRecord, error)
	GetByRemotePostID(ctx context.Context, remoteID string) (*models.ContentRecord, error)
	List(ctx context.Context, f *models.RecordFilter) ([]*models.ContentRecord, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*models.ContentRecord, error)
	ListRemoteLinked(ctx context.Context) ([]*models.ContentRecord, error)
	UpdateContent(ctx context.Context, id int64, p *models.ContentPatch) error
	MarkPending(ctx context.Context, id int64) error
	MarkApproved(ctx context.Context, ids []int64, approver string) ([]int64, error)
	MarkUnapproved(ctx context.Context, id int64) error
	MarkRejected(ctx context.Context, id int64, reason *string) error
	MarkDraft(ctx context.Context, id int64) error
	SetRemoteMirror(ctx context.Context, id int64, m *models.RemoteMirror) error
	UpdateRemoteMirror(ctx context.Context, id int64, p *models.RemoteMirrorPatch) error
	ClearRemoteMirror(ctx context.Context, id int64) error
	Remove(ctx context.Context, id int64) error
}

type recordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) RecordRepository {
	return &recordRepository{db: db}
}

const recordColumns = `id, remote_post_id, is_draft, approval_status, approved_at, approved_by,
	rejection_reason, remote_status, remote_scheduled_for, remote_published_at, remote_platforms,
	caption, hashtags, image_url, extra_image_urls, source, source_metadata, created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (*models.ContentRecord, error) {
	var rec models.ContentRecord
	err := row.Scan(
		&rec.ID, &rec.RemotePostID, &rec.IsDraft, &rec.ApprovalStatus, &rec.ApprovedAt, &rec.ApprovedBy,
		&rec.RejectionReason, &rec.RemoteStatus, &rec.RemoteScheduledFor, &rec.RemotePublishedAt,
		pq.Array(&rec.RemotePlatforms),
		&rec.Caption, pq.Array(&rec.Hashtags), &rec.ImageURL, pq.Array(&rec.ExtraImageURLs),
		&rec.Source, &rec.SourceMetadata, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *recordRepository) Create(ctx context.Context, tx *sql.Tx, rec *models.ContentRecord) (int64, error) {
	query := `
		INSERT INTO content_records
			(remote_post_id, is_draft, approval_status, approved_at, approved_by,
			 remote_status, remote_scheduled_for, remote_published_at, remote_platforms,
			 caption, hashtags, image_url, extra_image_urls, source, source_metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`

	var id int64
	var err error

	args := []any{
		rec.RemotePostID, rec.IsDraft, rec.ApprovalStatus, rec.ApprovedAt, rec.ApprovedBy,
		rec.RemoteStatus, rec.RemoteScheduledFor, rec.RemotePublishedAt, pq.Array(rec.RemotePlatforms),
		rec.Caption, pq.Array(rec.Hashtags), rec.ImageURL, pq.Array(rec.ExtraImageURLs),
		rec.Source, rec.SourceMetadata,
	}

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *recordRepository) GetByID(ctx context.Context, id int64) (*models.ContentRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM content_records WHERE id = $1`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return rec, nil
}

func (r *recordRepository) GetByRemotePostID(ctx context.Context, remoteID string) (*models.ContentRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM content_records WHERE remote_post_id = $1 ORDER BY id LIMIT 1`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, remoteID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return rec, nil
}

func (r *recordRepository) List(ctx context.Context, f *models.RecordFilter) ([]*models.ContentRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM content_records WHERE 1=1`
	var args []any

	if f != nil {
		if f.ApprovalStatus != "" {
			args = append(args, f.ApprovalStatus)
			query += ` AND approval_status = $` + strconv.Itoa(len(args))
		}
		if f.IsDraft != nil {
			args = append(args, *f.IsDraft)
			query += ` AND is_draft = $` + strconv.Itoa(len(args))
		}
		if f.Source != "" {
			args = append(args, f.Source)
			query += ` AND source = $` + strconv.Itoa(len(args))
		}
	}
	query += ` ORDER BY created_at DESC`

	return r.queryRecords(ctx, query, args...)
}

func (r *recordRepository) ListByIDs(ctx context.Context, ids []int64) ([]*models.ContentRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM content_records WHERE id = ANY($1) ORDER BY id`
	return r.queryRecords(ctx, query, pq.Array(ids))
}

func (r *recordRepository) ListRemoteLinked(ctx context.Context) ([]*models.ContentRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM content_records WHERE remote_post_id IS NOT NULL ORDER BY id`
	return r.queryRecords(ctx, query)
}

func (r *recordRepository) queryRecords(ctx context.Context, query string, args ...any) ([]*models.ContentRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var recs []*models.ContentRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (r *recordRepository) UpdateContent(ctx context.Context, id int64, p *models.ContentPatch) error {
	query := `
		UPDATE content_records
		SET caption = COALESCE($1, caption),
			hashtags = COALESCE($2, hashtags),
			image_url = COALESCE($3, image_url),
			extra_image_urls = COALESCE($4, extra_image_urls),
			source_metadata = COALESCE($5, source_metadata),
			updated_at = $6
		WHERE id = $7
	`
	var hashtags, extras any
	if p.Hashtags != nil {
		hashtags = pq.Array(p.Hashtags)
	}
	if p.ExtraImageURLs != nil {
		extras = pq.Array(p.ExtraImageURLs)
	}
	_, err := r.db.ExecContext(ctx, query, p.Caption, hashtags, p.ImageURL, extras, p.SourceMetadata, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *recordRepository) MarkPending(ctx context.Context, id int64) error {
	query := `
		UPDATE content_records
		SET is_draft = false,
			approval_status = $1,
			rejection_reason = NULL,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.ApprovalPending, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// MarkApproved flips every listed record that is still pending (and not a
// draft) to approved and returns the ids it actually touched. Records in any
// other state are skipped, which makes re-approval a no-op.
func (r *recordRepository) MarkApproved(ctx context.Context, ids []int64, approver string) ([]int64, error) {
	query := `
		UPDATE content_records
		SET approval_status = $1,
			approved_at = $2,
			approved_by = $3,
			updated_at = $2
		WHERE id = ANY($4)
		  AND approval_status = $5
		  AND is_draft = false
		  AND remote_published_at IS NULL
		RETURNING id
	`
	rows, err := r.db.QueryContext(ctx, query, models.ApprovalApproved, time.Now(), approver, pq.Array(ids), models.ApprovalPending)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var approved []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		approved = append(approved, id)
	}
	return approved, rows.Err()
}

func (r *recordRepository) MarkUnapproved(ctx context.Context, id int64) error {
	query := `
		UPDATE content_records
		SET approval_status = $1,
			approved_at = NULL,
			approved_by = NULL,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.ApprovalPending, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *recordRepository) MarkRejected(ctx context.Context, id int64, reason *string) error {
	query := `
		UPDATE content_records
		SET is_draft = false,
			approval_status = $1,
			rejection_reason = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.ApprovalRejected, reason, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *recordRepository) MarkDraft(ctx context.Context, id int64) error {
	query := `
		UPDATE content_records
		SET is_draft = true,
			approval_status = $1,
			rejection_reason = NULL,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.ApprovalPending, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *recordRepository) SetRemoteMirror(ctx context.Context, id int64, m *models.RemoteMirror) error {
	query := `
		UPDATE content_records
		SET remote_post_id = $1,
			remote_status = $2,
			remote_scheduled_for = $3,
			remote_published_at = $4,
			remote_platforms = $5,
			updated_at = $6
		WHERE id = $7
	`
	_, err := r.db.ExecContext(ctx, query, m.PostID, m.Status, m.ScheduledFor, m.PublishedAt, pq.Array(m.Platforms), time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// UpdateRemoteMirror applies only the columns the patch flags as changed.
// A flagged field with a nil value writes NULL; the remote side can clear a
// scheduled or published time and the mirror must follow.
func (r *recordRepository) UpdateRemoteMirror(ctx context.Context, id int64, p *models.RemoteMirrorPatch) error {
	var set []string
	var args []any

	if p.Status != nil {
		args = append(args, *p.Status)
		set = append(set, "remote_status = $"+strconv.Itoa(len(args)))
	}
	if p.SetScheduledFor {
		args = append(args, p.ScheduledFor)
		set = append(set, "remote_scheduled_for = $"+strconv.Itoa(len(args)))
	}
	if p.SetPublishedAt {
		args = append(args, p.PublishedAt)
		set = append(set, "remote_published_at = $"+strconv.Itoa(len(args)))
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, time.Now())
	set = append(set, "updated_at = $"+strconv.Itoa(len(args)))
	args = append(args, id)

	query := `UPDATE content_records SET ` + strings.Join(set, ", ") + ` WHERE id = $` + strconv.Itoa(len(args))
	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *recordRepository) ClearRemoteMirror(ctx context.Context, id int64) error {
	query := `
		UPDATE content_records
		SET remote_post_id = NULL,
			remote_status = NULL,
			remote_scheduled_for = NULL,
			remote_published_at = NULL,
			remote_platforms = NULL,
			updated_at = $1
		WHERE id = $2
	`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *recordRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM content_records WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)

	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
