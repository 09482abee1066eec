package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jsandell/postline/internal/models"
	"github.com/jsandell/postline/internal/scheduler"
)

// --- fake record repository ---

type fakeRecordRepo struct {
	mu        sync.Mutex
	nextID    int64
	records   map[int64]*models.ContentRecord
	mirrorErr map[int64]error
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{
		records:   make(map[int64]*models.ContentRecord),
		mirrorErr: make(map[int64]error),
	}
}

func (f *fakeRecordRepo) add(rec models.ContentRecord) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	rec.ID = f.nextID
	if rec.ApprovalStatus == "" {
		rec.ApprovalStatus = models.ApprovalPending
	}
	if rec.Source == "" {
		rec.Source = models.SourceLocal
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	f.records[rec.ID] = &rec
	return rec.ID
}

func cloneRecord(rec *models.ContentRecord) *models.ContentRecord {
	cp := *rec
	cp.Hashtags = append([]string(nil), rec.Hashtags...)
	cp.ExtraImageURLs = append([]string(nil), rec.ExtraImageURLs...)
	cp.RemotePlatforms = append([]string(nil), rec.RemotePlatforms...)
	return &cp
}

func (f *fakeRecordRepo) Create(ctx context.Context, tx *sql.Tx, rec *models.ContentRecord) (int64, error) {
	return f.add(*rec), nil
}

func (f *fakeRecordRepo) GetByID(ctx context.Context, id int64) (*models.ContentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

func (f *fakeRecordRepo) GetByRemotePostID(ctx context.Context, remoteID string) (*models.ContentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *models.ContentRecord
	for _, rec := range f.records {
		if rec.RemotePostID != nil && *rec.RemotePostID == remoteID {
			if found == nil || rec.ID < found.ID {
				found = rec
			}
		}
	}
	if found == nil {
		return nil, nil
	}
	return cloneRecord(found), nil
}

func (f *fakeRecordRepo) List(ctx context.Context, filter *models.RecordFilter) ([]*models.ContentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var recs []*models.ContentRecord
	for _, rec := range f.records {
		if filter != nil {
			if filter.ApprovalStatus != "" && rec.ApprovalStatus != filter.ApprovalStatus {
				continue
			}
			if filter.IsDraft != nil && rec.IsDraft != *filter.IsDraft {
				continue
			}
			if filter.Source != "" && rec.Source != filter.Source {
				continue
			}
		}
		recs = append(recs, cloneRecord(rec))
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	return recs, nil
}

func (f *fakeRecordRepo) ListByIDs(ctx context.Context, ids []int64) ([]*models.ContentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var recs []*models.ContentRecord
	for _, id := range ids {
		if rec, ok := f.records[id]; ok {
			recs = append(recs, cloneRecord(rec))
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	return recs, nil
}

func (f *fakeRecordRepo) ListRemoteLinked(ctx context.Context) ([]*models.ContentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var recs []*models.ContentRecord
	for _, rec := range f.records {
		if rec.RemotePostID != nil {
			recs = append(recs, cloneRecord(rec))
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	return recs, nil
}

func (f *fakeRecordRepo) UpdateContent(ctx context.Context, id int64, p *models.ContentPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return fmt.Errorf("record %d not found", id)
	}
	if p.Caption != nil {
		rec.Caption = *p.Caption
	}
	if p.Hashtags != nil {
		rec.Hashtags = p.Hashtags
	}
	if p.ImageURL != nil {
		rec.ImageURL = *p.ImageURL
	}
	if p.ExtraImageURLs != nil {
		rec.ExtraImageURLs = p.ExtraImageURLs
	}
	if p.SourceMetadata != nil {
		rec.SourceMetadata = *p.SourceMetadata
	}
	rec.UpdatedAt = time.Now()
	return nil
}

func (f *fakeRecordRepo) MarkPending(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return fmt.Errorf("record %d not found", id)
	}
	rec.IsDraft = false
	rec.ApprovalStatus = models.ApprovalPending
	rec.RejectionReason = nil
	rec.UpdatedAt = time.Now()
	return nil
}

func (f *fakeRecordRepo) MarkApproved(ctx context.Context, ids []int64, approver string) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	var approved []int64
	for _, id := range ids {
		rec, ok := f.records[id]
		if !ok {
			continue
		}
		if rec.ApprovalStatus != models.ApprovalPending || rec.IsDraft || rec.RemotePublishedAt != nil {
			continue
		}
		rec.ApprovalStatus = models.ApprovalApproved
		rec.ApprovedAt = &now
		rec.ApprovedBy = &approver
		rec.UpdatedAt = now
		approved = append(approved, id)
	}
	return approved, nil
}

func (f *fakeRecordRepo) MarkUnapproved(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return fmt.Errorf("record %d not found", id)
	}
	rec.ApprovalStatus = models.ApprovalPending
	rec.ApprovedAt = nil
	rec.ApprovedBy = nil
	rec.UpdatedAt = time.Now()
	return nil
}

func (f *fakeRecordRepo) MarkRejected(ctx context.Context, id int64, reason *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return fmt.Errorf("record %d not found", id)
	}
	rec.IsDraft = false
	rec.ApprovalStatus = models.ApprovalRejected
	rec.RejectionReason = reason
	rec.UpdatedAt = time.Now()
	return nil
}

func (f *fakeRecordRepo) MarkDraft(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return fmt.Errorf("record %d not found", id)
	}
	rec.IsDraft = true
	rec.ApprovalStatus = models.ApprovalPending
	rec.RejectionReason = nil
	rec.UpdatedAt = time.Now()
	return nil
}

func (f *fakeRecordRepo) SetRemoteMirror(ctx context.Context, id int64, m *models.RemoteMirror) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.mirrorErr[id]; err != nil {
		return err
	}
	rec, ok := f.records[id]
	if !ok {
		return fmt.Errorf("record %d not found", id)
	}
	postID := m.PostID
	status := m.Status
	rec.RemotePostID = &postID
	rec.RemoteStatus = &status
	rec.RemoteScheduledFor = m.ScheduledFor
	rec.RemotePublishedAt = m.PublishedAt
	rec.RemotePlatforms = m.Platforms
	rec.UpdatedAt = time.Now()
	return nil
}

func (f *fakeRecordRepo) UpdateRemoteMirror(ctx context.Context, id int64, p *models.RemoteMirrorPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.mirrorErr[id]; err != nil {
		return err
	}
	rec, ok := f.records[id]
	if !ok {
		return fmt.Errorf("record %d not found", id)
	}
	if p.Status != nil {
		rec.RemoteStatus = p.Status
	}
	if p.SetScheduledFor {
		rec.RemoteScheduledFor = p.ScheduledFor
	}
	if p.SetPublishedAt {
		rec.RemotePublishedAt = p.PublishedAt
	}
	rec.UpdatedAt = time.Now()
	return nil
}

func (f *fakeRecordRepo) ClearRemoteMirror(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.mirrorErr[id]; err != nil {
		return err
	}
	rec, ok := f.records[id]
	if !ok {
		return fmt.Errorf("record %d not found", id)
	}
	rec.RemotePostID = nil
	rec.RemoteStatus = nil
	rec.RemoteScheduledFor = nil
	rec.RemotePublishedAt = nil
	rec.RemotePlatforms = nil
	rec.UpdatedAt = time.Now()
	return nil
}

func (f *fakeRecordRepo) Remove(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

// --- fake remote scheduler ---

type fakeScheduler struct {
	mu       sync.Mutex
	posts    []scheduler.Post
	accounts []scheduler.Account
	schedule *scheduler.QueueSchedule

	nextSlots []scheduler.NextSlot
	slotIdx   int

	listErr     error
	accountsErr error
	scheduleErr error
	nextSlotErr error
	deleteErr   error
	createErrOn map[int]error

	createCalls []*scheduler.CreatePostRequest
	deleted     []string
	nextPostID  int
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{
		createErrOn: make(map[int]error),
		schedule: &scheduler.QueueSchedule{
			Exists:   true,
			Active:   true,
			Timezone: "UTC",
			Slots: []scheduler.QueueSlot{
				{Day: "Monday", Time: "09:00"},
				{Day: "Thursday", Time: "17:30"},
			},
		},
	}
}

func (f *fakeScheduler) ListPosts(ctx context.Context, opts scheduler.ListPostsOptions) ([]scheduler.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]scheduler.Post(nil), f.posts...), nil
}

func (f *fakeScheduler) GetPost(ctx context.Context, id string) (*scheduler.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.posts {
		if f.posts[i].ID == id {
			post := f.posts[i]
			return &post, nil
		}
	}
	return nil, fmt.Errorf("post %s not found", id)
}

func (f *fakeScheduler) CreatePost(ctx context.Context, req *scheduler.CreatePostRequest) (*scheduler.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := len(f.createCalls)
	f.createCalls = append(f.createCalls, req)
	if err := f.createErrOn[call]; err != nil {
		return nil, err
	}
	f.nextPostID++
	scheduledFor := req.ScheduledFor
	post := scheduler.Post{
		ID:           fmt.Sprintf("remote-%d", f.nextPostID),
		Content:      req.Content,
		Status:       "scheduled",
		ScheduledFor: &scheduledFor,
		Platforms:    req.Platforms,
		MediaItems:   req.MediaItems,
	}
	f.posts = append(f.posts, post)
	return &post, nil
}

func (f *fakeScheduler) UpdatePost(ctx context.Context, id string, req *scheduler.UpdatePostRequest) (*scheduler.Post, error) {
	return f.GetPost(ctx, id)
}

func (f *fakeScheduler) DeletePost(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	for i := range f.posts {
		if f.posts[i].ID == id {
			f.posts = append(f.posts[:i], f.posts[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeScheduler) ListAccounts(ctx context.Context, profileID string) ([]scheduler.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accountsErr != nil {
		return nil, f.accountsErr
	}
	return append([]scheduler.Account(nil), f.accounts...), nil
}

func (f *fakeScheduler) GetQueueSchedule(ctx context.Context, profileID string) (*scheduler.QueueSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scheduleErr != nil {
		return nil, f.scheduleErr
	}
	schedule := *f.schedule
	return &schedule, nil
}

func (f *fakeScheduler) SetQueueSchedule(ctx context.Context, req *scheduler.SetQueueScheduleRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schedule = &scheduler.QueueSchedule{
		Exists:   true,
		Active:   req.Active,
		Timezone: req.Timezone,
		Slots:    req.Slots,
	}
	return nil
}

// NextQueueSlot consumes slots strictly in order, the way the real endpoint
// hands out each slot exactly once.
func (f *fakeScheduler) NextQueueSlot(ctx context.Context, profileID string) (*scheduler.NextSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nextSlotErr != nil {
		return nil, f.nextSlotErr
	}
	if f.slotIdx >= len(f.nextSlots) {
		return nil, fmt.Errorf("queue has no free slots")
	}
	slot := f.nextSlots[f.slotIdx]
	f.slotIdx++
	return &slot, nil
}

// --- helpers ---

func strPtr(s string) *string { return &s }

func containsError(errs []string, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}
