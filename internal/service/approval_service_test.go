package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsandell/postline/internal/models"
	"github.com/jsandell/postline/internal/scheduler"
)

func newApprovalFixture() (*fakeRecordRepo, *fakeScheduler, ApprovalService) {
	repo := newFakeRecordRepo()
	remote := newFakeScheduler()
	remote.accounts = []scheduler.Account{
		{Platform: "instagram", AccountID: "acc-1", ProfileID: "profile-1", IsActive: true},
	}
	svc := NewApprovalService(repo, remote, NewProfileLocks(), "profile-1")
	return repo, remote, svc
}

func TestApproveAndScheduleHappyPath(t *testing.T) {
	repo, remote, svc := newApprovalFixture()

	slot := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	remote.nextSlots = []scheduler.NextSlot{{ScheduledFor: slot, Timezone: "UTC"}}

	id := repo.add(models.ContentRecord{
		Caption:  "Hello world",
		Hashtags: []string{"golang"},
		ImageURL: "https://cdn.example.com/pic.jpg",
	})

	result, err := svc.ApproveAndSchedule(context.Background(), []int64{id}, "reviewer@example.com", true)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ApprovedCount)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Scheduled, 1)
	assert.Equal(t, id, result.Scheduled[0].RecordID)
	assert.NotEmpty(t, result.Scheduled[0].RemotePostID)
	assert.True(t, result.Scheduled[0].ScheduledFor.Equal(slot))

	require.Len(t, remote.createCalls, 1)
	req := remote.createCalls[0]
	assert.Equal(t, "Hello world\n\n#golang", req.Content)
	assert.Equal(t, "profile-1", req.QueuedFromProfile)
	require.Len(t, req.MediaItems, 1)
	assert.Equal(t, "https://cdn.example.com/pic.jpg", req.MediaItems[0].URL)

	rec, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StateScheduledRemote, rec.State())
	require.NotNil(t, rec.ApprovedBy)
	assert.Equal(t, "reviewer@example.com", *rec.ApprovedBy)
	require.NotNil(t, rec.RemoteScheduledFor)
	assert.True(t, rec.RemoteScheduledFor.Equal(slot))
}

func TestApproveWithoutAccountsStillApproves(t *testing.T) {
	repo, remote, svc := newApprovalFixture()
	remote.accounts = nil

	id := repo.add(models.ContentRecord{Caption: "Hello world"})

	result, err := svc.ApproveAndSchedule(context.Background(), []int64{id}, "reviewer", true)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ApprovedCount)
	assert.Empty(t, result.Scheduled)
	require.Len(t, result.Errors, 1)
	assert.True(t, containsError(result.Errors, "No connected accounts"))
	assert.Empty(t, remote.createCalls)

	rec, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StateApproved, rec.State())
}

func TestApproveWithInactiveQueueStillApproves(t *testing.T) {
	repo, remote, svc := newApprovalFixture()
	remote.schedule.Active = false

	id := repo.add(models.ContentRecord{Caption: "Hello world"})

	result, err := svc.ApproveAndSchedule(context.Background(), []int64{id}, "reviewer", true)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ApprovedCount)
	assert.Empty(t, result.Scheduled)
	require.Len(t, result.Errors, 1)
	assert.True(t, containsError(result.Errors, "not configured or inactive"))
	assert.Empty(t, remote.createCalls)
}

func TestApproveConsumesDistinctSlots(t *testing.T) {
	repo, remote, svc := newApprovalFixture()

	base := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	remote.nextSlots = []scheduler.NextSlot{
		{ScheduledFor: base, Timezone: "UTC"},
		{ScheduledFor: base.AddDate(0, 0, 3), Timezone: "UTC"},
		{ScheduledFor: base.AddDate(0, 0, 7), Timezone: "UTC"},
	}

	var ids []int64
	for _, caption := range []string{"first", "second", "third"} {
		ids = append(ids, repo.add(models.ContentRecord{Caption: caption}))
	}

	result, err := svc.ApproveAndSchedule(context.Background(), ids, "reviewer", true)
	require.NoError(t, err)
	assert.Equal(t, 3, result.ApprovedCount)
	require.Len(t, result.Scheduled, 3)

	seen := make(map[time.Time]bool)
	for _, item := range result.Scheduled {
		assert.False(t, seen[item.ScheduledFor], "slot %v booked twice", item.ScheduledFor)
		seen[item.ScheduledFor] = true
	}
}

func TestApproveSkipsNonPendingRecords(t *testing.T) {
	repo, remote, svc := newApprovalFixture()

	slot := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	remote.nextSlots = []scheduler.NextSlot{{ScheduledFor: slot, Timezone: "UTC"}}

	pending := repo.add(models.ContentRecord{Caption: "still pending"})
	approved := repo.add(models.ContentRecord{
		Caption:        "already approved",
		ApprovalStatus: models.ApprovalApproved,
	})
	rejected := repo.add(models.ContentRecord{
		Caption:        "was rejected",
		ApprovalStatus: models.ApprovalRejected,
	})
	draft := repo.add(models.ContentRecord{Caption: "still drafting", IsDraft: true})

	result, err := svc.ApproveAndSchedule(context.Background(), []int64{pending, approved, rejected, draft}, "reviewer", true)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ApprovedCount)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Scheduled, 1)
	assert.Equal(t, pending, result.Scheduled[0].RecordID)
}

func TestApproveRejectsBlankCaption(t *testing.T) {
	repo, _, svc := newApprovalFixture()

	blank := repo.add(models.ContentRecord{Caption: "   "})

	result, err := svc.ApproveAndSchedule(context.Background(), []int64{blank}, "reviewer", true)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ApprovedCount)
	require.Len(t, result.Errors, 1)
	assert.True(t, containsError(result.Errors, "caption is required"))

	rec, err := repo.GetByID(context.Background(), blank)
	require.NoError(t, err)
	assert.Equal(t, models.StatePending, rec.State())
}

func TestApproveContinuesPastFailedCreate(t *testing.T) {
	repo, remote, svc := newApprovalFixture()

	base := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	remote.nextSlots = []scheduler.NextSlot{
		{ScheduledFor: base, Timezone: "UTC"},
		{ScheduledFor: base.AddDate(0, 0, 3), Timezone: "UTC"},
	}
	remote.createErrOn[0] = errors.New("media rejected")

	first := repo.add(models.ContentRecord{Caption: "fails"})
	second := repo.add(models.ContentRecord{Caption: "succeeds"})

	result, err := svc.ApproveAndSchedule(context.Background(), []int64{first, second}, "reviewer", true)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ApprovedCount)
	require.Len(t, result.Scheduled, 1)
	assert.Equal(t, second, result.Scheduled[0].RecordID)
	require.Len(t, result.Errors, 1)
	assert.True(t, containsError(result.Errors, "media rejected"))

	rec, err := repo.GetByID(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, models.StateApproved, rec.State(), "failed record stays approved but unscheduled")
}

func TestApproveWithoutAutoScheduleSkipsRemote(t *testing.T) {
	repo, remote, svc := newApprovalFixture()

	id := repo.add(models.ContentRecord{Caption: "approve only"})

	result, err := svc.ApproveAndSchedule(context.Background(), []int64{id}, "reviewer", false)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ApprovedCount)
	assert.Empty(t, result.Scheduled)
	assert.Empty(t, result.Errors)
	assert.Empty(t, remote.createCalls)
}

func TestApproveEmptyBatch(t *testing.T) {
	_, remote, svc := newApprovalFixture()

	result, err := svc.ApproveAndSchedule(context.Background(), nil, "reviewer", true)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ApprovedCount)
	assert.Empty(t, result.Scheduled)
	assert.Empty(t, result.Errors)
	assert.Empty(t, remote.createCalls)
}

func TestApproveReportsRemoteAccountFailure(t *testing.T) {
	repo, remote, svc := newApprovalFixture()
	remote.accountsErr = errors.New("timeout")

	id := repo.add(models.ContentRecord{Caption: "Hello world"})

	result, err := svc.ApproveAndSchedule(context.Background(), []int64{id}, "reviewer", true)

	var remoteErr *RemoteUnavailableError
	require.ErrorAs(t, err, &remoteErr)
	require.NotNil(t, result, "approval already happened; result must survive the error")
	assert.Equal(t, 1, result.ApprovedCount)
}

func TestScheduleAtExplicitTime(t *testing.T) {
	repo, remote, svc := newApprovalFixture()
	// queue inactive to show explicit-time scheduling does not need it
	remote.schedule.Active = false

	at := time.Date(2025, 4, 1, 18, 0, 0, 0, time.UTC)
	id := repo.add(models.ContentRecord{
		Caption:        "explicit",
		ApprovalStatus: models.ApprovalApproved,
	})

	item, err := svc.ScheduleAt(context.Background(), id, at, "UTC")
	require.NoError(t, err)
	assert.Equal(t, id, item.RecordID)
	assert.NotEmpty(t, item.RemotePostID)
	assert.True(t, item.ScheduledFor.Equal(at))

	require.Len(t, remote.createCalls, 1)
	assert.True(t, remote.createCalls[0].ScheduledFor.Equal(at))
	assert.Empty(t, remote.createCalls[0].QueuedFromProfile, "explicit scheduling bypasses the queue")

	rec, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StateScheduledRemote, rec.State())
}

func TestScheduleAtRequiresApprovedRecord(t *testing.T) {
	repo, _, svc := newApprovalFixture()

	at := time.Date(2025, 4, 1, 18, 0, 0, 0, time.UTC)
	pending := repo.add(models.ContentRecord{Caption: "still pending"})

	_, err := svc.ScheduleAt(context.Background(), pending, at, "UTC")
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestScheduleAtRefusesDoubleScheduling(t *testing.T) {
	repo, _, svc := newApprovalFixture()

	at := time.Date(2025, 4, 1, 18, 0, 0, 0, time.UTC)
	id := repo.add(models.ContentRecord{
		Caption:        "scheduled",
		ApprovalStatus: models.ApprovalApproved,
		RemotePostID:   strPtr("remote-1"),
	})

	_, err := svc.ScheduleAt(context.Background(), id, at, "UTC")
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestBuildPostContent(t *testing.T) {
	tests := []struct {
		name     string
		caption  string
		hashtags []string
		want     string
	}{
		{
			name:     "appends missing tags",
			caption:  "Morning coffee",
			hashtags: []string{"coffee", "#monday"},
			want:     "Morning coffee\n\n#coffee #monday",
		},
		{
			name:     "skips tags already in caption",
			caption:  "Loving #Golang today",
			hashtags: []string{"golang", "testing"},
			want:     "Loving #Golang today\n\n#testing",
		},
		{
			name:     "no tags leaves caption alone",
			caption:  "Just a caption",
			hashtags: nil,
			want:     "Just a caption",
		},
		{
			name:     "blank tags are dropped",
			caption:  "Caption",
			hashtags: []string{"", "  "},
			want:     "Caption",
		},
		{
			name:     "empty caption gets tags only",
			caption:  "",
			hashtags: []string{"solo"},
			want:     "#solo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildPostContent(tt.caption, tt.hashtags))
		})
	}
}

func TestUsableMediaURL(t *testing.T) {
	tests := []struct {
		raw string
		ok  bool
	}{
		{"https://cdn.example.com/a.jpg", true},
		{"http://cdn.example.com/a.jpg", true},
		{"data:image/png;base64,iVBORw0KGgo=", false},
		{"ftp://files.example.com/a.jpg", false},
		{"/relative/path.jpg", false},
		{"", false},
	}

	for _, tt := range tests {
		got, ok := usableMediaURL(tt.raw)
		assert.Equal(t, tt.ok, ok, "url %q", tt.raw)
		if tt.ok {
			assert.Equal(t, tt.raw, got)
		}
	}
}
