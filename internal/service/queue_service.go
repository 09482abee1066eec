package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jsandell/postline/internal/scheduler"
)

// QueueService reads and replaces the weekly queue schedule. The schedule is
// owned by the remote scheduler and never persisted locally; every call
// reads through. Slot edits are whole-schedule replacements only.
type QueueService interface {
	Accounts(ctx context.Context) ([]scheduler.Account, error)
	Schedule(ctx context.Context) (*scheduler.QueueSchedule, error)
	ReplaceSchedule(ctx context.Context, timezone string, slots []scheduler.QueueSlot, active bool) error
	Preview(ctx context.Context, n int) ([]time.Time, error)
}

type queueService struct {
	remote    scheduler.Client
	profileID string
}

func NewQueueService(remote scheduler.Client, profileID string) QueueService {
	return &queueService{
		remote:    remote,
		profileID: profileID,
	}
}

func (s *queueService) Accounts(ctx context.Context) ([]scheduler.Account, error) {
	accounts, err := s.remote.ListAccounts(ctx, s.profileID)
	if err != nil {
		return nil, &RemoteUnavailableError{Op: "list accounts", Err: err}
	}
	return accounts, nil
}

func (s *queueService) Schedule(ctx context.Context) (*scheduler.QueueSchedule, error) {
	schedule, err := s.remote.GetQueueSchedule(ctx, s.profileID)
	if err != nil {
		return nil, &RemoteUnavailableError{Op: "get queue schedule", Err: err}
	}
	return schedule, nil
}

func (s *queueService) ReplaceSchedule(ctx context.Context, timezone string, slots []scheduler.QueueSlot, active bool) error {
	if _, err := time.LoadLocation(timezone); err != nil {
		return &ValidationError{Reason: fmt.Sprintf("unknown timezone %q", timezone)}
	}
	for _, slot := range slots {
		if _, ok := weekdayByName[slot.Day]; !ok {
			return &ValidationError{Reason: fmt.Sprintf("unknown day %q", slot.Day)}
		}
		if _, err := time.Parse("15:04", slot.Time); err != nil {
			return &ValidationError{Reason: fmt.Sprintf("invalid slot time %q", slot.Time)}
		}
	}

	err := s.remote.SetQueueSchedule(ctx, &scheduler.SetQueueScheduleRequest{
		ProfileID: s.profileID,
		Timezone:  timezone,
		Slots:     slots,
		Active:    active,
	})
	if err != nil {
		return &RemoteUnavailableError{Op: "set queue schedule", Err: err}
	}
	return nil
}

// Preview computes the next n slot times without consuming anything; only
// NextQueueSlot consumes capacity.
func (s *queueService) Preview(ctx context.Context, n int) ([]time.Time, error) {
	schedule, err := s.Schedule(ctx)
	if err != nil {
		return nil, err
	}
	if !schedule.Exists || !schedule.Active {
		return nil, &ValidationError{Reason: "queue schedule is not configured or inactive"}
	}
	return PreviewSlots(schedule, time.Now(), n)
}

var weekdayByName = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

// PreviewSlots expands the weekly recurring slots into the next n concrete
// times after from, in the schedule's timezone.
func PreviewSlots(schedule *scheduler.QueueSchedule, from time.Time, n int) ([]time.Time, error) {
	if n <= 0 || len(schedule.Slots) == 0 {
		return nil, nil
	}
	loc, err := time.LoadLocation(schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", schedule.Timezone, err)
	}

	start := from.In(loc)
	weeks := n/len(schedule.Slots) + 2

	var times []time.Time
	for _, slot := range schedule.Slots {
		day, ok := weekdayByName[slot.Day]
		if !ok {
			return nil, fmt.Errorf("unknown day %q", slot.Day)
		}
		tod, err := time.Parse("15:04", slot.Time)
		if err != nil {
			return nil, fmt.Errorf("invalid slot time %q: %w", slot.Time, err)
		}

		dayOffset := (int(day) - int(start.Weekday()) + 7) % 7
		first := time.Date(start.Year(), start.Month(), start.Day()+dayOffset, tod.Hour(), tod.Minute(), 0, 0, loc)
		if !first.After(start) {
			first = first.AddDate(0, 0, 7)
		}
		for w := 0; w < weeks; w++ {
			times = append(times, first.AddDate(0, 0, 7*w))
		}
	}

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	if len(times) > n {
		times = times[:n]
	}
	return times, nil
}
