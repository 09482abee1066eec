package scheduler

import "time"

// Post is a post as the remote scheduler reports it.
type Post struct {
	ID           string      `json:"id"`
	Content      string      `json:"content"`
	Status       string      `json:"status"`
	ScheduledFor *time.Time  `json:"scheduledFor"`
	PublishedAt  *time.Time  `json:"publishedAt"`
	Platforms    []Platform  `json:"platforms"`
	MediaItems   []MediaItem `json:"mediaItems"`
}

type Platform struct {
	Platform  string `json:"platform"`
	AccountID string `json:"accountId"`
}

type MediaItem struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

type Account struct {
	Platform  string `json:"platform"`
	AccountID string `json:"accountId"`
	ProfileID string `json:"profileId"`
	IsActive  bool   `json:"isActive"`
}

// QueueSlot is one (day-of-week, time-of-day) entry of the weekly recurring
// schedule. Day follows time.Weekday naming, Time is "15:04".
type QueueSlot struct {
	Day  string `json:"day"`
	Time string `json:"time"`
}

type QueueSchedule struct {
	Exists   bool        `json:"exists"`
	Active   bool        `json:"active"`
	Timezone string      `json:"timezone"`
	Slots    []QueueSlot `json:"slots"`
}

// NextSlot is the preview or consumption of the next free queue slot.
type NextSlot struct {
	ScheduledFor time.Time `json:"scheduledFor"`
	Timezone     string    `json:"timezone"`
}

type ListPostsOptions struct {
	Status string
	Limit  int
}

type CreatePostRequest struct {
	Content           string      `json:"content"`
	Platforms         []Platform  `json:"platforms"`
	MediaItems        []MediaItem `json:"mediaItems,omitempty"`
	ScheduledFor      time.Time   `json:"scheduledFor"`
	Timezone          string      `json:"timezone"`
	QueuedFromProfile string      `json:"queuedFromProfile,omitempty"`
}

type UpdatePostRequest struct {
	Content      *string    `json:"content,omitempty"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
	Timezone     string     `json:"timezone,omitempty"`
}

type SetQueueScheduleRequest struct {
	ProfileID string      `json:"profileId"`
	Timezone  string      `json:"timezone"`
	Slots     []QueueSlot `json:"slots"`
	Active    bool        `json:"active"`
}
