package transfer

import "time"

// ApprovalRequest approves a batch of pending records and optionally books
// queue slots for them in the same call.
type ApprovalRequest struct {
	IDs          []int64 `json:"ids"`
	AutoSchedule bool    `json:"auto_schedule"`
}

// ScheduleRequest books a remote post for one approved record at an explicit
// time, bypassing the queue.
type ScheduleRequest struct {
	ID           int64     `json:"id"`
	ScheduledFor time.Time `json:"scheduled_for"`
	Timezone     string    `json:"timezone"`
}
