package transfer

import "github.com/jsandell/postline/internal/scheduler"

// QueueScheduleUpdate replaces the whole weekly schedule; there are no
// partial slot edits.
type QueueScheduleUpdate struct {
	Timezone string                `json:"timezone"`
	Slots    []scheduler.QueueSlot `json:"slots"`
	Active   bool                  `json:"active"`
}
