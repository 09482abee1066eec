package queue

import (
	"github.com/jsandell/postline/internal/service"
)

type Queue struct {
	rs service.ReconcileService
}

func NewQueue(rs service.ReconcileService) *Queue {
	return &Queue{
		rs: rs,
	}
}

const TaskTypeReconcile = "reconcile:run"

type ReconcilePayload struct {
	TriggeredBy string `json:"triggered_by"`
}
