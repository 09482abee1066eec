package job

import (
	"log"

	"github.com/hibiken/asynq"
	"github.com/jsandell/postline/internal/queue"
)

type ReconcileJob struct {
	asynqClient *asynq.Client
}

func NewReconcileJob(asynqClient *asynq.Client) *ReconcileJob {
	return &ReconcileJob{asynqClient: asynqClient}
}

// Run enqueues a periodic reconciliation pass so drift gets repaired even
// when no operator is looking at the dashboard.
func (j *ReconcileJob) Run() {
	err := queue.EnqueueReconcile(j.asynqClient, queue.ReconcilePayload{TriggeredBy: "cron"})
	if err != nil {
		log.Printf("Error enqueueing periodic reconciliation: %v", err)
	}
}
