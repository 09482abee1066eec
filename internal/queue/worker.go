package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jsandell/postline/internal/service"
)

func (q *Queue) HandleReconcileTask(ctx context.Context, task *asynq.Task) error {
	var payload ReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	report, err := q.rs.Reconcile(ctx)
	if err != nil {
		var concurrent *service.ConcurrentRunError
		if errors.As(err, &concurrent) {
			// Another pass is already repairing the same profile; this task
			// has nothing left to do.
			slog.Info("skipping reconciliation task", "reason", err.Error())
			return nil
		}
		return err
	}

	slog.Info("reconciliation task finished",
		"triggered_by", payload.TriggeredBy,
		"run_id", report.RunID,
		"created", report.Created,
		"updated", report.Updated,
		"cleaned", report.Cleaned,
		"errors", len(report.Errors),
	)
	return nil
}
