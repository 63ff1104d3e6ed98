package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// EventWorker processes registry event jobs from the River queue.
// For now it logs the event; future versions will dispatch to
// webhooks, cache invalidation, or notification systems.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]
}

// Work processes a single event job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	slog.InfoContext(ctx, "processing module event",
		"event", job.Args.Event,
		"module_key", job.Args.Key,
		"status", job.Args.Status,
		"actor", job.Args.Actor,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
