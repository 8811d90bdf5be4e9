package tasks

import (
	"context"
)

// Job is a unit of repeatable pipeline work. Implementations must be
// safe to run repeatedly; a failed run is retried on the next trigger.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobSchedulerInterface defines the interface for scheduling operations.
// Used by the main application and the API layer to manage background
// jobs and to trigger immediate runs on demand.
// Example usage:
//
//	scheduler := NewScheduler()
//	scheduler.AddIntervalJob(ingestJob, 5*time.Minute)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.Trigger("ingest")
type JobSchedulerInterface interface {
	Start()
	Stop()
	Trigger(name string) error
}
