// Package jobs provides the background work of the delivery service.
//
// Scheduled jobs use github.com/robfig/cron/v3 with six-field (seconds) expressions and
// skip a tick while the previous run is still going:
//
//  1. DispatchRetryJob - sweeps vendor_approved orders, oldest first, and tries to give
//     each of them a robot
//  2. TelemetrySimulationJob - moves busy robots one step per tick and reports the step
//     as telemetry (local runs only)
//
// Approved orders are normally dispatched right away: the order lifecycle hands them to
// DispatchQueue and a DispatchWorker pool runs the assignment. The retry job catches what
// the queue could not, either because no robot was free or because the queue was full.
//
// # Usage
//
//	queue := jobs.NewDispatchQueue(0, logger)
//	worker := jobs.NewDispatchWorker(queue, &assignHandler, 4, logger)
//
//	retry, _ := jobs.NewDispatchRetryJob(&retryHandler, "", 0, logger)
//	jobManager := jobs.NewJobManager(retry)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
//	go worker.Run(ctx)
//
// # Error Handling
//
// - Expected business outcomes (no robot available, order no longer awaiting dispatch)
// are not errors for the worker
// - Failed job starts stop any already running jobs
package jobs
