package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"robodelivery/internal/core/application/usecases/commands"
)

const (
	DefaultDispatchRetrySpec  = "*/10 * * * * *"
	DefaultDispatchRetryLimit = 50
)

// PendingDispatchRetrier sweeps approved orders that still wait for a robot.
type PendingDispatchRetrier interface {
	Handle(ctx context.Context, cmd commands.RetryPendingDispatchCommand) (int, error)
}

// DispatchRetryJob re-runs dispatch for approved orders that found no robot the first
// time, or whose queue entry was dropped.
type DispatchRetryJob struct {
	handler PendingDispatchRetrier
	spec    string
	cmd     commands.RetryPendingDispatchCommand
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewDispatchRetryJob creates the job. spec is a six-field cron expression (with
// seconds); an empty spec means DefaultDispatchRetrySpec.
func NewDispatchRetryJob(handler PendingDispatchRetrier, spec string, limit int, logger *slog.Logger) (*DispatchRetryJob, error) {
	if spec == "" {
		spec = DefaultDispatchRetrySpec
	}
	if limit <= 0 {
		limit = DefaultDispatchRetryLimit
	}

	cmd, err := commands.NewRetryPendingDispatchCommand(limit)
	if err != nil {
		return nil, err
	}

	return &DispatchRetryJob{
		handler: handler,
		spec:    spec,
		cmd:     cmd,
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:  logger.With("component", "dispatch_retry_job"),
	}, nil
}

// Start schedules the sweep.
func (j *DispatchRetryJob) Start() error {
	if _, err := j.cron.AddFunc(j.spec, j.Run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Dispatch retry job started", "spec", j.spec)
	return nil
}

// Run performs one sweep.
func (j *DispatchRetryJob) Run() {
	ctx := context.Background()

	assigned, err := j.handler.Handle(ctx, j.cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Dispatch retry job failed", "error", err, "assigned", assigned)
		return
	}
	if assigned > 0 {
		j.logger.InfoContext(ctx, "Dispatched waiting orders", "assigned", assigned)
	}
}

// Stop stops the job and waits for a running sweep to finish.
func (j *DispatchRetryJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Dispatch retry job stopped")
}
