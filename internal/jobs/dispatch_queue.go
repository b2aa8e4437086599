package jobs

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"robodelivery/internal/core/application/usecases/commands"
	"robodelivery/internal/core/domain/model/kernel"
)

const (
	DefaultDispatchQueueSize = 256
	DefaultDispatchWorkers   = 4
)

// DispatchQueue implements ports.DispatchScheduler with a bounded buffer. Schedule never
// blocks the caller: when the buffer is full the order is left for DispatchRetryJob.
type DispatchQueue struct {
	orders chan kernel.UUID
	logger *slog.Logger
}

func NewDispatchQueue(size int, logger *slog.Logger) *DispatchQueue {
	if size <= 0 {
		size = DefaultDispatchQueueSize
	}
	return &DispatchQueue{
		orders: make(chan kernel.UUID, size),
		logger: logger.With("component", "dispatch_queue"),
	}
}

func (q *DispatchQueue) Schedule(orderID kernel.UUID) {
	select {
	case q.orders <- orderID:
	default:
		q.logger.Warn("dispatch queue is full, leaving order to the retry job", "order_id", orderID.String())
	}
}

// Len returns the number of orders waiting.
func (q *DispatchQueue) Len() int {
	return len(q.orders)
}

// DispatchWorker drains a DispatchQueue with a fixed number of goroutines, each running
// the robot assignment for one order at a time.
type DispatchWorker struct {
	queue    *DispatchQueue
	assigner commands.RobotAssigner
	workers  int
	logger   *slog.Logger
}

func NewDispatchWorker(queue *DispatchQueue, assigner commands.RobotAssigner, workers int, logger *slog.Logger) *DispatchWorker {
	if workers <= 0 {
		workers = DefaultDispatchWorkers
	}
	return &DispatchWorker{
		queue:    queue,
		assigner: assigner,
		workers:  workers,
		logger:   logger.With("component", "dispatch_worker"),
	}
}

// Run blocks until ctx is done. Orders still queued at that point are picked up by the
// retry job after a restart, since they stay vendor_approved.
func (w *DispatchWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < w.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case orderID := <-w.queue.orders:
					w.dispatch(ctx, orderID)
				}
			}
		})
	}

	w.logger.InfoContext(ctx, "dispatch worker started", "workers", w.workers)
	return g.Wait()
}

func (w *DispatchWorker) dispatch(ctx context.Context, orderID kernel.UUID) {
	cmd, err := commands.NewAssignRobotCommand(orderID)
	if err != nil {
		w.logger.ErrorContext(ctx, "invalid order id in dispatch queue", "order_id", orderID.String(), "error", err)
		return
	}

	_, err = w.assigner.Handle(ctx, cmd)
	switch {
	case err == nil:
	case errors.Is(err, commands.ErrNoRobotAvailable):
		w.logger.InfoContext(ctx, "no robot available yet", "order_id", orderID.String())
	case errors.Is(err, commands.ErrOrderNotAwaitingDispatch), errors.Is(err, context.Canceled):
	default:
		w.logger.ErrorContext(ctx, "dispatch failed", "order_id", orderID.String(), "error", err)
	}
}
