package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"robodelivery/internal/core/application/usecases/commands"
)

const (
	DefaultSimulationSpec   = "* * * * * *"
	DefaultSimulationStepKm = 0.05
)

// RobotMover moves busy robots one step.
type RobotMover interface {
	Handle(ctx context.Context, cmd commands.MoveRobotsCommand) (int, error)
}

// TelemetrySimulationJob plays the robots on local runs: every tick each busy robot
// moves one step and reports it as telemetry.
type TelemetrySimulationJob struct {
	handler RobotMover
	spec    string
	cmd     commands.MoveRobotsCommand
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewTelemetrySimulationJob creates the job. A non-positive stepKm means
// DefaultSimulationStepKm; each step drains one percent of battery.
func NewTelemetrySimulationJob(handler RobotMover, spec string, stepKm float64, logger *slog.Logger) (*TelemetrySimulationJob, error) {
	if spec == "" {
		spec = DefaultSimulationSpec
	}
	if stepKm <= 0 {
		stepKm = DefaultSimulationStepKm
	}

	cmd, err := commands.NewMoveRobotsCommand(stepKm, 1)
	if err != nil {
		return nil, err
	}

	return &TelemetrySimulationJob{
		handler: handler,
		spec:    spec,
		cmd:     cmd,
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:  logger.With("component", "telemetry_simulation_job"),
	}, nil
}

// Start schedules the simulation.
func (j *TelemetrySimulationJob) Start() error {
	if _, err := j.cron.AddFunc(j.spec, j.Run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Telemetry simulation job started", "spec", j.spec)
	return nil
}

// Run performs one simulation step.
func (j *TelemetrySimulationJob) Run() {
	ctx := context.Background()

	if _, err := j.handler.Handle(ctx, j.cmd); err != nil {
		j.logger.ErrorContext(ctx, "Telemetry simulation job failed", "error", err)
	}
}

// Stop stops the job and waits for a running step to finish.
func (j *TelemetrySimulationJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Telemetry simulation job stopped")
}
