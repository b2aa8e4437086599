// Package kafka consumes robot telemetry readings from a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"robodelivery/internal/core/application/usecases/commands"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/robot"
)

// TelemetryMessage is the JSON payload a robot publishes.
type TelemetryMessage struct {
	RobotID      string  `json:"robot_id"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	BatteryLevel int     `json:"battery_level"`
	Milestone    string  `json:"milestone,omitempty"`
}

// TelemetryRecorder is the use case a reading is handed to.
type TelemetryRecorder interface {
	Handle(ctx context.Context, cmd commands.RecordTelemetryCommand) (*robot.Robot, error)
}

// TelemetryConsumer wraps a sarama consumer group. Readings are best effort: a
// message that cannot be decoded or applied is logged and skipped, since the next
// reading of the same robot supersedes it.
type TelemetryConsumer struct {
	group    sarama.ConsumerGroup
	topic    string
	recorder TelemetryRecorder
	logger   *slog.Logger
}

// NewTelemetryConsumer joins groupID on brokers. It returns nil without error when Kafka
// is not configured.
func NewTelemetryConsumer(
	brokers []string,
	groupID string,
	topic string,
	recorder TelemetryRecorder,
	logger *slog.Logger,
) (*TelemetryConsumer, error) {
	if len(brokers) == 0 || strings.TrimSpace(topic) == "" || strings.TrimSpace(groupID) == "" {
		return nil, nil
	}

	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	cfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}

	return &TelemetryConsumer{
		group:    group,
		topic:    topic,
		recorder: recorder,
		logger:   logger.With("component", "TelemetryConsumer"),
	}, nil
}

// Run consumes until ctx is cancelled. Rebalances end a Consume call, so it loops.
func (c *TelemetryConsumer) Run(ctx context.Context) error {
	if c == nil {
		return nil
	}

	go func() {
		for err := range c.group.Errors() {
			c.logger.ErrorContext(ctx, "kafka consumer group error", "error", err)
		}
	}()

	h := &groupHandler{c: c}
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, h); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) || ctx.Err() != nil {
				return nil
			}
			c.logger.ErrorContext(ctx, "kafka consume error", "error", err)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *TelemetryConsumer) Close() error {
	if c == nil {
		return nil
	}
	return c.group.Close()
}

// handle turns one message into a RecordTelemetryCommand and runs it.
func (c *TelemetryConsumer) handle(ctx context.Context, value []byte) {
	var msg TelemetryMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		c.logger.WarnContext(ctx, "kafka bad telemetry json", "error", err)
		return
	}

	cmd, err := msg.command()
	if err != nil {
		c.logger.WarnContext(ctx, "kafka invalid telemetry", "robot_id", msg.RobotID, "error", err)
		return
	}

	if _, err = c.recorder.Handle(ctx, cmd); err != nil {
		c.logger.ErrorContext(ctx, "kafka telemetry rejected, skipping message", "robot_id", msg.RobotID, "error", err)
	}
}

func (m TelemetryMessage) command() (commands.RecordTelemetryCommand, error) {
	robotID, idErr := kernel.UUIDFromString(m.RobotID)
	location, locationErr := kernel.NewLocation(m.Lat, m.Lng)
	milestone, milestoneErr := commands.ParseMilestone(m.Milestone)

	if err := errors.Join(idErr, locationErr, milestoneErr); err != nil {
		return commands.RecordTelemetryCommand{}, err
	}
	return commands.NewRecordTelemetryCommand(robotID, location, m.BatteryLevel, milestone)
}

type groupHandler struct{ c *TelemetryConsumer }

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			h.c.handle(sess.Context(), msg.Value)
			sess.MarkMessage(msg, "")
		case <-sess.Context().Done():
			return nil
		}
	}
}
